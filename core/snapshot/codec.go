package snapshot

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/mod/semver"

	"github.com/opal-lang/mathcore/core/errors"
)

const preambleLen = 10

// Write encodes s to w and returns the BLAKE2b-256 digest of the body.
// An empty Version is written as CurrentVersion.
func Write(w io.Writer, s *Snapshot) ([32]byte, error) {
	if s.Version == "" {
		s.Version = CurrentVersion
	}
	if !semver.IsValid(s.Version) {
		return [32]byte{}, errors.Newf(errors.ErrSnapshot, "invalid version %q", s.Version)
	}

	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return [32]byte{}, errors.Wrap(errors.ErrSnapshot, "create CBOR encoder", err)
	}
	body, err := encMode.Marshal(s)
	if err != nil {
		return [32]byte{}, errors.Wrap(errors.ErrSnapshot, "CBOR encoding failed", err)
	}
	if len(body) > MaxBodyLen {
		return [32]byte{}, errors.Newf(errors.ErrSnapshot, "body length %d exceeds maximum %d", len(body), MaxBodyLen)
	}
	digest := blake2b.Sum256(body)

	var buf bytes.Buffer
	buf.Grow(preambleLen + len(body) + len(digest))
	buf.WriteString(Magic)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(0))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(body)))
	buf.Write(body)
	buf.Write(digest[:])
	if _, err := w.Write(buf.Bytes()); err != nil {
		return [32]byte{}, errors.Wrap(errors.ErrSnapshot, "write snapshot", err)
	}
	return digest, nil
}

// Read decodes a snapshot from r and returns it with its body digest. The
// digest must match and the body's major version must equal
// CurrentVersion's.
func Read(r io.Reader) (*Snapshot, [32]byte, error) {
	var preamble [preambleLen]byte
	if _, err := io.ReadFull(r, preamble[:]); err != nil {
		return nil, [32]byte{}, errors.Wrap(errors.ErrSnapshot, "read preamble", err)
	}
	if magic := string(preamble[0:4]); magic != Magic {
		return nil, [32]byte{}, errors.Newf(errors.ErrSnapshot, "invalid magic: got %q, expected %q", magic, Magic)
	}
	if flags := Flags(binary.LittleEndian.Uint16(preamble[4:6])); flags != 0 {
		return nil, [32]byte{}, errors.Newf(errors.ErrSnapshot, "unsupported flags: 0x%04x", uint16(flags))
	}
	bodyLen := binary.LittleEndian.Uint32(preamble[6:10])
	if bodyLen > MaxBodyLen {
		return nil, [32]byte{}, errors.Newf(errors.ErrSnapshot, "body length %d exceeds maximum %d", bodyLen, MaxBodyLen)
	}

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, [32]byte{}, errors.Wrap(errors.ErrSnapshot, "read body", err)
	}
	var stored [32]byte
	if _, err := io.ReadFull(r, stored[:]); err != nil {
		return nil, [32]byte{}, errors.Wrap(errors.ErrSnapshot, "read digest", err)
	}
	digest := blake2b.Sum256(body)
	if digest != stored {
		return nil, [32]byte{}, errors.New(errors.ErrSnapshot, "digest mismatch").
			WithContext("want", Digest(stored)).
			WithContext("got", Digest(digest))
	}

	decMode, err := cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		MaxArrayElements: 1 << 27,
	}.DecMode()
	if err != nil {
		return nil, [32]byte{}, errors.Wrap(errors.ErrSnapshot, "create CBOR decoder", err)
	}
	var s Snapshot
	if err := decMode.Unmarshal(body, &s); err != nil {
		return nil, [32]byte{}, errors.Wrap(errors.ErrSnapshot, "CBOR decoding failed", err)
	}
	if !semver.IsValid(s.Version) {
		return nil, [32]byte{}, errors.Newf(errors.ErrSnapshot, "invalid version %q", s.Version)
	}
	if semver.Major(s.Version) != semver.Major(CurrentVersion) {
		return nil, [32]byte{}, errors.Newf(errors.ErrSnapshot, "unsupported version %s (reader is %s)", s.Version, CurrentVersion)
	}
	return &s, digest, nil
}
