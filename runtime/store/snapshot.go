package store

import (
	"github.com/opal-lang/mathcore/core/errors"
	"github.com/opal-lang/mathcore/core/invariant"
	"github.com/opal-lang/mathcore/core/snapshot"
	"github.com/opal-lang/mathcore/core/token"
)

// Capture returns the non-empty spaces and the name table as a snapshot.
func (s *Store) Capture(syms *token.Symbols) *snapshot.Snapshot {
	snap := &snapshot.Snapshot{
		Version: snapshot.CurrentVersion,
		Current: s.current,
		Names:   syms.Names(),
	}
	s.Each(func(id int, sp *Space) {
		snap.Spaces = append(snap.Spaces, snapshot.Space{
			ID:  id,
			LHS: snapshot.FromTokens(sp.LHS.Tokens()),
			RHS: snapshot.FromTokens(sp.RHS.Tokens()),
		})
	})
	return snap
}

type restored struct {
	id       int
	lhs, rhs []token.Token
}

// Restore replaces every space and the name table with the contents of
// snap. The snapshot is checked in full before anything is replaced, so a
// rejected snapshot leaves the store as it was.
func (s *Store) Restore(syms *token.Symbols, snap *snapshot.Snapshot) error {
	names := token.NewSymbols()
	for _, name := range snap.Names {
		if _, err := names.Intern(name); err != nil {
			return errors.Wrap(errors.ErrSnapshot, "bad variable name", err).WithContext("name", name)
		}
	}
	if names.Len() != len(snap.Names) {
		return errors.New(errors.ErrSnapshot, "duplicate variable name")
	}
	spaces := make([]restored, 0, len(snap.Spaces))
	seen := make(map[int]bool, len(snap.Spaces))
	top := 0
	for _, sp := range snap.Spaces {
		if sp.ID < 0 || sp.ID >= s.maxSpaces {
			return errors.New(errors.ErrSnapshot, "Invalid equation number.").WithContext("space", sp.ID+1)
		}
		if seen[sp.ID] {
			return errors.New(errors.ErrSnapshot, "duplicate equation space").WithContext("space", sp.ID+1)
		}
		seen[sp.ID] = true
		lhs, err := snapshot.ToTokens(sp.LHS, len(snap.Names))
		if err != nil {
			return err
		}
		rhs, err := snapshot.ToTokens(sp.RHS, len(snap.Names))
		if err != nil {
			return err
		}
		if len(lhs) == 0 {
			return errors.New(errors.ErrSnapshot, "equation space has an empty left side").WithContext("space", sp.ID+1)
		}
		for _, side := range [][]token.Token{lhs, rhs} {
			if len(side) > s.tokens {
				return errors.NewCapacityError(len(side), s.tokens)
			}
		}
		spaces = append(spaces, restored{id: sp.ID, lhs: lhs, rhs: rhs})
		top = max(top, sp.ID)
	}
	if snap.Current < 0 || snap.Current >= s.maxSpaces {
		return errors.New(errors.ErrSnapshot, "Invalid equation number.").WithContext("space", snap.Current+1)
	}

	if err := s.AllocUpTo(max(top, snap.Current)); err != nil {
		return err
	}
	s.ClearAll()
	syms.Reset()
	for _, name := range snap.Names {
		_, err := syms.Intern(name)
		invariant.Invariant(err == nil, "checked name %q failed to intern: %v", name, err)
	}
	for _, r := range spaces {
		sp := s.spaces[r.id]
		errL, errR := sp.LHS.Set(r.lhs), sp.RHS.Set(r.rhs)
		invariant.Invariant(errL == nil && errR == nil, "space %d rejected checked tokens", r.id)
	}
	s.current = snap.Current
	s.SetSignRegistry()
	s.log.Debug("restored snapshot", "spaces", len(spaces), "names", len(snap.Names))
	return nil
}
