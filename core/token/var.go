package token

import (
	"fmt"

	"github.com/opal-lang/mathcore/core/errors"
)

// Packed variable layout, kept so external printers and parsers that work on
// the packed integer form stay bit-for-bit compatible.
const (
	VarMask       = 0x3fff // bits holding the name index
	VarShift      = 14     // width of VarMask
	SubscriptMask = 63     // subscript bits after shifting by VarShift
	MaxSubscript  = SubscriptMask - 1

	// VarOffset is the first name index available to ordinary variables.
	VarOffset = 'A'
	// MaxVarNames bounds the number of distinct ordinary variable names.
	MaxVarNames = 8000
	// MaxVarLen bounds the length of a variable name.
	MaxVarLen = 100
)

// Reserved name indices. Order matters: everything at or below SignName is
// treated as numeric rather than symbolic.
const (
	NullName      uint32 = 0
	EName         uint32 = 1
	PiName        uint32 = 2
	ImaginaryName uint32 = 3
	SignName      uint32 = 4
	MatchAnyName  uint32 = 5
)

// Var identifies a variable: a name index plus a subscript that only sign
// variables use to tell otherwise identical "±" placeholders apart.
type Var struct {
	Name      uint32
	Subscript uint8
}

// Reserved variables.
var (
	Null      = Var{Name: NullName}
	E         = Var{Name: EName}
	Pi        = Var{Name: PiName}
	Imaginary = Var{Name: ImaginaryName}
	Sign      = Var{Name: SignName}
	MatchAny  = Var{Name: MatchAnyName}
)

// NewVar validates and returns a variable.
func NewVar(name uint32, subscript int) (Var, error) {
	if name > VarMask {
		return Var{}, errors.Newf(errors.ErrInvalidVariable, "variable name index %d out of range", name)
	}
	if subscript < 0 || subscript > SubscriptMask {
		return Var{}, errors.Newf(errors.ErrInvalidVariable, "variable subscript %d out of range", subscript)
	}
	if subscript != 0 && name != SignName {
		return Var{}, errors.Newf(errors.ErrInvalidVariable, "only sign variables take a subscript")
	}
	return Var{Name: name, Subscript: uint8(subscript)}, nil
}

// SignVar returns the sign variable with the given subscript.
func SignVar(subscript int) (Var, error) {
	return NewVar(SignName, subscript)
}

// IsZero reports whether v is the null variable.
func (v Var) IsZero() bool { return v == Null }

// IsSign reports whether v is a sign variable of any subscript.
func (v Var) IsSign() bool { return v.Name == SignName }

// IsOrdinary reports whether v is a normal symbolic variable rather than a
// reserved constant or sign placeholder.
func (v Var) IsOrdinary() bool { return v.Name > SignName }

// Encode returns the packed integer form of v.
func (v Var) Encode() int64 {
	return int64(v.Name) | int64(v.Subscript)<<VarShift
}

// DecodeVar unpacks the integer form produced by Encode.
func DecodeVar(packed int64) (Var, error) {
	if packed < 0 || packed>>(VarShift+6) != 0 {
		return Var{}, errors.Newf(errors.ErrInvalidVariable, "packed variable %#x out of range", packed)
	}
	name := uint32(packed & VarMask)
	sub := int((packed >> VarShift) & SubscriptMask)
	return NewVar(name, sub)
}

// Compare orders variables the way their packed encodings order.
func Compare(a, b Var) int {
	ea, eb := a.Encode(), b.Encode()
	switch {
	case ea < eb:
		return -1
	case ea > eb:
		return 1
	default:
		return 0
	}
}

func (v Var) String() string {
	if v.Subscript != 0 {
		return fmt.Sprintf("var(%d_%d)", v.Name, v.Subscript)
	}
	return fmt.Sprintf("var(%d)", v.Name)
}
