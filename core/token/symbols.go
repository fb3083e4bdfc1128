package token

import (
	"strconv"
	"strings"

	"github.com/opal-lang/mathcore/core/errors"
)

// reservedNames maps the printable spelling of reserved variables.
var reservedNames = map[string]Var{
	"e#":   E,
	"pi#":  Pi,
	"i#":   Imaginary,
	"sign": Sign,
	"any":  MatchAny,
}

// Symbols is the variable name table. Ordinary names are interned in order of
// first use starting at VarOffset.
type Symbols struct {
	names []string
	index map[string]uint32
}

// NewSymbols returns an empty name table.
func NewSymbols() *Symbols {
	return &Symbols{index: make(map[string]uint32)}
}

// Intern returns the variable for name, registering it if necessary.
func (s *Symbols) Intern(name string) (Var, error) {
	if v, ok := s.Lookup(name); ok {
		return v, nil
	}
	if err := validName(name); err != nil {
		return Var{}, err
	}
	if len(s.names) >= MaxVarNames {
		return Var{}, errors.New(errors.ErrOutOfVariables, "Maximum number of variable names reached.")
	}
	id := uint32(VarOffset + len(s.names))
	s.names = append(s.names, name)
	s.index[name] = id
	return Var{Name: id}, nil
}

// Lookup returns the variable for name without registering it.
func (s *Symbols) Lookup(name string) (Var, bool) {
	if v, ok := reservedNames[name]; ok {
		return v, true
	}
	if rest, ok := strings.CutPrefix(name, "sign"); ok && rest != "" {
		n, err := strconv.Atoi(rest)
		if err == nil && rest[0] != '0' {
			if v, err := SignVar(n); err == nil {
				return v, true
			}
		}
	}
	id, ok := s.index[name]
	if !ok {
		return Var{}, false
	}
	return Var{Name: id}, true
}

// Name returns the printable name of v.
func (s *Symbols) Name(v Var) string {
	switch v.Name {
	case NullName:
		return "null"
	case EName:
		return "e#"
	case PiName:
		return "pi#"
	case ImaginaryName:
		return "i#"
	case SignName:
		if v.Subscript == 0 {
			return "sign"
		}
		return "sign" + strconv.Itoa(int(v.Subscript))
	case MatchAnyName:
		return "any"
	}
	i := int(v.Name) - VarOffset
	if i >= 0 && i < len(s.names) {
		return s.names[i]
	}
	return "v" + strconv.FormatUint(uint64(v.Name), 10)
}

// Names returns the ordinary names in registration order.
func (s *Symbols) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of ordinary names registered.
func (s *Symbols) Len() int { return len(s.names) }

// Reset forgets every ordinary name.
func (s *Symbols) Reset() {
	s.names = s.names[:0]
	s.index = make(map[string]uint32)
}

func validName(name string) error {
	if name == "" || len(name) > MaxVarLen {
		return errors.Newf(errors.ErrInvalidVariable, "invalid variable name length %d", len(name))
	}
	for i, r := range name {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && ((r >= '0' && r <= '9') || r == '\''):
		default:
			return errors.Newf(errors.ErrInvalidVariable, "invalid character %q in variable name %q", r, name)
		}
	}
	return nil
}
