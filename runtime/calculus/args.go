package calculus

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/opal-lang/mathcore/core/errors"
	"github.com/opal-lang/mathcore/core/token"
	"github.com/opal-lang/mathcore/runtime/syntax"
)

// args walks the words of a command argument string. Words are separated by
// spaces or commas.
type args struct {
	words []string
}

func newArgs(s string) *args {
	return &args{words: strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})}
}

func (a *args) empty() bool { return len(a.words) == 0 }

func (a *args) peek() (string, bool) {
	if a.empty() {
		return "", false
	}
	return a.words[0], true
}

func (a *args) pop() (string, bool) {
	w, ok := a.peek()
	if ok {
		a.words = a.words[1:]
	}
	return w, ok
}

// keyword consumes the next word if it equals word, ignoring case.
func (a *args) keyword(word string) bool {
	w, ok := a.peek()
	if ok && strings.EqualFold(w, word) {
		a.pop()
		return true
	}
	return false
}

// keywordPrefix consumes the next word if it starts with prefix, ignoring
// case.
func (a *args) keywordPrefix(prefix string) bool {
	w, ok := a.peek()
	if ok && len(w) >= len(prefix) && strings.EqualFold(w[:len(prefix)], prefix) {
		a.pop()
		return true
	}
	return false
}

// finish fails if words are left over.
func (a *args) finish() error {
	if a.empty() {
		return nil
	}
	return errors.NewMalformedArgument("Extra characters or unrecognized argument.").
		WithContext("argument", strings.Join(a.words, " "))
}

// variable consumes the next word when it looks like a variable name. The
// returned variable is Null when there was none.
func (a *args) variable(syms *token.Symbols) (token.Var, error) {
	w, ok := a.peek()
	if !ok {
		return token.Null, nil
	}
	c := w[0]
	if c != '_' && !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') {
		return token.Null, nil
	}
	v, err := syntax.ParseVar(w, syms)
	if err != nil {
		return token.Null, errors.Wrap(errors.ErrMalformedArgument, "Invalid variable.", err)
	}
	a.pop()
	return v, nil
}

// count consumes an optional positive integer. It returns def when no word
// is left and fails with msg when the word is not a positive integer.
func (a *args) count(def int, msg string) (int, error) {
	w, ok := a.pop()
	if !ok {
		return def, nil
	}
	d, err := strconv.ParseFloat(w, 64)
	if err != nil || d <= 0 || d != math.Trunc(d) || d > math.MaxInt32 {
		return 0, errors.NewMalformedArgument(msg).WithContext("argument", w)
	}
	return int(d), nil
}

// promptVar fills in a missing variable from the prompter.
func (en *Engine) promptVar(v token.Var) (token.Var, error) {
	if !v.IsZero() {
		return v, nil
	}
	if en.prompter == nil {
		return token.Null, errors.NewMalformedArgument("No variable specified.")
	}
	v, err := en.prompter.PromptVar(PromptVariable)
	if err != nil {
		return token.Null, err
	}
	if v.IsZero() {
		return token.Null, errors.NewMalformedArgument("No variable specified.")
	}
	return v, nil
}

// promptExpr reads a required expression from the prompter.
func (en *Engine) promptExpr(prompt string) ([]token.Token, error) {
	if en.prompter == nil {
		return nil, errors.NewMalformedArgument("No expression given.").WithContext("prompt", prompt)
	}
	toks, err := en.prompter.PromptExpr(prompt)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, errors.NewMalformedArgument("No expression given.").WithContext("prompt", prompt)
	}
	return toks, nil
}
