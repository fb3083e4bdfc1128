// Package session runs mathcore command lines against one set of equation
// spaces. A line is either a command ("integrate x", "list all") or an
// expression or equation to store.
//
// # Rules
//
//   - A failing line is reported and the session moves on to the next one.
//   - A failing line never changes the current space.
//   - Prompts read the following input lines.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/opal-lang/mathcore/core/errors"
	"github.com/opal-lang/mathcore/core/fraction"
	"github.com/opal-lang/mathcore/core/token"
	"github.com/opal-lang/mathcore/runtime/calculus"
	"github.com/opal-lang/mathcore/runtime/simplify"
	"github.com/opal-lang/mathcore/runtime/store"
	"github.com/opal-lang/mathcore/runtime/syntax"
)

// Echo controls what is printed for each input line.
type Echo int

const (
	EchoNone   Echo = iota // print nothing
	EchoPrompt             // print the prompt; a terminal shows the typed line
	EchoLine               // print the prompt and the line read
)

// maxLineLen bounds one input line.
const maxLineLen = 1 << 20

// Config sizes a session and names its outputs.
type Config struct {
	Tokens     int // capacity of every side; 0 = store.DefaultTokens
	MaxSpaces  int // 0 = store.DefaultMaxSpaces
	AllocLimit int // 0 = unlimited
	Partitions int // default nintegrate partitions; 0 = calculus.DefaultPartitions

	Out   io.Writer // results and prompts
	Err   io.Writer // errors and warnings; nil means Out
	Echo  Echo
	Color bool

	Logger *slog.Logger
}

// Session holds the equation spaces, the variable names and the command
// table. It is not safe for concurrent use.
type Session struct {
	out, errOut io.Writer
	echo        Echo
	color       bool
	log         *slog.Logger

	store *store.Store
	syms  *token.Symbols
	simp  *simplify.Folder
	calc  *calculus.Engine

	commands []command
	input    *bufio.Scanner // set while Run reads
	quit     bool
}

// New returns a Session with empty equation spaces.
func New(cfg Config) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	out := cfg.Out
	if out == nil {
		out = io.Discard
	}
	errOut := cfg.Err
	if errOut == nil {
		errOut = out
	}

	st, err := store.New(store.Config{
		Tokens:     cfg.Tokens,
		MaxSpaces:  cfg.MaxSpaces,
		AllocLimit: cfg.AllocLimit,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	s := &Session{
		out:    out,
		errOut: errOut,
		echo:   cfg.Echo,
		color:  cfg.Color,
		log:    logger,
		store:  st,
		syms:   token.NewSymbols(),
		simp:   simplify.New(logger),
	}
	s.calc = calculus.New(calculus.Config{
		Store:      st,
		Symbols:    s.syms,
		Simplifier: s.simp,
		Prompter:   s,
		Partitions: cfg.Partitions,
		Logger:     logger,
	})
	s.commands = s.commandTable()
	return s, nil
}

// Run executes every line of r until the input ends, a quit command runs or
// ctx is cancelled. It returns the number of lines that failed. The error is
// non-nil only when reading fails or ctx is cancelled.
func (s *Session) Run(ctx context.Context, r io.Reader) (int, error) {
	s.input = bufio.NewScanner(r)
	s.input.Buffer(make([]byte, 0, 4096), maxLineLen)
	defer func() { s.input = nil }()
	s.quit = false

	failed := 0
	for !s.quit {
		if err := ctx.Err(); err != nil {
			return failed, err
		}
		line, ok := s.readLine(s.lineprompt())
		if !ok {
			break
		}
		if err := s.Execute(line); err != nil {
			FormatError(s.errOut, err, s.color)
			failed++
		}
	}
	if err := s.input.Err(); err != nil {
		return failed, errors.Wrap(errors.ErrParse, "cannot read input", err)
	}
	return failed, nil
}

// Execute runs one line.
func (s *Session) Execute(line string) error {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	s.log.Debug("execute", "line", line)

	if rest, ok := strings.CutPrefix(line, "#"); ok {
		return s.selectSpace(strings.TrimSpace(rest))
	}
	word, arg := splitWord(line)
	if cmd, ok := s.lookup(word); ok {
		return cmd.run(arg)
	}
	return s.enter(line, word, arg)
}

// Quit reports whether a quit command has run.
func (s *Session) Quit() bool { return s.quit }

func (s *Session) lineprompt() string {
	return fmt.Sprintf("%d-> ", s.store.Current()+1)
}

// readLine prints prompt per the echo mode and returns the next input line.
func (s *Session) readLine(prompt string) (string, bool) {
	if s.input == nil {
		return "", false
	}
	if s.echo != EchoNone {
		_, _ = fmt.Fprint(s.out, Colorize(prompt, ColorGray, s.color))
	}
	if !s.input.Scan() {
		if s.echo != EchoNone {
			_, _ = fmt.Fprintln(s.out)
		}
		return "", false
	}
	line := s.input.Text()
	if s.echo == EchoLine {
		_, _ = fmt.Fprintln(s.out, line)
	}
	return line, true
}

// PromptVar reads a variable name from the next input line. A blank line
// yields the null variable.
func (s *Session) PromptVar(prompt string) (token.Var, error) {
	line, ok := s.readLine(prompt)
	if !ok {
		return token.Null, errors.NewMalformedArgument("Unexpected end of input.").WithContext("prompt", prompt)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return token.Null, nil
	}
	return syntax.ParseVar(line, s.syms)
}

// PromptExpr reads an expression from the next input line. A blank line
// yields no tokens.
func (s *Session) PromptExpr(prompt string) ([]token.Token, error) {
	line, ok := s.readLine(prompt)
	if !ok {
		return nil, errors.NewMalformedArgument("Unexpected end of input.").WithContext("prompt", prompt)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}
	return syntax.ParseWithSigns(line, s.syms, s.nextSign)
}

// nextSign hands each "+/-" a sign variable no stored space uses.
func (s *Session) nextSign() (token.Var, error) {
	v, ok := s.store.NextSignVar()
	if !ok {
		return v, errors.New(errors.ErrOutOfSignVars, "Out of unique sign variables.").
			WithContext("hint", "Clear equation spaces that use sign variables.")
	}
	return v, nil
}

// enter stores an expression or equation in the next free space. A new
// word followed by arguments that is a near miss of a command name is
// reported as an unknown command instead of being read as a product.
func (s *Session) enter(line, word, arg string) error {
	if arg != "" && len(word) >= minAbbrev && isWord(word) {
		if _, known := s.syms.Lookup(word); !known {
			if name := s.suggest(word, maxTypoDistance); name != "" {
				return errors.NewCommandNotFoundError(word, name)
			}
		}
	}
	defer s.store.SetSignRegistry()
	lhs, rhs, err := syntax.ParseEquationWithSigns(line, s.syms, s.nextSign)
	if err != nil {
		return err
	}
	id, err := s.store.NextFree()
	s.flushWarnings(s.store.TakeWarnings())
	if err != nil {
		return err
	}
	sp := s.store.Raw(id)
	if err := sp.LHS.Set(lhs); err != nil {
		s.store.Free(id)
		return err
	}
	if err := sp.RHS.Set(rhs); err != nil {
		s.store.Free(id)
		return err
	}
	s.store.SetCurrent(id)
	s.display(id)
	return nil
}

// display prints space id with its constants shown as fractions.
func (s *Session) display(id int) {
	sp := s.store.Raw(id)
	lhs, rhs := sp.LHS.Clone(), sp.RHS.Clone()
	if _, err := fraction.MakeFractions(lhs); err != nil {
		lhs = sp.LHS
	}
	if _, err := fraction.MakeFractions(rhs); err != nil {
		rhs = sp.RHS
	}
	label := Colorize(fmt.Sprintf("#%d:", id+1), ColorCyan, s.color)
	_, _ = fmt.Fprintf(s.out, "%s %s\n", label, syntax.FormatSpace(lhs.Tokens(), rhs.Tokens(), s.syms))
}

func (s *Session) flushWarnings(warnings []string) {
	for _, w := range warnings {
		FormatWarning(s.errOut, w, s.color)
	}
}

// splitWord returns the first word of line and the rest.
func splitWord(line string) (word, rest string) {
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i:])
}

// isWord reports whether w could be a command name.
func isWord(w string) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}
