package session

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/opal-lang/mathcore/core/errors"
	"github.com/opal-lang/mathcore/core/fraction"
	"github.com/opal-lang/mathcore/core/snapshot"
	"github.com/opal-lang/mathcore/runtime/calculus"
	"github.com/opal-lang/mathcore/runtime/store"
)

const (
	// minAbbrev is the shortest accepted command abbreviation.
	minAbbrev = 4
	// maxTypoDistance bounds how far a mistyped command may be from a real one.
	maxTypoDistance = 2
)

type command struct {
	name    string
	aliases []string
	usage   string
	help    string
	run     func(arg string) error
}

func (s *Session) commandTable() []command {
	return []command{
		{name: "clear", usage: "clear [N|N-M|all]", help: "Empty equation spaces (default: the current one).", run: s.cmdClear},
		{name: "copy", usage: "copy [N]", help: "Duplicate an equation space into the next free one.", run: s.cmdCopy},
		{name: "fraction", usage: "fraction [N]", help: "Rewrite decimal constants as exact fractions.", run: s.cmdFraction},
		{name: "help", aliases: []string{"?"}, usage: "help [command]", help: "Show commands or the usage of one.", run: s.cmdHelp},
		{name: "integrate", usage: "integrate [definite|constant] [var] [order]", help: "Integrate the current polynomial.", run: s.runCalculus(s.calc.Integrate)},
		{name: "laplace", usage: "laplace [inverse] [var]", help: "Laplace transform of the current polynomial.", run: s.runCalculus(s.calc.Laplace)},
		{name: "list", usage: "list [N|N-M|all]", help: "Display equation spaces (default: the current one).", run: s.cmdList},
		{name: "load", usage: "load file", help: "Replace every equation space with a saved snapshot.", run: s.cmdLoad},
		{name: "nintegrate", usage: "nintegrate [trapezoid] [var] [partitions]", help: "Numerically integrate between two bounds.", run: s.runCalculus(s.calc.NIntegrate)},
		{name: "quit", aliases: []string{"exit"}, usage: "quit", help: "End the session.", run: s.cmdQuit},
		{name: "save", usage: "save file", help: "Write every equation space to a snapshot file.", run: s.cmdSave},
	}
}

// lookup finds a command by name, alias or unambiguous abbreviation.
func (s *Session) lookup(word string) (command, bool) {
	var match []command
	for _, c := range s.commands {
		if strings.EqualFold(word, c.name) {
			return c, true
		}
		for _, a := range c.aliases {
			if strings.EqualFold(word, a) {
				return c, true
			}
		}
		if len(word) >= minAbbrev && len(word) < len(c.name) && strings.EqualFold(word, c.name[:len(word)]) {
			match = append(match, c)
		}
	}
	if len(match) == 1 {
		return match[0], true
	}
	return command{}, false
}

// suggest returns the closest command name to word, or "". With maxDist
// >= 0 only names within that edit distance qualify.
func (s *Session) suggest(word string, maxDist int) string {
	names := make([]string, len(s.commands))
	for i, c := range s.commands {
		names[i] = c.name
	}
	ranks := fuzzy.RankFindFold(word, names)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	if maxDist >= 0 && ranks[0].Distance > maxDist {
		return ""
	}
	return ranks[0].Target
}

// runCalculus adapts an engine command to the command table.
func (s *Session) runCalculus(fn func(string) (calculus.Result, error)) func(string) error {
	return func(arg string) error {
		res, err := fn(arg)
		s.flushWarnings(res.Warnings)
		if err != nil {
			return err
		}
		s.display(res.Space)
		return nil
	}
}

// selectSpace handles "#N".
func (s *Session) selectSpace(arg string) error {
	if arg == "" {
		id, _, err := s.store.CurrentSpace()
		if err != nil {
			return err
		}
		s.display(id)
		return nil
	}
	id, err := spaceNumber(arg)
	if err != nil {
		return err
	}
	if _, err := s.store.Space(id); err != nil {
		return err
	}
	s.store.SetCurrent(id)
	s.display(id)
	return nil
}

func (s *Session) cmdList(arg string) error {
	ids, err := s.spaces(arg)
	if err != nil {
		return err
	}
	for _, id := range ids {
		s.display(id)
	}
	return nil
}

func (s *Session) cmdClear(arg string) error {
	if strings.EqualFold(arg, "all") {
		s.store.ClearAll()
		s.syms.Reset()
		return nil
	}
	ids, err := s.spaces(arg)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.store.Clear(id); err != nil {
			return err
		}
	}
	s.store.SetSignRegistry()
	return nil
}

func (s *Session) cmdCopy(arg string) error {
	src, err := s.oneSpace(arg)
	if err != nil {
		return err
	}
	dst, err := s.store.NextFree()
	s.flushWarnings(s.store.TakeWarnings())
	if err != nil {
		return err
	}
	if err := s.store.Copy(src, dst); err != nil {
		s.store.Free(dst)
		return err
	}
	s.store.SetCurrent(dst)
	s.display(dst)
	return nil
}

// cmdFraction rewrites the space in place. Both sides are converted on
// copies first so a capacity failure leaves the space unchanged.
func (s *Session) cmdFraction(arg string) error {
	id, err := s.oneSpace(arg)
	if err != nil {
		return err
	}
	sp := s.store.Raw(id)
	lhs, rhs := sp.LHS.Clone(), sp.RHS.Clone()
	if _, err := fraction.MakeFractions(lhs); err != nil {
		return err
	}
	if _, err := fraction.MakeFractions(rhs); err != nil {
		return err
	}
	if err := sp.LHS.CopyFrom(lhs); err != nil {
		return err
	}
	if err := sp.RHS.CopyFrom(rhs); err != nil {
		return err
	}
	s.store.SetCurrent(id)
	s.display(id)
	return nil
}

func (s *Session) cmdSave(arg string) error {
	path, err := fileArg(arg)
	if err != nil {
		return err
	}
	snap := s.store.Capture(s.syms)
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrSnapshot, "cannot create file", err).WithContext("path", path)
	}
	sum, err := snapshot.Write(f, snap)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = errors.Wrap(errors.ErrSnapshot, "cannot close file", cerr).WithContext("path", path)
	}
	if err != nil {
		return err
	}
	s.log.Debug("saved snapshot", "path", path, "digest", snapshot.Digest(sum))
	_, _ = fmt.Fprintf(s.out, "Saved %d equation spaces to %s (%s).\n", len(snap.Spaces), path, snapshot.Digest(sum))
	return nil
}

func (s *Session) cmdLoad(arg string) error {
	path, err := fileArg(arg)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(errors.ErrSnapshot, "cannot open file", err).WithContext("path", path)
	}
	defer func() { _ = f.Close() }()

	snap, sum, err := snapshot.Read(f)
	if err != nil {
		return err
	}
	if err := s.store.Restore(s.syms, snap); err != nil {
		return err
	}
	s.flushWarnings(s.store.TakeWarnings())
	_, _ = fmt.Fprintf(s.out, "Loaded %d equation spaces from %s (%s).\n", len(snap.Spaces), path, snapshot.Digest(sum))
	return s.cmdList("all")
}

func (s *Session) cmdHelp(arg string) error {
	if arg != "" {
		c, ok := s.lookup(arg)
		if !ok {
			return errors.NewCommandNotFoundError(arg, s.suggest(arg, -1))
		}
		_, _ = fmt.Fprintf(s.out, "Usage: %s\n  %s\n", c.usage, c.help)
		return nil
	}
	_, _ = fmt.Fprintln(s.out, "Enter an expression or equation to store it, or #N to select space N.")
	_, _ = fmt.Fprintln(s.out, "a +/- b stands for a + sign*b with a new sign variable.")
	_, _ = fmt.Fprintln(s.out, "Commands:")
	for _, c := range s.commands {
		_, _ = fmt.Fprintf(s.out, "  %-44s %s\n", c.usage, c.help)
	}
	return nil
}

func (s *Session) cmdQuit(arg string) error {
	if arg != "" {
		return errors.NewMalformedArgument("Extra characters or unrecognized argument.").WithContext("argument", arg)
	}
	s.quit = true
	return nil
}

// spaces resolves a list/clear argument to non-empty space ids.
func (s *Session) spaces(arg string) ([]int, error) {
	if arg == "" {
		id, _, err := s.store.CurrentSpace()
		if err != nil {
			return nil, err
		}
		return []int{id}, nil
	}
	if strings.EqualFold(arg, "all") {
		var ids []int
		s.store.Each(func(id int, _ *store.Space) { ids = append(ids, id) })
		return ids, nil
	}
	first, last, ok := strings.Cut(arg, "-")
	lo, err := spaceNumber(strings.TrimSpace(first))
	if err != nil {
		return nil, err
	}
	hi := lo
	if ok {
		if hi, err = spaceNumber(strings.TrimSpace(last)); err != nil {
			return nil, err
		}
		if hi < lo {
			return nil, errors.NewMalformedArgument("Invalid equation number range.").WithContext("argument", arg)
		}
	}
	if !ok {
		if _, err := s.store.Space(lo); err != nil {
			return nil, err
		}
		return []int{lo}, nil
	}
	var ids []int
	for id := lo; id <= hi && id < s.store.Count(); id++ {
		if !s.store.Raw(id).Empty() {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// oneSpace resolves an optional single space argument, defaulting to the
// current space.
func (s *Session) oneSpace(arg string) (int, error) {
	if arg == "" {
		id, _, err := s.store.CurrentSpace()
		return id, err
	}
	id, err := spaceNumber(arg)
	if err != nil {
		return 0, err
	}
	if _, err := s.store.Space(id); err != nil {
		return 0, err
	}
	return id, nil
}

// spaceNumber parses a 1-based space number, with or without a leading '#'.
func spaceNumber(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
	if err != nil || n < 1 {
		return 0, errors.New(errors.ErrInvalidSpace, "Invalid equation number.").WithContext("argument", arg)
	}
	return n - 1, nil
}

func fileArg(arg string) (string, error) {
	if arg == "" {
		return "", errors.NewMalformedArgument("No file name given.")
	}
	return arg, nil
}
