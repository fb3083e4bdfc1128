// Package calculus implements the symbolic calculus commands: polynomial
// integration, the Laplace transform and its inverse, and Simpson's-rule or
// trapezoid numeric integration.
//
// Every command reads the current equation space and writes its result to a
// freshly allocated one. The source space is never modified. When a command
// fails, the new space is released and the current space stays selected.
//
// # Rules
//
//   - The source side is copied before any rewriting.
//   - All growth is capacity-checked; CAPACITY_EXCEEDED aborts the command.
//   - Argument errors are reported before a space is allocated.
//   - The result space becomes current only on success.
package calculus

import (
	"io"
	"log/slog"

	"github.com/opal-lang/mathcore/core/expr"
	"github.com/opal-lang/mathcore/core/invariant"
	"github.com/opal-lang/mathcore/core/token"
	"github.com/opal-lang/mathcore/runtime/store"
)

// DefaultPartitions is the partition count nintegrate uses when none is given.
const DefaultPartitions = 1000

// Simplifier is the external simplifier the commands drive. Implementations
// rewrite a side in place and must keep the level invariant.
type Simplifier interface {
	Simplify(e *expr.Expr, mode expr.Mode) error
	FactorVar(e *expr.Expr, v token.Var) error
	SubstConstants(e *expr.Expr)
	Approximate(e *expr.Expr) error
	TakeWarnings() []string
}

// Prompter supplies values a command needs but was not given.
type Prompter interface {
	PromptVar(prompt string) (token.Var, error)
	PromptExpr(prompt string) ([]token.Token, error)
}

// Prompts.
const (
	PromptVariable   = "Enter variable: "
	PromptLowerBound = "Enter lower bound: "
	PromptUpperBound = "Enter upper bound: "
)

// Config wires an Engine to its collaborators.
type Config struct {
	Store      *store.Store
	Symbols    *token.Symbols
	Simplifier Simplifier
	// Prompter may be nil when every command is given complete arguments.
	Prompter Prompter
	// Partitions is the default nintegrate partition count. Zero means
	// DefaultPartitions.
	Partitions int
	Logger     *slog.Logger
}

// Result describes a successful command.
type Result struct {
	// Space is the id of the new current equation space.
	Space int
	// Warnings are the non-fatal messages raised while the command ran.
	Warnings []string
}

// Engine runs calculus commands against a store.
type Engine struct {
	store      *store.Store
	syms       *token.Symbols
	simp       Simplifier
	prompter   Prompter
	partitions int
	log        *slog.Logger

	// constant is the suffix of the next integration constant C_N.
	constant int

	warnings []string
}

// New returns an Engine.
func New(cfg Config) *Engine {
	invariant.NotNil(cfg.Store, "store")
	invariant.NotNil(cfg.Symbols, "symbols")
	invariant.NotNil(cfg.Simplifier, "simplifier")
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	partitions := cfg.Partitions
	if partitions == 0 {
		partitions = DefaultPartitions
	}
	return &Engine{
		store:      cfg.Store,
		syms:       cfg.Symbols,
		simp:       cfg.Simplifier,
		prompter:   cfg.Prompter,
		partitions: partitions,
		log:        logger,
		constant:   1,
	}
}

// transact allocates the destination space, runs fn on it and commits the
// space as current when fn succeeds. On failure the space is released.
func (en *Engine) transact(cmd string, fn func(dst int, out *store.Space) error) (Result, error) {
	en.collectWarnings()
	en.warnings = nil

	dst, err := en.store.NextFree()
	if err != nil {
		return Result{Warnings: en.takeWarnings()}, err
	}
	en.log.Debug(cmd, "space", dst+1)
	if err := fn(dst, en.store.Raw(dst)); err != nil {
		en.store.Free(dst)
		en.log.Debug("command failed", "command", cmd, "error", err)
		return Result{Warnings: en.takeWarnings()}, err
	}
	en.store.SetCurrent(dst)
	return Result{Space: dst, Warnings: en.takeWarnings()}, nil
}

func (en *Engine) warn(msg string) {
	en.log.Warn(msg)
	en.warnings = append(en.warnings, msg)
}

// collectWarnings moves collaborator warnings into the engine's list.
func (en *Engine) collectWarnings() {
	en.warnings = append(en.warnings, en.simp.TakeWarnings()...)
	en.warnings = append(en.warnings, en.store.TakeWarnings()...)
}

// takeWarnings returns the collected warnings with repeats removed.
func (en *Engine) takeWarnings() []string {
	en.collectWarnings()
	var out []string
	seen := make(map[string]bool, len(en.warnings))
	for _, w := range en.warnings {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	en.warnings = nil
	return out
}

// sourceSide returns the side a command transforms: the RHS of an equation,
// or the lone expression.
func sourceSide(sp *store.Space) *expr.Expr {
	if sp.IsEquation() {
		return sp.RHS
	}
	return sp.LHS
}

// resultSide returns the side of out that receives the result, copying the
// source LHS across when src is an equation.
func resultSide(src, out *store.Space) (*expr.Expr, error) {
	if !src.IsEquation() {
		return out.LHS, nil
	}
	if err := out.LHS.CopyFrom(src.LHS); err != nil {
		return nil, err
	}
	return out.RHS, nil
}

// appendLifted appends toks to e with every level raised by lift.
func appendLifted(e *expr.Expr, lift int, toks []token.Token) error {
	start := e.Len()
	if err := e.Append(toks...); err != nil {
		return err
	}
	e.Shift(start, e.Len(), lift)
	return nil
}
