package expr

// Mode carries the evaluation switches a simplification pass reads. It is
// passed by value, so a callee that changes a field never affects its caller.
type Mode struct {
	// Partial limits constant folding to exact results; irrational roots and
	// similar are left symbolic.
	Partial bool
	// HighPrecision disables the tolerant comparisons used during folding.
	HighPrecision bool
	// SignCompare treats sign variables as comparable when grouping terms.
	SignCompare bool
	// ApproximateRoots folds fractional powers of constants to floats.
	ApproximateRoots bool
	// DomainCheck allows one domain error to be absorbed during the pass.
	// The allowance is consumed by the pass that receives it.
	DomainCheck bool
}

// DefaultMode returns the mode used for ordinary simplification.
func DefaultMode() Mode {
	return Mode{Partial: true}
}

// Full returns m with partial evaluation switched off.
func (m Mode) Full() Mode {
	m.Partial = false
	return m
}

// Approximating returns m with root approximation switched on.
func (m Mode) Approximating() Mode {
	m.ApproximateRoots = true
	return m
}

// WithDomainCheck returns m with the one-shot domain allowance set.
func (m Mode) WithDomainCheck() Mode {
	m.DomainCheck = true
	return m
}
