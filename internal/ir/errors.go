package ir

import "fmt"

// InvariantError reports a violation of one of the structural invariants
// spec.md §3/§8 requires of the IR model (e.g. an operand referencing an
// instruction id foreign to the function). These are treated as program
// bugs per spec.md §7 and are meant to be surfaced via panic at the call
// site that detects them; InvariantError exists so that detector can
// still produce a descriptive message before doing so.
type InvariantError struct {
	Context string
	Detail  string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation in %s: %s", e.Context, e.Detail)
}

// UnsupportedFeatureError reports an IR construct recognized by the
// grammar but outside the covered subset (spec.md §7).
type UnsupportedFeatureError struct {
	Feature string
}

func (e *UnsupportedFeatureError) Error() string {
	return "unsupported feature: " + e.Feature
}
