package composite

import "errors"

// Domain errors for composite construction and solving.
var (
	// ErrBadLayout indicates an empty or inconsistent placement list.
	ErrBadLayout = errors.New("composite: invalid mesh layout")

	// ErrBadInterface indicates a declared interface whose edges are not
	// geometrically compatible (wrong orientation, no physical overlap, or
	// mismatched normal spacing).
	ErrBadInterface = errors.New("composite: invalid interface")

	// ErrBadSolve indicates non-positive solve parameters.
	ErrBadSolve = errors.New("composite: invalid solve parameters")
)
