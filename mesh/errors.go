package mesh

import "errors"

// Domain errors for mesh construction.
var (
	// ErrBadGeometry indicates non-positive or degenerate grid dimensions.
	ErrBadGeometry = errors.New("mesh: invalid grid geometry")

	// ErrBadBoundary indicates an unsupported boundary-condition type or an
	// edge reference outside the four sides of the grid.
	ErrBadBoundary = errors.New("mesh: invalid boundary specification")
)
