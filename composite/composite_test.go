package composite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/chiptherm/mesh"
)

// block builds a rows x cols mesh at 0.2 mm spacing with the given edges
func block(t *testing.T, rows, cols int, initial float64, edges map[mesh.Edge]mesh.BC) *mesh.Mesh {
	t.Helper()
	m, err := mesh.New(mesh.Spec{
		Rows: rows, Cols: cols,
		Dx: 0.2, Dy: 0.2,
		Conductivity:       0.2,
		InitialTemperature: initial,
		Edges:              edges,
	})
	require.NoError(t, err)
	return m
}

func TestLayoutValidation(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, ErrBadLayout)

	_, err = New([]Placement{{Mesh: nil}}, nil)
	assert.ErrorIs(t, err, ErrBadLayout)
}

func TestInterfaceValidation(t *testing.T) {
	a := block(t, 8, 8, 300, nil)
	b := block(t, 8, 8, 300, nil)

	t.Run("bad mesh indices", func(t *testing.T) {
		_, err := New([]Placement{{Mesh: a}, {Mesh: b, Y0: 1.2}},
			[]Interface{{A: 0, EdgeA: mesh.EdgeTop, B: 2, EdgeB: mesh.EdgeBottom}})
		assert.ErrorIs(t, err, ErrBadInterface)
	})

	t.Run("edges not facing", func(t *testing.T) {
		_, err := New([]Placement{{Mesh: a}, {Mesh: b, Y0: 1.2}},
			[]Interface{{A: 0, EdgeA: mesh.EdgeTop, B: 1, EdgeB: mesh.EdgeTop}})
		assert.ErrorIs(t, err, ErrBadInterface)
	})

	t.Run("meshes not adjacent", func(t *testing.T) {
		_, err := New([]Placement{{Mesh: a}, {Mesh: b, Y0: 5.0}},
			[]Interface{{A: 0, EdgeA: mesh.EdgeTop, B: 1, EdgeB: mesh.EdgeBottom}})
		assert.ErrorIs(t, err, ErrBadInterface)
	})

	t.Run("no tangential overlap", func(t *testing.T) {
		_, err := New([]Placement{{Mesh: a}, {Mesh: b, X0: 50, Y0: 1.2}},
			[]Interface{{A: 0, EdgeA: mesh.EdgeTop, B: 1, EdgeB: mesh.EdgeBottom}})
		assert.ErrorIs(t, err, ErrBadInterface)
	})

	t.Run("valid stack", func(t *testing.T) {
		// 6 interior rows at 0.2 mm: the ghost line of a sits at y=1.2.
		_, err := New([]Placement{{Mesh: a}, {Mesh: b, Y0: 1.2}},
			[]Interface{{A: 0, EdgeA: mesh.EdgeTop, B: 1, EdgeB: mesh.EdgeBottom}})
		assert.NoError(t, err)
	})
}

func TestBuildLinks(t *testing.T) {
	t.Run("identity at equal resolution", func(t *testing.T) {
		g := edgeGeometry{TangStart: 0, TangStep: 0.2, N: 10}
		links := buildLinks(g, g)
		require.Len(t, links, 10)
		for i, l := range links {
			assert.Equal(t, i, l.recv)
			if i < 9 {
				assert.Equal(t, i, l.src)
				assert.InDelta(t, 0.0, l.w, 1e-12)
			} else {
				// The last cell clamps to the final source pair.
				assert.Equal(t, 8, l.src)
				assert.InDelta(t, 1.0, l.w, 1e-12)
			}
		}
	})

	t.Run("coarse receiver over fine source", func(t *testing.T) {
		src := edgeGeometry{TangStart: 0, TangStep: 0.2, N: 11}
		recv := edgeGeometry{TangStart: 0.1, TangStep: 0.4, N: 5}
		links := buildLinks(recv, src)
		require.Len(t, links, 5)
		for i, l := range links {
			assert.Equal(t, i, l.recv)
			assert.Equal(t, 2*i, l.src)
			assert.InDelta(t, 0.5, l.w, 1e-12, "half-cell offset interpolates midway")
		}
	})

	t.Run("receiver cells beyond the source are skipped", func(t *testing.T) {
		src := edgeGeometry{TangStart: 0.8, TangStep: 0.2, N: 4}
		recv := edgeGeometry{TangStart: 0, TangStep: 0.2, N: 12}
		links := buildLinks(recv, src)
		require.Len(t, links, 4)
		assert.Equal(t, 4, links[0].recv)
		assert.Equal(t, 7, links[3].recv)
	})
}

func TestPartialCoverageExchange(t *testing.T) {
	// A narrow hot mesh sits centered on a wide cold one: only the covered
	// span of the wide mesh's top edge takes coupled values, the rest keeps
	// its declared condition.
	wide := block(t, 6, 14, 300, nil)
	narrow := block(t, 6, 6, 400, nil)

	c, err := New(
		[]Placement{{Mesh: wide}, {Mesh: narrow, X0: 0.8, Y0: 0.8}},
		[]Interface{{A: 0, EdgeA: mesh.EdgeTop, B: 1, EdgeB: mesh.EdgeBottom}},
	)
	require.NoError(t, err)
	require.NotNil(t, c)

	wide.ApplyBoundaryConditions()
	r := wide.Rows - 1
	// Covered cells 4..7 carry the neighbor's initial 400 K.
	for j := 5; j <= 8; j++ {
		assert.Equal(t, 400.0, wide.Temperature(r, j), "covered ghost col %d", j)
	}
	// Uncovered cells mirror the interior (insulated default).
	assert.Equal(t, wide.Temperature(r-1, 1), wide.Temperature(r, 1))
	assert.Equal(t, wide.Temperature(r-1, 12), wide.Temperature(r, 12))
}

func TestPassThroughMatchesUnifiedMesh(t *testing.T) {
	edgesBottom := map[mesh.Edge]mesh.BC{mesh.EdgeBottom: {Type: mesh.BCFixed, Value: 400}}
	edgesTop := map[mesh.Edge]mesh.BC{mesh.EdgeTop: {Type: mesh.BCFixed, Value: 300}}
	edgesBoth := map[mesh.Edge]mesh.BC{
		mesh.EdgeBottom: {Type: mesh.BCFixed, Value: 400},
		mesh.EdgeTop:    {Type: mesh.BCFixed, Value: 300},
	}

	lower := block(t, 8, 10, 350, edgesBottom)
	upper := block(t, 8, 10, 350, edgesTop)
	split, err := New(
		[]Placement{{Mesh: lower}, {Mesh: upper, Y0: 1.2}},
		[]Interface{{A: 0, EdgeA: mesh.EdgeTop, B: 1, EdgeB: mesh.EdgeBottom}},
	)
	require.NoError(t, err)

	unified, err := New([]Placement{{Mesh: block(t, 14, 10, 350, edgesBoth)}}, nil)
	require.NoError(t, err)

	rs, err := split.Solve(200000, 1e-12)
	require.NoError(t, err)
	require.Equal(t, Converged, rs.Status)
	ru, err := unified.Solve(200000, 1e-12)
	require.NoError(t, err)
	require.Equal(t, Converged, ru.Status)

	// The split system solves the same discrete equations, so the interior
	// must agree with the unified mesh everywhere.
	for i := 1; i <= 6; i++ {
		for j := 1; j <= 8; j++ {
			assert.InDelta(t, ru.Fields[0].At(i, j), rs.Fields[0].At(i, j), 1e-6,
				"lower mesh point (%d,%d)", i, j)
			assert.InDelta(t, ru.Fields[0].At(i+6, j), rs.Fields[1].At(i, j), 1e-6,
				"upper mesh point (%d,%d)", i, j)
		}
	}
}

func TestResolutionMismatchConverges(t *testing.T) {
	// A coarse and a fine mesh stack vertically with a shared interface.
	// Heat flows bottom to top through both; insulated sides keep the field
	// tangentially uniform, so the converged column profile is the linear
	// 1D solution between the two pinned ghost lines regardless of the
	// lateral resolution mismatch.
	coarse, err := mesh.New(mesh.Spec{
		Rows: 6, Cols: 8,
		Dx: 0.4, Dy: 0.2,
		Conductivity:       0.2,
		InitialTemperature: 350,
		Edges:              map[mesh.Edge]mesh.BC{mesh.EdgeBottom: {Type: mesh.BCFixed, Value: 400}},
	})
	require.NoError(t, err)
	fine, err := mesh.New(mesh.Spec{
		Rows: 6, Cols: 12,
		Dx: 0.2, Dy: 0.2,
		Conductivity:       0.2,
		InitialTemperature: 350,
		Edges:              map[mesh.Edge]mesh.BC{mesh.EdgeTop: {Type: mesh.BCFixed, Value: 300}},
	})
	require.NoError(t, err)

	// The half-cell lateral offset forces every transfer link to
	// interpolate between two source cells.
	c, err := New(
		[]Placement{{Mesh: coarse}, {Mesh: fine, X0: 0.1, Y0: 0.8}},
		[]Interface{{A: 0, EdgeA: mesh.EdgeTop, B: 1, EdgeB: mesh.EdgeBottom}},
	)
	require.NoError(t, err)

	res, err := c.Solve(200000, 1e-12)
	require.NoError(t, err)
	require.Equal(t, Converged, res.Status)

	// Pinned ghost lines sit at y=-0.2 (400 K) and y=1.6 (300 K), so
	// T(y) = 400 - 100*(y+0.2)/1.8.
	for i := 1; i <= 4; i++ {
		for j := 1; j <= 6; j++ {
			want := 400 - 100*float64(i)/9
			assert.InDelta(t, want, res.Fields[0].At(i, j), 1e-5, "coarse (%d,%d)", i, j)
		}
		for j := 1; j <= 10; j++ {
			want := 400 - 100*float64(i+4)/9
			assert.InDelta(t, want, res.Fields[1].At(i, j), 1e-5, "fine (%d,%d)", i, j)
		}
	}
}

func TestSolveParameterValidation(t *testing.T) {
	c, err := New([]Placement{{Mesh: block(t, 8, 8, 300, nil)}}, nil)
	require.NoError(t, err)

	_, err = c.Solve(0, 1e-8)
	assert.ErrorIs(t, err, ErrBadSolve)
	_, err = c.Solve(100, 0)
	assert.ErrorIs(t, err, ErrBadSolve)
}

func TestNonConvergenceIsAStatus(t *testing.T) {
	m := block(t, 8, 12, 350, map[mesh.Edge]mesh.BC{
		mesh.EdgeLeft:  {Type: mesh.BCFixed, Value: 500},
		mesh.EdgeRight: {Type: mesh.BCFixed, Value: 300},
	})
	c, err := New([]Placement{{Mesh: m}}, nil)
	require.NoError(t, err)

	res, err := c.Solve(5, 1e-15)
	require.NoError(t, err, "hitting the cap is not an error")
	assert.Equal(t, MaxIterationsReached, res.Status)
	assert.Equal(t, 5, res.Iterations)
	assert.Greater(t, res.FinalDelta, 0.0)
	require.Len(t, res.Fields, 1, "partial fields stay readable")
}

func TestProgressHook(t *testing.T) {
	c, err := New([]Placement{{Mesh: block(t, 8, 8, 350, map[mesh.Edge]mesh.BC{
		mesh.EdgeBottom: {Type: mesh.BCFixed, Value: 300},
	})}}, nil)
	require.NoError(t, err)

	var calls int
	var lastIt int
	c.SetProgress(func(it int, delta float64) {
		calls++
		lastIt = it
	})
	res, err := c.Solve(50000, 1e-11)
	require.NoError(t, err)
	assert.Equal(t, res.Iterations, calls, "hook fires once per iteration")
	assert.Equal(t, res.Iterations, lastIt)
}
