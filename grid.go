package bathymetry

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/ctessum/sparse"
)

// Spacing tolerances for the two kinds of axis provenance. Axes derived from
// scattered point samples carry the source's exact coordinate values; axes
// read back from file headers carry formatting jitter.
const (
	SpacingToleranceScatter = 1e-6
	SpacingToleranceFile    = 1e-4
)

// dx values are rounded to this many significant digits so that file headers
// serialize a stable spacing even when the axis has sub-precision jitter.
const spacingSignificantDigits = 14

// A Grid is a regular bathymetry grid: uniformly spaced lon/lat axes, a
// depth array of shape (nlon, nlat) with depth positive below the sea
// surface, and a land mask of the same shape. A Grid is immutable after
// construction and safe for concurrent use.
type Grid struct {
	lon   []float64
	lat   []float64
	depth *sparse.DenseArray
	mask  *sparse.DenseArray // 1 = land
	dxLon float64
	dxLat float64
}

type gridConfig struct {
	mask      *sparse.DenseArray
	tolerance float64
}

// A GridOption sets an option on a Grid under construction.
type GridOption func(*gridConfig)

// WithLandMask sets the land mask. The mask must have the same shape as the
// depth array; non-zero entries mark land cells.
func WithLandMask(mask *sparse.DenseArray) GridOption {
	return func(c *gridConfig) {
		c.mask = mask
	}
}

// WithSpacingTolerance sets the maximum permitted deviation from the mean
// axis step. The default is SpacingToleranceScatter.
func WithSpacingTolerance(tolerance float64) GridOption {
	return func(c *gridConfig) {
		c.tolerance = tolerance
	}
}

// NewGrid returns a new Grid with the given axes and depth array, validating
// the grid invariants. All inputs are copied. If no land mask is given,
// non-finite depth cells are masked as land.
func NewGrid(lon, lat []float64, depth *sparse.DenseArray, options ...GridOption) (*Grid, error) {
	c := &gridConfig{
		tolerance: SpacingToleranceScatter,
	}
	for _, option := range options {
		option(c)
	}

	dxLon, err := uniformStep("lon", lon, c.tolerance)
	if err != nil {
		return nil, err
	}
	dxLat, err := uniformStep("lat", lat, c.tolerance)
	if err != nil {
		return nil, err
	}

	shape := []int{len(lon), len(lat)}
	if !slices.Equal(depth.Shape, shape) {
		return nil, &ShapeMismatchError{Expected: shape, Actual: slices.Clone(depth.Shape)}
	}

	g := &Grid{
		lon:   slices.Clone(lon),
		lat:   slices.Clone(lat),
		depth: cloneDense(depth),
		dxLon: dxLon,
		dxLat: dxLat,
	}

	if c.mask != nil {
		if !slices.Equal(c.mask.Shape, shape) {
			return nil, &ShapeMismatchError{Expected: shape, Actual: slices.Clone(c.mask.Shape)}
		}
		g.mask = cloneDense(c.mask)
	} else {
		g.mask = sparse.ZerosDense(shape...)
		for i, v := range g.depth.Elements {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				g.mask.Elements[i] = 1
			}
		}
	}

	violations := 0
	for i, v := range g.depth.Elements {
		if g.mask.Elements[i] != 0 {
			continue
		}
		if !(v >= 0) { // NaN fails too
			violations++
		}
	}
	if violations > 0 {
		return nil, &InvalidDepthError{Count: violations}
	}

	return g, nil
}

// NLon returns the number of longitude points.
func (g *Grid) NLon() int {
	return len(g.lon)
}

// NLat returns the number of latitude points.
func (g *Grid) NLat() int {
	return len(g.lat)
}

// Lon returns a copy of the longitude axis.
func (g *Grid) Lon() []float64 {
	return slices.Clone(g.lon)
}

// Lat returns a copy of the latitude axis.
func (g *Grid) Lat() []float64 {
	return slices.Clone(g.lat)
}

// DxLon returns the longitude spacing.
func (g *Grid) DxLon() float64 {
	return g.dxLon
}

// DxLat returns the latitude spacing.
func (g *Grid) DxLat() float64 {
	return g.dxLat
}

// Depth returns the depth at lon index i and lat index j. The value is
// undefined where Land reports true.
func (g *Grid) Depth(i, j int) float64 {
	return g.depth.Get(i, j)
}

// Land reports whether the cell at lon index i and lat index j is land.
func (g *Grid) Land(i, j int) bool {
	return g.mask.Get(i, j) != 0
}

// MaxDepth returns the maximum unmasked depth, or NaN if every cell is
// masked.
func (g *Grid) MaxDepth() float64 {
	maxDepth := math.NaN()
	for i, v := range g.depth.Elements {
		if g.mask.Elements[i] != 0 {
			continue
		}
		if math.IsNaN(maxDepth) || v > maxDepth {
			maxDepth = v
		}
	}
	return maxDepth
}

// MinDepth returns the minimum unmasked depth, or NaN if every cell is
// masked.
func (g *Grid) MinDepth() float64 {
	minDepth := math.NaN()
	for i, v := range g.depth.Elements {
		if g.mask.Elements[i] != 0 {
			continue
		}
		if math.IsNaN(minDepth) || v < minDepth {
			minDepth = v
		}
	}
	return minDepth
}

// String returns a multi-line summary of g.
func (g *Grid) String() string {
	var b strings.Builder
	b.WriteString("Bathymetry\n")
	fmt.Fprintf(&b, "Lon %v %v (%d) dx=%v\n", g.lon[0], g.lon[len(g.lon)-1], len(g.lon), g.dxLon)
	fmt.Fprintf(&b, "Lat %v %v (%d) dx=%v\n", g.lat[0], g.lat[len(g.lat)-1], len(g.lat), g.dxLat)
	fmt.Fprintf(&b, "Depth: %v %v", g.MaxDepth(), g.MinDepth())
	return b.String()
}

// uniformStep validates that values are uniformly spaced and strictly
// increasing and returns the rounded mean step.
func uniformStep(axis string, values []float64, tolerance float64) (float64, error) {
	if len(values) < 2 {
		return 0, &InvalidGridError{Axis: axis, Reason: "need at least 2 values"}
	}
	mean := (values[len(values)-1] - values[0]) / float64(len(values)-1)
	var maxDeviation float64
	for i := 1; i < len(values); i++ {
		if deviation := math.Abs(values[i] - values[i-1] - mean); deviation > maxDeviation {
			maxDeviation = deviation
		}
	}
	if maxDeviation > tolerance {
		return 0, &InvalidGridError{
			Axis:   axis,
			Reason: fmt.Sprintf("not uniformly spaced: max step deviation %g exceeds tolerance %g", maxDeviation, tolerance),
		}
	}
	if mean <= 0 {
		return 0, &InvalidGridError{Axis: axis, Reason: "values must be strictly increasing"}
	}
	return roundSignificant(mean, spacingSignificantDigits), nil
}

// roundSignificant rounds x to the given number of significant digits.
func roundSignificant(x float64, digits int) float64 {
	if x == 0 {
		return 0
	}
	scale := math.Pow(10, float64(digits)-math.Ceil(math.Log10(math.Abs(x))))
	return math.Round(x*scale) / scale
}

// cloneDense returns a copy of a.
func cloneDense(a *sparse.DenseArray) *sparse.DenseArray {
	clone := sparse.ZerosDense(a.Shape...)
	copy(clone.Elements, a.Elements)
	return clone
}
