package bathymetry_test

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/ctessum/sparse"

	bathymetry "github.com/twpayne/go-bathymetry"
)

func TestNewGrid(t *testing.T) {
	depth := sparse.ZerosDense(3, 2)
	for i, v := range []float64{1, 2, 3, 4, 5, 6} {
		depth.Elements[i] = v
	}
	grid, err := bathymetry.NewGrid([]float64{0, 0.5, 1}, []float64{10, 11}, depth)
	assert.NoError(t, err)
	assert.Equal(t, 3, grid.NLon())
	assert.Equal(t, 2, grid.NLat())
	assert.Equal(t, []float64{0, 0.5, 1}, grid.Lon())
	assert.Equal(t, []float64{10, 11}, grid.Lat())
	assert.Equal(t, 0.5, grid.DxLon())
	assert.Equal(t, 1.0, grid.DxLat())
	assert.Equal(t, 3.0, grid.Depth(1, 0))
	assert.Equal(t, 6.0, grid.Depth(2, 1))
	assert.False(t, grid.Land(0, 0))
	assert.Equal(t, 6.0, grid.MaxDepth())
	assert.Equal(t, 1.0, grid.MinDepth())
}

func TestNewGrid_NonUniformSpacing(t *testing.T) {
	depth := sparse.ZerosDense(3, 2)
	_, err := bathymetry.NewGrid([]float64{0, 1, 3}, []float64{0, 1}, depth)
	var invalidGridErr *bathymetry.InvalidGridError
	assert.True(t, errors.As(err, &invalidGridErr))
	assert.Equal(t, "lon", invalidGridErr.Axis)
}

func TestNewGrid_SpacingTolerance(t *testing.T) {
	lon := []float64{0, 1 + 5e-5, 2}
	lat := []float64{0, 1}
	depth := sparse.ZerosDense(3, 2)

	_, err := bathymetry.NewGrid(lon, lat, depth)
	var invalidGridErr *bathymetry.InvalidGridError
	assert.True(t, errors.As(err, &invalidGridErr))

	_, err = bathymetry.NewGrid(lon, lat, depth,
		bathymetry.WithSpacingTolerance(bathymetry.SpacingToleranceFile))
	assert.NoError(t, err)
}

func TestNewGrid_ShapeMismatch(t *testing.T) {
	depth := sparse.ZerosDense(2, 3)
	_, err := bathymetry.NewGrid([]float64{0, 1, 2}, []float64{0, 1}, depth)
	var shapeErr *bathymetry.ShapeMismatchError
	assert.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, []int{3, 2}, shapeErr.Expected)
	assert.Equal(t, []int{2, 3}, shapeErr.Actual)
}

func TestNewGrid_NegativeDepth(t *testing.T) {
	depth := sparse.ZerosDense(2, 2)
	depth.Set(-1, 1, 0)
	_, err := bathymetry.NewGrid([]float64{0, 1}, []float64{0, 1}, depth)
	var depthErr *bathymetry.InvalidDepthError
	assert.True(t, errors.As(err, &depthErr))
	assert.Equal(t, 1, depthErr.Count)
}

func TestNewGrid_MaskedNegativeDepth(t *testing.T) {
	depth := sparse.ZerosDense(2, 2)
	depth.Set(-1, 1, 0)
	mask := sparse.ZerosDense(2, 2)
	mask.Set(1, 1, 0)
	grid, err := bathymetry.NewGrid([]float64{0, 1}, []float64{0, 1}, depth,
		bathymetry.WithLandMask(mask))
	assert.NoError(t, err)
	assert.True(t, grid.Land(1, 0))
	assert.False(t, grid.Land(0, 0))
}

func TestNewGrid_NonFiniteMaskedByDefault(t *testing.T) {
	depth := sparse.ZerosDense(2, 2)
	depth.Set(math.NaN(), 0, 1)
	grid, err := bathymetry.NewGrid([]float64{0, 1}, []float64{0, 1}, depth)
	assert.NoError(t, err)
	assert.True(t, grid.Land(0, 1))
	assert.False(t, grid.Land(0, 0))
}

func TestNewGrid_ShortAxis(t *testing.T) {
	depth := sparse.ZerosDense(1, 2)
	_, err := bathymetry.NewGrid([]float64{0}, []float64{0, 1}, depth)
	var invalidGridErr *bathymetry.InvalidGridError
	assert.True(t, errors.As(err, &invalidGridErr))
}

func TestNewGrid_SpacingRounding(t *testing.T) {
	for i, tc := range []struct {
		axis     []float64
		expected float64
	}{
		{axis: []float64{0, 0.1, 0.2, 0.30000000000000004}, expected: 0.1},
		{axis: []float64{0, 1.0 / 3.0, 2.0 / 3.0}, expected: 0.33333333333333},
		{axis: []float64{10, 20, 30}, expected: 10},
	} {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			depth := sparse.ZerosDense(len(tc.axis), 2)
			grid, err := bathymetry.NewGrid(tc.axis, []float64{0, 1}, depth)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, grid.DxLon())
		})
	}
}

func TestGrid_String(t *testing.T) {
	depth := sparse.ZerosDense(2, 2)
	depth.Set(4, 0, 0)
	depth.Set(2, 1, 1)
	grid, err := bathymetry.NewGrid([]float64{0, 1}, []float64{10, 11}, depth)
	assert.NoError(t, err)
	assert.Equal(t, "Bathymetry\nLon 0 1 (2) dx=1\nLat 10 11 (2) dx=1\nDepth: 4 0", grid.String())
}
