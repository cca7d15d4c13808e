package bathymetry

import (
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/ctessum/sparse"
)

func TestWAMToken(t *testing.T) {
	assert.Equal(t, "    7E", wamToken(7, true))
	assert.Equal(t, "   -3D", wamToken(-3, false))
	assert.Equal(t, "    0D", wamToken(0, false))
	assert.Equal(t, "  123D", wamToken(123, false))
}

func TestWriteWAMTopo(t *testing.T) {
	depth := sparse.ZerosDense(2, 2)
	depth.Set(1, 0, 0)
	depth.Set(2.9, 1, 0) // truncates to 2
	depth.Set(3, 0, 1)
	mask := sparse.ZerosDense(2, 2)
	mask.Set(1, 1, 1)
	grid, err := NewGrid([]float64{0, 1}, []float64{0, 1}, depth, WithLandMask(mask))
	assert.NoError(t, err)

	var b strings.Builder
	assert.NoError(t, WriteWAMTopo(&b, grid))
	expected := " 1.000000000 1.000000000   0.0000000   1.0000000   0.0000000   1.0000000\n" +
		"    1D    2D    3D    0E\n"
	assert.Equal(t, expected, b.String())
}

func TestWriteWAMTopo_DepthOverflowsToken(t *testing.T) {
	depth := sparse.ZerosDense(2, 2)
	depth.Set(1, 0, 0)
	depth.Set(123456, 1, 0)
	grid, err := NewGrid([]float64{0, 1}, []float64{0, 1}, depth)
	assert.NoError(t, err)

	var b strings.Builder
	err = WriteWAMTopo(&b, grid)
	var tokenErr *MalformedTokenError
	assert.True(t, errors.As(err, &tokenErr))
	assert.Equal(t, " 123456D", tokenErr.Token)
	// Nothing reaches the destination on failure.
	assert.Equal(t, "", b.String())
}

func TestReadWAMTopo(t *testing.T) {
	input := " 1.000000000 1.000000000   0.0000000   1.0000000   0.0000000   1.0000000\n" +
		"    1D    2D    3D    0E\n"
	grid, err := ReadWAMTopo(strings.NewReader(input))
	assert.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, grid.Lon())
	assert.Equal(t, []float64{0, 1}, grid.Lat())
	assert.Equal(t, 1.0, grid.Depth(0, 0))
	assert.Equal(t, 2.0, grid.Depth(1, 0))
	assert.Equal(t, 3.0, grid.Depth(0, 1))
	assert.True(t, grid.Land(1, 1))
	assert.False(t, grid.Land(0, 0))
}

func TestReadWAMTopo_WrappedMidToken(t *testing.T) {
	// Line breaks carry no meaning, even inside a token.
	input := " 1.000000000 1.000000000   0.0000000   1.0000000   0.0000000   1.0000000\n" +
		"    1D    2D  \n  3D  \n  0E\n"
	grid, err := ReadWAMTopo(strings.NewReader(input))
	assert.NoError(t, err)
	assert.Equal(t, 3.0, grid.Depth(0, 1))
	assert.True(t, grid.Land(1, 1))
}

func TestReadWAMTopo_MalformedToken(t *testing.T) {
	input := " 1.000000000 1.000000000   0.0000000   1.0000000   0.0000000   1.0000000\n" +
		"    1D    2D    3X    0E\n"
	_, err := ReadWAMTopo(strings.NewReader(input))
	var tokenErr *MalformedTokenError
	assert.True(t, errors.As(err, &tokenErr))
	assert.Equal(t, "    3X", tokenErr.Token)
}

func TestReadWAMTopo_TruncatedToken(t *testing.T) {
	input := " 1.000000000 1.000000000   0.0000000   1.0000000   0.0000000   1.0000000\n" +
		"    1D    2D    3D    0\n"
	_, err := ReadWAMTopo(strings.NewReader(input))
	var tokenErr *MalformedTokenError
	assert.True(t, errors.As(err, &tokenErr))
}

func TestReadWAMTopo_TokenCountMismatch(t *testing.T) {
	input := " 1.000000000 1.000000000   0.0000000   1.0000000   0.0000000   1.0000000\n" +
		"    1D    2D    3D\n"
	_, err := ReadWAMTopo(strings.NewReader(input))
	assert.Error(t, err)
}

func TestWAMTopo_RoundTrip(t *testing.T) {
	nlon, nlat := 13, 7
	lon := make([]float64, nlon)
	for i := range lon {
		lon[i] = 21 + 0.25*float64(i)
	}
	lat := make([]float64, nlat)
	for j := range lat {
		lat[j] = 59 + 0.5*float64(j)
	}
	depth := sparse.ZerosDense(nlon, nlat)
	mask := sparse.ZerosDense(nlon, nlat)
	for i := 0; i < nlon; i++ {
		for j := 0; j < nlat; j++ {
			if (i+j)%5 == 0 {
				mask.Set(1, i, j)
			} else {
				depth.Set(float64(10*i+j), i, j)
			}
		}
	}
	grid, err := NewGrid(lon, lat, depth, WithLandMask(mask))
	assert.NoError(t, err)

	var b strings.Builder
	assert.NoError(t, WriteWAMTopo(&b, grid))

	decoded, err := ReadWAMTopo(strings.NewReader(b.String()))
	assert.NoError(t, err)
	assert.Equal(t, grid.Lon(), decoded.Lon())
	assert.Equal(t, grid.Lat(), decoded.Lat())
	assert.Equal(t, grid.DxLon(), decoded.DxLon())
	assert.Equal(t, grid.DxLat(), decoded.DxLat())
	for i := 0; i < nlon; i++ {
		for j := 0; j < nlat; j++ {
			assert.Equal(t, grid.Land(i, j), decoded.Land(i, j))
			if !grid.Land(i, j) {
				assert.Equal(t, grid.Depth(i, j), decoded.Depth(i, j))
			}
		}
	}
}

func BenchmarkWriteWAMTopo(b *testing.B) {
	nlon, nlat := 128, 128
	lon := make([]float64, nlon)
	for i := range lon {
		lon[i] = 0.01 * float64(i)
	}
	lat := make([]float64, nlat)
	for j := range lat {
		lat[j] = 0.01 * float64(j)
	}
	depth := sparse.ZerosDense(nlon, nlat)
	for i := range depth.Elements {
		depth.Elements[i] = float64(i % 100)
	}
	grid, err := NewGrid(lon, lat, depth)
	assert.NoError(b, err)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var sb strings.Builder
		assert.NoError(b, WriteWAMTopo(&sb, grid))
	}
}
