package bathymetry

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/ctessum/sparse"
)

type xyzConfig struct {
	landMaskValue    float64
	hasLandMaskValue bool
}

// An XYZOption sets an option on ReadXYZ.
type XYZOption func(*xyzConfig)

// WithLandMaskValue treats cells whose reduced depth equals value as land.
// Cells never visited by any sample keep the zero fill value, so with value
// 0 they are indistinguishable from cells explicitly sampled as land.
func WithLandMaskValue(value float64) XYZOption {
	return func(c *xyzConfig) {
		c.landMaskValue = value
		c.hasLandMaskValue = true
	}
}

// ReadXYZ reads scattered "lon lat depth" samples, one per line, and reduces
// them to a regular grid. The unique longitude and latitude values of the
// samples define the axes. The source stores depth negative below the sea
// surface; the sign is reversed on ingestion. Later samples at the same cell
// overwrite earlier ones.
func ReadXYZ(r io.Reader, options ...XYZOption) (*Grid, error) {
	c := &xyzConfig{}
	for _, option := range options {
		option(c)
	}

	var lons, lats, depths []float64
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("xyz: line %d: expected 3 fields, found %d", line, len(fields))
		}
		sample := make([]float64, 3)
		for i, field := range fields {
			var err error
			sample[i], err = strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("xyz: line %d: %w", line, err)
			}
		}
		lons = append(lons, sample[0])
		lats = append(lats, sample[1])
		depths = append(depths, -sample[2])
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(depths) == 0 {
		return nil, &EmptyDatasetError{Source: "xyz"}
	}

	lonAxis := uniqueSorted(lons)
	latAxis := uniqueSorted(lats)
	lonIndex := axisIndex(lonAxis)
	latIndex := axisIndex(latAxis)

	depth := sparse.ZerosDense(len(lonAxis), len(latAxis))
	for i, d := range depths {
		depth.Set(d, lonIndex[lons[i]], latIndex[lats[i]])
	}

	gridOptions := []GridOption{WithSpacingTolerance(SpacingToleranceScatter)}
	if c.hasLandMaskValue {
		mask := sparse.ZerosDense(depth.Shape...)
		for i, d := range depth.Elements {
			if d == c.landMaskValue {
				mask.Elements[i] = 1
			}
		}
		gridOptions = append(gridOptions, WithLandMask(mask))
	}
	return NewGrid(lonAxis, latAxis, depth, gridOptions...)
}

// uniqueSorted returns the sorted unique values of values.
func uniqueSorted(values []float64) []float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}

// axisIndex maps each axis value to its index.
func axisIndex(axis []float64) map[float64]int {
	index := make(map[float64]int, len(axis))
	for i, v := range axis {
		index[v] = i
	}
	return index
}
