package bathymetry

import (
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// Variables are located by these metadata attributes, in preference order.
var roleAttributes = []string{"long_name", "standard_name"}

// ReadNetCDF decodes a bathymetry grid from a netCDF classic stream.
// Variables are located by inspecting their long_name/standard_name
// attributes case-insensitively for latitude, longitude, depth or
// bathymetry, and mask. The longitude and latitude variables are bound
// before depth so that the orientation decision always sees both axis
// lengths, regardless of the order in which variables are stored.
func ReadNetCDF(rw cdf.ReaderWriterAt) (*Grid, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, err
	}
	h := f.Header

	var lonVar, latVar, depthVar, maskVar string
	for _, v := range h.Variables() {
		switch role := variableRole(h, v); {
		case strings.Contains(role, "longitude") && lonVar == "":
			lonVar = v
		case strings.Contains(role, "latitude") && latVar == "":
			latVar = v
		}
	}
	for _, v := range h.Variables() {
		if v == lonVar || v == latVar {
			continue
		}
		switch role := variableRole(h, v); {
		case (strings.Contains(role, "depth") || strings.Contains(role, "bathymetry")) && depthVar == "":
			depthVar = v
		case strings.Contains(role, "mask") && maskVar == "":
			maskVar = v
		}
	}
	switch {
	case lonVar == "":
		return nil, &MissingVariableError{Name: "longitude"}
	case latVar == "":
		return nil, &MissingVariableError{Name: "latitude"}
	case depthVar == "":
		return nil, &MissingVariableError{Name: "depth"}
	}

	lon, _, err := readVariable(f, lonVar)
	if err != nil {
		return nil, err
	}
	lat, _, err := readVariable(f, latVar)
	if err != nil {
		return nil, err
	}
	depthValues, _, err := readVariable(f, depthVar)
	if err != nil {
		return nil, err
	}
	depthTransposed, err := storedTransposed(h, depthVar, lonVar, latVar, len(lon), len(lat))
	if err != nil {
		return nil, err
	}
	depth := orientToGrid(depthValues, depthTransposed, len(lon), len(lat))

	gridOptions := []GridOption{WithSpacingTolerance(SpacingToleranceFile)}
	switch {
	case maskVar != "":
		maskValues, _, err := readVariable(f, maskVar)
		if err != nil {
			return nil, err
		}
		maskTransposed, err := storedTransposed(h, maskVar, lonVar, latVar, len(lon), len(lat))
		if err != nil {
			return nil, err
		}
		oriented := orientToGrid(maskValues, maskTransposed, len(lon), len(lat))
		mask := sparse.ZerosDense(oriented.Shape...)
		for i, v := range oriented.Elements {
			if v != 0 {
				mask.Elements[i] = 1
			}
		}
		gridOptions = append(gridOptions, WithLandMask(mask))
	default:
		if fill, ok := fillValue(h, depthVar); ok {
			mask := sparse.ZerosDense(depth.Shape...)
			for i, v := range depth.Elements {
				if v == fill || math.IsNaN(v) || math.IsInf(v, 0) {
					mask.Elements[i] = 1
				}
			}
			gridOptions = append(gridOptions, WithLandMask(mask))
		}
		// Otherwise NewGrid masks non-finite cells.
	}

	return NewGrid(lon, lat, depth, gridOptions...)
}

// WriteNetCDF encodes g as netCDF classic with CF-style metadata: lon and
// lat coordinate variables, depth oriented (lat, lon) with masked cells
// filled as 0, and an 8-bit mask variable with 1 meaning land. The full
// output is built in memory before any of it is written, so a failure leaves
// no truncated file.
func WriteNetCDF(w io.Writer, g *Grid) error {
	nlon, nlat := g.NLon(), g.NLat()

	h := cdf.NewHeader([]string{"lon", "lat"}, []int{nlon, nlat})
	h.AddVariable("lon", []string{"lon"}, []float64{})
	h.AddAttribute("lon", "standard_name", "longitude")
	h.AddAttribute("lon", "long_name", "longitude")
	h.AddAttribute("lon", "units", "degrees_east")
	h.AddAttribute("lon", "axis", "X")
	h.AddVariable("lat", []string{"lat"}, []float64{})
	h.AddAttribute("lat", "standard_name", "latitude")
	h.AddAttribute("lat", "long_name", "latitude")
	h.AddAttribute("lat", "units", "degrees_north")
	h.AddAttribute("lat", "axis", "Y")
	h.AddVariable("depth", []string{"lat", "lon"}, []float32{})
	h.AddAttribute("depth", "standard_name", "depth")
	h.AddAttribute("depth", "long_name", "depth below sea surface")
	h.AddAttribute("depth", "units", "m")
	h.AddAttribute("depth", "positive", "down")
	h.AddVariable("mask", []string{"lat", "lon"}, []uint8{})
	h.AddAttribute("mask", "standard_name", "land_binary_mask")
	h.AddAttribute("mask", "long_name", "land mask")
	h.Define()
	for _, err := range h.Check() {
		if err != nil {
			return err
		}
	}

	mem := &memFile{}
	f, err := cdf.Create(mem, h)
	if err != nil {
		return err
	}

	depth32 := make([]float32, nlon*nlat)
	mask8 := make([]uint8, nlon*nlat)
	for j := 0; j < nlat; j++ {
		for i := 0; i < nlon; i++ {
			k := j*nlon + i
			if g.mask.Get(i, j) != 0 {
				mask8[k] = 1
			} else {
				depth32[k] = float32(g.depth.Get(i, j))
			}
		}
	}

	if err := writeVariable(f, "lon", g.Lon()); err != nil {
		return err
	}
	if err := writeVariable(f, "lat", g.Lat()); err != nil {
		return err
	}
	if err := writeVariable(f, "depth", depth32); err != nil {
		return err
	}
	if err := writeVariable(f, "mask", mask8); err != nil {
		return err
	}

	_, err = w.Write(mem.Bytes())
	return err
}

// variableRole returns the lowercased value of the first role attribute
// present on v, or the empty string if none is.
func variableRole(h *cdf.Header, v string) string {
	for _, attribute := range roleAttributes {
		if slices.Contains(h.Attributes(v), attribute) {
			if s, ok := h.GetAttribute(v, attribute).(string); ok {
				return strings.ToLower(s)
			}
		}
	}
	return ""
}

// fillValue returns the masked-value sentinel carried by v, if any.
func fillValue(h *cdf.Header, v string) (float64, bool) {
	for _, attribute := range []string{"_FillValue", "missing_value"} {
		if !slices.Contains(h.Attributes(v), attribute) {
			continue
		}
		switch a := h.GetAttribute(v, attribute).(type) {
		case []float64:
			if len(a) > 0 {
				return a[0], true
			}
		case []float32:
			if len(a) > 0 {
				return float64(a[0]), true
			}
		case []int32:
			if len(a) > 0 {
				return float64(a[0]), true
			}
		case []int16:
			if len(a) > 0 {
				return float64(a[0]), true
			}
		case []uint8:
			if len(a) > 0 {
				return float64(a[0]), true
			}
		}
	}
	return 0, false
}

// readVariable reads all values of v as float64, returning them with the
// variable's shape.
func readVariable(f *cdf.File, v string) ([]float64, []int, error) {
	shape := f.Header.Lengths(v)
	n := 1
	for _, length := range shape {
		n *= length
	}
	r := f.Reader(v, nil, nil)
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil && err != io.EOF {
		return nil, nil, err
	}
	values := make([]float64, n)
	switch buf := buf.(type) {
	case []float64:
		copy(values, buf)
	case []float32:
		for i, b := range buf {
			values[i] = float64(b)
		}
	case []int32:
		for i, b := range buf {
			values[i] = float64(b)
		}
	case []int16:
		for i, b := range buf {
			values[i] = float64(b)
		}
	case []uint8:
		for i, b := range buf {
			values[i] = float64(b)
		}
	default:
		return nil, nil, fmt.Errorf("netcdf: variable %s has unsupported type %T", v, buf)
	}
	return values, shape, nil
}

// writeVariable writes all values of v.
func writeVariable(f *cdf.File, v string, values interface{}) error {
	w := f.Writer(v, nil, nil)
	if _, err := w.Write(values); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// storedTransposed reports whether the 2-D variable v is stored (lat, lon)
// and so needs transposing into the grid's (lon, lat) order. The variable's
// dimension names are authoritative when they match the axis variables'
// dimensions; the axis lengths decide otherwise, which cannot distinguish
// the two orientations of a square grid.
func storedTransposed(h *cdf.Header, v, lonVar, latVar string, nlon, nlat int) (bool, error) {
	shape := h.Lengths(v)
	if dims := h.Dimensions(v); len(dims) == 2 {
		lonDims, latDims := h.Dimensions(lonVar), h.Dimensions(latVar)
		if len(lonDims) == 1 && len(latDims) == 1 {
			switch {
			case dims[0] == latDims[0] && dims[1] == lonDims[0]:
				if !slices.Equal(shape, []int{nlat, nlon}) {
					return false, &ShapeMismatchError{Expected: []int{nlat, nlon}, Actual: shape}
				}
				return true, nil
			case dims[0] == lonDims[0] && dims[1] == latDims[0]:
				if !slices.Equal(shape, []int{nlon, nlat}) {
					return false, &ShapeMismatchError{Expected: []int{nlon, nlat}, Actual: shape}
				}
				return false, nil
			}
		}
	}
	switch {
	case len(shape) == 2 && shape[0] == nlon && shape[1] == nlat:
		return false, nil
	case len(shape) == 2 && shape[0] == nlat && shape[1] == nlon:
		return true, nil
	default:
		return false, &ShapeMismatchError{Expected: []int{nlon, nlat}, Actual: shape}
	}
}

// orientToGrid reshapes flat row-major values into a (nlon, nlat) array,
// transposing if the stored orientation is (nlat, nlon).
func orientToGrid(values []float64, transposed bool, nlon, nlat int) *sparse.DenseArray {
	oriented := sparse.ZerosDense(nlon, nlat)
	if transposed {
		for j := 0; j < nlat; j++ {
			for i := 0; i < nlon; i++ {
				oriented.Set(values[j*nlon+i], i, j)
			}
		}
	} else {
		copy(oriented.Elements, values)
	}
	return oriented
}

// A memFile is an in-memory cdf.ReaderWriterAt. Encoders build their full
// output here before committing it to the destination.
type memFile struct {
	buf []byte
}

func (f *memFile) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(f.buf)) {
		return 0, io.EOF
	}
	n := copy(p, f.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *memFile) WriteAt(p []byte, off int64) (int, error) {
	if end := int(off) + len(p); end > len(f.buf) {
		f.buf = append(f.buf, make([]byte, end-len(f.buf))...)
	}
	return copy(f.buf[int(off):], p), nil
}

func (f *memFile) Bytes() []byte {
	return f.buf
}
