package bathymetry

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ctessum/sparse"
)

// The WAM topo body is a stream of 6-character tokens, 5 characters of
// space-padded signed integer depth plus one sea/land flag character,
// wrapped at 72 columns.
const (
	wamTokenWidth = 6
	wamLineWidth  = 72

	wamSeaFlag  = 'D'
	wamLandFlag = 'E'
)

// ReadWAMTopo decodes a bathymetry grid from a WAM topo ASCII stream. The
// first line is a header of dx_lat, dx_lon, lat_min, lat_max, lon_min,
// lon_max; the rest is the token stream. Line breaks in the body carry no
// meaning and may fall anywhere, including inside a token.
func ReadWAMTopo(r io.Reader) (*Grid, error) {
	br := bufio.NewReader(r)
	header, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	fields := strings.Fields(header)
	if len(fields) != 6 {
		return nil, fmt.Errorf("wamtopo: header has %d fields, expected 6", len(fields))
	}
	headerValues := make([]float64, 6)
	for i, field := range fields {
		headerValues[i], err = strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("wamtopo: header: %w", err)
		}
	}
	dxLat, dxLon := headerValues[0], headerValues[1]
	latMin, latMax := headerValues[2], headerValues[3]
	lonMin, lonMax := headerValues[4], headerValues[5]

	body, err := io.ReadAll(br)
	if err != nil {
		return nil, err
	}
	stream := strings.NewReplacer("\r", "", "\n", "").Replace(string(body))
	if len(stream)%wamTokenWidth != 0 {
		return nil, &MalformedTokenError{Token: stream[len(stream)-len(stream)%wamTokenWidth:]}
	}

	n := len(stream) / wamTokenWidth
	values := make([]float64, n)
	land := make([]bool, n)
	for k := 0; k < n; k++ {
		value, isLand, err := parseWAMToken(stream[k*wamTokenWidth : (k+1)*wamTokenWidth])
		if err != nil {
			return nil, err
		}
		values[k] = value
		land[k] = isLand
	}

	nlon := int(math.Round((lonMax-lonMin)/dxLon)) + 1
	nlat := int(math.Round((latMax-latMin)/dxLat)) + 1
	if nlon < 2 || nlat < 2 {
		return nil, fmt.Errorf("wamtopo: header implies %dx%d grid", nlon, nlat)
	}
	if n != nlon*nlat {
		return nil, fmt.Errorf("wamtopo: expected %d cells (%d lon x %d lat), found %d tokens", nlon*nlat, nlon, nlat, n)
	}

	// The stream is lat-major; transpose into (nlon, nlat).
	depth := sparse.ZerosDense(nlon, nlat)
	mask := sparse.ZerosDense(nlon, nlat)
	for k := 0; k < n; k++ {
		i, j := k%nlon, k/nlon
		depth.Set(values[k], i, j)
		if land[k] {
			mask.Set(1, i, j)
		}
	}

	return NewGrid(
		linspace(lonMin, lonMax, nlon),
		linspace(latMin, latMax, nlat),
		depth,
		WithLandMask(mask),
		WithSpacingTolerance(SpacingToleranceFile),
	)
}

// WriteWAMTopo encodes g as WAM topo ASCII. Depth values are truncated
// toward zero; masked cells are written as land with value 0. Depths whose
// integer value does not fit the 5-character field fail with a
// MalformedTokenError rather than corrupting the fixed-width stream. The
// full output is built in memory before any of it is written, so a failure
// leaves no truncated file.
func WriteWAMTopo(w io.Writer, g *Grid) error {
	var b strings.Builder
	fmt.Fprintf(&b, " %.9f %.9f %11.7f %11.7f %11.7f %11.7f\n",
		g.dxLat, g.dxLon,
		g.lat[0], g.lat[len(g.lat)-1],
		g.lon[0], g.lon[len(g.lon)-1])

	var tokens strings.Builder
	tokens.Grow(g.NLon() * g.NLat() * wamTokenWidth)
	for j := range g.lat {
		for i := range g.lon {
			token := wamToken(0, true)
			if g.mask.Get(i, j) == 0 {
				token = wamToken(int(g.depth.Get(i, j)), false)
			}
			if len(token) != wamTokenWidth {
				return &MalformedTokenError{Token: token}
			}
			tokens.WriteString(token)
		}
	}

	for stream := tokens.String(); len(stream) > 0; {
		n := min(len(stream), wamLineWidth)
		b.WriteString(stream[:n])
		b.WriteByte('\n')
		stream = stream[n:]
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// wamToken formats a single cell token.
func wamToken(value int, land bool) string {
	flag := wamSeaFlag
	if land {
		flag = wamLandFlag
	}
	return fmt.Sprintf("% 5d%c", value, flag)
}

// parseWAMToken decodes a single cell token.
func parseWAMToken(token string) (float64, bool, error) {
	var land bool
	switch token[wamTokenWidth-1] {
	case wamSeaFlag:
	case wamLandFlag:
		land = true
	default:
		return 0, false, &MalformedTokenError{Token: token}
	}
	value, err := strconv.Atoi(strings.TrimSpace(token[:wamTokenWidth-1]))
	if err != nil {
		return 0, false, &MalformedTokenError{Token: token}
	}
	return float64(value), land, nil
}

// linspace returns n evenly spaced values from min to max inclusive.
func linspace(min, max float64, n int) []float64 {
	values := make([]float64, n)
	step := (max - min) / float64(n-1)
	for i := range values {
		values[i] = min + float64(i)*step
	}
	values[n-1] = max
	return values
}
