package bathymetry

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
)

type plotConfig struct {
	scale int
}

// A PlotOption sets an option on WritePNG.
type PlotOption func(*plotConfig)

// WithScale upscales the rendered raster by an integer factor.
func WithScale(scale int) PlotOption {
	return func(c *plotConfig) {
		c.scale = scale
	}
}

// PlotImage renders g as a color-mapped raster with one pixel per cell.
// Shallow water is light, deep water is dark, and land cells are
// transparent. Row 0 is the northernmost latitude.
func PlotImage(g *Grid) *image.NRGBA {
	nlon, nlat := g.NLon(), g.NLat()
	img := image.NewNRGBA(image.Rect(0, 0, nlon, nlat))
	maxDepth := g.MaxDepth()
	for y := 0; y < nlat; y++ {
		j := nlat - 1 - y
		for x := 0; x < nlon; x++ {
			if g.Land(x, j) {
				continue // zero NRGBA is transparent
			}
			img.SetNRGBA(x, y, depthColor(g.Depth(x, j), maxDepth))
		}
	}
	return img
}

// WritePNG renders g and writes it as a PNG.
func WritePNG(w io.Writer, g *Grid, options ...PlotOption) error {
	c := &plotConfig{
		scale: 1,
	}
	for _, option := range options {
		option(c)
	}

	img := PlotImage(g)
	if c.scale > 1 {
		scaled := image.NewNRGBA(image.Rect(0, 0, c.scale*img.Bounds().Dx(), c.scale*img.Bounds().Dy()))
		draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
		img = scaled
	}
	return png.Encode(w, img)
}

// depthColor maps a depth to a blue ramp.
func depthColor(depth, maxDepth float64) color.NRGBA {
	t := 0.0
	if maxDepth > 0 {
		t = math.Min(math.Max(depth/maxDepth, 0), 1)
	}
	return color.NRGBA{
		R: uint8(math.Round(200 * (1 - t))),
		G: uint8(math.Round(220 - 150*t)),
		B: uint8(math.Round(255 - 75*t)),
		A: 255,
	}
}
