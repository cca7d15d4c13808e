package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	bathymetry "github.com/twpayne/go-bathymetry"
)

func readGrid(filename string, xyzOptions []bathymetry.XYZOption) (*bathymetry.Grid, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xyz":
		return bathymetry.ReadXYZ(f, xyzOptions...)
	case ".asc", ".topo", ".wam":
		return bathymetry.ReadWAMTopo(f)
	case ".nc":
		return bathymetry.ReadNetCDF(f)
	default:
		return nil, fmt.Errorf("%s: unknown bathymetry format", filename)
	}
}

func writeGrid(filename string, grid *bathymetry.Grid, scale int) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".asc", ".topo", ".wam":
		return bathymetry.WriteWAMTopo(f, grid)
	case ".nc":
		return bathymetry.WriteNetCDF(f, grid)
	case ".png":
		return bathymetry.WritePNG(f, grid, bathymetry.WithScale(scale))
	default:
		return fmt.Errorf("%s: unknown bathymetry format", filename)
	}
}

func run() error {
	landMaskValue := flag.Float64("land-mask-value", 0, "depth value marking land in XYZ input")
	noLandMask := flag.Bool("no-land-mask", false, "do not derive a land mask from XYZ input")
	out := flag.String("out", "", "output file (.asc, .nc, or .png)")
	scale := flag.Int("scale", 1, "PNG upscale factor")
	flag.Parse()

	if flag.NArg() != 1 {
		return errors.New("syntax: bathymetry-example [flags] input-file")
	}

	var xyzOptions []bathymetry.XYZOption
	if !*noLandMask {
		xyzOptions = append(xyzOptions, bathymetry.WithLandMaskValue(*landMaskValue))
	}

	grid, err := readGrid(flag.Arg(0), xyzOptions)
	if err != nil {
		return err
	}
	fmt.Println(grid)

	if *out != "" {
		return writeGrid(*out, grid, *scale)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
