package bathymetry

import (
	"fmt"
)

// An InvalidGridError indicates a coordinate axis that violates the regular
// grid requirements.
type InvalidGridError struct {
	Axis   string
	Reason string
}

func (e *InvalidGridError) Error() string {
	return fmt.Sprintf("invalid %s axis: %s", e.Axis, e.Reason)
}

// A ShapeMismatchError indicates an array whose shape does not match the
// coordinate axes.
type ShapeMismatchError struct {
	Expected []int
	Actual   []int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("array has wrong shape: expected %v, found %v", e.Expected, e.Actual)
}

// An InvalidDepthError indicates unmasked depth values below zero.
type InvalidDepthError struct {
	Count int
}

func (e *InvalidDepthError) Error() string {
	return fmt.Sprintf("depth must be non-negative: %d unmasked cells violate", e.Count)
}

// An EmptyDatasetError indicates an input with no samples to build a grid
// from.
type EmptyDatasetError struct {
	Source string
}

func (e *EmptyDatasetError) Error() string {
	return fmt.Sprintf("%s: no samples", e.Source)
}

// A MissingVariableError indicates a required netCDF variable that could not
// be located by its metadata attributes.
type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("netcdf: no variable found for %s", e.Name)
}

// A MalformedTokenError indicates a WAM ASCII token that does not match the
// 6-character depth-plus-flag pattern.
type MalformedTokenError struct {
	Token string
}

func (e *MalformedTokenError) Error() string {
	return fmt.Sprintf("wamtopo: malformed token %q", e.Token)
}
