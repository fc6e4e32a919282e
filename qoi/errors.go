package qoi

import "fmt"

// A FormatError reports that the input is not a valid QOI stream.
type FormatError string

func (e FormatError) Error() string {
	return "qoi: invalid format: " + string(e)
}

// A StructuralError reports header fields outside the ranges QOI allows.
type StructuralError string

func (e StructuralError) Error() string {
	return "qoi: invalid header: " + string(e)
}

// A SizeMismatchError reports a pixel buffer whose length disagrees with
// width*height*channels of its header.
type SizeMismatchError struct {
	Want int
	Got  int
}

func (e SizeMismatchError) Error() string {
	return fmt.Sprintf("qoi: pixel buffer has %d bytes, header needs %d", e.Got, e.Want)
}

var (
	// ErrInvalidMagic means the data does not start with the QOI magic, i.e. it
	// is not a QOI stream at all.
	ErrInvalidMagic = FormatError("missing qoif magic")
	ErrTruncated    = FormatError("unexpected end of data")
	ErrEndMarker    = FormatError("missing or misplaced end marker")
)
