package qoi

import (
	"encoding/binary"
)

// Header is the fixed 14 byte preamble of a QOI stream.
type Header struct {
	Width      uint32
	Height     uint32
	Channels   uint8
	Colorspace uint8
}

// Validate reports whether h describes an image this codec can handle.
func (h Header) Validate() error {
	if h.Channels != RGB && h.Channels != RGBA {
		return StructuralError("channels must be 3 or 4")
	}

	if h.Colorspace != SRGB && h.Colorspace != Linear {
		return StructuralError("colorspace must be 0 or 1")
	}

	if h.Width == 0 || h.Height == 0 {
		return StructuralError("zero image dimension")
	}

	if uint64(h.Width)*uint64(h.Height) >= MaxPixels {
		return StructuralError("too many pixels")
	}

	return nil
}

// Pixels returns the number of pixels described by h.
func (h Header) Pixels() int {
	return int(h.Width) * int(h.Height)
}

// EncodeHeader serializes h into its 14 byte wire form.
func EncodeHeader(h Header) ([]byte, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}

	b := make([]byte, HeaderSize)
	putHeader(b, h)

	return b, nil
}

// DecodeHeader parses the first 14 bytes of b. A wrong magic yields
// ErrInvalidMagic, out-of-range fields a StructuralError.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, ErrTruncated
	}

	if string(b[:4]) != Magic {
		return Header{}, ErrInvalidMagic
	}

	h := Header{
		Width:      binary.BigEndian.Uint32(b[4:8]),
		Height:     binary.BigEndian.Uint32(b[8:12]),
		Channels:   b[12],
		Colorspace: b[13],
	}

	if err := h.Validate(); err != nil {
		return Header{}, err
	}

	return h, nil
}

func putHeader(b []byte, h Header) {
	copy(b[:4], Magic)
	binary.BigEndian.PutUint32(b[4:8], h.Width)
	binary.BigEndian.PutUint32(b[8:12], h.Height)
	b[12] = h.Channels
	b[13] = h.Colorspace
}
