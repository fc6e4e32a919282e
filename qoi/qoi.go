// Package qoi implements the QOI ("Quite OK Image") lossless image format.
//
// The engine works on flat, raster-order, channel-interleaved pixel buffers
// (EncodePixels, DecodePixels). Encode, Decode and DecodeConfig adapt it to
// the image package.
package qoi

import (
	"image"
	"image/color"
)

const (
	/*
		2GB is the max file size that this implementation can safely handle.
		We guard against anything larger than that, assuming the worst case with 5 bytes per pixel,
		rounded down to a nice clean value.

		400 million pixels ought to be enough for anybody.
	*/
	MaxPixels = 400_000_000
	Magic     = "qoif"

	HeaderSize = 14 //size in bytes

	qoiCacheSize  = 64
	qoiMaxRunSize = 62
)

// Channel counts.
const (
	RGB  uint8 = 3
	RGBA uint8 = 4
)

// Colorspace values. The codec carries them through unchanged.
const (
	SRGB   uint8 = 0 // sRGB with linear alpha
	Linear uint8 = 1 // all channels linear
)

var qoiEndMarker = []byte{0, 0, 0, 0, 0, 0, 0, 1}

const (
	opINDEX uint8 = 0b00000000
	opDIFF  uint8 = 0b01000000
	opLUMA  uint8 = 0b10000000
	opRUN   uint8 = 0b11000000
	opRGB   uint8 = 0b11111110
	opRGBA  uint8 = 0b11111111
)

const (
	maskOP uint8 = 0b11000000
	mask6  uint8 = 0b00111111
	mask4  uint8 = 0b00001111
	mask2  uint8 = 0b00000011
)

// startPixel is the implicit previous pixel before the first one.
var startPixel = color.NRGBA{0, 0, 0, 255}

func init() {
	image.RegisterFormat("qoi", Magic, Decode, DecodeConfig)
}

// hash overflows uint8 on purpose: 256 is a multiple of the cache size.
func hash(c color.NRGBA) uint8 {
	return (3*c.R + 5*c.G + 7*c.B + 11*c.A) % qoiCacheSize
}
