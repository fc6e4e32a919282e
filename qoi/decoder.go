package qoi

import (
	"bytes"
	"image"
	"image/color"
	"io"

	"github.com/pkg/errors"

	"github.com/LukiDS/qoicodec/imgconv"
)

// decoder holds the state of a single DecodePixels call. Opcodes are read
// from data[p:end]; end excludes the trailing end marker.
type decoder struct {
	h        Header
	data     []byte
	p        int
	end      int
	channels int
	pix      []byte
}

// DecodePixels decodes a complete QOI stream. The returned buffer holds
// width*height pixels with h.Channels bytes each; for 3-channel images the
// alpha column is omitted. The end marker must follow the last opcode
// directly; trailing bytes after it are rejected with ErrEndMarker.
func DecodePixels(data []byte) ([]byte, Header, error) {
	return decodePixels(data, 0)
}

// decodePixels decodes data into a buffer with the given number of channels
// per pixel, or the header's channel count if channels is 0.
func decodePixels(data []byte, channels int) ([]byte, Header, error) {
	if len(data) < HeaderSize+len(qoiEndMarker) {
		return nil, Header{}, ErrTruncated
	}

	h, err := DecodeHeader(data)
	if err != nil {
		return nil, Header{}, err
	}

	if channels == 0 {
		channels = int(h.Channels)
	}

	d := decoder{
		h:        h,
		data:     data,
		p:        HeaderSize,
		end:      len(data) - len(qoiEndMarker),
		channels: channels,
	}

	if err := d.decode(); err != nil {
		return nil, Header{}, err
	}

	if err := d.decodePadding(); err != nil {
		return nil, Header{}, err
	}

	return d.pix, h, nil
}

func (d *decoder) decode() error {
	var index [qoiCacheSize]color.NRGBA

	maxPixel := d.h.Pixels()

	// a single opcode byte yields at most qoiMaxRunSize pixels
	if maxPixel > (d.end-d.p)*qoiMaxRunSize {
		return ErrTruncated
	}

	d.pix = make([]byte, maxPixel*d.channels)

	prevPixel := startPixel
	run := 0

	for pxPos := 0; pxPos < maxPixel; pxPos++ {
		if run > 0 {
			run--
			d.setPixel(pxPos, prevPixel)

			continue
		}

		b1, ok := d.readByte()
		if !ok {
			return ErrTruncated
		}

		if b1 == opRGB {
			rgb, ok := d.readBytes(3)
			if !ok {
				return ErrTruncated
			}

			prevPixel.R = rgb[0]
			prevPixel.G = rgb[1]
			prevPixel.B = rgb[2]

		} else if b1 == opRGBA {
			rgba, ok := d.readBytes(4)
			if !ok {
				return ErrTruncated
			}

			prevPixel.R = rgba[0]
			prevPixel.G = rgba[1]
			prevPixel.B = rgba[2]
			prevPixel.A = rgba[3]

		} else if (b1 & maskOP) == opINDEX {
			prevPixel = index[b1&mask6]

		} else if (b1 & maskOP) == opDIFF {
			prevPixel.R += ((b1 >> 4) & mask2) - 2
			prevPixel.G += ((b1 >> 2) & mask2) - 2
			prevPixel.B += ((b1 >> 0) & mask2) - 2

		} else if (b1 & maskOP) == opLUMA {
			b2, ok := d.readByte()
			if !ok {
				return ErrTruncated
			}

			vg := (b1 & mask6) - 32

			prevPixel.R += vg - 8 + ((b2 >> 4) & mask4)
			prevPixel.G += vg
			prevPixel.B += vg - 8 + ((b2 >> 0) & mask4)

		} else if (b1 & maskOP) == opRUN {
			run = int(b1 & mask6)
		}

		index[hash(prevPixel)] = prevPixel
		d.setPixel(pxPos, prevPixel)
	}

	return nil
}

func (d *decoder) setPixel(pxPos int, c color.NRGBA) {
	off := pxPos * d.channels
	d.pix[off+0] = c.R
	d.pix[off+1] = c.G
	d.pix[off+2] = c.B
	if d.channels == 4 {
		d.pix[off+3] = c.A
	}
}

// decodePadding checks that exactly the end marker follows the last opcode.
func (d *decoder) decodePadding() error {
	if !bytes.Equal(d.data[d.p:], qoiEndMarker) {
		return ErrEndMarker
	}

	return nil
}

func (d *decoder) readByte() (byte, bool) {
	if d.p >= d.end {
		return 0, false
	}

	b := d.data[d.p]
	d.p++

	return b, true
}

func (d *decoder) readBytes(n int) ([]byte, bool) {
	if d.p+n > d.end {
		return nil, false
	}

	b := d.data[d.p : d.p+n]
	d.p += n

	return b, true
}

// DecodeConfig returns the color model and dimensions of a QOI image without
// decoding the entire image. The color model is always color.NRGBAModel.
func DecodeConfig(r io.Reader) (image.Config, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return image.Config{}, err
	}

	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      int(h.Width),
		Height:     int(h.Height),
	}, nil
}

// Decode reads a QOI image from r and returns it as an *image.NRGBA.
// Images stored with 3 channels decode with an opaque alpha channel.
func Decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "qoi: read stream")
	}

	pix, h, err := decodePixels(data, int(RGBA))
	if err != nil {
		return nil, err
	}

	return imgconv.FromPixels(pix, int(h.Width), int(h.Height), int(RGBA)), nil
}

// ReadHeader reads and validates just the header from r.
func ReadHeader(r io.Reader) (Header, error) {
	b := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, b); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Header{}, ErrTruncated
		}
		return Header{}, errors.Wrap(err, "qoi: read header")
	}

	return DecodeHeader(b)
}
