package qoi

import (
	"image"
	"image/color"
	"io"

	"github.com/pkg/errors"

	"github.com/LukiDS/qoicodec/imgconv"
)

// encoder holds the state of a single EncodePixels call.
type encoder struct {
	h   Header
	pix []byte
	out []byte
	p   int
}

// EncodePixels encodes pix, a raster-order buffer with h.Channels bytes per
// pixel, into a complete QOI stream. On error no stream is returned.
func EncodePixels(pix []byte, h Header) ([]byte, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}

	want := h.Pixels() * int(h.Channels)
	if len(pix) == 0 || len(pix) != want {
		return nil, SizeMismatchError{Want: want, Got: len(pix)}
	}

	e := encoder{
		h:   h,
		pix: pix,
		out: make([]byte, h.Pixels()*(int(h.Channels)+1)+HeaderSize+len(qoiEndMarker)),
	}

	e.encodeHeader()
	e.encodeBody()
	e.encodeEndMarker()

	return e.out[:e.p], nil
}

func (e *encoder) encodeHeader() {
	putHeader(e.out, e.h)
	e.p = HeaderSize
}

func (e *encoder) encodeEndMarker() {
	e.p += copy(e.out[e.p:], qoiEndMarker)
}

func (e *encoder) encodeBody() {
	var index [qoiCacheSize]color.NRGBA

	channels := int(e.h.Channels)

	run := 0
	pxPrev := startPixel
	px := pxPrev

	pxLen := e.h.Pixels()

	for pxPos := 0; pxPos < pxLen; pxPos++ {
		off := pxPos * channels
		px.R = e.pix[off+0]
		px.G = e.pix[off+1]
		px.B = e.pix[off+2]
		if channels == 4 {
			px.A = e.pix[off+3]
		}

		if px == pxPrev {
			run++
			if run == qoiMaxRunSize || pxPos == pxLen-1 {
				e.writeByte(opRUN | uint8(run-1))
				run = 0
			}
		} else {
			if run > 0 {
				e.writeByte(opRUN | uint8(run-1))
				run = 0
			}

			indexPos := hash(px)
			if index[indexPos] == px {
				e.writeByte(opINDEX | indexPos)
			} else {
				index[indexPos] = px

				if px.A == pxPrev.A {
					e.encodeDelta(px, pxPrev)
				} else {
					e.writeByte(opRGBA)
					e.writeByte(px.R)
					e.writeByte(px.G)
					e.writeByte(px.B)
					e.writeByte(px.A)
				}
			}
		}
		pxPrev = px
	}
}

// encodeDelta picks DIFF, LUMA or RGB for a pixel whose alpha equals the
// previous one. Deltas are taken in int so they never wrap before the range
// checks.
func (e *encoder) encodeDelta(px, pxPrev color.NRGBA) {
	vr := int(px.R) - int(pxPrev.R)
	vg := int(px.G) - int(pxPrev.G)
	vb := int(px.B) - int(pxPrev.B)

	vgR := vr - vg
	vgB := vb - vg

	switch {
	case vr > -3 && vr < 2 && vg > -3 && vg < 2 && vb > -3 && vb < 2:
		e.writeByte(opDIFF | uint8(vr+2)<<4 | uint8(vg+2)<<2 | uint8(vb+2))

	case vgR > -9 && vgR < 8 &&
		vg > -33 && vg < 32 &&
		vgB > -9 && vgB < 8:
		e.writeByte(opLUMA | uint8(vg+32))
		e.writeByte(uint8(vgR+8)<<4 | uint8(vgB+8))

	default:
		e.writeByte(opRGB)
		e.writeByte(px.R)
		e.writeByte(px.G)
		e.writeByte(px.B)
	}
}

func (e *encoder) writeByte(b byte) {
	e.out[e.p] = b
	e.p++
}

// Encoder configures the header metadata written by Encode.
type Encoder struct {
	// Channels is 3 or 4. Zero means 4. With 3 channels the alpha of m is
	// dropped.
	Channels uint8
	// Colorspace is SRGB or Linear. It does not change the pixel data.
	Colorspace uint8
}

// Encode writes the Image m to w in QOI format with 4 channels and the sRGB
// colorspace.
func Encode(w io.Writer, m image.Image) error {
	var enc Encoder
	return enc.Encode(w, m)
}

// Encode writes the Image m to w in QOI format. Any Image may be encoded,
// but images that are not image.NRGBA might be encoded lossily.
func (enc *Encoder) Encode(w io.Writer, m image.Image) error {
	channels := enc.Channels
	if channels == 0 {
		channels = RGBA
	}

	mw, mh := m.Bounds().Dx(), m.Bounds().Dy()
	if mw <= 0 || mh <= 0 || uint64(mw)*uint64(mh) >= MaxPixels {
		return StructuralError("invalid image size")
	}

	h := Header{
		Width:      uint32(mw),
		Height:     uint32(mh),
		Channels:   channels,
		Colorspace: enc.Colorspace,
	}
	if err := h.Validate(); err != nil {
		return err
	}

	data, err := EncodePixels(imgconv.ToPixels(m, int(channels)), h)
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "qoi: write stream")
	}

	return nil
}
