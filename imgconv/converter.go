package imgconv

import (
	"image"
	"image/color"
)

// ToNRGBA converts any image m to an *image.NRGBA image.
// Any Image may be converted, but images that are not image.NRGBA might be converted lossily.
func ToNRGBA(m image.Image) *image.NRGBA {
	if img, ok := m.(*image.NRGBA); ok {
		return img
	}

	img := image.NewNRGBA(m.Bounds())

	for x := m.Bounds().Min.X; x < m.Bounds().Max.X; x++ {
		for y := m.Bounds().Min.Y; y < m.Bounds().Max.Y; y++ {
			px := m.At(x, y)
			px = color.NRGBAModel.Convert(px)
			img.Set(x, y, px)
		}
	}

	return img
}

// ToPixels flattens m into a raster-order buffer with channels (3 or 4)
// bytes per pixel. With 3 channels the alpha of m is dropped.
func ToPixels(m image.Image, channels int) []byte {
	img := ToNRGBA(m)

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	pix := make([]byte, 0, w*h*channels)

	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		row := img.Pix[img.PixOffset(img.Rect.Min.X, y):]
		if channels == 4 {
			pix = append(pix, row[:w*4]...)
			continue
		}
		for x := 0; x < w; x++ {
			pix = append(pix, row[x*4:x*4+3]...)
		}
	}

	return pix
}

// FromPixels builds an *image.NRGBA with bounds (0,0)-(w,h) from a
// raster-order buffer with channels bytes per pixel. 3-channel pixels get
// an alpha of 255.
func FromPixels(pix []byte, w, h, channels int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))

	if channels == 4 {
		copy(img.Pix, pix)
		return img
	}

	for i, j := 0, 0; i+2 < len(pix) && j < len(img.Pix); i, j = i+channels, j+4 {
		img.Pix[j+0] = pix[i+0]
		img.Pix[j+1] = pix[i+1]
		img.Pix[j+2] = pix[i+2]
		img.Pix[j+3] = 255
	}

	return img
}
