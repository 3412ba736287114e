package simulated

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// DecodeImage turns the stored image into a side x side grey image. Raw
// images are exactly height*width bytes, anything else goes through the
// image format registry. A size different from the metadata or a colour
// image is an error, the metadata promises one channel.
func DecodeImage(raw []byte, m *Metadata, side int) ([]byte, error) {
	var src image.Image
	if len(raw) == m.ImageWidth*m.ImageHeight {
		src = &image.Gray{
			Pix:    raw,
			Stride: m.ImageWidth,
			Rect:   image.Rect(0, 0, m.ImageWidth, m.ImageHeight),
		}
	} else {
		img, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, errors.Wrap(err, "decode image")
		}
		b := img.Bounds()
		if b.Dx() != m.ImageWidth || b.Dy() != m.ImageHeight {
			return nil, errors.Wrapf(ErrInvalidMetadata, "image is %dx%d, metadata says %dx%d",
				b.Dx(), b.Dy(), m.ImageWidth, m.ImageHeight)
		}
		if !grey(img.ColorModel()) {
			return nil, errors.Wrapf(ErrInvalidMetadata, "%T image has colour channels, metadata says %d",
				img, m.Channels)
		}
		src = img
	}
	dst := image.NewGray(image.Rect(0, 0, side, side))
	if side == m.ImageWidth && side == m.ImageHeight {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	} else {
		draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	}
	return dst.Pix, nil
}

// grey reports whether every colour of model m is a shade of grey
func grey(m color.Model) bool {
	switch m {
	case color.GrayModel, color.Gray16Model:
		return true
	}
	p, ok := m.(color.Palette)
	if !ok {
		return false
	}
	for _, c := range p {
		r, g, b, _ := c.RGBA()
		if r != g || g != b {
			return false
		}
	}
	return true
}
