package scenes

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
)

// Frame is one decoded video frame: BGR byte order, row-major,
// 3 bytes per pixel
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

// Valid reports whether the frame holds a complete pixel grid
func (f *Frame) Valid() bool {
	return f != nil && f.Width > 0 && f.Height > 0 && len(f.Pix) == f.Width*f.Height*3
}

// RGBA converts the BGR pixel grid to a standard image, swapping the
// channel order
func (f *Frame) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			si := (y*f.Width + x) * 3
			di := img.PixOffset(x, y)
			img.Pix[di+0] = f.Pix[si+2]
			img.Pix[di+1] = f.Pix[si+1]
			img.Pix[di+2] = f.Pix[si+0]
			img.Pix[di+3] = 0xff
		}
	}
	return img
}

// JPEG encodes the frame as JPEG bytes at the given quality
func (f *Frame) JPEG(quality int) ([]byte, error) {
	if !f.Valid() {
		return nil, errors.New("invalid frame")
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, f.RGBA(), &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
