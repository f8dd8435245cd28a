package pixels

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// BytesPerPixel is the stride of one pixel in Buffer.Pix (R, G, B, A)
const BytesPerPixel = 4

// Buffer is a decoded image as flat, row-major, non-premultiplied RGBA bytes
type Buffer struct {
	Width  int
	Height int
	Pix    []byte
}

// New allocates a zeroed buffer
func New(width, height int) *Buffer {
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*BytesPerPixel),
	}
}

// FromRGBA wraps existing RGBA bytes after checking they match the dimensions
func FromRGBA(width, height int, pix []byte) (*Buffer, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	if len(pix) != width*height*BytesPerPixel {
		return nil, fmt.Errorf("pixel data has %d bytes, expected %d for %dx%d",
			len(pix), width*height*BytesPerPixel, width, height)
	}
	return &Buffer{Width: width, Height: height, Pix: pix}, nil
}

// FromImage converts any decoded image into a Buffer.
// Colour values are converted to non-premultiplied 8-bit RGBA, as a canvas would return them.
func FromImage(img image.Image) (*Buffer, error) {
	if img == nil {
		return nil, errors.New("nil image provided")
	}

	bounds := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Stride != bounds.Dx()*BytesPerPixel {
		nrgba = image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)
	}

	pix := make([]byte, bounds.Dx()*bounds.Dy()*BytesPerPixel)
	copy(pix, nrgba.Pix)
	return &Buffer{Width: bounds.Dx(), Height: bounds.Dy(), Pix: pix}, nil
}

// PixelCount returns width*height
func (b *Buffer) PixelCount() int {
	if b == nil {
		return 0
	}
	return len(b.Pix) / BytesPerPixel
}

// Empty reports whether the buffer holds no pixels
func (b *Buffer) Empty() bool {
	return b.PixelCount() == 0
}

// Capacity is the number of LSB slots available in the R, G and B channels
func (b *Buffer) Capacity() int {
	return b.PixelCount() * 3
}

// Clone returns a deep copy
func (b *Buffer) Clone() *Buffer {
	pix := make([]byte, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// At returns the channel value of a pixel
func (b *Buffer) At(pixel, channel int) byte {
	return b.Pix[pixel*BytesPerPixel+channel]
}

// ToImage returns the buffer as an *image.NRGBA sharing no memory with it
func (b *Buffer) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	copy(img.Pix, b.Pix)
	return img
}

// Fill sets every pixel to c
func (b *Buffer) Fill(c color.NRGBA) {
	for i := 0; i+BytesPerPixel <= len(b.Pix); i += BytesPerPixel {
		b.Pix[i] = c.R
		b.Pix[i+1] = c.G
		b.Pix[i+2] = c.B
		b.Pix[i+3] = c.A
	}
}
