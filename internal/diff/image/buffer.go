package image

import (
	"image"
	"image/color"
)

// PixelBuffer is a captured rectangle of packed 0xAARRGGBB samples in
// row-major order. It is not modified after construction. Use the
// constructors; a literal whose Pix does not hold Width*Height samples is
// inconsistent and never compares equal to anything.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []uint32
}

func NewPixelBuffer(width int, height int, fill uint32) *PixelBuffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	pix := make([]uint32, width*height)
	for i := range pix {
		pix[i] = fill
	}

	return &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    pix,
	}
}

// PixelBufferFromImage copies img into a new buffer whose origin is
// img.Bounds().Min.
func PixelBufferFromImage(img image.Image) *PixelBuffer {
	bounds := img.Bounds()
	b := NewPixelBuffer(bounds.Dx(), bounds.Dy(), 0)

	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := 0; y < b.Height; y++ {
			offset := nrgba.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			for x := 0; x < b.Width; x++ {
				p := nrgba.Pix[offset+x*4 : offset+x*4+4 : offset+x*4+4]
				b.Pix[y*b.Width+x] = Pack(color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]})
			}
		}
		return b
	}

	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			b.Pix[y*b.Width+x] = Pack(c)
		}
	}

	return b
}

func (b *PixelBuffer) consistent() bool {
	if b == nil {
		return true
	}
	return b.Width >= 0 && b.Height >= 0 && len(b.Pix) == b.Width*b.Height
}

func (b *PixelBuffer) Size() image.Point {
	if b == nil {
		return image.Point{}
	}
	return image.Pt(b.Width, b.Height)
}

// At returns the sample at (x, y). Coordinates outside the buffer read as
// opaque white, the background of every surface.
func (b *PixelBuffer) At(x int, y int) uint32 {
	if b == nil || x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return 0xFFFFFFFF
	}
	i := y*b.Width + x
	if i >= len(b.Pix) {
		return 0xFFFFFFFF
	}
	return b.Pix[i]
}

func (b *PixelBuffer) Image() *image.NRGBA {
	size := b.Size()
	img := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			img.SetNRGBA(x, y, Unpack(b.At(x, y)))
		}
	}
	return img
}

func Pack(c color.NRGBA) uint32 {
	return uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func Unpack(v uint32) color.NRGBA {
	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: uint8(v >> 24),
	}
}
