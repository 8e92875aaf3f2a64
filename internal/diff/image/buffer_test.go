package image

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func TestPixelBufferFromImage(t *testing.T) {
	t.Run("PacksARGB", func(t *testing.T) {
		img := createTestImage(2, 2, color.White)
		img.Set(1, 0, color.RGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xFF})

		b := PixelBufferFromImage(img)

		if diff := cmp.Diff([]uint32{0xFFFFFFFF, 0xFF123456, 0xFFFFFFFF, 0xFFFFFFFF}, b.Pix); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("SubImageOrigin", func(t *testing.T) {
		img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
		img.SetNRGBA(4, 6, color.NRGBA{R: 0xFF, A: 0xFF})
		sub := img.SubImage(image.Rect(4, 6, 8, 9))

		b := PixelBufferFromImage(sub)

		if diff := cmp.Diff(image.Pt(4, 3), b.Size()); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
		if got := b.At(0, 0); got != 0xFFFF0000 {
			t.Errorf("Expected red at origin, got %#08x", got)
		}
		if got := b.At(1, 0); got != 0 {
			t.Errorf("Expected transparent at (1, 0), got %#08x", got)
		}
	})

	t.Run("SameSamplesAcrossModels", func(t *testing.T) {
		rgba := createTestImage(20, 50, color.White)
		nrgba := image.NewNRGBA(rgba.Bounds())
		draw.Draw(nrgba, nrgba.Bounds(), rgba, image.Point{}, draw.Src)

		got := Compare(PixelBufferFromImage(rgba), PixelBufferFromImage(nrgba))
		if got.Outcome != Equal {
			t.Errorf("Expected %v, got %v", Equal, got.Outcome)
		}
	})

	t.Run("OutOfBoundsReadsWhite", func(t *testing.T) {
		b := NewPixelBuffer(1, 1, 0)

		if got := b.At(1, 0); got != 0xFFFFFFFF {
			t.Errorf("Expected white, got %#08x", got)
		}
	})
}
