package glyph

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func canvas() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 60, 60))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	return img
}

func render(t *testing.T, f *Font, text string) *image.RGBA {
	t.Helper()

	img := canvas()
	if err := f.Draw(img, image.Pt(10, 40), text, 24, image.Black); err != nil {
		t.Fatalf("Draw(%q): %v", text, err)
	}
	return img
}

func TestShape(t *testing.T) {
	f := Default()

	t.Run("SingleGlyph", func(t *testing.T) {
		glyphs := f.Shape("a", 12)
		if len(glyphs) != 1 {
			t.Fatalf("Shape(\"a\"): got %d glyphs, want 1", len(glyphs))
		}
		if glyphs[0].ID == 0 {
			t.Errorf("Shape(\"a\"): got .notdef")
		}
	})

	t.Run("AdvancesIncrease", func(t *testing.T) {
		glyphs := f.Shape("abc", 12)
		if len(glyphs) != 3 {
			t.Fatalf("Shape(\"abc\"): got %d glyphs, want 3", len(glyphs))
		}
		for i := 1; i < len(glyphs); i++ {
			if glyphs[i].X <= glyphs[i-1].X {
				t.Errorf("glyph %d: X=%v should be > previous X=%v", i, glyphs[i].X, glyphs[i-1].X)
			}
		}
	})

	t.Run("Empty", func(t *testing.T) {
		if glyphs := f.Shape("", 12); glyphs != nil {
			t.Errorf("Shape(\"\"): got %v, want nil", glyphs)
		}
	})
}

func TestDraw(t *testing.T) {
	f := Default()

	t.Run("InksPixels", func(t *testing.T) {
		img := render(t, f, "a")
		if bytes.Equal(img.Pix, canvas().Pix) {
			t.Errorf("Expected \"a\" to change the canvas")
		}
	})

	t.Run("UnsupportedVariationSelectorIsIgnored", func(t *testing.T) {
		plain := render(t, f, "a")
		sequence := render(t, f, "a\ufe00")
		if !bytes.Equal(plain.Pix, sequence.Pix) {
			t.Errorf("Expected \"a\\ufe00\" to render like \"a\"")
		}
	})

	t.Run("DifferentGlyphsDiffer", func(t *testing.T) {
		a := render(t, f, "a")
		b := render(t, f, "b")
		if bytes.Equal(a.Pix, b.Pix) {
			t.Errorf("Expected \"a\" and \"b\" to render differently")
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		if !bytes.Equal(render(t, f, "a").Pix, render(t, f, "a").Pix) {
			t.Errorf("Expected repeated renders to be identical")
		}
	})

	t.Run("OffsetBounds", func(t *testing.T) {
		img := canvas()
		sub := img.SubImage(image.Rect(30, 30, 60, 60)).(*image.RGBA)
		if err := f.Draw(sub, image.Pt(35, 55), "a", 12, image.Black); err != nil {
			t.Fatalf("Draw: %v", err)
		}
		for y := 0; y < 30; y++ {
			for x := 0; x < 60; x++ {
				if img.RGBAAt(x, y) != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
					t.Fatalf("Expected no ink outside the sub-image, found at (%d, %d)", x, y)
				}
			}
		}
		if bytes.Equal(img.Pix, canvas().Pix) {
			t.Errorf("Expected \"a\" to be drawn inside the sub-image")
		}
	})
}

func TestOpen(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		f, err := Open("")
		if err != nil {
			t.Fatalf("Open(\"\"): %v", err)
		}
		if f.Name() != DefaultFontName {
			t.Errorf("Expected %q, got %q", DefaultFontName, f.Name())
		}
	})

	t.Run("Embedded", func(t *testing.T) {
		f, err := Open("Go Mono")
		if err != nil {
			t.Fatalf("Open(\"Go Mono\"): %v", err)
		}
		if len(f.Data()) == 0 {
			t.Errorf("Expected font data")
		}
	})

	t.Run("Missing", func(t *testing.T) {
		if _, err := Open("no-such-font-3b1f.ttf"); err == nil {
			t.Errorf("Expected an error for a missing font")
		}
	})

	t.Run("Garbage", func(t *testing.T) {
		if _, err := Parse("garbage", []byte("not a font")); err == nil {
			t.Errorf("Expected a parse error")
		}
	})
}
