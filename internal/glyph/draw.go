package glyph

import (
	"fmt"
	"image"
	"image/draw"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Draw shapes text and fills the glyph outlines into dst with src. origin is
// the left end of the baseline in dst coordinates. Outlines are not hinted.
func (f *Font) Draw(dst draw.Image, origin image.Point, text string, size float64, src image.Image) error {
	bounds := dst.Bounds()
	if bounds.Empty() {
		return nil
	}

	var buf sfnt.Buffer
	ppem := fixed.Int26_6(size * 64)
	z := vector.NewRasterizer(bounds.Dx(), bounds.Dy())

	for _, g := range f.Shape(text, size) {
		segments, err := f.sfnt.LoadGlyph(&buf, sfnt.GlyphIndex(g.ID), ppem, nil)
		if err != nil {
			return fmt.Errorf("failed to load glyph %d: %w", g.ID, err)
		}
		if len(segments) == 0 {
			continue
		}

		// Rasterizer space starts at bounds.Min.
		dx := float32(origin.X-bounds.Min.X) + fixedToFloat32(g.X)
		dy := float32(origin.Y-bounds.Min.Y) + fixedToFloat32(g.Y)

		z.Reset(bounds.Dx(), bounds.Dy())
		for i, seg := range segments {
			switch seg.Op {
			case sfnt.SegmentOpMoveTo:
				if i > 0 {
					z.ClosePath()
				}
				z.MoveTo(dx+fixedToFloat32(seg.Args[0].X), dy+fixedToFloat32(seg.Args[0].Y))
			case sfnt.SegmentOpLineTo:
				z.LineTo(dx+fixedToFloat32(seg.Args[0].X), dy+fixedToFloat32(seg.Args[0].Y))
			case sfnt.SegmentOpQuadTo:
				z.QuadTo(
					dx+fixedToFloat32(seg.Args[0].X), dy+fixedToFloat32(seg.Args[0].Y),
					dx+fixedToFloat32(seg.Args[1].X), dy+fixedToFloat32(seg.Args[1].Y),
				)
			case sfnt.SegmentOpCubeTo:
				z.CubeTo(
					dx+fixedToFloat32(seg.Args[0].X), dy+fixedToFloat32(seg.Args[0].Y),
					dx+fixedToFloat32(seg.Args[1].X), dy+fixedToFloat32(seg.Args[1].Y),
					dx+fixedToFloat32(seg.Args[2].X), dy+fixedToFloat32(seg.Args[2].Y),
				)
			}
		}
		z.ClosePath()
		z.Draw(dst, bounds, src, image.Point{})
	}

	return nil
}

func fixedToFloat32(v fixed.Int26_6) float32 {
	return float32(v) / 64
}
