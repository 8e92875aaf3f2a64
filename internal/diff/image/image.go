package image

import "image"

// DiffResult is a diagnostic rendering of two buffers. It never decides
// pass or fail; that is Compare's job.
type DiffResult struct {
	Image      image.Image
	DiffAmount float64
}

type Differ interface {
	Calculate(baseline *PixelBuffer, target *PixelBuffer) *DiffResult
}

func unionSize(baseline *PixelBuffer, target *PixelBuffer) image.Point {
	b := baseline.Size()
	t := target.Size()
	return image.Pt(max(b.X, t.X), max(b.Y, t.Y))
}
