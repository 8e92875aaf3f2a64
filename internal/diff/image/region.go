package image

import (
	"fmt"
	"image"
)

type Outcome int

const (
	Equal Outcome = iota
	Unequal
	SizeMismatch
)

func (o Outcome) String() string {
	switch o {
	case Equal:
		return "equal"
	case Unequal:
		return "unequal"
	case SizeMismatch:
		return "size-mismatch"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ComparisonResult is the verdict of Compare. X, Y, Baseline and Target are
// set only for Unequal; BaselineSize and TargetSize are always set.
type ComparisonResult struct {
	Outcome      Outcome
	X            int
	Y            int
	Baseline     uint32
	Target       uint32
	BaselineSize image.Point
	TargetSize   image.Point
}

func (r ComparisonResult) Err() error {
	switch r.Outcome {
	case Unequal:
		return &UnequalError{X: r.X, Y: r.Y, Baseline: r.Baseline, Target: r.Target}
	case SizeMismatch:
		return &SizeMismatchError{Baseline: r.BaselineSize, Target: r.TargetSize}
	default:
		return nil
	}
}

type UnequalError struct {
	X        int
	Y        int
	Baseline uint32
	Target   uint32
}

func (e *UnequalError) Error() string {
	return fmt.Sprintf("regions differ at (%d, %d): %#08x != %#08x", e.X, e.Y, e.Baseline, e.Target)
}

type SizeMismatchError struct {
	Baseline image.Point
	Target   image.Point
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("region sizes differ: %dx%d != %dx%d", e.Baseline.X, e.Baseline.Y, e.Target.X, e.Target.Y)
}

type RegionComparator struct{}

func NewRegionComparator() *RegionComparator {
	return &RegionComparator{}
}

// Compare reports whether a and b hold exactly the same samples. The first
// mismatch is searched column by column: x outer, y inner. An inconsistent
// buffer (see PixelBuffer) is reported as SizeMismatch without a scan.
func (c *RegionComparator) Compare(a *PixelBuffer, b *PixelBuffer) ComparisonResult {
	result := ComparisonResult{
		BaselineSize: a.Size(),
		TargetSize:   b.Size(),
	}

	if result.BaselineSize != result.TargetSize || !a.consistent() || !b.consistent() {
		result.Outcome = SizeMismatch
		return result
	}

	width, height := result.BaselineSize.X, result.BaselineSize.Y
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			i := y*width + x
			if a.Pix[i] != b.Pix[i] {
				result.Outcome = Unequal
				result.X = x
				result.Y = y
				result.Baseline = a.Pix[i]
				result.Target = b.Pix[i]
				return result
			}
		}
	}

	result.Outcome = Equal
	return result
}

func Compare(a *PixelBuffer, b *PixelBuffer) ComparisonResult {
	return NewRegionComparator().Compare(a, b)
}
