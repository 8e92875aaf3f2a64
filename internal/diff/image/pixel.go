package image

import (
	"image"
	"runtime"
	"sync"
	"sync/atomic"
)

type PixelDiff struct {
	threshold float64
}

func NewPixelDiff(threshold float64) *PixelDiff {
	return &PixelDiff{
		threshold,
	}
}

func (p *PixelDiff) Calculate(baseline *PixelBuffer, target *PixelBuffer) *DiffResult {
	size := unionSize(baseline, target)
	diff := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))

	if baseline == target {
		if baseline != nil {
			diff = baseline.Image()
		}
		return &DiffResult{
			Image:      diff,
			DiffAmount: 0.0,
		}
	}

	var addedPixelCount int64
	var removedPixelCount int64
	totalPixelCount := int64(size.X * size.Y)

	// Use GOMAXPROCS instead of runtime.NumCPU() to consider cgroup.
	// https://tip.golang.org/doc/go1.25#container-aware-gomaxprocs
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > size.Y {
		numWorkers = max(size.Y, 1)
	}
	rowsPerWorker := size.Y / numWorkers

	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for i := 0; i < numWorkers; i++ {
		startY := i * rowsPerWorker
		endY := startY + rowsPerWorker
		if i == numWorkers-1 {
			endY = size.Y
		}

		go func(startY int, endY int) {
			defer wg.Done()
			p.process(baseline, target, diff, size.X, startY, endY, &addedPixelCount, &removedPixelCount)
		}(startY, endY)
	}

	wg.Wait()

	diffAmount := 0.0
	if totalPixelCount > 0 {
		diffAmount = float64(addedPixelCount+removedPixelCount) / float64(totalPixelCount)
	}

	return &DiffResult{
		Image:      diff,
		DiffAmount: diffAmount,
	}
}

func (p *PixelDiff) process(baseline *PixelBuffer, target *PixelBuffer, diff *image.NRGBA, width int, startY int, endY int, addedCount *int64, removedCount *int64) {
	var localAdded int64
	var localRemoved int64

	for y := startY; y < endY; y++ {
		rowStart := diff.PixOffset(0, y)

		for x := 0; x < width; x++ {
			b := baseline.At(x, y)
			t := target.At(x, y)

			out := b
			if b != t {
				out = p.getDiffColor(b, t)
				switch out {
				case addedColor:
					localAdded++
				case removedColor:
					localRemoved++
				}
			}

			c := Unpack(out)
			offset := rowStart + x*4
			diff.Pix[offset] = c.R
			diff.Pix[offset+1] = c.G
			diff.Pix[offset+2] = c.B
			diff.Pix[offset+3] = c.A
		}
	}

	atomic.AddInt64(addedCount, localAdded)
	atomic.AddInt64(removedCount, localRemoved)
}

const (
	addedColor   uint32 = 0xFFFF0000
	removedColor uint32 = 0xFF0000FF
)

// getDiffColor marks pixels that became brighter red and pixels that became
// darker blue. Changes within the threshold keep the baseline color.
func (p *PixelDiff) getDiffColor(baseline uint32, target uint32) uint32 {
	bc := Unpack(baseline)
	tc := Unpack(target)

	baselineBrightness := int(bc.R) + int(bc.G) + int(bc.B)
	targetBrightness := int(tc.R) + int(tc.G) + int(tc.B)
	normalizedDiff := float64(targetBrightness-baselineBrightness) / (255.0 * 3.0)

	if normalizedDiff > p.threshold {
		return addedColor
	} else if normalizedDiff < -p.threshold {
		return removedColor
	} else {
		return baseline
	}
}
