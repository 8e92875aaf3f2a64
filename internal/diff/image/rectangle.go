package image

import (
	"image"
	"image/color"
	"image/draw"
)

type Rectangle struct {
	X      int
	Y      int
	Width  int
	Height int
}

// RectangleDiff outlines connected groups of changed pixels on a copy of the
// target. Glyph regions are small, so groups closer than mergeDistance
// pixels are reported as one box.
type RectangleDiff struct {
	mergeDistance int
}

func NewRectangleDiff() *RectangleDiff {
	return &RectangleDiff{
		mergeDistance: 2,
	}
}

func (r *RectangleDiff) Calculate(baseline *PixelBuffer, target *PixelBuffer) *DiffResult {
	size := unionSize(baseline, target)
	bounds := image.Rect(0, 0, size.X, size.Y)
	result := image.NewNRGBA(bounds)
	draw.Draw(result, bounds, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	if target != nil {
		draw.Draw(result, bounds, target.Image(), image.Point{}, draw.Src)
	}

	if baseline == target {
		return &DiffResult{
			Image:      result,
			DiffAmount: 0.0,
		}
	}

	rectangles := r.Rectangles(baseline, target)

	rectColor := color.NRGBA{R: 255, A: 255}
	for _, rect := range rectangles {
		for x := rect.X - 1; x <= rect.X+rect.Width; x++ {
			result.Set(x, rect.Y-1, rectColor)
			result.Set(x, rect.Y+rect.Height, rectColor)
		}
		for y := rect.Y - 1; y <= rect.Y+rect.Height; y++ {
			result.Set(rect.X-1, y, rectColor)
			result.Set(rect.X+rect.Width, y, rectColor)
		}
	}

	diffAmount := 0.0
	if total := size.X * size.Y; total > 0 {
		area := 0
		for _, rect := range rectangles {
			area += rect.Width * rect.Height
		}
		diffAmount = float64(area) / float64(total)
		if diffAmount > 1.0 {
			diffAmount = 1.0
		}
	}

	return &DiffResult{
		Image:      result,
		DiffAmount: diffAmount,
	}
}

// Rectangles returns the bounding boxes of the changed pixels, scanned in
// the same x-major order as Compare.
func (r *RectangleDiff) Rectangles(baseline *PixelBuffer, target *PixelBuffer) []Rectangle {
	size := unionSize(baseline, target)
	width, height := size.X, size.Y

	diffMap := make([][]bool, height)
	visited := make([][]bool, height)
	for y := range diffMap {
		diffMap[y] = make([]bool, width)
		visited[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			diffMap[y][x] = baseline.At(x, y) != target.At(x, y)
		}
	}

	var rectangles []Rectangle
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			if diffMap[y][x] && !visited[y][x] {
				rectangles = append(rectangles, r.findBoundingBox(diffMap, visited, x, y, width, height))
			}
		}
	}

	return r.mergeRectangles(rectangles)
}

func (r *RectangleDiff) findBoundingBox(diffMap [][]bool, visited [][]bool, startX int, startY int, width int, height int) Rectangle {
	minX, minY := startX, startY
	maxX, maxY := startX, startY

	queue := []image.Point{{X: startX, Y: startY}}
	visited[startY][startX] = true

	for len(queue) > 0 {
		point := queue[0]
		queue = queue[1:]

		minX = min(minX, point.X)
		maxX = max(maxX, point.X)
		minY = min(minY, point.Y)
		maxY = max(maxY, point.Y)

		// Check 8 neighbors
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}

				nx := point.X + dx
				ny := point.Y + dy
				if nx >= 0 && nx < width && ny >= 0 && ny < height &&
					diffMap[ny][nx] && !visited[ny][nx] {
					visited[ny][nx] = true
					queue = append(queue, image.Point{X: nx, Y: ny})
				}
			}
		}
	}

	return Rectangle{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX + 1,
		Height: maxY - minY + 1,
	}
}

func (r *RectangleDiff) mergeRectangles(rects []Rectangle) []Rectangle {
	if len(rects) <= 1 {
		return rects
	}

	merged := make([]Rectangle, 0)
	used := make([]bool, len(rects))

	for i := 0; i < len(rects); i++ {
		if used[i] {
			continue
		}

		current := rects[i]
		mergedAny := true

		for mergedAny {
			mergedAny = false
			for j := i + 1; j < len(rects); j++ {
				if used[j] {
					continue
				}

				if r.rectanglesClose(current, rects[j], r.mergeDistance) {
					current = r.combineRectangles(current, rects[j])
					used[j] = true
					mergedAny = true
				}
			}
		}

		merged = append(merged, current)
	}

	return merged
}

func (r *RectangleDiff) rectanglesClose(r1 Rectangle, r2 Rectangle, distance int) bool {
	return !(r1.X+r1.Width+distance <= r2.X || r2.X+r2.Width+distance <= r1.X ||
		r1.Y+r1.Height+distance <= r2.Y || r2.Y+r2.Height+distance <= r1.Y)
}

func (r *RectangleDiff) combineRectangles(r1 Rectangle, r2 Rectangle) Rectangle {
	minX := min(r1.X, r2.X)
	minY := min(r1.Y, r2.Y)
	maxX := max(r1.X+r1.Width, r2.X+r2.Width)
	maxY := max(r1.Y+r1.Height, r2.Y+r2.Height)

	return Rectangle{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}
