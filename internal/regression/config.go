// Package regression checks that an unrecognised variation sequence renders
// exactly like its base character.
package regression

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"glyph-snapshot/internal/capture"
	"glyph-snapshot/internal/glyph"
)

type Config struct {
	Font     *glyph.Font
	FontSize float64

	// Base is drawn at Points[0] and Sequence at Points[1]. Points are
	// baseline origins on the surface.
	Base     string
	Sequence string
	Points   [2]image.Point

	// Each captured region is RegionSize large with its top-left corner at
	// point + RegionOffset.
	RegionSize   image.Point
	RegionOffset image.Point
	CanvasSize   image.Point

	ReadyTimeout time.Duration

	// Empty keys are not persisted.
	ScreenshotKeys [2]string
	DiffKey        string

	Logger *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		Font:         glyph.Default(),
		FontSize:     12,
		Base:         "a",
		Sequence:     "a\ufe00",
		Points:       [2]image.Point{{X: 80, Y: 50}, {X: 80, Y: 100}},
		RegionSize:   image.Pt(20, 50),
		RegionOffset: image.Pt(0, -38),
		CanvasSize:   image.Pt(200, 200),
		ReadyTimeout: 10 * time.Second,
	}
}

func (c Config) Validate() error {
	if c.Font == nil {
		return errors.New("font not specified")
	}
	if c.FontSize <= 0 {
		return fmt.Errorf("invalid font size %v", c.FontSize)
	}
	if c.RegionSize.X < 0 || c.RegionSize.Y < 0 {
		return fmt.Errorf("invalid region size %v", c.RegionSize)
	}
	canvas := image.Rectangle{Max: c.CanvasSize}
	if canvas.Empty() {
		return fmt.Errorf("invalid canvas size %v", c.CanvasSize)
	}
	for i, r := range c.Regions() {
		if !r.In(canvas) {
			return fmt.Errorf("region %d %v outside canvas %v", i, r, canvas)
		}
	}
	return nil
}

func (c Config) Regions() [2]image.Rectangle {
	var regions [2]image.Rectangle
	for i, p := range c.Points {
		corner := p.Add(c.RegionOffset)
		regions[i] = image.Rectangle{Min: corner, Max: corner.Add(c.RegionSize)}
	}
	return regions
}

func (c Config) Scene() capture.Scene {
	return capture.Scene{
		Size:     c.CanvasSize,
		Font:     c.Font,
		FontSize: c.FontSize,
		Samples: []capture.Sample{
			{Text: c.Base, Origin: c.Points[0]},
			{Text: c.Sequence, Origin: c.Points[1]},
		},
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
