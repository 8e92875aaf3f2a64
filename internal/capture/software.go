package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"

	diffimage "glyph-snapshot/internal/diff/image"
)

type SoftwareConfig struct {
	// Delay is how long the surface settles after painting before it
	// reports ready.
	Delay time.Duration
}

func DefaultSoftwareConfig() SoftwareConfig {
	return SoftwareConfig{
		Delay: 100 * time.Millisecond,
	}
}

var ErrSurfaceClosed = errors.New("surface closed")

type softwareCapturer struct {
	config SoftwareConfig
}

// NewSoftwareCapturer returns a capturer that paints scenes into memory with
// the glyph package.
func NewSoftwareCapturer(s SoftwareConfig) Capturer {
	return &softwareCapturer{
		config: s,
	}
}

func (c *softwareCapturer) Open(ctx context.Context, scene Scene) (Surface, error) {
	if err := scene.Validate(); err != nil {
		return nil, &CaptureError{Op: "open", Err: err}
	}

	s := &softwareSurface{
		canvas: image.NewRGBA(image.Rect(0, 0, scene.Size.X, scene.Size.Y)),
		ready:  NewReady(),
		closed: make(chan struct{}),
	}
	go s.paint(scene, c.config.Delay)

	return s, nil
}

type softwareSurface struct {
	canvas *image.RGBA
	ready  *Ready
	err    error

	closeOnce sync.Once
	closed    chan struct{}
}

func (s *softwareSurface) paint(scene Scene, delay time.Duration) {
	defer s.ready.Signal()

	bg := scene.Background
	if bg == nil {
		bg = color.White
	}
	fg := scene.Foreground
	if fg == nil {
		fg = color.Black
	}

	draw.Draw(s.canvas, s.canvas.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)
	for _, sample := range scene.Samples {
		if err := scene.Font.Draw(s.canvas, sample.Origin, sample.Text, scene.FontSize, &image.Uniform{C: fg}); err != nil {
			s.err = fmt.Errorf("failed to draw %q: %w", sample.Text, err)
			return
		}
	}

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-s.closed:
		}
	}
}

func (s *softwareSurface) Ready() <-chan struct{} {
	return s.ready.Done()
}

func (s *softwareSurface) Render(ctx context.Context, region image.Rectangle) (*diffimage.PixelBuffer, error) {
	select {
	case <-s.closed:
		return nil, &CaptureError{Op: "render", Region: region, Err: ErrSurfaceClosed}
	default:
	}

	select {
	case <-s.ready.Done():
	case <-ctx.Done():
		return nil, &CaptureError{Op: "render", Region: region, Err: ctx.Err()}
	}

	if s.err != nil {
		return nil, &CaptureError{Op: "paint", Err: s.err}
	}
	if !region.In(s.canvas.Bounds()) {
		return nil, &CaptureError{Op: "render", Region: region, Err: fmt.Errorf("region outside surface %v", s.canvas.Bounds())}
	}

	return diffimage.PixelBufferFromImage(s.canvas.SubImage(region)), nil
}

func (s *softwareSurface) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
	return nil
}
