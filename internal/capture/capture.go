package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	diffimage "glyph-snapshot/internal/diff/image"
	"glyph-snapshot/internal/glyph"
)

// Sample is a piece of text drawn with its baseline starting at Origin.
type Sample struct {
	Text   string
	Origin image.Point
}

type Scene struct {
	Size       image.Point
	Background color.Color
	Foreground color.Color
	Font       *glyph.Font
	FontSize   float64
	Samples    []Sample
}

func (s Scene) Validate() error {
	if s.Size.X <= 0 || s.Size.Y <= 0 {
		return fmt.Errorf("invalid scene size %v", s.Size)
	}
	if s.Font == nil {
		return errors.New("scene font not specified")
	}
	if s.FontSize <= 0 {
		return fmt.Errorf("invalid font size %v", s.FontSize)
	}
	return nil
}

// Capturer opens renderable surfaces.
type Capturer interface {
	Open(ctx context.Context, scene Scene) (Surface, error)
}

// Surface is a drawn scene whose pixels can be read back once Ready fires.
type Surface interface {
	Ready() <-chan struct{}
	Render(ctx context.Context, region image.Rectangle) (*diffimage.PixelBuffer, error)
	Close() error
}

var ErrCaptureTimeout = errors.New("surface did not become ready in time")

type CaptureError struct {
	Op     string
	Region image.Rectangle
	Err    error
}

func (e *CaptureError) Error() string {
	if e.Region.Empty() {
		return fmt.Sprintf("capture %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("capture %s %v: %v", e.Op, e.Region, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// WaitReady blocks until s is ready, ctx is done, or timeout elapses. A
// non-positive timeout waits on ctx alone.
func WaitReady(ctx context.Context, s Surface, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, timeout, ErrCaptureTimeout)
		defer cancel()
	}

	select {
	case <-s.Ready():
		return nil
	case <-ctx.Done():
		if cause := context.Cause(ctx); errors.Is(cause, ErrCaptureTimeout) {
			return fmt.Errorf("waited %s: %w", timeout, ErrCaptureTimeout)
		}
		return ctx.Err()
	}
}
