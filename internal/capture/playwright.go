package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"time"

	diffimage "glyph-snapshot/internal/diff/image"

	"github.com/playwright-community/playwright-go"
)

type PlaywrightConfig struct {
	Timeout time.Duration
	Delay   time.Duration

	Headless                  bool
	ChromeDevtoolsProtocolURL string
}

func DefaultPlaywrightConfig() PlaywrightConfig {
	return PlaywrightConfig{
		Timeout:  30 * time.Second,
		Delay:    100 * time.Millisecond,
		Headless: true,
	}
}

type playwrightCapturer struct {
	config PlaywrightConfig
}

// NewPlaywrightCapturer returns a capturer that lets Chromium draw the scene
// on a 2D canvas, so the browser's own shaping is under test.
// The playwright driver is started per surface in Open, so construction
// never fails.
func NewPlaywrightCapturer(p PlaywrightConfig) Capturer {
	return &playwrightCapturer{
		config: p,
	}
}

// paintScript loads the font through the FontFace API and fills each
// sample at its baseline origin. The returned promise resolves once the
// font is usable and everything is painted.
const paintScript = `async (scene) => {
	const face = new FontFace(scene.family, "url(data:font/ttf;base64," + scene.font + ")");
	await face.load();
	document.fonts.add(face);
	await document.fonts.ready;

	const canvas = document.getElementById("surface");
	const ctx = canvas.getContext("2d");
	ctx.fillStyle = scene.background;
	ctx.fillRect(0, 0, canvas.width, canvas.height);
	ctx.fillStyle = scene.foreground;
	ctx.textBaseline = "alphabetic";
	ctx.font = scene.size + "px \"" + scene.family + "\"";
	for (const sample of scene.samples) {
		ctx.fillText(sample.text, sample.x, sample.y);
	}
	await new Promise((resolve) => requestAnimationFrame(() => resolve()));
	return true;
}`

func (c *playwrightCapturer) Open(ctx context.Context, scene Scene) (Surface, error) {
	if err := scene.Validate(); err != nil {
		return nil, &CaptureError{Op: "open", Err: err}
	}

	p, err := playwright.Run()
	if err != nil {
		return nil, &CaptureError{Op: "open", Err: fmt.Errorf("failed to start playwright: %w", err)}
	}

	s := &playwrightSurface{
		playwright: p,
		ready:      NewReady(),
		closed:     make(chan struct{}),
		size:       scene.Size,
		timeout:    c.config.Timeout,
	}

	if c.config.ChromeDevtoolsProtocolURL == "" {
		s.browser, err = p.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(c.config.Headless),
		})
		if err != nil {
			_ = s.Close()
			return nil, &CaptureError{Op: "open", Err: fmt.Errorf("failed to launch browser: %w", err)}
		}
		s.ownsBrowser = true
	} else {
		s.browser, err = p.Chromium.ConnectOverCDP(c.config.ChromeDevtoolsProtocolURL)
		if err != nil {
			_ = s.Close()
			return nil, &CaptureError{Op: "open", Err: fmt.Errorf("failed to connect to browser via CDP at %s: %w", c.config.ChromeDevtoolsProtocolURL, err)}
		}
	}

	s.page, err = s.browser.NewPage(playwright.BrowserNewPageOptions{
		Viewport: &playwright.Size{
			Width:  scene.Size.X,
			Height: scene.Size.Y,
		},
		DeviceScaleFactor: playwright.Float(1),
	})
	if err != nil {
		_ = s.Close()
		return nil, &CaptureError{Op: "open", Err: fmt.Errorf("failed to create new page: %w", err)}
	}
	s.page.SetDefaultTimeout(float64(c.config.Timeout.Milliseconds()))

	html := fmt.Sprintf(`<!DOCTYPE html><html><head><style>html, body { margin: 0; padding: 0; overflow: hidden; } canvas { display: block; }</style></head><body><canvas id="surface" width="%d" height="%d"></canvas></body></html>`, scene.Size.X, scene.Size.Y)
	if err := s.page.SetContent(html); err != nil {
		_ = s.Close()
		return nil, &CaptureError{Op: "open", Err: fmt.Errorf("failed to set page content: %w", err)}
	}

	go s.paint(ctx, scene, c.config.Delay)

	return s, nil
}

type playwrightSurface struct {
	playwright  *playwright.Playwright
	browser     playwright.Browser
	ownsBrowser bool
	page        playwright.Page

	ready   *Ready
	err     error
	size    image.Point
	timeout time.Duration

	closeOnce sync.Once
	closeErr  error
	closed    chan struct{}
}

func (s *playwrightSurface) paint(ctx context.Context, scene Scene, delay time.Duration) {
	defer s.ready.Signal()

	bg := scene.Background
	if bg == nil {
		bg = color.White
	}
	fg := scene.Foreground
	if fg == nil {
		fg = color.Black
	}

	samples := make([]map[string]any, 0, len(scene.Samples))
	for _, sample := range scene.Samples {
		samples = append(samples, map[string]any{
			"text": sample.Text,
			"x":    sample.Origin.X,
			"y":    sample.Origin.Y,
		})
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			s.page.Close()
		case <-done:
		}
	}()
	defer close(done)

	if _, err := s.page.Evaluate(paintScript, map[string]any{
		"family":     "glyph-under-test",
		"font":       base64.StdEncoding.EncodeToString(scene.Font.Data()),
		"size":       scene.FontSize,
		"background": cssColor(bg),
		"foreground": cssColor(fg),
		"samples":    samples,
	}); err != nil {
		s.err = fmt.Errorf("failed to paint scene: %w", err)
		return
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
		case <-s.closed:
		}
	}
}

func (s *playwrightSurface) Ready() <-chan struct{} {
	return s.ready.Done()
}

func (s *playwrightSurface) Render(ctx context.Context, region image.Rectangle) (*diffimage.PixelBuffer, error) {
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
	if !region.In(image.Rectangle{Max: s.size}) {
		return nil, &CaptureError{Op: "render", Region: region, Err: fmt.Errorf("region outside surface %v", image.Rectangle{Max: s.size})}
	}
	if region.Empty() {
		return diffimage.NewPixelBuffer(0, 0, 0), nil
	}

	screenshot, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Type: playwright.ScreenshotTypePng,
		Clip: &playwright.Rect{
			X:      float64(region.Min.X),
			Y:      float64(region.Min.Y),
			Width:  float64(region.Dx()),
			Height: float64(region.Dy()),
		},
		Timeout: playwright.Float(float64(s.timeout.Milliseconds())),
	})
	if err != nil {
		return nil, &CaptureError{Op: "render", Region: region, Err: fmt.Errorf("failed to take screenshot: %w", err)}
	}

	img, err := png.Decode(bytes.NewReader(screenshot))
	if err != nil {
		return nil, &CaptureError{Op: "render", Region: region, Err: fmt.Errorf("failed to decode screenshot: %w", err)}
	}

	return diffimage.PixelBufferFromImage(img), nil
}

func (s *playwrightSurface) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)

		if s.page != nil {
			_ = s.page.Close()
		}
		if s.browser != nil && s.ownsBrowser {
			if err := s.browser.Close(); err != nil {
				s.closeErr = fmt.Errorf("failed to close browser: %w", err)
			}
		}
		if err := s.playwright.Stop(); err != nil && s.closeErr == nil {
			s.closeErr = fmt.Errorf("failed to stop playwright: %w", err)
		}
	})
	return s.closeErr
}

func cssColor(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("rgba(%d, %d, %d, %.4f)", n.R, n.G, n.B, float64(n.A)/255)
}
