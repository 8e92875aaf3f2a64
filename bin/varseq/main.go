package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"glyph-snapshot/internal/capture"
	diffimage "glyph-snapshot/internal/diff/image"
	"glyph-snapshot/internal/glyph"
	"glyph-snapshot/internal/regression"
	"glyph-snapshot/internal/storage"
)

type Output struct {
	Outcome     string   `json:"outcome"`
	X           *int     `json:"x,omitempty"`
	Y           *int     `json:"y,omitempty"`
	Screenshots []string `json:"screenshots,omitempty"`
	DiffPath    string   `json:"diffPath,omitempty"`
	DiffAmount  float64  `json:"diffAmount"`
	Error       string   `json:"error,omitempty"`
}

func envOrDefaultValue[T any](key string, defaultValue T) T {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	switch any(defaultValue).(type) {
	case string:
		return any(value).(T)
	case int:
		if intValue, err := strconv.Atoi(value); err == nil {
			return any(intValue).(T)
		}
	case float64:
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return any(floatValue).(T)
		}
	case bool:
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return any(boolValue).(T)
		}
	case time.Duration:
		if durationValue, err := time.ParseDuration(value); err == nil {
			return any(durationValue).(T)
		}
	}

	return defaultValue
}

func newLogger(debug bool) (*slog.Logger, error) {
	logLevel := slog.LevelInfo
	if v, ok := os.LookupEnv("GO_LOG"); ok {
		if err := logLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, err
		}
	}
	handlerOpts := &slog.HandlerOptions{
		Level: logLevel,
		// https://opentelemetry.io/docs/specs/otel/logs/data-model/
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.LevelKey:
				a.Key = "severitytext"
			case slog.MessageKey:
				a.Key = "body"
			}
			return a
		},
	}
	if debug {
		return slog.New(slog.NewTextHandler(os.Stderr, handlerOpts)), nil
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, handlerOpts)), nil
}

func main() {
	var engine string
	var fontRef string
	var fontSize float64
	var readyTimeout time.Duration
	var delay time.Duration
	var storageBackend string
	var directory string
	var bucket string
	var diffKey string
	var chromeDevtoolsProtocolURL string
	var debug bool
	flag.StringVar(&engine, "engine", envOrDefaultValue("ENGINE", "software"), "Rendering engine under test (software or playwright)")
	flag.StringVar(&fontRef, "font", envOrDefaultValue("FONT", ""), "Font file path or name; empty uses the embedded Go Regular font")
	flag.Float64Var(&fontSize, "font-size", envOrDefaultValue("FONT_SIZE", 12.0), "Font size in pixels")
	flag.DurationVar(&readyTimeout, "ready-timeout", envOrDefaultValue("READY_TIMEOUT", 10*time.Second), "How long to wait for the surface to become ready")
	flag.DurationVar(&delay, "delay", envOrDefaultValue("DELAY", 100*time.Millisecond), "Settle delay after painting")
	flag.StringVar(&storageBackend, "storage-backend", envOrDefaultValue("STORAGE_BACKEND", "file"), "Storage backend (file or s3)")
	flag.StringVar(&directory, "directory", envOrDefaultValue("DIRECTORY", "."), "Output directory for relative screenshot paths")
	flag.StringVar(&bucket, "bucket", envOrDefaultValue("S3_BUCKET", ""), "S3 bucket")
	flag.StringVar(&diffKey, "diff", envOrDefaultValue("DIFF", ""), "Where to save a diff image when the screenshots differ")
	flag.StringVar(&chromeDevtoolsProtocolURL, "chrome-devtools-protocol-url", envOrDefaultValue("CHROME_DEVTOOLS_PROTOCOL_URL", ""), "Connect to existing browser via Chrome DevTools Protocol URL (e.g., http://localhost:9222)")
	flag.BoolVar(&debug, "debug", envOrDefaultValue("DEBUG", false), "Human readable logs")

	flag.Parse()

	logger, err := newLogger(debug)
	if err != nil {
		log.Fatalf("Failed to parse log level: %v", err)
	}

	screenshotKeys, err := parseScreenshotKeys(flag.Args())
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	ctx := context.Background()

	font, err := glyph.Open(fontRef)
	if err != nil {
		log.Fatalf("Failed to load font: %v", err)
	}

	var capturer capture.Capturer
	switch engine {
	case "software":
		config := capture.DefaultSoftwareConfig()
		config.Delay = delay
		capturer = capture.NewSoftwareCapturer(config)
	case "playwright":
		config := capture.DefaultPlaywrightConfig()
		config.Delay = delay
		if chromeDevtoolsProtocolURL != "" {
			config.ChromeDevtoolsProtocolURL = chromeDevtoolsProtocolURL
		}
		if display := os.Getenv("DISPLAY"); display != "" {
			config.Headless = false
		}
		capturer = capture.NewPlaywrightCapturer(config)
	default:
		log.Fatalf("Unknown engine: %s", engine)
	}

	var s storage.Storage
	switch storageBackend {
	case "file":
		s, err = storage.NewFileStorage(ctx, storage.FileConfig{
			Directory: directory,
		})
		if err != nil {
			log.Fatalf("Failed to create file storage backend: %v", err)
		}
	case "s3":
		s, err = storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:      bucket,
			EndpointURL: os.Getenv("S3_ENDPOINT_URL"),
		})
		if err != nil {
			log.Fatalf("Failed to create S3 storage backend: %v", err)
		}
	default:
		log.Fatalf("Unknown storage backend: %s", storageBackend)
	}

	config := regression.DefaultConfig()
	config.Font = font
	config.FontSize = fontSize
	config.ReadyTimeout = readyTimeout
	config.DiffKey = diffKey
	config.Logger = logger
	config.ScreenshotKeys = screenshotKeys

	logger.Info("Running variation sequence check", "engine", engine, "font", font.Name(), "fontSize", fontSize)
	report, runErr := regression.Run(ctx, capturer, s, config)

	if err := json.NewEncoder(os.Stdout).Encode(newOutput(report, runErr)); err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}

	if code := exitCode(runErr); code != 0 {
		logger.Error(failureMessage(runErr), "error", runErr)
		os.Exit(code)
	}
}

// exitCode is 1 for every failure: unequal or mismatched screenshots as well
// as capture and configuration errors.
func exitCode(runErr error) int {
	if runErr != nil {
		return 1
	}
	return 0
}

// parseScreenshotKeys maps up to two positional arguments onto the
// screenshot keys. Missing arguments leave the key empty.
func parseScreenshotKeys(args []string) ([2]string, error) {
	var keys [2]string
	if len(args) > len(keys) {
		return keys, fmt.Errorf("at most two screenshot paths can be specified, got %d", len(args))
	}
	copy(keys[:], args)
	return keys, nil
}

func newOutput(report *regression.Report, runErr error) Output {
	output := Output{}
	if report != nil {
		output.Outcome = report.Result.Outcome.String()
		if report.Result.Outcome == diffimage.Unequal {
			x, y := report.Result.X, report.Result.Y
			output.X = &x
			output.Y = &y
		}
		output.DiffPath = report.DiffPath
		output.DiffAmount = report.DiffAmount
		for _, path := range report.Screenshots {
			if path != "" {
				output.Screenshots = append(output.Screenshots, path)
			}
		}
	}
	if runErr != nil {
		output.Error = runErr.Error()
		if output.Outcome == "" {
			output.Outcome = "error"
		}
	}
	return output
}

func failureMessage(err error) string {
	var unequal *diffimage.UnequalError
	var mismatch *diffimage.SizeMismatchError
	switch {
	case errors.As(err, &unequal), errors.As(err, &mismatch):
		return "Expected: screenshots must be equal"
	case errors.Is(err, regression.ErrInvalidConfig):
		return "Invalid configuration"
	case errors.Is(err, capture.ErrCaptureTimeout):
		return "Surface never became ready"
	default:
		return "Failed to capture screenshots"
	}
}
