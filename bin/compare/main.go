package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log"
	"os"
	"strconv"
	"time"

	diffimage "glyph-snapshot/internal/diff/image"
	"glyph-snapshot/internal/storage"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type CompareOutput struct {
	Outcome      string      `json:"outcome"`
	X            *int        `json:"x,omitempty"`
	Y            *int        `json:"y,omitempty"`
	BaselineSize image.Point `json:"baselineSize"`
	TargetSize   image.Point `json:"targetSize"`
	DiffPath     string      `json:"diffPath,omitempty"`
	DiffAmount   float64     `json:"diffAmount"`
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
	}

	return defaultValue
}

func main() {
	var directory string
	var format string
	var storageBackend string
	var bucket string
	var threshold float64
	flag.StringVar(&directory, "directory", envOrDefaultValue("DIRECTORY", "/tmp"), "Output directory")
	flag.StringVar(&format, "format", envOrDefaultValue("FORMAT", "pixel"), "Diff image format (pixel, rectangle or none)")
	flag.StringVar(&storageBackend, "storage-backend", envOrDefaultValue("STORAGE_BACKEND", "file"), "Storage backend (file or s3)")
	flag.StringVar(&bucket, "bucket", envOrDefaultValue("S3_BUCKET", ""), "S3 bucket")
	flag.Float64Var(&threshold, "threshold", envOrDefaultValue("THRESHOLD", 0.1), "Brightness threshold for the pixel diff image")

	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		log.Fatalf("baseline, target not specified")
	}
	baselinePath := args[0]
	targetPath := args[1]

	baseline, err := loadScreenshot(baselinePath)
	if err != nil {
		log.Fatalf("Failed to load baseline image: %v", err)
	}
	target, err := loadScreenshot(targetPath)
	if err != nil {
		log.Fatalf("Failed to load target image: %v", err)
	}

	result := diffimage.Compare(baseline, target)
	output := newCompareOutput(result)

	if result.Outcome != diffimage.Equal && format != "none" {
		var differ diffimage.Differ
		switch format {
		case "pixel":
			differ = diffimage.NewPixelDiff(threshold)
		case "rectangle":
			differ = diffimage.NewRectangleDiff()
		default:
			log.Fatalf("Unknown diff type: %s", format)
		}
		diffResult := differ.Calculate(baseline, target)

		ctx := context.Background()
		var s storage.Storage
		switch storageBackend {
		case "file":
			s, err = storage.NewFileStorage(ctx, storage.FileConfig{
				Directory: directory,
			})
		case "s3":
			s, err = storage.NewS3Storage(ctx, storage.S3Config{
				Bucket:      bucket,
				EndpointURL: os.Getenv("S3_ENDPOINT_URL"),
			})
		default:
			log.Fatalf("Unknown storage backend: %s", storageBackend)
		}
		if err != nil {
			log.Fatalf("Failed to create storage backend: %v", err)
		}

		var buffer bytes.Buffer
		if err := png.Encode(&buffer, diffResult.Image); err != nil {
			log.Fatalf("Failed to encode diff image: %v", err)
		}

		h := sha256.New()
		h.Write([]byte(baselinePath + targetPath))
		hash := fmt.Sprintf("%x", h.Sum(nil))[:16]
		key := fmt.Sprintf("diff/%s/%s.png", hash, time.Now().Format("20060102150405"))

		output.DiffPath, err = s.Put(ctx, key, buffer.Bytes())
		if err != nil {
			log.Fatalf("Failed to save diff image: %v", err)
		}
		output.DiffAmount = diffResult.DiffAmount
	}

	if err := json.NewEncoder(os.Stdout).Encode(output); err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}

	if result.Outcome != diffimage.Equal {
		os.Exit(1)
	}
}

// newCompareOutput carries the first differing coordinate only for Unequal,
// where (0, 0) is a real position.
func newCompareOutput(result diffimage.ComparisonResult) CompareOutput {
	output := CompareOutput{
		Outcome:      result.Outcome.String(),
		BaselineSize: result.BaselineSize,
		TargetSize:   result.TargetSize,
	}
	if result.Outcome == diffimage.Unequal {
		x, y := result.X, result.Y
		output.X = &x
		output.Y = &y
	}
	return output
}

func loadScreenshot(path string) (*diffimage.PixelBuffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}

	return diffimage.PixelBufferFromImage(img), nil
}
