package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func encodePNG(t *testing.T, width, height int, pixels map[image.Point]color.Color) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	for p, c := range pixels {
		img.Set(p.X, p.Y, c)
	}

	var buffer bytes.Buffer
	if err := png.Encode(&buffer, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buffer.Bytes()
}

func newCompareRequest(t *testing.T, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	for k, v := range files {
		part, err := w.CreateFormFile(k, k+".png")
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := part.Write(v); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/compare", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestServer_handleCompare(t *testing.T) {
	white := encodePNG(t, 4, 4, nil)
	dotted := encodePNG(t, 4, 4, map[image.Point]color.Color{{X: 2, Y: 1}: color.Black})
	tall := encodePNG(t, 4, 5, nil)

	tests := []struct {
		name     string
		fields   map[string]string
		files    map[string][]byte
		status   int
		want     CompareResponse
		wantDiff bool
	}{
		{
			name:   "Equal",
			files:  map[string][]byte{"baseline": white, "target": white},
			status: http.StatusOK,
			want:   CompareResponse{Outcome: "equal", BaselineSize: image.Pt(4, 4), TargetSize: image.Pt(4, 4)},
		},
		{
			name:     "Unequal",
			files:    map[string][]byte{"baseline": white, "target": dotted},
			status:   http.StatusOK,
			want:     CompareResponse{Outcome: "unequal", X: 2, Y: 1, BaselineSize: image.Pt(4, 4), TargetSize: image.Pt(4, 4)},
			wantDiff: true,
		},
		{
			name:   "UnequalWithoutDiff",
			fields: map[string]string{"format": "none"},
			files:  map[string][]byte{"baseline": white, "target": dotted},
			status: http.StatusOK,
			want:   CompareResponse{Outcome: "unequal", X: 2, Y: 1, BaselineSize: image.Pt(4, 4), TargetSize: image.Pt(4, 4)},
		},
		{
			name:     "SizeMismatch",
			fields:   map[string]string{"format": "rectangle"},
			files:    map[string][]byte{"baseline": dotted, "target": tall},
			status:   http.StatusOK,
			want:     CompareResponse{Outcome: "size-mismatch", BaselineSize: image.Pt(4, 4), TargetSize: image.Pt(4, 5)},
			wantDiff: true,
		},
		{
			name:   "MissingTarget",
			files:  map[string][]byte{"baseline": white},
			status: http.StatusBadRequest,
		},
		{
			name:   "NotAnImage",
			files:  map[string][]byte{"baseline": white, "target": []byte("not an image")},
			status: http.StatusBadRequest,
		},
		{
			name:   "UnknownFormat",
			fields: map[string]string{"format": "line"},
			files:  map[string][]byte{"baseline": white, "target": white},
			status: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Server{}
			rec := httptest.NewRecorder()
			s.handleCompare(rec, newCompareRequest(t, tt.fields, tt.files))

			if diff := cmp.Diff(tt.status, rec.Code); diff != "" {
				t.Fatalf("status (-want +got):\n%s", diff)
			}
			if tt.status != http.StatusOK {
				return
			}

			var got CompareResponse
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if diff := cmp.Diff(tt.want, got, cmpopts.IgnoreFields(CompareResponse{}, "DiffData", "DiffAmount")); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantDiff, got.DiffData != ""); diff != "" {
				t.Errorf("diffData present (-want +got):\n%s", diff)
			}
			if tt.wantDiff && got.DiffAmount <= 0 {
				t.Errorf("Expected a positive diffAmount, got %f", got.DiffAmount)
			}
		})
	}
}
