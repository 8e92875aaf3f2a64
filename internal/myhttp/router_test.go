package myhttp

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRouter_HandleFuncWithMiddleware(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	histogram, err := meter.Int64Histogram("http_requests_duration_micro_seconds")
	if err != nil {
		t.Fatalf("Int64Histogram: %v", err)
	}

	mux := NewServerMux(slog.New(slog.NewTextHandler(io.Discard, nil)), histogram)
	mux.HandleFuncWithMiddleware("POST /compare", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFuncWithMiddleware("GET /panic", func(w http.ResponseWriter, r *http.Request) {
		panic(context.DeadlineExceeded)
	})

	tests := []struct {
		method string
		target string
		want   int
	}{
		{http.MethodPost, "/compare", http.StatusAccepted},
		{http.MethodGet, "/panic", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
		if diff := cmp.Diff(tt.want, rec.Code); diff != "" {
			t.Errorf("%s %s (-want +got):\n%s", tt.method, tt.target, diff)
		}
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	got := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "http_requests_duration_micro_seconds" {
				continue
			}
			data, ok := m.Data.(metricdata.Histogram[int64])
			if !ok {
				t.Fatalf("Expected an int64 histogram, got %T", m.Data)
			}
			for _, dp := range data.DataPoints {
				handler, _ := dp.Attributes.Value(attribute.Key("handler"))
				code, _ := dp.Attributes.Value(attribute.Key("code"))
				got[handler.AsString()+" "+code.Emit()] += int64(dp.Count)
			}
		}
	}

	want := map[string]int64{
		"POST /compare 202": 1,
		"GET /panic 500":    1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
