package metrics_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gui-xie/import-export/internal/metrics"
	"github.com/gui-xie/import-export/pkg/imexport"
	"github.com/gui-xie/import-export/pkg/imexport/codec"
)

func findFamily(t *testing.T, reg *prometheus.Registry, name string) int {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	for _, f := range families {
		if f.GetName() == name {
			return len(f.GetMetric())
		}
	}
	t.Fatalf("%s metric not found", name)
	return 0
}

func TestOperationDone(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.OperationDone(imexport.OpExport, 10*time.Millisecond, nil)
	m.OperationDone(imexport.OpImport, 5*time.Millisecond, &codec.DecodeError{Err: errors.New("bad zip")})

	if n := findFamily(t, reg, "imexport_operations_total"); n != 2 {
		t.Errorf("Expected 2 metric series, got %d", n)
	}
	if n := findFamily(t, reg, "imexport_operation_duration_seconds"); n != 2 {
		t.Errorf("Expected 2 metric series, got %d", n)
	}
}

func TestRowsAndWarnings(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.RowsProcessed(imexport.OpImport, 3)
	m.CoercionWarnings(2)
	m.CodecInitialized(time.Millisecond, nil)
	m.Definitions.Set(4)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	values := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				values[f.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[f.GetName()] += metric.GetGauge().GetValue()
			}
		}
	}

	tests := []struct {
		name string
		want float64
	}{
		{"imexport_rows_total", 3},
		{"imexport_coercion_warnings_total", 2},
		{"imexport_codec_initializations_total", 1},
		{"imexport_definitions", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if values[tt.name] != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, values[tt.name])
			}
		})
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "ok"},
		{"canceled", fmt.Errorf("wait: %w", context.Canceled), "canceled"},
		{"init", imexport.NewOperationError(imexport.OpTemplate, "t", &codec.InitError{Stage: "decode", Err: errors.New("x")}), "init_error"},
		{"decode", imexport.NewOperationError(imexport.OpImport, "t", &codec.DecodeError{Err: errors.New("x")}), "decode_error"},
		{"empty", imexport.NewOperationError(imexport.OpImport, "t", imexport.ErrEmptyBuffer), "invalid"},
		{"other", errors.New("boom"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := metrics.Status(tt.err); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.CoercionWarnings(1)

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "imexport_coercion_warnings_total 1") {
		t.Errorf("Expected coercion counter in output, got:\n%s", body)
	}
}
