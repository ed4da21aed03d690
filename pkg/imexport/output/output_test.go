package output

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/gui-xie/import-export/pkg/imexport/models"
)

func TestEncodeJSONNaN(t *testing.T) {
	records := []models.Record{
		{"id": 1.0, "qty": math.NaN(), "name": "a"},
	}

	b, err := Encode(records, FormatJSON, false)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got[0]["qty"] != nil {
		t.Errorf("Expected null qty, got %v", got[0]["qty"])
	}
	if got[0]["id"] != 1.0 {
		t.Errorf("Expected 1, got %v", got[0]["id"])
	}
}

func TestEncodeJSONNestedGroup(t *testing.T) {
	records := []models.Record{{
		"order": models.Group{
			Value:    "o1",
			Children: []models.Record{{"qty": math.Inf(1)}},
		},
	}}

	b, err := Encode(records, FormatJSON, true)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.Contains(string(b), `"qty": null`) {
		t.Errorf("Expected null qty in %s", b)
	}
	if !strings.Contains(string(b), `"value": "o1"`) {
		t.Errorf("Expected group value in %s", b)
	}
}

func TestEncodeNilRecords(t *testing.T) {
	b, err := Encode(nil, FormatJSON, false)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if strings.TrimSpace(string(b)) != "[]" {
		t.Errorf("Expected [], got %s", b)
	}
}

func TestRoundTrip(t *testing.T) {
	records := []models.Record{
		{"id": "1", "name": "alpha"},
		{"id": "2", "name": "beta"},
	}

	for _, format := range []Format{FormatJSON, FormatYAML, FormatCBOR} {
		t.Run(string(format), func(t *testing.T) {
			b, err := Encode(records, format, false)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			got, err := Decode(b, format)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("Expected 2 records, got %d", len(got))
			}
			if got[1]["name"] != "beta" {
				t.Errorf("Expected 'beta', got %v", got[1]["name"])
			}
		})
	}
}

func TestDecodeJSONKeepsNumbers(t *testing.T) {
	got, err := Decode([]byte(`[
		// comment
		{"id": 12345678901234567890,},
	]`), FormatJSON)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	n, ok := got[0]["id"].(json.Number)
	if !ok {
		t.Fatalf("Expected json.Number, got %T", got[0]["id"])
	}
	if n.String() != "12345678901234567890" {
		t.Errorf("Expected literal number, got %s", n)
	}
}

func TestCBORNestedMaps(t *testing.T) {
	records := []models.Record{{
		"order": map[string]any{"value": "o1", "children": []any{map[string]any{"item": "x"}}},
	}}
	b, err := Encode(records, FormatCBOR, false)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := Decode(b, FormatCBOR)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if _, ok := got[0]["order"].(map[string]any); !ok {
		t.Errorf("Expected map[string]any, got %T", got[0]["order"])
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  bool
	}{
		{"json", FormatJSON, false},
		{"YAML", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"cbor", FormatCBOR, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.err {
				if !errors.Is(err, ErrUnknownFormat) {
					t.Errorf("Expected ErrUnknownFormat, got %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}

	if f, err := FormatFromPath("out/records.yml"); err != nil || f != FormatYAML {
		t.Errorf("Expected yaml, got %q (%v)", f, err)
	}
	if FormatCBOR.ContentType() != "application/cbor" {
		t.Errorf("Expected application/cbor, got %s", FormatCBOR.ContentType())
	}
}

func TestDecodeUnknownFormat(t *testing.T) {
	if _, err := Decode([]byte("[]"), Format("xml")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat, got %v", err)
	}
}
