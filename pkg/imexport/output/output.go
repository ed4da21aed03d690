// Package output serializes imported records for consumers outside the
// spreadsheet: JSON, YAML and CBOR.
package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/gui-xie/import-export/pkg/imexport/models"
)

// Format is a record serialization format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCBOR Format = "cbor"
)

// ErrUnknownFormat is returned for format names outside the supported set.
var ErrUnknownFormat = errors.New("unknown record format")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("output: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("output: CBOR decoder initialization failed: " + err.Error())
	}
}

// ParseFormat validates a format name. Matching is case-insensitive and
// "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "cbor":
		return FormatCBOR, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// ContentType returns the media type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatCBOR:
		return "application/cbor"
	default:
		return "application/json"
	}
}

// Encode serializes records. JSON has no NaN, so numbers that failed to
// parse on import are written as null there.
func Encode(records []models.Record, format Format, pretty bool) ([]byte, error) {
	if records == nil {
		records = []models.Record{}
	}
	switch format {
	case FormatJSON:
		clean := make([]any, len(records))
		for i, rec := range records {
			clean[i] = jsonSafe(rec)
		}
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		if pretty {
			enc.SetIndent("", "  ")
		}
		if err := enc.Encode(clean); err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return buf.Bytes(), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatCBOR:
		b, err := encMode.Marshal(records)
		if err != nil {
			return nil, fmt.Errorf("encode cbor: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Decode parses a list of records. JSON input may carry comments and
// trailing commas; numbers keep their literal text.
func Decode(data []byte, format Format) ([]models.Record, error) {
	var raw []map[string]any
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatCBOR:
		if err := decMode.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode cbor: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	records := make([]models.Record, len(raw))
	for i, m := range raw {
		records[i] = m
	}
	return records, nil
}

func jsonSafe(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case float32:
		return jsonSafe(float64(x))
	case models.Record:
		return jsonSafeMap(x)
	case map[string]any:
		return jsonSafeMap(x)
	case []models.Record:
		out := make([]any, len(x))
		for i, r := range x {
			out[i] = jsonSafeMap(r)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = jsonSafe(item)
		}
		return out
	case models.Group:
		return map[string]any{"value": jsonSafe(x.Value), "children": jsonSafe(x.Children)}
	case *models.Group:
		if x == nil {
			return nil
		}
		return jsonSafe(*x)
	default:
		return v
	}
}

func jsonSafeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = jsonSafe(v)
	}
	return out
}
