// Package definition reads table definitions from JSONC and YAML files and
// keeps a named registry of them.
package definition

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/gui-xie/import-export/pkg/imexport/models"
)

// Format is the encoding of a definition file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnsupportedFormat is returned for files whose extension is not a
// known definition format.
var ErrUnsupportedFormat = errors.New("unsupported definition format")

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Parse decodes a definition. JSON input may carry // and /* */ comments
// and trailing commas.
func Parse(data []byte, format Format) (*models.TableDefinition, error) {
	var def models.TableDefinition
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(jsonc.ToJSON(data), &def); err != nil {
			return nil, fmt.Errorf("parsing definition: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("parsing definition: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if def.Name == "" {
		return nil, errors.New("parsing definition: name is required")
	}
	if len(def.Columns) == 0 {
		return nil, fmt.Errorf("parsing definition %q: at least one column is required", def.Name)
	}
	return &def, nil
}

// Marshal encodes def in the given format.
func Marshal(def *models.TableDefinition, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		b, err := json.MarshalIndent(def, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(def); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ReadFile reads and parses a definition file.
func ReadFile(path string) (*models.TableDefinition, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	def, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// NameFromPath strips the directory and extension from path. For example,
// "defs/orders.yaml" returns "orders".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Clone returns a deep copy of def's data fields. Callbacks are shared.
func Clone(def *models.TableDefinition) *models.TableDefinition {
	if def == nil {
		return nil
	}
	out := *def
	if def.CreateTime != nil {
		ct := *def.CreateTime
		out.CreateTime = &ct
	}
	out.TitleFormat = cloneRule(def.TitleFormat)
	out.Columns = make([]models.ColumnDefinition, len(def.Columns))
	for i, col := range def.Columns {
		c := col
		c.AllowedValues = append([]string(nil), col.AllowedValues...)
		c.Format = cloneRule(col.Format)
		if col.ValueFormat != nil {
			c.ValueFormat = make(models.FormatRules, len(col.ValueFormat))
			for j, r := range col.ValueFormat {
				c.ValueFormat[j] = *cloneRule(&r)
			}
		}
		out.Columns[i] = c
	}
	return &out
}

func cloneRule(r *models.CellFormatRule) *models.CellFormatRule {
	if r == nil {
		return nil
	}
	out := *r
	out.Bold = cloneBool(r.Bold)
	out.Italic = cloneBool(r.Italic)
	out.Underline = cloneBool(r.Underline)
	out.Strikethrough = cloneBool(r.Strikethrough)
	return &out
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
