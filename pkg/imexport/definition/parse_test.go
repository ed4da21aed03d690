package definition

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gui-xie/import-export/pkg/imexport/models"
)

func TestParseJSONC(t *testing.T) {
	data := []byte(`{
		// orders export
		"name": "orders",
		"sheetName": "Orders",
		"createTime": "2024-01-02 03:04:05",
		"columns": [
			{"key": "id", "name": "ID", "dataType": "number"},
			/* single rule object */
			{"key": "state", "name": "State", "valueFormat": {"rule": "eq", "value": "late", "color": "#FF0000"}},
			{"key": "note", "name": "Note", "valueFormat": [{"bold": true}, {"rule": "eq", "value": "x", "italic": true}],},
		],
	}`)

	def, err := Parse(data, FormatJSON)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if def.Name != "orders" || def.SheetName != "Orders" {
		t.Errorf("Expected orders/Orders, got %s/%s", def.Name, def.SheetName)
	}
	if def.CreateTime == nil || !def.CreateTime.IsLiteral() || def.CreateTime.Literal != "2024-01-02 03:04:05" {
		t.Errorf("Expected literal create time, got %+v", def.CreateTime)
	}
	if len(def.Columns) != 3 {
		t.Fatalf("Expected 3 columns, got %d", len(def.Columns))
	}
	if def.Columns[0].DataType != models.DataTypeNumber {
		t.Errorf("Expected number type, got %q", def.Columns[0].DataType)
	}
	if len(def.Columns[1].ValueFormat) != 1 || def.Columns[1].ValueFormat[0].Rule != models.RuleEq {
		t.Errorf("Expected one eq rule, got %+v", def.Columns[1].ValueFormat)
	}
	if len(def.Columns[2].ValueFormat) != 2 {
		t.Fatalf("Expected 2 rules, got %d", len(def.Columns[2].ValueFormat))
	}
	if b := def.Columns[2].ValueFormat[0].Bold; b == nil || !*b {
		t.Errorf("Expected bold rule, got %v", b)
	}
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
name: shipments
createTime: 2024-05-06T07:08:09Z
isHeaderFreeze: true
columns:
  - key: order
    name: Order
    dataGroup: order
  - key: item
    name: Item
    dataGroupParent: order
    valueFormat:
      bold: true
`)

	def, err := Parse(data, FormatYAML)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if def.CreateTime == nil || def.CreateTime.IsLiteral() {
		t.Fatalf("Expected structured create time, got %+v", def.CreateTime)
	}
	want := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	if !def.CreateTime.Time.Equal(want) {
		t.Errorf("Expected %v, got %v", want, def.CreateTime.Time)
	}
	if !def.IsHeaderFreeze {
		t.Error("Expected header freeze")
	}
	if def.Columns[1].DataGroupParent != "order" {
		t.Errorf("Expected dataGroupParent 'order', got %q", def.Columns[1].DataGroupParent)
	}
	if len(def.Columns[1].ValueFormat) != 1 {
		t.Errorf("Expected 1 rule, got %d", len(def.Columns[1].ValueFormat))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"missing name", `{"columns": [{"key": "a"}]}`, FormatJSON},
		{"no columns", `{"name": "x"}`, FormatJSON},
		{"bad json", `{"name": `, FormatJSON},
		{"bad yaml", "name: [", FormatYAML},
		{"unknown format", `{}`, Format("toml")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data), tt.format); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
		err  bool
	}{
		{"a.json", FormatJSON, false},
		{"a.JSONC", FormatJSON, false},
		{"dir/a.yaml", FormatYAML, false},
		{"a.yml", FormatYAML, false},
		{"a.toml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.err {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FormatFromPath() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.yaml")
	if err := os.WriteFile(path, []byte("name: orders\ncolumns:\n  - key: id\n    name: ID\n"), 0644); err != nil {
		t.Fatal(err)
	}

	def, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if def.Name != "orders" {
		t.Errorf("Expected 'orders', got %q", def.Name)
	}

	if _, err := ReadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
	if got := NameFromPath(path); got != "orders" {
		t.Errorf("Expected 'orders', got %q", got)
	}
}

func TestClone(t *testing.T) {
	bold := true
	def := &models.TableDefinition{
		Name:       "t",
		CreateTime: models.CreateTimeLiteral("now"),
		Columns: []models.ColumnDefinition{{
			Key:           "a",
			AllowedValues: []string{"x"},
			Format:        &models.CellFormatRule{Bold: &bold},
			ValueFormat:   models.FormatRules{{Bold: &bold}},
		}},
	}

	c := Clone(def)
	c.Columns[0].AllowedValues[0] = "y"
	*c.Columns[0].Format.Bold = false
	*c.Columns[0].ValueFormat[0].Bold = false
	c.CreateTime.Literal = "later"

	if def.Columns[0].AllowedValues[0] != "x" {
		t.Error("Expected allowed values to be copied")
	}
	if !*def.Columns[0].Format.Bold || !*def.Columns[0].ValueFormat[0].Bold {
		t.Error("Expected format rules to be copied")
	}
	if def.CreateTime.Literal != "now" {
		t.Error("Expected create time to be copied")
	}
	if Clone(nil) != nil {
		t.Error("Expected nil clone of nil")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	def := &models.TableDefinition{
		Name:       "orders",
		CreateTime: models.CreateTimeLiteral("2024-01-02 03:04:05"),
		Columns: []models.ColumnDefinition{
			{Key: "id", Name: "ID", DataType: models.DataTypeNumber},
		},
	}

	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			data, err := Marshal(def, format)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			got, err := Parse(data, format)
			if err != nil {
				t.Fatalf("Parse() error = %v\n%s", err, data)
			}
			if got.Name != "orders" || got.Columns[0].DataType != models.DataTypeNumber {
				t.Errorf("Unexpected definition: %+v", got)
			}
			if got.CreateTime == nil || got.CreateTime.Literal != "2024-01-02 03:04:05" {
				t.Errorf("Expected literal create time, got %+v", got.CreateTime)
			}
		})
	}
}
