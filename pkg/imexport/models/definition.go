// Package models defines the data structures shared by the import-export
// pipeline: user-authored definitions, the compiled schema handed to the
// codec, and the row/column intermediate exchanged with it.
package models

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DataType is the declared type of a column's values.
type DataType string

const (
	// DataTypeText leaves values as text. It is the default.
	DataTypeText DataType = "text"
	// DataTypeString is accepted as an alias of DataTypeText.
	DataTypeString DataType = "string"
	// DataTypeNumber coerces values to numbers on import.
	DataTypeNumber DataType = "number"
	// DataTypeDate writes values as date-time cells.
	DataTypeDate DataType = "date"
	// DataTypeImage embeds the picture found at the value's URL.
	DataTypeImage DataType = "image"
)

// Normalize lower-cases the type and maps the empty value and the string
// alias to DataTypeText.
func (d DataType) Normalize() DataType {
	switch v := DataType(strings.ToLower(strings.TrimSpace(string(d)))); v {
	case "", DataTypeString:
		return DataTypeText
	default:
		return v
	}
}

// ImageFetcher returns the raw bytes of the picture referenced by url.
type ImageFetcher func(ctx context.Context, url string) ([]byte, error)

// TableDefinition is the user-authored description of a spreadsheet table.
// Zero values mean "not set": the codec's own defaults stay in force.
type TableDefinition struct {
	// Name is the table name, also used as the document title and the
	// default file name for downloads.
	Name string `json:"name" yaml:"name"`
	// SheetName is the worksheet name. Defaults to "sheet1".
	SheetName string `json:"sheetName,omitempty" yaml:"sheetName,omitempty"`
	// Author is written to the document properties.
	Author string `json:"author,omitempty" yaml:"author,omitempty"`
	// CreateTime is the document creation time. Defaults to now.
	CreateTime *CreateTime `json:"createTime,omitempty" yaml:"createTime,omitempty"`
	// Columns lists the columns in display order. A child column (one with
	// Parent set) must follow its parent within the parent's subtree.
	Columns []ColumnDefinition `json:"columns" yaml:"columns"`

	Title            string          `json:"title,omitempty" yaml:"title,omitempty"`
	TitleHeight      float64         `json:"titleHeight,omitempty" yaml:"titleHeight,omitempty"`
	TitleFormat      *CellFormatRule `json:"titleFormat,omitempty" yaml:"titleFormat,omitempty"`
	DefaultRowHeight float64         `json:"defaultRowHeight,omitempty" yaml:"defaultRowHeight,omitempty"`
	HeaderRowHeight  float64         `json:"headerRowHeight,omitempty" yaml:"headerRowHeight,omitempty"`
	// Dx and Dy offset the whole table from cell A1.
	Dx int `json:"dx,omitempty" yaml:"dx,omitempty"`
	Dy int `json:"dy,omitempty" yaml:"dy,omitempty"`
	// IsHeaderFreeze freezes the panes below the header rows.
	IsHeaderFreeze bool `json:"isHeaderFreeze,omitempty" yaml:"isHeaderFreeze,omitempty"`

	// ProgressCallback receives the fraction of rows written during export.
	ProgressCallback func(progress float64) `json:"-" yaml:"-"`
	// ImageFetcher loads pictures for image columns.
	ImageFetcher ImageFetcher `json:"-" yaml:"-"`
}

// ColumnDefinition describes one column of a TableDefinition.
type ColumnDefinition struct {
	// Key looks up the column's value in a record. Keys must be unique.
	Key string `json:"key" yaml:"key"`
	// Name is the header text.
	Name string `json:"name" yaml:"name"`

	Width         float64  `json:"width,omitempty" yaml:"width,omitempty"`
	Note          string   `json:"note,omitempty" yaml:"note,omitempty"`
	DataType      DataType `json:"dataType,omitempty" yaml:"dataType,omitempty"`
	AllowedValues []string `json:"allowedValues,omitempty" yaml:"allowedValues,omitempty"`

	// Parent places this column's header under another column's header.
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty"`

	// Direct styling applied to every data cell of the column.
	BackgroundColor string `json:"backgroundColor,omitempty" yaml:"backgroundColor,omitempty"`
	Color           string `json:"color,omitempty" yaml:"color,omitempty"`
	Bold            bool   `json:"bold,omitempty" yaml:"bold,omitempty"`

	// Format styles the header cell.
	Format *CellFormatRule `json:"format,omitempty" yaml:"format,omitempty"`
	// ValueFormat styles data cells; later matching rules win.
	ValueFormat FormatRules `json:"valueFormat,omitempty" yaml:"valueFormat,omitempty"`

	// DataGroup marks the column as holding nested child records.
	DataGroup string `json:"dataGroup,omitempty" yaml:"dataGroup,omitempty"`
	// DataGroupParent names the data group whose children carry this column.
	DataGroupParent string `json:"dataGroupParent,omitempty" yaml:"dataGroupParent,omitempty"`
}

// FormatRule selects when a CellFormatRule applies.
type FormatRule string

const (
	// RuleDefault always applies.
	RuleDefault FormatRule = "default"
	// RuleEq applies when the cell value equals the rule's Value.
	RuleEq FormatRule = "eq"
)

// CellFormatRule is a declarative cell style with an optional match rule.
type CellFormatRule struct {
	Rule  FormatRule `json:"rule,omitempty" yaml:"rule,omitempty"`
	Value string     `json:"value,omitempty" yaml:"value,omitempty"`

	Color           string  `json:"color,omitempty" yaml:"color,omitempty"`
	BackgroundColor string  `json:"backgroundColor,omitempty" yaml:"backgroundColor,omitempty"`
	Bold            *bool   `json:"bold,omitempty" yaml:"bold,omitempty"`
	Italic          *bool   `json:"italic,omitempty" yaml:"italic,omitempty"`
	Underline       *bool   `json:"underline,omitempty" yaml:"underline,omitempty"`
	Strikethrough   *bool   `json:"strikethrough,omitempty" yaml:"strikethrough,omitempty"`
	FontSize        float64 `json:"fontSize,omitempty" yaml:"fontSize,omitempty"`
	Align           string  `json:"align,omitempty" yaml:"align,omitempty"`
	AlignVertical   string  `json:"alignVertical,omitempty" yaml:"alignVertical,omitempty"`
	BorderColor     string  `json:"borderColor,omitempty" yaml:"borderColor,omitempty"`
	DateFormat      string  `json:"dateFormat,omitempty" yaml:"dateFormat,omitempty"`
}

// FormatRules is a list of value formats. It decodes from either a single
// rule object or a list of rules.
type FormatRules []CellFormatRule

// UnmarshalJSON accepts a rule object or an array of rules.
func (r *FormatRules) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = nil
		return nil
	}
	if len(data) > 0 && data[0] == '{' {
		var single CellFormatRule
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*r = FormatRules{single}
		return nil
	}
	var list []CellFormatRule
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*r = list
	return nil
}

// UnmarshalYAML accepts a rule mapping or a sequence of rules.
func (r *FormatRules) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		var single CellFormatRule
		if err := node.Decode(&single); err != nil {
			return err
		}
		*r = FormatRules{single}
		return nil
	}
	var list []CellFormatRule
	if err := node.Decode(&list); err != nil {
		return err
	}
	*r = list
	return nil
}

// CreateTime is either a literal timestamp string, passed to the codec
// verbatim, or a structured time.
type CreateTime struct {
	Literal string
	Time    time.Time
}

// CreateTimeLiteral returns a CreateTime holding s verbatim.
func CreateTimeLiteral(s string) *CreateTime {
	return &CreateTime{Literal: s}
}

// CreateTimeAt returns a CreateTime holding t.
func CreateTimeAt(t time.Time) *CreateTime {
	return &CreateTime{Time: t}
}

// IsLiteral reports whether the value was given as a string.
func (c *CreateTime) IsLiteral() bool {
	return c.Literal != ""
}

// IsZero reports whether neither a literal nor a time is set. A zero
// CreateTime means "now", like a nil one.
func (c *CreateTime) IsZero() bool {
	return c == nil || (c.Literal == "" && c.Time.IsZero())
}

// MarshalJSON writes the literal, or the structured time in RFC 3339.
func (c CreateTime) MarshalJSON() ([]byte, error) {
	if c.IsLiteral() || c.IsZero() {
		return json.Marshal(c.Literal)
	}
	return json.Marshal(c.Time.Format(time.RFC3339))
}

// MarshalYAML writes the literal as a string and the structured time as a
// timestamp.
func (c CreateTime) MarshalYAML() (any, error) {
	if c.IsLiteral() || c.IsZero() {
		return c.Literal, nil
	}
	return c.Time, nil
}

// UnmarshalJSON reads a JSON string as a literal.
func (c *CreateTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("createTime must be a string: %w", err)
	}
	*c = CreateTime{Literal: s}
	return nil
}

// UnmarshalYAML reads a !!timestamp scalar as a structured time and any
// other scalar as a literal.
func (c *CreateTime) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("createTime must be a scalar, line %d", node.Line)
	}
	if node.ShortTag() == "!!timestamp" {
		var t time.Time
		if err := node.Decode(&t); err != nil {
			return err
		}
		*c = CreateTime{Time: t}
		return nil
	}
	*c = CreateTime{Literal: node.Value}
	return nil
}
