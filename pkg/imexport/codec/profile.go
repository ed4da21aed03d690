package codec

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gui-xie/import-export/pkg/imexport/models"
)

// Profile holds the codec's built-in defaults. It is the payload handed to
// Initialize.
type Profile struct {
	Version int `yaml:"version"`
	// ColumnWidth is the width of leaf columns that set none.
	ColumnWidth float64 `yaml:"column_width"`
	Font        Font    `yaml:"font"`
	// Background is the default fill colour; empty means no fill.
	Background    string `yaml:"background"`
	Align         string `yaml:"align"`
	AlignVertical string `yaml:"align_vertical"`
	WrapText      bool   `yaml:"wrap_text"`
	// Date controls how date columns are written and read.
	Date DateSettings `yaml:"date"`
	// Colors maps colour names to hex values.
	Colors map[string]string `yaml:"colors"`
	// Styles holds the built-in "cell", "date" and "header" styles.
	Styles map[string]StyleSpec `yaml:"styles"`
}

// Font is the default font.
type Font struct {
	Family string  `yaml:"family"`
	Size   float64 `yaml:"size"`
	Color  string  `yaml:"color"`
}

// DateSettings configures date cells.
type DateSettings struct {
	// Pattern is the spreadsheet number format for date cells.
	Pattern string `yaml:"pattern"`
	// Layouts are the Go layouts accepted when parsing date values; the
	// first is also used to render decoded dates.
	Layouts []string `yaml:"layouts"`
}

// StyleSpec is a named style in the profile.
type StyleSpec struct {
	Color           string  `yaml:"color,omitempty"`
	BackgroundColor string  `yaml:"background_color,omitempty"`
	Bold            *bool   `yaml:"bold,omitempty"`
	Italic          *bool   `yaml:"italic,omitempty"`
	FontSize        float64 `yaml:"font_size,omitempty"`
	Align           string  `yaml:"align,omitempty"`
	AlignVertical   string  `yaml:"align_vertical,omitempty"`
	BorderColor     string  `yaml:"border_color,omitempty"`
	DateFormat      string  `yaml:"date_format,omitempty"`
}

const (
	styleCell   = "cell"
	styleDate   = "date"
	styleHeader = "header"
)

// ParseProfile decodes and validates a YAML profile.
func ParseProfile(raw []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that the profile is usable.
func (p *Profile) Validate() error {
	var errs []string
	if p.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported version %d", p.Version))
	}
	if p.ColumnWidth <= 0 {
		errs = append(errs, "column_width must be positive")
	}
	if p.Font.Size <= 0 {
		errs = append(errs, "font.size must be positive")
	}
	if len(p.Date.Layouts) == 0 {
		errs = append(errs, "date.layouts must not be empty")
	}
	for _, name := range []string{styleCell, styleDate, styleHeader} {
		if _, ok := p.Styles[name]; !ok {
			errs = append(errs, fmt.Sprintf("style %q is missing", name))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid profile:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// base returns the format every cell style starts from.
func (p *Profile) base() models.CellFormat {
	f := models.CellFormat{
		FontSize: &p.Font.Size,
	}
	if p.Font.Color != "" {
		f.Color = &p.Font.Color
	}
	if p.Background != "" {
		f.BackgroundColor = &p.Background
	}
	if p.Align != "" {
		f.Align = &p.Align
	}
	if p.AlignVertical != "" {
		f.AlignVertical = &p.AlignVertical
	}
	return f
}

// style returns the named built-in style layered over the base format.
func (p *Profile) style(name string) models.CellFormat {
	s := p.Styles[name]
	f := models.CellFormat{Bold: s.Bold, Italic: s.Italic}
	if s.Color != "" {
		f.Color = &s.Color
	}
	if s.BackgroundColor != "" {
		f.BackgroundColor = &s.BackgroundColor
	}
	if s.FontSize != 0 {
		f.FontSize = &s.FontSize
	}
	if s.Align != "" {
		f.Align = &s.Align
	}
	if s.AlignVertical != "" {
		f.AlignVertical = &s.AlignVertical
	}
	if s.BorderColor != "" {
		f.BorderColor = &s.BorderColor
	}
	if s.DateFormat != "" {
		f.DateFormat = &s.DateFormat
	}
	return p.base().Merge(f)
}

// color resolves a colour name through the profile's table. Unknown names
// and hex values are returned unchanged.
func (p *Profile) color(c string) string {
	if hex, ok := p.Colors[strings.ToLower(strings.TrimSpace(c))]; ok {
		return hex
	}
	return c
}
