package codec

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/gui-xie/import-export/pkg/imexport/models"
)

// resolvedStyle is a CellFormat with every attribute decided.
type resolvedStyle struct {
	FontSize  float64
	Color     string
	Fill      string
	Align     string
	VAlign    string
	Border    string
	NumFmt    string
	Bold      bool
	Italic    bool
	Underline bool
	Strike    bool
	Wrap      bool
}

// styler creates workbook styles, reusing the ID of styles already made.
type styler struct {
	f       *excelize.File
	profile *Profile
	cache   map[resolvedStyle]int
}

func newStyler(f *excelize.File, p *Profile) *styler {
	return &styler{f: f, profile: p, cache: make(map[resolvedStyle]int)}
}

// id returns the style ID for the given format.
func (s *styler) id(format models.CellFormat) (int, error) {
	r := s.resolve(format)
	if id, ok := s.cache[r]; ok {
		return id, nil
	}
	id, err := s.f.NewStyle(s.excelStyle(r))
	if err != nil {
		return 0, err
	}
	s.cache[r] = id
	return id, nil
}

func (s *styler) resolve(f models.CellFormat) resolvedStyle {
	r := resolvedStyle{
		FontSize: s.profile.Font.Size,
		Wrap:     s.profile.WrapText,
	}
	if f.FontSize != nil {
		r.FontSize = *f.FontSize
	}
	if f.Color != nil {
		r.Color = s.profile.color(*f.Color)
	}
	if f.BackgroundColor != nil {
		r.Fill = s.profile.color(*f.BackgroundColor)
	}
	if f.Align != nil {
		r.Align = horizontal(*f.Align)
	}
	if f.AlignVertical != nil {
		r.VAlign = vertical(*f.AlignVertical)
	}
	if f.BorderColor != nil {
		r.Border = s.profile.color(*f.BorderColor)
	}
	if f.DateFormat != nil {
		r.NumFmt = *f.DateFormat
	}
	r.Bold = f.Bold != nil && *f.Bold
	r.Italic = f.Italic != nil && *f.Italic
	r.Underline = f.Underline != nil && *f.Underline
	r.Strike = f.Strikethrough != nil && *f.Strikethrough
	return r
}

func (s *styler) excelStyle(r resolvedStyle) *excelize.Style {
	st := &excelize.Style{
		Font: &excelize.Font{
			Bold:   r.Bold,
			Italic: r.Italic,
			Strike: r.Strike,
			Size:   r.FontSize,
			Color:  r.Color,
			Family: s.profile.Font.Family,
		},
		Alignment: &excelize.Alignment{
			Horizontal: r.Align,
			Vertical:   r.VAlign,
			WrapText:   r.Wrap,
		},
	}
	if r.Underline {
		st.Font.Underline = "single"
	}
	if r.Fill != "" {
		st.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{r.Fill}}
	}
	if r.Border != "" {
		for _, side := range []string{"left", "top", "right", "bottom"} {
			st.Border = append(st.Border, excelize.Border{Type: side, Color: r.Border, Style: 1})
		}
	}
	if r.NumFmt != "" {
		numFmt := r.NumFmt
		st.CustomNumFmt = &numFmt
	}
	return st
}

func horizontal(s string) string {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "left", "center", "right":
		return v
	default:
		return ""
	}
}

func vertical(s string) string {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "top", "center", "bottom":
		return v
	case "middle":
		return "center"
	default:
		return ""
	}
}

// headerFormat is the style of a column's header cell.
func (c *Codec) headerFormat(col models.ColumnInfo) models.CellFormat {
	if col.Format != nil {
		return c.profile.base().Merge(*col.Format)
	}
	return c.profile.style(styleHeader)
}

// titleFormat is the style of the title row.
func (c *Codec) titleFormat(info *models.Info) models.CellFormat {
	if info.TitleFormat != nil {
		return c.profile.base().Merge(*info.TitleFormat)
	}
	return c.profile.style(styleHeader)
}

// valueFormat resolves the style of a data cell. The built-in cell or date
// style comes first, then the column's direct style, then every matching
// value rule in order, so later rules win.
func (c *Codec) valueFormat(col models.ColumnInfo, value string) models.CellFormat {
	f := c.profile.style(styleCell)
	if col.IsDate() {
		f = c.profile.style(styleDate)
		if c.profile.Date.Pattern != "" && f.DateFormat == nil {
			f.DateFormat = &c.profile.Date.Pattern
		}
	}
	if col.Style != nil {
		f = f.Merge(*col.Style)
	}
	for _, rule := range col.ValueFormat {
		if rule.Matches(value) {
			f = f.Merge(rule)
		}
	}
	return f
}
