package models

import "context"

// Info is the compiled, codec-facing form of a TableDefinition. Pointer
// fields are nil when the definition left them unset so the codec applies
// its own defaults.
type Info struct {
	Name       string
	SheetName  string
	Author     string
	CreateTime string
	Columns    []ColumnInfo

	Title            *string
	TitleHeight      *float64
	TitleFormat      *CellFormat
	DefaultRowHeight *float64
	HeaderRowHeight  *float64

	Dx             int
	Dy             int
	IsHeaderFreeze bool

	Progress     func(float64)
	ImageFetcher ImageFetcher
}

// Column returns the compiled column with the given key.
func (i *Info) Column(key string) (ColumnInfo, bool) {
	for _, c := range i.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return ColumnInfo{}, false
}

// ReportProgress forwards p to the progress callback if one is set.
func (i *Info) ReportProgress(p float64) {
	if i.Progress != nil {
		i.Progress(p)
	}
}

// FetchImage loads a picture through the configured fetcher.
func (i *Info) FetchImage(ctx context.Context, url string) ([]byte, bool, error) {
	if i.ImageFetcher == nil {
		return nil, false, nil
	}
	b, err := i.ImageFetcher(ctx, url)
	return b, true, err
}

// ColumnInfo is a compiled column.
type ColumnInfo struct {
	Key           string
	Name          string
	Width         *float64
	Note          *string
	DataType      DataType
	AllowedValues []string
	Parent        string

	// Format styles the header cell.
	Format *CellFormat
	// ValueFormat holds the data-cell rules in declaration order.
	ValueFormat []CellFormat
	// Style is the column's direct styling, applied beneath ValueFormat.
	Style *CellFormat

	DataGroup       string
	DataGroupParent string
}

// IsGroup reports whether the column holds nested child records.
func (c ColumnInfo) IsGroup() bool {
	return c.DataGroup != ""
}

// IsRootGroup reports whether the column starts a data-group chain.
func (c ColumnInfo) IsRootGroup() bool {
	return c.DataGroup != "" && c.DataGroupParent == ""
}

// HasParent reports whether the column's header sits under another column.
func (c ColumnInfo) HasParent() bool {
	return c.Parent != ""
}

// IsNumeric reports whether values are coerced to numbers.
func (c ColumnInfo) IsNumeric() bool {
	return c.DataType.Normalize() == DataTypeNumber
}

// IsDate reports whether values are written as date-time cells.
func (c ColumnInfo) IsDate() bool {
	return c.DataType.Normalize() == DataTypeDate
}

// IsImage reports whether values are picture URLs.
func (c ColumnInfo) IsImage() bool {
	return c.DataType.Normalize() == DataTypeImage
}

// CellFormat is a compiled format rule. Every attribute is optional; nil
// leaves the underlying style untouched.
type CellFormat struct {
	Rule  FormatRule
	Value string

	Color           *string
	BackgroundColor *string
	Bold            *bool
	Italic          *bool
	Underline       *bool
	Strikethrough   *bool
	FontSize        *float64
	Align           *string
	AlignVertical   *string
	BorderColor     *string
	DateFormat      *string
}

// Matches reports whether the rule applies to a cell holding value.
func (f CellFormat) Matches(value string) bool {
	switch f.Rule {
	case RuleEq:
		return value == f.Value
	default:
		return true
	}
}

// Merge returns f with every attribute set on o overriding f's.
func (f CellFormat) Merge(o CellFormat) CellFormat {
	out := f
	if o.Color != nil {
		out.Color = o.Color
	}
	if o.BackgroundColor != nil {
		out.BackgroundColor = o.BackgroundColor
	}
	if o.Bold != nil {
		out.Bold = o.Bold
	}
	if o.Italic != nil {
		out.Italic = o.Italic
	}
	if o.Underline != nil {
		out.Underline = o.Underline
	}
	if o.Strikethrough != nil {
		out.Strikethrough = o.Strikethrough
	}
	if o.FontSize != nil {
		out.FontSize = o.FontSize
	}
	if o.Align != nil {
		out.Align = o.Align
	}
	if o.AlignVertical != nil {
		out.AlignVertical = o.AlignVertical
	}
	if o.BorderColor != nil {
		out.BorderColor = o.BorderColor
	}
	if o.DateFormat != nil {
		out.DateFormat = o.DateFormat
	}
	return out
}

// IsZero reports whether no attribute is set.
func (f CellFormat) IsZero() bool {
	return f.Color == nil && f.BackgroundColor == nil && f.Bold == nil && f.Italic == nil &&
		f.Underline == nil && f.Strikethrough == nil && f.FontSize == nil && f.Align == nil &&
		f.AlignVertical == nil && f.BorderColor == nil && f.DateFormat == nil
}
