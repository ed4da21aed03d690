// Package compiler turns user-authored definitions into the compiled schema
// consumed by the codec.
package compiler

import "github.com/gui-xie/import-export/pkg/imexport/models"

// CompileFormat converts a declarative rule into its compiled form. Only
// attributes present on the rule are set.
func CompileFormat(rule models.CellFormatRule) models.CellFormat {
	f := models.CellFormat{
		Rule:  rule.Rule,
		Value: rule.Value,
	}
	if rule.Color != "" {
		f.Color = ptr(rule.Color)
	}
	if rule.BackgroundColor != "" {
		f.BackgroundColor = ptr(rule.BackgroundColor)
	}
	if rule.Bold != nil {
		f.Bold = ptr(*rule.Bold)
	}
	if rule.Italic != nil {
		f.Italic = ptr(*rule.Italic)
	}
	if rule.Underline != nil {
		f.Underline = ptr(*rule.Underline)
	}
	if rule.Strikethrough != nil {
		f.Strikethrough = ptr(*rule.Strikethrough)
	}
	if rule.FontSize != 0 {
		f.FontSize = ptr(rule.FontSize)
	}
	if rule.Align != "" {
		f.Align = ptr(rule.Align)
	}
	if rule.AlignVertical != "" {
		f.AlignVertical = ptr(rule.AlignVertical)
	}
	if rule.BorderColor != "" {
		f.BorderColor = ptr(rule.BorderColor)
	}
	if rule.DateFormat != "" {
		f.DateFormat = ptr(rule.DateFormat)
	}
	return f
}

// CompileFormats compiles each rule in order.
func CompileFormats(rules []models.CellFormatRule) []models.CellFormat {
	if len(rules) == 0 {
		return nil
	}
	out := make([]models.CellFormat, len(rules))
	for i, r := range rules {
		out[i] = CompileFormat(r)
	}
	return out
}

// compileDirectStyle builds the column-wide style from the direct styling
// fields, or nil when none is set.
func compileDirectStyle(col models.ColumnDefinition) *models.CellFormat {
	if col.BackgroundColor == "" && col.Color == "" && !col.Bold {
		return nil
	}
	rule := models.CellFormatRule{
		BackgroundColor: col.BackgroundColor,
		Color:           col.Color,
	}
	if col.Bold {
		rule.Bold = ptr(true)
	}
	f := CompileFormat(rule)
	return &f
}

func ptr[T any](v T) *T {
	return &v
}
