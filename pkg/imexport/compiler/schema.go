package compiler

import (
	"time"

	"github.com/gui-xie/import-export/pkg/imexport/models"
)

// DefaultSheetName is used when a definition names no sheet.
const DefaultSheetName = "sheet1"

// Compile builds the codec-facing schema for def using the current time as
// the default creation time.
func Compile(def *models.TableDefinition) *models.Info {
	return CompileAt(def, time.Now())
}

// CompileAt is Compile with an explicit clock. The result shares nothing
// mutable with def.
func CompileAt(def *models.TableDefinition, now time.Time) *models.Info {
	info := &models.Info{
		Name:           def.Name,
		SheetName:      def.SheetName,
		Author:         def.Author,
		CreateTime:     FormatTimestamp(def.CreateTime, now),
		Dx:             def.Dx,
		Dy:             def.Dy,
		IsHeaderFreeze: def.IsHeaderFreeze,
		Progress:       def.ProgressCallback,
		ImageFetcher:   def.ImageFetcher,
	}
	if info.SheetName == "" {
		info.SheetName = DefaultSheetName
	}

	if def.Title != "" {
		info.Title = ptr(def.Title)
	}
	if def.TitleHeight != 0 {
		info.TitleHeight = ptr(def.TitleHeight)
	}
	if def.TitleFormat != nil {
		f := CompileFormat(*def.TitleFormat)
		info.TitleFormat = &f
	}
	if def.DefaultRowHeight != 0 {
		info.DefaultRowHeight = ptr(def.DefaultRowHeight)
	}
	if def.HeaderRowHeight != 0 {
		info.HeaderRowHeight = ptr(def.HeaderRowHeight)
	}

	info.Columns = make([]models.ColumnInfo, len(def.Columns))
	for i, col := range def.Columns {
		info.Columns[i] = compileColumn(col)
	}
	return info
}

func compileColumn(col models.ColumnDefinition) models.ColumnInfo {
	c := models.ColumnInfo{
		Key:             col.Key,
		Name:            col.Name,
		DataType:        col.DataType.Normalize(),
		Parent:          col.Parent,
		DataGroup:       col.DataGroup,
		DataGroupParent: col.DataGroupParent,
		ValueFormat:     CompileFormats(col.ValueFormat),
		Style:           compileDirectStyle(col),
	}
	if col.Width != 0 {
		c.Width = ptr(col.Width)
	}
	if col.Note != "" {
		c.Note = ptr(col.Note)
	}
	if len(col.AllowedValues) > 0 {
		c.AllowedValues = append([]string(nil), col.AllowedValues...)
	}
	if col.Format != nil {
		f := CompileFormat(*col.Format)
		c.Format = &f
	}
	return c
}
