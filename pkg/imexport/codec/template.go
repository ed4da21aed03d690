package codec

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/gui-xie/import-export/pkg/imexport/models"
)

// defaultSheet is the sheet every new excelize file starts with.
const defaultSheet = "Sheet1"

// workbook is a file being written together with its layout.
type workbook struct {
	f      *excelize.File
	sheet  string
	layout *layout
	styles *styler
}

// GenerateTemplate returns an empty workbook holding the title and header
// rows for info.
func (c *Codec) GenerateTemplate(info *models.Info) ([]byte, error) {
	wb, err := c.newWorkbook(info)
	if err != nil {
		return nil, err
	}
	defer wb.f.Close()
	return writeBuffer(wb.f)
}

func (c *Codec) newWorkbook(info *models.Info) (*workbook, error) {
	l, err := computeLayout(info)
	if err != nil {
		return nil, err
	}
	created, err := c.parseTime(info.CreateTime)
	if err != nil {
		return nil, fmt.Errorf("invalid create time %q: %w", info.CreateTime, err)
	}

	f := excelize.NewFile()
	wb := &workbook{f: f, sheet: info.SheetName, layout: l, styles: newStyler(f, c.profile)}
	if err := wb.build(c, info, created); err != nil {
		f.Close()
		return nil, err
	}
	return wb, nil
}

func (wb *workbook) build(c *Codec, info *models.Info, created time.Time) error {
	f, l := wb.f, wb.layout
	if err := f.SetSheetName(defaultSheet, wb.sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	if info.DefaultRowHeight != nil {
		custom := true
		if err := f.SetSheetProps(wb.sheet, &excelize.SheetPropsOptions{
			DefaultRowHeight: info.DefaultRowHeight,
			CustomHeight:     &custom,
		}); err != nil {
			return fmt.Errorf("setting default row height: %w", err)
		}
	}

	if info.Title != nil {
		if err := wb.writeRange(l.FirstCol, l.LastCol, l.TitleRow, l.TitleRow, *info.Title, c.titleFormat(info)); err != nil {
			return fmt.Errorf("writing title: %w", err)
		}
		if info.TitleHeight != nil {
			if err := f.SetRowHeight(wb.sheet, l.TitleRow, *info.TitleHeight); err != nil {
				return fmt.Errorf("setting title height: %w", err)
			}
		}
	}

	for _, p := range l.Positions {
		if err := wb.writeRange(p.X1, p.X2, p.Y1, p.Y2, p.Column.Name, c.headerFormat(p.Column)); err != nil {
			return fmt.Errorf("writing header %q: %w", p.Column.Key, err)
		}
		if p.IsLeaf {
			col := columnName(p.X1)
			if err := f.SetColWidth(wb.sheet, col, col, c.columnWidth(p.Column)); err != nil {
				return fmt.Errorf("setting width of %q: %w", p.Column.Key, err)
			}
		}
		if p.Column.Note != nil {
			if err := f.AddComment(wb.sheet, excelize.Comment{
				Cell:      cellName(p.X1, p.Y1),
				Author:    info.Author,
				Paragraph: []excelize.RichTextRun{{Text: *p.Column.Note}},
			}); err != nil {
				return fmt.Errorf("adding note to %q: %w", p.Column.Key, err)
			}
		}
	}

	if info.HeaderRowHeight != nil {
		for row := l.HeaderTop; row <= l.HeaderBottom; row++ {
			if err := f.SetRowHeight(wb.sheet, row, *info.HeaderRowHeight); err != nil {
				return fmt.Errorf("setting header height: %w", err)
			}
		}
	}

	if info.IsHeaderFreeze {
		if err := f.SetPanes(wb.sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      l.HeaderBottom,
			TopLeftCell: cellName(1, l.DataStart()),
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("freezing header: %w", err)
		}
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   info.Name,
		Creator: info.Author,
		Created: created.Format("2006-01-02T15:04:05Z"),
	}); err != nil {
		return fmt.Errorf("setting document properties: %w", err)
	}
	return nil
}

// writeRange writes value into the top-left cell of the rectangle, merges
// it when it covers more than one cell, and styles the whole range.
func (wb *workbook) writeRange(x1, x2, y1, y2 int, value any, format models.CellFormat) error {
	topLeft, bottomRight := cellName(x1, y1), cellName(x2, y2)
	if err := wb.f.SetCellValue(wb.sheet, topLeft, value); err != nil {
		return err
	}
	if topLeft != bottomRight {
		if err := wb.f.MergeCell(wb.sheet, topLeft, bottomRight); err != nil {
			return err
		}
	}
	id, err := wb.styles.id(format)
	if err != nil {
		return err
	}
	return wb.f.SetCellStyle(wb.sheet, topLeft, bottomRight, id)
}

// parseTime parses a date-time value with the profile's layouts.
func (c *Codec) parseTime(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range c.profile.Date.Layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func writeBuffer(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}
