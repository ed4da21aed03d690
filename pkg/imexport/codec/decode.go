package codec

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/gui-xie/import-export/pkg/imexport/models"
)

// Decode reads the data rows of a workbook produced for info. Every row
// below the header yields one leaf per leaf column holding the cell's raw
// text. Numeric cells are rendered with the profile's date layout when the
// column is a date column or when the cell carries a date number format
// outside a number column. Text cells are never reinterpreted.
func (c *Codec) Decode(info *models.Info, buf []byte) ([]models.RowData, error) {
	if len(buf) == 0 {
		return nil, &DecodeError{Err: errors.New("empty buffer")}
	}
	l, err := computeLayout(info)
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(info.SheetName); err != nil || idx < 0 {
		return nil, &DecodeError{SheetName: info.SheetName, Err: ErrSheetNotFound}
	}
	rows, err := f.GetRows(info.SheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &DecodeError{SheetName: info.SheetName, Err: err}
	}

	leaves := l.Leaves()
	dates := dateStyles{f: f, known: make(map[int]bool)}
	var out []models.RowData
	for r := l.DataStart() - 1; r < len(rows); r++ {
		cells := rows[r]
		row := models.RowData{Columns: make([]models.ColumnData, 0, len(leaves))}
		for _, p := range leaves {
			var value string
			if i := p.X1 - 1; i < len(cells) {
				value = cells[i]
			}
			if value != "" && !p.Column.IsNumeric() {
				cell := cellName(p.X1, r+1)
				if isNumericCell(f, info.SheetName, cell) &&
					(p.Column.IsDate() || dates.formatted(info.SheetName, cell)) {
					value = c.dateText(value)
				}
			}
			row.Columns = append(row.Columns, models.Leaf(p.Column.Key, value))
		}
		out = append(out, row)
	}
	return out, nil
}

// dateText renders a date serial; other text is returned unchanged.
func (c *Codec) dateText(value string) string {
	serial, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return value
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return value
	}
	return t.Round(time.Second).Format(c.dateLayout())
}

// isNumericCell reports whether the stored cell is a number or a date
// rather than text. Numbers written without a type attribute read as unset.
func isNumericCell(f *excelize.File, sheet, cell string) bool {
	typ, err := f.GetCellType(sheet, cell)
	if err != nil {
		return false
	}
	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber, excelize.CellTypeDate:
		return true
	}
	return false
}

// dateStyles caches whether a style index applies a date number format.
type dateStyles struct {
	f     *excelize.File
	known map[int]bool
}

func (d dateStyles) formatted(sheet, cell string) bool {
	idx, err := d.f.GetCellStyle(sheet, cell)
	if err != nil || idx == 0 {
		return false
	}
	if v, ok := d.known[idx]; ok {
		return v
	}
	var v bool
	if style, err := d.f.GetStyle(idx); err == nil {
		if style.CustomNumFmt != nil {
			v = isDateFormatCode(*style.CustomNumFmt)
		} else {
			v = isDateNumFmt(style.NumFmt)
		}
	}
	d.known[idx] = v
	return v
}

// isDateNumFmt reports whether a built-in number format id shows a date or
// a time.
func isDateNumFmt(id int) bool {
	return (id >= 14 && id <= 22) || (id >= 45 && id <= 47) || (id >= 27 && id <= 36) || (id >= 50 && id <= 58)
}

// isDateFormatCode reports whether a custom format code has date or time
// tokens outside quoted literals, escapes and bracketed sections.
func isDateFormatCode(code string) bool {
	section, _, _ := strings.Cut(code, ";")
	var quoted, bracket, escaped bool
	for _, r := range section {
		switch {
		case escaped:
			escaped = false
		case quoted:
			quoted = r != '"'
		case bracket:
			bracket = r != ']'
		case r == '\\':
			escaped = true
		case r == '"':
			quoted = true
		case r == '[':
			bracket = true
		default:
			switch r {
			case 'y', 'Y', 'd', 'D', 'm', 'M', 'h', 'H', 's', 'S':
				return true
			}
		}
	}
	return false
}
