package codec

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"path"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/gui-xie/import-export/pkg/imexport/marshal"
	"github.com/gui-xie/import-export/pkg/imexport/models"
)

// Encode returns a workbook holding the header for info followed by rows.
// Progress is reported after each top-level row; ctx is checked between
// rows.
func (c *Codec) Encode(ctx context.Context, info *models.Info, rows []models.RowData) ([]byte, error) {
	wb, err := c.newWorkbook(info)
	if err != nil {
		return nil, err
	}
	defer wb.f.Close()

	e := &encoder{ctx: ctx, codec: c, wb: wb, info: info}
	start := wb.layout.DataStart()
	y := start
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h, err := e.writeRow(row, y, "")
		if err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i, err)
		}
		y += h
		info.ReportProgress(float64(i+1) / float64(len(rows)))
	}

	last := y - 1
	if last < start {
		last = start
	}
	if err := e.addValidations(start, last); err != nil {
		return nil, err
	}
	return writeBuffer(wb.f)
}

type encoder struct {
	ctx   context.Context
	codec *Codec
	wb    *workbook
	info  *models.Info
}

// writeRow writes one row whose columns belong to the data group scope
// ("" for the top level) and returns the number of sheet rows it used.
// Group children are written first; the row's own cells are then merged
// down across the rows the children occupied.
func (e *encoder) writeRow(row models.RowData, y int, scope string) (int, error) {
	height := 1
	for _, node := range row.Columns {
		if node.IsLeaf() {
			continue
		}
		p, ok := e.wb.layout.position(node.Key)
		if !ok || p.Column.DataGroupParent != scope {
			continue
		}
		childY := y
		for _, child := range node.Children {
			h, err := e.writeRow(child, childY, p.Column.DataGroup)
			if err != nil {
				return 0, err
			}
			childY += h
		}
		span := childY - y
		if span < 1 {
			span = 1
		}
		if span > height {
			height = span
		}
		if node.Kind == models.KindNestedGroup {
			if err := e.writeCell(p, y, y+span-1, node.Value); err != nil {
				return 0, err
			}
		}
	}

	for _, node := range row.Columns {
		if !node.IsLeaf() {
			continue
		}
		p, ok := e.wb.layout.position(node.Key)
		if !ok || p.Column.DataGroupParent != scope {
			continue
		}
		if err := e.writeCell(p, y, y+height-1, node.Value); err != nil {
			return 0, err
		}
	}
	return height, nil
}

// writeCell writes a value typed after its column over rows y1..y2.
func (e *encoder) writeCell(p position, y1, y2 int, value string) error {
	if y2 > excelize.TotalRows {
		return fmt.Errorf("row %d exceeds the sheet limit of %d rows", y2, excelize.TotalRows)
	}
	col := p.Column
	format := e.codec.valueFormat(col, value)

	var v any = value
	switch {
	case strings.TrimSpace(value) == "":
		v = nil
	case col.IsNumeric():
		if n, ok := marshal.ParseNumber(value); ok && !math.IsInf(n, 0) {
			v = n
		}
	case col.IsDate():
		if t, err := e.codec.parseTime(strings.TrimSpace(value)); err == nil {
			v = t
		}
	case col.IsImage():
		added, err := e.addImage(p, y1, value)
		if err != nil {
			return err
		}
		if added {
			v = nil
		}
	}
	return e.wb.writeRange(p.X1, p.X2, y1, y2, v, format)
}

// addImage embeds the picture at url into the cell. It reports false when
// the picture could not be fetched or has an unsupported type, in which
// case the caller writes the URL as text.
func (e *encoder) addImage(p position, y int, url string) (bool, error) {
	data, configured, err := e.info.FetchImage(e.ctx, url)
	if !configured || err != nil || len(data) == 0 {
		return false, nil
	}
	ext := imageExtension(data, url)
	if ext == "" {
		return false, nil
	}
	if err := e.wb.f.AddPictureFromBytes(e.wb.sheet, cellName(p.X1, y), &excelize.Picture{
		Extension: ext,
		File:      data,
		Format:    &excelize.GraphicOptions{AutoFit: true, AltText: url},
	}); err != nil {
		return false, fmt.Errorf("adding image for %q: %w", p.Column.Key, err)
	}
	return true, nil
}

func imageExtension(data []byte, url string) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/bmp":
		return ".bmp"
	}
	switch ext := strings.ToLower(path.Ext(url)); ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".svg", ".tif", ".tiff", ".emf", ".wmf":
		return ext
	}
	return ""
}

// addValidations attaches a drop-down list to every leaf column with
// allowed values, covering rows start..last.
func (e *encoder) addValidations(start, last int) error {
	for _, p := range e.wb.layout.Leaves() {
		if len(p.Column.AllowedValues) == 0 {
			continue
		}
		dv := excelize.NewDataValidation(true)
		dv.Sqref = cellName(p.X1, start) + ":" + cellName(p.X1, last)
		if err := dv.SetDropList(p.Column.AllowedValues); err != nil {
			return fmt.Errorf("allowed values of %q: %w", p.Column.Key, err)
		}
		if err := e.wb.f.AddDataValidation(e.wb.sheet, dv); err != nil {
			return fmt.Errorf("allowed values of %q: %w", p.Column.Key, err)
		}
	}
	return nil
}
