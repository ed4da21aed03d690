package definition

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"

	"github.com/gui-xie/import-export/pkg/imexport/marshal"
	"github.com/gui-xie/import-export/pkg/imexport/models"
)

// ErrNoTable is returned when a sheet holds nothing that looks like a table.
var ErrNoTable = errors.New("no table found")

// InferOptions tunes Infer. Zero numeric fields take their value from
// DefaultInferOptions.
type InferOptions struct {
	// Name is the definition name. Defaults to the sheet name.
	Name string
	// SheetName selects the sheet. Defaults to the first sheet.
	SheetName string
	// SampleRows bounds the data rows inspected for column types.
	SampleRows int
	// DensityMin is the minimum share of non-empty cells in the table's
	// bounding box.
	DensityMin float64
	// MinNonemptyCells is the minimum number of non-empty cells.
	MinNonemptyCells int
}

// DefaultInferOptions returns the default detection parameters.
func DefaultInferOptions() InferOptions {
	return InferOptions{
		SampleRows:       100,
		DensityMin:       0.04,
		MinNonemptyCells: 2,
	}
}

func (o InferOptions) withDefaults() InferOptions {
	d := DefaultInferOptions()
	if o.SampleRows <= 0 {
		o.SampleRows = d.SampleRows
	}
	if o.DensityMin <= 0 {
		o.DensityMin = d.DensityMin
	}
	if o.MinNonemptyCells <= 0 {
		o.MinNonemptyCells = d.MinNonemptyCells
	}
	return o
}

var inferDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01-02-06",
	"1/2/06 15:04",
}

// Infer drafts a flat definition from an existing workbook. The first
// non-empty row of the table is taken as the header; a lone cell above a
// wider row becomes the title. Column types are guessed from the data
// rows beneath.
func Infer(buf []byte, opts InferOptions) (*models.TableDefinition, error) {
	opts = opts.withDefaults()
	f, err := excelize.OpenReader(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheet := opts.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}

	minRow, maxRow, minCol, maxCol := findDataBounds(rows)
	if minRow < 0 {
		return nil, fmt.Errorf("%w in sheet %q", ErrNoTable, sheet)
	}
	totalCells := (maxRow - minRow + 1) * (maxCol - minCol + 1)
	nonEmptyCells := countNonEmptyCells(rows, minRow, maxRow, minCol, maxCol)
	if nonEmptyCells < opts.MinNonemptyCells || float64(nonEmptyCells)/float64(totalCells) < opts.DensityMin {
		return nil, fmt.Errorf("%w in sheet %q", ErrNoTable, sheet)
	}

	def := &models.TableDefinition{
		Name:      opts.Name,
		SheetName: sheet,
		Dx:        minCol,
		Dy:        minRow,
	}
	if def.Name == "" {
		def.Name = sheet
	}

	header := minRow
	if minRow < maxRow && nonEmptyIn(rows[minRow], minCol, maxCol) == 1 && nonEmptyIn(rows[minRow+1], minCol, maxCol) > 1 {
		def.Title = firstNonEmpty(rows[minRow], minCol, maxCol)
		header = minRow + 1
	}

	seen := make(map[string]bool)
	for col := minCol; col <= maxCol; col++ {
		name := cellAt(rows, header, col)
		samples := make([]string, 0, opts.SampleRows)
		for r := header + 1; r <= maxRow && len(samples) < opts.SampleRows; r++ {
			if v := cellAt(rows, r, col); v != "" {
				samples = append(samples, v)
			}
		}
		def.Columns = append(def.Columns, models.ColumnDefinition{
			Key:      uniqueKey(keyFromHeader(name, col), seen),
			Name:     name,
			DataType: inferType(samples),
		})
	}

	return def, nil
}

// findDataBounds finds the bounding box of non-empty cells.
func findDataBounds(rows [][]string) (minRow, maxRow, minCol, maxCol int) {
	minRow, maxRow = -1, -1
	minCol, maxCol = -1, -1

	for rowIdx, row := range rows {
		for colIdx, cell := range row {
			if cell == "" {
				continue
			}
			if minRow < 0 || rowIdx < minRow {
				minRow = rowIdx
			}
			if maxRow < 0 || rowIdx > maxRow {
				maxRow = rowIdx
			}
			if minCol < 0 || colIdx < minCol {
				minCol = colIdx
			}
			if maxCol < 0 || colIdx > maxCol {
				maxCol = colIdx
			}
		}
	}

	return
}

// countNonEmptyCells counts non-empty cells within bounds.
func countNonEmptyCells(rows [][]string, minRow, maxRow, minCol, maxCol int) int {
	count := 0
	for rowIdx := minRow; rowIdx <= maxRow && rowIdx < len(rows); rowIdx++ {
		count += nonEmptyIn(rows[rowIdx], minCol, maxCol)
	}
	return count
}

func nonEmptyIn(row []string, minCol, maxCol int) int {
	count := 0
	for colIdx := minCol; colIdx <= maxCol && colIdx < len(row); colIdx++ {
		if row[colIdx] != "" {
			count++
		}
	}
	return count
}

func firstNonEmpty(row []string, minCol, maxCol int) string {
	for colIdx := minCol; colIdx <= maxCol && colIdx < len(row); colIdx++ {
		if row[colIdx] != "" {
			return row[colIdx]
		}
	}
	return ""
}

func cellAt(rows [][]string, r, c int) string {
	if r >= len(rows) || c >= len(rows[r]) {
		return ""
	}
	return strings.TrimSpace(rows[r][c])
}

// inferType picks number when every sample parses as a number and date
// when every sample parses with a known date layout.
func inferType(samples []string) models.DataType {
	if len(samples) == 0 {
		return models.DataTypeText
	}
	numbers, dates := 0, 0
	for _, s := range samples {
		if _, ok := marshal.ParseNumber(s); ok {
			numbers++
			continue
		}
		if isDate(s) {
			dates++
		}
	}
	switch len(samples) {
	case numbers:
		return models.DataTypeNumber
	case dates:
		return models.DataTypeDate
	default:
		return models.DataTypeText
	}
}

func isDate(s string) bool {
	for _, layout := range inferDateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// keyFromHeader lower-cases the header and joins its words with
// underscores. Headers without letters or digits fall back to the column
// letter.
func keyFromHeader(header string, col int) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(header) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			pendingSep = false
			continue
		}
		pendingSep = true
	}
	if b.Len() == 0 {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return "col_" + strconv.Itoa(col+1)
		}
		return "col_" + strings.ToLower(name)
	}
	return b.String()
}

func uniqueKey(key string, seen map[string]bool) string {
	candidate := key
	for n := 2; seen[candidate]; n++ {
		candidate = key + "_" + strconv.Itoa(n)
	}
	seen[candidate] = true
	return candidate
}
