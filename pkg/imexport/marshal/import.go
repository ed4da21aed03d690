package marshal

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/gui-xie/import-export/pkg/imexport/models"
)

// CoercionWarning records a numeric cell whose text did not parse. The
// record holds NaN for that cell.
type CoercionWarning struct {
	Row   int
	Key   string
	Value string
}

func (w CoercionWarning) String() string {
	return fmt.Sprintf("row %d: column %q: %q is not a number", w.Row, w.Key, w.Value)
}

// Unmarshal converts decoded rows into records. Only leaf nodes populate
// the output; group nodes are not expanded. Numeric columns are parsed as
// decimals, and unparseable text becomes NaN instead of failing the batch.
func Unmarshal(rows []models.RowData, info *models.Info) ([]models.Record, []CoercionWarning) {
	types := make(map[string]models.DataType, len(info.Columns))
	for _, col := range info.Columns {
		types[col.Key] = col.DataType.Normalize()
	}

	var warnings []CoercionWarning
	records := make([]models.Record, 0, len(rows))
	for i, row := range rows {
		rec := make(models.Record, len(row.Columns))
		for _, node := range row.Columns {
			if !node.IsLeaf() {
				continue
			}
			if types[node.Key] != models.DataTypeNumber {
				rec[node.Key] = node.Value
				continue
			}
			n, ok := ParseNumber(node.Value)
			if !ok && strings.TrimSpace(node.Value) != "" {
				warnings = append(warnings, CoercionWarning{Row: i, Key: node.Key, Value: node.Value})
			}
			rec[node.Key] = n
		}
		records = append(records, rec)
	}
	return records, warnings
}

// decimalLiteral matches plain decimal notation with an optional exponent.
// Go-only spellings such as "inf", "0x1p-2" and "1_000" do not match.
var decimalLiteral = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ParseNumber parses s as a decimal number. It returns NaN and false when
// s is not a number. Literals beyond the float64 range give ±Inf.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !decimalLiteral.MatchString(s) {
		return math.NaN(), false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN(), false
	}
	return f, true
}
