// Package marshal converts between plain records and the codec's
// row/column representation.
package marshal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gui-xie/import-export/pkg/imexport/models"
)

// DateTimeLayout is used to stringify time.Time values.
const DateTimeLayout = "2006-01-02 15:04:05"

// Marshal converts records into codec rows. Nodes follow the schema's
// column order. Columns without a data group always yield one leaf;
// data-group columns yield a group node only when the record's value has
// children.
func Marshal(records []models.Record, info *models.Info) []models.RowData {
	rows := make([]models.RowData, 0, len(records))
	for _, rec := range records {
		rows = append(rows, marshalRecord(rec, info))
	}
	return rows
}

func marshalRecord(rec models.Record, info *models.Info) models.RowData {
	row := models.RowData{Columns: make([]models.ColumnData, 0, len(info.Columns))}
	for _, col := range info.Columns {
		v := rec[col.Key]
		if !col.IsGroup() {
			row.Columns = append(row.Columns, models.Leaf(col.Key, Stringify(v)))
			continue
		}

		value, children, ok := groupOf(v)
		if !ok || len(children) == 0 {
			continue
		}
		childRows := Marshal(children, info)
		if col.DataGroupParent == "" {
			row.Columns = append(row.Columns, models.RootGroup(col.Key, childRows))
		} else {
			row.Columns = append(row.Columns, models.NestedGroup(col.Key, Stringify(value), childRows))
		}
	}
	return row
}

// groupOf extracts the value and children of a data-group cell.
func groupOf(v any) (any, []models.Record, bool) {
	switch g := v.(type) {
	case models.Group:
		return g.Value, g.Children, true
	case *models.Group:
		if g == nil {
			return nil, nil, false
		}
		return g.Value, g.Children, true
	case models.Record:
		return g["value"], recordsOf(g["children"]), true
	case map[string]any:
		return g["value"], recordsOf(g["children"]), true
	default:
		return nil, nil, false
	}
}

func recordsOf(v any) []models.Record {
	switch c := v.(type) {
	case []models.Record:
		return c
	case []map[string]any:
		out := make([]models.Record, len(c))
		for i, m := range c {
			out[i] = m
		}
		return out
	case []any:
		out := make([]models.Record, 0, len(c))
		for _, item := range c {
			switch m := item.(type) {
			case models.Record:
				out = append(out, m)
			case map[string]any:
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

// Stringify renders a record value in its natural textual form. nil
// becomes the empty string.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int8, int16, int32, int64:
		return fmt.Sprintf("%d", x)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", x)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case time.Time:
		return x.Format(DateTimeLayout)
	case *time.Time:
		if x == nil {
			return ""
		}
		return x.Format(DateTimeLayout)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
