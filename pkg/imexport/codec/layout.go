package codec

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/gui-xie/import-export/pkg/imexport/models"
)

// position is a header cell's rectangle in 1-based sheet coordinates.
type position struct {
	Column models.ColumnInfo
	X1, X2 int
	Y1, Y2 int
	IsLeaf bool
}

func (p position) single() bool {
	return p.X1 == p.X2 && p.Y1 == p.Y2
}

// layout is the header geometry of a compiled schema.
type layout struct {
	Positions []position
	byKey     map[string]int
	// TitleRow is the row holding the title, or 0 without a title.
	TitleRow int
	// HeaderTop and HeaderBottom bound the header rows.
	HeaderTop    int
	HeaderBottom int
	FirstCol     int
	LastCol      int
}

func (l *layout) position(key string) (position, bool) {
	i, ok := l.byKey[key]
	if !ok {
		return position{}, false
	}
	return l.Positions[i], true
}

// DataStart is the first row below the header.
func (l *layout) DataStart() int {
	return l.HeaderBottom + 1
}

// Leaves returns the leaf positions in column order.
func (l *layout) Leaves() []position {
	var out []position
	for _, p := range l.Positions {
		if p.IsLeaf {
			out = append(out, p)
		}
	}
	return out
}

// computeLayout places every column header. Group headers span their leaf
// descendants; leaf headers extend down to the last header row.
func computeLayout(info *models.Info) (*layout, error) {
	if err := checkColumnOrder(info.Columns); err != nil {
		return nil, err
	}
	if info.Dx < 0 || info.Dy < 0 {
		return nil, fmt.Errorf("offset (%d, %d) must not be negative", info.Dx, info.Dy)
	}

	children := make(map[string][]string)
	for _, col := range info.Columns {
		if col.Parent != "" {
			children[col.Parent] = append(children[col.Parent], col.Key)
		}
	}

	levels := make(map[string]int, len(info.Columns))
	maxLevel := 0
	for _, col := range info.Columns {
		lvl := 0
		if col.Parent != "" {
			lvl = levels[col.Parent] + 1
		}
		levels[col.Key] = lvl
		if lvl > maxLevel {
			maxLevel = lvl
		}
	}

	spans := make(map[string]int, len(info.Columns))
	var span func(key string) int
	span = func(key string) int {
		if n, ok := spans[key]; ok {
			return n
		}
		kids := children[key]
		if len(kids) == 0 {
			spans[key] = 1
			return 1
		}
		n := 0
		for _, k := range kids {
			n += span(k)
		}
		spans[key] = n
		return n
	}

	l := &layout{
		byKey:    make(map[string]int, len(info.Columns)),
		FirstCol: info.Dx + 1,
	}
	top := info.Dy + 1
	if info.Title != nil {
		l.TitleRow = top
		top++
	}
	l.HeaderTop = top
	l.HeaderBottom = top + maxLevel
	l.LastCol = l.FirstCol

	x := l.FirstCol
	for _, col := range info.Columns {
		isLeaf := len(children[col.Key]) == 0
		p := position{
			Column: col,
			X1:     x,
			X2:     x + span(col.Key) - 1,
			Y1:     top + levels[col.Key],
			IsLeaf: isLeaf,
		}
		if isLeaf {
			p.Y2 = l.HeaderBottom
			x++
		} else {
			p.Y2 = p.Y1
		}
		if p.X2 > l.LastCol {
			l.LastCol = p.X2
		}
		l.byKey[col.Key] = len(l.Positions)
		l.Positions = append(l.Positions, p)
	}
	if l.LastCol > excelize.MaxColumns || l.HeaderBottom >= excelize.TotalRows {
		return nil, fmt.Errorf("table does not fit in a sheet: last column %d, header ends at row %d", l.LastCol, l.HeaderBottom)
	}
	return l, nil
}

// checkColumnOrder verifies that every child column follows its parent
// inside the parent's subtree.
func checkColumnOrder(columns []models.ColumnInfo) error {
	var stack []string
	for _, col := range columns {
		if col.Parent == "" {
			stack = append(stack[:0], col.Key)
			continue
		}
		for len(stack) > 0 && stack[len(stack)-1] != col.Parent {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			return fmt.Errorf("%w: column %q must follow its parent %q", ErrColumnOrder, col.Key, col.Parent)
		}
		stack = append(stack, col.Key)
	}
	return nil
}

// cellName converts 1-based coordinates to a cell reference.
func cellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		// computeLayout and the row writer keep coordinates in range.
		panic(err)
	}
	return name
}

// columnName converts a 1-based column number to its letters.
func columnName(col int) string {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		panic(err)
	}
	return name
}
