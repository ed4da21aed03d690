package models

// NodeKind distinguishes the shapes a ColumnData node can take.
type NodeKind int

const (
	// KindLeaf is a single key/value cell.
	KindLeaf NodeKind = iota
	// KindRootGroup holds child rows and starts a data-group chain.
	KindRootGroup
	// KindNestedGroup holds child rows plus its own value.
	KindNestedGroup
)

// String returns the kind name.
func (k NodeKind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindRootGroup:
		return "root_group"
	case KindNestedGroup:
		return "nested_group"
	default:
		return "unknown"
	}
}

// RowData is one top-level record in codec form.
type RowData struct {
	Columns []ColumnData
}

// ColumnData is a node of a RowData. Leaves carry Value; groups carry
// Children, and nested groups carry a Value as well.
type ColumnData struct {
	Kind     NodeKind
	Key      string
	Value    string
	Children []RowData
}

// Leaf returns a leaf node.
func Leaf(key, value string) ColumnData {
	return ColumnData{Kind: KindLeaf, Key: key, Value: value}
}

// RootGroup returns a root group node.
func RootGroup(key string, children []RowData) ColumnData {
	return ColumnData{Kind: KindRootGroup, Key: key, Children: children}
}

// NestedGroup returns a nested group node.
func NestedGroup(key, value string, children []RowData) ColumnData {
	return ColumnData{Kind: KindNestedGroup, Key: key, Value: value, Children: children}
}

// IsLeaf reports whether the node is a leaf.
func (c ColumnData) IsLeaf() bool {
	return c.Kind == KindLeaf
}

// Leaves returns the row's leaf nodes in order.
func (r RowData) Leaves() []ColumnData {
	out := make([]ColumnData, 0, len(r.Columns))
	for _, c := range r.Columns {
		if c.IsLeaf() {
			out = append(out, c)
		}
	}
	return out
}
