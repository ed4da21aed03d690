package models

// Record is an open key/value mapping. Only keys matching a column key are
// consulted on export; import fills one entry per leaf column.
type Record map[string]any

// Group is the typed form of a data-group value: the group's own value
// plus its child records. Generic maps with "value" and "children" keys,
// as produced by JSON or YAML decoding, are accepted as well.
type Group struct {
	Value    any      `json:"value,omitempty" yaml:"value,omitempty" cbor:"value,omitempty"`
	Children []Record `json:"children" yaml:"children" cbor:"children"`
}
