package compiler

import (
	"errors"
	"fmt"

	"github.com/gui-xie/import-export/pkg/imexport/models"
)

// SchemaError describes a definition that violates a column contract.
type SchemaError struct {
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Column == "" {
		return "schema: " + e.Reason
	}
	return fmt.Sprintf("schema: column %q: %s", e.Column, e.Reason)
}

// Check reports contract violations in def: empty or duplicate keys,
// parents that are not declared before their children, and data-group
// parents that name no data group. Compile does not depend on Check.
func Check(def *models.TableDefinition) error {
	var errs []error
	seen := make(map[string]bool, len(def.Columns))
	groups := make(map[string]bool)
	for _, col := range def.Columns {
		if col.DataGroup != "" {
			groups[col.DataGroup] = true
		}
	}

	for i, col := range def.Columns {
		switch {
		case col.Key == "":
			errs = append(errs, &SchemaError{Reason: fmt.Sprintf("column %d has an empty key", i)})
		case seen[col.Key]:
			errs = append(errs, &SchemaError{Column: col.Key, Reason: "duplicate key"})
		}
		if col.Parent != "" && !seen[col.Parent] {
			errs = append(errs, &SchemaError{
				Column: col.Key,
				Reason: fmt.Sprintf("parent %q is not declared before it", col.Parent),
			})
		}
		if col.DataGroupParent != "" && !groups[col.DataGroupParent] {
			errs = append(errs, &SchemaError{
				Column: col.Key,
				Reason: fmt.Sprintf("data group parent %q is not a data group", col.DataGroupParent),
			})
		}
		if col.DataGroup != "" && col.DataGroup == col.DataGroupParent {
			errs = append(errs, &SchemaError{Column: col.Key, Reason: "data group is its own parent"})
		}
		seen[col.Key] = true
	}
	return errors.Join(errs...)
}
