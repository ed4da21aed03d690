package imexport

import (
	"errors"
	"fmt"
)

// ErrNilDefinition indicates an operation was called without a definition.
var ErrNilDefinition = errors.New("table definition is nil")

// ErrEmptyBuffer indicates an import was given no bytes.
var ErrEmptyBuffer = errors.New("import buffer is empty")

// OperationError wraps a failure of a facade operation. The underlying
// codec or caller error is available through errors.Is and errors.As.
type OperationError struct {
	Operation  Operation
	Definition string
	Err        error
}

func (e *OperationError) Error() string {
	if e.Definition == "" {
		return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("%s of %q failed: %v", e.Operation, e.Definition, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// NewOperationError creates a new OperationError.
func NewOperationError(op Operation, definition string, err error) *OperationError {
	return &OperationError{
		Operation:  op,
		Definition: definition,
		Err:        err,
	}
}
