package codec

import (
	"errors"
	"fmt"
)

// ErrSheetNotFound indicates the workbook has no sheet with the expected name.
var ErrSheetNotFound = errors.New("sheet not found")

// ErrColumnOrder indicates a child column is not declared inside its
// parent's subtree.
var ErrColumnOrder = errors.New("columns out of order")

// InitError reports a codec that could not be loaded. It is terminal for
// the Loader that produced it.
type InitError struct {
	Stage string // "decode", "decompress", "initialize"
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("codec init failed (%s): %v", e.Stage, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// DecodeError reports an import buffer the codec could not read.
type DecodeError struct {
	SheetName string
	Err       error
}

func (e *DecodeError) Error() string {
	if e.SheetName == "" {
		return fmt.Sprintf("decode error: %v", e.Err)
	}
	return fmt.Sprintf("decode error in sheet %q: %v", e.SheetName, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
