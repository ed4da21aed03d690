// Package imexport converts between declarative table definitions, plain
// records and spreadsheet workbooks.
package imexport

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/gui-xie/import-export/pkg/imexport/codec"
)

// Operation names a facade operation.
type Operation string

const (
	// OpTemplate generates an empty workbook for a definition.
	OpTemplate Operation = "template"
	// OpExport writes records into a workbook.
	OpExport Operation = "export"
	// OpImport reads records from a workbook.
	OpImport Operation = "import"
	// OpDownload generates a template and hands it to a Saver.
	OpDownload Operation = "download"
)

// Observer is notified about completed operations. Implementations must be
// safe for concurrent use.
type Observer interface {
	// OperationDone is called once per operation.
	OperationDone(op Operation, elapsed time.Duration, err error)
	// RowsProcessed reports the number of records exported or imported.
	RowsProcessed(op Operation, n int)
	// CoercionWarnings reports numeric cells that did not parse on import.
	CoercionWarnings(n int)
}

type nopObserver struct{}

func (nopObserver) OperationDone(Operation, time.Duration, error) {}
func (nopObserver) RowsProcessed(Operation, int)                  {}
func (nopObserver) CoercionWarnings(int)                          {}

// Options configures a Service.
type Options struct {
	// Logger receives schema warnings and coercion diagnostics.
	Logger zerolog.Logger
	// Loader supplies the codec. If nil, the process-wide loader for the
	// embedded profile is used.
	Loader *codec.Loader
	// Observer is notified about every operation. If nil, nothing is
	// reported.
	Observer Observer
	// Now returns the default creation time of generated workbooks.
	// If nil, time.Now is used.
	Now func() time.Time
}

// DefaultOptions returns options with a silent logger and the default
// codec loader.
func DefaultOptions() Options {
	return Options{
		Logger: zerolog.Nop(),
		Loader: codec.DefaultLoader(),
	}
}
