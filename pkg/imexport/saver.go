package imexport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gui-xie/import-export/pkg/imexport/codec"
)

// ContentType is the MIME type of produced workbooks.
const ContentType = codec.ContentType

// FileExtension is appended to downloaded workbook names.
const FileExtension = ".xlsx"

// Saver persists a produced workbook, e.g. by writing a file or sending an
// HTTP response.
type Saver interface {
	Save(ctx context.Context, name, contentType string, data []byte) error
}

// SaverFunc adapts a function to the Saver interface.
type SaverFunc func(ctx context.Context, name, contentType string, data []byte) error

// Save calls fn.
func (fn SaverFunc) Save(ctx context.Context, name, contentType string, data []byte) error {
	return fn(ctx, name, contentType, data)
}

// FileSaver writes workbooks into Dir.
type FileSaver struct {
	Dir string
}

// Save writes data to Dir/name. Directory components of name are ignored.
func (s FileSaver) Save(ctx context.Context, name, contentType string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// FileName returns the download name for a definition.
func FileName(definitionName string) string {
	name := strings.TrimSpace(definitionName)
	if name == "" {
		name = "template"
	}
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	return name + FileExtension
}
