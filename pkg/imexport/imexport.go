package imexport

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/gui-xie/import-export/pkg/imexport/codec"
	"github.com/gui-xie/import-export/pkg/imexport/compiler"
	"github.com/gui-xie/import-export/pkg/imexport/marshal"
	"github.com/gui-xie/import-export/pkg/imexport/models"
)

// Service exposes template generation, export and import. Every call waits
// for the codec, then compiles the definition afresh so edits made between
// calls are always honoured. A Service is safe for concurrent use.
type Service struct {
	logger   zerolog.Logger
	loader   *codec.Loader
	observer Observer
	now      func() time.Time
}

// New creates a Service.
func New(opts Options) *Service {
	s := &Service{
		logger:   opts.Logger,
		loader:   opts.Loader,
		observer: opts.Observer,
		now:      opts.Now,
	}
	if s.loader == nil {
		s.loader = codec.DefaultLoader()
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// GenerateTemplate returns an empty workbook for def.
func (s *Service) GenerateTemplate(ctx context.Context, def *models.TableDefinition) (buf []byte, err error) {
	defer s.track(OpTemplate, time.Now(), &err)
	return s.generate(ctx, OpTemplate, def)
}

func (s *Service) generate(ctx context.Context, op Operation, def *models.TableDefinition) ([]byte, error) {
	c, info, err := s.prepare(ctx, op, def)
	if err != nil {
		return nil, err
	}
	buf, err := c.GenerateTemplate(info)
	if err != nil {
		return nil, NewOperationError(op, def.Name, err)
	}
	return buf, nil
}

// ExportRecords returns a workbook holding records laid out by def.
func (s *Service) ExportRecords(ctx context.Context, def *models.TableDefinition, records []models.Record) (buf []byte, err error) {
	defer s.track(OpExport, time.Now(), &err)

	c, info, err := s.prepare(ctx, OpExport, def)
	if err != nil {
		return nil, err
	}
	rows := marshal.Marshal(records, info)
	buf, err = c.Encode(ctx, info, rows)
	if err != nil {
		return nil, NewOperationError(OpExport, def.Name, err)
	}
	s.observer.RowsProcessed(OpExport, len(records))
	s.logger.Debug().Str("definition", def.Name).Int("records", len(records)).Int("bytes", len(buf)).Msg("exported records")
	return buf, nil
}

// ImportBuffer reads the records of a workbook laid out by def. Numeric
// cells that do not parse become NaN; they are logged and counted but do
// not fail the import.
func (s *Service) ImportBuffer(ctx context.Context, def *models.TableDefinition, buf []byte) (records []models.Record, err error) {
	defer s.track(OpImport, time.Now(), &err)

	c, info, err := s.prepare(ctx, OpImport, def)
	if err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		return nil, NewOperationError(OpImport, def.Name, ErrEmptyBuffer)
	}
	rows, err := c.Decode(info, buf)
	if err != nil {
		return nil, NewOperationError(OpImport, def.Name, err)
	}

	records, warnings := marshal.Unmarshal(rows, info)
	if len(warnings) > 0 {
		for _, w := range warnings {
			s.logger.Debug().Str("definition", def.Name).Int("row", w.Row).Str("column", w.Key).Str("value", w.Value).Msg("value is not a number")
		}
		s.logger.Warn().Str("definition", def.Name).Int("count", len(warnings)).Msg("numeric cells could not be parsed")
		s.observer.CoercionWarnings(len(warnings))
	}
	s.observer.RowsProcessed(OpImport, len(records))
	return records, nil
}

// ImportFrom reads the whole of r and imports it.
func (s *Service) ImportFrom(ctx context.Context, def *models.TableDefinition, r io.Reader) ([]models.Record, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		name := ""
		if def != nil {
			name = def.Name
		}
		return nil, NewOperationError(OpImport, name, fmt.Errorf("reading input: %w", err))
	}
	return s.ImportBuffer(ctx, def, buf)
}

// DownloadTemplate generates a template and passes it to saver under the
// definition's file name.
func (s *Service) DownloadTemplate(ctx context.Context, def *models.TableDefinition, saver Saver) (err error) {
	defer s.track(OpDownload, time.Now(), &err)

	buf, err := s.generate(ctx, OpDownload, def)
	if err != nil {
		return err
	}
	if err := saver.Save(ctx, FileName(def.Name), ContentType, buf); err != nil {
		return NewOperationError(OpDownload, def.Name, err)
	}
	return nil
}

// prepare waits for the codec and compiles def.
func (s *Service) prepare(ctx context.Context, op Operation, def *models.TableDefinition) (*codec.Codec, *models.Info, error) {
	if def == nil {
		return nil, nil, NewOperationError(op, "", ErrNilDefinition)
	}
	c, err := s.loader.Ready(ctx)
	if err != nil {
		return nil, nil, NewOperationError(op, def.Name, err)
	}
	if err := compiler.Check(def); err != nil {
		s.logger.Warn().Err(err).Str("definition", def.Name).Msg("definition violates column contract")
	}
	return c, compiler.CompileAt(def, s.now()), nil
}

func (s *Service) track(op Operation, start time.Time, errp *error) {
	elapsed := time.Since(start)
	s.observer.OperationDone(op, elapsed, *errp)
	if *errp != nil {
		s.logger.Error().Err(*errp).Str("operation", string(op)).Dur("elapsed", elapsed).Msg("operation failed")
	}
}
