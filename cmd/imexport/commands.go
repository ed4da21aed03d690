package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/gui-xie/import-export/internal/metrics"
	"github.com/gui-xie/import-export/internal/web"
	"github.com/gui-xie/import-export/pkg/imexport"
	"github.com/gui-xie/import-export/pkg/imexport/codec"
	"github.com/gui-xie/import-export/pkg/imexport/definition"
	"github.com/gui-xie/import-export/pkg/imexport/models"
	"github.com/gui-xie/import-export/pkg/imexport/output"
)

const imageFetchTimeout = 30 * time.Second

func runTemplate(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	def, err := loadDefinition()
	if err != nil {
		return err
	}

	dir := outputPath
	if dir == "" {
		dir = e.cfg.Output.Dir
	}
	if err := e.service.DownloadTemplate(cmd.Context(), def, imexport.FileSaver{Dir: dir}); err != nil {
		return fmt.Errorf("template failed: %w", err)
	}
	e.logger.Info().Str("file", filepath.Join(dir, imexport.FileName(def.Name))).Msg("template written")
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	def, err := loadDefinition()
	if err != nil {
		return err
	}

	records, err := readRecords(cmd.InOrStdin())
	if err != nil {
		return err
	}

	if fetchImages {
		def.ImageFetcher = imexport.HTTPImageFetcher(&http.Client{Timeout: imageFetchTimeout})
	}
	def.ProgressCallback = func(p float64) {
		e.logger.Debug().Float64("progress", p).Msg("exporting")
	}

	buf, err := e.service.ExportRecords(cmd.Context(), def, records)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	path := outputPath
	if path == "" {
		path = filepath.Join(e.cfg.Output.Dir, imexport.FileName(def.Name))
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	e.logger.Info().Str("file", path).Int("records", len(records)).Msg("export written")
	return nil
}

func readRecords(stdin io.Reader) ([]models.Record, error) {
	if inputPath == "" || inputPath == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return output.Decode(data, output.FormatJSON)
	}

	format, err := output.FormatFromPath(inputPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", inputPath, err)
	}
	return output.Decode(data, format)
}

func runImport(cmd *cobra.Command, args []string) error {
	workbookPath := args[0]

	if _, err := os.Stat(workbookPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", workbookPath)
	}

	e, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	def, err := loadDefinition()
	if err != nil {
		return err
	}

	format := output.FormatJSON
	switch {
	case recordFormat != "":
		if format, err = output.ParseFormat(recordFormat); err != nil {
			return err
		}
	case outputPath != "":
		if f, err := output.FormatFromPath(outputPath); err == nil {
			format = f
		}
	}

	f, err := os.Open(workbookPath)
	if err != nil {
		return err
	}
	defer f.Close()

	records, err := e.service.ImportFrom(cmd.Context(), def, f)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	data, err := output.Encode(records, format, pretty)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runInfer(cmd *cobra.Command, args []string) error {
	buf, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	opts := definition.DefaultInferOptions()
	opts.Name = inferName
	opts.SheetName = inferSheet
	def, err := definition.Infer(buf, opts)
	if err != nil {
		return fmt.Errorf("infer failed: %w", err)
	}

	format := definition.FormatYAML
	if outputPath != "" {
		if format, err = definition.FormatFromPath(outputPath); err != nil {
			return err
		}
	}
	data, err := definition.Marshal(def, format)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runServe(cmd *cobra.Command, args []string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.New(reg)

	e, err := setup(cmd, collector, codec.WithInitHook(collector.CodecInitialized))
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		e.cfg.Server.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("definitions") {
		e.cfg.Definitions.Dir, _ = flags.GetString("definitions")
	}
	if flags.Changed("watch") {
		e.cfg.Definitions.Watch, _ = flags.GetBool("watch")
	}
	e.logger.Info().Str("config", e.cfg.String()).Msg("starting server")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defs := definition.NewRegistry(e.logger)
	defs.OnChange(func(n int) { collector.Definitions.Set(float64(n)) })
	if _, err := defs.Load(e.cfg.Definitions.Dir); err != nil {
		e.logger.Warn().Err(err).Msg("some definitions failed to load")
	}
	if e.cfg.Definitions.Watch {
		if err := defs.Watch(ctx, e.cfg.Definitions.Dir); err != nil {
			return fmt.Errorf("watching definitions: %w", err)
		}
	}

	// Warm the codec so the first request does not pay for it.
	go e.loader.Ready(ctx)

	deps := web.Deps{
		Service:        e.service,
		Definitions:    defs,
		Logger:         e.logger,
		Loader:         e.loader,
		Metrics:        collector,
		Gatherer:       reg,
		MaxUploadBytes: e.cfg.Server.MaxUploadBytes,
	}
	if fetchImages {
		deps.ImageFetcher = imexport.HTTPImageFetcher(&http.Client{Timeout: imageFetchTimeout})
	}

	srv := &http.Server{
		Addr:         e.cfg.Server.Addr(),
		Handler:      web.New(deps).Router(),
		ReadTimeout:  e.cfg.Server.ReadTimeout,
		WriteTimeout: e.cfg.Server.WriteTimeout,
		IdleTimeout:  e.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		e.logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	e.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), e.cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
