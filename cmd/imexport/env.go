package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gui-xie/import-export/internal/config"
	"github.com/gui-xie/import-export/internal/logging"
	"github.com/gui-xie/import-export/pkg/imexport"
	"github.com/gui-xie/import-export/pkg/imexport/codec"
	"github.com/gui-xie/import-export/pkg/imexport/codec/payload"
	"github.com/gui-xie/import-export/pkg/imexport/definition"
	"github.com/gui-xie/import-export/pkg/imexport/models"
)

// env is what every command needs: configuration, a logger and a
// service backed by the configured codec payload.
type env struct {
	cfg     *config.Config
	logger  zerolog.Logger
	loader  *codec.Loader
	service *imexport.Service
}

func addDefinitionFlag(fs *pflag.FlagSet) {
	fs.StringVarP(&definitionPath, "definition", "d", "", "Definition file (.json, .jsonc, .yaml)")
}

// setup loads configuration, applies persistent flag overrides and
// builds the service. Extra loader options are appended after the
// defaults.
func setup(cmd *cobra.Command, observer imexport.Observer, loaderOpts ...codec.LoaderOption) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = logFormat
	}
	if flags.Changed("payload") {
		cfg.Codec.PayloadPath = payloadArg
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	if err != nil {
		return nil, err
	}

	loader, err := newLoader(cfg.Codec.PayloadPath, logger, loaderOpts...)
	if err != nil {
		return nil, err
	}

	svc := imexport.New(imexport.Options{
		Logger:   logger,
		Loader:   loader,
		Observer: observer,
	})
	return &env{cfg: cfg, logger: logger, loader: loader, service: svc}, nil
}

func newLoader(path string, logger zerolog.Logger, opts ...codec.LoaderOption) (*codec.Loader, error) {
	opts = append([]codec.LoaderOption{codec.WithLogger(logger)}, opts...)
	if path == "" {
		return codec.NewLoader([]byte(payload.Default), opts...), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}
	return codec.NewLoader(raw, opts...), nil
}

func loadDefinition() (*models.TableDefinition, error) {
	if definitionPath == "" {
		return nil, fmt.Errorf("--definition is required")
	}
	def, err := definition.ReadFile(definitionPath)
	if err != nil {
		return nil, fmt.Errorf("loading definition: %w", err)
	}
	return def, nil
}
