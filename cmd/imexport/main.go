// Package main provides the CLI entry point for imexport.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	logFormat  string
	payloadArg string

	definitionPath string
	inputPath      string
	outputPath     string
	recordFormat   string
	pretty         bool
	fetchImages    bool
	inferName      string
	inferSheet     string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "imexport",
		Short: "Generate, fill and read spreadsheet tables from declarative definitions",
		Long: `imexport lays out spreadsheet workbooks from table definitions: empty
templates, exports of record lists, and imports back into records.`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (YAML)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "", "Log format: console, json")
	pf.StringVar(&payloadArg, "payload", "", "Codec payload file replacing the embedded profile")

	rootCmd.AddCommand(
		newTemplateCmd(),
		newExportCmd(),
		newImportCmd(),
		newInferCmd(),
		newServeCmd(),
	)
	return rootCmd
}

func newTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an empty workbook for a definition",
		Args:  cobra.NoArgs,
		RunE:  runTemplate,
	}
	addDefinitionFlag(cmd.Flags())
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output directory (default: config output dir)")
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write records into a workbook",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
	addDefinitionFlag(cmd.Flags())
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Records file: .json, .yaml or .cbor (default: JSON on stdin)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output workbook (default: <name>.xlsx in config output dir)")
	cmd.Flags().BoolVar(&fetchImages, "fetch-images", false, "Download pictures for image columns")
	return cmd
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [input.xlsx]",
		Short: "Read records from a workbook",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	addDefinitionFlag(cmd.Flags())
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&recordFormat, "format", "", "Output format: json, yaml, cbor (default: from output extension, else json)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	return cmd
}

func newInferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "infer [input.xlsx]",
		Short: "Draft a definition from an existing workbook",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfer,
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Definition file to write, .yaml or .json (default: YAML on stdout)")
	cmd.Flags().StringVar(&inferName, "name", "", "Definition name (default: sheet name)")
	cmd.Flags().StringVar(&inferSheet, "sheet", "", "Sheet to read (default: first sheet)")
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve definitions, templates, exports and imports over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().Int("port", 0, "Listen port (overrides config)")
	cmd.Flags().String("definitions", "", "Definitions directory (overrides config)")
	cmd.Flags().Bool("watch", false, "Reload definitions when files change")
	cmd.Flags().BoolVar(&fetchImages, "fetch-images", false, "Download pictures for image columns")
	return cmd
}
