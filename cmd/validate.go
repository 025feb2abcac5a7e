/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fulmenhq/snipmark/internal/engine"
	"github.com/fulmenhq/snipmark/internal/ops"
	"github.com/fulmenhq/snipmark/pkg/config"
	"github.com/fulmenhq/snipmark/pkg/exitcode"
	"github.com/fulmenhq/snipmark/pkg/logger"
	"github.com/fulmenhq/snipmark/pkg/schema"
	"github.com/spf13/cobra"
)

var (
	validateAll          bool
	validateChangedSince string
	validateFormat       string
	validateOutput       string
)

var validateCmd = &cobra.Command{
	Use:   "validate [target]",
	Short: "Validate snippet front matter against the project schema",
	Long: `Validate parses every markdown snippet under the configured directories,
checks its YAML front matter against the project JSON Schema, and reports
violations with JSON Pointers. Files with findings never stop the batch.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	caps := ops.GetDefaultCapabilities(ops.GroupSnippets, ops.CategoryValidation)
	if err := ops.RegisterCommandWithTaxonomy("validate", ops.GroupSnippets, ops.CategoryValidation, caps, validateCmd, "Validate snippet front matter against the project schema"); err != nil {
		panic(fmt.Sprintf("Failed to register validate command: %v", err))
	}

	validateCmd.Flags().BoolVar(&validateAll, "all", false, "Validate every snippet (the default)")
	validateCmd.Flags().StringVar(&validateChangedSince, "changed-since", "", "Only validate files changed since the given git ref")
	validateCmd.Flags().StringVar(&validateFormat, "format", "concise", "Output format (concise, markdown, json, html)")
	validateCmd.Flags().StringVarP(&validateOutput, "output", "o", "", "Output file (default: stdout)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	if _, err := os.Stat(target); os.IsNotExist(err) {
		return fmt.Errorf("target does not exist: %s", target)
	}
	if validateAll && validateChangedSince != "" {
		return fmt.Errorf("--all and --changed-since are mutually exclusive")
	}

	outFmt, err := engine.ParseFormat(validateFormat)
	if err != nil {
		return err
	}

	cfg, err := config.Load(target)
	if err != nil {
		return setupExit(err)
	}
	eng, err := engine.New(target, cfg)
	if err != nil {
		return setupExit(err)
	}

	report, err := eng.Validate(engine.Options{Ref: validateChangedSince})
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	formatter := engine.NewFormatter(outFmt)
	formatter.SetTargetPath(target)
	if err := emitReport(cmd, formatter, report, validateOutput); err != nil {
		return err
	}

	if code := report.ExitCode(); code != exitcode.Success {
		logger.Debug("exiting non-zero", logger.String("status", exitcode.String(code)))
		os.Exit(code)
	}
	return nil
}

// setupExit maps configuration and schema failures to the config exit code.
// Both happen before any document is read.
func setupExit(err error) error {
	var cfgErr *config.Error
	var contractErr *schema.ContractError
	switch {
	case errors.As(err, &cfgErr):
		logger.Error("Invalid project configuration", logger.Err(err))
	case errors.As(err, &contractErr):
		logger.Error("Schema violates the snippet contract", logger.Err(err))
	default:
		logger.Error("Project setup failed", logger.Err(err))
	}
	os.Exit(exitcode.ConfigError)
	return err
}

// emitReport writes a formatted report to the requested output file, or to
// the command's stdout when none was given.
func emitReport(cmd *cobra.Command, formatter *engine.Formatter, report *engine.Report, outputPath string) error {
	if outputPath == "" {
		return formatter.WriteReport(cmd.OutOrStdout(), report)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output: %v", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Failed to close output file", logger.Err(err))
		}
	}()
	if err := formatter.WriteReport(f, report); err != nil {
		return fmt.Errorf("write report: %v", err)
	}
	logger.Info(fmt.Sprintf("Report written to %s", outputPath))
	return nil
}
