/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/fulmenhq/snipmark/internal/engine"
	"github.com/fulmenhq/snipmark/internal/ops"
	"github.com/fulmenhq/snipmark/pkg/config"
	"github.com/fulmenhq/snipmark/pkg/exitcode"
	"github.com/fulmenhq/snipmark/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	fixDryRun       bool
	fixChangedSince string
	fixFormat       string
	fixOutput       string
)

var fixCmd = &cobra.Command{
	Use:   "fix [target]",
	Short: "Derive and update managed front matter fields",
	Long: `Fix runs the full pipeline: it generates missing ids, derives slug, title,
timestamps, and author fields from each document and its git history, rewrites
only files whose bytes actually changed, and reports anything it could not
resolve. Fields the project does not list under auto_update_properties are
never touched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFix,
}

func init() {
	caps := ops.GetDefaultCapabilities(ops.GroupSnippets, ops.CategoryRemediation)
	if err := ops.RegisterCommandWithTaxonomy("fix", ops.GroupSnippets, ops.CategoryRemediation, caps, fixCmd, "Derive and update managed front matter fields"); err != nil {
		panic(fmt.Sprintf("Failed to register fix command: %v", err))
	}

	fixCmd.Flags().BoolVar(&fixDryRun, "dry-run", false, "Report what would change without writing")
	fixCmd.Flags().StringVar(&fixChangedSince, "changed-since", "", "Only fix files changed since the given git ref")
	fixCmd.Flags().StringVar(&fixFormat, "format", "concise", "Output format (concise, markdown, json, html)")
	fixCmd.Flags().StringVarP(&fixOutput, "output", "o", "", "Output file (default: stdout)")
}

func runFix(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	if _, err := os.Stat(target); os.IsNotExist(err) {
		return fmt.Errorf("target does not exist: %s", target)
	}

	outFmt, err := engine.ParseFormat(fixFormat)
	if err != nil {
		return err
	}

	dryRun := fixDryRun
	if noOp, _ := cmd.Flags().GetBool("no-op"); noOp {
		dryRun = true
	}

	cfg, err := config.Load(target)
	if err != nil {
		return setupExit(err)
	}
	eng, err := engine.New(target, cfg)
	if err != nil {
		return setupExit(err)
	}

	report, err := eng.Fix(engine.Options{Ref: fixChangedSince, DryRun: dryRun})
	if err != nil {
		return err
	}

	formatter := engine.NewFormatter(outFmt)
	formatter.SetTargetPath(target)
	if err := emitReport(cmd, formatter, report, fixOutput); err != nil {
		return err
	}

	if code := report.ExitCode(); code != exitcode.Success {
		logger.Debug("exiting non-zero", logger.String("status", exitcode.String(code)))
		os.Exit(code)
	}
	return nil
}
