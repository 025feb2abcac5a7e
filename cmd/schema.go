/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/snipmark/internal/assets"
	"github.com/fulmenhq/snipmark/internal/ops"
	"github.com/fulmenhq/snipmark/pkg/schema"
	"github.com/spf13/cobra"
)

var (
	schemaLintFormat  string
	schemaLintWorkers int
	schemaLintTimeout time.Duration
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Schema utilities for snippet projects",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var schemaLintCmd = &cobra.Command{
	Use:   "lint [files...]",
	Short: "Check schema files against the snippet schema contract",
	Long: `Lint verifies that each file is a JSON Schema the snippet engine can use:
declared draft 2020-12 or draft-07, a closed object with additionalProperties
false, id required and ULID-shaped, and extension keys confined to the x_/x-
pattern space.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSchemaLint,
}

var schemaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the schemas bundled with this build",
	RunE:  runSchemaList,
}

func init() {
	schemaCmd.AddCommand(schemaLintCmd, schemaListCmd)

	caps := ops.GetDefaultCapabilities(ops.GroupUtility, ops.CategorySchema)
	if err := ops.RegisterCommandWithTaxonomy("schema", ops.GroupUtility, ops.CategorySchema, caps, schemaCmd, "Schema utilities for snippet projects"); err != nil {
		panic(fmt.Sprintf("Failed to register schema command: %v", err))
	}

	schemaLintCmd.Flags().StringVar(&schemaLintFormat, "format", "text", "Output format: text|json")
	schemaLintCmd.Flags().IntVar(&schemaLintWorkers, "workers", 0, "Number of parallel workers (0=auto)")
	schemaLintCmd.Flags().DurationVar(&schemaLintTimeout, "timeout", 30*time.Second, "Lint timeout")
}

type schemaLintOutput struct {
	File   string   `json:"file"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

func runSchemaLint(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(schemaLintFormat)
	if format != "text" && format != "json" {
		return fmt.Errorf("unsupported format: %s", schemaLintFormat)
	}

	batch, err := schema.LintFiles(args, schema.BatchOptions{
		MaxConcurrency: schemaLintWorkers,
		Timeout:        schemaLintTimeout,
	})
	if err != nil {
		return fmt.Errorf("schema lint failed: %w", err)
	}

	results := make([]schemaLintOutput, 0, len(args))
	for _, path := range args {
		res := batch.FileResults[path]
		out := schemaLintOutput{File: path, Valid: res != nil && res.Valid}
		if res != nil {
			for _, e := range res.Errors {
				out.Errors = append(out.Errors, e.Message)
			}
		}
		results = append(results, out)
	}

	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encode JSON output: %w", err)
		}
	} else {
		for _, res := range results {
			if res.Valid {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✅ %s\n", res.File)
				continue
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "❌ %s\n", res.File)
			for _, msg := range res.Errors {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "    - %s\n", msg)
			}
		}
	}

	if batch.InvalidFiles > 0 {
		return fmt.Errorf("%d schema file(s) failed the snippet contract", batch.InvalidFiles)
	}
	return nil
}

func runSchemaList(cmd *cobra.Command, _ []string) error {
	infos := assets.GetSchemaNames()
	if len(infos) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No schemas bundled with this build")
		return nil
	}
	for _, info := range infos {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", info.Name, info.Draft, info.Path)
	}
	return nil
}
