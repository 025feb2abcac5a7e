/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fulmenhq/snipmark/internal/assets"
	"github.com/fulmenhq/snipmark/internal/ops"
	"github.com/fulmenhq/snipmark/pkg/config"
	"github.com/spf13/cobra"
)

var (
	initDir    string
	initForce  bool
	initDryRun bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a snippet project (config, schema, snippet folder)",
	Long: `Init creates everything a snippet project needs: a snippets.toml config,
a starter JSON Schema for the front matter, and the snippet directory.

An existing schema file is never overwritten, even with --force. The schema is
where your own field rules live; replacing it would throw that work away.

Examples:
  snipmark init                  # Scaffold in the current directory
  snipmark init --dir docs/kb    # Scaffold somewhere else
  snipmark init --force          # Replace an existing snippets.toml
  snipmark init --dry-run        # Show what would be created`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	caps := ops.GetDefaultCapabilities(ops.GroupUtility, ops.CategoryConfiguration)
	if err := ops.RegisterCommandWithTaxonomy("init", ops.GroupUtility, ops.CategoryConfiguration, caps, initCmd, "Scaffold a snippet project"); err != nil {
		panic(fmt.Sprintf("Failed to register init command: %v", err))
	}

	initCmd.Flags().StringVar(&initDir, "dir", ".", "Directory to scaffold the project in")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Replace an existing snippets.toml")
	initCmd.Flags().BoolVar(&initDryRun, "dry-run", false, "Show what would be created without writing")
}

func runInit(cmd *cobra.Command, args []string) error {
	root := filepath.Clean(initDir)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}

	cfg := config.Default()
	configPath := filepath.Join(root, config.ConfigFileName+".toml")
	schemaPath := cfg.SchemaFile(root)

	schemaData, ok := assets.DefaultSnippetSchema()
	if !ok {
		return fmt.Errorf("embedded starter schema missing from build")
	}
	starter, err := config.StarterTOML()
	if err != nil {
		return err
	}

	if initDryRun {
		fmt.Println("=== DRY RUN ===")
		fmt.Printf("Would create %s:\n\n%s\n", configPath, starter)
		fmt.Printf("Would create %s (%d bytes)\n", schemaPath, len(schemaData))
		for _, dir := range cfg.Project.SnippetDirs {
			fmt.Printf("Would create directory %s/\n", filepath.Join(root, dir))
		}
		return nil
	}

	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to replace)", configPath)
	}
	if err := os.WriteFile(configPath, starter, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}
	fmt.Printf("✅ Created %s\n", configPath)

	if _, err := os.Stat(schemaPath); err == nil {
		fmt.Printf("✅ Keeping existing schema %s\n", schemaPath)
	} else {
		if err := os.WriteFile(schemaPath, schemaData, 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", schemaPath, err)
		}
		fmt.Printf("✅ Created %s\n", schemaPath)
	}

	for _, dir := range cfg.Project.SnippetDirs {
		full := filepath.Join(root, dir)
		if err := os.MkdirAll(full, 0o755); err != nil {
			return fmt.Errorf("failed to create snippet directory: %w", err)
		}
		fmt.Printf("✅ Created %s/\n", full)
	}

	fmt.Println("✅ Project initialized - run 'snipmark add' to create your first snippet")
	return nil
}
