/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fulmenhq/snipmark/internal/ops"
	"github.com/fulmenhq/snipmark/pkg/config"
	"github.com/fulmenhq/snipmark/pkg/logger"
	"github.com/spf13/cobra"
)

var cleanForce bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the files and directories created by init",
	Long: `Clean removes the project scaffolding: snippets.toml, the schema file,
and the configured snippet directories with everything in them.

This deletes your snippets. It refuses to run without --force.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	caps := ops.GetDefaultCapabilities(ops.GroupSnippets, ops.CategoryMaintenance)
	if err := ops.RegisterCommandWithTaxonomy("clean", ops.GroupSnippets, ops.CategoryMaintenance, caps, cleanCmd, "Remove the files and directories created by init"); err != nil {
		panic(fmt.Sprintf("Failed to register clean command: %v", err))
	}

	cleanCmd.Flags().BoolVar(&cleanForce, "force", false, "Actually remove files (required)")
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(".")
	if err != nil {
		// A broken or missing config still leaves scaffolding to clean up.
		logger.Warn("could not load project config, cleaning default layout", logger.Err(err))
		cfg = config.Default()
	}

	targets := []string{
		config.ConfigFileName + ".toml",
		cfg.Project.SchemaPath,
	}
	targets = append(targets, cfg.Project.SnippetDirs...)

	if !cleanForce {
		fmt.Println("⚠️  clean would remove:")
		for _, t := range targets {
			fmt.Printf("   - %s\n", filepath.Clean(t))
		}
		return fmt.Errorf("refusing to remove anything without --force")
	}

	for _, t := range targets {
		t = filepath.Clean(t)
		if _, err := os.Stat(t); os.IsNotExist(err) {
			continue
		}
		if err := os.RemoveAll(t); err != nil {
			return fmt.Errorf("failed to remove %s: %w", t, err)
		}
		fmt.Printf("✅ Removed %s\n", t)
	}

	fmt.Println("✅ Project cleaned")
	return nil
}
