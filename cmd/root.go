/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/fulmenhq/snipmark/internal/ops"
	"github.com/fulmenhq/snipmark/pkg/buildinfo"
	"github.com/fulmenhq/snipmark/pkg/exitcode"
	"github.com/fulmenhq/snipmark/pkg/logger"
	"github.com/spf13/cobra"
)

// newRootCommand builds a fresh root command. Tests use the factory to get
// an isolated command tree; production uses the shared rootCmd below.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snipmark",
		Short: "Validate and fix markdown snippet collections",
		Long: `Snipmark keeps a folder of markdown snippets honest. Each snippet carries
YAML front matter validated against a project JSON Schema, and snipmark can
derive the bookkeeping fields (id, slug, title, timestamps, authors) from the
document and its git history.

Examples:
   snipmark init              # Scaffold config, schema, and snippet folder
   snipmark validate          # Check every snippet against the schema
   snipmark validate --changed-since main   # Only files changed since main
   snipmark fix --dry-run     # Preview the fields a fix would fill in
   snipmark add "Title"       # Create a snippet with derived front matter`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().Bool("no-op", false, "Run tasks without making changes (assessment mode)")

	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("snipmark {{.Version}}\n")

	// Help groups subcommands by their registry classification instead of
	// cobra's flat list.
	sections := []struct {
		title string
		group ops.CommandGroup
	}{
		{"Snippet Commands", ops.GroupSnippets},
		{"Workflow Commands", ops.GroupWorkflow},
		{"Utility Commands", ops.GroupUtility},
		{"Support Commands", ops.GroupSupport},
	}
	cmd.SetHelpFunc(func(cmd *cobra.Command, _ []string) {
		reg := ops.GetRegistry()
		cmd.Println(cmd.Long)
		for _, s := range sections {
			cmd.Printf("\n%s:\n", s.title)
			for _, c := range reg.GetCommandsByGroup(s.group) {
				cmd.Printf("  %-12s %s\n", c.Name, c.Description)
			}
		}
		cmd.Println("\nFlags:")
		cmd.Print(cmd.UsageString())
	})

	return cmd
}

// registerSubcommands attaches every snipmark subcommand. Production wires
// the shared rootCmd in init; tests wire their own instances.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(validateCmd, fixCmd, addCmd, cleanCmd, initCmd, schemaCmd, hooksCmd, versionCmd)
}

var rootCmd = newRootCommand()

func init() {
	registerSubcommands(rootCmd)
}

// Execute runs the CLI. Subcommands that own a meaningful exit code call
// os.Exit themselves; anything that falls through here is a general failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command execution failed", logger.Err(err))
		os.Exit(exitcode.GeneralError)
	}
}

// initializeLogger configures the shared logger from the global flags. It
// runs in PersistentPreRun so every subcommand gets the same setup.
func initializeLogger(cmd *cobra.Command) {
	level, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")
	noOp, _ := cmd.Flags().GetBool("no-op")

	cfg := logger.Config{
		Level:     logger.ParseLevel(level),
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "snipmark",
		NoOp:      noOp,
	}
	if err := logger.Initialize(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logger:", err)
		os.Exit(exitcode.ConfigError)
	}
}
