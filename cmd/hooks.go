/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/snipmark/internal/ops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	hooksManifestPath = ".snipmark/hooks.yaml"
	hooksGenDir       = ".snipmark/hooks"
	gitHooksDir       = ".git/hooks"
)

// supportedHooks lists the git hooks snipmark manages, in generation order.
var supportedHooks = []string{"pre-commit", "pre-push"}

// hooksCmd represents the hooks command
var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage git hooks that validate snippets",
	Long: `Hooks wires snippet validation into git. A manifest at .snipmark/hooks.yaml
describes which snipmark commands each hook runs; generate renders them into
bash scripts and install copies those into .git/hooks, backing up anything
already there.

Examples:
  snipmark hooks init          # Create the hooks manifest
  snipmark hooks generate      # Render hook scripts from the manifest
  snipmark hooks install       # Install hooks to .git/hooks
  snipmark hooks inspect       # Show configuration and install status`,
}

// hooksInitCmd represents the hooks init command
var hooksInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the hooks manifest",
	Long: `Init creates the hooks infrastructure:
- .snipmark/hooks.yaml manifest file
- Default pre-commit and pre-push configurations`,
	RunE: runHooksInit,
}

// hooksGenerateCmd represents the hooks generate command
var hooksGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render hook scripts from the manifest",
	Long: `Generate reads .snipmark/hooks.yaml and renders one executable bash
script per configured hook into .snipmark/hooks.`,
	RunE: runHooksGenerate,
}

// hooksInstallCmd represents the hooks install command
var hooksInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install generated hooks to .git/hooks",
	Long: `Install copies generated hook scripts into .git/hooks, making them
active for git operations. Pre-existing hooks are kept as .backup files.`,
	RunE: runHooksInstall,
}

// hooksValidateCmd represents the hooks validate command
var hooksValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the hooks manifest and generated scripts",
	RunE:  runHooksValidate,
}

// hooksRemoveCmd represents the hooks remove command
var hooksRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove installed hooks",
	Long: `Remove uninstalls snipmark hooks from .git/hooks, restoring any
previously backed up hooks if they exist.`,
	RunE: runHooksRemove,
}

// hooksInspectCmd represents the hooks inspect command
var hooksInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show hook configuration and install status",
	RunE:  runHooksInspect,
}

func init() {
	caps := ops.GetDefaultCapabilities(ops.GroupWorkflow, ops.CategoryOrchestration)
	if err := ops.RegisterCommandWithTaxonomy("hooks", ops.GroupWorkflow, ops.CategoryOrchestration, caps, hooksCmd, "Manage git hooks that validate snippets"); err != nil {
		panic(fmt.Sprintf("Failed to register hooks command: %v", err))
	}

	// Add subcommands
	subcommands := []*cobra.Command{hooksInitCmd, hooksGenerateCmd, hooksInstallCmd, hooksValidateCmd, hooksRemoveCmd, hooksInspectCmd}
	hooksCmd.AddCommand(subcommands...)
	for _, sub := range subcommands {
		if err := ops.RegisterCommand(fmt.Sprintf("hooks %s", sub.Use), ops.GroupWorkflow, sub, sub.Short); err != nil {
			panic(fmt.Sprintf("Failed to register hooks %s command: %v", sub.Use, err))
		}
	}
}

// hookManifest mirrors .snipmark/hooks.yaml.
type hookManifest struct {
	Version string                 `yaml:"version"`
	Hooks   map[string][]hookEntry `yaml:"hooks"`
}

type hookEntry struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Timeout string   `yaml:"timeout,omitempty"`
}

func loadHookManifest() (*hookManifest, error) {
	data, err := os.ReadFile(hooksManifestPath)
	if err != nil {
		return nil, err
	}
	var m hookManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid hooks manifest: %w", err)
	}
	return &m, nil
}

func runHooksInit(cmd *cobra.Command, args []string) error {
	fmt.Println("📎 Initializing snipmark hooks...")

	// Check if already initialized
	if _, err := os.Stat(hooksManifestPath); err == nil {
		fmt.Println("⚠️  Hooks already initialized")
		fmt.Println("💡 Use 'snipmark hooks generate' to regenerate hook scripts")
		return nil
	}

	// Check if we're in a git repository
	if _, err := os.Stat(".git"); os.IsNotExist(err) {
		return fmt.Errorf("not in a git repository. Initialize git first with 'git init'")
	}

	if err := os.MkdirAll(filepath.Dir(hooksManifestPath), 0o755); err != nil {
		return fmt.Errorf("failed to create .snipmark directory: %v", err)
	}

	// Default manifest: fast changed-only check on commit, full sweep on push
	manifest := `version: "1.0.0"
hooks:
  pre-commit:
    - command: "validate"
      args: ["--changed-since", "HEAD"]
      timeout: "1m"
  pre-push:
    - command: "validate"
      args: ["--all"]
      timeout: "2m"
`

	if err := os.WriteFile(hooksManifestPath, []byte(manifest), 0o644); err != nil { // #nosec G306 -- manifest is committed project config
		return fmt.Errorf("failed to create hooks.yaml: %v", err)
	}

	fmt.Println("✅ Hooks initialized")
	fmt.Printf("📝 Created %s with default configuration\n", hooksManifestPath)
	fmt.Println("🚀 Next steps:")
	fmt.Println("   1. Run 'snipmark hooks generate' to render hook scripts")
	fmt.Println("   2. Run 'snipmark hooks install' to install them to .git/hooks")

	return nil
}

func runHooksGenerate(cmd *cobra.Command, args []string) error {
	fmt.Println("🔨 Generating hook scripts from manifest...")

	manifest, err := loadHookManifest()
	if os.IsNotExist(err) {
		return fmt.Errorf("hooks manifest not found. Run 'snipmark hooks init' first")
	}
	if err != nil {
		return err
	}

	if err := os.MkdirAll(hooksGenDir, 0o755); err != nil {
		return fmt.Errorf("failed to create hooks directory: %v", err)
	}

	generated := 0
	for _, hook := range supportedHooks {
		entries, ok := manifest.Hooks[hook]
		if !ok || len(entries) == 0 {
			continue
		}
		script := renderHookScript(hook, entries)
		path := filepath.Join(hooksGenDir, hook)
		if err := os.WriteFile(path, []byte(script), 0o755); err != nil { // #nosec G306 -- hook scripts must be executable
			return fmt.Errorf("failed to create %s hook: %v", hook, err)
		}
		fmt.Printf("📁 Created: %s\n", path)
		generated++
	}

	if generated == 0 {
		return fmt.Errorf("manifest configures no supported hooks (%s)", strings.Join(supportedHooks, ", "))
	}

	fmt.Println("✅ Hook scripts generated")
	fmt.Println("📌 Next: Run 'snipmark hooks install' to install them to .git/hooks")

	return nil
}

// renderHookScript builds the bash script for one git hook from its manifest
// entries. Missing snipmark on PATH skips validation rather than blocking the
// commit.
func renderHookScript(hook string, entries []hookEntry) string {
	var sb strings.Builder
	sb.WriteString("#!/bin/bash\n")
	sb.WriteString("# Generated by snipmark hooks generate\n\n")
	sb.WriteString("set -e\n\n")
	fmt.Fprintf(&sb, "echo \"🔍 Running snipmark %s checks...\"\n\n", hook)
	sb.WriteString("if ! command -v snipmark &> /dev/null; then\n")
	sb.WriteString("    echo \"⚠️  snipmark not found on PATH, skipping snippet validation\"\n")
	sb.WriteString("    echo \"💡 Install snipmark to validate snippets automatically\"\n")
	sb.WriteString("    exit 0\n")
	sb.WriteString("fi\n\n")
	for _, e := range entries {
		line := "snipmark " + e.Command
		if len(e.Args) > 0 {
			line += " " + strings.Join(e.Args, " ")
		}
		sb.WriteString(line + "\n")
	}
	fmt.Fprintf(&sb, "\necho \"✅ Snippet %s checks passed\"\n", hook)
	return sb.String()
}

func runHooksInstall(cmd *cobra.Command, args []string) error {
	fmt.Println("📦 Installing hooks to .git/hooks...")

	if _, err := os.Stat(hooksGenDir); os.IsNotExist(err) {
		return fmt.Errorf("no generated hooks found. Run 'snipmark hooks generate' first")
	}
	if _, err := os.Stat(gitHooksDir); os.IsNotExist(err) {
		return fmt.Errorf(".git/hooks directory not found. Are you in a git repository?")
	}

	installed := 0
	for _, hook := range supportedHooks {
		src := filepath.Join(hooksGenDir, hook)
		dst := filepath.Join(gitHooksDir, hook)

		if _, err := os.Stat(src); err != nil {
			continue
		}

		// Backup existing hook if it exists
		if _, err := os.Stat(dst); err == nil {
			backupPath := dst + ".backup"
			if err := os.Rename(dst, backupPath); err != nil {
				return fmt.Errorf("failed to backup existing %s hook: %v", hook, err)
			}
			fmt.Printf("📋 Backed up existing %s hook to %s\n", hook, backupPath)
		}

		if err := copyHookFile(src, dst); err != nil {
			return fmt.Errorf("failed to install %s hook: %v", hook, err)
		}
		fmt.Printf("✅ Installed %s hook\n", hook)
		installed++
	}

	if installed == 0 {
		return fmt.Errorf("no hooks found to install")
	}

	fmt.Printf("🎯 Successfully installed %d hook(s)\n", installed)
	fmt.Println("💡 Commits will now validate changed snippets automatically")

	return nil
}

// copyHookFile copies a hook script from src to dst, keeping it executable.
func copyHookFile(src, dst string) error {
	data, err := os.ReadFile(src) // #nosec G304 -- src is a fixed path under .snipmark/hooks
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o755) // #nosec G306 -- hooks must be executable
}

func runHooksValidate(cmd *cobra.Command, args []string) error {
	fmt.Println("🔍 Validating hook configuration...")

	manifest, err := loadHookManifest()
	if os.IsNotExist(err) {
		return fmt.Errorf("hooks manifest not found at %s", hooksManifestPath)
	}
	if err != nil {
		return err
	}
	if manifest.Version == "" {
		return fmt.Errorf("hooks manifest missing version")
	}
	for hook, entries := range manifest.Hooks {
		for _, e := range entries {
			if e.Command == "" {
				return fmt.Errorf("%s hook has an entry without a command", hook)
			}
		}
	}
	fmt.Println("✅ Manifest is well-formed")

	for _, hook := range supportedHooks {
		if _, err := os.Stat(filepath.Join(hooksGenDir, hook)); err == nil {
			fmt.Printf("✅ %s script generated\n", hook)
		} else {
			fmt.Printf("⚠️  %s script not generated\n", hook)
		}
		if info, err := os.Stat(filepath.Join(gitHooksDir, hook)); err == nil && (info.Mode()&0o111) != 0 {
			fmt.Printf("✅ %s hook installed and executable\n", hook)
		} else {
			fmt.Printf("⚠️  %s hook not installed\n", hook)
		}
	}

	fmt.Println("✅ Hook configuration validation complete")
	return nil
}

func runHooksRemove(cmd *cobra.Command, args []string) error {
	fmt.Println("🗑️  Removing snipmark hooks...")

	if _, err := os.Stat(gitHooksDir); os.IsNotExist(err) {
		return fmt.Errorf(".git/hooks directory not found")
	}

	for _, hook := range supportedHooks {
		installed := filepath.Join(gitHooksDir, hook)
		backup := installed + ".backup"

		if _, err := os.Stat(installed); err != nil {
			continue
		}
		if err := os.Remove(installed); err != nil {
			return fmt.Errorf("failed to remove %s hook: %v", hook, err)
		}
		fmt.Printf("✅ Removed %s hook\n", hook)

		// Restore backup if it exists
		if _, err := os.Stat(backup); err == nil {
			if err := os.Rename(backup, installed); err != nil {
				return fmt.Errorf("failed to restore %s backup: %v", hook, err)
			}
			fmt.Printf("📋 Restored original %s hook from %s\n", hook, backup)
		}
	}

	fmt.Println("✅ Snipmark hooks removed")
	fmt.Println("💡 Your git hooks have been restored to their previous state")

	return nil
}

func runHooksInspect(cmd *cobra.Command, args []string) error {
	fmt.Println("🔍 Inspecting hook configuration and status...")

	configStatus := "❌ Not found"
	if _, err := os.Stat(hooksManifestPath); err == nil {
		configStatus = "✅ Found"
	}

	status := func(path string, execRequired bool) string {
		info, err := os.Stat(path)
		if err != nil {
			return "❌ Missing"
		}
		if execRequired && (info.Mode()&0o111) == 0 {
			return "⚠️  Present but not executable"
		}
		if execRequired {
			return "✅ Installed & executable"
		}
		return "✅ Present"
	}

	fmt.Println("📊 Current Hook Status:")
	fmt.Printf("├── Manifest: %s\n", configStatus)
	fmt.Println("├── Generated Scripts:")
	for i, hook := range supportedHooks {
		branch := "│   ├──"
		if i == len(supportedHooks)-1 {
			branch = "│   └──"
		}
		fmt.Printf("%s %s: %s\n", branch, hook, status(filepath.Join(hooksGenDir, hook), false))
	}
	fmt.Println("├── Installed Hooks:")
	for i, hook := range supportedHooks {
		branch := "│   ├──"
		if i == len(supportedHooks)-1 {
			branch = "│   └──"
		}
		fmt.Printf("%s %s: %s\n", branch, hook, status(filepath.Join(gitHooksDir, hook), true))
	}

	// Overall health
	healthScore := 0
	total := 1 + 2*len(supportedHooks)
	if configStatus == "✅ Found" {
		healthScore++
	}
	for _, hook := range supportedHooks {
		if _, err := os.Stat(filepath.Join(hooksGenDir, hook)); err == nil {
			healthScore++
		}
		if info, err := os.Stat(filepath.Join(gitHooksDir, hook)); err == nil && (info.Mode()&0o111) != 0 {
			healthScore++
		}
	}

	healthStatus := "❌ Not set up"
	switch {
	case healthScore == total:
		healthStatus = "✅ Good"
	case healthScore >= 1:
		healthStatus = "⚠️  Needs attention"
	}
	fmt.Printf("└── System Health: %s (%d/%d)\n", healthStatus, healthScore, total)

	return nil
}
