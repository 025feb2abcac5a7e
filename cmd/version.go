/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/fulmenhq/snipmark/internal/ops"
	"github.com/fulmenhq/snipmark/pkg/buildinfo"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show snipmark version and build information",
	Long: `Version reports the snipmark binary version. Development builds fall back
to the VERSION file or the latest git tag of the working tree.`,
	RunE: runVersion,
}

func init() {
	caps := ops.GetDefaultCapabilities(ops.GroupSupport, ops.CategoryInformation)
	if err := ops.RegisterCommandWithTaxonomy("version", ops.GroupSupport, ops.CategoryInformation, caps, versionCmd, "Show snipmark version and build information"); err != nil {
		panic(fmt.Sprintf("Failed to register version command: %v", err))
	}

	versionCmd.Flags().Bool("extended", false, "Show detailed build and git information")
	versionCmd.Flags().Bool("json", false, "Output version information in JSON format")
}

// versionPayload is the `version --json` shape.
type versionPayload struct {
	Version   string    `json:"version"`
	Source    string    `json:"source"`
	GoVersion string    `json:"goVersion"`
	Platform  string    `json:"platform"`
	Arch      string    `json:"arch"`
	Git       *gitState `json:"git,omitempty"`
}

type gitState struct {
	Commit string `json:"commit"`
	Branch string `json:"branch"`
	Dirty  bool   `json:"dirty"`
}

func runVersion(cmd *cobra.Command, args []string) error {
	extended, _ := cmd.Flags().GetBool("extended")
	asJSON, _ := cmd.Flags().GetBool("json")

	version, source := resolveVersion()
	payload := versionPayload{
		Version:   version,
		Source:    source,
		GoVersion: buildinfo.GoVersion(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	if extended {
		payload.Git = currentGitState()
	}

	out := cmd.OutOrStdout()
	if asJSON {
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %v", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "snipmark %s\n", payload.Version)
	fmt.Fprintf(out, "Source: %s\n", payload.Source)
	if extended {
		if payload.Git == nil {
			fmt.Fprintln(out, "Git: unavailable")
		} else {
			fmt.Fprintf(out, "Git commit: %s\n", payload.Git.Commit)
			fmt.Fprintf(out, "Git branch: %s\n", payload.Git.Branch)
			status := "clean"
			if payload.Git.Dirty {
				status = "dirty (uncommitted changes)"
			}
			fmt.Fprintf(out, "Git status: %s\n", status)
		}
	}
	fmt.Fprintf(out, "Go version: %s\n", buildinfo.GoVersion())
	fmt.Fprintf(out, "Platform: %s\n", buildinfo.Platform())
	return nil
}

// resolveVersion picks the version to report. Release builds carry it in
// buildinfo via ldflags; module installs carry the toolchain-stamped module
// version; development builds fall back to the VERSION file, then the latest
// git tag.
func resolveVersion() (version, source string) {
	if buildinfo.BinaryVersion != "" && buildinfo.BinaryVersion != "dev" {
		return buildinfo.BinaryVersion, "build"
	}
	if v := buildinfo.ModuleVersion(); v != "" {
		return v, "go module"
	}
	if v, err := readVersionFromFile("VERSION"); err == nil && v != "" {
		return v, "VERSION file"
	}
	if v, err := latestGitTag(); err == nil {
		return v, "git tag"
	}
	return buildinfo.BinaryVersion, "default"
}

func readVersionFromFile(filename string) (string, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(content)), nil
}

// latestGitTag finds the newest semver-looking tag, with or without the v
// prefix.
func latestGitTag() (string, error) {
	for _, match := range []string{"v[0-9]*.[0-9]*.[0-9]*", "[0-9]*.[0-9]*.[0-9]*"} {
		if tag, err := gitOutput("describe", "--tags", "--abbrev=0", "--match", match); err == nil && tag != "" {
			return tag, nil
		}
	}
	return "", fmt.Errorf("no release tags found")
}

// currentGitState snapshots the working tree, or nil outside a repository.
func currentGitState() *gitState {
	commit, err := gitOutput("rev-parse", "HEAD")
	if err != nil {
		return nil
	}
	branch, _ := gitOutput("rev-parse", "--abbrev-ref", "HEAD")
	status, _ := gitOutput("status", "--porcelain")
	return &gitState{Commit: shortCommit(commit), Branch: branch, Dirty: status != ""}
}

func gitOutput(args ...string) (string, error) {
	out, err := exec.Command("git", args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func shortCommit(commit string) string {
	if len(commit) < 8 {
		return "unknown"
	}
	return commit[:8]
}
