/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package ops

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// registerCoreTable fills a registry with the shipped command table, the
// same way the cmd package does at init.
func registerCoreTable(t *testing.T, r *Registry) {
	t.Helper()
	for name, s := range DefaultTaxonomy().core {
		caps := GetDefaultCapabilities(s.group, s.category)
		if err := r.RegisterWithTaxonomy(name, s.group, s.category, caps, &cobra.Command{Use: name}, name+" command"); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
}

func TestRegisterUsesGroupDefaults(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("hooks install", GroupWorkflow, &cobra.Command{Use: "install"}, "Install generated hooks"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	reg, ok := r.GetCommand("hooks install")
	if !ok {
		t.Fatal("registered command not found")
	}
	if reg.Category != CategoryOrchestration {
		t.Errorf("category = %s, want %s", reg.Category, CategoryOrchestration)
	}
	if !reg.Capabilities.ModifiesFiles || !reg.Capabilities.RequiresGitRepo {
		t.Errorf("workflow defaults not applied: %+v", reg.Capabilities)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	cmd := &cobra.Command{Use: "validate"}
	if err := r.Register("validate", GroupSnippets, cmd, ""); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	err := r.Register("validate", GroupSnippets, cmd, "")
	if err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Errorf("duplicate Register() error = %v", err)
	}
}

func TestGetDefaultCapabilities(t *testing.T) {
	tests := []struct {
		name     string
		group    CommandGroup
		category CommandCategory
		want     CommandCapabilities
	}{
		{
			name:     "remediation gets dry-run and git",
			group:    GroupSnippets,
			category: CategoryRemediation,
			want:     CommandCapabilities{ModifiesFiles: true, SupportsDryRun: true, SupportsJSON: true, RequiresGitRepo: true},
		},
		{
			name:     "validation is read-only",
			group:    GroupSnippets,
			category: CategoryValidation,
			want:     CommandCapabilities{SupportsJSON: true},
		},
		{
			name:     "authoring writes files",
			group:    GroupSnippets,
			category: CategoryAuthoring,
			want:     CommandCapabilities{ModifiesFiles: true, SupportsJSON: true},
		},
		{
			name:     "configuration scaffolds",
			group:    GroupUtility,
			category: CategoryConfiguration,
			want:     CommandCapabilities{ModifiesFiles: true},
		},
		{
			name:     "schema utilities emit JSON",
			group:    GroupUtility,
			category: CategorySchema,
			want:     CommandCapabilities{SupportsJSON: true},
		},
		{
			name:     "workflow touches the git dir",
			group:    GroupWorkflow,
			category: CategoryOrchestration,
			want:     CommandCapabilities{ModifiesFiles: true, RequiresGitRepo: true},
		},
		{
			name:     "support is inert",
			group:    GroupSupport,
			category: CategoryInformation,
			want:     CommandCapabilities{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetDefaultCapabilities(tt.group, tt.category); got != tt.want {
				t.Errorf("GetDefaultCapabilities(%s, %s) = %+v, want %+v", tt.group, tt.category, got, tt.want)
			}
		})
	}
}

func TestGroupIndex(t *testing.T) {
	r := NewRegistry()
	registerCoreTable(t, r)

	snippets := r.GetSnippetCommands()
	if len(snippets) != 4 {
		t.Fatalf("GetSnippetCommands() returned %d commands, want 4", len(snippets))
	}
	seen := map[string]bool{}
	for _, reg := range snippets {
		seen[reg.Name] = true
	}
	for _, want := range []string{"validate", "fix", "add", "clean"} {
		if !seen[want] {
			t.Errorf("snippet group missing %q", want)
		}
	}

	counts := r.ListGroups()
	if counts[GroupSnippets] != 4 || counts[GroupUtility] != 2 || counts[GroupWorkflow] != 1 || counts[GroupSupport] != 1 {
		t.Errorf("ListGroups() = %v", counts)
	}
}

func TestGetAllCommandsCopies(t *testing.T) {
	r := NewRegistry()
	registerCoreTable(t, r)

	all := r.GetAllCommands()
	delete(all, "validate")
	if _, ok := r.GetCommand("validate"); !ok {
		t.Error("mutating GetAllCommands() result changed the registry")
	}
}

func TestTaxonomyCheckCleanTable(t *testing.T) {
	r := NewRegistry()
	registerCoreTable(t, r)

	issues := DefaultTaxonomy().Check(r)
	if len(issues) != 0 {
		t.Errorf("shipped table should audit clean:\n%s", FormatIssues(issues))
	}
}

func TestTaxonomyCheckMissingCoreCommand(t *testing.T) {
	r := NewRegistry()
	for name, s := range DefaultTaxonomy().core {
		if name == "fix" {
			continue
		}
		caps := GetDefaultCapabilities(s.group, s.category)
		if err := r.RegisterWithTaxonomy(name, s.group, s.category, caps, &cobra.Command{Use: name}, ""); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	issues := Errors(DefaultTaxonomy().Check(r))
	if len(issues) != 1 {
		t.Fatalf("expected one error, got:\n%s", FormatIssues(issues))
	}
	if issues[0].Command != "fix" || !strings.Contains(issues[0].Detail, "not registered") {
		t.Errorf("unexpected issue: %s", issues[0])
	}
}

func TestTaxonomyCheckWrongSlot(t *testing.T) {
	// Register validate under remediation instead of validation.
	r := NewRegistry()
	for name, s := range DefaultTaxonomy().core {
		group, category := s.group, s.category
		if name == "validate" {
			category = CategoryRemediation
		}
		caps := GetDefaultCapabilities(group, category)
		if err := r.RegisterWithTaxonomy(name, group, category, caps, &cobra.Command{Use: name}, ""); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	issues := Errors(DefaultTaxonomy().Check(r))
	found := false
	for _, i := range issues {
		if i.Command == "validate" && strings.Contains(i.Detail, "expected validation") {
			found = true
		}
	}
	if !found {
		t.Errorf("mis-slotted validate not reported:\n%s", FormatIssues(issues))
	}
}

func TestTaxonomyCheckExtensionWarning(t *testing.T) {
	r := NewRegistry()
	registerCoreTable(t, r)
	if err := r.Register("hooks upgrade", GroupWorkflow, &cobra.Command{Use: "upgrade"}, ""); err != nil {
		t.Fatalf("register extension: %v", err)
	}

	issues := DefaultTaxonomy().Check(r)
	if len(Errors(issues)) != 0 {
		t.Errorf("extension command must not be a hard failure:\n%s", FormatIssues(issues))
	}

	warned := false
	for _, i := range issues {
		if i.Severity == SeverityWarning && i.Command == "hooks upgrade" {
			warned = true
		}
	}
	if !warned {
		t.Errorf("extension command not flagged:\n%s", FormatIssues(issues))
	}
}

func TestTaxonomyCheckCapabilityDrift(t *testing.T) {
	r := NewRegistry()
	for name, s := range DefaultTaxonomy().core {
		caps := GetDefaultCapabilities(s.group, s.category)
		if name == "fix" {
			caps.SupportsDryRun = false
		}
		if err := r.RegisterWithTaxonomy(name, s.group, s.category, caps, &cobra.Command{Use: name}, ""); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	issues := Errors(DefaultTaxonomy().Check(r))
	found := false
	for _, i := range issues {
		if i.Command == "fix" && strings.Contains(i.Detail, "dry-run") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing dry-run capability not reported:\n%s", FormatIssues(issues))
	}
}

func TestFormatIssues(t *testing.T) {
	if got := FormatIssues(nil); got != "taxonomy clean" {
		t.Errorf("FormatIssues(nil) = %q", got)
	}

	out := FormatIssues([]Issue{
		{SeverityError, "fix", "remediation commands must support dry-run"},
		{SeverityWarning, "hooks upgrade", "not a core command"},
	})
	if !strings.Contains(out, "error: fix:") || !strings.Contains(out, "warning: hooks upgrade:") {
		t.Errorf("FormatIssues() = %q", out)
	}
}
