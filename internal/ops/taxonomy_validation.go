/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package ops

import (
	"fmt"
	"sort"
	"strings"
)

// Severity ranks a taxonomy issue.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Issue reports one command registration that violates the CLI taxonomy.
type Issue struct {
	Severity Severity
	Command  string
	Detail   string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Command, i.Detail)
}

type slot struct {
	group    CommandGroup
	category CommandCategory
}

// Taxonomy pins down which commands snipmark ships and where each one sits.
// The registry accepts any registration; Check is what keeps the command
// surface from drifting as subcommands are added.
type Taxonomy struct {
	core       map[string]slot
	categories map[CommandGroup][]CommandCategory
}

// DefaultTaxonomy returns the shipped snipmark command classification.
func DefaultTaxonomy() *Taxonomy {
	return &Taxonomy{
		core: map[string]slot{
			"validate": {GroupSnippets, CategoryValidation},
			"fix":      {GroupSnippets, CategoryRemediation},
			"add":      {GroupSnippets, CategoryAuthoring},
			"clean":    {GroupSnippets, CategoryMaintenance},
			"init":     {GroupUtility, CategoryConfiguration},
			"schema":   {GroupUtility, CategorySchema},
			"hooks":    {GroupWorkflow, CategoryOrchestration},
			"version":  {GroupSupport, CategoryInformation},
		},
		categories: map[CommandGroup][]CommandCategory{
			GroupSupport:  {CategoryInformation},
			GroupUtility:  {CategoryConfiguration, CategorySchema},
			GroupWorkflow: {CategoryOrchestration},
			GroupSnippets: {CategoryValidation, CategoryRemediation, CategoryAuthoring, CategoryMaintenance},
		},
	}
}

// Check audits a registry against the taxonomy. Core commands must be
// present in their expected slot, every registration must use a known
// group/category pair, and capabilities must match what the category
// implies. Unknown command names come back as warnings so plugins and
// experiments do not fail the audit outright.
func (t *Taxonomy) Check(reg *Registry) []Issue {
	var issues []Issue

	all := reg.GetAllCommands()

	names := make([]string, 0, len(t.core))
	for name := range t.core {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		expected := t.core[name]
		got, ok := reg.GetCommand(name)
		if !ok {
			issues = append(issues, Issue{SeverityError, name, "core command is not registered"})
			continue
		}
		if got.Group != expected.group {
			issues = append(issues, Issue{SeverityError, name,
				fmt.Sprintf("registered under group %s, expected %s", got.Group, expected.group)})
		}
		if got.Category != expected.category {
			issues = append(issues, Issue{SeverityError, name,
				fmt.Sprintf("registered as %s, expected %s", got.Category, expected.category)})
		}
	}

	regNames := make([]string, 0, len(all))
	for name := range all {
		regNames = append(regNames, name)
	}
	sort.Strings(regNames)
	for _, name := range regNames {
		cmd := all[name]
		allowed, known := t.categories[cmd.Group]
		if !known {
			issues = append(issues, Issue{SeverityError, name,
				fmt.Sprintf("unknown group %s", cmd.Group)})
			continue
		}
		if !containsCategory(allowed, cmd.Category) {
			issues = append(issues, Issue{SeverityError, name,
				fmt.Sprintf("category %s is not valid for group %s", cmd.Category, cmd.Group)})
		}
		issues = append(issues, t.checkCapabilities(name, cmd)...)
		if _, isCore := t.core[name]; !isCore {
			issues = append(issues, Issue{SeverityWarning, name, "not a core command"})
		}
	}

	return issues
}

// checkCapabilities enforces what a category implies about the working
// tree. A remediation command without dry-run support would let hooks
// rewrite snippets with no preview, so these are errors, not warnings.
func (t *Taxonomy) checkCapabilities(name string, cmd *CommandRegistration) []Issue {
	var issues []Issue
	caps := cmd.Capabilities
	switch cmd.Category {
	case CategoryRemediation:
		if !caps.SupportsDryRun {
			issues = append(issues, Issue{SeverityError, name, "remediation commands must support dry-run"})
		}
		if !caps.ModifiesFiles {
			issues = append(issues, Issue{SeverityError, name, "remediation commands modify files"})
		}
	case CategoryValidation:
		if caps.ModifiesFiles {
			issues = append(issues, Issue{SeverityError, name, "validation commands must not modify files"})
		}
	case CategoryAuthoring, CategoryMaintenance:
		if !caps.ModifiesFiles {
			issues = append(issues, Issue{SeverityError, name, "authoring and maintenance commands modify files"})
		}
	}
	return issues
}

func containsCategory(allowed []CommandCategory, category CommandCategory) bool {
	for _, c := range allowed {
		if c == category {
			return true
		}
	}
	return false
}

// Errors keeps only the hard failures from an audit.
func Errors(issues []Issue) []Issue {
	var out []Issue
	for _, i := range issues {
		if i.Severity == SeverityError {
			out = append(out, i)
		}
	}
	return out
}

// FormatIssues renders an audit result for test failures and debug output.
func FormatIssues(issues []Issue) string {
	if len(issues) == 0 {
		return "taxonomy clean"
	}
	lines := make([]string, 0, len(issues))
	for _, i := range issues {
		lines = append(lines, i.String())
	}
	return strings.Join(lines, "\n")
}
