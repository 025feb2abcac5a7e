/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package ops

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"
)

// CommandGroup represents the operational classification of commands
type CommandGroup string

const (
	GroupSupport  CommandGroup = "support"  // version, informational output
	GroupUtility  CommandGroup = "utility"  // init, schema management
	GroupWorkflow CommandGroup = "workflow" // hooks orchestration
	GroupSnippets CommandGroup = "snippets" // validate, fix, add, clean
)

// CommandCategory refines a group into a functional slot
type CommandCategory string

const (
	CategoryInformation   CommandCategory = "information"
	CategoryConfiguration CommandCategory = "configuration"
	CategorySchema        CommandCategory = "schema"
	CategoryOrchestration CommandCategory = "orchestration"
	CategoryValidation    CommandCategory = "validation"
	CategoryRemediation   CommandCategory = "remediation"
	CategoryAuthoring     CommandCategory = "authoring"
	CategoryMaintenance   CommandCategory = "maintenance"
)

// CommandCapabilities describes what a command may do to the working tree
type CommandCapabilities struct {
	ModifiesFiles   bool
	SupportsDryRun  bool
	SupportsJSON    bool
	RequiresGitRepo bool
}

// GetDefaultCapabilities returns the expected capabilities for a group/category slot
func GetDefaultCapabilities(group CommandGroup, category CommandCategory) CommandCapabilities {
	caps := CommandCapabilities{}
	switch group {
	case GroupSnippets:
		caps.SupportsJSON = true
		switch category {
		case CategoryRemediation:
			caps.ModifiesFiles = true
			caps.SupportsDryRun = true
			caps.RequiresGitRepo = true
		case CategoryAuthoring, CategoryMaintenance:
			caps.ModifiesFiles = true
		}
	case GroupUtility:
		switch category {
		case CategoryConfiguration:
			caps.ModifiesFiles = true
		case CategorySchema:
			caps.SupportsJSON = true
		}
	case GroupWorkflow:
		caps.ModifiesFiles = true
		caps.RequiresGitRepo = true
	}
	return caps
}

// DefaultCategory returns the category assumed when a command registers
// without explicit taxonomy.
func DefaultCategory(group CommandGroup) CommandCategory {
	switch group {
	case GroupSupport:
		return CategoryInformation
	case GroupUtility:
		return CategoryConfiguration
	case GroupWorkflow:
		return CategoryOrchestration
	case GroupSnippets:
		return CategoryValidation
	default:
		return CategoryInformation
	}
}

// CommandRegistration represents a registered command with its classification
type CommandRegistration struct {
	Name         string
	Group        CommandGroup
	Category     CommandCategory
	Capabilities CommandCapabilities
	Command      *cobra.Command
	Description  string
}

// Registry manages command classifications and registrations
type Registry struct {
	mu         sync.RWMutex
	commands   map[string]*CommandRegistration
	groupIndex map[CommandGroup][]*CommandRegistration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands:   make(map[string]*CommandRegistration),
		groupIndex: make(map[CommandGroup][]*CommandRegistration),
	}
}

// Global registry instance
var globalRegistry = NewRegistry()

// GetRegistry returns the global command registry
func GetRegistry() *Registry {
	return globalRegistry
}

// RegisterCommand registers a command with group-level classification only
func RegisterCommand(name string, group CommandGroup, cmd *cobra.Command, description string) error {
	reg := GetRegistry()
	return reg.Register(name, group, cmd, description)
}

// RegisterCommandWithTaxonomy registers a command with its full classification
func RegisterCommandWithTaxonomy(name string, group CommandGroup, category CommandCategory, capabilities CommandCapabilities, cmd *cobra.Command, description string) error {
	reg := GetRegistry()
	return reg.RegisterWithTaxonomy(name, group, category, capabilities, cmd, description)
}

// Register adds a command using the default category and capabilities for its group
func (r *Registry) Register(name string, group CommandGroup, cmd *cobra.Command, description string) error {
	category := DefaultCategory(group)
	return r.RegisterWithTaxonomy(name, group, category, GetDefaultCapabilities(group, category), cmd, description)
}

// RegisterWithTaxonomy adds a command to the registry
func (r *Registry) RegisterWithTaxonomy(name string, group CommandGroup, category CommandCategory, capabilities CommandCapabilities, cmd *cobra.Command, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("command %s already registered", name)
	}

	registration := &CommandRegistration{
		Name:         name,
		Group:        group,
		Category:     category,
		Capabilities: capabilities,
		Command:      cmd,
		Description:  description,
	}

	r.commands[name] = registration
	r.groupIndex[group] = append(r.groupIndex[group], registration)

	return nil
}

// GetCommand returns a registered command by name
func (r *Registry) GetCommand(name string) (*CommandRegistration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, exists := r.commands[name]
	return cmd, exists
}

// GetCommandsByGroup returns all commands in a specific group
func (r *Registry) GetCommandsByGroup(group CommandGroup) []*CommandRegistration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.groupIndex[group]
}

// GetSnippetCommands returns all commands classified as snippet operations
func (r *Registry) GetSnippetCommands() []*CommandRegistration {
	return r.GetCommandsByGroup(GroupSnippets)
}

// GetAllCommands returns all registered commands
func (r *Registry) GetAllCommands() map[string]*CommandRegistration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*CommandRegistration)
	for k, v := range r.commands {
		result[k] = v
	}
	return result
}

// ListGroups returns all command groups and their command counts
func (r *Registry) ListGroups() map[CommandGroup]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[CommandGroup]int)
	for group, commands := range r.groupIndex {
		result[group] = len(commands)
	}
	return result
}
