// Package config loads and validates the per-repository snippets.toml.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// ConfigFileName is the stem of the project configuration file.
const ConfigFileName = "snippets"

// Filename policies for snippet files (see FilenamePolicy).
const (
	FilenameID   = "id"
	FilenameSlug = "slug"
	FilenameNone = "none"
)

// AutoFields lists the derivable front matter fields that
// auto_update_properties may name, in canonical order. The id field is
// deliberately absent: it is assigned once and never rewritten.
var AutoFields = []string{"slug", "title", "created_at", "updated_at", "created_by", "updated_by"}

// Config holds all configuration for snipmark
type Config struct {
	Project ProjectConfig `mapstructure:"project" toml:"project"`
}

// ProjectConfig is the [project] table of snippets.toml.
type ProjectConfig struct {
	SnippetDirs          []string `mapstructure:"snippet_dirs" toml:"snippet_dirs"`
	SchemaPath           string   `mapstructure:"schema_path" toml:"schema_path"`
	AutoUpdateProperties []string `mapstructure:"auto_update_properties" toml:"auto_update_properties"`
	FilenamePolicy       string   `mapstructure:"filename_policy" toml:"filename_policy"`
}

// Error reports configuration that cannot be loaded or fails validation.
type Error struct {
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %v", e.Detail, e.Err)
	}
	return "config: " + e.Detail
}

func (e *Error) Unwrap() error { return e.Err }

// Default returns the configuration init writes and Load falls back to for
// keys absent from snippets.toml.
func Default() *Config {
	return &Config{
		Project: ProjectConfig{
			SnippetDirs:          []string{"snippets"},
			SchemaPath:           "snippets-schema.json",
			AutoUpdateProperties: append([]string(nil), AutoFields...),
			FilenamePolicy:       FilenameID,
		},
	}
}

// Load reads snippets.toml from the repository root. A missing or invalid
// file is a fatal *Error; keys absent from the file take their defaults, and
// SNIPMARK_-prefixed environment variables override both.
func Load(root string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("project.snippet_dirs", def.Project.SnippetDirs)
	v.SetDefault("project.schema_path", def.Project.SchemaPath)
	v.SetDefault("project.auto_update_properties", def.Project.AutoUpdateProperties)
	v.SetDefault("project.filename_policy", def.Project.FilenamePolicy)

	v.SetConfigName(ConfigFileName)
	v.SetConfigType("toml")
	v.AddConfigPath(root)

	v.SetEnvPrefix("SNIPMARK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, &Error{Detail: "snippets.toml not found (run snipmark init)", Err: err}
		}
		return nil, &Error{Detail: "cannot read snippets.toml", Err: err}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &Error{Detail: "cannot parse snippets.toml", Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the semantic invariants of the configuration.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(&c.Project,
		validation.Field(&c.Project.SnippetDirs,
			validation.Required.Error("snippet_dirs must list at least one directory"),
			validation.Each(validation.Required.Error("snippet_dirs entries must be non-empty")),
		),
		validation.Field(&c.Project.SchemaPath,
			validation.Required.Error("schema_path must be set"),
		),
		validation.Field(&c.Project.AutoUpdateProperties,
			validation.Each(validation.In(autoFieldValues()...).Error("unknown auto_update_properties entry")),
			validation.By(noDuplicates),
		),
		validation.Field(&c.Project.FilenamePolicy,
			validation.Required,
			validation.In(FilenameID, FilenameSlug, FilenameNone).Error(`filename_policy must be "id", "slug", or "none"`),
		),
	)
	if err != nil {
		return &Error{Detail: "invalid snippets.toml", Err: err}
	}
	return nil
}

// SchemaFile resolves the configured schema path against the repository root.
func (c *Config) SchemaFile(root string) string {
	if filepath.IsAbs(c.Project.SchemaPath) {
		return c.Project.SchemaPath
	}
	return filepath.Join(root, c.Project.SchemaPath)
}

// AutoUpdates reports whether the named field is in auto_update_properties.
func (c *Config) AutoUpdates(field string) bool {
	for _, f := range c.Project.AutoUpdateProperties {
		if f == field {
			return true
		}
	}
	return false
}

// StarterTOML renders the default snippets.toml that init writes.
func StarterTOML() ([]byte, error) {
	out, err := toml.Marshal(Default())
	if err != nil {
		return nil, &Error{Detail: "cannot render starter snippets.toml", Err: err}
	}
	return out, nil
}

func autoFieldValues() []interface{} {
	out := make([]interface{}, len(AutoFields))
	for i, f := range AutoFields {
		out[i] = f
	}
	return out
}

func noDuplicates(value interface{}) error {
	fields, ok := value.([]string)
	if !ok {
		return nil
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f] {
			return fmt.Errorf("duplicate auto_update_properties entry: %s", f)
		}
		seen[f] = true
	}
	return nil
}
