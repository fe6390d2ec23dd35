package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harrison/cadbatch/internal/models"
	"github.com/harrison/cadbatch/internal/pathkey"
	"github.com/harrison/cadbatch/internal/planner"
	"github.com/harrison/cadbatch/internal/walker"
)

// DirName is the per-project configuration directory.
const DirName = ".cadbatch"

// TelemetryConfig represents JSONL telemetry configuration
type TelemetryConfig struct {
	// Enabled turns on the telemetry event log
	Enabled bool `yaml:"enabled"`

	// Dir is the directory holding telemetry.jsonl and its rotated backups
	Dir string `yaml:"dir"`

	// MaxSizeMB is the size at which the file is rotated
	MaxSizeMB int `yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files kept
	MaxBackups int `yaml:"max_backups"`

	// MaxAgeDays is the age after which rotated files are removed
	MaxAgeDays int `yaml:"max_age_days"`
}

// Config represents cadbatch configuration options
type Config struct {
	// OutputDir is where exported files go. Empty means an "export" folder
	// next to the root document.
	OutputDir string `yaml:"output_dir"`

	// Formats lists the output kinds produced for every selected component
	Formats []string `yaml:"formats"`

	// IncludeTopLevel exports the root document itself
	IncludeTopLevel bool `yaml:"include_top_level"`

	// IncludeSubassemblies exports containers below the root
	IncludeSubassemblies bool `yaml:"include_subassemblies"`

	// IncludeParts exports leaf documents
	IncludeParts bool `yaml:"include_parts"`

	// IncludeSuppressed also follows suppressed references and documents
	IncludeSuppressed bool `yaml:"include_suppressed"`

	// IncludeContentCenter also exports library (content center) parts
	IncludeContentCenter bool `yaml:"include_content_center"`

	// MaxDepth limits the traversal depth (-1 = unlimited)
	MaxDepth int `yaml:"max_depth"`

	// ContentCenterPatterns classify documents as content center by path
	ContentCenterPatterns []string `yaml:"content_center_patterns"`

	// ExcludePatterns drop matching documents and their subtrees
	ExcludePatterns []string `yaml:"exclude_patterns"`

	// Commands maps an output kind to its converter command template
	Commands map[string]string `yaml:"commands"`

	// ExportOptions holds per-kind converter options
	ExportOptions map[string]map[string]string `yaml:"export_options"`

	// CommandTimeout bounds a single converter run
	CommandTimeout time.Duration `yaml:"command_timeout"`

	// VerifyOutputs checks every produced file after the converter succeeds
	VerifyOutputs bool `yaml:"verify_outputs"`

	// LogLevel sets the console verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is where the export log is written. Empty means the output
	// directory.
	LogDir string `yaml:"log_dir"`

	// ReportHTML writes an HTML run report into the output directory
	ReportHTML bool `yaml:"report_html"`

	// Telemetry contains telemetry configuration
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// contentCenterSet records that the config file listed
	// content_center_patterns, possibly as an empty list.
	contentCenterSet bool
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		OutputDir:             "",
		Formats:               []string{"step"},
		IncludeTopLevel:       true,
		IncludeSubassemblies:  true,
		IncludeParts:          true,
		IncludeSuppressed:     false,
		IncludeContentCenter:  false,
		MaxDepth:              walker.Unbounded,
		ContentCenterPatterns: append([]string(nil), pathkey.DefaultContentCenterPatterns...),
		CommandTimeout:        10 * time.Minute,
		VerifyOutputs:         true,
		LogLevel:              "info",
		LogDir:                "",
		ReportHTML:            true,
		Telemetry: TelemetryConfig{
			Enabled:    false,
			Dir:        filepath.Join(DirName, "telemetry"),
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Pointer fields tell an explicit false or zero from a missing key.
	type yamlTelemetry struct {
		Enabled    *bool   `yaml:"enabled"`
		Dir        *string `yaml:"dir"`
		MaxSizeMB  *int    `yaml:"max_size_mb"`
		MaxBackups *int    `yaml:"max_backups"`
		MaxAgeDays *int    `yaml:"max_age_days"`
	}
	type yamlConfig struct {
		OutputDir             string                       `yaml:"output_dir"`
		Formats               []string                     `yaml:"formats"`
		IncludeTopLevel       *bool                        `yaml:"include_top_level"`
		IncludeSubassemblies  *bool                        `yaml:"include_subassemblies"`
		IncludeParts          *bool                        `yaml:"include_parts"`
		IncludeSuppressed     *bool                        `yaml:"include_suppressed"`
		IncludeContentCenter  *bool                        `yaml:"include_content_center"`
		MaxDepth              *int                         `yaml:"max_depth"`
		ContentCenterPatterns []string                     `yaml:"content_center_patterns"`
		ExcludePatterns       []string                     `yaml:"exclude_patterns"`
		Commands              map[string]string            `yaml:"commands"`
		ExportOptions         map[string]map[string]string `yaml:"export_options"`
		CommandTimeout        string                       `yaml:"command_timeout"`
		VerifyOutputs         *bool                        `yaml:"verify_outputs"`
		LogLevel              string                       `yaml:"log_level"`
		LogDir                string                       `yaml:"log_dir"`
		ReportHTML            *bool                        `yaml:"report_html"`
		Telemetry             yamlTelemetry                `yaml:"telemetry"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.OutputDir != "" {
		cfg.OutputDir = yamlCfg.OutputDir
	}
	if yamlCfg.Formats != nil {
		cfg.Formats = yamlCfg.Formats
	}
	setBool(&cfg.IncludeTopLevel, yamlCfg.IncludeTopLevel)
	setBool(&cfg.IncludeSubassemblies, yamlCfg.IncludeSubassemblies)
	setBool(&cfg.IncludeParts, yamlCfg.IncludeParts)
	setBool(&cfg.IncludeSuppressed, yamlCfg.IncludeSuppressed)
	setBool(&cfg.IncludeContentCenter, yamlCfg.IncludeContentCenter)
	if yamlCfg.MaxDepth != nil {
		cfg.MaxDepth = *yamlCfg.MaxDepth
	}
	// An explicit empty list disables content center classification by path.
	if yamlCfg.ContentCenterPatterns != nil {
		cfg.ContentCenterPatterns = yamlCfg.ContentCenterPatterns
		cfg.contentCenterSet = true
	}
	if yamlCfg.ExcludePatterns != nil {
		cfg.ExcludePatterns = yamlCfg.ExcludePatterns
	}
	if yamlCfg.Commands != nil {
		cfg.Commands = yamlCfg.Commands
	}
	if yamlCfg.ExportOptions != nil {
		cfg.ExportOptions = yamlCfg.ExportOptions
	}
	if yamlCfg.CommandTimeout != "" {
		timeout, err := time.ParseDuration(yamlCfg.CommandTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid command_timeout format %q: %w", yamlCfg.CommandTimeout, err)
		}
		cfg.CommandTimeout = timeout
	}
	setBool(&cfg.VerifyOutputs, yamlCfg.VerifyOutputs)
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	setBool(&cfg.ReportHTML, yamlCfg.ReportHTML)

	t := yamlCfg.Telemetry
	setBool(&cfg.Telemetry.Enabled, t.Enabled)
	if t.Dir != nil {
		cfg.Telemetry.Dir = *t.Dir
	}
	if t.MaxSizeMB != nil {
		cfg.Telemetry.MaxSizeMB = *t.MaxSizeMB
	}
	if t.MaxBackups != nil {
		cfg.Telemetry.MaxBackups = *t.MaxBackups
	}
	if t.MaxAgeDays != nil {
		cfg.Telemetry.MaxAgeDays = *t.MaxAgeDays
	}

	return cfg, nil
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// LoadConfigFromDir loads configuration from .cadbatch/config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	configPath := filepath.Join(dir, DirName, "config.yaml")
	return LoadConfig(configPath)
}

// Flags carries command-line overrides. A nil field means the flag was not
// given and the configured value stays.
type Flags struct {
	OutputDir            *string
	Formats              *[]string
	IncludeTopLevel      *bool
	IncludeSubassemblies *bool
	IncludeParts         *bool
	IncludeSuppressed    *bool
	IncludeContentCenter *bool
	MaxDepth             *int
	ExcludePatterns      *[]string
	VerifyOutputs        *bool
	LogLevel             *string
	LogDir               *string
	ReportHTML           *bool
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(f Flags) {
	if f.OutputDir != nil {
		c.OutputDir = *f.OutputDir
	}
	if f.Formats != nil {
		c.Formats = *f.Formats
	}
	setBool(&c.IncludeTopLevel, f.IncludeTopLevel)
	setBool(&c.IncludeSubassemblies, f.IncludeSubassemblies)
	setBool(&c.IncludeParts, f.IncludeParts)
	setBool(&c.IncludeSuppressed, f.IncludeSuppressed)
	setBool(&c.IncludeContentCenter, f.IncludeContentCenter)
	if f.MaxDepth != nil {
		c.MaxDepth = *f.MaxDepth
	}
	if f.ExcludePatterns != nil {
		c.ExcludePatterns = *f.ExcludePatterns
	}
	setBool(&c.VerifyOutputs, f.VerifyOutputs)
	if f.LogLevel != nil {
		c.LogLevel = *f.LogLevel
	}
	if f.LogDir != nil {
		c.LogDir = *f.LogDir
	}
	setBool(&c.ReportHTML, f.ReportHTML)
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	kinds, err := c.Kinds()
	if err != nil {
		return fmt.Errorf("invalid formats: %w", err)
	}
	if len(kinds) == 0 {
		return fmt.Errorf("formats must name at least one output kind")
	}

	if !c.IncludeTopLevel && !c.IncludeSubassemblies && !c.IncludeParts {
		return fmt.Errorf("nothing to export: include_top_level, include_subassemblies and include_parts are all false")
	}

	if c.MaxDepth < walker.Unbounded {
		return fmt.Errorf("max_depth must be >= -1, got %d", c.MaxDepth)
	}

	for name := range c.Commands {
		if _, ok := models.LookupKind(name); !ok {
			return fmt.Errorf("commands: unknown output kind %q", name)
		}
	}
	for name := range c.ExportOptions {
		if _, ok := models.LookupKind(name); !ok {
			return fmt.Errorf("export_options: unknown output kind %q", name)
		}
	}

	if c.CommandTimeout < 0 {
		return fmt.Errorf("command_timeout must be >= 0, got %v", c.CommandTimeout)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.Dir == "" {
			return fmt.Errorf("telemetry.dir cannot be empty when telemetry is enabled")
		}
		if c.Telemetry.MaxSizeMB <= 0 {
			return fmt.Errorf("telemetry.max_size_mb must be > 0, got %d", c.Telemetry.MaxSizeMB)
		}
		if c.Telemetry.MaxBackups < 0 {
			return fmt.Errorf("telemetry.max_backups must be >= 0, got %d", c.Telemetry.MaxBackups)
		}
		if c.Telemetry.MaxAgeDays < 0 {
			return fmt.Errorf("telemetry.max_age_days must be >= 0, got %d", c.Telemetry.MaxAgeDays)
		}
	}

	return nil
}

// Kinds parses Formats.
func (c *Config) Kinds() ([]models.OutputKind, error) {
	return models.ParseKinds(c.Formats)
}

// WalkOptions returns the traversal options described by the config.
func (c *Config) WalkOptions() walker.Options {
	opts := walker.DefaultOptions()
	opts.IncludeSuppressed = c.IncludeSuppressed
	opts.IncludeContentCenter = c.IncludeContentCenter
	opts.MaxDepth = c.MaxDepth
	opts.IncludeContainers = c.IncludeSubassemblies
	opts.IncludeLeaves = c.IncludeParts
	if len(c.ExcludePatterns) > 0 {
		opts.Exclude = pathkey.NewMatcher(c.ExcludePatterns...)
	}
	return opts
}

// Selection returns the component classes selected for export.
func (c *Config) Selection() planner.Selection {
	return planner.Selection{
		Root:       c.IncludeTopLevel,
		Containers: c.IncludeSubassemblies,
		Leaves:     c.IncludeParts,
	}
}

// ContentCenterMatcher compiles ContentCenterPatterns. It returns nil when
// the config file did not set them, leaving the choice to the manifest.
func (c *Config) ContentCenterMatcher() *pathkey.Matcher {
	if !c.contentCenterSet {
		return nil
	}
	return pathkey.NewMatcher(c.ContentCenterPatterns...)
}

// CommandTemplates returns the converter templates keyed by output kind.
// Validate rejects unknown kind names, so they are skipped here.
func (c *Config) CommandTemplates() map[models.OutputKind]string {
	out := make(map[models.OutputKind]string, len(c.Commands))
	for name, tmpl := range c.Commands {
		if spec, ok := models.LookupKind(name); ok {
			out[spec.Kind] = tmpl
		}
	}
	return out
}

// KindOptions returns the export options keyed by output kind.
func (c *Config) KindOptions() map[models.OutputKind]map[string]string {
	out := make(map[models.OutputKind]map[string]string, len(c.ExportOptions))
	for name, opts := range c.ExportOptions {
		if spec, ok := models.LookupKind(name); ok {
			out[spec.Kind] = opts
		}
	}
	return out
}

// Settings lists the effective selection settings for the export log, in a
// fixed order.
func (c *Config) Settings() []models.Setting {
	depth := "unlimited"
	if c.MaxDepth >= 0 {
		depth = fmt.Sprintf("%d", c.MaxDepth)
	}
	exclude := "(none)"
	if len(c.ExcludePatterns) > 0 {
		patterns := append([]string(nil), c.ExcludePatterns...)
		sort.Strings(patterns)
		exclude = strings.Join(patterns, ", ")
	}
	return []models.Setting{
		{Name: "Formats", Value: strings.Join(c.Formats, ", ")},
		{Name: "Top level", Value: yesNo(c.IncludeTopLevel)},
		{Name: "Subassemblies", Value: yesNo(c.IncludeSubassemblies)},
		{Name: "Parts", Value: yesNo(c.IncludeParts)},
		{Name: "Suppressed", Value: yesNo(c.IncludeSuppressed)},
		{Name: "Content center", Value: yesNo(c.IncludeContentCenter)},
		{Name: "Max depth", Value: depth},
		{Name: "Exclude", Value: exclude},
		{Name: "Verify outputs", Value: yesNo(c.VerifyOutputs)},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
