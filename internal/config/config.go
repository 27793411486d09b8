// Package config provides job configuration types, defaults and loading for
// hierpcb.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Pairing modes select how template footprints find their targets.
const (
	PairBySheet     = "sheet"     // hierarchical sheet path (default)
	PairByReference = "reference" // renamed reference designator
	PairExplicit    = "explicit"  // explicit reference map
)

// TargetConfig describes one instance the template is replicated onto.
type TargetConfig struct {
	Board  string `mapstructure:"board" yaml:"board"`
	Anchor string `mapstructure:"anchor" yaml:"anchor"`
	Group  string `mapstructure:"group" yaml:"group"`
	// Output overrides where the board is written. Empty writes in place.
	Output string `mapstructure:"output" yaml:"output,omitempty"`

	Pairing string `mapstructure:"pairing" yaml:"pairing,omitempty"`
	// Sheet is the schematic sheet path of the instance. When empty it is
	// derived from the anchor pair.
	Sheet           string            `mapstructure:"sheet" yaml:"sheet,omitempty"`
	ReferenceOffset int               `mapstructure:"reference_offset" yaml:"reference_offset,omitempty"`
	ReferencePrefix string            `mapstructure:"reference_prefix" yaml:"reference_prefix,omitempty"`
	ReferenceSuffix string            `mapstructure:"reference_suffix" yaml:"reference_suffix,omitempty"`
	References      map[string]string `mapstructure:"references" yaml:"references,omitempty"`
}

// Config holds all configuration options for a replication job.
type Config struct {
	Template string `mapstructure:"template" yaml:"template"`
	Anchor   string `mapstructure:"anchor" yaml:"anchor"`
	// TemplateGroup restricts the template to one group, for boards that
	// carry template and targets side by side.
	TemplateGroup string         `mapstructure:"template_group" yaml:"template_group,omitempty"`
	Targets       []TargetConfig `mapstructure:"targets" yaml:"targets"`

	Watch    bool          `mapstructure:"watch" yaml:"watch"`
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
	DryRun   bool          `mapstructure:"dry_run" yaml:"dry_run"`
	// LogFile writes a log next to each target board, named
	// <board>.hierpcb.log.
	LogFile bool `mapstructure:"log_file" yaml:"log_file"`
	Verbose bool `mapstructure:"verbose" yaml:"verbose"`
}

// Defaults returns the configuration used when no file or flag says otherwise.
func Defaults() Config {
	return Config{
		Debounce: 500 * time.Millisecond,
	}
}

// SetDefaults registers the defaults on v.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("watch", d.Watch)
	v.SetDefault("debounce", d.Debounce)
	v.SetDefault("dry_run", d.DryRun)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("verbose", d.Verbose)
}

// NewViper returns a viper instance holding the defaults.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

// Load reads the YAML file at path over the defaults. Relative board paths
// are resolved against the directory of the file.
func Load(path string) (Config, error) {
	return Read(NewViper(), path)
}

// Read decodes the settings held by v after reading the YAML file at path
// into it. An empty path decodes v alone.
func Read(v *viper.Viper, path string) (Config, error) {
	if path == "" {
		return Decode(v)
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := Decode(v)
	if err != nil {
		return Config{}, err
	}
	if err := restoreReferenceCase(path, &cfg); err != nil {
		return Config{}, err
	}
	cfg.Resolve(filepath.Dir(path))
	return cfg, nil
}

// Decode unmarshals the settings held by v.
func Decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// restoreReferenceCase re-reads the reference maps from the raw file, since
// viper folds map keys to lower case and designators are case sensitive.
func restoreReferenceCase(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	var raw struct {
		Targets []struct {
			References map[string]string `yaml:"references"`
		} `yaml:"targets"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	for i := range cfg.Targets {
		if i < len(raw.Targets) && len(raw.Targets[i].References) > 0 {
			cfg.Targets[i].References = raw.Targets[i].References
		}
	}
	return nil
}

// Resolve makes relative board paths relative to dir.
func (c *Config) Resolve(dir string) {
	c.Template = resolvePath(dir, c.Template)
	for i := range c.Targets {
		c.Targets[i].Board = resolvePath(dir, c.Targets[i].Board)
		c.Targets[i].Output = resolvePath(dir, c.Targets[i].Output)
	}
}

func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	var errs []error
	if c.Template == "" {
		errs = append(errs, errors.New("template is required"))
	}
	if c.Anchor == "" {
		errs = append(errs, errors.New("anchor is required"))
	}
	if len(c.Targets) == 0 {
		errs = append(errs, errors.New("at least one target is required"))
	}
	if c.Debounce < 0 {
		errs = append(errs, fmt.Errorf("debounce must not be negative, got %s", c.Debounce))
	}

	groups := make(map[string]int)
	outputs := make(map[string]string)
	for i, t := range c.Targets {
		if err := t.validate(); err != nil {
			errs = append(errs, fmt.Errorf("target %d: %w", i, err))
		}
		key := t.Board + "\x00" + t.Group
		if prev, dup := groups[key]; dup && t.Group != "" {
			errs = append(errs, fmt.Errorf("target %d: group %q on %s is already used by target %d", i, t.Group, t.Board, prev))
		}
		groups[key] = i
		if out, seen := outputs[t.Board]; seen && out != t.OutputPath() {
			errs = append(errs, fmt.Errorf("target %d: %s is written to both %s and %s", i, t.Board, out, t.OutputPath()))
		}
		outputs[t.Board] = t.OutputPath()
		if t.Board != "" && filepath.Clean(t.Board) == filepath.Clean(c.Template) {
			switch {
			case c.TemplateGroup == "":
				errs = append(errs, fmt.Errorf("target %d: template_group is required when the target board is the template", i))
			case t.Group == c.TemplateGroup:
				errs = append(errs, fmt.Errorf("target %d: group %q is the template group", i, t.Group))
			}
		}
	}
	return errors.Join(errs...)
}

func (t TargetConfig) validate() error {
	var errs []error
	if t.Board == "" {
		errs = append(errs, errors.New("board is required"))
	}
	if t.Anchor == "" {
		errs = append(errs, errors.New("anchor is required"))
	}
	if t.Group == "" {
		errs = append(errs, errors.New("group is required"))
	}
	switch t.PairingMode() {
	case PairBySheet, PairByReference:
	case PairExplicit:
		if len(t.References) == 0 {
			errs = append(errs, errors.New("references are required for explicit pairing"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid pairing %q (must be %q, %q or %q)",
			t.Pairing, PairBySheet, PairByReference, PairExplicit))
	}
	return errors.Join(errs...)
}

// PairingMode returns the pairing mode, defaulting to sheet pairing.
func (t TargetConfig) PairingMode() string {
	if t.Pairing == "" {
		return PairBySheet
	}
	return strings.ToLower(t.Pairing)
}

// OutputPath returns where the target board is written.
func (t TargetConfig) OutputPath() string {
	if t.Output != "" {
		return t.Output
	}
	return t.Board
}

// Dump renders the configuration as YAML.
func Dump(c Config) ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return out, nil
}

// DefaultConfigTemplate returns a commented example configuration.
func DefaultConfigTemplate() string {
	return `# hierpcb replication job
#
# The template is a board holding one instance of a sub-layout. Each target
# names a board, the footprint that corresponds to the template anchor, and
# the group the replicated items are collected in.

template: amp.kicad_pcb
anchor: R1

targets:
  - board: main.kicad_pcb
    anchor: R101
    group: ch1
    # sheet (default) pairs footprints through their hierarchical sheet path,
    # reference renames template references, explicit uses a fixed map.
    pairing: sheet
  - board: main.kicad_pcb
    anchor: R201
    group: ch2
    pairing: reference
    reference_offset: 200

# Re-run whenever the template board changes.
watch: false
debounce: 500ms

# Write <board>.hierpcb.log next to each target board.
log_file: false
`
}

// WriteDefaultConfig writes the example configuration to path, creating
// parent directories. An existing file is left untouched.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %s already exists", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(DefaultConfigTemplate()), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
