// Package config loads and holds all configuration for the obfuscator.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Name generation patterns for scrambled identifiers.
const (
	NamePatternRandom  = "random"
	NamePatternHex     = "hex"
	NamePatternNumeric = "numeric"
)

// String encoding techniques selectable for string obfuscation.
const (
	StringEncodingCharCodes = "char_codes"
	StringEncodingBase64    = "base64"
	StringEncodingHex       = "hex"
)

// CustomEncodings selects the creative payload of name- and string-generation
// techniques. The pipeline core passes these through without interpreting them.
type CustomEncodings struct {
	StringEncoding string `yaml:"string_encoding" mapstructure:"string_encoding"`
	NamePattern    string `yaml:"name_pattern" mapstructure:"name_pattern"`
}

// StringsConfig defines settings for string obfuscation techniques.
type StringsConfig struct {
	MinLength int `yaml:"min_length" mapstructure:"min_length"` // literals shorter than this are kept
}

// ControlFlowConfig defines settings for control flow techniques.
type ControlFlowConfig struct {
	DummyBranchRate     int `yaml:"dummy_branch_rate" mapstructure:"dummy_branch_rate"`         // percent chance per eligible line
	OpaquePredicateRate int `yaml:"opaque_predicate_rate" mapstructure:"opaque_predicate_rate"` // percent chance per eligible line
}

// DeadCodeConfig defines settings for dead code insertion.
type DeadCodeConfig struct {
	InjectionRate int `yaml:"injection_rate" mapstructure:"injection_rate"` // percent chance per eligible line
}

// FragmentationConfig defines settings for code fragmentation.
type FragmentationConfig struct {
	LinesPerFragment int `yaml:"lines_per_fragment" mapstructure:"lines_per_fragment"`
}

// Config holds all configuration settings for the obfuscator.
// Struct tags control how Viper maps config file keys and environment variables.
type Config struct {
	// General behavior
	Silent       bool `mapstructure:"silent" yaml:"silent"`                 // Suppress informational messages
	AbortOnError bool `mapstructure:"abort_on_error" yaml:"abort_on_error"` // Stop directory processing on the first error
	DebugMode    bool `mapstructure:"debug_mode" yaml:"debug_mode"`         // Enable verbose debug logging
	StrictMode   bool `mapstructure:"strict_mode" yaml:"strict_mode"`       // A failing technique aborts the whole run

	// Technique selection
	DefaultLevel int      `mapstructure:"default_level" yaml:"default_level"` // Obfuscation level 1-4 used when no explicit list given
	Techniques   []string `mapstructure:"techniques" yaml:"techniques"`       // Explicit technique list; overrides the level

	// Randomness
	RandomizeSeeds bool  `mapstructure:"randomize_seeds" yaml:"randomize_seeds"` // Fresh seed per run; Seed records it for reproduction
	Seed           int64 `mapstructure:"seed" yaml:"seed"`

	// Name scrambling
	ScrambleLength   int             `mapstructure:"scramble_length" yaml:"scramble_length"` // Target length for scrambled names
	CustomEncodings  CustomEncodings `mapstructure:"custom_encodings" yaml:"custom_encodings"`
	ExcludedPatterns []string        `mapstructure:"excluded_patterns" yaml:"excluded_patterns"` // Substrings marking names to preserve

	// Per-technique knobs
	Strings       StringsConfig       `mapstructure:"strings" yaml:"strings"`
	ControlFlow   ControlFlowConfig   `mapstructure:"control_flow" yaml:"control_flow"`
	DeadCode      DeadCodeConfig      `mapstructure:"dead_code" yaml:"dead_code"`
	Fragmentation FragmentationConfig `mapstructure:"fragmentation" yaml:"fragmentation"`

	// File handling (directory mode)
	SourceDirectory       string   `mapstructure:"source_directory" yaml:"source_directory"`
	TargetDirectory       string   `mapstructure:"target_directory" yaml:"target_directory"`
	ObfuscatePyExtensions []string `mapstructure:"obfuscate_py_extensions" yaml:"obfuscate_py_extensions"` // File extensions to treat as Python
	SkipPaths             []string `mapstructure:"skip" yaml:"skip"`                                       // Paths to completely ignore
	KeepPaths             []string `mapstructure:"keep" yaml:"keep"`                                       // Paths to copy without obfuscating
}

// Default values for the configuration.
// Viper requires keys to be lowercase for automatic env var binding.
var defaults = map[string]interface{}{
	"silent":                             false,
	"abort_on_error":                     true,
	"debug_mode":                         false,
	"strict_mode":                        false,
	"default_level":                      2,
	"techniques":                         nil,
	"randomize_seeds":                    true,
	"seed":                               int64(0),
	"scramble_length":                    8,
	"custom_encodings.string_encoding":   StringEncodingBase64,
	"custom_encodings.name_pattern":      NamePatternRandom,
	"excluded_patterns":                  []string{"__main__", "__init__", "__name__"},
	"strings.min_length":                 2,
	"control_flow.dummy_branch_rate":     5,
	"control_flow.opaque_predicate_rate": 10,
	"dead_code.injection_rate":           5,
	"fragmentation.lines_per_fragment":   5,
	"source_directory":                   "",
	"target_directory":                   "",
	"obfuscate_py_extensions":            []string{"py"},
	"skip":                               []string{"*.git*", "__pycache__", "*.pyc", "venv"},
	"keep":                               nil,
}

var (
	// Testing controls whether output is suppressed for testing purposes.
	Testing bool
)

// PrintInfo prints informational output unless suppressed for testing.
func PrintInfo(format string, args ...interface{}) {
	if !Testing {
		fmt.Printf(format, args...)
	}
}

// LoadConfig reads configuration from file and environment variables,
// then returns a filled Config struct. An empty path falls back to
// ./config.yaml, which may be absent.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.SetEnvPrefix("PYMIXER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := configPath != ""
	if configPath == "" {
		configPath = "config.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
		}
	} else if os.IsNotExist(err) {
		if explicit {
			return nil, fmt.Errorf("specified config file not found: %s", configPath)
		}
		PrintInfo("Info: Configuration file 'config.yaml' not found, using default settings.\n")
	} else {
		return nil, fmt.Errorf("error checking config file %s: %w", configPath, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !cfg.Silent && explicit {
		PrintInfo("Info: Loaded configuration from %s\n", configPath)
	}
	if cfg.TargetDirectory != "" {
		cfg.TargetDirectory = filepath.Clean(cfg.TargetDirectory)
	}
	return cfg, nil
}

// Validate checks value ranges that a config file could get wrong.
func (c *Config) Validate() error {
	if c.DefaultLevel < 1 || c.DefaultLevel > 4 {
		return fmt.Errorf("invalid default_level: %d (valid 1..4)", c.DefaultLevel)
	}
	switch c.CustomEncodings.NamePattern {
	case NamePatternRandom, NamePatternHex, NamePatternNumeric:
	default:
		return fmt.Errorf("invalid custom_encodings.name_pattern: %q (random|hex|numeric)", c.CustomEncodings.NamePattern)
	}
	switch c.CustomEncodings.StringEncoding {
	case StringEncodingCharCodes, StringEncodingBase64, StringEncodingHex:
	default:
		return fmt.Errorf("invalid custom_encodings.string_encoding: %q (char_codes|base64|hex)", c.CustomEncodings.StringEncoding)
	}
	return nil
}

// SaveConfig saves the default configuration to a file.
func SaveConfig(configPath string) error {
	cfg := DefaultConfig()
	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshalling default config: %w", err)
	}
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory for config file %s: %w", configPath, err)
	}
	if err := os.WriteFile(configPath, yamlData, 0644); err != nil {
		return fmt.Errorf("error writing config file %s: %w", configPath, err)
	}
	PrintInfo("Info: Saved default configuration to %s\n", configPath)
	return nil
}

// DefaultConfig returns a configuration with default settings.
func DefaultConfig() *Config {
	return &Config{
		Silent:         false,
		AbortOnError:   true,
		DebugMode:      false,
		StrictMode:     false,
		DefaultLevel:   2,
		RandomizeSeeds: true,
		ScrambleLength: 8,
		CustomEncodings: CustomEncodings{
			StringEncoding: StringEncodingBase64,
			NamePattern:    NamePatternRandom,
		},
		ExcludedPatterns: []string{"__main__", "__init__", "__name__"},
		Strings:          StringsConfig{MinLength: 2},
		ControlFlow: ControlFlowConfig{
			DummyBranchRate:     5,
			OpaquePredicateRate: 10,
		},
		DeadCode:              DeadCodeConfig{InjectionRate: 5},
		Fragmentation:         FragmentationConfig{LinesPerFragment: 5},
		ObfuscatePyExtensions: []string{"py"},
		SkipPaths:             []string{"*.git*", "__pycache__", "*.pyc", "venv"},
		KeepPaths:             []string{},
	}
}
