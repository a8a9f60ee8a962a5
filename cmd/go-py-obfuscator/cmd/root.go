// Package cmd implements the command line interface for the application.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/whit3rabbit/pymixer/internal/config"
	"github.com/whit3rabbit/pymixer/internal/obfuscator"
	"github.com/whit3rabbit/pymixer/internal/techniques"
)

var (
	cfgFile string         // Variable to hold the config file path from the flag
	cfg     *config.Config // Global variable to hold the loaded configuration

	// Flag variables mapped to config fields for override
	silentMode    bool     // -> cfg.Silent
	abortOnError  bool     // -> cfg.AbortOnError
	debugMode     bool     // -> cfg.DebugMode
	strictMode    bool     // -> cfg.StrictMode
	obfLevel      int      // -> cfg.DefaultLevel
	techniqueList []string // -> cfg.Techniques
	randomSeed    int64    // -> cfg.Seed
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "go-py-obfuscator",
	Short: "A CLI tool to obfuscate Python source code.",
	Long: `go-py-obfuscator provides various techniques to make Python code
harder to understand and reverse-engineer, from identifier scrambling
and string encoding up to runtime code generation.`,
	// PersistentPreRunE runs before any subcommand's RunE.
	// Use this to load configuration early.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil { // Only load config once
			loadedCfg, err := config.LoadConfig(cfgFile) // cfgFile is set by PersistentFlags
			if err != nil {
				return fmt.Errorf("error loading configuration: %w", err)
			}
			cfg = loadedCfg

			// Apply command-line flag overrides *after* loading config file
			applyFlagOverrides(cfg, cmd)

			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		return nil
	},
	// Run: Executes if no subcommand is given. Print help.
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// applyFlagOverrides applies command-line flag values to the config struct.
// Only overrides if the flag was explicitly set by the user via cmd.Flags().Changed().
func applyFlagOverrides(cfg *config.Config, cmd *cobra.Command) {
	if cmd.Flags().Changed("silent") {
		cfg.Silent = silentMode
	}
	if cmd.Flags().Changed("abort-on-error") {
		cfg.AbortOnError = abortOnError
	}
	if cmd.Flags().Changed("debug") {
		cfg.DebugMode = debugMode
	}
	if cmd.Flags().Changed("strict") {
		cfg.StrictMode = strictMode
	}
	if cmd.Flags().Changed("level") {
		cfg.DefaultLevel = obfLevel
	}
	if cmd.Flags().Changed("technique") {
		cfg.Techniques = techniqueList
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = randomSeed
		cfg.RandomizeSeeds = false
	}
}

// newEngine builds the technique registry and a fresh run context from the
// loaded configuration. Every subcommand that obfuscates goes through here.
func newEngine() (*obfuscator.Registry, *obfuscator.Context, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("configuration not loaded")
	}
	reg := obfuscator.NewRegistry()
	techniques.RegisterAll(reg)
	octx, err := obfuscator.NewContext(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize obfuscation context: %w", err)
	}
	return reg, octx, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		// Cobra usually prints the error. We just need to exit non-zero.
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")

	// Add flags for common config options
	rootCmd.PersistentFlags().BoolVarP(&silentMode, "silent", "s", false, "Suppress informational output (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&abortOnError, "abort-on-error", true, "Stop processing on the first error (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable verbose debug logging (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&strictMode, "strict", false, "A failing technique aborts the whole run (overrides config)")
	rootCmd.PersistentFlags().IntVarP(&obfLevel, "level", "l", 2, "Obfuscation level 1-4 (overrides config)")
	rootCmd.PersistentFlags().StringSliceVarP(&techniqueList, "technique", "t", nil, "Explicit technique list; repeatable (overrides level)")
	rootCmd.PersistentFlags().Int64Var(&randomSeed, "seed", 0, "Fixed random seed for reproducible output (overrides config)")
}
