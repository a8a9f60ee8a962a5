// Package api provides the public API for using the Python obfuscator as a
// library.
//
// This package allows users to obfuscate Python code programmatically using
// the same techniques available in the command-line interface. The API
// provides methods for obfuscating Python code strings, files, and
// directories.
//
// Basic usage example:
//
//	obf, err := api.NewObfuscator(api.Options{ConfigPath: "config.yaml"})
//	if err != nil {
//	    log.Fatalf("Failed to create obfuscator: %v", err)
//	}
//
//	result, err := obf.ObfuscateCode("print('Hello World')")
//	if err != nil {
//	    log.Fatalf("Failed to obfuscate code: %v", err)
//	}
//
//	fmt.Println(result) // Prints obfuscated Python code
package api

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/whit3rabbit/pymixer/internal/config"
	"github.com/whit3rabbit/pymixer/internal/obfuscator"
	"github.com/whit3rabbit/pymixer/internal/scrambler"
	"github.com/whit3rabbit/pymixer/internal/techniques"
)

// PrintInfo prints formatted information to stdout, respecting the Testing
// flag. If Testing mode is active, no output will be generated.
// This function forwards to the internal config.PrintInfo function.
func PrintInfo(format string, args ...interface{}) {
	config.PrintInfo(format, args...)
}

// Obfuscator represents the main obfuscation engine that can be used to
// obfuscate Python code. It encapsulates the configuration, the technique
// registry and the run context shared across operations.
type Obfuscator struct {
	// Context holds the obfuscation context including scramblers and state
	Context *obfuscator.Context
	// Config holds the configuration settings for obfuscation
	Config *config.Config
	// Registry holds the registered technique catalog
	Registry *obfuscator.Registry
}

// Options represents configuration options for creating a new Obfuscator
// instance. Zero values leave the corresponding config setting untouched.
type Options struct {
	// ConfigPath is the path to a YAML configuration file.
	// If empty, default configuration will be used.
	ConfigPath string

	// Silent suppresses informational messages during obfuscation.
	Silent bool

	// Level overrides the configured obfuscation level (1-4).
	Level int

	// Techniques overrides the technique selection with an explicit list.
	Techniques []string

	// Seed fixes the random seed for reproducible output.
	Seed int64

	// StrictMode makes any failing technique abort the whole run.
	StrictMode bool
}

// NewObfuscator creates a new Obfuscator instance using the provided options.
//
// If ConfigPath is empty, default configuration will be used. Non-zero
// option fields override the corresponding configuration values.
//
// Returns an error if the configuration cannot be loaded or the context
// cannot be created.
func NewObfuscator(options Options) (*Obfuscator, error) {
	cfg, err := config.LoadConfig(options.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if options.Silent {
		cfg.Silent = true
	}
	if options.Level != 0 {
		cfg.DefaultLevel = options.Level
	}
	if len(options.Techniques) > 0 {
		cfg.Techniques = options.Techniques
	}
	if options.Seed != 0 {
		cfg.Seed = options.Seed
		cfg.RandomizeSeeds = false
	}
	if options.StrictMode {
		cfg.StrictMode = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg := obfuscator.NewRegistry()
	techniques.RegisterAll(reg)

	ctx, err := obfuscator.NewContext(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create obfuscation context: %w", err)
	}

	return &Obfuscator{
		Context:  ctx,
		Config:   cfg,
		Registry: reg,
	}, nil
}

// ObfuscateCode obfuscates a string of Python code and returns the result.
//
// Returns the obfuscated Python code as a string, or an error if validation
// or obfuscation fails.
func (o *Obfuscator) ObfuscateCode(code string) (string, error) {
	result, err := obfuscator.ObfuscateSource(code, o.Registry, o.Context)
	if err != nil {
		return "", fmt.Errorf("failed to obfuscate code: %w", err)
	}
	return result, nil
}

// ObfuscateFile obfuscates a Python file and returns the obfuscated code.
//
// Parameters:
//   - filePath: The path to the Python file to obfuscate
//
// Returns the obfuscated Python code as a string, or an error if obfuscation
// fails.
func (o *Obfuscator) ObfuscateFile(filePath string) (string, error) {
	result, err := obfuscator.ProcessFile(filePath, o.Registry, o.Context)
	if err != nil {
		return "", fmt.Errorf("failed to obfuscate file %s: %w", filePath, err)
	}
	return result, nil
}

// ObfuscateFileToFile obfuscates a Python file and writes the result to
// another file.
//
// Parameters:
//   - inputPath: The path to the Python file to obfuscate
//   - outputPath: The path where the obfuscated code will be written
//
// Returns an error if obfuscation or file operations fail.
func (o *Obfuscator) ObfuscateFileToFile(inputPath, outputPath string) error {
	result, err := obfuscator.ProcessFile(inputPath, o.Registry, o.Context)
	if err != nil {
		return fmt.Errorf("failed to obfuscate file %s: %w", inputPath, err)
	}

	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	if err := os.WriteFile(outputPath, []byte(result), 0644); err != nil {
		return fmt.Errorf("failed to write to output file %s: %w", outputPath, err)
	}

	return nil
}

// ObfuscateDirectory obfuscates all Python files in a directory and writes
// the results to another directory.
//
// Parameters:
//   - inputDir: The source directory containing Python files to obfuscate
//   - outputDir: The target directory where obfuscated files will be written
//
// The function will:
//  1. Load any existing context from the output directory
//  2. Create the output directory if it doesn't exist
//  3. Process all Python files recursively, preserving directory structure
//  4. Copy non-Python files (and configured keep paths) unchanged
//  5. Skip files that match patterns in the configuration's skip list
//  6. Save the obfuscation context to the output directory
//
// Returns an error if directory operations or obfuscation fail.
func (o *Obfuscator) ObfuscateDirectory(inputDir, outputDir string) error {
	inputInfo, err := os.Stat(inputDir)
	if err != nil {
		return fmt.Errorf("failed to stat input directory %s: %w", inputDir, err)
	}
	if !inputInfo.IsDir() {
		return fmt.Errorf("input path %s is not a directory", inputDir)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	// Reuse name mappings from a previous run so cross-file references stay
	// consistent.
	if err := o.Context.Load(outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load existing context: %v\n", err)
		fmt.Fprintf(os.Stderr, "Starting with fresh context.\n")
	}

	o.Config.TargetDirectory = outputDir

	if err := o.processDirectoryRecursive(inputDir, outputDir, ""); err != nil {
		return err
	}

	if err := o.Context.Save(outputDir); err != nil {
		return fmt.Errorf("failed to save obfuscation context: %w", err)
	}

	return nil
}

// processDirectoryRecursive is a helper function for recursive directory
// processing. rel is the path of inputDir relative to the walk root, used
// for skip and keep pattern matching.
func (o *Obfuscator) processDirectoryRecursive(inputDir, outputDir, rel string) error {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", inputDir, err)
	}

	for _, entry := range entries {
		inputPath := filepath.Join(inputDir, entry.Name())
		outputPath := filepath.Join(outputDir, entry.Name())
		relPath := entry.Name()
		if rel != "" {
			relPath = filepath.Join(rel, entry.Name())
		}

		if matchesAny(relPath, o.Config.SkipPaths) {
			PrintInfo("Skipping path (matches skiplist): %s\n", relPath)
			continue
		}

		if entry.IsDir() {
			if err := os.MkdirAll(outputPath, 0755); err != nil {
				return fmt.Errorf("failed to create output directory %s: %w", outputPath, err)
			}
			if err := o.processDirectoryRecursive(inputPath, outputPath, relPath); err != nil {
				return err
			}
			continue
		}

		keep := matchesAny(relPath, o.Config.KeepPaths)
		if o.isPythonFile(entry.Name()) && !keep {
			obfuscated, err := obfuscator.ProcessFile(inputPath, o.Registry, o.Context)
			if err != nil {
				if o.Config.AbortOnError {
					return fmt.Errorf("failed to process %s: %w", inputPath, err)
				}
				fmt.Fprintf(os.Stderr, "Warning: Failed to process %s: %v\n", inputPath, err)
				continue
			}
			if err := os.WriteFile(outputPath, []byte(obfuscated), 0644); err != nil {
				if o.Config.AbortOnError {
					return fmt.Errorf("failed to write output to %s: %w", outputPath, err)
				}
				fmt.Fprintf(os.Stderr, "Warning: Failed to write output to %s: %v\n", outputPath, err)
				continue
			}
			PrintInfo("Processed: %s -> %s\n", inputPath, outputPath)
			continue
		}

		content, err := os.ReadFile(inputPath)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", inputPath, err)
		}
		if err := os.WriteFile(outputPath, content, 0644); err != nil {
			return fmt.Errorf("failed to write file %s: %w", outputPath, err)
		}
		PrintInfo("Copied: %s -> %s\n", inputPath, outputPath)
	}

	return nil
}

// matchesAny reports whether path matches any of the glob patterns.
func matchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Invalid path pattern '%s': %v\n", pattern, err)
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// isPythonFile checks the filename against the configured extensions.
func (o *Obfuscator) isPythonFile(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	exts := o.Config.ObfuscatePyExtensions
	if len(exts) == 0 {
		exts = []string{"py"}
	}
	for _, want := range exts {
		if ext == strings.ToLower(strings.TrimPrefix(want, ".")) {
			return true
		}
	}
	return false
}

// AppliedTechniques returns the names of the techniques that have run
// successfully on this obfuscator's context, in execution order. Callers
// implementing a fallback policy can compare this against what they
// requested.
func (o *Obfuscator) AppliedTechniques() []string {
	return o.Context.AppliedTechniques()
}

// LoadContext loads an existing obfuscation context from a directory.
//
// This is useful when you want to reuse the same obfuscation context
// (including name mappings) across multiple runs.
//
// Returns an error if the context cannot be loaded.
func (o *Obfuscator) LoadContext(baseDir string) error {
	return o.Context.Load(baseDir)
}

// SaveContext saves the current obfuscation context to a directory.
//
// This saves the current name mappings and other state to be loaded later.
//
// Returns an error if the context cannot be saved.
func (o *Obfuscator) SaveContext(baseDir string) error {
	return o.Context.Save(baseDir)
}

// LookupObfuscatedName looks up an obfuscated name from the context.
//
// Parameters:
//   - name: The original name to look up
//   - typeStr: The type of the name, one of: "variable", "function",
//     "class", "alias", "string"
//
// Returns the obfuscated name and nil if the name is found,
// or an empty string and an error if the name is not found.
func (o *Obfuscator) LookupObfuscatedName(name string, typeStr string) (string, error) {
	sType, err := scrambler.ParseScrambleType(typeStr)
	if err != nil {
		return "", err
	}

	s := o.Context.Scrambler(sType)
	if s == nil {
		return "", fmt.Errorf("scrambler not found for type: %s", typeStr)
	}

	obfName, found := s.LookupObfuscated(name)
	if !found {
		return "", fmt.Errorf("name not found in context: %s", name)
	}

	return obfName, nil
}
