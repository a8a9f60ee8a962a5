package cmd

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/whit3rabbit/pymixer/internal/obfuscator"
)

var (
	outputDir string // Flag variable for output directory
	cleanMode bool   // Flag variable for cleaning target directory
)

// dirCmd represents the obfuscate dir command
var dirCmd = &cobra.Command{
	Use:   "dir <source_directory>",
	Short: "Obfuscate Python code in a directory recursively",
	Long: `Recursively scans the source directory for Python files (based on configured
extensions), applies obfuscation, and writes the results to the target
directory, preserving the original structure. Name scrambling state is shared
across files and persisted under <target>/context so repeated runs stay
consistent.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if outputDir == "" {
			return fmt.Errorf("output directory (-o, --output) is required for directory obfuscation")
		}
		sourceDir := args[0]
		info, err := os.Stat(sourceDir)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("source directory '%s' not found", sourceDir)
			}
			return fmt.Errorf("error checking source directory '%s': %w", sourceDir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("source path '%s' is not a directory", sourceDir)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("configuration not loaded")
		}
		cmd.SilenceUsage = true

		sourceDir := args[0]
		cfg.TargetDirectory = outputDir

		if !cfg.Silent {
			fmt.Println("--- Directory Obfuscation ---")
			fmt.Printf("Source Directory: %s\n", sourceDir)
			fmt.Printf("Target Directory: %s\n", cfg.TargetDirectory)
			fmt.Printf("Clean Mode: %t\n", cleanMode)
			fmt.Println("-----------------------------")
		}

		if cleanMode {
			if err := cleanTargetDirectory(cfg.TargetDirectory); err != nil {
				return err
			}
		}

		if err := os.MkdirAll(cfg.TargetDirectory, 0755); err != nil {
			return fmt.Errorf("failed to create target directory %s: %w", cfg.TargetDirectory, err)
		}

		reg, octx, err := newEngine()
		if err != nil {
			return err
		}

		// Context is loaded/saved relative to the target directory so a second
		// run reuses the same scrambled names.
		if err := octx.Load(cfg.TargetDirectory); err != nil {
			fmt.Fprintf(os.Stderr, "Warning during context load: %v\n", err)
		}

		if !cfg.Silent {
			fmt.Println("Info: Starting directory walk...")
		}
		var collectedErrors []error

		walkErr := filepath.WalkDir(sourceDir, func(entryPath string, d fs.DirEntry, err error) error {
			if err != nil {
				accessErr := fmt.Errorf("error accessing path %q: %w", entryPath, err)
				collectedErrors = append(collectedErrors, accessErr)
				if cfg.AbortOnError {
					return accessErr
				}
				return nil
			}

			relPath, err := filepath.Rel(sourceDir, entryPath)
			if err != nil {
				relErr := fmt.Errorf("error calculating relative path for %q: %w", entryPath, err)
				collectedErrors = append(collectedErrors, relErr)
				if cfg.AbortOnError {
					return relErr
				}
				return nil
			}
			if relPath == "." {
				return nil
			}

			targetEntryPath := filepath.Join(cfg.TargetDirectory, relPath)

			// Skip patterns win over everything else.
			isSkipped, skipErr := checkPathAgainstPatterns(relPath, cfg.SkipPaths)
			if skipErr != nil {
				patternErr := fmt.Errorf("error matching skip pattern for '%s': %w", relPath, skipErr)
				collectedErrors = append(collectedErrors, patternErr)
				if cfg.AbortOnError {
					return patternErr
				}
			} else if isSkipped {
				if !cfg.Silent {
					fmt.Printf("Skipping: %s\n", entryPath)
				}
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Keep patterns copy the entry verbatim, no obfuscation.
			isKept, keepErr := checkPathAgainstPatterns(relPath, cfg.KeepPaths)
			if keepErr != nil {
				patternErr := fmt.Errorf("error matching keep pattern for '%s': %w", relPath, keepErr)
				collectedErrors = append(collectedErrors, patternErr)
				if cfg.AbortOnError {
					return patternErr
				}
			} else if isKept {
				if !cfg.Silent {
					fmt.Printf("Keeping (copying): %s -> %s\n", entryPath, targetEntryPath)
				}
				if d.IsDir() {
					if err := os.MkdirAll(targetEntryPath, 0755); err != nil {
						mkdirErr := fmt.Errorf("error creating directory for kept path %s: %w", targetEntryPath, err)
						collectedErrors = append(collectedErrors, mkdirErr)
						if cfg.AbortOnError {
							return mkdirErr
						}
					}
					// Walk into kept directories so their contents get copied too.
					return nil
				}
				if err := copyEntry(entryPath, targetEntryPath, d); err != nil {
					copyErr := fmt.Errorf("error copying kept file %s to %s: %w", entryPath, targetEntryPath, err)
					collectedErrors = append(collectedErrors, copyErr)
					if cfg.AbortOnError {
						return copyErr
					}
				}
				return nil
			}

			if d.IsDir() {
				if !cfg.Silent && cfg.DebugMode {
					fmt.Printf("Ensuring dir: %s\n", targetEntryPath)
				}
				if err := os.MkdirAll(targetEntryPath, 0755); err != nil {
					mkdirErr := fmt.Errorf("error creating directory %q: %w", targetEntryPath, err)
					collectedErrors = append(collectedErrors, mkdirErr)
					if cfg.AbortOnError {
						return mkdirErr
					}
				}
				return nil
			}

			if err := os.MkdirAll(filepath.Dir(targetEntryPath), 0755); err != nil {
				mkdirErr := fmt.Errorf("error creating directory for file %s: %w", targetEntryPath, err)
				collectedErrors = append(collectedErrors, mkdirErr)
				if cfg.AbortOnError {
					return mkdirErr
				}
				return nil
			}

			if !isPythonPath(entryPath) || d.Type()&fs.ModeSymlink != 0 {
				// Non-Python files and symlinks are carried over as-is.
				if !cfg.Silent {
					fmt.Printf("Copying file: %s -> %s\n", entryPath, targetEntryPath)
				}
				if err := copyEntry(entryPath, targetEntryPath, d); err != nil {
					copyErr := fmt.Errorf("error copying file %s to %s: %w", entryPath, targetEntryPath, err)
					collectedErrors = append(collectedErrors, copyErr)
					if cfg.AbortOnError {
						return copyErr
					}
				}
				return nil
			}

			if !cfg.Silent {
				fmt.Printf("Processing Python: %s -> %s\n", entryPath, targetEntryPath)
			}
			outputContent, processErr := obfuscator.ProcessFile(entryPath, reg, octx)
			if processErr != nil {
				procErr := fmt.Errorf("error processing file %s: %w", entryPath, processErr)
				collectedErrors = append(collectedErrors, procErr)
				if cfg.AbortOnError {
					return procErr
				}
				return nil
			}
			if err := os.WriteFile(targetEntryPath, []byte(outputContent), 0644); err != nil {
				wrErr := fmt.Errorf("error writing output file %s: %w", targetEntryPath, err)
				collectedErrors = append(collectedErrors, wrErr)
				if cfg.AbortOnError {
					return wrErr
				}
			}
			return nil
		})

		if walkErr != nil {
			finalWalkErr := fmt.Errorf("error during directory walk of %s: %w", sourceDir, walkErr)
			collectedErrors = append(collectedErrors, finalWalkErr)
		}

		if err := octx.Save(cfg.TargetDirectory); err != nil {
			collectedErrors = append(collectedErrors, fmt.Errorf("failed to save obfuscation context: %w", err))
		}

		if len(collectedErrors) > 0 {
			fmt.Fprintf(os.Stderr, "\n--- Errors Encountered (%d) ---\n", len(collectedErrors))
			for i, e := range collectedErrors {
				fmt.Fprintf(os.Stderr, "  %d: %v\n", i+1, e)
			}
			fmt.Fprintln(os.Stderr, "-----------------------------")
			return fmt.Errorf("directory processing finished with %d errors", len(collectedErrors))
		}

		if !cfg.Silent {
			fmt.Println("Directory processing finished successfully.")
		}
		return nil
	},
}

func init() {
	obfuscateCmd.AddCommand(dirCmd)
	dirCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory path (required)")
	dirCmd.Flags().BoolVar(&cleanMode, "clean", false, "Remove the target directory before obfuscating")
}

// cleanTargetDirectory removes targetPath after a sanity check so a bad config
// value cannot wipe the filesystem root or the working directory.
func cleanTargetDirectory(targetPath string) error {
	if targetPath == "" {
		return fmt.Errorf("cannot clean: target directory is not specified")
	}
	cleaned := filepath.Clean(targetPath)
	if cleaned == "/" || cleaned == "." || cleaned == ".." || cleaned == filepath.VolumeName(cleaned)+string(filepath.Separator) {
		return fmt.Errorf("refusing to clean potentially dangerous path: %s", targetPath)
	}
	if _, err := os.Stat(cleaned); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(cleaned); err != nil {
		return fmt.Errorf("failed to clean target directory %s: %w", cleaned, err)
	}
	return nil
}

// isPythonPath reports whether the file extension is one of the configured
// Python extensions.
func isPythonPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, pyExt := range cfg.ObfuscatePyExtensions {
		if ext == "."+strings.ToLower(pyExt) {
			return true
		}
	}
	return false
}

// copyEntry copies a file or recreates a symlink at dst.
func copyEntry(src, dst string, d fs.DirEntry) error {
	if d.Type()&fs.ModeSymlink != 0 {
		linkTarget, err := os.Readlink(src)
		if err != nil {
			return fmt.Errorf("failed to read symlink %s: %w", src, err)
		}
		if err := os.Symlink(linkTarget, dst); err != nil && !os.IsExist(err) {
			return fmt.Errorf("failed to create symlink %s -> %s: %w", dst, linkTarget, err)
		}
		return nil
	}
	return copyFile(src, dst)
}

// copyFile copies a single file from src to dst, preserving permissions.
func copyFile(src, dst string) error {
	sourceFileStat, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source file %s: %w", src, err)
	}
	if !sourceFileStat.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}

	source, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", src, err)
	}
	defer source.Close()

	destination, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, sourceFileStat.Mode())
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dst, err)
	}
	defer destination.Close()

	if _, err := io.Copy(destination, source); err != nil {
		return fmt.Errorf("failed to copy data from %s to %s: %w", src, dst, err)
	}
	return nil
}

// checkPathAgainstPatterns reports whether relPath matches any of the glob
// patterns. Paths are normalized to forward slashes before matching.
func checkPathAgainstPatterns(relPath string, patterns []string) (bool, error) {
	pathNormalized := filepath.ToSlash(relPath)
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, pathNormalized)
		if err != nil {
			return false, fmt.Errorf("invalid pattern '%s': %w", pattern, err)
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}
