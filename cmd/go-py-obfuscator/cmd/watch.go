package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/whit3rabbit/pymixer/internal/obfuscator"
)

var watchOutputDir string

// Debounce window for editors that write files in several bursts.
const watchDebounce = 500 * time.Millisecond

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <source_directory>",
	Short: "Watch a directory and re-obfuscate Python files on change",
	Long: `Watches the source directory recursively and re-obfuscates any Python file
that is created or modified, writing the result to the target directory with
the same relative path. Rapid successive writes to the same file are coalesced.

The command runs until interrupted (Ctrl-C). The obfuscation context is saved
to the target directory on shutdown so scrambled names stay stable across
sessions.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if watchOutputDir == "" {
			return fmt.Errorf("output directory (-o, --output) is required for watch mode")
		}
		info, err := os.Stat(args[0])
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("source directory '%s' not found", args[0])
			}
			return fmt.Errorf("error checking source directory '%s': %w", args[0], err)
		}
		if !info.IsDir() {
			return fmt.Errorf("source path '%s' is not a directory", args[0])
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("configuration not loaded")
		}
		cmd.SilenceUsage = true

		sourceDir := args[0]
		cfg.TargetDirectory = watchOutputDir

		if err := os.MkdirAll(cfg.TargetDirectory, 0755); err != nil {
			return fmt.Errorf("failed to create target directory %s: %w", cfg.TargetDirectory, err)
		}

		reg, octx, err := newEngine()
		if err != nil {
			return err
		}
		if err := octx.Load(cfg.TargetDirectory); err != nil {
			fmt.Fprintf(os.Stderr, "Warning during context load: %v\n", err)
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create filesystem watcher: %w", err)
		}
		defer watcher.Close()

		// Watch the whole tree. fsnotify does not recurse, so every
		// subdirectory gets its own watch, including ones created later.
		addWatches := func(root string) error {
			return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() {
					return watcher.Add(path)
				}
				return nil
			})
		}
		if err := addWatches(sourceDir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", sourceDir, err)
		}

		var mu sync.Mutex
		pending := make(map[string]*time.Timer)

		processPath := func(path string) {
			relPath, err := filepath.Rel(sourceDir, path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: cannot compute relative path for %s: %v\n", path, err)
				return
			}
			targetPath := filepath.Join(cfg.TargetDirectory, relPath)
			if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
				fmt.Fprintf(os.Stderr, "Error: cannot create directory for %s: %v\n", targetPath, err)
				return
			}
			outputContent, err := obfuscator.ProcessFile(path, reg, octx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", path, err)
				return
			}
			if err := os.WriteFile(targetPath, []byte(outputContent), 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", targetPath, err)
				return
			}
			if !cfg.Silent {
				fmt.Printf("Obfuscated: %s -> %s\n", path, targetPath)
			}
		}

		schedule := func(path string) {
			mu.Lock()
			defer mu.Unlock()
			if timer, ok := pending[path]; ok {
				timer.Reset(watchDebounce)
				return
			}
			pending[path] = time.AfterFunc(watchDebounce, func() {
				mu.Lock()
				delete(pending, path)
				mu.Unlock()
				processPath(path)
			})
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		if !cfg.Silent {
			fmt.Printf("Watching %s (output: %s). Press Ctrl-C to stop.\n", sourceDir, cfg.TargetDirectory)
		}

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return fmt.Errorf("watcher event channel closed unexpectedly")
				}
				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if err := addWatches(event.Name); err != nil && !cfg.Silent {
							fmt.Fprintf(os.Stderr, "Warning: failed to watch new directory %s: %v\n", event.Name, err)
						}
						continue
					}
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if !isPythonPath(event.Name) {
					continue
				}
				relPath, err := filepath.Rel(sourceDir, event.Name)
				if err == nil {
					if skipped, patErr := checkPathAgainstPatterns(relPath, cfg.SkipPaths); patErr == nil && skipped {
						continue
					}
					if kept, patErr := checkPathAgainstPatterns(relPath, cfg.KeepPaths); patErr == nil && kept {
						continue
					}
				}
				schedule(event.Name)
			case err, ok := <-watcher.Errors:
				if !ok {
					return fmt.Errorf("watcher error channel closed unexpectedly")
				}
				fmt.Fprintf(os.Stderr, "Watcher error: %v\n", err)
			case <-sigCh:
				if !cfg.Silent {
					fmt.Println("\nShutting down, saving context...")
				}
				if err := octx.Save(cfg.TargetDirectory); err != nil {
					return fmt.Errorf("failed to save obfuscation context: %w", err)
				}
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&watchOutputDir, "output", "o", "", "Output directory path (required)")
}
