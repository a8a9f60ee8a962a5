package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/whit3rabbit/pymixer/internal/obfuscator"
)

var outputFile string // Flag variable for output file path

// fileCmd represents the obfuscate file command
var fileCmd = &cobra.Command{
	Use:   "file <python_file_path>",
	Short: "Obfuscate a single Python file",
	Long: `Reads a single Python file, applies the configured obfuscation
techniques, and outputs the result to stdout or a specified file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		filePath := args[0]
		targetFile := outputFile

		// Single file command doesn't load/save context.
		reg, octx, err := newEngine()
		if err != nil {
			return err
		}
		if !cfg.Silent {
			fmt.Printf("Processing file: %s (seed %d)\n", filePath, octx.Seed)
		}

		outputContent, err := obfuscator.ProcessFile(filePath, reg, octx)
		if err != nil {
			return fmt.Errorf("error processing file %s: %w", filePath, err)
		}
		if !cfg.Silent {
			fmt.Printf("Applied techniques: %v\n", octx.AppliedTechniques())
		}

		if targetFile != "" {
			if !cfg.Silent {
				fmt.Printf("Info: Writing output to file: %s\n", targetFile)
			}
			if err := os.WriteFile(targetFile, []byte(outputContent), 0644); err != nil {
				return fmt.Errorf("error writing to output file %s: %w", targetFile, err)
			}
		} else { // Write to stdout
			fmt.Print(outputContent)
		}

		return nil
	},
}

func init() {
	obfuscateCmd.AddCommand(fileCmd)
	fileCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (default: stdout)")
}
