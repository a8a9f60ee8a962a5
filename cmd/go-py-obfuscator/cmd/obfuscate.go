package cmd

import (
	"github.com/spf13/cobra"
)

// obfuscateCmd represents the base command for obfuscation actions
var obfuscateCmd = &cobra.Command{
	Use:   "obfuscate",
	Short: "Obfuscates Python code using various methods",
	Long: `Provides subcommands to obfuscate individual files or entire directories.

Example:
  go-py-obfuscator obfuscate file input.py -o output.py
  go-py-obfuscator obfuscate dir ./src -o ./dist --clean`,
}

func init() {
	rootCmd.AddCommand(obfuscateCmd)
}
