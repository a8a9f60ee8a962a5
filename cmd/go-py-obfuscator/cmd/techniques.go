package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/whit3rabbit/pymixer/internal/obfuscator"
	"github.com/whit3rabbit/pymixer/internal/techniques"
)

// techniquesCmd represents the techniques command
var techniquesCmd = &cobra.Command{
	Use:   "techniques [technique_name]",
	Short: "List available obfuscation techniques",
	Long: `Without arguments, lists every registered technique together with the
minimum obfuscation level it belongs to. With a technique name, prints its
full description including dependencies and conflicts.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		reg := obfuscator.NewRegistry()
		techniques.RegisterAll(reg)

		if len(args) == 1 {
			desc, err := reg.Describe(args[0])
			if err != nil {
				return err
			}
			fmt.Println(desc)
			return nil
		}

		names := reg.Names()
		if cmd.Flags().Changed("level") {
			names = reg.TechniquesForLevel(obfLevel)
			fmt.Printf("Techniques selected at level %d:\n", obfLevel)
		} else {
			fmt.Println("Available techniques:")
		}

		for _, name := range names {
			t, ok := reg.Lookup(name)
			if !ok {
				continue
			}
			fmt.Printf("  %-28s (level %d)  %s\n", t.Name, t.MinLevel, t.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(techniquesCmd)
}
