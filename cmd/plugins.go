package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datasight/internal/plugins"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List the analysis stages and their execution phases",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := plugins.DefaultRegistry(plugins.Options{})
		for _, p := range reg.Plugins() {
			deps := "-"
			if d := p.DependsOn(); len(d) > 0 {
				deps = strings.Join(d, ", ")
			}
			fmt.Printf("%-14s %-13s depends on: %s\n", p.ID(), p.Category(), deps)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pluginsCmd)
}
