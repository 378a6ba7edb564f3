package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

func newConfigCmd(a *app) *cobra.Command {
	var showSource bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long:  `Show the effective configuration after merging defaults, config file, and environment variables.`,
		Example: `  # Show effective configuration
  querypath config show

  # Show configuration with source file path
  querypath config show --source`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if showSource {
				fmt.Fprintf(out, "Config file: %s\n\n", sourceName(a.configPath))
			}
			data, err := yaml.Marshal(a.settings)
			if err != nil {
				return err
			}
			fmt.Fprint(out, string(data))
			return nil
		},
	}
	show.Flags().BoolVar(&showSource, "source", false, "show config file source")

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	cmd.AddCommand(show)
	return cmd
}
