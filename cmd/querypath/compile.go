package main

import (
	"fmt"

	"github.com/spf13/cobra"

	querypath "github.com/krew-solutions/ascetic-orm-go/asceticorm/querypath/domain"
)

func newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "compile <paths>",
		Short:   "Parse path statements and print their normal form",
		Example: `  querypath compile "this.employees.partial(annualLeaves); pre order by this.name desc"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := querypath.Compile(args[0])
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p.String())
			}
			return nil
		},
	}
}
