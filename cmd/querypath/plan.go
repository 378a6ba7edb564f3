package main

import (
	"fmt"

	"github.com/spf13/cobra"

	querypath "github.com/krew-solutions/ascetic-orm-go/asceticorm/querypath/domain"
	scalars "github.com/krew-solutions/ascetic-orm-go/asceticorm/querypath/infrastructure"
	"github.com/krew-solutions/ascetic-orm-go/asceticorm/session"
)

func newPlanCmd(a *app) *cobra.Command {
	var flags modelFlags
	cmd := &cobra.Command{
		Use:   "plan <paths>",
		Short: "Merge query paths into the plan of an entity",
		Long: `Print the merged plan tree and orders, the plan flags and the second
queries loading lazy scalars.`,
		Example: `  querypath plan --model model.yaml --entity Department "this.employees.resume; this.description"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := flags.load()
			if err != nil {
				return err
			}
			plan, err := querypath.NewPlanFactory(m, a.settings.PlanFactoryOptions()...).
				CreateFromText(flags.entity, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, plan.String())
			fmt.Fprintln(out)
			fmt.Fprintf(out, "scalar eagerness: %t\n", plan.ContainsScalarEagerness())
			fmt.Fprintf(out, "inner joins: %t\n", plan.ContainsInnerJoins())
			fmt.Fprintf(out, "collection joins: %t\n", plan.ContainsCollectionJoins())
			fmt.Fprintf(out, "collection inner joins: %t\n", plan.ContainsCollectionInnerJoins())
			fmt.Fprintf(out, "no-fetch joins: %t\n", plan.ContainsNoFetchJoins())
			for _, req := range scalars.ScalarRequests(plan) {
				query, _, err := req.SQL([]any{nil}, session.Dollar)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %s\n", req.Node.Path(), query)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
