package main

import (
	"fmt"

	"github.com/spf13/cobra"

	criteria "github.com/krew-solutions/ascetic-orm-go/asceticorm/criteria/domain"
	render "github.com/krew-solutions/ascetic-orm-go/asceticorm/criteria/infrastructure"
	querypath "github.com/krew-solutions/ascetic-orm-go/asceticorm/querypath/domain"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		flags modelFlags
		paths string
	)
	cmd := &cobra.Command{
		Use:     "render",
		Short:   "Render the query selecting an entity",
		Example: `  querypath render --model model.yaml --entity Employee --paths "this.department; pre order by this.name"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := flags.load()
			if err != nil {
				return err
			}
			q := criteria.NewQuery(m, a.settings.QueryOptions()...)
			if _, err := q.From(flags.entity); err != nil {
				return err
			}
			opts := a.settings.RenderOptions()
			if paths != "" {
				plan, err := querypath.NewPlanFactory(m, a.settings.PlanFactoryOptions()...).
					CreateFromText(flags.entity, paths)
				if err != nil {
					return err
				}
				opts = append(opts, render.WithQueryPaths(plan))
			}

			text, params, err := render.Render(q, opts...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, text)
			for _, p := range params {
				fmt.Fprintf(out, ":%s = %v\n", p.Name, p.Value)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&paths, "paths", "", "query paths applied to the root entity")
	return cmd
}
