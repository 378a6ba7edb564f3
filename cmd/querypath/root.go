package main

import (
	"io"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/krew-solutions/ascetic-orm-go/asceticorm/config"
	"github.com/krew-solutions/ascetic-orm-go/asceticorm/metamodel"
)

// app carries the state set up by the root command for its subcommands.
type app struct {
	cfgFile    string
	verbose    int
	settings   *config.Settings
	configPath string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "querypath",
		Short: "Compile query paths and render the queries they fetch with",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.configureLogging(cmd.ErrOrStderr())
			switch cmd.Name() {
			case "help", "completion", "version":
				return nil
			}
			s, path, err := config.LoadConfig(a.cfgFile)
			if err != nil {
				return errors.Wrap(err, "loading configuration")
			}
			s.Apply()
			a.settings, a.configPath = s, path
			slog.Info("configuration loaded", "source", sourceName(path))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: auto-discover asceticorm.yaml)")
	cmd.PersistentFlags().CountVarP(&a.verbose, "verbose", "v", "increase verbosity (can be repeated)")

	cmd.AddCommand(
		newCompileCmd(),
		newPlanCmd(a),
		newRenderCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return cmd
}

func (a *app) configureLogging(w io.Writer) {
	level := slog.LevelWarn
	switch {
	case a.verbose >= 2:
		level = slog.LevelDebug
	case a.verbose == 1:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func sourceName(path string) string {
	if path == "" {
		return "(none, using defaults)"
	}
	return path
}

// modelFlags are shared by the commands working on one entity of a model.
type modelFlags struct {
	model  string
	entity string
}

func (f *modelFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.model, "model", "", "model definition file (yaml)")
	cmd.Flags().StringVar(&f.entity, "entity", "", "root entity name")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("entity")
}

func (f *modelFlags) load() (*metamodel.Metamodel, error) {
	m, err := metamodel.LoadYAMLFile(f.model)
	if err != nil {
		return nil, errors.Wrap(err, "loading model")
	}
	if _, err := m.Entity(f.entity); err != nil {
		return nil, err
	}
	return m, nil
}
