package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ha1tch/qaflow/pkg/config"
	"github.com/ha1tch/qaflow/pkg/session"
)

var version = "0.3.0"

// app holds what every subcommand shares.
type app struct {
	cfgPath string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "qaflow",
		Short: "Build and present question/answer flows",
		Long: colorBrand.Sprint("qaflow") + " builds branching question/answer flows on a canvas\n" +
			colorSubtle.Sprint("and presents them one question at a time"),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	root.SetVersionTemplate("qaflow {{ .Version }}\n")
	root.PersistentFlags().StringVar(&a.cfgPath, "config", config.Path(), "config file")

	root.AddCommand(
		a.editCmd(),
		a.playCmd(),
		a.serveCmd(),
		a.renderCmd(),
		a.configCmd(),
	)
	return root
}

// newSession creates a session sized and worded by the config.
func (a *app) newSession(log *zap.Logger) *session.Session {
	return session.New(
		session.WithLogger(log),
		session.WithSettings(a.cfg.Settings()),
		session.WithMetrics(a.cfg.Metrics()),
		session.WithBounds(a.cfg.Bounds()),
	)
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the config file",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), a.cfgPath)
				return nil
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write the current settings to the config file",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := config.Save(a.cfgPath, a.cfg); err != nil {
					return err
				}
				colorGood.Fprintf(cmd.OutOrStdout(), "wrote %s\n", a.cfgPath)
				return nil
			},
		},
	)
	return cmd
}
