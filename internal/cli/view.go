package cli

import (
	"github.com/spf13/cobra"

	"casevue/internal/ui"
)

func newViewCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Open the viewer window (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runView(cmd, flags)
		},
	}
}

func runView(cmd *cobra.Command, flags *rootFlags) error {
	e, err := setup(flags, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	cat, err := e.loadCatalog()
	if err != nil {
		return err
	}

	app, err := ui.CreateApp(e.cfg, cat, e.logger)
	if err != nil {
		return err
	}

	e.logger.WithField("root", e.cfg.GetRoot()).Info("starting viewer")
	app.Run()
	e.logger.Info("viewer exited")

	return nil
}
