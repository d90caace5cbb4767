// Package cli holds the casevue command tree. Running casevue without a
// subcommand opens the viewer window.
package cli

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"casevue/internal/catalog"
	"casevue/internal/config"
	"casevue/internal/logging"
)

type rootFlags struct {
	configPath string
	root       string
	theme      string
	backend    string
	debug      bool
}

// env carries what every command needs after flag parsing.
type env struct {
	cfg    *config.Config
	logger *logrus.Logger
}

func NewRootCommand(version string) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "casevue",
		Short: "Browse pre-computed classification results case by case",
		Long: "casevue shows the selected frame, segmentation mask, Grad-CAM overlay,\n" +
			"class probabilities and source video for every case listed in the\n" +
			"results manifest.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runView(cmd, flags)
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&flags.configPath, "config", config.DefaultConfigPath, "Path to the JSON config file")
	f.StringVar(&flags.root, "root", "", "Results root directory (overrides config)")
	f.StringVar(&flags.theme, "theme", "", "Theme: light or dark (overrides config)")
	f.StringVar(&flags.backend, "video-backend", "", "Video decoder: ffmpeg or opencv (overrides config)")
	f.BoolVar(&flags.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(
		newViewCommand(flags),
		newCasesCommand(flags),
		newResolveCommand(flags),
		newReportCommand(flags),
		newConfigCommand(flags),
	)

	return cmd
}

// setup loads config, applies flag overrides and builds the logger.
func setup(flags *rootFlags, logOut io.Writer) (*env, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	if flags.root != "" {
		cfg.SetRoot(flags.root)
	}
	if flags.theme != "" {
		cfg.SetTheme(config.ThemeName(flags.theme))
	}
	if flags.backend != "" {
		cfg.SetBackend(config.VideoBackend(flags.backend))
	}
	if flags.debug {
		cfg.SetLogLevel(logrus.DebugLevel.String())
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	lc := cfg.GetLog()
	logger := logging.New(lc.Level, lc.Format, logOut)

	return &env{cfg: cfg, logger: logger}, nil
}

func (e *env) loadCatalog() (*catalog.Catalog, error) {
	path := e.cfg.ManifestPath()

	cat, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"manifest": path,
		"cases":    cat.Len(),
	}).Debug("catalog loaded")

	return cat, nil
}
