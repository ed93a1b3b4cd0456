package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jedawel/lenssafe/internal/config"
	"github.com/jedawel/lenssafe/internal/observability"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configFile string
	camera     string
	noDisplay  bool
	debug      bool

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "lenssafe",
		Short:         "LensSafe watches a camera for eye rubbing and raises alerts.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			opts.cfg = cfg

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("configuration loaded",
				zap.String("version", version),
				zap.String("file", cfg.File))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd, opts.cfg)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "config file (default is ./config.yaml or ~/.lenssafe/config.yaml)")
	flags.StringVar(&opts.camera, "camera", "", "camera index, video file or stream URL")
	flags.BoolVar(&opts.noDisplay, "no-display", false, "run without the preview window")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	root.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	root.AddCommand(
		newRunCmd(opts),
		newToneCmd(opts),
		newAlertsCmd(opts),
	)
	return root
}

// loadConfig reads the configuration and applies the command line overrides.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(config.NewViper(), opts.configFile)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("camera") {
		cfg.Camera.Source = opts.camera
	}
	if opts.noDisplay {
		cfg.Display.Enabled = false
	}
	if opts.debug {
		cfg.Logger.Level = "debug"
	}
	return cfg, nil
}
