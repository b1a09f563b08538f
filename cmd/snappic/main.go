// snappic renders photo edits without the desktop shell
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"snappic/internal/config"
)

const AppVersion = "1.0.0"

type globalOptions struct {
	configPath string
	debug      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:          "snappic",
		Short:        "Apply SnapPic edits to an image from the command line",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML configuration file")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "verbose logging and pipeline report")

	root.AddCommand(newRenderCmd(opts), newPresetsCmd(opts), newVersionCmd())
	return root
}

// load reads the configuration and builds the logger it describes.
func (o *globalOptions) load() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, initLogger(cfg, o.debug), nil
}

// initLogger writes to stderr so rendered output on stdout stays clean.
func initLogger(cfg *config.Config, debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		return logger
	}

	logger.SetLevel(cfg.LogLevel())
	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
