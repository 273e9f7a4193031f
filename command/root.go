package command

import (
	"os"

	"github.com/op/go-logging"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/tminor/tycheck/config"
	"github.com/tminor/tycheck/implementation"
)

var log = logging.MustGetLogger("command")

var (
	configPath string
	logLevel   string
	logFile    string
	debug      bool
)

func init() {
	rootCommand.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a tycheck.toml or tycheck.jsonnet file")
	rootCommand.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides the config file)")
	rootCommand.PersistentFlags().StringVar(&logFile, "log-file", "", "log to this file instead of stderr")
	rootCommand.Flags().BoolVar(&debug, "debug", false, "log protocol traffic")
}

var rootCommand = &cobra.Command{
	Use:          implementation.Name,
	Short:        "Language server backed by an external linter, formatter and analyzer",
	Version:      implementation.Version,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		log.Infof("configuration: %s", cfg.String())
		server := implementation.NewServer(implementation.Options{Config: cfg})
		return server.ServeStdio(debug)
	},
}

// Execute runs the command line and exits the process.
func Execute() {
	if err := rootCommand.Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// loadConfig reads the explicit config file, or the nearest one above the
// working directory, and sets up logging from it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configPath
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if path, _, err = config.Find(wd); err != nil {
			return nil, err
		}
	}

	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if cmd.Flags().Changed("log-file") {
		cfg.Log.File = logFile
	}

	if err := configureLogging(cfg.Log.Level, cfg.Log.File); err != nil {
		return nil, err
	}
	if path != "" {
		log.Infof("loaded %s", path)
	}
	return cfg, nil
}
