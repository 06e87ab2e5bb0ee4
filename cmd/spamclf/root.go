package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"spam-classifier/internal/config"
)

const defaultConfigPath = "configs/config.yml"

// app carries what every subcommand needs once the root has loaded it.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "spamclf",
		Short: "Spam email classifier: data preparation, training, evaluation and serving",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", defaultConfigPath, "path to the YAML configuration file")

	rootCmd.AddCommand(
		newPreprocessCommand(a),
		newSummaryCommand(a),
		newBalanceCommand(a),
		newTrainCommand(a),
		newEvaluateCommand(a),
		newSampleCommand(a),
		newServeCommand(a),
		newAskCommand(a),
	)
	return rootCmd
}

// load reads the configuration. A missing file at the default location falls back to
// built-in defaults; an explicit --config must exist.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) || cmd.Flags().Changed("config") {
			return err
		}
		cfg = config.Default()
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}
