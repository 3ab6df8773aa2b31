package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/milk9111/gamearch/config"
	"github.com/milk9111/gamearch/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("GAMEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "gamearch",
		Short:         "Pooled entity playground",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "pool presets YAML file (built-in presets when empty)")
	root.PersistentFlags().String("log-level", "", "override the configured log level")
	_ = v.BindPFlags(root.PersistentFlags())

	root.AddCommand(newRunCmd(v), newPlayCmd(v), newPresetsCmd(v))
	return root
}

// bindFlags binds a subcommand's own flags just before it runs, so commands
// can share flag names.
func bindFlags(v *viper.Viper) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		return v.BindPFlags(cmd.Flags())
	}
}

func loadConfig(v *viper.Viper) (config.Config, error) {
	cfg := config.Default()
	if path := v.GetString("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	if level := v.GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}

func loadConfigAndLogger(v *viper.Viper) (config.Config, *zap.Logger, error) {
	cfg, err := loadConfig(v)
	if err != nil {
		return cfg, nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}
