package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/qnkhuat/openingrush/pkg"
	"github.com/qnkhuat/openingrush/pkg/config"
	"github.com/qnkhuat/openingrush/pkg/gui"
	"github.com/qnkhuat/openingrush/pkg/presets"
)

// rootOptions carries the settings shared by every command. cfg is filled
// in before any command runs.
type rootOptions struct {
	configPath string
	envPath    string
	v          *viper.Viper
	cfg        *config.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{v: config.New()}

	cmd := &cobra.Command{
		Use:           "openingrush",
		Short:         "Drill chess opening lines against a book opponent",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnv(opts.envPath); err != nil {
				return err
			}
			cfg, err := config.Setup(opts.v, opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML config file")
	flags.StringVar(&opts.envPath, "env", ".env", "file of KEY=value pairs loaded into the environment")
	flags.String("log", "", "log file, stderr when empty")
	flags.String("log-level", "info", "debug, info, warn or error")
	flags.Int64("seed", 0, "seed for the book replies, random when 0")
	flags.Bool("strict", true, "panic on a board move the engine rejects instead of logging it and resetting the board")
	flags.String("theme", "basic", "board theme")
	flags.String("presets", "", "YAML file with extra preset lines")
	opts.bind(flags.Lookup("log"), "log_path")
	opts.bind(flags.Lookup("log-level"), "log_level")
	opts.bind(flags.Lookup("seed"), "seed")
	opts.bind(flags.Lookup("strict"), "strict")
	opts.bind(flags.Lookup("theme"), "theme")
	opts.bind(flags.Lookup("presets"), "presets_file")

	cmd.AddCommand(newPlayCommand(opts))
	cmd.AddCommand(newDrillCommand(opts))
	cmd.AddCommand(newLinesCommand(opts))
	cmd.AddCommand(newPresetsCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	return cmd
}

func (o *rootOptions) bind(flag *pflag.Flag, key string) {
	if err := o.v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

// logger builds the logger of a command. Interactive commands own the
// terminal and stay silent unless a log file is configured.
func (o *rootOptions) logger(name string, interactive bool) (*zap.SugaredLogger, error) {
	if interactive && o.cfg.LogPath == "" {
		return zap.NewNop().Sugar(), nil
	}
	level, err := o.cfg.Level()
	if err != nil {
		return nil, err
	}
	return pkg.NewLogger(o.cfg.LogPath, name, level)
}

func (o *rootOptions) catalog() (*presets.Catalog, error) {
	return presets.Load(o.cfg.PresetsFile)
}

func (o *rootOptions) theme() (gui.Theme, error) {
	return gui.LookupTheme(o.cfg.Theme)
}
