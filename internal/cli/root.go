package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"avular-packages/internal/app"
	"avular-packages/internal/core"
)

// version is set at build time via ldflags.
var version = "dev"

const envPrefix = "AVPKG"

// RootConfig carries the global flags every subcommand's service
// construction depends on.
type RootConfig struct {
	ConfigFile  string
	LogLevel    string
	Roots       []string
	SystemIndex string
	ContextDir  string
}

func Execute() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(exitCodeForError(err))
	}
}

func newRootCommand() *cobra.Command {
	cfg := &RootConfig{}
	cmd := &cobra.Command{
		Use:     "avular-packages",
		Short:   "Dependency resolver, intelligent cache, and build orchestrator",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(cfg.ConfigFile); err != nil {
				return err
			}
			setupLogging(viper.GetString("log_level"))
			if len(cfg.Roots) == 0 {
				cfg.Roots = viper.GetStringSlice("repository.roots")
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringSliceVar(&cfg.Roots, "root", nil, "repository root directory (repeatable)")
	cmd.PersistentFlags().StringVar(&cfg.SystemIndex, "system-index", "", "system package index file (apt/pip versions)")
	cmd.PersistentFlags().StringVar(&cfg.ContextDir, "context-dir", ".avular-packages/contexts", "directory saved contexts and the package cache live in")
	_ = viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("repository.roots", cmd.PersistentFlags().Lookup("root"))

	cmd.AddCommand(newConfigCommand(cfg))
	cmd.AddCommand(newSolveCommand(cfg))
	cmd.AddCommand(newContextCommand(cfg))
	cmd.AddCommand(newViewCommand(cfg))
	cmd.AddCommand(newEnvCommand(cfg))
	cmd.AddCommand(newBuildCommand(cfg))
	cmd.AddCommand(newReleaseCommand(cfg))
	cmd.AddCommand(newTestCommand(cfg))
	cmd.AddCommand(newSearchCommand(cfg))
	cmd.AddCommand(newBindCommand(cfg))
	cmd.AddCommand(newDependsCommand(cfg))
	cmd.AddCommand(newCpCommand(cfg))
	cmd.AddCommand(newMvCommand(cfg))
	cmd.AddCommand(newRmCommand(cfg))
	cmd.AddCommand(newStatusCommand(cfg))
	cmd.AddCommand(newDiffCommand(cfg))
	cmd.AddCommand(newPkgHelpCommand(cfg))
	cmd.AddCommand(newPluginsCommand(cfg))
	cmd.AddCommand(newPkgCacheCommand(cfg))
	return cmd
}

func initConfig(configFile string) error {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("cache.l1_capacity", 4096)
	viper.SetDefault("cache.l2_capacity", 4096)
	viper.SetDefault("build.max_concurrent_builds", 4)
	viper.SetDefault("solver.strategy", "latest_wins")

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to read config file").
				WithCause(err)
		}
		return nil
	}

	viper.SetConfigName("avular-packages")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/avular-packages")
	if err := viper.ReadInConfig(); err != nil {
		return nil
	}
	return nil
}

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// cancellableContext installs a context cancelled by an interrupt
// signal, so Ctrl-C during solve/build/cp surfaces as a Cancelled
// error (exit 130) through the normal error-return path.
func cancellableContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func newService(cfg *RootConfig) (app.Service, error) {
	return app.NewService(cfg.Roots, cfg.SystemIndex, cfg.ContextDir)
}

func exitCodeForError(err error) int {
	code := core.ExitCode(err)
	log.Error().Str("severity", string(core.SeverityOf(err))).Msg(errorMessage(err))
	return code
}

func errorMessage(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}
