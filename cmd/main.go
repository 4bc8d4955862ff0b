// Package main provides the CLI entrypoint for the cookie status service.
// It wires subcommands (serve, check, merge, template, jwt), loads configuration, and initializes logging.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"strings"

	"cookiestatus/internal/checker"
	"cookiestatus/internal/config"
	"cookiestatus/pkg/logger"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev" //nolint: gochecknoglobals

// newChecker creates the checker configured by cfg, recording on meter.
func newChecker(ctx context.Context, cfg *config.Config, meter metric.Meter) checker.Checker {
	chk, err := checker.New(checker.NewOptions(cfg), meter)
	if err != nil {
		logger.Fatal(ctx, "could not create cookie checker", zap.Error(err))
	}

	return chk
}

// cookiesDir returns the --dir flag when set, the configured directory otherwise.
func cookiesDir(cmd *cobra.Command, cfg *config.Config) string {
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		return dir
	}

	return cfg.Cookies.Dir
}

// main sets up the root Cobra command, loads configuration and logging, and
// registers subcommands before executing the CLI.
func main() {
	rootCmd := &cobra.Command{
		Use:          "cookiestatus",
		Short:        "Checks and prepares YouTube cookie files for yt-dlp",
		SilenceUsage: true,
	}

	// there is no way to access flags before command execution in cobra.
	// configPath here is parsed using the standard flags package.
	// following line is just added to prevent errors when Cobra is parsing the flags.
	rootCmd.PersistentFlags().StringP("config", "c", "config.yml", "Config File Path")

	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("c", "config.yml", "The config file path")
	_ = fs.Parse(configArgs(os.Args[1:]))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("could not load config file: ", err)
	}

	if err := logger.SetupWithLevel(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatal("could not set up logger: ", err)
	}

	ctx := context.Background()

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "captured panic, exiting...", zap.Any("panic", p))
			logger.Sync()

			panic(p)
		}
	}()

	rootCmd.AddCommand(
		serveCommand(cfg),
		checkCommand(cfg),
		mergeCommand(cfg),
		templateCommand(cfg),
		JWTCommand(cfg),
	)

	err = rootCmd.Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1) //nolint: gocritic
	}
}

// configArgs picks the -c/--config flag out of args so the standard flag
// package can read it without knowing the subcommand flags.
func configArgs(args []string) []string {
	for i, arg := range args {
		switch {
		case arg == "-c" || arg == "--config" || arg == "-config":
			if i+1 < len(args) {
				return []string{"-c", args[i+1]}
			}
		case strings.HasPrefix(arg, "-c="), strings.HasPrefix(arg, "--config="), strings.HasPrefix(arg, "-config="):
			return []string{"-c", arg[strings.Index(arg, "=")+1:]}
		}
	}

	return nil
}
