package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bqtarget/internal/config"
	"bqtarget/internal/logger"
	"bqtarget/internal/runerr"
	"bqtarget/internal/target"
)

type rootOptions struct {
	configPath string
	verbose    bool
	validate   bool
}

// newRootCmd builds the command tree. Streams are injected for tests.
func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:           "target-bigquery [config.json]",
		Short:         "Singer target that loads tap output into BigQuery or a SQL store",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.configPath = args[0]
			}
			return runTarget(cmd.Context(), opts, stdin, stdout, stderr)
		},
	}
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "path to the JSON (or .toml) config file")
	f.BoolVar(&opts.verbose, "verbose", false, "enable debug logs")
	f.BoolVar(&opts.validate, "validate", false, "validate the configuration and exit")

	cmd.AddCommand(newVersionCmd(), newDDLCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "target-bigquery %s (%s)\n", buildVersion, buildCommit)
		},
	}
}

// loadConfig decodes, defaults and lints the config at path. Issues are
// printed to w; any error-level issue fails the load.
func loadConfig(path string, w io.Writer) (config.Config, error) {
	if path == "" {
		return config.Config{}, runerr.Newf(runerr.KindConfig, "config file required: target-bigquery --config <config.json>")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, runerr.New(runerr.KindConfig, err)
	}
	cfg.ApplyDefaults()

	issues := config.Validate(cfg, config.KnownStorageKinds())
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return cfg, runerr.Newf(runerr.KindConfig, "configuration is invalid: %s", path)
	}
	return cfg, nil
}

func newLogger(cfg config.Config, verbose bool, w io.Writer) logger.Logger {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logger.LevelInfo
	}
	if verbose {
		level = logger.LevelDebug
	}
	return logger.NewLevelLogger(w, level)
}

func runTarget(ctx context.Context, opts rootOptions, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(opts.configPath, stderr)
	if err != nil {
		return err
	}
	log := newLogger(cfg, opts.verbose, stderr)
	if opts.validate {
		log.Infof("configuration is valid: %s", opts.configPath)
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	flush := setupMetrics(cfg, log)
	defer flush()

	log.Debugf("storage=%s dataset=%s table=%q workers=%d", cfg.Storage, cfg.DatasetID, cfg.TableID, cfg.LoadWorkers)

	out := bufio.NewWriter(stdout)
	sum, err := target.Run(ctx, target.Options{
		Config:  cfg,
		In:      stdin,
		Out:     out,
		Logger:  log,
		Version: buildVersion,
	})
	if err != nil {
		return err
	}

	var rejected int
	for _, r := range sum.Tables {
		rejected += len(r.RowErrors)
	}
	log.Infof("run=%s completed in %s tables=%d rejected_rows=%d",
		sum.RunID, sum.Duration.Truncate(time.Millisecond), len(sum.Tables), rejected)
	return nil
}
