// Package main provides the CLI entrypoint for respire.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/verte-zerg/respire/internal/config"
	"github.com/verte-zerg/respire/internal/eat"
	"github.com/verte-zerg/respire/internal/logging"
	"github.com/verte-zerg/respire/internal/model"
	"github.com/verte-zerg/respire/internal/pipeline"
	"github.com/verte-zerg/respire/internal/stats"
	"github.com/verte-zerg/respire/internal/store"
)

const (
	taskAll         = "all"
	defaultLogLevel = "info"
	defaultWidth    = 80
)

var (
	bidsRoot string
	dbPath   string
	noStore  bool
	logLevel string
	logFile  string
	workers  int

	rawTask string

	rateWindow    int
	rateResamples int
	rateSeed      int64

	references string

	reportWidth int
)

func main() {
	rootCmd := newRootCmd()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "respire",
		Short:         "Breath-counting respiration rate and empathic-accuracy pipeline",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&bidsRoot, "bids-root", "", "BIDS dataset root")
	flags.StringVar(&dbPath, "db", config.DefaultDBPath(), "SQLite database for run history")
	flags.BoolVar(&noStore, "no-store", false, "do not record the run in the database")
	flags.StringVar(&logLevel, "log-level", defaultLogLevel, "console log level (debug, info, warn, error)")
	flags.StringVar(&logFile, "log-file", "", "rotating JSON log file")
	flags.IntVar(&workers, "workers", 0, "parallel subjects (default: number of CPUs)")

	rootCmd.AddCommand(newRawCmd())
	rootCmd.AddCommand(newRateCmd())
	rootCmd.AddCommand(newEATCmd())
	rootCmd.AddCommand(newMergeCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// env is the resolved configuration shared by the pipeline commands.
type env struct {
	file   config.FileConfig
	cfg    model.Config
	logger *zap.Logger
}

func loadEnv(cmd *cobra.Command) (env, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return env{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "bids-root", &bidsRoot, fileCfg.Paths.BIDSRoot)
	applyStringConfig(cmd, "db", &dbPath, fileCfg.Paths.DB)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-file", &logFile, fileCfg.Log.File)

	cfg := fileCfg.Apply(model.DefaultConfig())
	applyIntFlag(cmd, "window", &cfg.Window, rateWindow)
	applyIntFlag(cmd, "resamples", &cfg.Resamples, rateResamples)
	applyInt64Flag(cmd, "seed", &cfg.Seed, rateSeed)
	if err := cfg.Validate(); err != nil {
		return env{}, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(logging.Options{Level: logLevel, File: logFile})
	if err != nil {
		return env{}, err
	}
	return env{file: fileCfg, cfg: cfg, logger: logger}, nil
}

func (e env) pipeline() (*pipeline.Pipeline, func(), error) {
	if bidsRoot == "" {
		return nil, nil, fmt.Errorf("--bids-root is required (or set paths.bids-root in %s)", config.DefaultConfigPath())
	}
	p := pipeline.New(bidsRoot, e.cfg, e.logger)
	if workers > 0 {
		p.Workers = workers
	}
	cleanup := func() {
		_ = e.logger.Sync()
	}
	if noStore {
		return p, cleanup, nil
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	p.Store = st
	return p, func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
		cleanup()
	}, nil
}

func newRawCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "raw",
		Short: "Convert source logs into BIDS behavioral tables",
		Args:  cobra.NoArgs,
		RunE:  runRawCmd,
	}
	cmd.Flags().StringVar(&rawTask, "task", taskAll, "task to convert: bct, eat or all")
	return cmd
}

func runRawCmd(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	if bidsRoot == "" {
		return fmt.Errorf("--bids-root is required (or set paths.bids-root in %s)", config.DefaultConfigPath())
	}
	p := pipeline.New(bidsRoot, e.cfg, e.logger)
	defer func() {
		_ = e.logger.Sync()
	}()

	ctx := cmd.Context()
	var converters []func(context.Context) ([]string, error)
	switch rawTask {
	case model.TaskBCT:
		converters = append(converters, p.ConvertBCT)
	case model.TaskEAT:
		converters = append(converters, p.ConvertEAT)
	case taskAll:
		converters = append(converters, p.ConvertBCT, p.ConvertEAT)
	default:
		return fmt.Errorf("--task must be %s, %s or %s", model.TaskBCT, model.TaskEAT, taskAll)
	}
	var written []string
	for _, convert := range converters {
		files, err := convert(ctx)
		if err != nil {
			return err
		}
		written = append(written, files...)
	}
	for _, path := range written {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), path); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newRateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rrate",
		Short: "Estimate breath-counting respiration rates",
		Args:  cobra.NoArgs,
		RunE:  runRateCmd,
	}
	defaults := model.DefaultConfig()
	cmd.Flags().IntVar(&rateWindow, "window", defaults.Window, "sliding window in bins")
	cmd.Flags().IntVar(&rateResamples, "resamples", defaults.Resamples, "bootstrap resamples per bin")
	cmd.Flags().Int64Var(&rateSeed, "seed", defaults.Seed, "bootstrap seed")
	return cmd
}

func runRateCmd(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	p, cleanup, err := e.pipeline()
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := p.RunRate(cmd.Context())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d subjects, %d bins written to %s\n",
		len(res.Subjects), len(res.Group), p.OutputDir())
	return err
}

func newEATCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eat",
		Short: "Score empathic accuracy against reference ratings",
		Args:  cobra.NoArgs,
		RunE:  runEATCmd,
	}
	cmd.Flags().StringVar(&references, "references", "", "reference ratings archive (zip or directory)")
	return cmd
}

func runEATCmd(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "references", &references, e.file.Paths.References)
	if references == "" {
		return fmt.Errorf("--references is required (or set paths.references in %s)", config.DefaultConfigPath())
	}
	ratings, err := eat.OpenRatings(references)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := ratings.Close(); cerr != nil {
			logErrf("failed to close ratings: %v\n", cerr)
		}
	}()

	p, cleanup, err := e.pipeline()
	if err != nil {
		return err
	}
	defer cleanup()
	p.References = ratings

	res, err := p.RunCorrelation(cmd.Context())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d trials, %d subject summaries written to %s\n",
		len(res.Trials), len(res.Subjects), p.OutputDir())
	return err
}

func newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Join phenotype data and derived measures into one row per participant",
		Args:  cobra.NoArgs,
		RunE:  runMergeCmd,
	}
}

func runMergeCmd(cmd *cobra.Command, _ []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	if bidsRoot == "" {
		return fmt.Errorf("--bids-root is required (or set paths.bids-root in %s)", config.DefaultConfigPath())
	}
	p := pipeline.New(bidsRoot, e.cfg, e.logger)
	defer func() {
		_ = e.logger.Sync()
	}()

	res, err := p.RunMerge(cmd.Context())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d participants, %d columns written to %s\n",
		len(res.Table.Rows), len(res.Table.Columns), filepath.Join(p.OutputDir(), pipeline.MergeFile))
	return err
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the latest stored runs",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	cmd.Flags().IntVar(&reportWidth, "width", 0, "sparkline width (default: terminal width)")
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "db", &dbPath, fileCfg.Paths.DB)

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	report, err := stats.BuildReport(cmd.Context(), st)
	if err != nil {
		return err
	}
	width := reportWidth
	if width <= 0 {
		width = terminalWidth()
	}
	for _, line := range stats.Render(report, width, time.Now()) {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

// applyIntFlag overrides a config value with a flag the user set explicitly.
func applyIntFlag(cmd *cobra.Command, name string, target *int, value int) {
	if f := cmd.Flags().Lookup(name); f == nil || !f.Changed {
		return
	}
	*target = value
}

func applyInt64Flag(cmd *cobra.Command, name string, target *int64, value int64) {
	if f := cmd.Flags().Lookup(name); f == nil || !f.Changed {
		return
	}
	*target = value
}

func defaultConfigTemplate() string {
	d := model.DefaultConfig()
	return fmt.Sprintf(`# respire configuration
# Uncomment a value to enable it. CLI flags override config values.

[paths]
# bids-root = "/path/to/bids"          # BIDS dataset root
# references = "/path/to/ratings.zip"  # Reference ratings archive or directory
# db = %q

[bct]
# target = %d                # Breath count that ends a cycle
# practice-threshold = %d  # Cycle keys at or above this are practice
# source-time-unit = %q      # Unit of source timestamps: "s" or "ms"
# bin-width-s = %.1f         # Time bin width
# span-s = %.1f            # Task duration
# window = %d                # Sliding window in bins; edge trimming follows it
# gaussian-std = %.1f        # Display smoothing kernel std in bins
# resamples = %d          # Bootstrap resamples per bin
# confidence = %.2f          # Confidence level of the group interval
# seed = %d                   # Bootstrap seed

[eat]
# sample-rate-hz = %.1f      # Slider sampling rate
# practice-video = ""        # Stimulus id of the practice trial

[log]
# level = %q
# file = %q
`,
		config.DefaultDBPath(),
		d.Target,
		d.PracticeThreshold,
		d.SourceTimeUnit,
		d.BinWidthMs/1000,
		d.SpanMs/1000,
		d.Window,
		d.GaussianStd,
		d.Resamples,
		d.Confidence,
		d.Seed,
		d.SampleRateHz,
		defaultLogLevel,
		config.DefaultLogPath(),
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
