// Package main provides the CLI entrypoint for nestegg.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/nestegg/internal/calc"
	"github.com/verte-zerg/nestegg/internal/config"
	"github.com/verte-zerg/nestegg/internal/logging"
	"github.com/verte-zerg/nestegg/internal/model"
	"github.com/verte-zerg/nestegg/internal/render"
	"github.com/verte-zerg/nestegg/internal/store"
	"github.com/verte-zerg/nestegg/internal/tui"
)

const (
	defaultMode         = model.ModeFutureValue
	defaultBalance      = 10000.0
	defaultMonthly      = 500.0
	defaultTarget       = 1000000.0
	defaultYears        = 30.0
	defaultRate         = 7.0
	defaultStateTTL     = 30 * 24 * time.Hour
	defaultRedisAddr    = "localhost:6379"
	defaultHistoryLimit = 20
	defaultPlotHeight   = 12
)

var (
	formMode    string
	formBalance float64
	formMonthly float64
	formTarget  float64
	formYears   float64
	formRate    float64
	formFresh   bool

	solveChart    bool
	solveWidth    int
	solveHeight   int
	solveColor    bool
	solveSchedule bool
	solveNoRecord bool

	historyLimit    int
	historySchedule bool

	verbose bool
	fileCfg config.FileConfig
	logger  = zap.NewNop()
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "nestegg",
		Short:             "Investment growth calculator",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: setup,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = logger.Sync()
		},
		RunE: runCalculatorCmd,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	addFormFlags(rootCmd)
	rootCmd.Flags().BoolVar(&formFresh, "fresh", false, "ignore the saved form")

	rootCmd.AddCommand(newSolveCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func addFormFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&formMode, "mode", string(defaultMode), "quantity to solve for (future-value, contribution, time, rate, starting)")
	cmd.Flags().Float64Var(&formBalance, "balance", defaultBalance, "current balance")
	cmd.Flags().Float64Var(&formMonthly, "monthly", defaultMonthly, "monthly contribution")
	cmd.Flags().Float64Var(&formTarget, "target", defaultTarget, "target amount")
	cmd.Flags().Float64Var(&formYears, "years", defaultYears, "time horizon in years")
	cmd.Flags().Float64Var(&formRate, "rate", defaultRate, "expected annual return in percent")
}

// setup loads the config file and builds the logger for every command.
func setup(_ *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	fileCfg = cfg

	level := ""
	if cfg.Log.Level != nil {
		level = *cfg.Log.Level
	}
	if verbose {
		level = "debug"
	}
	path := config.DefaultLogPath()
	if cfg.Log.File != nil {
		path = *cfg.Log.File
	}
	l, err := logging.New(path, level)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

func runCalculatorCmd(cmd *cobra.Command, _ []string) error {
	defaults, err := configForm(fileCfg.Calculator)
	if err != nil {
		return err
	}
	ttl, err := fileCfg.State.StateTTL(defaultStateTTL)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	state, closeState, err := openStateStore(st)
	if err != nil {
		return err
	}
	defer closeState()

	form := defaults
	if !formFresh {
		saved, ok, err := state.LoadFormState(context.Background())
		switch {
		case err != nil:
			logger.Warn("failed to load saved form", zap.Error(err))
		case ok:
			logger.Debug("restored saved form", zap.Time("saved_at", saved.SavedAt))
			form = saved
		}
	}
	form, err = applyFormFlags(cmd, form)
	if err != nil {
		return err
	}

	m := tui.NewModel(tui.Options{
		Initial:  form,
		Defaults: defaults,
		State:    state,
		History:  st,
		StateTTL: ttl,
		Logger:   logger,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// openStateStore picks the form-state backend from config. An unreachable
// Redis server falls back to not persisting the form.
func openStateStore(st *store.Store) (store.StateStore, func(), error) {
	backend, err := fileCfg.State.StateBackend()
	if err != nil {
		return nil, nil, err
	}
	switch backend {
	case config.BackendNone:
		return store.NopState{}, func() {}, nil
	case config.BackendRedis:
		addr := defaultRedisAddr
		if fileCfg.State.RedisAddr != nil && strings.TrimSpace(*fileCfg.State.RedisAddr) != "" {
			addr = strings.TrimSpace(*fileCfg.State.RedisAddr)
		}
		rs := store.NewRedisState(addr)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rs.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, form will not be saved", zap.String("addr", addr), zap.Error(err))
			logErrf("redis at %s unavailable; the form will not be saved\n", addr)
			_ = rs.Close()
			return store.NopState{}, func() {}, nil
		}
		return rs, func() {
			if cerr := rs.Close(); cerr != nil {
				logger.Warn("failed to close redis client", zap.Error(cerr))
			}
		}, nil
	default:
		return st, func() {}, nil
	}
}

func newSolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve once and print the result",
		Args:  cobra.NoArgs,
		RunE:  runSolveCmd,
	}
	addFormFlags(cmd)
	cmd.Flags().BoolVar(&solveChart, "chart", false, "print the growth chart")
	cmd.Flags().IntVar(&solveWidth, "width", 0, "chart width including axis (default: terminal width)")
	cmd.Flags().IntVar(&solveHeight, "height", defaultPlotHeight, "chart height in rows")
	cmd.Flags().BoolVar(&solveColor, "color", false, "force colored chart output")
	cmd.Flags().BoolVar(&solveSchedule, "schedule", false, "print the yearly schedule")
	cmd.Flags().BoolVar(&solveNoRecord, "no-record", false, "do not save the calculation in history")
	return cmd
}

func runSolveCmd(cmd *cobra.Command, _ []string) error {
	form, err := configForm(fileCfg.Calculator)
	if err != nil {
		return err
	}
	form, err = applyFormFlags(cmd, form)
	if err != nil {
		return err
	}
	res, err := calc.Calculate(form.Mode, form.Inputs)
	if err != nil {
		return err
	}
	logger.Debug("solved",
		zap.String("mode", string(res.Mode)),
		zap.Float64("main_value", res.MainValue),
		zap.Bool("feasible", res.Feasible))

	out := cmd.OutOrStdout()
	if err := printResult(out, res, solveChart, solveSchedule); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if solveNoRecord {
		return nil
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	id, err := st.InsertCalculation(context.Background(), model.Calculation{
		Mode:      res.Mode,
		Inputs:    form.Inputs,
		MainValue: res.MainValue,
		Feasible:  res.Feasible,
	})
	if err != nil {
		return fmt.Errorf("failed to record calculation: %w", err)
	}
	logger.Info("recorded calculation", zap.String("id", id))
	return nil
}

func printResult(w io.Writer, res model.Result, chart, schedule bool) error {
	if err := render.RenderSummary(w, res); err != nil {
		return err
	}
	if chart && len(res.Series) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		width := 0
		if solveWidth > 0 {
			width = render.PlotWidthFor(solveWidth)
		}
		if err := render.PlotGrowthWithColor(w, "Balance growth", res.Series, width, solveHeight, solveColor); err != nil {
			return err
		}
	}
	if schedule {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		if err := render.RenderSchedule(w, res.Series); err != nil {
			return err
		}
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded calculations",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLimit, "limit", defaultHistoryLimit, "number of calculations to show (0 for all)")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a recorded calculation",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShowCmd,
	}
	show.Flags().BoolVar(&historySchedule, "schedule", false, "print the yearly schedule")
	cmd.AddCommand(show)
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyLimit < 0 {
		return fmt.Errorf("--limit must be >= 0")
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	calcs, err := st.ListCalculations(context.Background(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list calculations: %w", err)
	}
	if err := render.RenderHistory(cmd.OutOrStdout(), calcs); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runHistoryShowCmd(cmd *cobra.Command, args []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	c, err := st.GetCalculation(context.Background(), args[0])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no calculation with id %q", args[0])
		}
		return err
	}
	res, err := calc.Calculate(c.Mode, c.Inputs)
	if err != nil {
		return fmt.Errorf("stored calculation %s is invalid: %w", c.ID, err)
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "ID: %s\nRecorded: %s\n\n", c.ID, c.CreatedAt.Local().Format("2006-01-02 15:04:05")); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := printResult(out, res, false, historySchedule); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
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
		if !os.IsNotExist(err) {
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

// configForm layers the [calculator] section over the built-in defaults.
func configForm(c config.CalculatorConfig) (model.FormState, error) {
	form := model.FormState{
		Mode: defaultMode,
		Inputs: model.Inputs{
			CurrentBalance:      defaultBalance,
			MonthlyContribution: defaultMonthly,
			TargetAmount:        defaultTarget,
			Years:               defaultYears,
			AnnualRatePercent:   defaultRate,
		},
	}
	if c.Mode != nil {
		mode, err := model.ParseMode(*c.Mode)
		if err != nil {
			return model.FormState{}, fmt.Errorf("invalid config calculator.mode: %w", err)
		}
		form.Mode = mode
	}
	applyFloatConfig(&form.Inputs.CurrentBalance, c.Balance)
	applyFloatConfig(&form.Inputs.MonthlyContribution, c.Monthly)
	applyFloatConfig(&form.Inputs.TargetAmount, c.Target)
	applyFloatConfig(&form.Inputs.Years, c.Years)
	applyFloatConfig(&form.Inputs.AnnualRatePercent, c.Rate)
	return form, nil
}

// applyFormFlags overrides the form with flags set on the command line.
func applyFormFlags(cmd *cobra.Command, form model.FormState) (model.FormState, error) {
	if cmd.Flags().Changed("mode") {
		mode, err := model.ParseMode(formMode)
		if err != nil {
			return model.FormState{}, fmt.Errorf("invalid --mode: %w", err)
		}
		form.Mode = mode
	}
	applyFloatFlag(cmd, "balance", &form.Inputs.CurrentBalance, formBalance)
	applyFloatFlag(cmd, "monthly", &form.Inputs.MonthlyContribution, formMonthly)
	applyFloatFlag(cmd, "target", &form.Inputs.TargetAmount, formTarget)
	applyFloatFlag(cmd, "years", &form.Inputs.Years, formYears)
	applyFloatFlag(cmd, "rate", &form.Inputs.AnnualRatePercent, formRate)
	return form, nil
}

func applyFloatConfig(target, value *float64) {
	if value == nil {
		return
	}
	*target = *value
}

func applyFloatFlag(cmd *cobra.Command, name string, target *float64, value float64) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# nestegg configuration
# Uncomment a value to enable it. CLI flags override config values.

[calculator]
# mode = %q    # future-value, contribution, time, rate or starting
# balance = %.0f          # Current balance
# monthly = %.0f            # Monthly contribution
# target = %.0f         # Target amount
# years = %.0f               # Time horizon in years
# rate = %.1f               # Expected annual return in percent

[state]
# backend = "sqlite"       # sqlite, redis or none
# ttl = %q              # How long the saved form is kept (0 keeps it forever)
# redis-addr = %q

[log]
# level = "info"           # debug, info, warn or error
# file = %q
`,
		defaultMode,
		defaultBalance,
		defaultMonthly,
		defaultTarget,
		defaultYears,
		defaultRate,
		defaultStateTTL.String(),
		defaultRedisAddr,
		config.DefaultLogPath(),
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
