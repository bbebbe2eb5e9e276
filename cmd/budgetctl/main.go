// Command budgetctl inspects pay periods and payoff plans from the terminal.
//
//	budgetctl periods                     overview around today
//	budgetctl periods --from 2017-07-21 -n 6
//	budgetctl period 2017-08-10           ledger and budget sums
//	budgetctl payoffs --increase 2017-09-01=500
//	budgetctl scenario load household
//	budgetctl --memory --scenario credit-cards payoffs
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/budget-engine/api"
	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/budget/store"
	"github.com/warp/budget-engine/config"
	"github.com/warp/budget-engine/logger"
	"github.com/warp/budget-engine/payperiod"
	"github.com/warp/budget-engine/store/sqlite"
)

var (
	flagDB       string
	flagMemory   bool
	flagScenario string
	flagStart    string
)

// app is what every subcommand works against.
type app struct {
	store budget.TxStore
	cal   *payperiod.Calendar
	close func() error
}

var rootCmd = &cobra.Command{
	Use:           "budgetctl",
	Short:         "Biweekly pay period budgeting",
	Long:          "Show pay period ledgers and budget sums, and compare credit card payoff methods.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default from config)")
	rootCmd.PersistentFlags().BoolVar(&flagMemory, "memory", false, "Use an empty in-memory store")
	rootCmd.PersistentFlags().StringVar(&flagScenario, "scenario", "", "Load a demo scenario before running the command")
	rootCmd.PersistentFlags().StringVar(&flagStart, "pay-period-start", "", "Pay period epoch, YYYY-MM-DD (default from config)")
}

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openApp loads configuration, opens the store and seeds flagScenario.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagStart != "" {
		cfg.PayPeriodStart = flagStart
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// CLI logs stay quiet unless asked for
	level := cfg.LogLevel
	if level == "info" {
		level = "warn"
	}
	logger.Init(cfg.Env, level)
	log := logger.Get()

	a := &app{close: func() error { return nil }}
	if flagMemory {
		a.store = store.NewMemory()
	} else {
		s, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", cfg.DBPath, err)
		}
		a.store, a.close = s, s.Close
	}
	a.cal = payperiod.NewCalendar(cfg.Epoch(), a.store, payperiod.WithLogger(log))

	if flagScenario != "" {
		if err := api.SeedScenario(ctx, a.store, a.cal, flagScenario); err != nil {
			_ = a.close()
			return nil, err
		}
	}
	return a, nil
}

// withApp wraps a command body with openApp and closes the store after.
func withApp(run func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		return run(ctx, a, args)
	}
}
