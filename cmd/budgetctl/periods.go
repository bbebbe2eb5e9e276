package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/cli"
	"github.com/warp/budget-engine/payperiod"
)

var (
	flagFrom  string
	flagCount int
)

var periodsCmd = &cobra.Command{
	Use:   "periods",
	Short: "Overall sums for a run of pay periods",
	Long:  "Without --from, shows the previous, current, next and following periods around today.",
	Args:  cobra.NoArgs,
	RunE:  withApp(runPeriods),
}

var periodCmd = &cobra.Command{
	Use:   "period [DATE]",
	Short: "Ledger and budget sums of the period containing DATE (default today)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  withApp(runPeriod),
}

func init() {
	periodsCmd.Flags().StringVar(&flagFrom, "from", "", "First period: any date inside it, YYYY-MM-DD")
	periodsCmd.Flags().IntVarP(&flagCount, "count", "n", 4, "Number of periods")
	rootCmd.AddCommand(periodsCmd, periodCmd)
}

func runPeriods(ctx context.Context, a *app, _ []string) error {
	if flagCount < 1 {
		return errors.New("--count must be at least 1")
	}

	var (
		summaries []payperiod.PeriodSummary
		err       error
	)
	if flagFrom == "" && flagCount == 4 {
		summaries, err = a.cal.Overview(ctx)
	} else {
		from := a.cal.Current()
		if flagFrom != "" {
			d, perr := budget.ParseDate(flagFrom)
			if perr != nil {
				return fmt.Errorf("--from: %w", perr)
			}
			from = a.cal.PeriodFor(d)
		}
		summaries, err = payperiod.Summarize(ctx, payperiod.Range(from, flagCount))
	}
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("PAY PERIODS"))
	fmt.Print(cli.RenderNote(fmt.Sprintf("today %s, periods start %s (* current)", a.cal.Today(), a.cal.Epoch())))
	fmt.Print(cli.RenderTable(cli.PeriodsTable(summaries, a.cal.Current().Start())))
	return nil
}

func runPeriod(ctx context.Context, a *app, args []string) error {
	d := a.cal.Today()
	if len(args) == 1 {
		var err error
		if d, err = budget.ParseDate(args[0]); err != nil {
			return err
		}
	}
	p := a.cal.PeriodFor(d)

	records, err := p.Transactions(ctx)
	if err != nil {
		return err
	}
	sums, err := p.BudgetSums(ctx)
	if err != nil {
		return err
	}
	overall, err := p.OverallSums(ctx)
	if err != nil {
		return err
	}
	budgets, err := a.store.ListBudgets(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("PAY PERIOD %s .. %s", p.Start(), p.End())))
	switch {
	case p.Equal(a.cal.Current()):
		fmt.Print(cli.RenderNote("current period"))
	case p.IsInPast():
		fmt.Print(cli.RenderNote("past period: remaining is measured against spent"))
	}
	fmt.Println()
	if len(records) == 0 {
		fmt.Print(cli.RenderNote("no transactions"))
	} else {
		fmt.Print(cli.RenderTable(cli.LedgerTable(records)))
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.BudgetSumsTable(budgets, sums, overall)))
	return nil
}
