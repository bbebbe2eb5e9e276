package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/cli"
	"github.com/warp/budget-engine/interest"
	"github.com/warp/budget-engine/logger"
)

var (
	flagIncreases []string
	flagOnetimes  []string
)

var payoffsCmd = &cobra.Command{
	Use:   "payoffs",
	Short: "Compare credit card payoff methods",
	Long: `Simulates every payoff method over the active credit accounts, starting
from a max total payment equal to the current minimum payments.

--increase DATE=AMOUNT sets a new max total payment from DATE on.
--onetime DATE=AMOUNT adds AMOUNT to the max for the billing period containing DATE.`,
	Args: cobra.NoArgs,
	RunE: withApp(runPayoffs),
}

func init() {
	payoffsCmd.Flags().StringArrayVar(&flagIncreases, "increase", nil, "Max payment increase, DATE=AMOUNT (repeatable)")
	payoffsCmd.Flags().StringArrayVar(&flagOnetimes, "onetime", nil, "One-time extra payment, DATE=AMOUNT (repeatable)")
	rootCmd.AddCommand(payoffsCmd)
}

func runPayoffs(ctx context.Context, a *app, _ []string) error {
	increases, err := parseAdjustments("--increase", flagIncreases)
	if err != nil {
		return err
	}
	onetimes, err := parseAdjustments("--onetime", flagOnetimes)
	if err != nil {
		return err
	}

	h, err := interest.NewHelper(ctx, a.store,
		interest.WithIncreases(increases),
		interest.WithOnetimes(onetimes),
		interest.WithHelperLogger(logger.Get()),
	)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("CREDIT CARD PAYOFFS"))
	if len(h.Accounts()) == 0 {
		fmt.Print(cli.RenderNote("no active credit accounts"))
		return nil
	}
	fmt.Print(cli.RenderTable(cli.PayoffAccountsTable(h.Accounts(), h.MinPayments())))
	fmt.Println()

	methods := h.CalculatePayoffs()
	fmt.Print(cli.RenderTable(cli.PayoffMethodsTable(h.Accounts(), methods)))
	for _, m := range methods {
		if m.Error != "" {
			fmt.Print(cli.RenderWarning("some methods could not run; raise the max payment with --increase"))
			break
		}
	}
	return nil
}

// parseAdjustments parses DATE=AMOUNT pairs.
func parseAdjustments(flag string, values []string) (interest.Adjustments, error) {
	adj := make(interest.Adjustments, 0, len(values))
	for _, v := range values {
		ds, as, ok := strings.Cut(v, "=")
		if !ok {
			return nil, fmt.Errorf("%s %q: want DATE=AMOUNT", flag, v)
		}
		d, err := budget.ParseDate(strings.TrimSpace(ds))
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", flag, v, err)
		}
		amt, err := decimal.NewFromString(strings.TrimSpace(as))
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", flag, v, err)
		}
		adj = append(adj, interest.Adjustment{Date: d, Amount: amt})
	}
	return adj, nil
}
