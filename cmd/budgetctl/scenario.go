package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/budget-engine/api"
	"github.com/warp/budget-engine/cli"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Demo data sets",
}

var scenarioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List demo scenarios",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		t := cli.Table{Headers: []string{"ID", "Description"}}
		for _, s := range api.Scenarios() {
			t.Rows = append(t.Rows, []string{s.ID, s.Description})
		}
		fmt.Print(cli.RenderTable(t))
		return nil
	},
}

var scenarioLoadCmd = &cobra.Command{
	Use:   "load NAME",
	Short: "Replace all data with a demo scenario",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		if err := api.SeedScenario(ctx, a.store, a.cal, args[0]); err != nil {
			return err
		}
		fmt.Printf("Loaded scenario %q around the period starting %s\n", args[0], a.cal.Current().Start())
		return nil
	}),
}

func init() {
	scenarioCmd.AddCommand(scenarioListCmd, scenarioLoadCmd)
	rootCmd.AddCommand(scenarioCmd)
}
