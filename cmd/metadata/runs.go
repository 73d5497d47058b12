package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(latestRunCmd)
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect aggregation runs",
}

var latestRunCmd = &cobra.Command{
	Use:   "latest",
	Short: "Print the diagnostics of the latest run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		diag, err := e.query().LatestRun(cmd.Context())
		if err != nil {
			return err
		}

		b, err := json.MarshalIndent(diag, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
		return nil
	},
}
