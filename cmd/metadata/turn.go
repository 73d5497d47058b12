package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/map-metadata/internal/usecase/dto"
)

func init() {
	RootCmd.AddCommand(turnCmd)

	flags := turnCmd.Flags()
	flags.Float64("from", 0, "incoming heading in degrees")
	flags.Float64("to", 0, "outgoing heading in degrees")
}

var turnCmd = &cobra.Command{
	Use:   "turn <u,v,key>",
	Short: "Classify the turn between two headings on an edge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		from, _ := cmd.Flags().GetFloat64("from")
		to, _ := cmd.Flags().GetFloat64("to")

		resp, err := e.query().ClassifyTurn(cmd.Context(), dto.TurnRequest{Edge: args[0], From: from, To: to})
		if err != nil {
			return err
		}

		b, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
		return nil
	},
}
