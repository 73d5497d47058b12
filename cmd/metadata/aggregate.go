package main

import (
	"encoding/json"
	"fmt"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/map-metadata/internal/usecase"
	"github.com/map-metadata/internal/usecase/dto"
)

func init() {
	RootCmd.AddCommand(aggregateCmd)

	flags := aggregateCmd.Flags()
	flags.StringP("trajectories", "t", "", "trajectory CSV (default from config)")
	flags.StringP("edges", "e", "", "edge CSV (default from config)")
	flags.StringP("nodes", "n", "", "node CSV (default from config)")
	flags.BoolP("json", "j", false, "print the run summary as JSON")
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Recompute the four metadata tables",
	Long:  "Read trajectories and the road graph, build segments, aggregate them and persist the edge and node tables.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		flags := cmd.Flags()
		req := dto.RecomputeRequest{}
		req.TrajectoryPath, _ = flags.GetString("trajectories")
		req.EdgesPath, _ = flags.GetString("edges")
		req.NodesPath, _ = flags.GetString("nodes")

		result, err := e.aggregation().Recompute(cmd.Context(), req)
		if err != nil {
			return err
		}

		jsonfmt, _ := flags.GetBool("json")
		if jsonfmt {
			return renderRunJSON(result)
		}
		renderRunTxt(result)
		return nil
	},
}

func renderRunJSON(result *usecase.RecomputeResult) error {
	diag := result.Diagnostics
	b, err := json.MarshalIndent(dto.RecomputeResponse{
		Diagnostics: diag,
		Dropped:     diag.Dropped(),
		Degraded:    diag.Degraded(),
		Tables:      dto.CountTables(result.Tables),
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(b))
	return nil
}

func renderRunTxt(result *usecase.RecomputeResult) {
	diag := result.Diagnostics
	counts := dto.CountTables(result.Tables)

	fmt.Fprintf(out, "RunID: %s\n", diag.RunID)
	fmt.Fprintf(out, "StartedAt: %s\n", diag.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(out, "Duration: %s\n", diag.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "PointsRead: %s\n", humanize.Comma(int64(diag.PointsRead)))
	fmt.Fprintf(out, "FormatErrors: %s\n", humanize.Comma(int64(diag.FormatErrors)))
	fmt.Fprintf(out, "EdgeSegments: %s\n", humanize.Comma(int64(diag.EdgeSegments)))
	fmt.Fprintf(out, "NodeSegments: %s\n", humanize.Comma(int64(diag.NodeSegments)))
	fmt.Fprintf(out, "Degraded: %s\n", humanize.Comma(int64(diag.Degraded())))
	fmt.Fprintf(out, "EdgeStructural: %s\n", humanize.Comma(int64(counts.EdgeStructural)))
	fmt.Fprintf(out, "EdgeFunctional: %s\n", humanize.Comma(int64(counts.EdgeFunctional)))
	fmt.Fprintf(out, "NodeStructural: %s\n", humanize.Comma(int64(counts.NodeStructural)))
	fmt.Fprintf(out, "NodeFunctional: %s\n", humanize.Comma(int64(counts.NodeFunctional)))
}
