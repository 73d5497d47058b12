package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/map-metadata/internal/usecase/dto"
)

func init() {
	RootCmd.AddCommand(queryCmd)

	flags := queryCmd.Flags()
	flags.Float64("lat", 0, "point latitude")
	flags.Float64("lon", 0, "point longitude")
	flags.Float64P("padding", "p", 0, "padding around the point in degrees (default from config)")
	flags.StringP("corners", "c", "", "polygon corners as lat,lon;lat,lon;...")
}

var queryCmd = &cobra.Command{
	Use:   "query <table>",
	Short: "Print the rows of a metadata table inside a region",
	Long:  "Print the rows of edge_structural, edge_functional, node_structural or node_functional that fall inside a point region or a polygon, as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		region, err := regionFromFlags(cmd)
		if err != nil {
			return err
		}

		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		resp, err := e.query().Query(cmd.Context(), dto.QueryRequest{Table: args[0], Region: region})
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

func regionFromFlags(cmd *cobra.Command) (dto.RegionRequest, error) {
	flags := cmd.Flags()
	corners, _ := flags.GetString("corners")
	if corners != "" {
		points, err := parseCorners(corners)
		if err != nil {
			return dto.RegionRequest{}, err
		}
		return dto.RegionRequest{Corners: points}, nil
	}

	if !flags.Changed("lat") || !flags.Changed("lon") {
		return dto.RegionRequest{}, fmt.Errorf("either --lat and --lon or --corners is required")
	}
	lat, _ := flags.GetFloat64("lat")
	lon, _ := flags.GetFloat64("lon")
	padding, _ := flags.GetFloat64("padding")
	return dto.RegionRequest{Point: &dto.Point{Lat: lat, Lon: lon}, Padding: padding}, nil
}

// parseCorners reads "lat,lon;lat,lon" pairs.
func parseCorners(s string) ([]dto.Point, error) {
	var points []dto.Point
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		latStr, lonStr, ok := strings.Cut(pair, ",")
		if !ok {
			return nil, fmt.Errorf("corner %q: want lat,lon", pair)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		if err != nil {
			return nil, fmt.Errorf("corner %q: %w", pair, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
		if err != nil {
			return nil, fmt.Errorf("corner %q: %w", pair, err)
		}
		points = append(points, dto.Point{Lat: lat, Lon: lon})
	}
	return points, nil
}
