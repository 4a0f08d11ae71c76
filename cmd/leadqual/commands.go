package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Nyukimin/leadqual/internal/domain/lead"
	"github.com/Nyukimin/leadqual/internal/domain/prospect"
	domainrouting "github.com/Nyukimin/leadqual/internal/domain/routing"
	"github.com/Nyukimin/leadqual/internal/infrastructure/routing"
)

func newProspectCmd(a *app) *cobra.Command {
	var criteria prospect.Criteria
	var minHeadcount int

	cmd := &cobra.Command{
		Use:   "prospect",
		Short: "Search for prospects matching the given criteria",
		Example: `  leadqual prospect --query "cold chain operators" --geography "Southern Africa" --min-headcount 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("min-headcount") {
				criteria.MinHeadcount = &minHeadcount
			}
			// API呼び出し前に検証する
			if err := criteria.Validate(); err != nil {
				return err
			}
			if err := a.load(); err != nil {
				return err
			}

			deps, err := buildDependencies(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}

			prospects, err := deps.service.FindProspects(cmd.Context(), criteria)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), prospects)
		},
	}

	cmd.Flags().StringVar(&criteria.Query, "query", "", "What kind of companies to look for (required)")
	cmd.Flags().StringVar(&criteria.Geography, "geography", "", "Region or country")
	cmd.Flags().StringVar(&criteria.IndustryFocus, "industry", "", "Industry focus")
	cmd.Flags().StringVar(&criteria.IntentFocus, "intent", "", "Buying intent signal to look for")
	cmd.Flags().IntVar(&minHeadcount, "min-headcount", 0, "Minimum company headcount")
	return cmd
}

func newRouteCmd(a *app) *cobra.Command {
	var lat, lng float64

	cmd := &cobra.Command{
		Use:   "route [prompt]",
		Short: "Show which model configuration a prompt would be routed to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// 設定が読めなければデフォルトのモデル名で判定する
			var models routing.Models
			if err := a.load(); err == nil {
				models = a.cfg.Routing.Models()
			}

			var loc *domainrouting.LatLng
			if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
				loc = &domainrouting.LatLng{Latitude: lat, Longitude: lng}
			}

			decision := routing.NewIntentRouter(models).RouteNear(strings.Join(args, " "), loc)
			return writeJSON(cmd.OutOrStdout(), decision)
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "Caller latitude for map grounding")
	cmd.Flags().Float64Var(&lng, "lng", 0, "Caller longitude for map grounding")
	return cmd
}

func newScoreCmd() *cobra.Command {
	var leadPath, rulesPath string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a lead JSON file against a rules JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			var l lead.Lead
			if err := readJSON(leadPath, &l); err != nil {
				return err
			}
			var rules []lead.ScoringRule
			if err := readJSON(rulesPath, &rules); err != nil {
				return err
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), lead.Score(l, rules))
			return err
		},
	}

	cmd.Flags().StringVar(&leadPath, "lead", "", "Path to a lead JSON file")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "Path to a JSON array of scoring rules")
	_ = cmd.MarkFlagRequired("lead")
	_ = cmd.MarkFlagRequired("rules")
	return cmd
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
