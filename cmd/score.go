package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridsight/siterank/internal/engine"
	"github.com/gridsight/siterank/internal/export"
	"github.com/gridsight/siterank/internal/model"
	"github.com/gridsight/siterank/internal/rank"
)

var (
	scoreInput   string
	scorePersona string
	scoreMethod  string
	scoreZones   string
	scoreEnrich  bool
	scoreOut     string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a batch of candidate sites",
	Long:  "Reads candidates from a JSON file, scores them against the selected persona and method, and writes ranked results to stdout or a file (.json or .xlsx).",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		candidates, err := readCandidates(scoreInput)
		if err != nil {
			return err
		}

		env, err := initScoring(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		req := engine.Request{
			Candidates: candidates,
			Persona:    scorePersona,
			Method:     scoreMethod,
			Zones:      env.Zones,
			Enrich:     scoreEnrich,
		}
		if scoreZones != "" {
			zones, err := rank.LoadZones(scoreZones)
			if err != nil {
				return err
			}
			req.Zones = zones
		}

		results, err := env.Engine.ScoreBatch(ctx, req)
		if err != nil {
			return err
		}

		zap.L().Info("scored batch",
			zap.Int("candidates", len(candidates)),
			zap.String("persona", scorePersona),
			zap.String("method", scoreMethod),
		)

		return writeResults(scoreOut, results)
	},
}

func readCandidates(path string) ([]model.Candidate, error) {
	if path == "" {
		return nil, eris.New("--input is required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read candidates file %s", path)
	}
	var candidates []model.Candidate
	if err := json.Unmarshal(raw, &candidates); err != nil {
		return nil, eris.Wrapf(err, "parse candidates file %s", path)
	}
	return candidates, nil
}

func writeResults(out string, results []model.ScoringResult) error {
	switch {
	case out == "":
		return export.WriteJSON(os.Stdout, results)
	case strings.HasSuffix(out, ".xlsx"):
		return export.WriteXLSX(out, results)
	default:
		f, err := os.Create(out)
		if err != nil {
			return eris.Wrapf(err, "create output file %s", out)
		}
		defer func() { _ = f.Close() }()
		return export.WriteJSON(f, results)
	}
}

func init() {
	scoreCmd.Flags().StringVar(&scoreInput, "input", "", "JSON file with candidate sites")
	scoreCmd.Flags().StringVar(&scorePersona, "persona", "balanced", "named persona for weighting")
	scoreCmd.Flags().StringVar(&scoreMethod, "method", rank.MethodWeighted, "aggregation method (weighted or topsis)")
	scoreCmd.Flags().StringVar(&scoreZones, "zones", "", "YAML file with zone definitions")
	scoreCmd.Flags().BoolVar(&scoreEnrich, "enrich", false, "apply zone enrichment to top-ranked results")
	scoreCmd.Flags().StringVar(&scoreOut, "out", "", "output path (.json or .xlsx, default stdout)")
	rootCmd.AddCommand(scoreCmd)
}
