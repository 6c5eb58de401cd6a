package main

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gridsight/siterank/internal/persona"
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Generate and validate persona weight vectors",
}

type weightsOutput struct {
	Weights     persona.Weights      `json:"weights"`
	Methodology string               `json:"methodology"`
	Adjustments []persona.Adjustment `json:"adjustments,omitempty"`
}

func printWeights(w persona.Weights, methodology string, adjustments []persona.Adjustment) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(weightsOutput{Weights: w, Methodology: methodology, Adjustments: adjustments})
}

// parsePairs splits "key=value,key=value" flags.
func parsePairs(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, eris.Errorf("malformed pair %q, expected key=value", pair)
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out, nil
}

var (
	prioritiesSpec  string
	prioritiesBlend string
	prioritiesMix   float64
)

var weightsPrioritiesCmd = &cobra.Command{
	Use:   "priorities",
	Short: "Derive weights from 1-5 importance ratings",
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, err := parsePairs(prioritiesSpec)
		if err != nil {
			return err
		}
		priorities := make(map[string]int, len(pairs))
		for k, v := range pairs {
			n, err := strconv.Atoi(v)
			if err != nil {
				return eris.Errorf("priority for %q must be an integer, got %q", k, v)
			}
			priorities[k] = n
		}

		w, method, err := persona.FromPriorities(priorities, prioritiesBlend, prioritiesMix)
		if err != nil {
			return err
		}
		return printWeights(w, method, nil)
	},
}

var (
	constraintsBase       string
	constraintsBudget     float64
	constraintsTimeline   int
	constraintsRedundancy bool
)

var weightsConstraintsCmd = &cobra.Command{
	Use:   "constraints",
	Short: "Boost a persona's weights from structured constraints",
	RunE: func(cmd *cobra.Command, args []string) error {
		var c persona.Constraints
		if cmd.Flags().Changed("budget") {
			c.MaxBudgetPerMWh = &constraintsBudget
		}
		if cmd.Flags().Changed("timeline-months") {
			c.TimelineMonths = &constraintsTimeline
		}
		c.RequireRedundancy = constraintsRedundancy

		w, method, adjustments, err := persona.FromConstraints(constraintsBase, c)
		if err != nil {
			return err
		}
		return printWeights(w, method, adjustments)
	},
}

var blendSpec string

var weightsBlendCmd = &cobra.Command{
	Use:   "blend",
	Short: "Blend two or more named personas by mixing ratios",
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, err := parsePairs(blendSpec)
		if err != nil {
			return err
		}
		mix := make(map[string]float64, len(pairs))
		for k, v := range pairs {
			ratio, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return eris.Errorf("ratio for %q must be numeric, got %q", k, v)
			}
			mix[k] = ratio
		}

		w, method, err := persona.Blend(mix)
		if err != nil {
			return err
		}
		return printWeights(w, method, nil)
	},
}

var goalsSpec string

var weightsGoalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "Derive weights from objective importances",
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, err := parsePairs(goalsSpec)
		if err != nil {
			return err
		}
		goals := make(map[string]float64, len(pairs))
		for k, v := range pairs {
			importance, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return eris.Errorf("importance for %q must be numeric, got %q", k, v)
			}
			goals[k] = importance
		}

		w, method, err := persona.FromGoals(goals)
		if err != nil {
			return err
		}
		return printWeights(w, method, nil)
	},
}

func init() {
	weightsPrioritiesCmd.Flags().StringVar(&prioritiesSpec, "set", "", "comma-separated criterion=importance pairs (1-5)")
	weightsPrioritiesCmd.Flags().StringVar(&prioritiesBlend, "blend-with", "", "persona to blend with")
	weightsPrioritiesCmd.Flags().Float64Var(&prioritiesMix, "blend-factor", 0, "persona share of the blended vector (0-1)")

	weightsConstraintsCmd.Flags().StringVar(&constraintsBase, "base", "balanced", "base persona")
	weightsConstraintsCmd.Flags().Float64Var(&constraintsBudget, "budget", 0, "budget cap per MWh")
	weightsConstraintsCmd.Flags().IntVar(&constraintsTimeline, "timeline-months", 0, "deployment timeline in months")
	weightsConstraintsCmd.Flags().BoolVar(&constraintsRedundancy, "redundancy", false, "redundancy is mandatory")

	weightsBlendCmd.Flags().StringVar(&blendSpec, "mix", "", "comma-separated persona=ratio pairs")
	weightsGoalsCmd.Flags().StringVar(&goalsSpec, "set", "", "comma-separated goal=importance pairs")

	weightsCmd.AddCommand(weightsPrioritiesCmd, weightsConstraintsCmd, weightsBlendCmd, weightsGoalsCmd)
	rootCmd.AddCommand(weightsCmd)
}
