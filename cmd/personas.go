package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridsight/siterank/internal/persona"
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List the built-in stakeholder personas",
	RunE: func(cmd *cobra.Command, args []string) error {
		type entry struct {
			Name        string          `json:"name"`
			Description string          `json:"description"`
			IdealMW     float64         `json:"ideal_mw"`
			Weights     persona.Weights `json:"weights"`
		}

		entries := make([]entry, 0, len(persona.Names()))
		for _, name := range persona.Names() {
			p, err := persona.Get(name)
			if err != nil {
				return err
			}
			entries = append(entries, entry{
				Name:        p.Name,
				Description: p.Description,
				IdealMW:     p.IdealMW,
				Weights:     p.Weights,
			})
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	},
}

func init() {
	rootCmd.AddCommand(personasCmd)
}
