// Package export writes scoring results to JSON and XLSX.
package export

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/gridsight/siterank/internal/model"
)

// WriteJSON writes results as indented JSON.
func WriteJSON(w io.Writer, results []model.ScoringResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return eris.Wrap(err, "export: encode json")
	}
	return nil
}

// xlsxHeaders are the fixed leading columns; the seven criteria and the
// distance columns follow.
var xlsxHeaders = []string{"candidate_id", "rating", "description", "internal_score", "method", "enriched", "zone", "error"}

// WriteXLSX writes one row per result to a workbook at path.
func WriteXLSX(path string, results []model.ScoringResult) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("results")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	distanceCols := distanceColumns(results)

	header := sheet.AddRow()
	for _, h := range xlsxHeaders {
		header.AddCell().Value = h
	}
	for _, k := range model.Criteria {
		header.AddCell().Value = k
	}
	for _, k := range distanceCols {
		header.AddCell().Value = k + "_km"
	}

	for i := range results {
		r := &results[i]
		row := sheet.AddRow()
		row.AddCell().Value = r.CandidateID
		row.AddCell().SetFloatWithFormat(r.DisplayRating, "0.0")
		row.AddCell().Value = r.RatingDescription
		row.AddCell().SetFloatWithFormat(r.InternalScore, "0.00")
		row.AddCell().Value = r.Method
		row.AddCell().SetBool(r.Enriched)
		if r.Zone != nil {
			row.AddCell().Value = r.Zone.Zone
		} else {
			row.AddCell()
		}
		row.AddCell().Value = r.Error

		for _, k := range model.Criteria {
			row.AddCell().SetFloatWithFormat(r.ComponentScores[k], "0.0")
		}
		for _, k := range distanceCols {
			if d, ok := r.DistancesKm[k]; ok && d != nil {
				row.AddCell().SetFloatWithFormat(*d, "0.0")
			} else {
				row.AddCell()
			}
		}
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

// distanceColumns returns the union of distance keys across results, in
// stable order.
func distanceColumns(results []model.ScoringResult) []string {
	seen := make(map[string]bool)
	var cols []string
	for i := range results {
		for k := range results[i].DistancesKm {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	// Map iteration order varies; sort for stable output.
	sort.Strings(cols)
	return cols
}
