package storage

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"
)

type ExportData struct {
	Run          RunMetadata `json:"run"`
	Times        []float64   `json:"times"`
	WithTMD      []float64   `json:"with_tmd"`
	NoTMD        []float64   `json:"no_tmd"`
	DamperAngles []float64   `json:"damper_angles"`
}

func ExportJSON(w io.Writer, meta *RunMetadata, samples *Samples) error {
	data := ExportData{
		Run:          *meta,
		Times:        samples.Times,
		WithTMD:      samples.WithTMD,
		NoTMD:        samples.NoTMD,
		DamperAngles: samples.DamperAngles,
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

const (
	samplesSheet = "samples"
	runSheet     = "run"
)

// ExportXLSX writes a workbook with a samples sheet and a run sheet holding
// parameters, final outputs and metrics.
func ExportXLSX(path string, meta *RunMetadata, samples *Samples) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", samplesSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	header := make([]interface{}, len(samplesHeader))
	for i, h := range samplesHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(samplesSheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(samplesSheet, "A1", "D1", bold); err != nil {
		return err
	}
	for i := range samples.Times {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			samples.Times[i],
			at(samples.WithTMD, i),
			at(samples.NoTMD, i),
			at(samples.DamperAngles, i),
		}
		if err := f.SetSheetRow(samplesSheet, cell, &row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(runSheet); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"id", meta.ID},
		{"name", meta.Name},
		{"timestamp", meta.Timestamp.Format("2006-01-02 15:04:05")},
		{"dt", meta.Dt},
		{"steps", meta.Steps},
		{"building_mass", meta.Final.BuildingMass},
		{"natural_freq", meta.Final.NaturalFreq},
		{"damper_freq", meta.Final.DamperFreq},
		{"damped_amplitude", meta.Final.DampedAmplitude},
		{"reference_amplitude", meta.Final.ReferenceAmplitude},
	}
	rows = appendSorted(rows, "param.", meta.Params)
	rows = appendSorted(rows, "metric.", meta.Metrics)

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(runSheet, cell, &rows[i]); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(runSheet, "A", "A", 28); err != nil {
		return err
	}

	return f.SaveAs(path)
}

func appendSorted(rows [][]interface{}, prefix string, m map[string]float64) [][]interface{} {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rows = append(rows, []interface{}{prefix + k, m[k]})
	}
	return rows
}
