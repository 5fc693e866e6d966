package storage

import (
	"encoding/json"
	"io"

	"gonum.org/v1/gonum/mat"
)

type ExportData struct {
	RunMetadata
	Times       []float64   `json:"times"`
	States      [][]float64 `json:"states"`
	Controls    [][]float64 `json:"controls"`
	CostHistory []float64   `json:"cost_history"`
}

// ExportJSON writes a run's metadata, trajectory and cost history to w.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	tr, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	hist, err := s.LoadCostHistory(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		RunMetadata: *meta,
		Times:       tr.Times,
		States:      rawVecs(tr.States),
		Controls:    rawVecs(tr.Controls),
		CostHistory: hist,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportCSV copies the stored trajectory table to w.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	f, err := s.open(runID, trajectoryFile)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}

func rawVecs(vs []*mat.VecDense) [][]float64 {
	out := make([][]float64, len(vs))
	for i, v := range vs {
		out[i] = mat.Col(nil, 0, v)
	}
	return out
}
