package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/config"
	"github.com/san-kum/trajopt/internal/ilqr"
)

const (
	metadataFile   = "metadata.json"
	configFile     = "config.yaml"
	trajectoryFile = "trajectory.csv"
	gainsFile      = "gains.csv"
	costFile       = "cost.csv"
)

var (
	ErrRunNotFound  = errors.New("storage: run not found")
	ErrAmbiguousRun = errors.New("storage: run prefix is ambiguous")
)

// Store keeps one directory per solve under baseDir.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string    `json:"id"`
	Model      string    `json:"model"`
	Timestamp  time.Time `json:"timestamp"`
	Dt         float64   `json:"dt"`
	Horizon    int       `json:"horizon"`
	StateDim   int       `json:"state_dim"`
	ControlDim int       `json:"control_dim"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Iterations int       `json:"iterations"`
	FinalCost  float64   `json:"final_cost"`
	ElapsedMS  float64   `json:"elapsed_ms"`
}

// Trajectory is the stored state/control sequence. Controls has one entry
// fewer than States.
type Trajectory struct {
	Times    []float64
	States   []*mat.VecDense
	Controls []*mat.VecDense
}

// Save writes a solve and the config that produced it, returning the run id.
func (s *Store) Save(cfg *config.Config, res *ilqr.Result) (string, error) {
	if len(res.X) == 0 {
		return "", fmt.Errorf("storage: result has no trajectory")
	}
	id := uuid.NewString()
	dir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	nu := 0
	if len(res.U) > 0 {
		nu = res.U[0].Len()
	}
	meta := RunMetadata{
		ID:         id,
		Model:      cfg.Model,
		Timestamp:  time.Now(),
		Dt:         cfg.Dt,
		Horizon:    len(res.X),
		StateDim:   res.X[0].Len(),
		ControlDim: nu,
		Status:     res.Status.String(),
		Iterations: res.Iterations,
		FinalCost:  finiteOrZero(res.FinalCost()),
		ElapsedMS:  float64(res.Elapsed.Microseconds()) / 1000,
	}
	if res.Err != nil {
		meta.Error = res.Err.Error()
	}

	if err := writeJSON(filepath.Join(dir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(dir, configFile), cfg); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(dir, trajectoryFile), trajectoryRows(res, cfg.Dt)); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(dir, gainsFile), gainRows(res)); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(dir, costFile), costRows(res.CostHistory)); err != nil {
		return "", err
	}
	return id, nil
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

// Resolve expands a unique id prefix to the full run id.
func (s *Store) Resolve(prefix string) (string, error) {
	if prefix == "" {
		return "", ErrRunNotFound
	}
	if _, err := os.Stat(filepath.Join(s.baseDir, prefix, metadataFile)); err == nil {
		return prefix, nil
	}
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	match := ""
	for _, r := range runs {
		if strings.HasPrefix(r.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("%w: %s", ErrAmbiguousRun, prefix)
			}
			match = r.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	}
	return match, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) open(runID, name string) (*os.File, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return f, err
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

func (s *Store) LoadTrajectory(runID string) (*Trajectory, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	records, err := readCSV(filepath.Join(s.baseDir, runID, trajectoryFile))
	if err != nil {
		return nil, err
	}

	nx, nu := meta.StateDim, meta.ControlDim
	tr := &Trajectory{}
	for i, rec := range records {
		if len(rec) != 1+nx+nu {
			return nil, fmt.Errorf("%s row %d: want %d fields, got %d", trajectoryFile, i+1, 1+nx+nu, len(rec))
		}
		vals, err := parseRow(rec, i+1)
		if err != nil {
			return nil, err
		}
		tr.Times = append(tr.Times, vals[0])
		tr.States = append(tr.States, mat.NewVecDense(nx, vals[1:1+nx]))
		// the final sample carries no control
		if nu > 0 && rec[1+nx] != "" {
			tr.Controls = append(tr.Controls, mat.NewVecDense(nu, vals[1+nx:]))
		}
	}
	return tr, nil
}

func (s *Store) LoadCostHistory(runID string) ([]float64, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, costFile))
	if err != nil {
		return nil, err
	}
	hist := make([]float64, 0, len(records))
	for i, rec := range records {
		if len(rec) != 2 {
			return nil, fmt.Errorf("%s row %d: want 2 fields, got %d", costFile, i+1, len(rec))
		}
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", costFile, i+1, err)
		}
		hist = append(hist, v)
	}
	return hist, nil
}

// LoadGains returns the feedback gains and feedforward terms per step.
func (s *Store) LoadGains(runID string) ([]*mat.Dense, []*mat.VecDense, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	records, err := readCSV(filepath.Join(s.baseDir, runID, gainsFile))
	if err != nil {
		return nil, nil, err
	}

	nx, nu := meta.StateDim, meta.ControlDim
	want := 1 + nu + nu*nx
	ks := make([]*mat.Dense, 0, len(records))
	ls := make([]*mat.VecDense, 0, len(records))
	for i, rec := range records {
		if len(rec) != want {
			return nil, nil, fmt.Errorf("%s row %d: want %d fields, got %d", gainsFile, i+1, want, len(rec))
		}
		vals, err := parseRow(rec, i+1)
		if err != nil {
			return nil, nil, err
		}
		ls = append(ls, mat.NewVecDense(nu, vals[1:1+nu]))
		ks = append(ks, mat.NewDense(nu, nx, vals[1+nu:]))
	}
	return ks, ls, nil
}

func trajectoryRows(res *ilqr.Result, dt float64) [][]string {
	nx := res.X[0].Len()
	nu := 0
	if len(res.U) > 0 {
		nu = res.U[0].Len()
	}

	header := []string{"time"}
	for i := 0; i < nx; i++ {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	for i := 0; i < nu; i++ {
		header = append(header, fmt.Sprintf("u%d", i))
	}

	rows := [][]string{header}
	for k, x := range res.X {
		row := []string{formatFloat(float64(k) * dt)}
		row = appendVec(row, x)
		if k < len(res.U) {
			row = appendVec(row, res.U[k])
		} else {
			for i := 0; i < nu; i++ {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func gainRows(res *ilqr.Result) [][]string {
	if len(res.K) == 0 {
		return [][]string{{"step"}}
	}
	nu, nx := res.K[0].Dims()

	header := []string{"step"}
	for i := 0; i < nu; i++ {
		header = append(header, fmt.Sprintf("l%d", i))
	}
	for i := 0; i < nu; i++ {
		for j := 0; j < nx; j++ {
			header = append(header, fmt.Sprintf("k%d_%d", i, j))
		}
	}

	rows := [][]string{header}
	for k, K := range res.K {
		row := []string{strconv.Itoa(k)}
		if k < len(res.L) {
			row = appendVec(row, res.L[k])
		}
		for i := 0; i < nu; i++ {
			for j := 0; j < nx; j++ {
				row = append(row, formatFloat(K.At(i, j)))
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func costRows(hist []float64) [][]string {
	rows := [][]string{{"iteration", "cost"}}
	for i, c := range hist {
		rows = append(rows, []string{strconv.Itoa(i), formatFloat(c)})
	}
	return rows
}

func appendVec(row []string, v mat.Vector) []string {
	for i := 0; i < v.Len(); i++ {
		row = append(row, formatFloat(v.AtVec(i)))
	}
	return row
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// parseRow parses every field; empty fields read as zero.
func parseRow(rec []string, line int) ([]float64, error) {
	vals := make([]float64, len(rec))
	for j, field := range rec {
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d field %d: %w", line, j, err)
		}
		vals[j] = v
	}
	return vals, nil
}

func writeJSON(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

// readCSV returns the records after the header.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}
	return records[1:], nil
}

// JSON has no NaN or Inf.
func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
