package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/swaysim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

var samplesHeader = []string{"time", "with_tmd", "no_tmd", "damper_angle"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

// Summary is the final frame of a run in physical units.
type Summary struct {
	BuildingMass         float64 `json:"building_mass"`
	NaturalFreq          float64 `json:"natural_freq"`
	DamperFreq           float64 `json:"damper_freq"`
	ForcingFreq          float64 `json:"forcing_freq"`
	DampedAmplitude      float64 `json:"damped_amplitude"`
	ReferenceAmplitude   float64 `json:"reference_amplitude"`
	DamperSwingAmplitude float64 `json:"damper_swing_amplitude"`
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Timestamp time.Time          `json:"timestamp"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Steps     int                `json:"steps"`
	Errors    int                `json:"errors"`
	Params    map[string]float64 `json:"params"`
	Final     Summary            `json:"final"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Samples are the per-tick series of a run.
type Samples struct {
	Times        []float64
	WithTMD      []float64
	NoTMD        []float64
	DamperAngles []float64
}

func (s *Samples) Len() int { return len(s.Times) }

func SamplesOf(r *sim.Result) *Samples {
	return &Samples{
		Times:        r.Times,
		WithTMD:      r.WithTMD,
		NoTMD:        r.NoTMD,
		DamperAngles: r.DamperAngles,
	}
}

func SummaryOf(o sim.Outputs) Summary {
	return Summary{
		BuildingMass:         o.BuildingMass,
		NaturalFreq:          o.NaturalFreq,
		DamperFreq:           o.DamperFreq,
		ForcingFreq:          o.ForcingFreq,
		DampedAmplitude:      o.DampedAmplitude,
		ReferenceAmplitude:   o.ReferenceAmplitude,
		DamperSwingAmplitude: o.DamperSwingAmplitude,
	}
}

// Save writes metadata.json and samples.csv under a fresh run directory.
func (s *Store) Save(name string, dt float64, params map[string]float64, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Name:      name,
		Timestamp: now,
		Dt:        dt,
		Duration:  dt * float64(result.StepsTaken+len(result.Errors)),
		Steps:     result.StepsTaken,
		Errors:    len(result.Errors),
		Params:    params,
		Final:     SummaryOf(result.Final),
		Metrics:   result.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, samplesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, SamplesOf(result)); err != nil {
		return "", err
	}
	return runID, nil
}

// WriteCSV writes samples with a header row.
func WriteCSV(out io.Writer, samples *Samples) error {
	w := csv.NewWriter(out)
	if err := w.Write(samplesHeader); err != nil {
		return err
	}
	for i := range samples.Times {
		row := []string{
			formatFloat(samples.Times[i]),
			formatFloat(at(samples.WithTMD, i)),
			formatFloat(at(samples.NoTMD, i)),
			formatFloat(at(samples.DamperAngles, i)),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the stored runs, newest first.
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
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadSamples(runID string) (*Samples, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	samples := &Samples{}
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) < len(samplesHeader) {
			continue
		}
		vals := make([]float64, len(samplesHeader))
		ok := true
		for j := range vals {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				ok = false
				break
			}
			vals[j] = v
		}
		if !ok {
			continue
		}
		samples.Times = append(samples.Times, vals[0])
		samples.WithTMD = append(samples.WithTMD, vals[1])
		samples.NoTMD = append(samples.NoTMD, vals[2])
		samples.DamperAngles = append(samples.DamperAngles, vals[3])
	}
	return samples, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

func at(xs []float64, i int) float64 {
	if i < len(xs) {
		return xs[i]
	}
	return 0
}
