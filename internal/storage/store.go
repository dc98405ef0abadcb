package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/orbsim/internal/config"
	"github.com/san-kum/orbsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	seriesFile   = "series.csv"
	configFile   = "config.yaml"
)

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
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        uint64             `json:"seed"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Integrator  string             `json:"integrator"`
	Bodies      int                `json:"bodies"`
	Steps       int                `json:"steps"`
	Megno       float64            `json:"megno"`
	Lyapunov    float64            `json:"lyapunov"`
	EnergyDrift float64            `json:"energy_drift"`
	Metrics     map[string]float64 `json:"metrics"`
}

func NewMetadata(name string, cfg *config.Config, result *sim.Result) RunMetadata {
	return RunMetadata{
		Name:        name,
		Timestamp:   time.Now(),
		Seed:        cfg.Seed,
		Dt:          cfg.Dt,
		Duration:    cfg.Duration,
		Integrator:  result.Integrator,
		Bodies:      len(cfg.Bodies),
		Steps:       result.StepsTaken,
		Megno:       result.Megno,
		Lyapunov:    result.Lyapunov,
		EnergyDrift: result.EnergyDrift,
		Metrics:     result.Metrics,
	}
}

// Save writes the metadata, the config that produced the run and the
// sampled series into a fresh run directory.
func (s *Store) Save(name string, cfg *config.Config, result *sim.Result) (string, error) {
	meta := NewMetadata(name, cfg, result)
	meta.ID = fmt.Sprintf("%s_%d", name, meta.Timestamp.UnixNano())
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}
	if err := writeSeries(filepath.Join(runDir, seriesFile), result.Samples); err != nil {
		return "", err
	}

	return meta.ID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeSeries(path string, samples []sim.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	planets := 0
	if len(samples) > 0 {
		planets = len(samples[0].SemiMajor)
	}
	header := []string{"time", "megno", "lyapunov", "energy_error"}
	for i := 1; i <= planets; i++ {
		header = append(header, fmt.Sprintf("a%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, smp := range samples {
		row := []string{
			formatFloat(smp.Time),
			formatFloat(smp.Megno),
			formatFloat(smp.Lyapunov),
			formatFloat(smp.EnergyError),
		}
		for _, a := range smp.SemiMajor {
			row = append(row, formatFloat(a))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

func (s *Store) LoadSeries(runID string) ([]sim.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return []sim.Sample{}, nil
	}
	if len(records[0]) < 4 || !strings.EqualFold(records[0][0], "time") {
		return nil, fmt.Errorf("storage: unexpected series header %v", records[0])
	}

	samples := make([]sim.Sample, 0, len(records)-1)
	for line, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: %s line %d: %w", seriesFile, line+2, err)
			}
			vals[j] = v
		}
		if len(vals) < 4 {
			return nil, fmt.Errorf("storage: %s line %d: %d columns", seriesFile, line+2, len(vals))
		}

		samples = append(samples, sim.Sample{
			Time:        vals[0],
			Megno:       vals[1],
			Lyapunov:    vals[2],
			EnergyError: vals[3],
			SemiMajor:   vals[4:],
		})
	}

	return samples, nil
}

// ExportData is the single-document JSON form of a run.
type ExportData struct {
	Meta    RunMetadata    `json:"meta"`
	Config  *config.Config `json:"config"`
	Samples []sim.Sample   `json:"samples"`
}

// ExportJSON writes the run as one indented JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, cfg *config.Config, result *sim.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Meta: meta, Config: cfg, Samples: result.Samples})
}
