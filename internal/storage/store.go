package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/san-kum/linebot/internal/loop"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	metadataFile = "metadata.json"
	traceFile    = "trace.csv"
)

var traceHeader = []string{"iteration", "r", "g", "b", "brightness", "error", "bias", "left", "right", "marker"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunInfo is what the caller knows about a run beyond the loop itself.
type RunInfo struct {
	Device string
	Preset string
	Seed   int64
}

type GainsMetadata struct {
	Kp float64 `json:"kp"`
	Ki float64 `json:"ki"`
	Kd float64 `json:"kd"`
}

type RunMetadata struct {
	ID            string             `json:"id"`
	Timestamp     time.Time          `json:"timestamp"`
	Device        string             `json:"device"`
	Preset        string             `json:"preset,omitempty"`
	Seed          int64              `json:"seed,omitempty"`
	Gains         GainsMetadata      `json:"gains"`
	BaseSpeed     int                `json:"base_speed"`
	MaxIterations int                `json:"max_iterations"`
	Outcome       string             `json:"outcome"`
	Marker        string             `json:"marker,omitempty"`
	Iterations    int                `json:"iterations"`
	ElapsedMs     int64              `json:"elapsed_ms"`
	Metrics       map[string]float64 `json:"metrics"`
	Error         string             `json:"error,omitempty"`
}

func (s *Store) Save(info RunInfo, cfg loop.Config, result *loop.Result, trace *Trace) (string, error) {
	runID := uuid.NewString()
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to create run dir %s", runDir)
	}

	meta := RunMetadata{
		ID:            runID,
		Timestamp:     time.Now(),
		Device:        info.Device,
		Preset:        info.Preset,
		Seed:          info.Seed,
		Gains:         GainsMetadata{Kp: cfg.Gains.Kp, Ki: cfg.Gains.Ki, Kd: cfg.Gains.Kd},
		BaseSpeed:     cfg.BaseSpeed,
		MaxIterations: cfg.MaxIterations,
		Outcome:       result.Outcome.String(),
		Marker:        result.Marker,
		Iterations:    result.Iterations,
		ElapsedMs:     result.Elapsed.Milliseconds(),
		Metrics:       result.Metrics,
	}
	if result.Err != nil {
		meta.Error = result.Err.Error()
	}

	if err := writeMetadata(filepath.Join(runDir, metadataFile), &meta); err != nil {
		return "", err
	}

	var rows []TraceRow
	if trace != nil {
		rows = trace.Rows()
	}
	if err := writeTrace(filepath.Join(runDir, traceFile), rows); err != nil {
		return "", err
	}

	return runID, nil
}

func writeMetadata(path string, meta *RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return pkgerrors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

func writeTrace(path string, rows []TraceRow) error {
	f, err := os.Create(path)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(traceHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write(r.record()); err != nil {
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
		meta, err := s.readMetadata(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

// Resolve expands a unique id prefix to the full run id.
func (s *Store) Resolve(prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("%w: empty id", ErrRunNotFound)
	}
	if _, err := os.Stat(filepath.Join(s.baseDir, prefix, metadataFile)); err == nil {
		return prefix, nil
	}

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	}
	var matches []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			matches = append(matches, entry.Name())
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("storage: id prefix %s is ambiguous (%d runs)", prefix, len(matches))
	}
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	id, err := s.Resolve(runID)
	if err != nil {
		return nil, err
	}
	return s.readMetadata(id)
}

func (s *Store) readMetadata(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to parse metadata of run %s", runID)
	}
	return &meta, nil
}

func (s *Store) LoadTrace(runID string) ([]TraceRow, error) {
	id, err := s.Resolve(runID)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(s.baseDir, id, traceFile)
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read %s", path)
	}
	if len(records) < 2 {
		return []TraceRow{}, nil
	}

	rows := make([]TraceRow, 0, len(records)-1)
	for i, record := range records[1:] {
		row, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("storage: %s line %d: %w", traceFile, i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// TracePath is the CSV file backing a run.
func (s *Store) TracePath(runID string) (string, error) {
	id, err := s.Resolve(runID)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, id, traceFile), nil
}
