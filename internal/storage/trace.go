package storage

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/san-kum/linebot/internal/loop"
)

// TraceRow is one line of trace.csv.
type TraceRow struct {
	Iteration  int     `json:"iteration"`
	R          int     `json:"r"`
	G          int     `json:"g"`
	B          int     `json:"b"`
	Brightness float64 `json:"brightness"`
	Error      float64 `json:"error"`
	Bias       float64 `json:"bias"`
	Left       int     `json:"left"`
	Right      int     `json:"right"`
	Marker     string  `json:"marker,omitempty"`
}

func rowFromStep(s loop.Step) TraceRow {
	return TraceRow{
		Iteration:  s.Iteration,
		R:          s.Raw.R,
		G:          s.Raw.G,
		B:          s.Raw.B,
		Brightness: s.Brightness,
		Error:      s.Error,
		Bias:       s.Bias,
		Left:       s.Command.Left,
		Right:      s.Command.Right,
		Marker:     s.Marker,
	}
}

func (r TraceRow) record() []string {
	return []string{
		strconv.Itoa(r.Iteration),
		strconv.Itoa(r.R),
		strconv.Itoa(r.G),
		strconv.Itoa(r.B),
		strconv.FormatFloat(r.Brightness, 'f', 6, 64),
		strconv.FormatFloat(r.Error, 'f', 6, 64),
		strconv.FormatFloat(r.Bias, 'f', 6, 64),
		strconv.Itoa(r.Left),
		strconv.Itoa(r.Right),
		r.Marker,
	}
}

func parseRecord(rec []string) (TraceRow, error) {
	if len(rec) < len(traceHeader)-1 {
		return TraceRow{}, fmt.Errorf("expected %d fields, got %d", len(traceHeader), len(rec))
	}

	var row TraceRow
	ints := []*int{&row.Iteration, &row.R, &row.G, &row.B}
	for i, p := range ints {
		v, err := strconv.Atoi(rec[i])
		if err != nil {
			return TraceRow{}, err
		}
		*p = v
	}
	floats := []*float64{&row.Brightness, &row.Error, &row.Bias}
	for i, p := range floats {
		v, err := strconv.ParseFloat(rec[4+i], 64)
		if err != nil {
			return TraceRow{}, err
		}
		*p = v
	}
	var err error
	if row.Left, err = strconv.Atoi(rec[7]); err != nil {
		return TraceRow{}, err
	}
	if row.Right, err = strconv.Atoi(rec[8]); err != nil {
		return TraceRow{}, err
	}
	if len(rec) > 9 {
		row.Marker = rec[9]
	}
	return row, nil
}

// Trace is a loop observer that keeps every step.
type Trace struct {
	mu   sync.Mutex
	rows []TraceRow
}

func NewTrace() *Trace {
	return &Trace{}
}

func (t *Trace) OnStep(s loop.Step) {
	t.mu.Lock()
	t.rows = append(t.rows, rowFromStep(s))
	t.mu.Unlock()
}

func (t *Trace) Rows() []TraceRow {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TraceRow, len(t.rows))
	copy(out, t.rows)
	return out
}

func (t *Trace) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}

// Columns that Column understands.
var Columns = []string{"brightness", "error", "bias", "left", "right"}

// Column extracts one numeric column, skipping the marker step.
func Column(rows []TraceRow, name string) ([]float64, error) {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if r.Marker != "" {
			continue
		}
		switch name {
		case "brightness":
			out = append(out, r.Brightness)
		case "error":
			out = append(out, r.Error)
		case "bias":
			out = append(out, r.Bias)
		case "left":
			out = append(out, float64(r.Left))
		case "right":
			out = append(out, float64(r.Right))
		default:
			return nil, fmt.Errorf("storage: unknown column %q", name)
		}
	}
	return out, nil
}
