package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	Run   RunMetadata `json:"run"`
	Steps int         `json:"steps"`
	Trace []TraceRow  `json:"trace"`
}

// Export writes a run and its trace as one JSON document.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	rows, err := s.LoadTrace(meta.ID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Run: *meta, Steps: len(rows), Trace: rows})
}
