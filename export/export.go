// Package export writes scrape results to disk so a crashed run can be
// resumed from its pending IDs.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/use-agent/jobscout/models"
)

// AppendRecord appends rec to path as one JSON line, creating the file
// if needed.
func AppendRecord(path string, rec models.JobRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("export: encode %s: %w", rec.ID(), err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("export: open %s: %w", path, err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return f.Close()
}

// SaveRecords replaces path with recs as a JSON array.
func SaveRecords(path string, recs []models.JobRecord) error {
	if recs == nil {
		recs = []models.JobRecord{}
	}
	return writeJSON(path, recs)
}

// LoadRecords reads a file written by SaveRecords.
func LoadRecords(path string) ([]models.JobRecord, error) {
	var recs []models.JobRecord
	if err := readJSON(path, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// SaveIDs replaces path with ids as a JSON array.
func SaveIDs(path string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return writeJSON(path, ids)
}

// LoadIDs reads a file written by SaveIDs. A missing file is an empty list.
func LoadIDs(path string) ([]string, error) {
	var ids []string
	err := readJSON(path, &ids)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return ids, err
}

// writeJSON writes through a temp file and rename so readers never see a
// half-written file.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("export: encode %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("export: replace %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("export: decode %s: %w", path, err)
	}
	return nil
}
