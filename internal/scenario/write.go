package scenario

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/dutchbay/dbmodel/internal/output"
)

func writeFile(path string, fill func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := fill(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// writeBatch writes rows as <stem>.csv and/or <stem>.jsonl
func writeBatch(dir, stem, format string, rows []Row) ([]string, error) {
	var files []string
	if format == FormatCSV || format == FormatBoth {
		path := filepath.Join(dir, stem+".csv")
		err := writeFile(path, func(f *os.File) error {
			w := csv.NewWriter(f)
			if err := w.Write(output.SummaryHeader); err != nil {
				return err
			}
			for _, r := range rows {
				if err := w.Write(output.SummaryRecord(r.Scenario, r.Summary)); err != nil {
					return err
				}
			}
			w.Flush()
			return w.Error()
		})
		if err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	if format == FormatJSONL || format == FormatBoth {
		path := filepath.Join(dir, stem+".jsonl")
		err := writeFile(path, func(f *os.File) error {
			enc := json.NewEncoder(f)
			for _, r := range rows {
				if err := enc.Encode(r); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, nil
}
