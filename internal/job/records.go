package job

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Records is an ordered collection of job records. All pipeline stages operate
// on it in place; stages only remove or annotate records, never duplicate them.
type Records struct {
	Items []*Record `json:"items"`
}

func (rs *Records) Len() int {
	return len(rs.Items)
}

// Dedup removes records sharing an ID, keeping the first occurrence, and
// returns the number of duplicates dropped.
func (rs *Records) Dedup() int {
	seen := make(map[string]bool, len(rs.Items))
	kept := rs.Items[:0]
	dropped := 0
	for _, rec := range rs.Items {
		if seen[rec.ID] {
			dropped++
			continue
		}
		seen[rec.ID] = true
		kept = append(kept, rec)
	}
	rs.Items = kept
	return dropped
}

// SortByScore orders records by descending score. The sort is stable so
// equally scored records keep their input order.
func (rs *Records) SortByScore() {
	sort.SliceStable(rs.Items, func(i, j int) bool {
		return rs.Items[i].Score > rs.Items[j].Score
	})
}

// FindByID returns the record with the given id, or nil.
func (rs *Records) FindByID(id string) *Record {
	for _, rec := range rs.Items {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

// ReportByCompany groups the collection for human inspection before handoff.
func (rs *Records) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, rec := range rs.Items {
		entry := map[string]string{
			"title":    rec.Title,
			"location": rec.Location,
			"url":      rec.URL,
			"score":    fmt.Sprintf("%d", rec.Score),
		}
		if rec.FetchErr != "" {
			entry["fetch_error"] = rec.FetchErr
		}
		report[rec.Company] = append(report[rec.Company], entry)
	}
	return report
}

// DumpToFile writes the collection as indented JSON, the shape consumed by the
// downstream document generator.
func (rs *Records) DumpToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(rs)
}

// DumpToTmpFile writes the collection to a temporary file and returns its name.
func (rs *Records) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "candidates_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rs); err != nil {
		return "", err
	}
	return file.Name(), nil
}
