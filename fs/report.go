// Package fs writes batch reports to the local filesystem.
package fs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/intel"
)

// Report is the file representation of a finished batch.
type Report struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Command     string    `json:"command"`
	Total       int       `json:"total"`
	*intel.BatchResult
}

// ReportWriter writes batch reports with atomic replace semantics.
// The report is written to a temporary file next to the target, then
// renamed over it, so readers never observe a partial report.
type ReportWriter struct {
	path string

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewReportWriter creates a writer targeting path.
func NewReportWriter(path string) *ReportWriter {
	return &ReportWriter{path: path}
}

// Path returns the report destination.
func (w *ReportWriter) Path() string {
	return w.path
}

// Write stores the batch result for command at the target path.
func (w *ReportWriter) Write(command string, result *intel.BatchResult) error {
	if w.path == "" {
		return intel.Errorf(intel.EINVALID, "report path required")
	}
	if result == nil {
		result = &intel.BatchResult{}
	}

	data, err := json.MarshalIndent(Report{
		GeneratedAt: w.now(),
		Command:     command,
		Total:       len(result.Outcomes),
		BatchResult: result,
	}, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (w *ReportWriter) now() time.Time {
	if w.Now != nil {
		return w.Now().UTC()
	}
	return time.Now().UTC()
}
