package sweep

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/banshee-data/ringroad/internal/config"
	"github.com/banshee-data/ringroad/internal/fsutil"
)

// RecordFileName returns the artifact name for run i.
func RecordFileName(i int) string {
	return fmt.Sprintf("sim-%d.json", i)
}

// SummaryFileName is the per-sweep CSV written next to the run records.
const SummaryFileName = "summary.csv"

// OutputWriter writes sweep artifacts into a single directory.
type OutputWriter struct {
	fs  fsutil.FileSystem
	dir string
}

// NewOutputWriter returns a writer rooted at dir.
func NewOutputWriter(fs fsutil.FileSystem, dir string) *OutputWriter {
	return &OutputWriter{fs: fs, dir: dir}
}

// Dir returns the output directory.
func (w *OutputWriter) Dir() string { return w.dir }

// Prepare removes anything left from a previous sweep and recreates the
// directory.
func (w *OutputWriter) Prepare() error {
	if w.fs.Exists(w.dir) {
		if err := w.fs.RemoveAll(w.dir); err != nil {
			return fmt.Errorf("clearing %s: %w", w.dir, err)
		}
	}
	if err := w.fs.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", w.dir, err)
	}
	return nil
}

// WriteRecord writes rec to sim-<rec.Index>.json.
func (w *OutputWriter) WriteRecord(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record %d: %w", rec.Index, err)
	}
	path := filepath.Join(w.dir, RecordFileName(rec.Index))
	if err := w.fs.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// WriteSummary writes one CSV row per record to summary.csv.
func (w *OutputWriter) WriteSummary(records []Record) error {
	path := filepath.Join(w.dir, SummaryFileName)
	f, err := w.fs.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := NewCSVWriter(f).WriteRecords(records); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// CSVWriter wraps csv.Writer with methods for sweep output.
type CSVWriter struct {
	Summary *csv.Writer
}

// NewCSVWriter creates a CSVWriter on w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{Summary: csv.NewWriter(w)}
}

// WriteHeader writes the summary header: run index, every config field,
// then the result columns.
func (c *CSVWriter) WriteHeader() error {
	header := append([]string{"index"}, config.FieldNames()...)
	header = append(header, "flow_rate", "max_flow_rate", "collisions", "utilisation")
	return c.Summary.Write(header)
}

// WriteRow writes a single record.
func (c *CSVWriter) WriteRow(rec Record) error {
	row := []string{strconv.Itoa(rec.Index)}
	for _, name := range config.FieldNames() {
		v, err := rec.Config.Get(name)
		if err != nil {
			return err
		}
		row = append(row, formatValue(v))
	}

	var util float64
	if rec.Result.MaxFlowRate != 0 {
		util = rec.Result.FlowRate / rec.Result.MaxFlowRate
	}
	row = append(row,
		fmt.Sprintf("%.6f", rec.Result.FlowRate),
		fmt.Sprintf("%.6f", rec.Result.MaxFlowRate),
		fmt.Sprintf("%.6f", rec.Result.Collisions),
		fmt.Sprintf("%.6f", util),
	)
	return c.Summary.Write(row)
}

// WriteRecords writes the header followed by every record and flushes.
func (c *CSVWriter) WriteRecords(records []Record) error {
	if err := c.WriteHeader(); err != nil {
		return err
	}
	for _, rec := range records {
		if err := c.WriteRow(rec); err != nil {
			return err
		}
	}
	c.Summary.Flush()
	return c.Summary.Error()
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
