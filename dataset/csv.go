package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"sweeper-lite/mines"
)

// CSVHeader is f0..f7 followed by label.
var CSVHeader = func() []string {
	h := make([]string, 0, mines.FeatureLen+1)
	for i := 0; i < mines.FeatureLen; i++ {
		h = append(h, fmt.Sprintf("f%d", i))
	}
	return append(h, "label")
}()

// CSVSink appends examples as CSV rows.
type CSVSink struct {
	w      *csv.Writer
	closer io.Closer
}

// NewCSVSink writes to w, starting with the header row when header is set.
func NewCSVSink(w io.Writer, header bool) (*CSVSink, error) {
	s := &CSVSink{w: csv.NewWriter(w)}
	if header {
		if err := s.w.Write(CSVHeader); err != nil {
			return nil, err
		}
		s.w.Flush()
		if err := s.w.Error(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// OpenCSV appends to path, writing the header only if the file is new or
// empty.
func OpenCSV(path string) (*CSVSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat dataset: %w", err)
	}
	s, err := NewCSVSink(f, info.Size() == 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.closer = f
	return s, nil
}

func (s *CSVSink) WriteExamples(examples []Example) error {
	row := make([]string, mines.FeatureLen+1)
	for _, ex := range examples {
		for i, v := range ex.Features {
			row[i] = strconv.Itoa(v)
		}
		row[mines.FeatureLen] = strconv.Itoa(ex.Label)
		if err := s.w.Write(row); err != nil {
			return err
		}
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *CSVSink) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// ReadCSV parses rows written by CSVSink. A leading header row is skipped.
func ReadCSV(r io.Reader) ([]Example, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = mines.FeatureLen + 1
	var out []Example
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if line == 1 && rec[0] == CSVHeader[0] {
			continue
		}
		var ex Example
		for i, field := range rec {
			v, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", line, i+1, err)
			}
			if i < mines.FeatureLen {
				ex.Features[i] = v
			} else {
				ex.Label = v
			}
		}
		if ex.Label != LabelMine && ex.Label != LabelSafe {
			return nil, fmt.Errorf("line %d: label must be 0 or 1, got %d", line, ex.Label)
		}
		out = append(out, ex)
	}
}
