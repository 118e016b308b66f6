package table

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"sirius_reviews/internal/domain"
)

// Writer writes FlatRecords as a CSV table plus its manifest.
type Writer struct {
	dir         string
	source      string
	destination string
}

// NewWriter targets {dir}/{source}. destination goes into the manifest only.
func NewWriter(dir, source, destination string) *Writer {
	return &Writer{dir: dir, source: source, destination: destination}
}

type manifest struct {
	Destination string `json:"destination,omitempty"`
	Incremental bool   `json:"incremental"`
}

// Stage writes the whole table to a temporary file next to the final path.
// The table is invisible until Commit.
func (w *Writer) Stage(records []domain.FlatRecord) (domain.StagedTable, error) {
	final := filepath.Join(w.dir, w.source)
	dir := filepath.Dir(final)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(final)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV file: %w", err)
	}
	if err := writeCSV(f, records); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to close CSV file: %w", err)
	}

	return &staged{
		tmp:         f.Name(),
		final:       final,
		destination: w.destination,
		rows:        len(records),
	}, nil
}

func writeCSV(f *os.File, records []domain.FlatRecord) error {
	writer := csv.NewWriter(f)

	if err := writer.Write(domain.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	row := make([]string, len(domain.Columns))
	for i, rec := range records {
		for j, v := range rec.Values() {
			s, err := domain.Render(v)
			if err != nil {
				return fmt.Errorf("render row %d column %s: %w", i, domain.Columns[j], err)
			}
			row[j] = s
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

type staged struct {
	tmp         string
	final       string
	destination string
	rows        int
	done        bool
}

func (s *staged) Path() string { return s.tmp }

// Commit moves the table into place and then writes the manifest. A failed
// manifest removes the table again.
func (s *staged) Commit() (domain.OutputTable, error) {
	if s.done {
		return domain.OutputTable{}, errors.New("staged table already finished")
	}
	s.done = true

	if err := os.Rename(s.tmp, s.final); err != nil {
		os.Remove(s.tmp)
		return domain.OutputTable{}, fmt.Errorf("move table into place: %w", err)
	}

	manifestPath := s.final + ".manifest"
	b, err := json.Marshal(manifest{Destination: s.destination})
	if err == nil {
		err = writeFileAtomic(manifestPath, b)
	}
	if err != nil {
		os.Remove(s.final)
		return domain.OutputTable{}, fmt.Errorf("write manifest: %w", err)
	}

	return domain.OutputTable{
		Path:         s.final,
		ManifestPath: manifestPath,
		Destination:  s.destination,
		Rows:         s.rows,
	}, nil
}

func (s *staged) Abort() error {
	if s.done {
		return nil
	}
	s.done = true
	if err := os.Remove(s.tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func writeFileAtomic(path string, b []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	if err := os.Rename(f.Name(), path); err != nil {
		os.Remove(f.Name())
		return err
	}
	return nil
}
