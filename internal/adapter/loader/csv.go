package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"semcluster/internal/domain"
)

// Loader reads tabular input files and groups rows into text units.
type Loader struct {
	idColumn   string
	textColumn string
}

// Dataset holds the raw rows of a loaded input plus the grouped text units.
type Dataset struct {
	Header  []string
	Records []domain.Record
	Units   []domain.TextUnit
}

// New creates a loader for the given grouping and text columns.
func New(idColumn, textColumn string) *Loader {
	return &Loader{
		idColumn:   idColumn,
		textColumn: textColumn,
	}
}

// Load reads all files matching path (a literal file or a doublestar glob)
// and groups their rows by the identifier column. Rows sharing an identifier
// are concatenated in file order with a single space; unit order follows the
// first appearance of each identifier.
func (l *Loader) Load(path string) (*Dataset, error) {
	files, err := resolveFiles(path)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{}
	unitIdx := make(map[string]int)

	for _, file := range files {
		if err := l.loadFile(file, ds, unitIdx); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	return ds, nil
}

func resolveFiles(path string) ([]string, error) {
	if _, err := os.Stat(path); err == nil {
		return []string{path}, nil
	}

	matches, err := doublestar.FilepathGlob(path)
	if err != nil {
		return nil, fmt.Errorf("invalid input pattern %q: %w", path, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no input files match %q", path)
	}
	sort.Strings(matches)
	return matches, nil
}

func (l *Loader) loadFile(path string, ds *Dataset, unitIdx map[string]int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	idCol, textCol := -1, -1
	for i, name := range header {
		switch name {
		case l.idColumn:
			idCol = i
		case l.textColumn:
			textCol = i
		}
	}
	if idCol == -1 {
		return fmt.Errorf("missing required column %q", l.idColumn)
	}
	if textCol == -1 {
		return fmt.Errorf("missing required column %q", l.textColumn)
	}

	if ds.Header == nil {
		ds.Header = header
	}

	for {
		row, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("failed to read row: %w", err)
		}

		id := row[idCol]
		text := row[textCol]

		ds.Records = append(ds.Records, domain.Record{
			UnitID: id,
			Fields: row,
		})

		if i, seen := unitIdx[id]; seen {
			if text != "" {
				if ds.Units[i].Text == "" {
					ds.Units[i].Text = text
				} else {
					ds.Units[i].Text += " " + text
				}
			}
			continue
		}

		unitIdx[id] = len(ds.Units)
		ds.Units = append(ds.Units, domain.TextUnit{ID: id, Text: text})
	}

	return nil
}
