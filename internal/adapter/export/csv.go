package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"semcluster/internal/domain"
)

// Writer writes the clustered CSV: the original rows with a cluster index
// column and a cluster title column appended. Rows sharing an identifier
// carry duplicated cluster values.
type Writer struct {
	clusterColumn string
	titleColumn   string
}

func NewWriter(clusterColumn, titleColumn string) *Writer {
	if clusterColumn == "" {
		clusterColumn = "cluster"
	}
	if titleColumn == "" {
		titleColumn = "cluster_title"
	}
	return &Writer{clusterColumn: clusterColumn, titleColumn: titleColumn}
}

// Write emits one output row per input record.
func (w *Writer) Write(path string, header []string, records []domain.Record, assignments []domain.Assignment, titles map[int]string) error {
	byUnit := make(map[string]int, len(assignments))
	for _, a := range assignments {
		byUnit[a.UnitID] = a.Cluster
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(append(append([]string{}, header...), w.clusterColumn, w.titleColumn)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, rec := range records {
		idx, ok := byUnit[rec.UnitID]
		if !ok {
			return fmt.Errorf("no assignment for unit %q", rec.UnitID)
		}
		row := append(append([]string{}, rec.Fields...), strconv.Itoa(idx), titles[idx])
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
