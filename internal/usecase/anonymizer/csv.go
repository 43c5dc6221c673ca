package anonymizer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// CSV anonymizes every cell except the header row. Rows may have differing
// lengths.
func (a *Anonymizer) CSV(data []byte, stats Stats) ([]byte, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := true
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
		}
		if !header {
			for i, cell := range record {
				record[i] = a.Text(cell, stats)
			}
		}
		header = false
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write CSV: %w", err)
	}
	return buf.Bytes(), nil
}
