package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSV renders the dataset as CSV bytes, headers first.
func (d Dataset) CSV() ([]byte, error) {
	if len(d.Headers) == 0 {
		return nil, fmt.Errorf("export: dataset has no headers")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.WriteAll(d.records()); err != nil {
		return nil, fmt.Errorf("export: write csv: %w", err)
	}
	return buf.Bytes(), nil
}
