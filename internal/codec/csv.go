package codec

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/nucleus/resource-core/internal/resource"
)

// CSV writes a header of the sorted column union followed by one record
// per row. Decoded values are strings; the format trades type fidelity for
// interoperability.
type CSV struct{}

func (CSV) Name() string { return "csv" }
func (CSV) Ext() string  { return ".csv" }

func (CSV) Encode(rows []resource.Row) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if len(rows) == 0 {
		w.Flush()
		return buf.Bytes(), w.Error()
	}

	cols := unionColumns(rows)
	if err := w.Write(cols); err != nil {
		return nil, err
	}
	record := make([]string, len(cols))
	for _, row := range rows {
		for i, col := range cols {
			record[i] = renderCSVValue(row[col])
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (CSV) Decode(data []byte) ([]resource.Row, error) {
	if len(data) == 0 {
		return nil, nil
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	rows := make([]resource.Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(resource.Row, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func renderCSVValue(v any) string {
	if v == nil {
		return ""
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}
