package codec

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"

	"github.com/nucleus/resource-core/internal/resource"
)

// JSONL is line-delimited JSON, optionally gzip-wrapped. JSON numbers
// decode as float64; providers that need exact integer fidelity keep it in
// their identity columns' rendered form.
type JSONL struct {
	Compress bool
}

func (c JSONL) Name() string {
	if c.Compress {
		return "jsonl.gz"
	}
	return "jsonl"
}

func (c JSONL) Ext() string { return "." + c.Name() }

func (c JSONL) Encode(rows []resource.Row) ([]byte, error) {
	buf := &bytes.Buffer{}
	var w io.Writer = buf
	var gz *gzip.Writer
	if c.Compress {
		gz = gzip.NewWriter(buf)
		w = gz
	}

	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			if gz != nil {
				_ = gz.Close()
			}
			return nil, err
		}
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (c JSONL) Decode(data []byte) ([]resource.Row, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var r io.Reader = bytes.NewReader(data)
	if c.Compress {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}

	dec := json.NewDecoder(r)
	var rows []resource.Row
	for {
		var row resource.Row
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
