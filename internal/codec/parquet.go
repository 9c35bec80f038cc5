package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/xitongsys/parquet-go-source/buffer"
	writerfile "github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/nucleus/resource-core/internal/resource"
)

// Parquet uses the JSON-schema writer with snappy compression. Physical
// types derive from the first observed value per column: bools, ints and
// floats keep native columns, everything else is stored as UTF8 text
// (lists and maps as their JSON rendering). Decoded numbers arrive as
// float64, matching the JSONL codec's behavior.
type Parquet struct{}

func (Parquet) Name() string { return "parquet" }
func (Parquet) Ext() string  { return ".parquet" }

func (Parquet) Encode(rows []resource.Row) ([]byte, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	schema := resource.SchemaOf(rows)
	schemaDef, cols := buildParquetSchema(schema)

	buf := &bytes.Buffer{}
	fw := writerfile.NewWriterFile(buf)
	pw, err := writer.NewJSONWriter(schemaDef, fw, 4)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		projected := make(map[string]any, len(cols))
		for _, col := range cols {
			projected[col] = parquetValue(row[col], schema[col])
		}
		line, err := json.Marshal(projected)
		if err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return nil, err
		}
		if err := pw.Write(string(line)); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return nil, err
	}
	_ = fw.Close()
	return buf.Bytes(), nil
}

func (Parquet) Decode(data []byte) ([]resource.Row, error) {
	if len(data) == 0 {
		return nil, nil
	}
	fr := buffer.NewBufferFileFromBytes(data)
	pr, err := reader.NewParquetReader(fr, nil, 4)
	if err != nil {
		return nil, err
	}
	defer pr.ReadStop()

	num := int(pr.GetNumRows())
	if num == 0 {
		return nil, nil
	}
	raw, err := pr.ReadByNumber(num)
	if err != nil {
		return nil, err
	}

	// The reader materializes rows as dynamic structs whose field names
	// are Go-cased; map them back to the parquet column names.
	rename := make(map[string]string)
	for _, info := range pr.SchemaHandler.Infos[1:] {
		rename[info.InName] = info.ExName
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var generic []map[string]any
	if err := json.Unmarshal(encoded, &generic); err != nil {
		return nil, err
	}

	rows := make([]resource.Row, len(generic))
	for i, rec := range generic {
		row := make(resource.Row, len(rec))
		for field, v := range rec {
			col, ok := rename[field]
			if !ok {
				col = field
			}
			row[col] = v
		}
		rows[i] = row
	}
	return rows, nil
}

// buildParquetSchema renders the JSON schema definition and returns it
// with the sorted column list.
func buildParquetSchema(schema map[string]string) (string, []string) {
	cols := make([]string, 0, len(schema))
	for col := range schema {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	fields := make([]map[string]string, 0, len(cols))
	for _, col := range cols {
		fields = append(fields, map[string]string{
			"Tag": fmt.Sprintf("name=%s, %s, repetitiontype=OPTIONAL", col, parquetPhysicalType(schema[col])),
		})
	}
	out := map[string]any{
		"Tag":    "name=parquet_go_root, repetitiontype=REQUIRED",
		"Fields": fields,
	}
	b, _ := json.Marshal(out)
	return string(b), cols
}

func parquetPhysicalType(typeName string) string {
	switch typeName {
	case "bool":
		return "type=BOOLEAN"
	case "int":
		return "type=INT64"
	case "float":
		return "type=DOUBLE"
	default:
		return "type=BYTE_ARRAY, convertedtype=UTF8"
	}
}

// parquetValue shapes a row value for its column's physical type.
func parquetValue(v any, typeName string) any {
	if v == nil {
		return nil
	}
	switch typeName {
	case "bool", "int", "float":
		return v
	case "list", "map":
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	default:
		if b, ok := v.([]byte); ok {
			return string(b)
		}
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
}
