package codec_test

import (
	"bytes"
	"testing"

	"github.com/nucleus/resource-core/internal/codec"
	"github.com/nucleus/resource-core/internal/resource"
)

func sampleRows() []resource.Row {
	return []resource.Row{
		{"id": 1, "name": "alpha", "score": 1.5, "active": true},
		{"id": 2, "name": "beta", "score": 2.5, "active": false},
		{"id": 3, "name": "gamma", "score": 3.5, "active": true},
	}
}

func TestCodec_Unit_RegistryNames(t *testing.T) {
	for _, name := range []string{"jsonl", "jsonl.gz", "csv", "parquet"} {
		c, err := codec.ByName(name)
		if err != nil {
			t.Fatalf("%s not registered: %v", name, err)
		}
		if c.Name() != name {
			t.Errorf("codec %s reports name %s", name, c.Name())
		}
		if c.Ext() == "" || c.Ext()[0] != '.' {
			t.Errorf("codec %s ext = %q", name, c.Ext())
		}
	}
	if _, err := codec.ByName("avro"); err == nil {
		t.Error("unknown codec should fail")
	}
}

func TestCodec_Unit_JSONLRoundTrip(t *testing.T) {
	for _, name := range []string{"jsonl", "jsonl.gz"} {
		c, err := codec.ByName(name)
		if err != nil {
			t.Fatal(err)
		}

		data, err := c.Encode(sampleRows())
		if err != nil {
			t.Fatalf("%s encode: %v", name, err)
		}
		rows, err := c.Decode(data)
		if err != nil {
			t.Fatalf("%s decode: %v", name, err)
		}

		if len(rows) != 3 {
			t.Fatalf("%s: %d rows back", name, len(rows))
		}
		// JSON numbers decode as float64.
		if rows[0]["id"] != float64(1) || rows[0]["name"] != "alpha" || rows[0]["active"] != true {
			t.Errorf("%s row 0 = %v", name, rows[0])
		}

		empty, err := c.Decode(nil)
		if err != nil || empty != nil {
			t.Errorf("%s: empty decode = %v, %v", name, empty, err)
		}
	}
}

func TestCodec_Unit_GzipVariantActuallyCompresses(t *testing.T) {
	plain, _ := codec.JSONL{}.Encode(sampleRows())
	zipped, err := codec.JSONL{Compress: true}.Encode(sampleRows())
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(plain, zipped) {
		t.Error("gzip variant produced identical bytes")
	}
	// gzip magic header
	if len(zipped) < 2 || zipped[0] != 0x1f || zipped[1] != 0x8b {
		t.Errorf("gzip header missing: %x", zipped[:2])
	}
	if _, err := (codec.JSONL{}).Decode(zipped); err == nil {
		t.Error("plain codec should reject gzip bytes")
	}
}

func TestCodec_Unit_CSVRoundTrip(t *testing.T) {
	c := codec.CSV{}

	data, err := c.Encode(sampleRows())
	if err != nil {
		t.Fatal(err)
	}
	rows, err := c.Decode(data)
	if err != nil {
		t.Fatal(err)
	}

	if len(rows) != 3 {
		t.Fatalf("%d rows back", len(rows))
	}
	// CSV is stringly typed by design.
	if rows[1]["id"] != "2" || rows[1]["name"] != "beta" || rows[1]["active"] != "false" {
		t.Errorf("row 1 = %v", rows[1])
	}

	if data, err = c.Encode(nil); err != nil || len(data) != 0 {
		t.Errorf("empty encode = %q, %v", data, err)
	}
}

func TestCodec_Unit_CSVColumnUnion(t *testing.T) {
	rows := []resource.Row{
		{"id": 1, "name": "alpha"},
		{"id": 2, "extra": "only here"},
	}
	data, err := codec.CSV{}.Encode(rows)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := codec.CSV{}.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if decoded[0]["extra"] != "" || decoded[1]["extra"] != "only here" {
		t.Errorf("column union broken: %v", decoded)
	}
}

func TestCodec_Unit_ParquetRoundTrip(t *testing.T) {
	c := codec.Parquet{}

	rows := []resource.Row{
		{"id": 1, "name": "alpha", "score": 1.5, "active": true, "tags": []any{"x", "y"}},
		{"id": 2, "name": "beta", "score": 2.5, "active": false, "tags": []any{"z"}},
	}
	data, err := c.Encode(rows)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("no parquet bytes produced")
	}

	decoded, err := c.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("%d rows back", len(decoded))
	}

	first := decoded[0]
	if first["name"] != "alpha" {
		t.Errorf("name column lost: %v", first)
	}
	if first["id"] != float64(1) || first["score"] != float64(1.5) {
		t.Errorf("numeric columns = id %v score %v", first["id"], first["score"])
	}
	if first["active"] != true {
		t.Errorf("bool column = %v", first["active"])
	}
	// Lists survive as their JSON rendering.
	if first["tags"] != `["x","y"]` {
		t.Errorf("tags column = %v", first["tags"])
	}

	if empty, err := c.Encode(nil); err != nil || empty != nil {
		t.Errorf("empty encode = %v, %v", empty, err)
	}
	if rows, err := c.Decode(nil); err != nil || rows != nil {
		t.Errorf("empty decode = %v, %v", rows, err)
	}
}
