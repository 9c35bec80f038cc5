// Package codec serializes full row sets for file- and object-backed
// providers. A codec encodes one dataset snapshot as one artifact, so a
// provider can apply a whole write in a single atomic put.
package codec

import (
	"fmt"
	"sort"

	"github.com/nucleus/resource-core/internal/resource"
)

// Codec encodes and decodes a complete row set.
type Codec interface {
	Name() string
	Ext() string
	Encode(rows []resource.Row) ([]byte, error)
	Decode(data []byte) ([]resource.Row, error)
}

var codecs = map[string]Codec{}

// Register adds a codec. Panics if the name is taken.
func Register(c Codec) {
	if _, exists := codecs[c.Name()]; exists {
		panic(fmt.Sprintf("codec already registered: %s", c.Name()))
	}
	codecs[c.Name()] = c
}

// ByName returns the codec registered under name.
func ByName(name string) (Codec, error) {
	c, ok := codecs[name]
	if !ok {
		return nil, fmt.Errorf("unknown codec %q (registered: %v)", name, Names())
	}
	return c, nil
}

// Names lists the registered codec names, sorted.
func Names() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// unionColumns returns the sorted union of the columns appearing in rows.
func unionColumns(rows []resource.Row) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, row := range rows {
		for col := range row {
			if !seen[col] {
				seen[col] = true
				cols = append(cols, col)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

func init() {
	Register(JSONL{})
	Register(JSONL{Compress: true})
	Register(CSV{})
	Register(Parquet{})
}
