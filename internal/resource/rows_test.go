package resource_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/nucleus/resource-core/internal/resource"
)

func TestRows_Unit_CloneIsDeep(t *testing.T) {
	original := []resource.Row{
		{
			"id":     1,
			"tags":   []any{"a", "b"},
			"nested": map[string]any{"x": 1},
			"blob":   []byte{1, 2, 3},
		},
	}
	cloned := resource.CloneRows(original)
	if !reflect.DeepEqual(cloned, original) {
		t.Fatalf("clone differs: %v vs %v", cloned, original)
	}

	cloned[0]["id"] = 99
	cloned[0]["tags"].([]any)[0] = "z"
	cloned[0]["nested"].(map[string]any)["x"] = 99
	cloned[0]["blob"].([]byte)[0] = 9

	if original[0]["id"] != 1 {
		t.Error("scalar write leaked")
	}
	if original[0]["tags"].([]any)[0] != "a" {
		t.Error("slice write leaked")
	}
	if original[0]["nested"].(map[string]any)["x"] != 1 {
		t.Error("nested map write leaked")
	}
	if original[0]["blob"].([]byte)[0] != 1 {
		t.Error("byte slice write leaked")
	}
}

func TestRows_Unit_SchemaOf(t *testing.T) {
	rows := []resource.Row{
		{"id": 1, "name": "alpha", "score": 1.5, "ok": true, "when": time.Now(), "note": nil},
		{"id": 2, "name": "beta", "score": 2.5, "ok": false, "when": time.Now(), "note": "filled"},
	}
	schema := resource.SchemaOf(rows)

	want := map[string]string{
		"id":    "int",
		"name":  "string",
		"score": "float",
		"ok":    "bool",
		"when":  "time",
		"note":  "string", // upgraded from null by the second row
	}
	if !reflect.DeepEqual(schema, want) {
		t.Errorf("schema = %v, want %v", schema, want)
	}

	if resource.SchemaOf(nil) != nil {
		t.Error("empty rows should derive no schema")
	}
}

func TestRows_Unit_IdentityKey(t *testing.T) {
	row := resource.Row{"tenant": "acme", "id": 7}

	key, err := resource.IdentityKey(row, []string{"tenant", "id"})
	if err != nil {
		t.Fatal(err)
	}
	other, _ := resource.IdentityKey(resource.Row{"tenant": "acme", "id": 7}, []string{"tenant", "id"})
	if key != other {
		t.Error("identical tuples must render identical keys")
	}

	different, _ := resource.IdentityKey(resource.Row{"tenant": "acme", "id": 8}, []string{"tenant", "id"})
	if key == different {
		t.Error("distinct tuples collided")
	}

	if _, err := resource.IdentityKey(resource.Row{"tenant": "acme"}, []string{"tenant", "id"}); err == nil {
		t.Error("missing identity column must fail")
	}
	if _, err := resource.IdentityKey(resource.Row{"tenant": "acme", "id": nil}, []string{"id"}); err == nil {
		t.Error("nil identity value must fail")
	}
}

func TestRows_Unit_CompareValues(t *testing.T) {
	cases := []struct {
		name string
		a, b any
		want int
	}{
		{"ints", 1, 2, -1},
		{"floats", 2.5, 2.5, 0},
		{"mixedNumeric", 3, 2.5, 1},
		{"numericStrings", "10", "9", 1},
		{"stringAndFloat", "2.0", float64(2), 0},
		{"lexical", "beta", "alpha", 1},
		{"nilSortsFirst", nil, 0, -1},
		{"bothNil", nil, nil, 0},
	}
	for _, tc := range cases {
		if got := resource.CompareValues(tc.a, tc.b); got != tc.want {
			t.Errorf("%s: CompareValues(%v, %v) = %d, want %d", tc.name, tc.a, tc.b, got, tc.want)
		}
	}
}

func TestRows_Unit_MaxColumn(t *testing.T) {
	rows := []resource.Row{
		{"id": 1, "updated": 5},
		{"id": 2},
		{"id": 3, "updated": nil},
		{"id": 4, "updated": 12.5},
		{"id": 5, "updated": 9},
	}
	if got := resource.MaxColumn(rows, "updated"); got != 12.5 {
		t.Errorf("max = %v, want 12.5", got)
	}
	if got := resource.MaxColumn(rows, "absent"); got != nil {
		t.Errorf("absent column max = %v, want nil", got)
	}
	if got := resource.MaxColumn(nil, "updated"); got != nil {
		t.Errorf("no-rows max = %v, want nil", got)
	}
}

func TestRows_Unit_CheckpointHelpers(t *testing.T) {
	var zero resource.Checkpoint
	if !zero.IsZero() {
		t.Error("nil checkpoint should be zero")
	}
	if !(resource.Checkpoint{}).IsZero() {
		t.Error("empty checkpoint should be zero")
	}

	c := resource.Checkpoint{"seq": int64(42), "cursor": "abc", "float": float64(7)}
	if c.IsZero() {
		t.Error("populated checkpoint reported zero")
	}
	if c.Int64("seq") != 42 || c.Int64("float") != 7 || c.Int64("missing") != 0 {
		t.Errorf("Int64 lookups wrong: %v", c)
	}
	if c.String("cursor") != "abc" || c.String("seq") != "42" || c.String("missing") != "" {
		t.Errorf("String lookups wrong: %v", c)
	}

	clone := c.Clone()
	clone["seq"] = int64(1)
	if c.Int64("seq") != 42 {
		t.Error("clone aliases the original")
	}
}
