package config

import (
	"testing"
)

func TestSplit_ArrayRoot(t *testing.T) {
	root := []interface{}{
		map[string]interface{}{"id": "a"},
		map[string]interface{}{"id": "b"},
	}

	ds := Split(root)

	if len(ds.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(ds.Rows))
	}
	if ds.Meta.Name != "" || ds.Meta.Version != "" {
		t.Errorf("array roots carry no metadata, got %+v", ds.Meta)
	}
}

func TestSplit_MapRootWithHeader(t *testing.T) {
	root := map[string]interface{}{
		"name":    "changelog",
		"version": "2.1",
		"items": []interface{}{
			map[string]interface{}{"id": "a"},
		},
	}

	ds := Split(root)

	if ds.Meta.Name != "changelog" {
		t.Errorf("Name = %q, want changelog", ds.Meta.Name)
	}
	if ds.Meta.Version != "2.1" {
		t.Errorf("Version = %q, want 2.1", ds.Meta.Version)
	}
	if len(ds.Rows) != 1 {
		t.Errorf("rows = %d, want 1", len(ds.Rows))
	}
}

func TestSplit_NumericVersionCoerces(t *testing.T) {
	// JSON decodes numbers as float64; the header must still read cleanly.
	root := map[string]interface{}{
		"version": float64(2),
		"rows":    []interface{}{"x"},
	}

	ds := Split(root)

	if ds.Meta.Version != "2" {
		t.Errorf("Version = %q, want 2", ds.Meta.Version)
	}
}

func TestSplit_RowKeyProbeOrder(t *testing.T) {
	root := map[string]interface{}{
		"items": []interface{}{"from-items"},
		"data":  []interface{}{"from-data", "ignored"},
	}

	ds := Split(root)

	if len(ds.Rows) != 1 || ds.Rows[0] != "from-items" {
		t.Errorf("items should win over data, got %v", ds.Rows)
	}
}

func TestSplit_MapWithoutRowArray(t *testing.T) {
	root := map[string]interface{}{"name": "solo", "value": 1}

	ds := Split(root)

	if len(ds.Rows) != 1 {
		t.Fatalf("a map without a row array is a single row, got %d", len(ds.Rows))
	}
	if ds.Meta.Name != "" {
		t.Errorf("single-row maps keep their fields as data, got %+v", ds.Meta)
	}
}

func TestSplit_ScalarRoot(t *testing.T) {
	ds := Split("just text")

	if len(ds.Rows) != 1 || ds.Rows[0] != "just text" {
		t.Errorf("rows = %v, want the scalar itself", ds.Rows)
	}
}

func TestSplit_NilRoot(t *testing.T) {
	ds := Split(nil)

	if ds.Rows != nil {
		t.Errorf("rows = %v, want none", ds.Rows)
	}
}
