// Package config extracts dataset-level metadata from a loaded document
// root. A dataset file is either a bare array of records or a map carrying
// header fields (name, version) next to the record array; the header feeds
// the UI chrome and paging only ever sees the rows.
package config

import (
	"gopkg.in/yaml.v3"
)

// Meta is the optional top-level metadata of a dataset file. Only these
// fields are recognized; other siblings of the row array are ignored.
type Meta struct {
	Name    string
	Version string
}

// Dataset couples the header metadata with the feed rows.
type Dataset struct {
	Meta Meta
	Rows []interface{}
}

// rowKeys are the map keys probed, in order, for the record array of a
// map-rooted dataset.
var rowKeys = []string{"items", "rows", "records", "entries", "data", "posts", "feed"}

// Split separates a loaded document root into header metadata and feed
// rows. Array roots are all rows. A map root contributes its header fields
// and the first recognized row array; a map without one is a single row, as
// is any scalar root.
func Split(root interface{}) Dataset {
	switch v := root.(type) {
	case nil:
		return Dataset{}
	case []interface{}:
		return Dataset{Rows: v}
	case map[string]interface{}:
		for _, key := range rowKeys {
			rows, ok := v[key].([]interface{})
			if !ok {
				continue
			}
			return Dataset{Meta: metaFrom(v), Rows: rows}
		}
		return Dataset{Rows: []interface{}{v}}
	default:
		return Dataset{Rows: []interface{}{v}}
	}
}

// flexScalar captures a YAML scalar as its literal text, so "version: 2"
// and "version: \"2\"" both arrive as the string "2".
type flexScalar string

func (s *flexScalar) UnmarshalYAML(value *yaml.Node) error {
	if value == nil || value.Kind != yaml.ScalarNode {
		*s = ""
		return nil
	}
	*s = flexScalar(value.Value)
	return nil
}

// metaFrom pulls the recognized header fields out of a map root. The values
// round-trip through YAML so numbers and booleans coerce to display strings
// without manual type switches.
func metaFrom(m map[string]interface{}) Meta {
	header := map[string]interface{}{}
	for _, k := range []string{"name", "version"} {
		if val, ok := m[k]; ok {
			header[k] = val
		}
	}
	if len(header) == 0 {
		return Meta{}
	}

	raw, err := yaml.Marshal(header)
	if err != nil {
		return Meta{}
	}
	var doc struct {
		Name    flexScalar `yaml:"name"`
		Version flexScalar `yaml:"version"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Meta{}
	}
	return Meta{Name: string(doc.Name), Version: string(doc.Version)}
}
