package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Direction is the sort direction of one indexed field
type Direction string

const (
	DirectionAsc  Direction = "asc"
	DirectionDesc Direction = "desc"
)

// IndexType is the kind of query index
type IndexType string

const (
	IndexTypeJSON    IndexType = "json"
	IndexTypeText    IndexType = "text"
	IndexTypeSpecial IndexType = "special" // built-in primary key index only
)

// SpecialIndexName is the name of the built-in primary key index
const SpecialIndexName = "_all_docs"

// IndexField is a single (field, direction) pair. It encodes to JSON as
// {"field": "asc"}.
type IndexField struct {
	Name      string    `msgpack:"name"`
	Direction Direction `msgpack:"dir"`
}

// MarshalJSON implements json.Marshaler
func (f IndexField) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]Direction{f.Name: f.Direction})
}

// UnmarshalJSON implements json.Unmarshaler
func (f *IndexField) UnmarshalJSON(data []byte) error {
	var m map[string]Direction
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return fmt.Errorf("index field must have exactly one key, got %d", len(m))
	}
	for name, dir := range m {
		f.Name = name
		f.Direction = dir
	}
	return nil
}

// IndexFieldSpec is the normalized, ordered field list of an index
type IndexFieldSpec []IndexField

// Key renders the field list in a stable textual form used for equality checks
// and name generation.
func (s IndexFieldSpec) Key() string {
	parts := make([]string, len(s))
	for i, f := range s {
		parts[i] = f.Name + ":" + string(f.Direction)
	}
	return strings.Join(parts, ",")
}

// Equal reports whether two specs list the same fields in the same order
func (s IndexFieldSpec) Equal(other IndexFieldSpec) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// IndexDef is the "def" member of an index as reported to clients
type IndexDef struct {
	Fields IndexFieldSpec `json:"fields" msgpack:"fields"`
}

// IndexDefinition is a named, typed index living in a design document
type IndexDefinition struct {
	DDoc string
	Name string
	Type IndexType
	Def  IndexDef
	Seq  uint64 // creation order, zero for the built-in index
}

type indexDefinitionJSON struct {
	DDoc *string   `json:"ddoc"`
	Name string    `json:"name"`
	Type IndexType `json:"type"`
	Def  IndexDef  `json:"def"`
}

// MarshalJSON implements json.Marshaler. The built-in index reports a null ddoc.
func (d IndexDefinition) MarshalJSON() ([]byte, error) {
	out := indexDefinitionJSON{Name: d.Name, Type: d.Type, Def: d.Def}
	if d.DDoc != "" {
		ddoc := d.DDoc
		out.DDoc = &ddoc
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler
func (d *IndexDefinition) UnmarshalJSON(data []byte) error {
	var in indexDefinitionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	d.Name, d.Type, d.Def = in.Name, in.Type, in.Def
	d.DDoc = ""
	if in.DDoc != nil {
		d.DDoc = *in.DDoc
	}
	return nil
}

// SpecialIndex returns the always-present primary key index
func SpecialIndex() IndexDefinition {
	return IndexDefinition{
		Name: SpecialIndexName,
		Type: IndexTypeSpecial,
		Def: IndexDef{
			Fields: IndexFieldSpec{{Name: "_id", Direction: DirectionAsc}},
		},
	}
}
