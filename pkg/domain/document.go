package domain

import (
	"net/url"
	"sort"
	"strings"
)

// DesignPrefix prefixes every design document id
const DesignPrefix = "_design/"

// QueryLanguage marks design documents that hold query index definitions
const QueryLanguage = "query"

// IndexEntry is one index definition as stored inside a design document
type IndexEntry struct {
	Type IndexType `json:"type" msgpack:"type"`
	Def  IndexDef  `json:"def" msgpack:"def"`
	Seq  uint64    `json:"seq" msgpack:"seq"`
}

// DesignDocument is the durable container holding index definitions
type DesignDocument struct {
	ID       string                `json:"_id" msgpack:"_id"`
	Rev      string                `json:"_rev,omitempty" msgpack:"_rev"`
	Language string                `json:"language" msgpack:"language"`
	Indexes  map[string]IndexEntry `json:"indexes" msgpack:"indexes"`
}

// NewDesignDocument creates an empty index design document
func NewDesignDocument(id string) *DesignDocument {
	return &DesignDocument{
		ID:       id,
		Language: QueryLanguage,
		Indexes:  make(map[string]IndexEntry),
	}
}

// Clone returns a deep copy that can be mutated freely
func (d *DesignDocument) Clone() *DesignDocument {
	if d == nil {
		return nil
	}
	out := &DesignDocument{
		ID:       d.ID,
		Rev:      d.Rev,
		Language: d.Language,
		Indexes:  make(map[string]IndexEntry, len(d.Indexes)),
	}
	for name, entry := range d.Indexes {
		fields := make(IndexFieldSpec, len(entry.Def.Fields))
		copy(fields, entry.Def.Fields)
		entry.Def.Fields = fields
		out.Indexes[name] = entry
	}
	return out
}

// IsIndexDocument reports whether the document holds query index definitions
func (d *DesignDocument) IsIndexDocument() bool {
	return d != nil && d.Language == QueryLanguage && len(d.Indexes) > 0
}

// Definitions returns the document's indexes ordered by name
func (d *DesignDocument) Definitions() []IndexDefinition {
	names := make([]string, 0, len(d.Indexes))
	for name := range d.Indexes {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]IndexDefinition, 0, len(names))
	for _, name := range names {
		entry := d.Indexes[name]
		defs = append(defs, IndexDefinition{
			DDoc: d.ID,
			Name: name,
			Type: entry.Type,
			Def:  entry.Def,
			Seq:  entry.Seq,
		})
	}
	return defs
}

// FindEquivalent returns the name of an index with the same type and fields
func (d *DesignDocument) FindEquivalent(idxType IndexType, fields IndexFieldSpec) (string, bool) {
	for name, entry := range d.Indexes {
		if entry.Type == idxType && entry.Def.Fields.Equal(fields) {
			return name, true
		}
	}
	return "", false
}

// ResolveDesignID turns a design document reference given as "_design/x",
// "x" or "_design%2Fx" into the canonical "_design/x" form.
func ResolveDesignID(ref string) string {
	if unescaped, err := url.PathUnescape(ref); err == nil {
		ref = unescaped
	}
	return QualifyDesignID(ref)
}

// QualifyDesignID adds the "_design/" prefix to a literal id that lacks it.
// Unlike ResolveDesignID it never percent-decodes.
func QualifyDesignID(id string) string {
	if strings.HasPrefix(id, DesignPrefix) {
		return id
	}
	return DesignPrefix + id
}

// LocalDesignID strips the "_design/" prefix
func LocalDesignID(id string) string {
	return strings.TrimPrefix(id, DesignPrefix)
}
