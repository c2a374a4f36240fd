package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RawKind identifies the runtime shape of an untrusted request value
type RawKind int

const (
	RawAbsent RawKind = iota // field was not supplied at all
	RawNull
	RawBool
	RawNumber
	RawString
	RawArray
	RawObject
)

var rawKindNames = map[RawKind]string{
	RawAbsent: "absent",
	RawNull:   "null",
	RawBool:   "boolean",
	RawNumber: "number",
	RawString: "string",
	RawArray:  "array",
	RawObject: "object",
}

func (k RawKind) String() string {
	if name, ok := rawKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("RawKind(%d)", int(k))
}

// Raw is a tagged union over the values a JSON request body can carry.
// The zero value is RawAbsent, so struct fields of type Raw that are missing
// from a decoded body stay distinguishable from an explicit null.
type Raw struct {
	kind  RawKind
	value interface{}
}

// Absent returns the Raw for a value that was not supplied
func Absent() Raw {
	return Raw{kind: RawAbsent}
}

// NewRaw classifies a decoded value. It accepts the shapes produced by
// encoding/json plus the common Go literals used by callers and tests.
func NewRaw(v interface{}) Raw {
	switch val := v.(type) {
	case nil:
		return Raw{kind: RawNull}
	case Raw:
		return val
	case bool:
		return Raw{kind: RawBool, value: val}
	case float64, float32, int, int32, int64, uint, uint32, uint64, json.Number:
		return Raw{kind: RawNumber, value: val}
	case string:
		return Raw{kind: RawString, value: val}
	case []interface{}:
		items := make([]Raw, len(val))
		for i, item := range val {
			items[i] = NewRaw(item)
		}
		return Raw{kind: RawArray, value: items}
	case []string:
		items := make([]Raw, len(val))
		for i, item := range val {
			items[i] = NewRaw(item)
		}
		return Raw{kind: RawArray, value: items}
	case []map[string]interface{}:
		items := make([]Raw, len(val))
		for i, item := range val {
			items[i] = NewRaw(item)
		}
		return Raw{kind: RawArray, value: items}
	case map[string]interface{}:
		obj := make(map[string]Raw, len(val))
		for k, item := range val {
			obj[k] = NewRaw(item)
		}
		return Raw{kind: RawObject, value: obj}
	case map[string]string:
		obj := make(map[string]Raw, len(val))
		for k, item := range val {
			obj[k] = NewRaw(item)
		}
		return Raw{kind: RawObject, value: obj}
	default:
		// Anything else cannot come from a JSON body; keep it as an object-like
		// unknown so validators reject it rather than panic.
		return Raw{kind: RawObject, value: map[string]Raw{}}
	}
}

// Kind returns the runtime shape of the value
func (r Raw) Kind() RawKind {
	return r.kind
}

// IsAbsent reports whether the value was not supplied
func (r Raw) IsAbsent() bool {
	return r.kind == RawAbsent
}

// AsString returns the string value and whether the value is a string
func (r Raw) AsString() (string, bool) {
	s, ok := r.value.(string)
	return s, ok && r.kind == RawString
}

// AsArray returns the elements and whether the value is an array
func (r Raw) AsArray() ([]Raw, bool) {
	items, ok := r.value.([]Raw)
	return items, ok && r.kind == RawArray
}

// AsObject returns the members and whether the value is an object
func (r Raw) AsObject() (map[string]Raw, bool) {
	obj, ok := r.value.(map[string]Raw)
	return obj, ok && r.kind == RawObject
}

// UnmarshalJSON implements json.Unmarshaler
func (r *Raw) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return err
	}
	*r = NewRaw(v)
	return nil
}

// MarshalJSON implements json.Marshaler. Absent values encode as null.
func (r Raw) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case RawAbsent, RawNull:
		return []byte("null"), nil
	default:
		return json.Marshal(r.value)
	}
}
