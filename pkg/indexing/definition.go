package indexing

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/adfharrison1/go-db-index/pkg/domain"
)

// supportedTypes lists the index types that can be created
var supportedTypes = map[domain.IndexType]bool{
	domain.IndexTypeJSON: true,
	domain.IndexTypeText: true,
}

// reservedTypes are recognized but not implemented yet
var reservedTypes = map[domain.IndexType]bool{
	"geo": true,
}

// ParseType validates the requested index type, defaulting to json
func ParseType(raw domain.Raw) (domain.IndexType, error) {
	if raw.IsAbsent() {
		return domain.IndexTypeJSON, nil
	}
	s, ok := raw.AsString()
	if !ok {
		return "", domain.NewValidationError(domain.InvalidType, "type must be a string, got %s", raw.Kind())
	}
	t := domain.IndexType(s)
	if reservedTypes[t] {
		return "", domain.NewValidationError(domain.InvalidType, "index type %q is not supported yet", s)
	}
	if !supportedTypes[t] {
		return "", domain.NewValidationError(domain.InvalidType, "unknown index type %q", s)
	}
	return t, nil
}

// ParseName validates an optional index name. An empty result means the
// name is to be generated.
func ParseName(raw domain.Raw) (string, error) {
	return parseOptionalString(raw, domain.InvalidName, "name")
}

// ParseDDoc validates an optional design document id. An empty result means
// the id is to be generated; otherwise it is returned in "_design/x" form.
// The id is taken literally: percent signs are part of the name.
func ParseDDoc(raw domain.Raw) (string, error) {
	ref, err := parseOptionalString(raw, domain.InvalidDDoc, "ddoc")
	if err != nil || ref == "" {
		return "", err
	}
	id := domain.QualifyDesignID(ref)
	if domain.LocalDesignID(id) == "" {
		return "", domain.NewValidationError(domain.InvalidDDoc, "ddoc %q has an empty name", ref)
	}
	return id, nil
}

func parseOptionalString(raw domain.Raw, kind domain.ValidationKind, what string) (string, error) {
	if raw.IsAbsent() {
		return "", nil
	}
	s, ok := raw.AsString()
	if !ok {
		return "", domain.NewValidationError(kind, "%s must be a string, got %s", what, raw.Kind())
	}
	return s, nil
}

// CanonicalKey identifies equivalent index definitions
func CanonicalKey(idxType domain.IndexType, fields domain.IndexFieldSpec) string {
	return string(idxType) + "|" + fields.Key()
}

// GeneratedName derives a deterministic name from the canonical key
func GeneratedName(idxType domain.IndexType, fields domain.IndexFieldSpec) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(CanonicalKey(idxType, fields)))
}

// createPlan is a fully validated create request
type createPlan struct {
	Fields domain.IndexFieldSpec
	Type   domain.IndexType
	Name   string
	DDoc   string
}

// planCreate validates every argument of a create request. All violations
// are reported together.
func planCreate(req domain.CreateIndexRequest) (*createPlan, error) {
	fields, fieldsErr := ParseFields(req.Fields)
	idxType, typeErr := ParseType(req.Type)
	name, nameErr := ParseName(req.Name)
	ddoc, ddocErr := ParseDDoc(req.DDoc)
	if err := errors.Join(fieldsErr, typeErr, nameErr, ddocErr); err != nil {
		return nil, err
	}

	generated := GeneratedName(idxType, fields)
	if name == "" {
		name = generated
	}
	if ddoc == "" {
		ddoc = domain.DesignPrefix + generated
	}
	return &createPlan{Fields: fields, Type: idxType, Name: name, DDoc: ddoc}, nil
}
