package indexing

import (
	"github.com/adfharrison1/go-db-index/pkg/domain"
)

// ParseFields validates an untrusted index field list and normalizes it.
// Accepted elements are bare field names ("foo", meaning ascending) and
// single-key objects ({"foo": "asc"}). Descending fields parse but are
// rejected as unsupported.
func ParseFields(raw domain.Raw) (domain.IndexFieldSpec, error) {
	items, ok := raw.AsArray()
	if !ok {
		return nil, domain.NewValidationError(domain.InvalidFields,
			"fields must be an array of field names or {field: direction} objects, got %s", raw.Kind())
	}
	if len(items) == 0 {
		return nil, domain.NewValidationError(domain.InvalidFields, "fields must not be empty")
	}

	spec := make(domain.IndexFieldSpec, 0, len(items))
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		field, err := parseField(i, item)
		if err != nil {
			return nil, err
		}
		if seen[field.Name] {
			return nil, domain.NewValidationError(domain.InvalidFields, "field %q is listed more than once", field.Name)
		}
		seen[field.Name] = true
		spec = append(spec, field)
	}

	for _, field := range spec {
		if field.Direction != domain.DirectionAsc {
			return nil, domain.NewValidationError(domain.UnsupportedDirection,
				"field %q: only ascending sort is supported", field.Name)
		}
	}
	return spec, nil
}

func parseField(pos int, item domain.Raw) (domain.IndexField, error) {
	switch item.Kind() {
	case domain.RawString:
		name, _ := item.AsString()
		if name == "" {
			return domain.IndexField{}, domain.NewValidationError(domain.InvalidFields, "field %d: name must not be empty", pos)
		}
		return domain.IndexField{Name: name, Direction: domain.DirectionAsc}, nil

	case domain.RawObject:
		obj, _ := item.AsObject()
		if len(obj) != 1 {
			return domain.IndexField{}, domain.NewValidationError(domain.InvalidFields,
				"field %d: sort object must have exactly one key, got %d", pos, len(obj))
		}
		for name, value := range obj {
			if name == "" {
				return domain.IndexField{}, domain.NewValidationError(domain.InvalidFields, "field %d: name must not be empty", pos)
			}
			dir, ok := value.AsString()
			if !ok {
				return domain.IndexField{}, domain.NewValidationError(domain.InvalidFields,
					"field %q: direction must be a string, got %s", name, value.Kind())
			}
			switch domain.Direction(dir) {
			case domain.DirectionAsc, domain.DirectionDesc:
				return domain.IndexField{Name: name, Direction: domain.Direction(dir)}, nil
			default:
				return domain.IndexField{}, domain.NewValidationError(domain.InvalidFields,
					"field %q: unknown sort direction %q", name, dir)
			}
		}
	}

	return domain.IndexField{}, domain.NewValidationError(domain.InvalidFields,
		"field %d: expected a field name or {field: direction} object, got %s", pos, item.Kind())
}
