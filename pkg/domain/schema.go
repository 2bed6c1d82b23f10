package domain

import "fmt"

// SkippedValue marks an optional field the user chose to skip. It
// satisfies the field without carrying data.
const SkippedValue = "skipped"

// Validator normalizes a raw answer into a stored value or rejects it
// with a human-readable reason. Pure: no I/O, no state.
type Validator func(raw string) (string, error)

// Field declares a single piece of profile data.
type Field struct {
	Name     string
	Required bool
	// Question is the prompt emitted when the field is asked.
	Question string
	Validate Validator
}

// Schema is the ordered, immutable declaration of fields to collect.
// Declaration order is the tie-breaking policy everywhere a "next
// field" decision is made.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema builds a schema from the given fields. Duplicate or
// unnamed fields are rejected, and every field needs a validator.
func NewSchema(fields ...Field) (*Schema, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("schema requires at least one field")
	}
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field %d has no name", i)
		}
		if f.Validate == nil {
			return nil, fmt.Errorf("field %q has no validator", f.Name)
		}
		if _, dup := idx[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field %q", f.Name)
		}
		idx[f.Name] = i
	}
	return &Schema{fields: fields, index: idx}, nil
}

// Fields returns the declared fields in order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Lookup returns the declaration for a field name.
func (s *Schema) Lookup(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Satisfied reports whether a field holds a value in the profile. A
// skipped optional field counts as satisfied.
func (s *Schema) Satisfied(profile map[string]string, name string) bool {
	return profile[name] != ""
}

// Missing returns the unsatisfied fields, required first is not needed:
// declaration order already places required fields ahead by convention,
// and the order must stay deterministic regardless.
func (s *Schema) Missing(profile map[string]string) []Field {
	var missing []Field
	for _, f := range s.fields {
		if !s.Satisfied(profile, f.Name) {
			missing = append(missing, f)
		}
	}
	return missing
}

// NextMissing returns the first unsatisfied field in declaration order.
func (s *Schema) NextMissing(profile map[string]string) (Field, bool) {
	for _, f := range s.fields {
		if !s.Satisfied(profile, f.Name) {
			return f, true
		}
	}
	return Field{}, false
}

// RequiredSatisfied reports whether every required field holds a value.
func (s *Schema) RequiredSatisfied(profile map[string]string) bool {
	for _, f := range s.fields {
		if f.Required && !s.Satisfied(profile, f.Name) {
			return false
		}
	}
	return true
}

// Complete reports whether every field (required and optional) is
// satisfied or skipped.
func (s *Schema) Complete(profile map[string]string) bool {
	for _, f := range s.fields {
		if !s.Satisfied(profile, f.Name) {
			return false
		}
	}
	return true
}
