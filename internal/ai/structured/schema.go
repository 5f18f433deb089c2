package structured

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/mitchellh/mapstructure"
	"github.com/tailscale/hujson"
)

// Schema validates loosely formatted model output against the JSON schema
// derived from T and decodes it into T.
type Schema[T any] struct {
	name     string
	resolved *jsonschema.Resolved
}

// NewSchema infers the schema of T. Unknown properties are always accepted; tune
// may tighten the inferred schema (bounds, enums) before it is resolved.
func NewSchema[T any](name string, tune func(*jsonschema.Schema)) (*Schema[T], error) {
	s, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, fmt.Errorf("infer %s schema: %w", name, err)
	}

	relax(s)
	if tune != nil {
		tune(s)
	}

	resolved, err := s.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve %s schema: %w", name, err)
	}

	return &Schema[T]{name: name, resolved: resolved}, nil
}

// MustSchema is like NewSchema but panics on error. Intended for package level tables.
func MustSchema[T any](name string, tune func(*jsonschema.Schema)) *Schema[T] {
	s, err := NewSchema[T](name, tune)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema[T]) Name() string {
	return s.name
}

// Decode runs extraction, brace repair, lenient parsing and validation over raw.
// The returned span is the repaired JSON text, empty when no object was found.
func (s *Schema[T]) Decode(raw string) (*T, string, error) {
	span, err := ExtractJSON(raw)
	if err != nil {
		return nil, "", err
	}
	span = RepairBraces(span)

	var instance any
	if err := lenientUnmarshal(span, &instance); err != nil {
		return nil, span, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	if err := s.resolved.Validate(instance); err != nil {
		return nil, span, fmt.Errorf("%w: %s: %v", ErrSchemaValidation, s.name, err)
	}

	var out T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &out,
		TagName: "json",
	})
	if err != nil {
		return nil, span, err
	}
	if err := decoder.Decode(instance); err != nil {
		return nil, span, fmt.Errorf("%w: %s: %v", ErrSchemaValidation, s.name, err)
	}

	return &out, span, nil
}

// ExtractJSON returns the text from the first '{' to the end, dropping a closing
// markdown fence when the model wrapped its answer in one.
func ExtractJSON(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return "", ErrNoJSONFound
	}

	span := strings.TrimSpace(text[start:])
	if strings.HasSuffix(span, "```") {
		span = strings.TrimSpace(strings.TrimSuffix(span, "```"))
	}
	return span, nil
}

// RepairBraces appends one '}' per unmatched '{'. Surplus closing braces are left untouched.
func RepairBraces(span string) string {
	missing := strings.Count(span, "{") - strings.Count(span, "}")
	if missing <= 0 {
		return span
	}
	return span + strings.Repeat("}", missing)
}

// lenientUnmarshal accepts JSON with comments and trailing commas.
func lenientUnmarshal(span string, v any) error {
	standard, err := hujson.Standardize([]byte(span))
	if err != nil {
		return err
	}
	return json.Unmarshal(standard, v)
}

// relax drops the "no additional properties" constraint that schema inference adds to structs.
func relax(s *jsonschema.Schema) {
	if s == nil {
		return
	}
	s.AdditionalProperties = nil
	for _, prop := range s.Properties {
		relax(prop)
	}
	relax(s.Items)
}
