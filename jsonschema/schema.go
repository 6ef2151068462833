package jsonschema

import (
	"strings"

	j "github.com/goccy/go-json"
)

// Schema is the JSON Schema subset OpenRPC documents embed. Absent fields
// impose no constraint; a nil *Schema accepts any value.
type Schema struct {
	// Core
	Type   string `json:"type,omitempty"`
	Title  string `json:"title,omitempty"`
	Format string `json:"format,omitempty"`
	Enum   []any  `json:"enum,omitempty"`
	Const  any    `json:"const,omitempty"`
	Ref    string `json:"$ref,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties *Additional        `json:"additionalProperties,omitempty"`

	// Array
	Items    *Schema `json:"items,omitempty"`
	MinItems *int    `json:"minItems,omitempty"`
	MaxItems *int    `json:"maxItems,omitempty"`

	// String
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`

	// Number
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`

	// Union
	OneOf []*Schema `json:"oneOf,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty"`
	AllOf []*Schema `json:"allOf,omitempty"`

	// Defs holds locally named schemas addressable via #/$defs/<name>.
	Defs map[string]*Schema `json:"$defs,omitempty"`
}

// Additional models the boolean-or-schema form of additionalProperties.
type Additional struct {
	// Forbidden is set when the document says additionalProperties:false.
	Forbidden bool
	// Schema is set when additional properties carry their own schema.
	Schema *Schema
}

func (a *Additional) UnmarshalJSON(b []byte) error {
	var allowed bool
	if err := j.Unmarshal(b, &allowed); err == nil {
		*a = Additional{Forbidden: !allowed}
		return nil
	}
	var s Schema
	if err := j.Unmarshal(b, &s); err != nil {
		return err
	}
	*a = Additional{Schema: &s}
	return nil
}

func (a Additional) MarshalJSON() ([]byte, error) {
	if a.Schema != nil {
		return j.Marshal(a.Schema)
	}
	return j.Marshal(!a.Forbidden)
}

// Resolver resolves $ref pointers against a document's named schema tables.
type Resolver struct {
	// Components maps names addressable via #/components/schemas/<name>.
	Components map[string]*Schema
	// Defs maps names addressable via #/$defs/<name>.
	Defs map[string]*Schema
}

const (
	componentsPrefix = "#/components/schemas/"
	defsPrefix       = "#/$defs/"
)

// Resolve returns the schema a $ref points at, or false when the pointer is
// dangling or uses an unsupported form.
func (r *Resolver) Resolve(ref string) (*Schema, bool) {
	if r == nil || ref == "" {
		return nil, false
	}
	if name, ok := strings.CutPrefix(ref, componentsPrefix); ok && name != "" {
		s, ok := r.Components[name]
		return s, ok && s != nil
	}
	if name, ok := strings.CutPrefix(ref, defsPrefix); ok && name != "" {
		s, ok := r.Defs[name]
		return s, ok && s != nil
	}
	return nil, false
}
