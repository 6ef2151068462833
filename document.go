package rpcconform

import (
	"github.com/openrpckit/rpcconform/jsonschema"
)

// Document is the root of the parsed OpenRPC contract. It is constructed once
// by ParseDocument and treated as immutable for the lifetime of a run.
type Document struct {
	OpenRPC    string      `json:"openrpc"`
	Info       Info        `json:"info"`
	Methods    []Method    `json:"methods"`
	Components *Components `json:"components,omitempty"`
}

// Info carries the document's title/version block.
type Info struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

// Components holds named schemas addressable via #/components/schemas/<name>.
type Components struct {
	Schemas map[string]*jsonschema.Schema `json:"schemas,omitempty"`
}

// Method describes a single RPC method and its worked examples.
type Method struct {
	Name           string              `json:"name"`
	Summary        string              `json:"summary,omitempty"`
	Description    string              `json:"description,omitempty"`
	Deprecated     bool                `json:"deprecated,omitempty"`
	ParamStructure ParamStructure      `json:"paramStructure,omitempty"`
	Params         []ContentDescriptor `json:"params"`
	Result         *ContentDescriptor  `json:"result,omitempty"`
	Errors         []ErrorSpec         `json:"errors,omitempty"`
	Examples       []ExamplePairing    `json:"examples,omitempty"`
}

// ContentDescriptor names a param or result and embeds its schema. A nil
// schema accepts/produces any value.
type ContentDescriptor struct {
	Name     string             `json:"name"`
	Summary  string             `json:"summary,omitempty"`
	Required bool               `json:"required,omitempty"`
	Schema   *jsonschema.Schema `json:"schema,omitempty"`
}

// ErrorSpec declares an application error a method may return.
type ErrorSpec struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ExamplePairing couples example param values with the expected result.
type ExamplePairing struct {
	Name        string          `json:"name"`
	Summary     string          `json:"summary,omitempty"`
	Description string          `json:"description,omitempty"`
	Params      []ExampleObject `json:"params"`
	Result      *ExampleObject  `json:"result,omitempty"`
}

// ExampleObject is a named example value.
type ExampleObject struct {
	Name  string `json:"name,omitempty"`
	Value any    `json:"value"`
}

// Method returns the named method, or false when the document does not
// declare it.
func (d *Document) Method(name string) (*Method, bool) {
	for i := range d.Methods {
		if d.Methods[i].Name == name {
			return &d.Methods[i], true
		}
	}
	return nil, false
}

// resolver projects the document's named schemas for $ref resolution.
func (d *Document) resolver() *jsonschema.Resolver {
	r := &jsonschema.Resolver{}
	if d.Components != nil {
		r.Components = d.Components.Schemas
	}
	return r
}
