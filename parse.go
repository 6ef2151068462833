package rpcconform

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/openrpckit/rpcconform/internal/jsonval"
)

// ParseDocument decodes an OpenRPC document and validates its structural
// shape. It does not validate schema semantics; a document whose embedded
// schemas are themselves broken still parses, and CheckExamples records the
// defect per method. The returned Document must not be mutated.
func ParseDocument(data []byte) (*Document, error) {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, &MalformedDocumentError{Path: "/", Reason: "invalid JSON: " + err.Error(), Cause: err}
	}
	// Decoding []Method cannot distinguish absent from empty; probe the raw
	// shape for the required members.
	var probe struct {
		Methods j.RawMessage `json:"methods"`
		Info    j.RawMessage `json:"info"`
	}
	if err := j.Unmarshal(data, &probe); err == nil {
		if probe.Methods == nil {
			return nil, &MalformedDocumentError{Path: "/methods", Reason: "missing required member"}
		}
		if probe.Info == nil {
			return nil, &MalformedDocumentError{Path: "/info", Reason: "missing required member"}
		}
	}
	if err := validateStructure(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ParseDocumentYAML accepts the same contract authored as YAML. The node tree
// is normalized to JSON shape and re-parsed so both inputs share one code
// path.
func ParseDocumentYAML(data []byte) (*Document, error) {
	var node any
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, &MalformedDocumentError{Path: "/", Reason: "invalid YAML: " + err.Error(), Cause: err}
	}
	raw, err := jsonval.Marshal(jsonval.FromYAML(node))
	if err != nil {
		return nil, &MalformedDocumentError{Path: "/", Reason: "invalid YAML: " + err.Error(), Cause: err}
	}
	return ParseDocument(raw)
}

// supportedVersion reports whether the declared OpenRPC version is one the
// engine understands. Unknown major versions are rejected outright.
func supportedVersion(v string) bool {
	return v == "1" || strings.HasPrefix(v, "1.")
}

func validateStructure(doc *Document) error {
	if doc.OpenRPC == "" {
		return &MalformedDocumentError{Path: "/openrpc", Reason: "missing required member"}
	}
	if !supportedVersion(doc.OpenRPC) {
		return &MalformedDocumentError{
			Path:   "/openrpc",
			Reason: fmt.Sprintf("unsupported OpenRPC version %q", doc.OpenRPC),
		}
	}
	seenMethods := make(map[string]struct{}, len(doc.Methods))
	for i := range doc.Methods {
		m := &doc.Methods[i]
		mpath := "/methods/" + strconv.Itoa(i)
		if m.Name == "" {
			return &MalformedDocumentError{Path: mpath + "/name", Reason: "missing required member"}
		}
		if _, dup := seenMethods[m.Name]; dup {
			return &MalformedDocumentError{
				Path:   mpath + "/name",
				Reason: fmt.Sprintf("duplicate method name %q", m.Name),
			}
		}
		seenMethods[m.Name] = struct{}{}
		switch m.ParamStructure {
		case "", ParamStructureEither, ParamStructureByName, ParamStructureByPosition:
		default:
			return &MalformedDocumentError{
				Path:   mpath + "/paramStructure",
				Reason: fmt.Sprintf("unknown paramStructure %q", m.ParamStructure),
			}
		}
		for pi := range m.Params {
			if m.Params[pi].Name == "" {
				return &MalformedDocumentError{
					Path:   mpath + "/params/" + strconv.Itoa(pi) + "/name",
					Reason: "missing required member",
				}
			}
		}
		seenExamples := make(map[string]struct{}, len(m.Examples))
		for ei := range m.Examples {
			ex := &m.Examples[ei]
			epath := mpath + "/examples/" + strconv.Itoa(ei)
			if ex.Name == "" {
				return &MalformedDocumentError{Path: epath + "/name", Reason: "missing required member"}
			}
			if _, dup := seenExamples[ex.Name]; dup {
				return &MalformedDocumentError{
					Path:   epath + "/name",
					Reason: fmt.Sprintf("duplicate example name %q", ex.Name),
				}
			}
			seenExamples[ex.Name] = struct{}{}
			if ex.Result == nil {
				return &MalformedDocumentError{Path: epath + "/result", Reason: "missing required member"}
			}
		}
	}
	return nil
}
