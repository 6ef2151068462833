package rpcconform_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	rpcconform "github.com/openrpckit/rpcconform"
)

func mustParse(t *testing.T, src string) *rpcconform.Document {
	t.Helper()
	doc, err := rpcconform.ParseDocument([]byte(src))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	return doc
}

func TestCheckExamples_AllPass(t *testing.T) {
	doc := loadTestDocument(t)
	rep, err := rpcconform.CheckExamples(context.Background(), doc)
	if err != nil {
		t.Fatalf("CheckExamples: %v", err)
	}
	want := rpcconform.Summary{MethodsTotal: 2, MethodsPassed: 2, ExamplesTotal: 2, ExamplesPassed: 2}
	if rep.Summary != want {
		t.Fatalf("summary = %+v, want %+v", rep.Summary, want)
	}
	for _, mr := range rep.Methods {
		for _, f := range mr.Examples {
			if !f.OK || len(f.Issues) != 0 {
				t.Fatalf("%s/%s: ok=%v issues=%v", mr.Name, f.Name, f.OK, f.Issues)
			}
			if f.TransportOK != nil || f.SchemaOK != nil || f.ExactMatchOK != nil {
				t.Fatalf("%s/%s: live-only fields populated in a static check", mr.Name, f.Name)
			}
		}
	}
}

func TestCheckExamples_ResultTypeMismatch(t *testing.T) {
	// The example result is an array where the schema declares an object.
	doc := mustParse(t, `{
		"openrpc": "1.2.4",
		"info": {"title": "t", "version": "1"},
		"methods": [{
			"name": "get_versions",
			"params": [],
			"result": {"name": "result", "schema": {"type": "object"}},
			"examples": [{
				"name": "default",
				"params": [],
				"result": {"name": "result", "value": [{"version": "1.0"}]}
			}]
		}]
	}`)
	rep, err := rpcconform.CheckExamples(context.Background(), doc)
	if err != nil {
		t.Fatalf("CheckExamples: %v", err)
	}
	if rep.Summary.ExamplesPassed != 0 || rep.Summary.MethodsPassed != 0 {
		t.Fatalf("summary = %+v, want zero passed", rep.Summary)
	}
	f := rep.Methods[0].Examples[0]
	if f.OK {
		t.Fatalf("mismatching example reported ok")
	}
	if len(f.Issues) != 1 {
		t.Fatalf("issues = %v, want exactly one", f.Issues)
	}
	if f.Issues[0].Path != "/result" {
		t.Fatalf("path = %q, want /result", f.Issues[0].Path)
	}
	if f.Issues[0].Message != "expected object, got array" {
		t.Fatalf("reason = %q", f.Issues[0].Message)
	}
}

func TestCheckExamples_ParamValidation(t *testing.T) {
	doc := mustParse(t, `{
		"openrpc": "1.2.4",
		"info": {"title": "t", "version": "1"},
		"methods": [{
			"name": "get_version_details",
			"params": [{"name": "version", "required": true, "schema": {"type": "string"}}],
			"result": {"name": "result", "schema": {"type": "string"}},
			"examples": [{
				"name": "numeric version",
				"params": [{"name": "version", "value": 7}],
				"result": {"name": "result", "value": "{}"}
			}]
		}]
	}`)
	rep, err := rpcconform.CheckExamples(context.Background(), doc)
	if err != nil {
		t.Fatalf("CheckExamples: %v", err)
	}
	f := rep.Methods[0].Examples[0]
	if f.OK || len(f.Issues) != 1 {
		t.Fatalf("finding = %+v", f)
	}
	if f.Issues[0].Path != "/params/version" || f.Issues[0].Code != rpcconform.CodeInvalidType {
		t.Fatalf("issue = %+v", f.Issues[0])
	}
}

func TestCheckExamples_ArityMismatch(t *testing.T) {
	// Zero-arity method paired with an example that still carries a param.
	doc := mustParse(t, `{
		"openrpc": "1.2.4",
		"info": {"title": "t", "version": "1"},
		"methods": [{
			"name": "get_versions",
			"params": [],
			"result": {"name": "result", "schema": {"type": "object"}},
			"examples": [{
				"name": "stray param",
				"params": [{"name": "verbose", "value": true}],
				"result": {"name": "result", "value": {}}
			}]
		}]
	}`)
	rep, err := rpcconform.CheckExamples(context.Background(), doc)
	if err != nil {
		t.Fatalf("CheckExamples: %v", err)
	}
	f := rep.Methods[0].Examples[0]
	if f.OK || len(f.Issues) != 1 {
		t.Fatalf("finding = %+v", f)
	}
	iss := f.Issues[0]
	if iss.Code != rpcconform.CodeArityMismatch || iss.Path != "/params" {
		t.Fatalf("issue = %+v", iss)
	}
	if iss.Message != "example carries 1 params, method declares 0" {
		t.Fatalf("reason = %q", iss.Message)
	}
}

func TestCheckExamples_MissingRequiredParam(t *testing.T) {
	doc := mustParse(t, `{
		"openrpc": "1.2.4",
		"info": {"title": "t", "version": "1"},
		"methods": [{
			"name": "get_version_details",
			"paramStructure": "by-name",
			"params": [{"name": "version", "required": true, "schema": {"type": "string"}}],
			"result": {"name": "result", "schema": {"type": "string"}},
			"examples": [{
				"name": "empty",
				"params": [],
				"result": {"name": "result", "value": "{}"}
			}]
		}]
	}`)
	rep, err := rpcconform.CheckExamples(context.Background(), doc)
	if err != nil {
		t.Fatalf("CheckExamples: %v", err)
	}
	f := rep.Methods[0].Examples[0]
	if f.OK || len(f.Issues) != 1 || f.Issues[0].Code != rpcconform.CodeArityMismatch {
		t.Fatalf("finding = %+v", f)
	}
	if !strings.Contains(f.Issues[0].Message, `missing required param "version"`) {
		t.Fatalf("reason = %q", f.Issues[0].Message)
	}
}

func TestCheckExamples_BrokenSchemaIsReported(t *testing.T) {
	doc := mustParse(t, `{
		"openrpc": "1.2.4",
		"info": {"title": "t", "version": "1"},
		"methods": [{
			"name": "broken",
			"params": [],
			"result": {"name": "result", "schema": {"$ref": "#/components/schemas/Missing"}},
			"examples": [{
				"name": "a",
				"params": [],
				"result": {"name": "result", "value": {}}
			}]
		}]
	}`)
	rep, err := rpcconform.CheckExamples(context.Background(), doc)
	if err != nil {
		t.Fatalf("CheckExamples: %v", err)
	}
	f := rep.Methods[0].Examples[0]
	if f.OK {
		t.Fatalf("example under a broken schema reported ok")
	}
	if len(f.Issues) != 1 || f.Issues[0].Code != rpcconform.CodeSchemaError {
		t.Fatalf("issues = %v", f.Issues)
	}
	if !strings.HasPrefix(f.Issues[0].Path, "/result") {
		t.Fatalf("path = %q", f.Issues[0].Path)
	}
}

func TestCheckExamples_ComponentsRef(t *testing.T) {
	doc := mustParse(t, `{
		"openrpc": "1.2.4",
		"info": {"title": "t", "version": "1"},
		"components": {"schemas": {
			"Version": {
				"type": "object",
				"properties": {"version": {"type": "string"}},
				"required": ["version"]
			}
		}},
		"methods": [{
			"name": "latest",
			"params": [],
			"result": {"name": "result", "schema": {"$ref": "#/components/schemas/Version"}},
			"examples": [
				{"name": "good", "params": [], "result": {"name": "result", "value": {"version": "1.0"}}},
				{"name": "bad", "params": [], "result": {"name": "result", "value": {"semver": "1.0.0"}}}
			]
		}]
	}`)
	rep, err := rpcconform.CheckExamples(context.Background(), doc)
	if err != nil {
		t.Fatalf("CheckExamples: %v", err)
	}
	exs := rep.Methods[0].Examples
	if !exs[0].OK {
		t.Fatalf("good example failed: %v", exs[0].Issues)
	}
	if exs[1].OK {
		t.Fatalf("bad example passed")
	}
	if exs[1].Issues[0].Path != "/result/version" || exs[1].Issues[0].Code != rpcconform.CodeRequired {
		t.Fatalf("issue = %+v", exs[1].Issues[0])
	}
}

func TestCheckExamples_DeterministicUnderConcurrency(t *testing.T) {
	// Many methods, a bounded pool, and repeated runs must serialize to the
	// same bytes with methods in declaration order.
	var sb strings.Builder
	sb.WriteString(`{"openrpc":"1.2.4","info":{"title":"t","version":"1"},"methods":[`)
	for i := 0; i < 24; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"name":"m%02d","params":[],"result":{"name":"result","schema":{"type":"number"}},"examples":[{"name":"e","params":[],"result":{"name":"result","value":%d}}]}`, i, i)
	}
	sb.WriteString("]}")
	doc := mustParse(t, sb.String())

	var first []byte
	for run := 0; run < 5; run++ {
		rep, err := rpcconform.CheckExamples(context.Background(), doc, rpcconform.RunOpt{Concurrency: 8})
		if err != nil {
			t.Fatalf("CheckExamples: %v", err)
		}
		for i, mr := range rep.Methods {
			if want := fmt.Sprintf("m%02d", i); mr.Name != want {
				t.Fatalf("methods[%d] = %q, want %q", i, mr.Name, want)
			}
		}
		out, err := rep.JSON()
		if err != nil {
			t.Fatalf("JSON: %v", err)
		}
		if first == nil {
			first = out
			continue
		}
		if !bytes.Equal(first, out) {
			t.Fatalf("run %d produced different bytes", run)
		}
	}
}

func TestCheckExamples_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc := loadTestDocument(t)
	rep, err := rpcconform.CheckExamples(ctx, doc)
	if err == nil {
		t.Fatalf("expected ctx.Err(), got nil")
	}
	if rep == nil {
		t.Fatalf("cancelled run must still return a partial report")
	}
	if rep.Summary.MethodsTotal > 2 {
		t.Fatalf("summary = %+v", rep.Summary)
	}
}
