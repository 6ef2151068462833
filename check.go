package rpcconform

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/openrpckit/rpcconform/i18n"
	"github.com/openrpckit/rpcconform/jsonschema"
)

// CheckExamples validates every embedded example against its declared
// parameter and result schemas. Methods are checked concurrently on a worker
// pool bounded by RunOpt.Concurrency; the Report is nevertheless ordered by
// document declaration order. All examples are evaluated so a single run
// surfaces every defect.
//
// On cancellation no further methods are dispatched and the findings already
// collected return as a partial Report alongside ctx.Err().
func CheckExamples(ctx context.Context, doc *Document, opts ...RunOpt) (*Report, error) {
	opt := normalizeOpt(opts)
	res := doc.resolver()

	findings := make([][]ExampleFinding, len(doc.Methods))
	var g errgroup.Group
	g.SetLimit(opt.Concurrency)
	for i := range doc.Methods {
		if ctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			findings[i] = checkMethod(&doc.Methods[i], res)
			return nil
		})
	}
	_ = g.Wait()

	mfs := make([]MethodFindings, 0, len(doc.Methods))
	for i := range doc.Methods {
		if findings[i] == nil {
			continue
		}
		mfs = append(mfs, MethodFindings{Method: doc.Methods[i].Name, Findings: findings[i]})
	}
	return Aggregate(doc, mfs), ctx.Err()
}

// checkMethod validates one method's examples. A defect in the method's own
// schemas is recorded against each example and suppresses value validation,
// which would only echo the same defect.
func checkMethod(m *Method, res *jsonschema.Resolver) []ExampleFinding {
	out := make([]ExampleFinding, 0, len(m.Examples))
	if schemaIss := methodSchemaIssues(m, res); len(schemaIss) > 0 {
		for i := range m.Examples {
			out = append(out, ExampleFinding{Name: m.Examples[i].Name, OK: false, Issues: schemaIss})
		}
		return out
	}
	for i := range m.Examples {
		out = append(out, checkExample(m, &m.Examples[i], res))
	}
	return out
}

func methodSchemaIssues(m *Method, res *jsonschema.Resolver) Issues {
	var iss Issues
	for pi := range m.Params {
		sub := CheckSchemaSyntax(m.Params[pi].Schema, res)
		iss = append(iss, prefixIssues(childPath("/params", m.Params[pi].Name), sub)...)
	}
	if m.Result != nil {
		iss = append(iss, prefixIssues("/result", CheckSchemaSyntax(m.Result.Schema, res))...)
	}
	return iss
}

func checkExample(m *Method, ex *ExamplePairing, res *jsonschema.Resolver) ExampleFinding {
	var iss Issues
	pairs, pairIss := pairParams(m, ex)
	iss = append(iss, pairIss...)
	if len(pairIss) == 0 {
		for _, p := range pairs {
			sub := ValidateValue(p.decl.Schema, p.value, res)
			iss = append(iss, prefixIssues(childPath("/params", p.decl.Name), sub)...)
		}
	}
	if ex.Result != nil {
		var rs *jsonschema.Schema
		if m.Result != nil {
			rs = m.Result.Schema
		}
		iss = append(iss, prefixIssues("/result", ValidateValue(rs, ex.Result.Value, res))...)
	}
	return ExampleFinding{Name: ex.Name, OK: len(iss) == 0, Issues: iss}
}

type paramPair struct {
	decl  *ContentDescriptor
	value any
}

// pairParams aligns example param values with the method's declared params.
// By-name pairing is used when the method declares it, or when every example
// param names a declared param; positional pairing otherwise. The contract
// does not support variadic methods, so surplus params always mismatch.
func pairParams(m *Method, ex *ExamplePairing) ([]paramPair, Issues) {
	if len(ex.Params) > len(m.Params) {
		return nil, Issues{arityIssue(
			fmt.Sprintf("example carries %d params, method declares %d", len(ex.Params), len(m.Params)),
			map[string]any{"declared": len(m.Params), "got": len(ex.Params)},
		)}
	}
	byName := m.ParamStructure == ParamStructureByName
	if m.ParamStructure == "" || m.ParamStructure == ParamStructureEither {
		byName = allNamesDeclared(m, ex)
	}
	if byName {
		return pairByName(m, ex)
	}
	return pairByPosition(m, ex)
}

func allNamesDeclared(m *Method, ex *ExamplePairing) bool {
	if len(ex.Params) == 0 {
		return false
	}
	for i := range ex.Params {
		if ex.Params[i].Name == "" {
			return false
		}
		if declByName(m, ex.Params[i].Name) == nil {
			return false
		}
	}
	return true
}

func declByName(m *Method, name string) *ContentDescriptor {
	for i := range m.Params {
		if m.Params[i].Name == name {
			return &m.Params[i]
		}
	}
	return nil
}

func pairByName(m *Method, ex *ExamplePairing) ([]paramPair, Issues) {
	var iss Issues
	provided := make(map[string]struct{}, len(ex.Params))
	pairs := make([]paramPair, 0, len(ex.Params))
	for i := range ex.Params {
		p := &ex.Params[i]
		decl := declByName(m, p.Name)
		if decl == nil {
			iss = append(iss, arityIssue(
				fmt.Sprintf("unexpected param %q", p.Name),
				map[string]any{"param": p.Name},
			))
			continue
		}
		provided[p.Name] = struct{}{}
		pairs = append(pairs, paramPair{decl: decl, value: p.Value})
	}
	for i := range m.Params {
		decl := &m.Params[i]
		if !decl.Required {
			continue
		}
		if _, ok := provided[decl.Name]; !ok {
			iss = append(iss, arityIssue(
				fmt.Sprintf("missing required param %q", decl.Name),
				map[string]any{"param": decl.Name},
			))
		}
	}
	return pairs, iss
}

func pairByPosition(m *Method, ex *ExamplePairing) ([]paramPair, Issues) {
	var iss Issues
	pairs := make([]paramPair, 0, len(ex.Params))
	for i := range ex.Params {
		pairs = append(pairs, paramPair{decl: &m.Params[i], value: ex.Params[i].Value})
	}
	for i := len(ex.Params); i < len(m.Params); i++ {
		if m.Params[i].Required {
			iss = append(iss, arityIssue(
				fmt.Sprintf("missing required param %q", m.Params[i].Name),
				map[string]any{"param": m.Params[i].Name},
			))
		}
	}
	return pairs, iss
}

func arityIssue(msg string, params map[string]any) Issue {
	if msg == "" {
		msg = i18n.T(CodeArityMismatch, nil)
	}
	return Issue{Path: "/params", Code: CodeArityMismatch, Message: msg, Params: params}
}

// prefixIssues rebases issue paths produced against a sub-value onto the
// example-level location ("/params/<name>", "/result").
func prefixIssues(prefix string, iss Issues) Issues {
	for i := range iss {
		if iss[i].Path == "/" || iss[i].Path == "" {
			iss[i].Path = prefix
		} else {
			iss[i].Path = prefix + iss[i].Path
		}
	}
	return iss
}
