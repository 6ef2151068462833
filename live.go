package rpcconform

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/openrpckit/rpcconform/internal/jsonval"
	"github.com/openrpckit/rpcconform/jsonschema"
)

// RunLive replays every example against a live implementation. A conforming
// implementation must at minimum satisfy its own declared result schema; with
// RunOpt.ExactMatch the actual result must also deep-equal the expected
// example result. Transport failures are recorded as findings and the run
// continues with the remaining examples.
//
// Examples run concurrently on a worker pool bounded by RunOpt.Concurrency;
// RunOpt.SerializeTransport serializes the calls themselves for transports
// unsafe for concurrent use. On cancellation, in-flight calls are abandoned
// and the findings already collected return as a partial Report.
func RunLive(ctx context.Context, doc *Document, transport Transport, opts ...RunOpt) (*Report, error) {
	opt := normalizeOpt(opts)
	res := doc.resolver()

	caller := transport
	if opt.SerializeTransport {
		caller = &serialTransport{inner: transport}
	}

	findings := make([][]*ExampleFinding, len(doc.Methods))
	for i := range doc.Methods {
		findings[i] = make([]*ExampleFinding, len(doc.Methods[i].Examples))
	}

	var g errgroup.Group
	g.SetLimit(opt.Concurrency)
dispatch:
	for i := range doc.Methods {
		m := &doc.Methods[i]
		for k := range m.Examples {
			if ctx.Err() != nil {
				break dispatch
			}
			i, k := i, k
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				f := liveExample(ctx, m, &m.Examples[k], caller, res, opt)
				findings[i][k] = &f
				return nil
			})
		}
	}
	_ = g.Wait()

	mfs := make([]MethodFindings, 0, len(doc.Methods))
	for i := range doc.Methods {
		fs := make([]ExampleFinding, 0, len(findings[i]))
		for _, f := range findings[i] {
			if f != nil {
				fs = append(fs, *f)
			}
		}
		if len(fs) == 0 && len(doc.Methods[i].Examples) > 0 {
			continue
		}
		mfs = append(mfs, MethodFindings{Method: doc.Methods[i].Name, Findings: fs})
	}
	return Aggregate(doc, mfs), ctx.Err()
}

func liveExample(ctx context.Context, m *Method, ex *ExamplePairing, transport Transport, res *jsonschema.Resolver, opt RunOpt) ExampleFinding {
	pairs, pairIss := pairParams(m, ex)
	if len(pairIss) > 0 {
		// The example cannot be replayed; it counts as failed, not skipped.
		return ExampleFinding{Name: ex.Name, OK: false, Issues: pairIss}
	}

	cctx := ctx
	if opt.CallTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, opt.CallTimeout)
		defer cancel()
	}
	actual, err := transport.Call(cctx, m.Name, orderedParams(m, pairs))
	if err != nil {
		f := ExampleFinding{Name: ex.Name, OK: false, TransportOK: boolPtr(false)}
		f.Issues = Issues{transportIssue(err)}
		return f
	}

	f := ExampleFinding{Name: ex.Name, TransportOK: boolPtr(true)}
	var rs *jsonschema.Schema
	if m.Result != nil {
		rs = m.Result.Schema
	}
	schemaIss := prefixIssues("/result", ValidateValue(rs, actual, res))
	f.SchemaOK = boolPtr(len(schemaIss) == 0)
	f.Issues = append(f.Issues, schemaIss...)

	ok := *f.SchemaOK
	if opt.ExactMatch && ex.Result != nil {
		match := equalResults(ex.Result.Value, actual, opt.RecurseStringifiedJSON)
		f.ExactMatchOK = boolPtr(match)
		if !match {
			f.Issues = append(f.Issues, Issue{
				Path:    "/result",
				Code:    CodeExactMismatch,
				Message: "actual result differs from expected example result",
			})
			ok = false
		}
	}
	f.OK = ok
	return f
}

// orderedParams lays pairs out in declared param order for positional
// transports.
func orderedParams(m *Method, pairs []paramPair) []any {
	byDecl := make(map[*ContentDescriptor]any, len(pairs))
	for _, p := range pairs {
		byDecl[p.decl] = p.value
	}
	out := make([]any, 0, len(pairs))
	for i := range m.Params {
		if v, ok := byDecl[&m.Params[i]]; ok {
			out = append(out, v)
		}
	}
	return out
}

func transportIssue(err error) Issue {
	var te *TransportError
	if errors.As(err, &te) {
		return Issue{
			Path:    "/",
			Code:    CodeTransportError,
			Message: te.Message,
			Params:  map[string]any{"code": te.Code},
			Cause:   err,
		}
	}
	code := "unavailable"
	if errors.Is(err, context.DeadlineExceeded) {
		code = "timeout"
	}
	return Issue{
		Path:    "/",
		Code:    CodeTransportError,
		Message: err.Error(),
		Params:  map[string]any{"code": code},
		Cause:   err,
	}
}

// equalResults deep-compares expected vs actual. With recurse enabled, a
// string whose content is itself serialized JSON compares by its parsed
// structure, covering contracts whose declared result type is string while
// the payload is a stringified object.
func equalResults(expected, actual any, recurse bool) bool {
	if jsonval.Equal(expected, actual) {
		return true
	}
	if !recurse {
		return false
	}
	return jsonval.Equal(unwrapStringified(expected), unwrapStringified(actual))
}

func unwrapStringified(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	parsed, err := jsonval.Decode([]byte(s))
	if err != nil {
		return v
	}
	switch jsonval.KindOf(parsed) {
	case jsonval.KindObject, jsonval.KindArray:
		return parsed
	default:
		// A bare scalar that happens to parse ("1.0", "true") stays a string;
		// only structured payloads are treated as stringified JSON.
		return v
	}
}

func boolPtr(b bool) *bool { return &b }

// serialTransport forces one call at a time for transports that are not safe
// for concurrent use.
type serialTransport struct {
	mu    sync.Mutex
	inner Transport
}

func (s *serialTransport) Call(ctx context.Context, method string, params []any) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Call(ctx, method, params)
}
