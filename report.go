package rpcconform

import (
	j "github.com/goccy/go-json"
)

// Report is the read-only result tree of a conformance run. Ordering always
// matches the document's declaration order regardless of the order findings
// were produced.
type Report struct {
	Summary Summary        `json:"summary"`
	Methods []MethodReport `json:"methods"`
}

// Summary counts pass/fail at run level. Examples that could not be evaluated
// (arity mismatch, broken schema) count as failed, not skipped.
type Summary struct {
	MethodsTotal   int `json:"methodsTotal"`
	MethodsPassed  int `json:"methodsPassed"`
	ExamplesTotal  int `json:"examplesTotal"`
	ExamplesPassed int `json:"examplesPassed"`
}

// MethodReport groups the findings for one method.
type MethodReport struct {
	Name     string           `json:"name"`
	Examples []ExampleFinding `json:"examples"`
}

// ExampleFinding records the outcome for a single example pairing. The
// pointer fields are populated by live runs only.
type ExampleFinding struct {
	Name         string `json:"name"`
	OK           bool   `json:"ok"`
	TransportOK  *bool  `json:"transportOk,omitempty"`
	SchemaOK     *bool  `json:"schemaOk,omitempty"`
	ExactMatchOK *bool  `json:"exactMatchOk,omitempty"`
	Issues       Issues `json:"errors"`
}

// MethodFindings pairs a method name with its example findings, in whatever
// order a worker produced them.
type MethodFindings struct {
	Method   string
	Findings []ExampleFinding
}

// Aggregate merges findings into a Report ordered by the document's method
// and example declaration order. It is a pure merge/sort with no validation
// logic. Methods absent from findings are omitted, so a cancelled run yields
// a partial Report whose summary reflects only what was evaluated.
func Aggregate(doc *Document, findings []MethodFindings) *Report {
	byMethod := make(map[string][]ExampleFinding, len(findings))
	for _, mf := range findings {
		byMethod[mf.Method] = append(byMethod[mf.Method], mf.Findings...)
	}

	rep := &Report{Methods: make([]MethodReport, 0, len(byMethod))}
	for i := range doc.Methods {
		m := &doc.Methods[i]
		fs, ok := byMethod[m.Name]
		if !ok {
			continue
		}
		ordered := orderByExamples(m, fs)
		for k := range ordered {
			if ordered[k].Issues == nil {
				ordered[k].Issues = Issues{}
			}
		}
		rep.Methods = append(rep.Methods, MethodReport{Name: m.Name, Examples: ordered})

		rep.Summary.MethodsTotal++
		passed := true
		for _, f := range ordered {
			rep.Summary.ExamplesTotal++
			if f.OK {
				rep.Summary.ExamplesPassed++
			} else {
				passed = false
			}
		}
		if passed {
			rep.Summary.MethodsPassed++
		}
	}
	return rep
}

// orderByExamples sorts findings into the method's example declaration order.
// Findings for names the document does not declare keep their input order at
// the tail; these do not occur in normal runs.
func orderByExamples(m *Method, fs []ExampleFinding) []ExampleFinding {
	pos := make(map[string]int, len(m.Examples))
	for i := range m.Examples {
		pos[m.Examples[i].Name] = i
	}
	out := make([]ExampleFinding, 0, len(fs))
	for i := range m.Examples {
		name := m.Examples[i].Name
		for _, f := range fs {
			if f.Name == name {
				out = append(out, f)
			}
		}
	}
	for _, f := range fs {
		if _, known := pos[f.Name]; !known {
			out = append(out, f)
		}
	}
	return out
}

// JSON serializes the report deterministically.
func (r *Report) JSON() ([]byte, error) {
	return j.MarshalIndent(r, "", "  ")
}
