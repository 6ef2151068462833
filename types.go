package rpcconform

import "time"

// ParamStructure dictates how a method's example params pair with its
// declared params.
type ParamStructure string

const (
	ParamStructureEither     ParamStructure = "either"
	ParamStructureByName     ParamStructure = "by-name"
	ParamStructureByPosition ParamStructure = "by-position"
)

// RunOpt bundles options for conformance runs.
type RunOpt struct {
	// Concurrency bounds the worker pool that checks distinct methods.
	// Values <= 0 select DefaultConcurrency.
	Concurrency int
	// ExactMatch additionally deep-compares live results against the expected
	// example result instead of schema conformance alone.
	ExactMatch bool
	// RecurseStringifiedJSON makes exact-match comparison parse string results
	// whose content is itself serialized JSON and compare structurally. Static
	// example checking always validates against the literal declared schema.
	RecurseStringifiedJSON bool
	// CallTimeout caps each individual transport call. Zero means no cap
	// beyond the run context.
	CallTimeout time.Duration
	// SerializeTransport forces live calls to run one at a time for
	// transports that are not safe for concurrent use.
	SerializeTransport bool
}

// DefaultConcurrency is used when RunOpt.Concurrency is unset.
const DefaultConcurrency = 4

func normalizeOpt(opts []RunOpt) RunOpt {
	var opt RunOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	if opt.Concurrency <= 0 {
		opt.Concurrency = DefaultConcurrency
	}
	return opt
}
