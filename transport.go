package rpcconform

import "context"

// Transport carries a single RPC call to a live implementation. The engine
// consumes this interface; the jsonrpc subpackage provides an HTTP-backed
// implementation. A Transport used by concurrent live runs must be safe for
// concurrent use, or the run must set RunOpt.SerializeTransport.
type Transport interface {
	Call(ctx context.Context, method string, params []any) (any, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, method string, params []any) (any, error)

func (f TransportFunc) Call(ctx context.Context, method string, params []any) (any, error) {
	return f(ctx, method, params)
}
