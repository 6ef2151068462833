// Package rpcconform verifies OpenRPC interface documents:
//
// - ParseDocument/ParseDocumentYAML load a document into an immutable model and
//   reject structural defects up front (MalformedDocumentError)
// - CheckExamples validates every embedded example against its declared
//   parameter and result schemas
// - RunLive replays examples against a live implementation through a Transport
//   and compares the actual results with the contract
// - A stable error model via Issues (JSON Pointer, code, message) feeding a
//   Report ordered by document declaration order
//
// Design policy:
// - Keep only public APIs in the root package; put detailed implementations under internal/.
// - Place the JSON Schema subset under jsonschema/, the JSON-RPC transport
//   under jsonrpc/, and the CLI under cmd/rpcconform.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	doc, err := rpcconform.ParseDocument(data)
//	rep, err := rpcconform.CheckExamples(ctx, doc)
//
//	clt := jsonrpc.NewClient("http://localhost:8080/")
//	rep, err := rpcconform.RunLive(ctx, doc, clt, rpcconform.RunOpt{ExactMatch: true})
package rpcconform
