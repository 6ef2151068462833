// Package jsonrpc provides an HTTP JSON-RPC 2.0 implementation of the
// rpcconform Transport interface, used to replay document examples against a
// live endpoint.
package jsonrpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	j "github.com/goccy/go-json"
	"github.com/google/uuid"

	rpcconform "github.com/openrpckit/rpcconform"
	"github.com/openrpckit/rpcconform/internal/jsonval"
)

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Client posts JSON-RPC 2.0 requests to a single HTTP endpoint. It is safe
// for concurrent use.
type Client struct {
	url     string
	hc      *http.Client
	headers http.Header
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client (e.g. to set transport
// level timeouts or TLS configuration).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithHeader adds a header to every request (e.g. authorization).
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Add(key, value) }
}

// NewClient returns a Transport that calls the given endpoint.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{url: url, hc: http.DefaultClient, headers: http.Header{}}
	for _, o := range opts {
		o(c)
	}
	return c
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type response struct {
	JSONRPC string       `json:"jsonrpc"`
	ID      any          `json:"id"`
	Result  j.RawMessage `json:"result,omitempty"`
	Error   *respError   `json:"error,omitempty"`
}

type respError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Call performs a single positional-params request. RPC-level failures and
// transport failures both surface as *rpcconform.TransportError so the live
// runner records them as findings.
func (c *Client) Call(ctx context.Context, method string, params []any) (any, error) {
	if params == nil {
		params = []any{}
	}
	id := uuid.NewString()
	body, err := j.Marshal(request{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return nil, &rpcconform.TransportError{Code: "invalid_request", Message: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &rpcconform.TransportError{Code: "invalid_request", Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		code := "unavailable"
		if errors.Is(err, context.DeadlineExceeded) {
			code = "timeout"
		}
		return nil, &rpcconform.TransportError{Code: code, Message: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &rpcconform.TransportError{
			Code:    "unavailable",
			Message: fmt.Sprintf("unexpected HTTP status %d", resp.StatusCode),
		}
	}

	var out response
	dec := j.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, &rpcconform.TransportError{Code: "invalid_response", Message: "malformed response body: " + err.Error()}
	}
	if out.Error != nil {
		return nil, &rpcconform.TransportError{
			Code:    errorCodeName(out.Error.Code),
			Message: out.Error.Message,
			Data:    out.Error.Data,
		}
	}
	if got, ok := out.ID.(string); ok && got != id {
		return nil, &rpcconform.TransportError{Code: "invalid_response", Message: "response id does not match request"}
	}
	if out.Result == nil {
		return nil, &rpcconform.TransportError{Code: "invalid_response", Message: "response carries neither result nor error"}
	}
	result, err := jsonval.Decode(out.Result)
	if err != nil {
		return nil, &rpcconform.TransportError{Code: "invalid_response", Message: "malformed result: " + err.Error()}
	}
	return result, nil
}

func errorCodeName(code int) string {
	switch code {
	case CodeParseError:
		return "parse_error"
	case CodeInvalidRequest:
		return "invalid_request"
	case CodeMethodNotFound:
		return "method_not_found"
	case CodeInvalidParams:
		return "invalid_params"
	case CodeInternalError:
		return "internal_error"
	default:
		return "server_error"
	}
}
