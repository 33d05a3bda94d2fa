package jsonrpc

import (
	"encoding/json"

	"github.com/flowmesh/a2a-go/pkg/errors"
)

/*
Response is a JSON-RPC 2.0 response object. A successful call populates
Result and leaves Error nil; a failed call does the opposite. The two
are mutually exclusive on the wire.
*/
type Response struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      json.RawMessage  `json:"id,omitempty"`
	Result  any              `json:"result,omitempty"`
	Error   *errors.RpcError `json:"error,omitempty"`
}

// NewResultResponse builds a success response for the given request id.
func NewResultResponse(id json.RawMessage, result any) Response {
	return Response{JSONRPC: Version, ID: id, Result: result}
}

// NewErrorResponse builds an error response for the given request id.
func NewErrorResponse(id json.RawMessage, err *errors.RpcError) Response {
	return Response{JSONRPC: Version, ID: id, Error: err}
}
