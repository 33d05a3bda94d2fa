package a2a

import (
	rpcerrors "github.com/flowmesh/a2a-go/pkg/errors"
)

// errMissingField builds an InvalidParams error naming the absent field,
// the shape the Validate() methods in this package return on failure;
// Task.Validate is the exception and returns valgo's own error.
func errMissingField(field string) *rpcerrors.RpcError {
	return rpcerrors.ErrInvalidParams.WithMessagef("missing required field %q", field)
}

func errInvalidField(field string, reason string) *rpcerrors.RpcError {
	return rpcerrors.ErrInvalidParams.WithMessagef("field %q %s", field, reason)
}
