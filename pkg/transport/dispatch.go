package transport

import (
	"context"

	"github.com/flowmesh/a2a-go/pkg/a2a"
	rpcerrors "github.com/flowmesh/a2a-go/pkg/errors"
	"github.com/flowmesh/a2a-go/pkg/jsonrpc"
)

// dispatch routes one non-streaming request to the matching RequestHandler
// method and wraps its result in a JSON-RPC response envelope. Streaming
// methods are never passed here; handleRPC routes them to handleStream.
func (s *Server) dispatch(ctx context.Context, req jsonrpc.Request) jsonrpc.Response {
	switch req.Method {
	case "message/send":
		params, rpcErr := unmarshalParams[a2a.MessageSendParams](req)
		if rpcErr != nil {
			return jsonrpc.NewErrorResponse(req.ID, rpcErr)
		}
		task, rpcErr := s.handler.MessageSend(ctx, params)
		if rpcErr != nil {
			return jsonrpc.NewErrorResponse(req.ID, rpcErr)
		}
		return jsonrpc.NewResultResponse(req.ID, task)

	case "tasks/get":
		params, rpcErr := unmarshalParams[a2a.TaskGetParams](req)
		if rpcErr != nil {
			return jsonrpc.NewErrorResponse(req.ID, rpcErr)
		}
		task, rpcErr := s.handler.TasksGet(params)
		if rpcErr != nil {
			return jsonrpc.NewErrorResponse(req.ID, rpcErr)
		}
		return jsonrpc.NewResultResponse(req.ID, task)

	case "tasks/list":
		params, rpcErr := unmarshalParams[a2a.TaskListParams](req)
		if rpcErr != nil {
			return jsonrpc.NewErrorResponse(req.ID, rpcErr)
		}
		result, rpcErr := s.handler.TasksList(params)
		if rpcErr != nil {
			return jsonrpc.NewErrorResponse(req.ID, rpcErr)
		}
		return jsonrpc.NewResultResponse(req.ID, result)

	case "tasks/cancel":
		params, rpcErr := unmarshalParams[a2a.TaskCancelParams](req)
		if rpcErr != nil {
			return jsonrpc.NewErrorResponse(req.ID, rpcErr)
		}
		task, rpcErr := s.handler.TasksCancel(ctx, params)
		if rpcErr != nil {
			return jsonrpc.NewErrorResponse(req.ID, rpcErr)
		}
		return jsonrpc.NewResultResponse(req.ID, task)

	default:
		return jsonrpc.NewErrorResponse(req.ID, rpcerrors.ErrMethodNotFound.WithMessagef("%s", req.Method))
	}
}
