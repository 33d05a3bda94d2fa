package transport

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"
	fiberadaptor "github.com/gofiber/fiber/v3/middleware/adaptor"

	"github.com/flowmesh/a2a-go/pkg/a2a"
	rpcerrors "github.com/flowmesh/a2a-go/pkg/errors"
	"github.com/flowmesh/a2a-go/pkg/jsonrpc"
	"github.com/flowmesh/a2a-go/pkg/queue"
	"github.com/flowmesh/a2a-go/pkg/stream"
)

/*
handleStream answers message/stream and tasks/subscribe by opening the
task's event queue and writing every event to the client as it arrives.
Each request gets its own subscription rather than sharing a broker, and
the connection closes once the stream reaches a final event, the
subscriber lags, or the client disconnects.
*/
func (s *Server) handleStream(c fiber.Ctx, req jsonrpc.Request) error {
	task, events, rpcErr := s.openEventStream(c, req)
	if rpcErr != nil {
		return c.JSON(jsonrpc.NewErrorResponse(req.ID, rpcErr))
	}

	handler := func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		flusher.Flush()

		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return

			case evt, ok := <-events:
				if !ok {
					return
				}
				if evt.Lagged {
					_ = stream.WriteComment(w, "lagged, reconnect via tasks/subscribe or poll tasks/get")
					flusher.Flush()
					return
				}
				if err := stream.WriteEvent(w, *evt.Response); err != nil {
					log.Error("failed writing stream event", "task_id", task.ID, "error", err)
					return
				}
				flusher.Flush()
				if evt.Response.IsFinal() {
					return
				}

			case <-ticker.C:
				_ = stream.WriteComment(w, "keep-alive")
				flusher.Flush()
			}
		}
	}

	return fiberadaptor.HTTPHandler(http.HandlerFunc(handler))(c)
}

// openEventStream decodes req's params and opens the corresponding
// subscription, dispatching to MessageStream or TasksSubscribe depending
// on the method.
func (s *Server) openEventStream(c fiber.Ctx, req jsonrpc.Request) (*a2a.Task, <-chan queue.Event, *rpcerrors.RpcError) {
	switch req.Method {
	case "message/stream":
		params, rpcErr := unmarshalParams[a2a.MessageSendParams](req)
		if rpcErr != nil {
			return nil, nil, rpcErr
		}
		return s.handler.MessageStream(c.RequestCtx(), params)

	case "tasks/subscribe":
		params, rpcErr := unmarshalParams[a2a.TaskSubscribeParams](req)
		if rpcErr != nil {
			return nil, nil, rpcErr
		}
		return s.handler.TasksSubscribe(params)

	default:
		return nil, nil, rpcerrors.ErrMethodNotFound.WithMessagef("%s", req.Method)
	}
}
