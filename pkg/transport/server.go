// Package transport implements the reference HTTP binding for the JSON-RPC
// request handler: a single POST /a2a dispatch endpoint that answers either
// a JSON-RPC response or an SSE stream depending on the method called, plus
// the GET /.well-known/agent.json discovery document.
package transport

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/flowmesh/a2a-go/pkg/a2a"
	rpcerrors "github.com/flowmesh/a2a-go/pkg/errors"
	"github.com/flowmesh/a2a-go/pkg/jsonrpc"
	"github.com/flowmesh/a2a-go/pkg/service"
)

// heartbeatInterval bounds how long an idle SSE connection goes without a
// comment keep-alive, so intermediate proxies don't time it out.
const heartbeatInterval = 25 * time.Second

// Server mounts a RequestHandler behind fiber's HTTP server. JSON-RPC and
// SSE traffic share one POST /a2a route.
type Server struct {
	app     *fiber.App
	card    a2a.AgentCard
	handler *service.RequestHandler
}

// NewServer builds a Server serving card's discovery document and
// dispatching RPC traffic to handler.
func NewServer(card a2a.AgentCard, handler *service.RequestHandler) *Server {
	app := fiber.New(fiber.Config{
		AppName:           card.Name,
		ServerHeader:      "A2A-Agent-Server",
		StreamRequestBody: true,
	})

	srv := &Server{app: app, card: card, handler: handler}

	app.Use(logger.New(logger.Config{
		Next: func(c fiber.Ctx) bool { return c.Path() == "/a2a" },
	}))
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New())

	app.Get("/.well-known/agent.json", srv.handleCard)
	app.Post("/a2a", srv.handleRPC)

	return srv
}

// Listen starts the HTTP server on addr, blocking until it exits.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// App exposes the underlying fiber app for embedding into a larger
// process or for use by tests that want net/http/httptest semantics via
// fiber's own test helpers.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) handleCard(c fiber.Ctx) error {
	return c.JSON(s.card)
}

func isStreamingMethod(method string) bool {
	return method == "message/stream" || method == "tasks/subscribe"
}

func (s *Server) handleRPC(c fiber.Ctx) error {
	body := bytes.TrimSpace(c.Body())

	if len(body) == 0 {
		return c.JSON(jsonrpc.NewErrorResponse(nil, rpcerrors.ErrInvalidRequest))
	}

	if body[0] == '[' {
		return s.handleBatch(c, body)
	}

	var req jsonrpc.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return c.JSON(jsonrpc.NewErrorResponse(nil, rpcerrors.ErrParseError))
	}
	if req.JSONRPC != jsonrpc.Version {
		return c.JSON(jsonrpc.NewErrorResponse(req.ID, rpcerrors.ErrInvalidRequest))
	}

	if isStreamingMethod(req.Method) {
		return s.handleStream(c, req)
	}

	resp := s.dispatch(c.RequestCtx(), req)
	if req.IsNotification() {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(resp)
}

// handleBatch dispatches each request in a batch array independently.
// Streaming methods cannot be carried inside a batch response, since a
// JSON array has no room for a second transport; they are answered with
// ErrUnsupportedOperation instead of silently dropped.
func (s *Server) handleBatch(c fiber.Ctx, body []byte) error {
	var batch []jsonrpc.Request
	if err := json.Unmarshal(body, &batch); err != nil {
		return c.JSON(jsonrpc.NewErrorResponse(nil, rpcerrors.ErrParseError))
	}

	responses := make([]jsonrpc.Response, 0, len(batch))
	for _, req := range batch {
		var resp jsonrpc.Response
		switch {
		case req.JSONRPC != jsonrpc.Version:
			resp = jsonrpc.NewErrorResponse(req.ID, rpcerrors.ErrInvalidRequest)
		case isStreamingMethod(req.Method):
			resp = jsonrpc.NewErrorResponse(req.ID, rpcerrors.ErrUnsupportedOperation.WithMessagef("%s cannot be used inside a batch request", req.Method))
		default:
			resp = s.dispatch(c.RequestCtx(), req)
		}

		if !req.IsNotification() {
			responses = append(responses, resp)
		}
	}

	if len(responses) == 0 {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(responses)
}

func unmarshalParams[T any](req jsonrpc.Request) (T, *rpcerrors.RpcError) {
	var params T
	if len(req.Params) == 0 {
		return params, nil
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return params, rpcerrors.ErrInvalidParams.WithMessagef("%v", err)
	}
	return params, nil
}
