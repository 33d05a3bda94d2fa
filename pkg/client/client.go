package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	fiberClient "github.com/gofiber/fiber/v3/client"

	"github.com/flowmesh/a2a-go/pkg/a2a"
)

// WellKnownAgentCardPath is the fixed path an A2A-compliant server
// publishes its AgentCard at.
const WellKnownAgentCardPath = "/.well-known/agent.json"

/*
Client is the high-level façade a caller uses to talk to a remote agent:
it resolves the agent card once, picks a compatible JSON-RPC interface,
and exposes message/send and message/stream as single-text-part
convenience methods with optional multi-turn context threading.
*/
type Client struct {
	Card      a2a.AgentCard
	transport *Transport

	// ContextID, when non-empty, is threaded into every convenience call
	// that doesn't specify its own, so a caller can hold one Client for
	// an entire multi-turn conversation without repeating the id.
	ContextID string
}

// FromURL resolves base+"/.well-known/agent.json" into an AgentCard,
// selects its first JSON-RPC interface compatible with compatibleVersions
// (defaulting to this library's compiled-in version), and returns a
// Client bound to that interface's URL.
func FromURL(ctx context.Context, base string, compatibleVersions ...string) (*Client, error) {
	conn := fiberClient.New().SetBaseURL(base)

	resp, err := conn.Get(WellKnownAgentCardPath)
	if err != nil {
		return nil, &TransportError{Op: "agent card", Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &TransportError{Op: "agent card", StatusCode: resp.StatusCode()}
	}

	var card a2a.AgentCard
	if err := json.Unmarshal(resp.Body(), &card); err != nil {
		return nil, &TransportError{Op: "agent card", Err: fmt.Errorf("decode card: %w", err)}
	}

	return NewFromCard(card, compatibleVersions...)
}

// NewFromCard builds a Client directly from an already-resolved card,
// skipping the discovery fetch, useful when the card was obtained from
// a registry rather than the well-known document.
func NewFromCard(card a2a.AgentCard, compatibleVersions ...string) (*Client, error) {
	iface, err := card.ResolveInterface(compatibleVersions...)
	if err != nil {
		return nil, err
	}

	log.Debug("resolved a2a interface", "agent", card.Name, "url", iface.URL, "version", iface.ProtocolVersion)

	return &Client{
		Card:      card,
		transport: NewTransport(iface.URL),
	}, nil
}

// sendOptions collects the knobs SendMessage/StreamMessage accept.
type sendOptions struct {
	contextID     string
	blocking      *bool
	outputModes   []string
	historyLength *int
}

// SendOption tunes one call to SendMessage or StreamMessage.
type SendOption func(*sendOptions)

// WithContextID threads an explicit context id, overriding the Client's
// own ContextID for this call only.
func WithContextID(id string) SendOption {
	return func(o *sendOptions) { o.contextID = id }
}

// WithBlocking sets the message/send Configuration.Blocking flag.
func WithBlocking(blocking bool) SendOption {
	return func(o *sendOptions) { o.blocking = &blocking }
}

// WithAcceptedOutputModes sets Configuration.AcceptedOutputModes.
func WithAcceptedOutputModes(modes ...string) SendOption {
	return func(o *sendOptions) { o.outputModes = modes }
}

// WithHistoryLength sets Configuration.HistoryLength.
func WithHistoryLength(n int) SendOption {
	return func(o *sendOptions) { o.historyLength = &n }
}

func (c *Client) buildParams(text string, opts []SendOption) a2a.MessageSendParams {
	so := sendOptions{contextID: c.ContextID}
	for _, opt := range opts {
		opt(&so)
	}

	msg := a2a.NewTextMessage(a2a.MessageRoleUser, text)
	msg.ContextID = so.contextID

	params := a2a.MessageSendParams{Message: *msg}
	if so.blocking != nil || len(so.outputModes) > 0 || so.historyLength != nil {
		params.Configuration = &a2a.MessageSendConfiguration{
			Blocking:            so.blocking,
			AcceptedOutputModes: so.outputModes,
			HistoryLength:       so.historyLength,
		}
	}
	return params
}

// SendMessage wraps message/send with a single text part. On success, the
// returned task's ContextID is remembered on c for subsequent calls.
func (c *Client) SendMessage(ctx context.Context, text string, opts ...SendOption) (*a2a.Task, error) {
	params := c.buildParams(text, opts)

	var task a2a.Task
	if err := c.transport.Call(ctx, "message/send", params, &task); err != nil {
		return nil, err
	}

	c.ContextID = task.ContextID
	return &task, nil
}

// StreamMessage wraps message/stream with a single text part, returning a
// Stream the caller drains with Next until io.EOF.
func (c *Client) StreamMessage(ctx context.Context, text string, opts ...SendOption) (*Stream, error) {
	params := c.buildParams(text, opts)
	return c.transport.OpenStream(ctx, "message/stream", params)
}

// GetTask wraps tasks/get.
func (c *Client) GetTask(ctx context.Context, id string, historyLength *int) (*a2a.Task, error) {
	params := a2a.TaskGetParams{ID: id, HistoryLength: historyLength}

	var task a2a.Task
	if err := c.transport.Call(ctx, "tasks/get", params, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTasks wraps tasks/list.
func (c *Client) ListTasks(ctx context.Context, params a2a.TaskListParams) (*a2a.TaskListResult, error) {
	var result a2a.TaskListResult
	if err := c.transport.Call(ctx, "tasks/list", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CancelTask wraps tasks/cancel.
func (c *Client) CancelTask(ctx context.Context, id string) (*a2a.Task, error) {
	var task a2a.Task
	if err := c.transport.Call(ctx, "tasks/cancel", a2a.TaskCancelParams{ID: id}, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Subscribe wraps tasks/subscribe, returning a Stream over the task's
// existing or remaining lifecycle events.
func (c *Client) Subscribe(ctx context.Context, id string) (*Stream, error) {
	return c.transport.OpenStream(ctx, "tasks/subscribe", a2a.TaskSubscribeParams{ID: id})
}
