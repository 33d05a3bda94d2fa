package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh/a2a-go/pkg/a2a"
	"github.com/flowmesh/a2a-go/pkg/executor"
	"github.com/flowmesh/a2a-go/pkg/jsonrpc"
	"github.com/flowmesh/a2a-go/pkg/service"
	"github.com/flowmesh/a2a-go/pkg/stores"
	"github.com/flowmesh/a2a-go/pkg/stream"
)

func newTestServer() *Server {
	card := a2a.AgentCard{Name: "echo-agent", Version: "0.1.0"}
	handler := service.NewRequestHandler(stores.NewInMemoryTaskStore(), executor.Echo{})
	return NewServer(card, handler)
}

func post(t *testing.T, s *Server, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, "/a2a", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.App().Test(req)
	require.NoError(t, err)
	return resp
}

// postStream issues an RPC request expected to answer with an SSE body,
// with a timeout generous enough for a stream that only ends on a final
// event.
func postStream(t *testing.T, s *Server, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, "/a2a", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.App().Test(req, fiber.TestConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)
	return resp
}

func readFrames(t *testing.T, body io.Reader) []*a2a.StreamResponse {
	t.Helper()
	rd := stream.NewReader(body)

	var events []*a2a.StreamResponse
	for {
		ev, err := rd.Next()
		if err == io.EOF {
			return events
		}
		require.NoError(t, err)
		events = append(events, ev)
	}
}

func TestHandleCardServesAgentCard(t *testing.T) {
	s := newTestServer()

	req, err := http.NewRequest(http.MethodGet, "/.well-known/agent.json", nil)
	require.NoError(t, err)

	resp, err := s.App().Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var card a2a.AgentCard
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&card))
	require.Equal(t, "echo-agent", card.Name)
}

func TestHandleRPCMessageSend(t *testing.T) {
	s := newTestServer()

	req, err := jsonrpc.NewRequest(1, "message/send", a2a.MessageSendParams{
		Message: *a2a.NewTextMessage(a2a.MessageRoleUser, "hi"),
	})
	require.NoError(t, err)
	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp := post(t, s, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var rpcResp jsonrpc.Response
	require.NoError(t, json.Unmarshal(raw, &rpcResp))
	require.Nil(t, rpcResp.Error)

	taskRaw, err := json.Marshal(rpcResp.Result)
	require.NoError(t, err)
	var task a2a.Task
	require.NoError(t, json.Unmarshal(taskRaw, &task))
	require.Equal(t, a2a.TaskStateCompleted, task.Status.State)
}

func TestHandleStreamEmitsOrderedFramesUntilFinal(t *testing.T) {
	s := newTestServer()

	req, err := jsonrpc.NewRequest(1, "message/stream", a2a.MessageSendParams{
		Message: *a2a.NewTextMessage(a2a.MessageRoleUser, "hi"),
	})
	require.NoError(t, err)
	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp := postStream(t, s, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := readFrames(t, resp.Body)
	require.Len(t, events, 3)

	require.Equal(t, a2a.StreamResponseKindStatusUpdate, events[0].Kind)
	require.Equal(t, a2a.TaskStateWorking, events[0].StatusUpdate.Status.State)
	require.False(t, events[0].StatusUpdate.Final)

	require.Equal(t, a2a.StreamResponseKindArtifactUpdate, events[1].Kind)
	require.Equal(t, "Echo: hi", events[1].ArtifactUpdate.Artifact.Parts[0].Text)

	require.Equal(t, a2a.StreamResponseKindStatusUpdate, events[2].Kind)
	require.Equal(t, a2a.TaskStateCompleted, events[2].StatusUpdate.Status.State)
	require.True(t, events[2].StatusUpdate.Final)
}

// blockingExecutor parks in Execute until its context is cancelled, so a
// test can cancel a task while its stream is live.
type blockingExecutor struct {
	started chan string
}

func (e *blockingExecutor) Execute(ctx context.Context, task *a2a.Task, updater *executor.Updater) error {
	if err := updater.StartWork(); err != nil {
		return err
	}
	e.started <- updater.TaskID()
	<-ctx.Done()
	return ctx.Err()
}

func (e *blockingExecutor) Cancel(ctx context.Context, task *a2a.Task, updater *executor.Updater) error {
	return updater.Cancel("canceled by request")
}

func TestHandleStreamCancelMidStream(t *testing.T) {
	ex := &blockingExecutor{started: make(chan string, 1)}
	handler := service.NewRequestHandler(stores.NewInMemoryTaskStore(), ex)
	s := NewServer(a2a.AgentCard{Name: "echo-agent", Version: "0.1.0"}, handler)

	streamReq, err := jsonrpc.NewRequest(1, "message/stream", a2a.MessageSendParams{
		Message: *a2a.NewTextMessage(a2a.MessageRoleUser, "long job"),
	})
	require.NoError(t, err)
	streamBody, err := json.Marshal(streamReq)
	require.NoError(t, err)

	type streamResult struct {
		events []*a2a.StreamResponse
		err    error
	}
	results := make(chan streamResult, 1)
	go func() {
		req, err := http.NewRequest(http.MethodPost, "/a2a", bytes.NewReader(streamBody))
		if err != nil {
			results <- streamResult{err: err}
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.App().Test(req, fiber.TestConfig{Timeout: 5 * time.Second})
		if err != nil {
			results <- streamResult{err: err}
			return
		}

		rd := stream.NewReader(resp.Body)
		var events []*a2a.StreamResponse
		for {
			ev, err := rd.Next()
			if err != nil {
				results <- streamResult{events: events}
				return
			}
			events = append(events, ev)
		}
	}()

	var taskID string
	select {
	case taskID = <-ex.started:
	case <-time.After(2 * time.Second):
		t.Fatal("executor never started")
	}

	cancelReq, err := jsonrpc.NewRequest(2, "tasks/cancel", a2a.TaskCancelParams{ID: taskID})
	require.NoError(t, err)
	cancelBody, err := json.Marshal(cancelReq)
	require.NoError(t, err)

	cancelResp := post(t, s, cancelBody)
	require.Equal(t, http.StatusOK, cancelResp.StatusCode)

	var cancelRPC jsonrpc.Response
	require.NoError(t, json.NewDecoder(cancelResp.Body).Decode(&cancelRPC))
	require.Nil(t, cancelRPC.Error)

	var result streamResult
	select {
	case result = <-results:
	case <-time.After(5 * time.Second):
		t.Fatal("stream never terminated")
	}
	require.NoError(t, result.err)
	require.NotEmpty(t, result.events)

	last := result.events[len(result.events)-1]
	require.True(t, last.IsFinal())
	require.Equal(t, a2a.TaskStateCanceled, last.StatusUpdate.Status.State)

	getReq, err := jsonrpc.NewRequest(3, "tasks/get", a2a.TaskGetParams{ID: taskID})
	require.NoError(t, err)
	getBody, err := json.Marshal(getReq)
	require.NoError(t, err)

	getResp := post(t, s, getBody)
	var getRPC jsonrpc.Response
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&getRPC))
	require.Nil(t, getRPC.Error)

	taskRaw, err := json.Marshal(getRPC.Result)
	require.NoError(t, err)
	var task a2a.Task
	require.NoError(t, json.Unmarshal(taskRaw, &task))
	require.Equal(t, a2a.TaskStateCanceled, task.Status.State)
}

func TestHandleRPCUnknownMethod(t *testing.T) {
	s := newTestServer()

	req, err := jsonrpc.NewRequest(1, "does/not-exist", nil)
	require.NoError(t, err)
	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp := post(t, s, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rpcResp jsonrpc.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpcResp))
	require.NotNil(t, rpcResp.Error)
	require.Equal(t, -32601, rpcResp.Error.Code)
}

func TestHandleRPCBatchSkipsNotificationsAndRejectsStreamingMethods(t *testing.T) {
	s := newTestServer()

	sendReq, err := jsonrpc.NewRequest(1, "message/send", a2a.MessageSendParams{
		Message: *a2a.NewTextMessage(a2a.MessageRoleUser, "batched"),
	})
	require.NoError(t, err)

	streamReq, err := jsonrpc.NewRequest(2, "message/stream", a2a.MessageSendParams{
		Message: *a2a.NewTextMessage(a2a.MessageRoleUser, "nope"),
	})
	require.NoError(t, err)

	notification := jsonrpc.Request{JSONRPC: jsonrpc.Version, Method: "message/send", Params: sendReq.Params}

	batch := []jsonrpc.Request{sendReq, streamReq, notification}
	body, err := json.Marshal(batch)
	require.NoError(t, err)

	resp := post(t, s, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var responses []jsonrpc.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&responses))

	// the notification produces no entry; only the two id'd requests do.
	require.Len(t, responses, 2)
	require.Nil(t, responses[0].Error)
	require.NotNil(t, responses[1].Error)
	require.Equal(t, -32004, responses[1].Error.Code)
}

func TestHandleRPCMessageSendRejectsPushNotificationConfig(t *testing.T) {
	s := newTestServer()

	req, err := jsonrpc.NewRequest(1, "message/send", a2a.MessageSendParams{
		Message: *a2a.NewTextMessage(a2a.MessageRoleUser, "hi"),
		Configuration: &a2a.MessageSendConfiguration{
			PushNotificationConfig: &a2a.PushNotificationConfig{URL: "https://example.com/hook"},
		},
	})
	require.NoError(t, err)
	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp := post(t, s, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rpcResp jsonrpc.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpcResp))
	require.NotNil(t, rpcResp.Error)
	require.Equal(t, -32003, rpcResp.Error.Code)
}
