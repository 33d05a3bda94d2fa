package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/flowmesh/a2a-go/pkg/a2a"
	"github.com/flowmesh/a2a-go/pkg/jsonrpc"
)

func newCardServer(t *testing.T, rpcResult func(method string, params json.RawMessage) any) *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc(WellKnownAgentCardPath, func(w http.ResponseWriter, r *http.Request) {
		card := a2a.AgentCard{
			Name:    "test-agent",
			Version: "0.1.0",
			SupportedInterfaces: []a2a.AgentInterface{{
				URL:             "http://placeholder",
				ProtocolBinding: a2a.ProtocolBindingJSONRPC,
				ProtocolVersion: a2a.DefaultProtocolVersion,
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(card)
	})

	srv := httptest.NewServer(mux)

	mux.HandleFunc("/a2a", func(w http.ResponseWriter, r *http.Request) {
		var req jsonrpc.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		resp := jsonrpc.NewResultResponse(req.ID, rpcResult(req.Method, req.Params))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	return srv
}

func TestClientSendMessage(t *testing.T) {
	Convey("Given a client pointed at a server that echoes a completed task", t, func() {
		srv := newCardServer(t, func(method string, params json.RawMessage) any {
			task := a2a.NewTask("ctx-123")
			if err := task.Transition(a2a.TaskStateWorking, nil); err != nil {
				t.Fatalf("transition task: %v", err)
			}
			if err := task.Transition(a2a.TaskStateCompleted, nil); err != nil {
				t.Fatalf("transition task: %v", err)
			}
			return task
		})
		defer srv.Close()

		client, err := FromURL(context.Background(), srv.URL)
		So(err, ShouldBeNil)

		// card resolution is stubbed with a placeholder URL; point the
		// transport directly at the test server's RPC endpoint instead.
		client.transport = NewTransport(srv.URL)

		Convey("When SendMessage is called", func() {
			task, err := client.SendMessage(context.Background(), "hello")
			So(err, ShouldBeNil)

			Convey("Then the task comes back completed and contextID is remembered", func() {
				So(task.Status.State, ShouldEqual, a2a.TaskStateCompleted)
				So(client.ContextID, ShouldEqual, "ctx-123")
			})
		})
	})
}

func TestClientSendMessageOptions(t *testing.T) {
	Convey("Given a Client", t, func() {
		c := &Client{ContextID: "ctx-1"}

		Convey("When buildParams is called with no options", func() {
			params := c.buildParams("hi", nil)

			Convey("Then the remembered context id is threaded through", func() {
				So(params.Message.ContextID, ShouldEqual, "ctx-1")
				So(params.Configuration, ShouldBeNil)
			})
		})

		Convey("When blocking and history options are supplied", func() {
			params := c.buildParams("hi", []SendOption{
				WithContextID("ctx-override"),
				WithBlocking(true),
				WithHistoryLength(5),
			})

			Convey("Then they override defaults and populate Configuration", func() {
				So(params.Message.ContextID, ShouldEqual, "ctx-override")
				So(params.Configuration, ShouldNotBeNil)
				So(*params.Configuration.Blocking, ShouldBeTrue)
				So(*params.Configuration.HistoryLength, ShouldEqual, 5)
			})
		})
	})
}
