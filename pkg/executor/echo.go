package executor

import (
	"context"
	"fmt"

	"github.com/flowmesh/a2a-go/pkg/a2a"
)

/*
Echo is the reference AgentExecutor used by the CLI's serve command and
by the test suite: it replies to the incoming message with
"Echo: <text>", where <text> is the message's text parts concatenated,
and completes immediately. It demonstrates
the Execute/Cancel contract without pulling in any real model provider.
*/
type Echo struct{}

func (Echo) Execute(ctx context.Context, task *a2a.Task, updater *Updater) error {
	if rpcErr := updater.StartWork(); rpcErr != nil {
		return rpcErr
	}

	text := ""
	if msg := task.LastMessage(); msg != nil {
		text = msg.String()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if rpcErr := updater.Complete(fmt.Sprintf("Echo: %s", text)); rpcErr != nil {
		return rpcErr
	}
	return nil
}

// Cancel satisfies AgentExecutor; Echo never runs long enough to need
// cooperative cancellation, so it simply drives the task to Canceled.
func (Echo) Cancel(ctx context.Context, task *a2a.Task, updater *Updater) error {
	if rpcErr := updater.Cancel(""); rpcErr != nil {
		return rpcErr
	}
	return nil
}
