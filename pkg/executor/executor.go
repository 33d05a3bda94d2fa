// Package executor defines the capability contract that user agent code
// implements, and the updater façade it uses to publish lifecycle events.
package executor

import (
	"context"

	"github.com/flowmesh/a2a-go/pkg/a2a"
)

/*
AgentExecutor is the user-implemented contract behind every agent. Execute
receives the task about to run and an Updater bound to its event queue;
it drives the task toward a terminal or paused state by calling Updater
methods before returning. Cancel is invoked cooperatively when a caller
requests tasks/cancel on an in-flight task; it is expected to drive the
task to Canceled.

Implementations are shared across concurrent tasks and MUST treat
themselves as immutable or internally synchronized: Execute and Cancel
run concurrently across distinct tasks.
*/
type AgentExecutor interface {
	Execute(ctx context.Context, task *a2a.Task, updater *Updater) error
	Cancel(ctx context.Context, task *a2a.Task, updater *Updater) error
}
