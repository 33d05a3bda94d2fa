// Package service implements the server-side request handler: the JSON-RPC
// method dispatch, task creation and continuation rules, and the bridge
// between executor jobs and both the task store and the SSE-facing event
// queues.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/flowmesh/a2a-go/pkg/a2a"
	rpcerrors "github.com/flowmesh/a2a-go/pkg/errors"
	"github.com/flowmesh/a2a-go/pkg/executor"
	"github.com/flowmesh/a2a-go/pkg/queue"
	"github.com/flowmesh/a2a-go/pkg/stores"
)

// DefaultCancelTimeout bounds how long tasks/cancel waits for the
// executor's Cancel hook before forcing the terminal transition itself.
const DefaultCancelTimeout = 30 * time.Second

// job tracks one in-flight executor run for a task, so a second
// message/send on the same task can join it instead of starting a
// concurrent run. updater is shared with tasks/cancel so the forced
// terminal transition and the executor's own status writes never race
// on the same Task via two independently-locked Updater instances.
type job struct {
	cancel  context.CancelFunc
	done    chan struct{}
	updater *executor.Updater
}

/*
RequestHandler implements the six A2A JSON-RPC methods against a pluggable
TaskStore and a per-task event queue manager. It holds no global lock:
each request is served independently, synchronized only where a shared
task or queue demands it.
*/
type RequestHandler struct {
	mu            sync.Mutex
	store         stores.TaskStore
	queues        *queue.Manager
	executor      executor.AgentExecutor
	jobs          map[string]*job
	cancelTimeout time.Duration
}

// NewRequestHandler wires a handler around store and ex, using the
// default cancel timeout.
func NewRequestHandler(store stores.TaskStore, ex executor.AgentExecutor) *RequestHandler {
	return &RequestHandler{
		store:         store,
		queues:        queue.NewManager(),
		executor:      ex,
		jobs:          make(map[string]*job),
		cancelTimeout: DefaultCancelTimeout,
	}
}

func asRpcErr(err error) *rpcerrors.RpcError {
	if err == nil {
		return nil
	}
	if rpcErr, ok := err.(*rpcerrors.RpcError); ok {
		return rpcErr
	}
	return rpcerrors.ErrInternal.WithMessagef("%v", err)
}

// rejectPushConfig refuses a request that asks for push delivery. The
// runtime has no pluggable push-notification sender, so a caller naming
// one is told up front rather than silently ignored.
func rejectPushConfig(params a2a.MessageSendParams) *rpcerrors.RpcError {
	if params.Configuration != nil && params.Configuration.PushNotificationConfig != nil {
		return rpcerrors.ErrPushNotificationNotSupported
	}
	return nil
}

// activeJob returns the in-flight job for taskID, if any.
func (h *RequestHandler) activeJob(taskID string) *job {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.jobs[taskID]
}

/*
resolveTask implements §4.5's continuation rule: a message bound to an
existing context id continues the latest task in that context when it is
paused in InputRequired or AuthRequired, otherwise a fresh task is
created bound to the (possibly fresh) context id.
*/
func (h *RequestHandler) resolveTask(msg *a2a.Message) (*a2a.Task, *rpcerrors.RpcError) {
	if msg.ContextID != "" {
		tasks, _, err := h.store.List(stores.TaskFilter{ContextID: &msg.ContextID, PageSize: 1})
		if err != nil {
			return nil, asRpcErr(err)
		}
		if len(tasks) > 0 {
			state := tasks[0].Status.State
			if state == a2a.TaskStateInputRequired || state == a2a.TaskStateAuthRequired {
				return tasks[0], nil
			}
		}
	}

	task := a2a.NewTask(msg.ContextID)
	if err := h.store.Create(task); err != nil {
		return nil, asRpcErr(err)
	}
	return task, nil
}

// appendMessage stamps msg with task/context ids, appends it to task's
// history, and persists the task.
func (h *RequestHandler) appendMessage(task *a2a.Task, msg a2a.Message) *rpcerrors.RpcError {
	msg.TaskID = task.ID
	msg.ContextID = task.ContextID
	task.History = append(task.History, msg)
	if err := h.store.Update(task); err != nil {
		return asRpcErr(err)
	}
	return nil
}

// finalizeExecution converts an executor error into a Failed transition
// when the task hasn't already reached a terminal state on its own.
func (h *RequestHandler) finalizeExecution(taskID string, updater *executor.Updater, execErr error) {
	if execErr == nil {
		return
	}
	// A context cancellation is tasks/cancel abandoning the job, not an
	// executor failure; the cancel hook (or the forced transition) owns
	// the terminal state in that case.
	if errors.Is(execErr, context.Canceled) {
		return
	}
	if updater.CurrentState().Terminal() {
		return
	}
	if rpcErr := updater.Fail(execErr.Error()); rpcErr != nil {
		log.Error("failed to record executor failure", "task_id", taskID, "error", rpcErr)
	}
}

// runExecutorSync runs the executor inline, blocking the caller until
// Execute returns, which is the message/send path.
func (h *RequestHandler) runExecutorSync(ctx context.Context, task *a2a.Task, q *queue.EventQueue) {
	updater := executor.NewUpdater(h.store, q, task)
	j := &job{cancel: func() {}, done: make(chan struct{}), updater: updater}
	h.mu.Lock()
	h.jobs[task.ID] = j
	h.mu.Unlock()

	err := h.executor.Execute(ctx, task, updater)
	h.finalizeExecution(task.ID, updater, err)

	h.mu.Lock()
	delete(h.jobs, task.ID)
	h.mu.Unlock()
	close(j.done)

	if updater.CurrentState().Terminal() {
		h.queues.Close(task.ID)
	}
}

// runExecutorAsync spawns the executor in its own goroutine and context
// for the message/stream path.
func (h *RequestHandler) runExecutorAsync(task *a2a.Task, q *queue.EventQueue) {
	jobCtx, cancel := context.WithCancel(context.Background())
	updater := executor.NewUpdater(h.store, q, task)
	j := &job{cancel: cancel, done: make(chan struct{}), updater: updater}
	h.mu.Lock()
	h.jobs[task.ID] = j
	h.mu.Unlock()

	go func() {
		defer close(j.done)
		defer func() {
			h.mu.Lock()
			delete(h.jobs, task.ID)
			h.mu.Unlock()
		}()

		err := h.executor.Execute(jobCtx, task, updater)
		h.finalizeExecution(task.ID, updater, err)

		if updater.CurrentState().Terminal() {
			h.queues.Close(task.ID)
		}
	}()
}

/*
MessageSend implements message/send: create or continue a task, run the
executor synchronously, and return the resulting task snapshot. If the
executor paused the task in InputRequired or AuthRequired, the snapshot
reflects that rather than a terminal state; the handler does not wait
any further.
*/
func (h *RequestHandler) MessageSend(ctx context.Context, params a2a.MessageSendParams) (*a2a.Task, *rpcerrors.RpcError) {
	if err := params.Validate(); err != nil {
		return nil, asRpcErr(err)
	}
	if rpcErr := rejectPushConfig(params); rpcErr != nil {
		return nil, rpcErr
	}

	task, rpcErr := h.resolveTask(&params.Message)
	if rpcErr != nil {
		return nil, rpcErr
	}

	if rpcErr := h.appendMessage(task, params.Message); rpcErr != nil {
		return nil, rpcErr
	}

	q := h.queues.GetOrCreate(task.ID)

	if existing := h.activeJob(task.ID); existing != nil {
		select {
		case <-existing.done:
		case <-ctx.Done():
			return nil, rpcerrors.ErrInternal.WithMessagef("canceled waiting for in-flight task %s", task.ID)
		}
	} else {
		h.runExecutorSync(ctx, task, q)
	}

	latest, err := h.store.Get(task.ID)
	if err != nil {
		return nil, asRpcErr(err)
	}
	return latest, nil
}

/*
MessageStream implements message/stream: create or continue a task,
subscribe to its event queue before spawning the executor so no event
can be missed, and return both the initial task and the subscription for
the caller to bridge into an SSE response.
*/
func (h *RequestHandler) MessageStream(ctx context.Context, params a2a.MessageSendParams) (*a2a.Task, <-chan queue.Event, *rpcerrors.RpcError) {
	if err := params.Validate(); err != nil {
		return nil, nil, asRpcErr(err)
	}
	if rpcErr := rejectPushConfig(params); rpcErr != nil {
		return nil, nil, rpcErr
	}

	task, rpcErr := h.resolveTask(&params.Message)
	if rpcErr != nil {
		return nil, nil, rpcErr
	}

	if rpcErr := h.appendMessage(task, params.Message); rpcErr != nil {
		return nil, nil, rpcErr
	}

	q := h.queues.GetOrCreate(task.ID)
	sub := q.Subscribe()

	// Snapshot before spawning: the executor mutates task concurrently,
	// and the caller only needs the state at subscription time.
	initial := *task

	if existing := h.activeJob(task.ID); existing == nil {
		h.runExecutorAsync(task, q)
	}

	return &initial, sub, nil
}

// TasksGet implements tasks/get, optionally truncating history to the
// last HistoryLength entries.
func (h *RequestHandler) TasksGet(params a2a.TaskGetParams) (*a2a.Task, *rpcerrors.RpcError) {
	if err := params.Validate(); err != nil {
		return nil, asRpcErr(err)
	}

	task, err := h.store.Get(params.ID)
	if err != nil {
		return nil, asRpcErr(err)
	}

	return task.Truncated(params.HistoryLength), nil
}

// TasksList implements tasks/list.
func (h *RequestHandler) TasksList(params a2a.TaskListParams) (*a2a.TaskListResult, *rpcerrors.RpcError) {
	filter := stores.TaskFilter{ContextID: params.ContextID}

	if len(params.Status) > 0 {
		filter.States = make(map[a2a.TaskState]bool, len(params.Status))
		for _, s := range params.Status {
			filter.States[s] = true
		}
	}
	if params.PageSize != nil {
		filter.PageSize = *params.PageSize
	}
	if params.PageToken != nil {
		filter.PageToken = *params.PageToken
	}

	tasks, nextToken, err := h.store.List(filter)
	if err != nil {
		return nil, asRpcErr(err)
	}

	result := &a2a.TaskListResult{Tasks: tasks}
	if nextToken != "" {
		result.NextPageToken = &nextToken
	}
	return result, nil
}

/*
TasksCancel implements tasks/cancel. A terminal task is rejected with
TaskNotCancelable. Otherwise the executor's Cancel hook is invoked and
awaited up to cancelTimeout, after which the handler forces the terminal
transition itself and closes the queue.
*/
func (h *RequestHandler) TasksCancel(ctx context.Context, params a2a.TaskCancelParams) (*a2a.Task, *rpcerrors.RpcError) {
	if err := params.Validate(); err != nil {
		return nil, asRpcErr(err)
	}

	task, err := h.store.Get(params.ID)
	if err != nil {
		return nil, asRpcErr(err)
	}

	if task.Status.State.Terminal() {
		return nil, rpcerrors.ErrTaskNotCancelable.WithMessagef("task %s is already %s", task.ID, task.Status.State)
	}

	q := h.queues.GetOrCreate(task.ID)
	updater := executor.NewUpdater(h.store, q, task)

	// An in-flight job already holds an updater for this task; reuse it
	// so the cancel transition and the executor's own status writes
	// serialize on one lock instead of racing through two.
	if j := h.activeJob(task.ID); j != nil {
		updater = j.updater
		j.cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := h.executor.Cancel(ctx, task, updater); err != nil {
			log.Error("executor cancel hook failed", "task_id", task.ID, "error", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(h.cancelTimeout):
		log.Warn("cancel hook exceeded deadline, forcing terminal transition", "task_id", task.ID, "timeout", h.cancelTimeout)
	}

	if !updater.CurrentState().Terminal() {
		if rpcErr := updater.Cancel(""); rpcErr != nil {
			log.Error("failed to force cancel transition", "task_id", task.ID, "error", rpcErr)
		}
	}

	latest, err := h.store.Get(task.ID)
	if err != nil {
		return nil, asRpcErr(err)
	}
	return latest, nil
}

/*
TasksSubscribe implements tasks/subscribe: attach a new subscriber to the
task's event queue. If the task is already terminal the queue has been
closed, so the handler replays a single synthetic status-update carrying
the final state instead of an empty, already-closed stream.
*/
func (h *RequestHandler) TasksSubscribe(params a2a.TaskSubscribeParams) (*a2a.Task, <-chan queue.Event, *rpcerrors.RpcError) {
	if err := params.Validate(); err != nil {
		return nil, nil, asRpcErr(err)
	}

	task, err := h.store.Get(params.ID)
	if err != nil {
		return nil, nil, asRpcErr(err)
	}

	if task.Status.State.Terminal() {
		return task, replayFinal(task), nil
	}

	q := h.queues.GetOrCreate(task.ID)
	sub := q.Subscribe()

	// The task may have reached a terminal state between the store read
	// and the subscription, leaving sub closed without a final event.
	// Replay the final status so the subscriber never ends without one.
	latest, err := h.store.Get(params.ID)
	if err == nil && latest.Status.State.Terminal() {
		q.Unsubscribe(sub)
		return latest, replayFinal(latest), nil
	}

	return task, sub, nil
}

// replayFinal packages a terminal task's status as a single-event,
// already-closed stream.
func replayFinal(task *a2a.Task) <-chan queue.Event {
	resp := a2a.NewStatusUpdateResponse(a2a.StatusUpdate{
		TaskID:    task.ID,
		ContextID: task.ContextID,
		Status:    task.Status,
		Final:     true,
	})
	ch := make(chan queue.Event, 1)
	ch <- queue.Event{Response: &resp}
	close(ch)
	return ch
}
