package executor

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/flowmesh/a2a-go/pkg/a2a"
	rpcerrors "github.com/flowmesh/a2a-go/pkg/errors"
	"github.com/flowmesh/a2a-go/pkg/queue"
	"github.com/flowmesh/a2a-go/pkg/stores"
)

/*
Updater is a thin façade bound to one task's store record and event queue.
Every emitter checks the task state machine, persists the new status to
the store, and broadcasts the corresponding StreamResponse before
returning, so a subscriber that observes an event can always retrieve
the same state via tasks/get. Updater is safe for concurrent use by a
single executor job; it is not meant to be shared across tasks.
*/
type Updater struct {
	mu    sync.Mutex
	store stores.TaskStore
	queue *queue.EventQueue
	task  *a2a.Task
}

// NewUpdater binds an Updater to task's store record and event queue.
func NewUpdater(store stores.TaskStore, q *queue.EventQueue, task *a2a.Task) *Updater {
	return &Updater{store: store, queue: q, task: task}
}

// TaskID returns the bound task's id.
func (u *Updater) TaskID() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.task.ID
}

// ContextID returns the bound task's context id.
func (u *Updater) ContextID() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.task.ContextID
}

// CurrentState reports the task's state as last observed by this updater.
func (u *Updater) CurrentState() a2a.TaskState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.task.Status.State
}

// Submit emits the initial Submitted status-update. A task built by
// a2a.NewTask already carries the Submitted status, so for such a task
// the status is announced without a state transition.
func (u *Updater) Submit() *rpcerrors.RpcError {
	if u.CurrentState() != a2a.TaskStateSubmitted {
		return u.UpdateStatus(a2a.TaskStateSubmitted, nil)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	u.queue.Publish(a2a.NewStatusUpdateResponse(a2a.StatusUpdate{
		TaskID:    u.task.ID,
		ContextID: u.task.ContextID,
		Status:    u.task.Status,
	}))
	return nil
}

// StartWork transitions the task to Working.
func (u *Updater) StartWork() *rpcerrors.RpcError {
	return u.UpdateStatus(a2a.TaskStateWorking, nil)
}

/*
UpdateStatus is the generic transition primitive every other emitter
builds on: it validates the edge against the task state machine,
persists the new status to the store, and broadcasts a status-update
envelope with Final set iff the new state is terminal. The event queue
is closed once a terminal status has been persisted and broadcast.
*/
func (u *Updater) UpdateStatus(state a2a.TaskState, message *a2a.Message) *rpcerrors.RpcError {
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := u.task.Transition(state, message); err != nil {
		if rpcErr, ok := err.(*rpcerrors.RpcError); ok {
			return rpcErr
		}
		return rpcerrors.ErrInternal.WithMessagef("%v", err)
	}

	if err := u.store.Update(u.task); err != nil {
		log.Error("failed to persist task status", "task_id", u.task.ID, "error", err)
		return rpcerrors.ErrInternal.WithMessagef("persist status: %v", err)
	}

	u.queue.Publish(a2a.NewStatusUpdateResponse(a2a.StatusUpdate{
		TaskID:    u.task.ID,
		ContextID: u.task.ContextID,
		Status:    u.task.Status,
		Final:     state.Terminal(),
	}))

	if state.Terminal() {
		u.queue.Close()
	}

	return nil
}

// ArtifactOptions tunes AddArtifact's chunking behavior.
type ArtifactOptions struct {
	Name       string
	ArtifactID string // reused across calls to extend the same artifact
	Append     bool
	LastChunk  bool
}

/*
AddArtifact appends parts as a new artifact, or, when opts.Append is
true and opts.ArtifactID names an artifact already on the task, extends
that artifact with the given parts. The resulting artifact-update event
carries Append and LastChunk as given, so a streaming subscriber can
assemble a chunked artifact the same way the persisted task does.
*/
func (u *Updater) AddArtifact(parts []a2a.Part, opts ArtifactOptions) *rpcerrors.RpcError {
	u.mu.Lock()
	defer u.mu.Unlock()

	artifact := a2a.NewArtifact(opts.Name, parts...)
	if opts.ArtifactID != "" {
		artifact.ArtifactID = opts.ArtifactID
	}

	u.task.AddArtifact(artifact, opts.Append)

	if err := u.store.Update(u.task); err != nil {
		log.Error("failed to persist artifact", "task_id", u.task.ID, "error", err)
		return rpcerrors.ErrInternal.WithMessagef("persist artifact: %v", err)
	}

	u.queue.Publish(a2a.NewArtifactUpdateResponse(a2a.ArtifactUpdate{
		TaskID:    u.task.ID,
		ContextID: u.task.ContextID,
		Artifact:  artifact,
		Append:    opts.Append,
		LastChunk: opts.LastChunk,
	}))

	return nil
}

// Complete optionally adds a final text artifact, then transitions the
// task to Completed.
func (u *Updater) Complete(text string) *rpcerrors.RpcError {
	if text != "" {
		if err := u.AddArtifact([]a2a.Part{a2a.NewTextPart(text)}, ArtifactOptions{Name: "result", LastChunk: true}); err != nil {
			return err
		}
	}
	return u.UpdateStatus(a2a.TaskStateCompleted, nil)
}

// Fail transitions the task to Failed, attaching text as the status
// message when given.
func (u *Updater) Fail(text string) *rpcerrors.RpcError {
	return u.UpdateStatus(a2a.TaskStateFailed, statusMessage(text))
}

// Cancel transitions the task to Canceled, attaching text as the status
// message when given.
func (u *Updater) Cancel(text string) *rpcerrors.RpcError {
	return u.UpdateStatus(a2a.TaskStateCanceled, statusMessage(text))
}

// RequireInput pauses the task in InputRequired, carrying the agent's
// request for more information as the status message.
func (u *Updater) RequireInput(message *a2a.Message) *rpcerrors.RpcError {
	return u.UpdateStatus(a2a.TaskStateInputRequired, message)
}

// RequireAuth pauses the task in AuthRequired, carrying the agent's
// request for credentials as the status message.
func (u *Updater) RequireAuth(message *a2a.Message) *rpcerrors.RpcError {
	return u.UpdateStatus(a2a.TaskStateAuthRequired, message)
}

func statusMessage(text string) *a2a.Message {
	if text == "" {
		return nil
	}
	return a2a.NewTextMessage(a2a.MessageRoleAgent, text)
}
