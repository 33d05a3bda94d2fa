package a2a

/*
TaskState enumerates the mutually exclusive states a task may occupy over
its lifetime. Terminal states (Completed, Failed, Canceled) are absorbing:
once reached, no further transition is permitted.
*/
type TaskState string

const (
	TaskStateSubmitted     TaskState = "submitted"
	TaskStateWorking       TaskState = "working"
	TaskStateInputRequired TaskState = "input-required"
	TaskStateAuthRequired  TaskState = "auth-required"
	TaskStateCompleted     TaskState = "completed"
	TaskStateFailed        TaskState = "failed"
	TaskStateCanceled      TaskState = "canceled"
)

// Terminal reports whether the state is absorbing: no further transition
// out of it is ever legal.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateFailed, TaskStateCanceled:
		return true
	default:
		return false
	}
}

// transitions enumerates the legal edges of the task state machine
// described in the protocol contract. The zero state (no prior status)
// may only move to Submitted; that edge is not in this table and is
// checked directly by CanTransition.
var transitions = map[TaskState]map[TaskState]bool{
	TaskStateSubmitted: {
		TaskStateWorking:  true,
		TaskStateCanceled: true,
		TaskStateFailed:   true,
	},
	TaskStateWorking: {
		TaskStateCompleted:     true,
		TaskStateFailed:        true,
		TaskStateCanceled:      true,
		TaskStateInputRequired: true,
		TaskStateAuthRequired:  true,
	},
	TaskStateInputRequired: {
		TaskStateWorking:  true,
		TaskStateCanceled: true,
		TaskStateFailed:   true,
	},
	TaskStateAuthRequired: {
		TaskStateWorking:  true,
		TaskStateCanceled: true,
		TaskStateFailed:   true,
	},
}

// CanTransition reports whether moving from "from" to "to" is a legal edge
// of the task state machine. A zero-value "from" represents a brand-new
// task, which may only ever be submitted.
func CanTransition(from TaskState, to TaskState) bool {
	if from == "" {
		return to == TaskStateSubmitted
	}

	if from.Terminal() {
		return false
	}

	return transitions[from][to]
}
