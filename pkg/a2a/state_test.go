package a2a

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from TaskState
		to   TaskState
		want bool
	}{
		{"", TaskStateSubmitted, true},
		{"", TaskStateWorking, false},
		{TaskStateSubmitted, TaskStateWorking, true},
		{TaskStateSubmitted, TaskStateCompleted, false},
		{TaskStateWorking, TaskStateCompleted, true},
		{TaskStateWorking, TaskStateInputRequired, true},
		{TaskStateWorking, TaskStateAuthRequired, true},
		{TaskStateInputRequired, TaskStateWorking, true},
		{TaskStateInputRequired, TaskStateCompleted, false},
		{TaskStateAuthRequired, TaskStateCanceled, true},
		{TaskStateCompleted, TaskStateWorking, false},
		{TaskStateFailed, TaskStateSubmitted, false},
		{TaskStateCanceled, TaskStateCanceled, false},
	}

	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	terminal := []TaskState{TaskStateCompleted, TaskStateFailed, TaskStateCanceled}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%q should be terminal", s)
		}
	}

	nonTerminal := []TaskState{TaskStateSubmitted, TaskStateWorking, TaskStateInputRequired, TaskStateAuthRequired}
	for _, s := range nonTerminal {
		if s.Terminal() {
			t.Errorf("%q should not be terminal", s)
		}
	}
}
