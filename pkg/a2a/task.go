package a2a

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/cohesivestack/valgo"
	"github.com/google/uuid"
)

/*
Task is a unit of agent work: a lifecycle, an append-only history of
messages, and an append-only sequence of artifacts. ContextID links
Task instances that belong to the same multi-turn conversation.
*/
type Task struct {
	ID        string         `json:"id"`
	ContextID string         `json:"contextId"`
	Status    TaskStatus     `json:"status"`
	History   []Message      `json:"history,omitempty"`
	Artifacts []Artifact     `json:"artifacts,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Kind      string         `json:"kind"`
}

// NewTask creates a fresh Submitted task bound to contextID. If contextID
// is empty, a new one is minted, starting a new conversation.
func NewTask(contextID string) *Task {
	if contextID == "" {
		contextID = uuid.New().String()
	}

	return &Task{
		ID:        uuid.New().String(),
		ContextID: contextID,
		Status:    newStatus(TaskStateSubmitted, nil),
		History:   make([]Message, 0),
		Artifacts: make([]Artifact, 0),
		Metadata:  make(map[string]any),
		Kind:      "task",
	}
}

func (task *Task) Validate() error {
	v := valgo.Is(
		valgo.String(task.ID, "id").Not().Blank(),
		valgo.String(task.ContextID, "contextId").Not().Blank(),
		valgo.String(string(task.Status.State), "status.state").Not().Blank(),
	)
	if !v.Valid() {
		return v.Error()
	}
	return nil
}

// Transition moves the task to state, recording message and stamping a
// fresh timestamp. It refuses transitions the state machine forbids.
func (task *Task) Transition(state TaskState, message *Message) error {
	if !CanTransition(task.Status.State, state) {
		return errInvalidField("status.state", fmt.Sprintf("cannot move from %q to %q", task.Status.State, state))
	}

	log.Info("task status update", "task_id", task.ID, "from", task.Status.State, "to", state)

	task.Status = newStatus(state, message)

	if message != nil {
		task.History = append(task.History, *message)
	}

	return nil
}

// AddArtifact appends a new artifact, or, when extend is true and an
// artifact with the same ArtifactID already exists, extends it with the
// given parts.
func (task *Task) AddArtifact(artifact Artifact, extend bool) {
	if extend {
		for i := range task.Artifacts {
			if task.Artifacts[i].ArtifactID == artifact.ArtifactID {
				task.Artifacts[i].Parts = append(task.Artifacts[i].Parts, artifact.Parts...)
				return
			}
		}
	}

	task.Artifacts = append(task.Artifacts, artifact)
}

// LastMessage returns the most recent history entry, or nil if history is
// empty.
func (task *Task) LastMessage() *Message {
	if len(task.History) == 0 {
		return nil
	}

	return &task.History[len(task.History)-1]
}

// Truncated returns a shallow copy of task with History limited to its
// last n entries, for tasks/get's history_length parameter. When n is
// nil, negative, or covers the whole history, task itself is returned.
func (task *Task) Truncated(n *int) *Task {
	if n == nil || *n < 0 || *n >= len(task.History) {
		return task
	}

	cp := *task
	if *n == 0 {
		cp.History = nil
		return &cp
	}

	cp.History = task.History[len(task.History)-*n:]
	return &cp
}

func (task *Task) String() string {
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)

	bullet := "│ "
	indent := "   "

	sb.WriteString(headerStyle.Render("Task Details") + "\n")
	sb.WriteString(bullet + labelStyle.Render("ID: ") + valueStyle.Render(task.ID) + "\n")
	sb.WriteString(bullet + labelStyle.Render("Context ID: ") + valueStyle.Render(task.ContextID) + "\n")

	sb.WriteString("\n" + sectionStyle.Render("Status") + "\n")
	sb.WriteString(bullet + labelStyle.Render("State: ") + valueStyle.Render(string(task.Status.State)) + "\n")
	if task.Status.Message != nil {
		sb.WriteString(bullet + labelStyle.Render("Message: ") + valueStyle.Render(task.Status.Message.String()) + "\n")
	}
	sb.WriteString(bullet + labelStyle.Render("Timestamp: ") + valueStyle.Render(task.Status.Timestamp.Format(time.RFC3339)) + "\n")

	if len(task.History) > 0 {
		sb.WriteString("\n" + sectionStyle.Render("History") + "\n")
		for i, message := range task.History {
			sb.WriteString(bullet + labelStyle.Render(fmt.Sprintf("Message %d", i+1)) + "\n")
			sb.WriteString(bullet + indent + labelStyle.Render("Role: ") + valueStyle.Render(string(message.Role)) + "\n")
			sb.WriteString(bullet + indent + labelStyle.Render("Content: ") + valueStyle.Render(message.String()) + "\n")
		}
	}

	if len(task.Artifacts) > 0 {
		sb.WriteString("\n" + sectionStyle.Render("Artifacts") + "\n")
		for i, artifact := range task.Artifacts {
			sb.WriteString(bullet + labelStyle.Render(fmt.Sprintf("Artifact %d", i+1)) + "\n")
			if artifact.Name != nil {
				sb.WriteString(bullet + indent + labelStyle.Render("Name: ") + valueStyle.Render(*artifact.Name) + "\n")
			}
			for j, part := range artifact.Parts {
				if part.Kind == PartKindText {
					sb.WriteString(bullet + indent + labelStyle.Render(fmt.Sprintf("Part %d: ", j+1)) + valueStyle.Render(part.Text) + "\n")
				}
			}
		}
	}

	if len(task.Metadata) > 0 {
		sb.WriteString("\n" + sectionStyle.Render("Metadata") + "\n")
		keys := make([]string, 0, len(task.Metadata))
		for k := range task.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(bullet + labelStyle.Render(k+": ") + valueStyle.Render(fmt.Sprintf("%v", task.Metadata[k])) + "\n")
		}
	}

	return sb.String()
}
