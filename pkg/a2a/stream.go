package a2a

import (
	"encoding/json"
	"fmt"
)

// StreamResponseKind is the discriminator for the StreamResponse tagged
// union carried on event queues and SSE frames.
type StreamResponseKind string

const (
	StreamResponseKindStatusUpdate   StreamResponseKind = "status-update"
	StreamResponseKindArtifactUpdate StreamResponseKind = "artifact-update"
	StreamResponseKindTask           StreamResponseKind = "task"
	StreamResponseKindMessage        StreamResponseKind = "message"
)

// StatusUpdate announces a task status transition to subscribers of its
// event queue.
type StatusUpdate struct {
	TaskID    string     `json:"taskId"`
	ContextID string     `json:"contextId"`
	Status    TaskStatus `json:"status"`
	Final     bool       `json:"final"`
}

// ArtifactUpdate announces a new or extended artifact chunk.
type ArtifactUpdate struct {
	TaskID    string   `json:"taskId"`
	ContextID string   `json:"contextId"`
	Artifact  Artifact `json:"artifact"`
	Append    bool     `json:"append"`
	LastChunk bool     `json:"lastChunk"`
}

/*
StreamResponse is the tagged union of everything that can be published on
a task's event queue or framed as an SSE message: a status transition, an
artifact chunk, a full task snapshot, or an agent-originated message.
Exactly one of StatusUpdate, ArtifactUpdate, Task or Message is populated,
selected by Kind.
*/
type StreamResponse struct {
	Kind           StreamResponseKind
	StatusUpdate   *StatusUpdate
	ArtifactUpdate *ArtifactUpdate
	Task           *Task
	Message        *Message
}

func NewStatusUpdateResponse(u StatusUpdate) StreamResponse {
	return StreamResponse{Kind: StreamResponseKindStatusUpdate, StatusUpdate: &u}
}

func NewArtifactUpdateResponse(u ArtifactUpdate) StreamResponse {
	return StreamResponse{Kind: StreamResponseKindArtifactUpdate, ArtifactUpdate: &u}
}

func NewTaskResponse(t *Task) StreamResponse {
	return StreamResponse{Kind: StreamResponseKindTask, Task: t}
}

func NewMessageResponse(m *Message) StreamResponse {
	return StreamResponse{Kind: StreamResponseKindMessage, Message: m}
}

// IsFinal reports whether this envelope is the terminal status-update a
// stream consumer should stop reading after.
func (sr StreamResponse) IsFinal() bool {
	return sr.Kind == StreamResponseKindStatusUpdate && sr.StatusUpdate != nil && sr.StatusUpdate.Final
}

// MarshalJSON flattens the populated variant alongside the kind
// discriminator, matching the one-object-per-variant wire shape used by
// the other tagged unions in this package.
func (sr StreamResponse) MarshalJSON() ([]byte, error) {
	switch sr.Kind {
	case StreamResponseKindStatusUpdate:
		if sr.StatusUpdate == nil {
			return nil, fmt.Errorf("a2a: status-update response missing payload")
		}
		return json.Marshal(struct {
			Kind StreamResponseKind `json:"kind"`
			*StatusUpdate
		}{sr.Kind, sr.StatusUpdate})
	case StreamResponseKindArtifactUpdate:
		if sr.ArtifactUpdate == nil {
			return nil, fmt.Errorf("a2a: artifact-update response missing payload")
		}
		return json.Marshal(struct {
			Kind StreamResponseKind `json:"kind"`
			*ArtifactUpdate
		}{sr.Kind, sr.ArtifactUpdate})
	case StreamResponseKindTask:
		if sr.Task == nil {
			return nil, fmt.Errorf("a2a: task response missing payload")
		}
		return json.Marshal(sr.Task)
	case StreamResponseKindMessage:
		if sr.Message == nil {
			return nil, fmt.Errorf("a2a: message response missing payload")
		}
		return json.Marshal(sr.Message)
	default:
		return nil, fmt.Errorf("a2a: stream response has unknown kind %q", sr.Kind)
	}
}

func (sr *StreamResponse) UnmarshalJSON(data []byte) error {
	var probe struct {
		Kind StreamResponseKind `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	switch probe.Kind {
	case StreamResponseKindStatusUpdate:
		var su StatusUpdate
		if err := json.Unmarshal(data, &su); err != nil {
			return err
		}
		sr.StatusUpdate = &su
	case StreamResponseKindArtifactUpdate:
		var au ArtifactUpdate
		if err := json.Unmarshal(data, &au); err != nil {
			return err
		}
		sr.ArtifactUpdate = &au
	case StreamResponseKindTask:
		var t Task
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		sr.Task = &t
	case StreamResponseKindMessage:
		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		sr.Message = &m
	default:
		return fmt.Errorf("a2a: unknown stream response kind %q", probe.Kind)
	}

	sr.Kind = probe.Kind
	return nil
}
