package a2a

import (
	"strings"

	"github.com/google/uuid"
)

// MessageRole is the sender role of a Message.
type MessageRole string

const (
	MessageRoleUser  MessageRole = "user"
	MessageRoleAgent MessageRole = "agent"
)

/*
Message represents all non-artifact communication between client and
agent: a user turn, or an agent-originated reply or status narration.
*/
type Message struct {
	Role      MessageRole    `json:"role"`
	Parts     []Part         `json:"parts"`
	MessageID string         `json:"messageId"`
	TaskID    string         `json:"taskId,omitempty"`
	ContextID string         `json:"contextId,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Kind      string         `json:"kind"`
}

func newMessage(role MessageRole, parts ...Part) *Message {
	return &Message{
		Role:      role,
		Parts:     parts,
		MessageID: uuid.New().String(),
		Kind:      "message",
	}
}

func NewTextMessage(role MessageRole, text string) *Message {
	return newMessage(role, NewTextPart(text))
}

func NewFileMessage(role MessageRole, file *FilePart) *Message {
	return newMessage(role, Part{Kind: PartKindFile, File: file})
}

func NewDataMessage(role MessageRole, data any) *Message {
	return newMessage(role, NewDataPart(data))
}

// WithContext sets TaskID and ContextID and returns the message for
// chaining into a constructor call.
func (msg *Message) WithContext(taskID, contextID string) *Message {
	msg.TaskID = taskID
	msg.ContextID = contextID
	return msg
}

func (msg *Message) Validate() error {
	if msg.MessageID == "" {
		return errMissingField("messageId")
	}
	if len(msg.Parts) == 0 {
		return errMissingField("parts")
	}
	for i := range msg.Parts {
		if err := msg.Parts[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// String concatenates the text of every text part, useful for logging and
// for the CLI's plain-text rendering of an agent reply.
func (msg *Message) String() string {
	var sb strings.Builder

	for _, part := range msg.Parts {
		if part.Kind == PartKindText {
			sb.WriteString(part.Text)
		}
	}

	return sb.String()
}
