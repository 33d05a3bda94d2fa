package a2a

// PushNotificationConfig declares where an agent should deliver
// out-of-band task updates. The runtime accepts the shape on the wire
// for protocol compatibility but never delivers pushes: a caller that
// supplies one on message/send or message/stream is rejected with
// PushNotificationNotSupported.
type PushNotificationConfig struct {
	URL            string         `json:"url"`
	Token          string         `json:"token,omitempty"`
	Authentication map[string]any `json:"authentication,omitempty"`
}

// MessageSendConfiguration tunes how message/send and message/stream
// execute: whether to block for a terminal state, which output modes the
// caller accepts, how much history to return, and (rejected) push
// delivery.
type MessageSendConfiguration struct {
	Blocking               *bool                   `json:"blocking,omitempty"`
	AcceptedOutputModes    []string                `json:"acceptedOutputModes,omitempty"`
	HistoryLength          *int                    `json:"historyLength,omitempty"`
	PushNotificationConfig *PushNotificationConfig `json:"pushNotificationConfig,omitempty"`
}

// MessageSendParams is the params object for message/send and
// message/stream.
type MessageSendParams struct {
	Message       Message                   `json:"message"`
	Configuration *MessageSendConfiguration `json:"configuration,omitempty"`
}

// TaskGetParams is the params object for tasks/get.
type TaskGetParams struct {
	ID            string `json:"id"`
	HistoryLength *int   `json:"historyLength,omitempty"`
}

// TaskListParams is the params object for tasks/list.
type TaskListParams struct {
	ContextID *string     `json:"contextId,omitempty"`
	Status    []TaskState `json:"status,omitempty"`
	PageSize  *int        `json:"pageSize,omitempty"`
	PageToken *string     `json:"pageToken,omitempty"`
}

// TaskListResult is the result object for tasks/list.
type TaskListResult struct {
	Tasks         []*Task `json:"tasks"`
	NextPageToken *string `json:"nextPageToken,omitempty"`
}

// TaskCancelParams is the params object for tasks/cancel.
type TaskCancelParams struct {
	ID string `json:"id"`
}

// TaskSubscribeParams is the params object for tasks/subscribe.
type TaskSubscribeParams struct {
	ID string `json:"id"`
}

func (p MessageSendParams) Validate() error {
	return p.Message.Validate()
}

func (p TaskGetParams) Validate() error {
	if p.ID == "" {
		return errMissingField("id")
	}
	return nil
}

func (p TaskCancelParams) Validate() error {
	if p.ID == "" {
		return errMissingField("id")
	}
	return nil
}

func (p TaskSubscribeParams) Validate() error {
	if p.ID == "" {
		return errMissingField("id")
	}
	return nil
}
