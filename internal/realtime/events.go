package realtime

// Server event types consumed by the relay. Anything else on the wire is
// ignored, which keeps the relay forward-compatible with new event types.
const (
	EventSessionCreated       = "session.created"
	EventSessionUpdated       = "session.updated"
	EventSpeechStarted        = "input_audio_buffer.speech_started"
	EventSpeechStopped        = "input_audio_buffer.speech_stopped"
	EventInputCommitted       = "input_audio_buffer.committed"
	EventAudioDelta           = "response.audio.delta"
	EventFunctionCallArgsDone = "response.function_call_arguments.done"
	EventResponseDone         = "response.done"
	EventResponseCompleted    = "response.completed"
	EventResponseCanceled     = "response.canceled"
	EventError                = "error"
)

// ServerEvent is a tagged message received from the Realtime API. Only the
// fields the relay dispatches on are decoded; unknown fields are dropped.
type ServerEvent struct {
	Type string `json:"type"`

	// Audio delta payload (response.audio.delta), base64 encoded
	Delta string `json:"delta,omitempty"`

	// Function call fields (response.function_call_arguments.done)
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"` // JSON-encoded argument object
	CallID    string `json:"call_id,omitempty"`

	// Error detail (error)
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail carries the error body of an "error" server event
type ErrorDetail struct {
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// SessionUpdateEvent configures the session: audio formats, voice, turn
// detection, instructions and the declared tool schema. Sent exactly once,
// before any audio is appended.
type SessionUpdateEvent struct {
	Type    string        `json:"type"`
	Session SessionConfig `json:"session"`
}

// SessionConfig is the session payload of a session.update event
type SessionConfig struct {
	TurnDetection     TurnDetection `json:"turn_detection"`
	InputAudioFormat  string        `json:"input_audio_format"`
	OutputAudioFormat string        `json:"output_audio_format"`
	Voice             string        `json:"voice"`
	Instructions      string        `json:"instructions"`
	Tools             []Tool        `json:"tools"`
}

// TurnDetection holds the server-side VAD parameters
type TurnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms"`
	SilenceDurationMs int     `json:"silence_duration_ms"`
	CreateResponse    bool    `json:"create_response"`
	InterruptResponse bool    `json:"interrupt_response"`
}

// Tool declares a function the model may call mid-conversation
type Tool struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  ToolParameters `json:"parameters"`
}

// ToolParameters is a JSON-schema object describing the tool arguments
type ToolParameters struct {
	Type       string                   `json:"type"`
	Properties map[string]ToolParameter `json:"properties"`
}

// ToolParameter describes a single tool argument
type ToolParameter struct {
	Type string `json:"type"`
}

// AudioAppendEvent appends caller audio to the model's input buffer
type AudioAppendEvent struct {
	Type  string `json:"type"`
	Audio string `json:"audio"` // base64 encoded
}

// ResponseCancelEvent aborts the in-flight response (barge-in)
type ResponseCancelEvent struct {
	Type string `json:"type"`
}

// ResponseCreateEvent asks the model to generate a response
type ResponseCreateEvent struct {
	Type string `json:"type"`
}

// ItemCreateEvent adds an item to the conversation; the relay only ever
// creates function_call_output items.
type ItemCreateEvent struct {
	Type string           `json:"type"`
	Item FunctionCallItem `json:"item"`
}

// FunctionCallItem carries a tool result back to the model, correlated by
// the call_id the model assigned.
type FunctionCallItem struct {
	Type   string `json:"type"`
	CallID string `json:"call_id"`
	Output string `json:"output"`
}
