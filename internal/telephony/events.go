package telephony

// Media Streams event tags consumed from the Twilio websocket. Tags not
// listed here are ignored by the relay.
const (
	EventConnected = "connected"
	EventStart     = "start"
	EventMedia     = "media"
	EventStop      = "stop"
)

// Message represents a message from Twilio Media Streams
type Message struct {
	Event     string        `json:"event"`
	StreamSID string        `json:"streamSid,omitempty"`
	Media     *MediaPayload `json:"media,omitempty"`
	Start     *StartPayload `json:"start,omitempty"`
	Stop      *StopPayload  `json:"stop,omitempty"`
}

// MediaPayload carries one base64 encoded audio frame
type MediaPayload struct {
	Track     string `json:"track,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   string `json:"payload"`
}

// StartPayload is sent once when the media stream opens and assigns the
// stream identifier used to address outbound media.
type StartPayload struct {
	AccountSID string   `json:"accountSid"`
	CallSID    string   `json:"callSid"`
	StreamSID  string   `json:"streamSid"`
	Tracks     []string `json:"tracks,omitempty"`
}

// StopPayload is sent when the caller side terminates the stream
type StopPayload struct {
	AccountSID string `json:"accountSid"`
	CallSID    string `json:"callSid"`
}

// MediaMessage is an outbound media event addressed to a running stream
type MediaMessage struct {
	Event     string     `json:"event"`
	StreamSID string     `json:"streamSid"`
	Media     MediaChunk `json:"media"`
}

// MediaChunk wraps the base64 encoded payload of an outbound media event
type MediaChunk struct {
	Payload string `json:"payload"`
}

// NewMediaMessage builds an outbound media event for the given stream
func NewMediaMessage(streamSID, payload string) *MediaMessage {
	return &MediaMessage{
		Event:     EventMedia,
		StreamSID: streamSID,
		Media:     MediaChunk{Payload: payload},
	}
}
