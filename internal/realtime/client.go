package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/fscarini/mvp-agent/internal/config"
)

// ErrMalformedEvent marks an event that arrived but could not be decoded.
// The relay skips such events; a disconnect surfaces as the raw read error.
var ErrMalformedEvent = errors.New("malformed server event")

// Client is one websocket connection to the Realtime API, owned by a single
// relay session for the lifetime of a call. Reads happen from one goroutine;
// writes come from both relay loops and are serialized through a mutex
// because gorilla/websocket allows at most one concurrent writer.
type Client struct {
	conn *websocket.Conn

	writeMu sync.Mutex
}

// Dial opens a websocket connection to the configured Realtime endpoint.
// The api-key header form works for both Azure OpenAI and api.openai.com.
func Dial(ctx context.Context, cfg *config.Config) (*Client, error) {
	header := http.Header{}
	header.Set("api-key", cfg.OpenAIAPIKey)
	header.Set("Authorization", "Bearer "+cfg.OpenAIAPIKey)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, cfg.OpenAIRealtimeURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial realtime endpoint: %w (status %s)", err, resp.Status)
		}
		return nil, fmt.Errorf("dial realtime endpoint: %w", err)
	}

	return &Client{conn: conn}, nil
}

// NewClient wraps an already-open websocket connection
func NewClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn}
}

// ReadEvent blocks until the next server event arrives and decodes its
// dispatch fields. A decode failure is returned alongside a nil event; a
// closed connection surfaces as the underlying read error.
func (c *Client) ReadEvent() (*ServerEvent, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	var ev ServerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return &ev, nil
}

func (c *Client) send(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// UpdateSession sends the one-time session configuration message
func (c *Client) UpdateSession(update *SessionUpdateEvent) error {
	return c.send(update)
}

// AppendAudio forwards one caller audio frame to the model's input buffer.
// The payload is passed through exactly as received from the telephony side.
func (c *Client) AppendAudio(payload string) error {
	return c.send(&AudioAppendEvent{Type: "input_audio_buffer.append", Audio: payload})
}

// CancelResponse aborts the in-flight response so the agent stops talking
func (c *Client) CancelResponse() error {
	return c.send(&ResponseCancelEvent{Type: "response.cancel"})
}

// SendFunctionOutput returns a tool result to the model, correlated by call_id
func (c *Client) SendFunctionOutput(callID, output string) error {
	return c.send(&ItemCreateEvent{
		Type: "conversation.item.create",
		Item: FunctionCallItem{
			Type:   "function_call_output",
			CallID: callID,
			Output: output,
		},
	})
}

// CreateResponse asks the model to resume generation, used right after a
// tool result so the answer incorporates the retrieved context.
func (c *Client) CreateResponse() error {
	return c.send(&ResponseCreateEvent{Type: "response.create"})
}

// Close closes the underlying websocket connection
func (c *Client) Close() error {
	return c.conn.Close()
}
