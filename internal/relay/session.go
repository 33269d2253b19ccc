package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/fscarini/mvp-agent/internal/audio"
	"github.com/fscarini/mvp-agent/internal/config"
	"github.com/fscarini/mvp-agent/internal/observability"
	"github.com/fscarini/mvp-agent/internal/realtime"
	"github.com/fscarini/mvp-agent/internal/telephony"
)

// TwilioConn is the telephony leg of a session. *websocket.Conn satisfies it.
type TwilioConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	Close() error
}

// ModelConn is the realtime model leg of a session. *realtime.Client
// satisfies it; tests substitute fakes.
type ModelConn interface {
	ReadEvent() (*realtime.ServerEvent, error)
	UpdateSession(update *realtime.SessionUpdateEvent) error
	AppendAudio(payload string) error
	CancelResponse() error
	SendFunctionOutput(callID, output string) error
	CreateResponse() error
	Close() error
}

// ContextSearcher services the get_additional_context tool. It always
// returns usable text; backend failures are mapped to fallback strings by
// the retrieval gateway.
type ContextSearcher interface {
	Search(ctx context.Context, query string) string
}

// Session relays audio between one telephony connection and one model
// connection for the lifetime of a call. It owns both connections: it sends
// the session handshake, runs the two pump loops concurrently, and closes
// both legs when either loop exits.
type Session struct {
	cfg    *config.Config
	twilio TwilioConn
	model  ModelConn
	search ContextSearcher

	state *TurnState

	logger  zerolog.Logger
	metrics *observability.Metrics

	closeTwilioOnce sync.Once
	closeModelOnce  sync.Once
}

// NewSession creates a relay session over an accepted telephony connection
// and an open model connection.
func NewSession(cfg *config.Config, twilio TwilioConn, model ModelConn, search ContextSearcher) *Session {
	correlationID := observability.NewCorrelationID()
	return &Session{
		cfg:     cfg,
		twilio:  twilio,
		model:   model,
		search:  search,
		state:   NewTurnState(),
		logger:  observability.SessionLogger(correlationID),
		metrics: observability.NewSessionMetrics(correlationID),
	}
}

// Run sends the session handshake, then pumps both directions until either
// side closes. Both connections are closed before Run returns. Errors inside
// the session never propagate; each session fails independently.
func (s *Session) Run(ctx context.Context) {
	s.metrics.RecordSessionStart()
	defer s.metrics.RecordSessionEnd()
	defer s.closeTwilioConn()
	defer s.closeModelConn()

	// Exactly one configuration message before any audio is forwarded.
	// No acknowledgment is awaited; session.updated arrives later as an
	// ordinary event on the model leg.
	if err := s.model.UpdateSession(realtime.NewSessionUpdate(s.cfg)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to send session configuration")
		s.metrics.RecordError("handshake_failed", "relay")
		return
	}

	s.logger.Info().Msg("Relay session started")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.pumpTelephony()
	}()
	go func() {
		defer wg.Done()
		s.pumpModel(ctx)
	}()
	wg.Wait()

	s.logger.Info().Msg("Relay session ended")
}

// pumpTelephony reads events from the telephony side and forwards caller
// audio to the model. It exits on stop, peer disconnect or a malformed
// event, closing the model leg so the other loop unblocks.
func (s *Session) pumpTelephony() {
	defer s.closeModelConn()

	for {
		_, data, err := s.twilio.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn().Err(err).Msg("Telephony connection read error")
			} else {
				s.logger.Info().Msg("Telephony connection closed by peer")
			}
			return
		}

		var msg telephony.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Error().Err(err).Msg("Malformed telephony event, ending session")
			s.metrics.RecordError("malformed_event", "telephony")
			return
		}

		switch msg.Event {
		case telephony.EventStart:
			if msg.Start == nil || msg.Start.StreamSID == "" {
				s.logger.Warn().Msg("Start event missing stream SID")
				continue
			}
			s.state.SetStreamSID(msg.Start.StreamSID)
			s.logger.Info().
				Str("stream_sid", msg.Start.StreamSID).
				Str("call_sid", msg.Start.CallSID).
				Msg("Media stream started")

		case telephony.EventMedia:
			if msg.Media == nil {
				continue
			}
			if err := s.model.AppendAudio(msg.Media.Payload); err != nil {
				s.logger.Warn().Err(err).Msg("Failed to append caller audio, ending session")
				return
			}
			s.metrics.RecordAudioBytes("in", int64(len(msg.Media.Payload)))

		case telephony.EventStop:
			s.logger.Info().Msg("Media stream stopped")
			return

		default:
			// connected, mark, dtmf and future event tags are not relayed
		}
	}
}

// pumpModel reads events from the model side: forwards audio deltas to the
// caller, tracks turn state, cancels the response on barge-in and services
// tool calls. A failure handling one event is logged and the loop moves on;
// only a model disconnect ends the loop.
func (s *Session) pumpModel(ctx context.Context) {
	defer s.closeTwilioConn()

	for {
		ev, err := s.model.ReadEvent()
		if err != nil {
			if errors.Is(err, realtime.ErrMalformedEvent) {
				s.logger.Error().Err(err).Msg("Malformed model event, skipping")
				s.metrics.RecordError("malformed_event", "realtime")
				continue
			}
			s.logger.Info().Err(err).Msg("Model connection closed")
			return
		}

		if err := s.handleModelEvent(ctx, ev); err != nil {
			s.logger.Error().Err(err).Str("event", ev.Type).Msg("Error handling model event")
			s.metrics.RecordError("event_handler_error", "realtime")
		}
	}
}

func (s *Session) handleModelEvent(ctx context.Context, ev *realtime.ServerEvent) error {
	switch ev.Type {
	case realtime.EventSpeechStarted:
		// Barge-in: the caller started talking while the agent was
		// mid-response. Clear-and-check is atomic, so exactly one cancel
		// is sent per interruption.
		if s.state.InterruptIfSpeaking() {
			s.logger.Info().Msg("Caller barge-in detected, canceling response")
			s.metrics.RecordBargeIn()
			return s.model.CancelResponse()
		}

	case realtime.EventSpeechStopped, realtime.EventInputCommitted,
		realtime.EventSessionCreated, realtime.EventSessionUpdated:
		s.logger.Debug().Str("event", ev.Type).Msg("Model session event")

	case realtime.EventResponseDone, realtime.EventResponseCompleted, realtime.EventResponseCanceled:
		s.state.EndSpeaking()

	case realtime.EventAudioDelta:
		return s.forwardAudioDelta(ev)

	case realtime.EventFunctionCallArgsDone:
		if ev.Name != realtime.ToolGetAdditionalContext {
			s.logger.Warn().Str("tool", ev.Name).Msg("Ignoring call to undeclared tool")
			return nil
		}
		return s.serviceToolCall(ctx, ev)

	case realtime.EventError:
		if ev.Error != nil {
			s.logger.Warn().
				Str("code", ev.Error.Code).
				Str("message", ev.Error.Message).
				Msg("Model reported an error")
		}
	}
	return nil
}

// forwardAudioDelta relays one agent audio frame to the caller. The payload
// round-trips through a decode/re-encode step that is the identity for any
// valid frame; an invalid frame is dropped rather than forwarded.
func (s *Session) forwardAudioDelta(ev *realtime.ServerEvent) error {
	s.state.BeginSpeaking()

	sid := s.state.StreamSID()
	if sid == "" {
		s.logger.Warn().Msg("Dropping audio delta: media stream not started yet")
		s.metrics.RecordDroppedFrame("no_stream_sid")
		return nil
	}

	payload, n, err := audio.ReencodePayload(ev.Delta)
	if err != nil {
		s.metrics.RecordDroppedFrame("bad_payload")
		return err
	}

	if err := s.twilio.WriteJSON(telephony.NewMediaMessage(sid, payload)); err != nil {
		return err
	}
	s.metrics.RecordAudioBytes("out", int64(n))
	return nil
}

// serviceToolCall answers a get_additional_context call: querying the
// retrieval gateway synchronously, returning the result correlated by
// call_id, then asking the model to resume generation with that context.
// The gateway never fails outward, so the model always receives tool output.
func (s *Session) serviceToolCall(ctx context.Context, ev *realtime.ServerEvent) error {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(ev.Arguments), &args); err != nil {
		s.logger.Warn().Err(err).Msg("Unparsable tool arguments, querying with empty string")
	}

	s.logger.Info().Str("query", args.Query).Str("call_id", ev.CallID).Msg("Servicing context tool call")

	s.metrics.RecordSearchStart()
	result := s.search.Search(ctx, args.Query)
	s.metrics.RecordSearchEnd(true)

	if err := s.model.SendFunctionOutput(ev.CallID, result); err != nil {
		s.metrics.RecordToolCall(false)
		return err
	}
	if err := s.model.CreateResponse(); err != nil {
		s.metrics.RecordToolCall(false)
		return err
	}
	s.metrics.RecordToolCall(true)
	return nil
}

func (s *Session) closeTwilioConn() {
	s.closeTwilioOnce.Do(func() {
		if err := s.twilio.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Closing telephony connection")
		}
	})
}

func (s *Session) closeModelConn() {
	s.closeModelOnce.Do(func() {
		if err := s.model.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Closing model connection")
		}
	})
}
