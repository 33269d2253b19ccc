package realtime

import "github.com/fscarini/mvp-agent/internal/config"

// ToolGetAdditionalContext is the single tool declared to the model. The
// model decides when to call it; the relay services the call against the
// retrieval backend.
const ToolGetAdditionalContext = "get_additional_context"

// AudioFormatG711Ulaw matches the Twilio Media Streams codec, so audio is
// relayed in both directions without transcoding.
const AudioFormatG711Ulaw = "g711_ulaw"

// defaultInstructions is used when no system prompt is configured.
const defaultInstructions = "You are a helpful, professional voice assistant on a phone call. " +
	"Keep answers short and conversational. When the caller asks about products, " +
	"pricing, methodology or company facts, call the get_additional_context tool " +
	"with a focused query and ground your answer in the returned passages. " +
	"Never invent facts that the retrieved context does not support."

// NewSessionUpdate builds the one-time session configuration message. It
// pins both audio formats to G.711 μ-law, enables server-side VAD with
// auto-response and interruption support, and declares the context tool.
func NewSessionUpdate(cfg *config.Config) *SessionUpdateEvent {
	instructions := cfg.Instructions
	if instructions == "" {
		instructions = defaultInstructions
	}

	return &SessionUpdateEvent{
		Type: "session.update",
		Session: SessionConfig{
			TurnDetection: TurnDetection{
				Type:              "server_vad",
				Threshold:         cfg.VADThreshold,
				PrefixPaddingMs:   cfg.VADPrefixPaddingMs,
				SilenceDurationMs: cfg.VADSilenceDurationMs,
				CreateResponse:    true,
				InterruptResponse: true,
			},
			InputAudioFormat:  AudioFormatG711Ulaw,
			OutputAudioFormat: AudioFormatG711Ulaw,
			Voice:             cfg.Voice,
			Instructions:      instructions,
			Tools: []Tool{
				{
					Type:        "function",
					Name:        ToolGetAdditionalContext,
					Description: "Fetch additional context from the knowledge index based on a user query.",
					Parameters: ToolParameters{
						Type: "object",
						Properties: map[string]ToolParameter{
							"query": {Type: "string"},
						},
					},
				},
			},
		},
	}
}
