package realtime

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/fscarini/mvp-agent/internal/config"
)

func handshakeConfig() *config.Config {
	return &config.Config{
		Voice:                "alloy",
		VADThreshold:         0.6,
		VADPrefixPaddingMs:   250,
		VADSilenceDurationMs: 500,
	}
}

func TestNewSessionUpdate(t *testing.T) {
	update := NewSessionUpdate(handshakeConfig())

	if update.Type != "session.update" {
		t.Errorf("Expected type 'session.update', got '%s'", update.Type)
	}

	session := update.Session
	if session.InputAudioFormat != AudioFormatG711Ulaw {
		t.Errorf("Expected input format g711_ulaw, got '%s'", session.InputAudioFormat)
	}
	if session.OutputAudioFormat != AudioFormatG711Ulaw {
		t.Errorf("Expected output format g711_ulaw, got '%s'", session.OutputAudioFormat)
	}
	if session.Voice != "alloy" {
		t.Errorf("Expected voice 'alloy', got '%s'", session.Voice)
	}
	if session.Instructions == "" {
		t.Error("Expected built-in instructions when none configured")
	}

	td := session.TurnDetection
	if td.Type != "server_vad" {
		t.Errorf("Expected turn detection 'server_vad', got '%s'", td.Type)
	}
	if td.Threshold != 0.6 || td.PrefixPaddingMs != 250 || td.SilenceDurationMs != 500 {
		t.Errorf("Unexpected VAD parameters: %+v", td)
	}
	if !td.CreateResponse {
		t.Error("Expected create_response enabled")
	}
	if !td.InterruptResponse {
		t.Error("Expected interrupt_response enabled")
	}

	if len(session.Tools) != 1 {
		t.Fatalf("Expected exactly 1 declared tool, got %d", len(session.Tools))
	}
	tool := session.Tools[0]
	if tool.Type != "function" || tool.Name != ToolGetAdditionalContext {
		t.Errorf("Unexpected tool declaration: %+v", tool)
	}
	if _, ok := tool.Parameters.Properties["query"]; !ok {
		t.Error("Expected tool to declare a 'query' parameter")
	}
}

func TestNewSessionUpdate_CustomInstructions(t *testing.T) {
	cfg := handshakeConfig()
	cfg.Instructions = "You are a test assistant."

	update := NewSessionUpdate(cfg)
	if update.Session.Instructions != "You are a test assistant." {
		t.Errorf("Expected configured instructions, got '%s'", update.Session.Instructions)
	}
}

func TestNewSessionUpdate_WireShape(t *testing.T) {
	data, err := json.Marshal(NewSessionUpdate(handshakeConfig()))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	for _, want := range []string{
		`"type":"session.update"`,
		`"turn_detection"`,
		`"type":"server_vad"`,
		`"threshold":0.6`,
		`"prefix_padding_ms":250`,
		`"silence_duration_ms":500`,
		`"create_response":true`,
		`"interrupt_response":true`,
		`"input_audio_format":"g711_ulaw"`,
		`"output_audio_format":"g711_ulaw"`,
		`"name":"get_additional_context"`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Expected wire message to contain %s, got:\n%s", want, data)
		}
	}
}
