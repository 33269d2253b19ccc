package telephony

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fscarini/mvp-agent/internal/config"
)

func TestAnswerDocument(t *testing.T) {
	doc, err := AnswerDocument("example.ngrok-free.dev")
	if err != nil {
		t.Fatalf("AnswerDocument failed: %v", err)
	}

	for _, want := range []string{
		"<Response>",
		"<Say>Please wait while we connect your call.</Say>",
		`<Pause length="1">`,
		"<Say>You can start talking now!</Say>",
		`<Stream url="wss://example.ngrok-free.dev/media-stream">`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("Expected document to contain %q, got:\n%s", want, doc)
		}
	}

	// Connect must come after the greeting so the caller hears it
	if strings.Index(doc, "<Connect>") < strings.Index(doc, "talking now") {
		t.Error("Expected Connect verb after the greeting")
	}
}

func TestIncomingCallHandler(t *testing.T) {
	cfg := &config.Config{}
	req := httptest.NewRequest(http.MethodPost, "http://call.example.com/incoming-call", nil)
	rec := httptest.NewRecorder()

	IncomingCallHandler(cfg)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/xml" {
		t.Errorf("Expected Content-Type text/xml, got %s", ct)
	}
	if !strings.Contains(rec.Body.String(), "wss://call.example.com/media-stream") {
		t.Errorf("Expected stream URL built from request host, got:\n%s", rec.Body.String())
	}
}

func TestIncomingCallHandler_PublicHostOverride(t *testing.T) {
	cfg := &config.Config{PublicHost: "public.example.com"}
	req := httptest.NewRequest(http.MethodPost, "http://internal:5050/incoming-call", nil)
	rec := httptest.NewRecorder()

	IncomingCallHandler(cfg)(rec, req)

	if !strings.Contains(rec.Body.String(), "wss://public.example.com/media-stream") {
		t.Errorf("Expected configured public host in stream URL, got:\n%s", rec.Body.String())
	}
}

func TestIndexHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	IndexHandler()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Application is running!") {
		t.Errorf("Expected liveness message, got %s", rec.Body.String())
	}
}
