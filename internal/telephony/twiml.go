package telephony

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"

	"github.com/fscarini/mvp-agent/internal/config"
)

// TwiML verbs used in the call answer document. Each element carries its own
// XMLName so the verbs marshal in declaration order.

type sayVerb struct {
	XMLName xml.Name `xml:"Say"`
	Text    string   `xml:",chardata"`
}

type pauseVerb struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr"`
}

type streamNoun struct {
	XMLName xml.Name `xml:"Stream"`
	URL     string   `xml:"url,attr"`
}

type connectVerb struct {
	XMLName xml.Name `xml:"Connect"`
	Stream  streamNoun
}

type voiceResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []interface{}
}

// AnswerDocument builds the TwiML returned to an inbound call: a short
// greeting, then a Connect/Stream pointing the carrier at the media-stream
// websocket on the given host.
func AnswerDocument(host string) (string, error) {
	doc := voiceResponse{
		Verbs: []interface{}{
			sayVerb{Text: "Please wait while we connect your call."},
			pauseVerb{Length: 1},
			sayVerb{Text: "You can start talking now!"},
			connectVerb{Stream: streamNoun{URL: fmt.Sprintf("wss://%s/media-stream", host)}},
		},
	}

	out, err := xml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal answer document: %w", err)
	}
	return xml.Header + string(out), nil
}

// IndexHandler reports process liveness with a small JSON body
func IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Application is running!"})
	}
}

// IncomingCallHandler answers an inbound telephony webhook with the TwiML
// document that instructs the carrier to open a media stream to this service.
func IncomingCallHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		host := cfg.PublicHost
		if host == "" {
			host = r.Host
		}

		doc, err := AnswerDocument(host)
		if err != nil {
			http.Error(w, "failed to build answer document", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/xml")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, doc)
	}
}
