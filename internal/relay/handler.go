package relay

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/fscarini/mvp-agent/internal/config"
	"github.com/fscarini/mvp-agent/internal/observability"
	"github.com/fscarini/mvp-agent/internal/realtime"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Twilio does not send a browser Origin header; the media stream
		// URL itself is the shared secret here.
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// MediaStreamHandler accepts a Twilio media stream websocket, dials the
// realtime model endpoint and runs one relay session for the lifetime of
// the call. At most one session exists per accepted connection.
func MediaStreamHandler(cfg *config.Config, search ContextSearcher) http.HandlerFunc {
	logger := observability.GetLogger()

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to upgrade media stream connection")
			return
		}

		model, err := realtime.Dial(r.Context(), cfg)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to connect to realtime endpoint")
			conn.Close()
			return
		}

		session := NewSession(cfg, conn, model, search)
		session.Run(r.Context())
	}
}
