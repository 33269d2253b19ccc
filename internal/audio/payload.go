package audio

import (
	"encoding/base64"
	"fmt"
)

// ReencodePayload round-trips a base64 audio payload through its raw bytes.
// The relay never touches samples; this exists so that a frame with an
// unparsable payload is rejected here instead of being forwarded corrupted.
// For any valid payload the result decodes to exactly the same bytes.
func ReencodePayload(payload string) (string, int, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", 0, fmt.Errorf("invalid base64 audio payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), len(raw), nil
}
