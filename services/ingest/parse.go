package ingest

import (
	"encoding/json"

	"github.com/tgiokas/BellNotifications/models"
)

// envelope is the bus message wrapper some producers use. Content may hold
// the creation request directly or a nested JSON string of it.
type envelope struct {
	Content json.RawMessage `json:"content"`
}

// ParsePayload attempts the three accepted payload shapes in order: an
// envelope with a typed content field, an envelope whose content is a nested
// JSON string, and a bare creation request. The first shape producing a
// request with all required fields wins. A false result marks the message
// as poison.
func ParsePayload(payload []byte) (models.CreateNotificationRequest, bool) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err == nil && len(env.Content) > 0 {
		// Shape 1: {"content": {...}}
		if req, ok := parseRequest(env.Content); ok {
			return req, true
		}

		// Shape 2: {"content": "{...}"} — content is a JSON string.
		var inner string
		if err := json.Unmarshal(env.Content, &inner); err == nil && inner != "" {
			if req, ok := parseRequest([]byte(inner)); ok {
				return req, true
			}
		}
	}

	// Shape 3: bare creation request.
	return parseRequest(payload)
}

func parseRequest(data []byte) (models.CreateNotificationRequest, bool) {
	var req models.CreateNotificationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return models.CreateNotificationRequest{}, false
	}
	if req.UserID == "" || req.Type == "" || req.Title == "" {
		return models.CreateNotificationRequest{}, false
	}
	return req, true
}
