package notification

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// cursorData is the decoded pagination boundary: the (createdAt, id) of the
// last item on the previous page. Callers only ever see the encoded form.
type cursorData struct {
	CreatedAt int64  `json:"createdAtUtc"` // unix milliseconds
	ID        string `json:"id"`
}

// EncodeCursor packs a pagination boundary into an opaque URL-safe string.
func EncodeCursor(createdAt time.Time, id string) string {
	data, _ := json.Marshal(cursorData{
		CreatedAt: createdAt.UnixMilli(),
		ID:        id,
	})
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor unpacks a cursor. Malformed input of any kind is treated as
// "no cursor" (first page), never as an error.
func DecodeCursor(cursor string) (*time.Time, string) {
	if cursor == "" {
		return nil, ""
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ""
	}
	var data cursorData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, ""
	}
	if data.ID == "" {
		return nil, ""
	}
	createdAt := time.UnixMilli(data.CreatedAt).UTC()
	return &createdAt, data.ID
}
