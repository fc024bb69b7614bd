package feeds

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// ErrBadCursor is returned for cursors the server didn't mint.
var ErrBadCursor = errors.New("malformed feed cursor")

// cursorToken is the decoded pagination state: a zero-based offset into the
// filtered entry list. Clients treat the encoded form as opaque.
type cursorToken struct {
	Offset int `json:"o"`
}

func encodeCursor(offset int) string {
	blob, _ := json.Marshal(cursorToken{Offset: offset})
	return base64.RawURLEncoding.EncodeToString(blob)
}

func decodeCursor(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	blob, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return 0, ErrBadCursor
	}
	var tok cursorToken
	if err := json.Unmarshal(blob, &tok); err != nil || tok.Offset < 0 {
		return 0, ErrBadCursor
	}
	return tok.Offset, nil
}
