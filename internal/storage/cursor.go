package storage

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/meltforce/gymtrack/internal/apperrors"
)

// cursor is the keyset position of the last row on a page. Rows are
// ordered by (logged_at DESC, id DESC), so the next page starts strictly below it.
type cursor struct {
	LoggedAt time.Time `json:"t"`
	ID       string    `json:"id"`
}

func encodeCursor(c cursor) string {
	data, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(data)
}

// decodeCursor returns nil for the empty token (first page).
func decodeCursor(token string) (*cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("decoding token: %w", apperrors.ErrBadCursor)
	}
	var c cursor
	if err := json.Unmarshal(raw, &c); err != nil || c.ID == "" {
		return nil, fmt.Errorf("decoding token: %w", apperrors.ErrBadCursor)
	}
	return &c, nil
}

func pageLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	return min(limit, 500)
}

// keysetArgs returns the cursor bound parameters; nil bounds match every row.
func keysetArgs(c *cursor) (*time.Time, *string) {
	if c == nil {
		return nil, nil
	}
	return &c.LoggedAt, &c.ID
}
