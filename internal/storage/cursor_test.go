package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/meltforce/gymtrack/internal/apperrors"
)

// TestCursorRoundTrip verifies a token decodes back to the same keyset position.
func TestCursorRoundTrip(t *testing.T) {
	want := cursor{LoggedAt: time.Date(2026, 3, 1, 18, 30, 0, 123000, time.UTC), ID: "7d1c"}
	got, err := decodeCursor(encodeCursor(want))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.LoggedAt.Equal(want.LoggedAt) || got.ID != want.ID {
		t.Errorf("cursor = %+v, want %+v", got, want)
	}
}

// TestDecodeCursorEmpty verifies the empty token means "first page".
func TestDecodeCursorEmpty(t *testing.T) {
	c, err := decodeCursor("")
	if err != nil || c != nil {
		t.Errorf("decodeCursor(\"\") = %v, %v; want nil, nil", c, err)
	}
	if at, id := keysetArgs(c); at != nil || id != nil {
		t.Error("keysetArgs(nil) should return nil bounds")
	}
}

// TestDecodeCursorInvalid verifies garbage tokens are rejected with ErrBadCursor.
func TestDecodeCursorInvalid(t *testing.T) {
	for _, token := range []string{"!!!", "bm90LWpzb24", "e30"} {
		if _, err := decodeCursor(token); !errors.Is(err, apperrors.ErrBadCursor) {
			t.Errorf("decodeCursor(%q) err = %v, want ErrBadCursor", token, err)
		}
	}
}

// TestBuildPage verifies the probe row is trimmed and drives hasMore/nextToken.
func TestBuildPage(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []cursor{
		{LoggedAt: base.Add(3 * time.Hour), ID: "c"},
		{LoggedAt: base.Add(2 * time.Hour), ID: "b"},
		{LoggedAt: base.Add(1 * time.Hour), ID: "a"},
	}
	identity := func(c cursor) cursor { return c }

	page := buildPage(rows, 2, identity)
	if len(page.Logs) != 2 || !page.HasMore {
		t.Fatalf("page = %d logs, hasMore=%v; want 2, true", len(page.Logs), page.HasMore)
	}
	next, err := decodeCursor(page.NextToken)
	if err != nil {
		t.Fatal(err)
	}
	if next.ID != "b" {
		t.Errorf("next cursor id = %q, want b", next.ID)
	}

	last := buildPage(rows[:1], 2, identity)
	if last.HasMore || last.NextToken != "" {
		t.Errorf("short page: hasMore=%v token=%q, want false and empty", last.HasMore, last.NextToken)
	}

	empty := buildPage[cursor](nil, 2, identity)
	if empty.Logs == nil {
		t.Error("empty page logs should be non-nil for JSON")
	}
}

// TestPageLimit verifies the default and ceiling.
func TestPageLimit(t *testing.T) {
	tests := []struct{ in, want int }{{0, 50}, {-3, 50}, {20, 20}, {10000, 500}}
	for _, tt := range tests {
		if got := pageLimit(tt.in); got != tt.want {
			t.Errorf("pageLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
