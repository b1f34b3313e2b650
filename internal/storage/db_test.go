package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

// TestCreateClaimedReclaimsOnConflict verifies an id taken between claim and
// insert is claimed again instead of being reported as stored.
func TestCreateClaimedReclaimsOnConflict(t *testing.T) {
	ids := []string{"cand", "fresh"}
	claims := 0
	claim := func(context.Context) (string, bool, error) {
		id := ids[claims]
		claims++
		return id, false, nil
	}
	var inserted []string
	insert := func(_ context.Context, id string) error {
		inserted = append(inserted, id)
		if id == "cand" {
			return pgx.ErrNoRows
		}
		return nil
	}

	got, err := createClaimed(context.Background(), "sessions", claim, insert)
	if err != nil {
		t.Fatal(err)
	}
	if got != "fresh" {
		t.Errorf("id = %q, want fresh", got)
	}
	if len(inserted) != 2 {
		t.Errorf("inserts = %v, want two attempts", inserted)
	}
}

// TestCreateClaimedRetriedCreate verifies an id already stored for the same
// user is returned without inserting again.
func TestCreateClaimedRetriedCreate(t *testing.T) {
	claim := func(context.Context) (string, bool, error) { return "cand", true, nil }
	insert := func(context.Context, string) error {
		t.Error("insert called for an already stored id")
		return nil
	}

	got, err := createClaimed(context.Background(), "movements", claim, insert)
	if err != nil || got != "cand" {
		t.Errorf("createClaimed = %q, %v, want cand", got, err)
	}
}

// TestCreateClaimedGivesUp verifies persistent contention ends in an error.
func TestCreateClaimedGivesUp(t *testing.T) {
	claim := func(context.Context) (string, bool, error) { return "x", false, nil }
	insert := func(context.Context, string) error { return pgx.ErrNoRows }

	if _, err := createClaimed(context.Background(), "plans", claim, insert); err == nil {
		t.Error("expected error after repeated conflicts")
	}

	boom := errors.New("connection reset")
	insert = func(context.Context, string) error { return boom }
	if _, err := createClaimed(context.Background(), "plans", claim, insert); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped insert error", err)
	}
}
