package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/podari/podari/internal/db"
	"github.com/podari/podari/internal/model"
)

func newUser(t *testing.T, database *sql.DB, email string) *model.User {
	t.Helper()
	u, err := CreateUser(context.Background(), database, email, "hash", "Test User")
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return u
}

func newItem(t *testing.T, database *sql.DB, ownerID int64, title string) *model.Item {
	t.Helper()
	item, err := CreateItem(context.Background(), database, ownerID, NewItem{Title: title})
	if err != nil {
		t.Fatalf("CreateItem(%s): %v", title, err)
	}
	return item
}

func itemStatus(t *testing.T, database *sql.DB, id int64) string {
	t.Helper()
	item, err := GetItem(context.Background(), database, id)
	if err != nil || item == nil {
		t.Fatalf("GetItem(%d): %v", id, err)
	}
	return item.Status
}

func TestExpressInterest(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := newUser(t, database, "owner@example.org")
	candidate := newUser(t, database, "ana@example.org")
	item := newItem(t, database, owner.ID, "Bookshelf")

	interest, err := ExpressInterest(ctx, database, item.ID, candidate.ID)
	if err != nil {
		t.Fatalf("ExpressInterest: %v", err)
	}
	if interest.Selected {
		t.Error("new interest must not be selected")
	}
	if interest.Stats.AverageResponseHours != model.PlaceholderResponseHours {
		t.Errorf("expected placeholder response hours, got %d", interest.Stats.AverageResponseHours)
	}

	if got := itemStatus(t, database, item.ID); got != model.ItemStatusPending {
		t.Errorf("expected pending after interest, got %q", got)
	}
}

func TestExpressInterestSelf(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := newUser(t, database, "owner@example.org")
	item := newItem(t, database, owner.ID, "Bookshelf")

	_, err := ExpressInterest(ctx, database, item.ID, owner.ID)
	if !errors.Is(err, ErrSelfInterest) {
		t.Errorf("expected ErrSelfInterest, got %v", err)
	}
}

func TestExpressInterestDuplicate(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := newUser(t, database, "owner@example.org")
	candidate := newUser(t, database, "ana@example.org")
	item := newItem(t, database, owner.ID, "Bookshelf")

	if _, err := ExpressInterest(ctx, database, item.ID, candidate.ID); err != nil {
		t.Fatalf("first ExpressInterest: %v", err)
	}
	if _, err := ExpressInterest(ctx, database, item.ID, candidate.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	interests, _ := ListInterests(ctx, database, item.ID)
	if len(interests) != 1 {
		t.Errorf("expected 1 interest entry, got %d", len(interests))
	}
}

func TestExpressInterestMissingItem(t *testing.T) {
	database := db.NewTestDB(t)
	candidate := newUser(t, database, "ana@example.org")

	_, err := ExpressInterest(context.Background(), database, 9999, candidate.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExpressInterestOnPendingItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := newUser(t, database, "owner@example.org")
	ana := newUser(t, database, "ana@example.org")
	bojan := newUser(t, database, "bojan@example.org")
	item := newItem(t, database, owner.ID, "Bookshelf")

	ExpressInterest(ctx, database, item.ID, ana.ID)

	// Competing interest on a pending item is the expected case: the owner
	// chooses among candidates.
	if _, err := ExpressInterest(ctx, database, item.ID, bojan.ID); err != nil {
		t.Fatalf("ExpressInterest on pending item: %v", err)
	}

	interests, _ := ListInterests(ctx, database, item.ID)
	if len(interests) != 2 {
		t.Errorf("expected 2 entries, got %d", len(interests))
	}
	if got := itemStatus(t, database, item.ID); got != model.ItemStatusPending {
		t.Errorf("expected pending, got %q", got)
	}
}

func TestExpressInterestOnTakenItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := newUser(t, database, "owner@example.org")
	ana := newUser(t, database, "ana@example.org")
	ciril := newUser(t, database, "ciril@example.org")
	item := newItem(t, database, owner.ID, "Bookshelf")

	ExpressInterest(ctx, database, item.ID, ana.ID)
	SelectRecipient(ctx, database, item.ID, owner.ID, ana.ID)
	MarkTaken(ctx, database, item.ID, owner.ID)

	if _, err := ExpressInterest(ctx, database, item.ID, ciril.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState for taken item, got %v", err)
	}

	interests, _ := ListInterests(ctx, database, item.ID)
	if len(interests) != 1 {
		t.Errorf("failed expression must not create an entry: got %d", len(interests))
	}
}

func TestWithdrawLastInterestRevertsToAvailable(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := newUser(t, database, "owner@example.org")
	ana := newUser(t, database, "ana@example.org")
	item := newItem(t, database, owner.ID, "Bookshelf")

	ExpressInterest(ctx, database, item.ID, ana.ID)
	if err := RemoveInterest(ctx, database, item.ID, ana.ID); err != nil {
		t.Fatalf("RemoveInterest: %v", err)
	}

	if got := itemStatus(t, database, item.ID); got != model.ItemStatusAvailable {
		t.Errorf("expected available after last withdrawal, got %q", got)
	}
	interests, _ := ListInterests(ctx, database, item.ID)
	if len(interests) != 0 {
		t.Errorf("expected 0 entries, got %d", len(interests))
	}
}

func TestWithdrawOneOfSeveralStaysPending(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := newUser(t, database, "owner@example.org")
	ana := newUser(t, database, "ana@example.org")
	bojan := newUser(t, database, "bojan@example.org")
	item := newItem(t, database, owner.ID, "Bookshelf")

	ExpressInterest(ctx, database, item.ID, ana.ID)
	ExpressInterest(ctx, database, item.ID, bojan.ID)

	if err := RemoveInterest(ctx, database, item.ID, ana.ID); err != nil {
		t.Fatalf("RemoveInterest: %v", err)
	}
	if got := itemStatus(t, database, item.ID); got != model.ItemStatusPending {
		t.Errorf("expected pending with entries remaining, got %q", got)
	}
}

func TestWithdrawMissingInterest(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := newUser(t, database, "owner@example.org")
	ana := newUser(t, database, "ana@example.org")
	item := newItem(t, database, owner.ID, "Bookshelf")

	if err := RemoveInterest(ctx, database, item.ID, ana.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestWithdrawFinalizedEntryRejected(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := newUser(t, database, "owner@example.org")
	ana := newUser(t, database, "ana@example.org")
	bojan := newUser(t, database, "bojan@example.org")
	item := newItem(t, database, owner.ID, "Bookshelf")

	ExpressInterest(ctx, database, item.ID, ana.ID)
	ExpressInterest(ctx, database, item.ID, bojan.ID)
	SelectRecipient(ctx, database, item.ID, owner.ID, ana.ID)
	MarkTaken(ctx, database, item.ID, owner.ID)

	// The entry that finalized the item cannot be withdrawn.
	if err := RemoveInterest(ctx, database, item.ID, ana.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState withdrawing the finalizing entry, got %v", err)
	}

	// Other candidates can still tidy up; the item stays taken.
	if err := RemoveInterest(ctx, database, item.ID, bojan.ID); err != nil {
		t.Fatalf("RemoveInterest(bojan): %v", err)
	}
	if got := itemStatus(t, database, item.ID); got != model.ItemStatusTaken {
		t.Errorf("taken is terminal, got %q", got)
	}
}

func TestSelectRecipientExclusivity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := newUser(t, database, "owner@example.org")
	ana := newUser(t, database, "ana@example.org")
	bojan := newUser(t, database, "bojan@example.org")
	item := newItem(t, database, owner.ID, "Bookshelf")

	ExpressInterest(ctx, database, item.ID, ana.ID)
	ExpressInterest(ctx, database, item.ID, bojan.ID)

	if _, err := SelectRecipient(ctx, database, item.ID, owner.ID, ana.ID); err != nil {
		t.Fatalf("SelectRecipient(ana): %v", err)
	}
	// Switching keeps exactly one selection.
	if _, err := SelectRecipient(ctx, database, item.ID, owner.ID, bojan.ID); err != nil {
		t.Fatalf("SelectRecipient(bojan): %v", err)
	}

	interests, _ := ListInterests(ctx, database, item.ID)
	selected := 0
	for _, in := range interests {
		if in.Selected {
			selected++
			if in.UserID != bojan.ID {
				t.Errorf("expected bojan selected, got user %d", in.UserID)
			}
		}
	}
	if selected != 1 {
		t.Errorf("expected exactly 1 selected entry, got %d", selected)
	}

	if got := itemStatus(t, database, item.ID); got != model.ItemStatusPending {
		t.Errorf("expected pending after selection, got %q", got)
	}
}

func TestSelectRecipientChecks(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := newUser(t, database, "owner@example.org")
	ana := newUser(t, database, "ana@example.org")
	stranger := newUser(t, database, "other@example.org")
	item := newItem(t, database, owner.ID, "Bookshelf")

	ExpressInterest(ctx, database, item.ID, ana.ID)

	// Not the owner.
	if _, err := SelectRecipient(ctx, database, item.ID, stranger.ID, ana.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}

	// No entry for the candidate, e.g. after a concurrent withdrawal.
	if _, err := SelectRecipient(ctx, database, item.ID, owner.ID, stranger.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing entry, got %v", err)
	}

	// Already finalized.
	SelectRecipient(ctx, database, item.ID, owner.ID, ana.ID)
	MarkTaken(ctx, database, item.ID, owner.ID)
	if _, err := SelectRecipient(ctx, database, item.ID, owner.ID, ana.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState on taken item, got %v", err)
	}
}

func TestUnselectRecipientRevertsToAvailable(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := newUser(t, database, "owner@example.org")
	ana := newUser(t, database, "ana@example.org")
	bojan := newUser(t, database, "bojan@example.org")
	item := newItem(t, database, owner.ID, "Bookshelf")

	ExpressInterest(ctx, database, item.ID, ana.ID)
	ExpressInterest(ctx, database, item.ID, bojan.ID)
	SelectRecipient(ctx, database, item.ID, owner.ID, ana.ID)

	updated, err := UnselectRecipient(ctx, database, item.ID, owner.ID)
	if err != nil {
		t.Fatalf("UnselectRecipient: %v", err)
	}
	// Owner-initiated unselect reverts to available even though unselected
	// interests remain.
	if updated.Status != model.ItemStatusAvailable {
		t.Errorf("expected available after unselect, got %q", updated.Status)
	}

	interests, _ := ListInterests(ctx, database, item.ID)
	for _, in := range interests {
		if in.Selected {
			t.Errorf("expected no selected entries after unselect, user %d still selected", in.UserID)
		}
	}
}

func TestUnselectWithoutSelection(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := newUser(t, database, "owner@example.org")
	ana := newUser(t, database, "ana@example.org")
	item := newItem(t, database, owner.ID, "Bookshelf")

	ExpressInterest(ctx, database, item.ID, ana.ID)

	if _, err := UnselectRecipient(ctx, database, item.ID, owner.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState without selection, got %v", err)
	}
}

func TestMarkTakenRequiresSelection(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := newUser(t, database, "owner@example.org")
	ana := newUser(t, database, "ana@example.org")
	item := newItem(t, database, owner.ID, "Bookshelf")

	// Available item, no interests.
	if _, err := MarkTaken(ctx, database, item.ID, owner.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState for available item, got %v", err)
	}

	// Pending but no selection.
	ExpressInterest(ctx, database, item.ID, ana.ID)
	if _, err := MarkTaken(ctx, database, item.ID, owner.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState without selection, got %v", err)
	}

	// With selection it succeeds and is terminal.
	SelectRecipient(ctx, database, item.ID, owner.ID, ana.ID)
	updated, err := MarkTaken(ctx, database, item.ID, owner.ID)
	if err != nil {
		t.Fatalf("MarkTaken: %v", err)
	}
	if updated.Status != model.ItemStatusTaken {
		t.Errorf("expected taken, got %q", updated.Status)
	}
	if _, err := MarkTaken(ctx, database, item.ID, owner.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState marking taken twice, got %v", err)
	}

	// Entries are preserved for history.
	interests, _ := ListInterests(ctx, database, item.ID)
	if len(interests) != 1 {
		t.Errorf("expected interest entries retained, got %d", len(interests))
	}
}

func TestMarkTakenNotOwner(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := newUser(t, database, "owner@example.org")
	ana := newUser(t, database, "ana@example.org")
	item := newItem(t, database, owner.ID, "Bookshelf")

	ExpressInterest(ctx, database, item.ID, ana.ID)
	SelectRecipient(ctx, database, item.ID, owner.ID, ana.ID)

	if _, err := MarkTaken(ctx, database, item.ID, ana.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
}

func TestEndToEndSelection(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := newUser(t, database, "owner@example.org")
	ana := newUser(t, database, "ana@example.org")
	bojan := newUser(t, database, "bojan@example.org")
	item := newItem(t, database, owner.ID, "Bookshelf")

	if got := itemStatus(t, database, item.ID); got != model.ItemStatusAvailable {
		t.Fatalf("new item must be available, got %q", got)
	}

	ExpressInterest(ctx, database, item.ID, ana.ID)
	ExpressInterest(ctx, database, item.ID, bojan.ID)

	if got := itemStatus(t, database, item.ID); got != model.ItemStatusPending {
		t.Fatalf("expected pending, got %q", got)
	}

	SelectRecipient(ctx, database, item.ID, owner.ID, bojan.ID)
	interests, _ := ListInterests(ctx, database, item.ID)
	if len(interests) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(interests))
	}
	// Earliest expresser first.
	if interests[0].UserID != ana.ID {
		t.Errorf("expected ana first in list, got user %d", interests[0].UserID)
	}
	if interests[0].Selected || !interests[1].Selected {
		t.Errorf("expected only bojan selected: %v, %v", interests[0].Selected, interests[1].Selected)
	}

	updated, err := MarkTaken(ctx, database, item.ID, owner.ID)
	if err != nil {
		t.Fatalf("MarkTaken: %v", err)
	}
	if updated.Status != model.ItemStatusTaken {
		t.Errorf("expected taken, got %q", updated.Status)
	}

	interests, _ = ListInterests(ctx, database, item.ID)
	if len(interests) != 2 {
		t.Errorf("expected both entries retained after taking, got %d", len(interests))
	}
}

func TestStatsSnapshotCapturedAtExpression(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner := newUser(t, database, "owner@example.org")
	ana := newUser(t, database, "ana@example.org")

	// Ana gives away one item first.
	given := newItem(t, database, ana.ID, "Lamp")
	ExpressInterest(ctx, database, given.ID, owner.ID)
	SelectRecipient(ctx, database, given.ID, ana.ID, owner.ID)
	MarkTaken(ctx, database, given.ID, ana.ID)

	item := newItem(t, database, owner.ID, "Bookshelf")
	interest, err := ExpressInterest(ctx, database, item.ID, ana.ID)
	if err != nil {
		t.Fatalf("ExpressInterest: %v", err)
	}

	if interest.Stats.TotalItemsGiven != 1 {
		t.Errorf("expected 1 given in snapshot, got %d", interest.Stats.TotalItemsGiven)
	}
	if interest.Stats.TotalItemsReceived != 0 {
		t.Errorf("expected 0 received in snapshot, got %d", interest.Stats.TotalItemsReceived)
	}

	// Ana gives another item away; the old snapshot must not change.
	second := newItem(t, database, ana.ID, "Chair")
	ExpressInterest(ctx, database, second.ID, owner.ID)
	SelectRecipient(ctx, database, second.ID, ana.ID, owner.ID)
	MarkTaken(ctx, database, second.ID, ana.ID)

	refetched, _ := GetInterest(ctx, database, interest.ID)
	if refetched.Stats.TotalItemsGiven != 1 {
		t.Errorf("snapshot must not be recomputed: got %d given", refetched.Stats.TotalItemsGiven)
	}
}
