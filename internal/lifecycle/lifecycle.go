// Package lifecycle is the single authority on item status transitions.
// Every status change in the store goes through one of the guard functions
// below; handlers never set status directly.
//
// States: available -> pending -> taken, with pending able to fall back to
// available. Taken is terminal.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/podari/podari/internal/model"
)

// ErrInvalidTransition is returned when an event is not legal in the
// item's current status.
var ErrInvalidTransition = errors.New("invalid status transition")

// OnInterestExpressed returns the status after a new interest entry.
// The first interest moves an available item to pending; further
// interests keep it pending so the owner can choose among candidates.
// A taken item accepts no more interest.
func OnInterestExpressed(current string) (string, error) {
	if current == model.ItemStatusTaken {
		return "", fmt.Errorf("%w: cannot express interest on %s item", ErrInvalidTransition, current)
	}
	return model.ItemStatusPending, nil
}

// OnInterestWithdrawn returns the status after an interest entry is
// removed. The item falls back to available only when no entries remain;
// otherwise the remaining interests keep it pending. Withdrawing a
// non-selected entry from a taken item leaves it taken.
func OnInterestWithdrawn(current string, remaining int) (string, error) {
	if current == model.ItemStatusPending && remaining == 0 {
		return model.ItemStatusAvailable, nil
	}
	return current, nil
}

// OnRecipientSelected returns the status after the owner designates a
// recipient. Selecting is idempotent on a pending item and illegal once
// the item is taken.
func OnRecipientSelected(current string) (string, error) {
	if current == model.ItemStatusTaken {
		return "", fmt.Errorf("%w: item already taken", ErrInvalidTransition)
	}
	return model.ItemStatusPending, nil
}

// OnRecipientUnselected returns the status after the owner clears the
// selection. The item reverts to available even if unselected interests
// remain; the owner action overrides the interest-count rule.
func OnRecipientUnselected(current string) (string, error) {
	if current == model.ItemStatusTaken {
		return "", fmt.Errorf("%w: item already taken", ErrInvalidTransition)
	}
	return model.ItemStatusAvailable, nil
}

// OnMarkedTaken returns the terminal status after the owner confirms the
// giveaway. Requires a pending item with an active selection.
func OnMarkedTaken(current string, selectionActive bool) (string, error) {
	if current != model.ItemStatusPending {
		return "", fmt.Errorf("%w: cannot mark %s item as taken", ErrInvalidTransition, current)
	}
	if !selectionActive {
		return "", fmt.Errorf("%w: no recipient selected", ErrInvalidTransition)
	}
	return model.ItemStatusTaken, nil
}
