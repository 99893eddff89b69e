package store

import "errors"

// Stable error kinds surfaced to the API layer. Handlers match these with
// errors.Is; everything else is an internal error.
var (
	// ErrNotFound: the item or interest entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotOwner: the caller is not the item's owner.
	ErrNotOwner = errors.New("not the item owner")

	// ErrSelfInterest: an owner tried to express interest in their own item.
	ErrSelfInterest = errors.New("cannot express interest in own item")

	// ErrInvalidState: the operation is not legal in the item's current status.
	ErrInvalidState = errors.New("invalid item state")

	// ErrConflict: a duplicate interest entry for the same item and user.
	ErrConflict = errors.New("interest already expressed")
)
