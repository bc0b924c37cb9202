package common

import "errors"

var ErrNotOwner = errors.New("caller is not the owner")

// OwnerView exposes the administrator identity of an engine instance.
type OwnerView interface {
	Owner() [20]byte
}

// RequireOwner rejects callers that do not hold the administrator capability.
// It is invoked at the top of every admin operation rather than inline.
func RequireOwner(v OwnerView, caller [20]byte) error {
	if v == nil {
		return ErrNotOwner
	}
	if v.Owner() != caller {
		return ErrNotOwner
	}
	return nil
}
