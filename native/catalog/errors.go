package catalog

import "errors"

var (
	ErrUnknownType  = errors.New("Collectible: token type is not initialized")
	ErrAllMinted    = errors.New("Collectible: all tokens minted")
	ErrNotMinter    = errors.New("Collectible: caller is not a minter")
	ErrMinterBound  = errors.New("Collectible: type is bound to another minter")
	ErrUnknownItem  = errors.New("Collectible: token does not exist")
	ErrNotItemOwner = errors.New("Collectible: transfer from wrong owner")
	ErrNotApproved  = errors.New("Collectible: caller is not owner nor approved")
	ErrNothingHeld  = errors.New("Collectible: no token to transfer")
)
