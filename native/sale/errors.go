package sale

import "errors"

// Reason strings are part of the engines' public contract; callers match on
// them. Do not reword.
var (
	// Public engine.
	ErrTokenResolved         = errors.New("Public sell: token resolved")
	ErrTypeResolved          = errors.New("Public sell: type resolved")
	ErrTypeNotInitialized    = errors.New("Public sell: token type is not initialized")
	ErrStablecoinNotAccepted = errors.New("Public sell: stablecoin is not accepted")
	ErrNFTNotAccepted        = errors.New("Public sell: nft is not accepted")
	ErrNotFromWhiteList      = errors.New("Public sell: not from white list")
	ErrAllTokensBought       = errors.New("Public sell: all tokens bought")
	ErrPurchaseLimitReached  = errors.New("Public sell: account purchase limit reached")
	ErrTokensLimitExceeded   = errors.New("Public sell: tokens limit is exceeded")
	ErrWrongAmount           = errors.New("Public sell: wrong amount")
	ErrEmptyBatch            = errors.New("Public sell: nothing to buy")

	// Strategic engine.
	ErrNotFromPrivateList          = errors.New("Seller: not from private list")
	ErrStrategicStablecoinRejected = errors.New("Sales: stablecoin is not accepted")
	ErrStrategicNFTRejected        = errors.New("Sales: nft is not accepted")
	ErrAttemptsExhausted           = errors.New("Sales: attempts to purchase from the address have been exhausted")
	ErrStrategicAllTokensBought    = errors.New("Sales: all tokens bought")
	ErrStrategicWrongAmount        = errors.New("Sales: wrong amount")
	ErrStrategicTypeNotInitialized = errors.New("Sales: token type is not initialized")
)
