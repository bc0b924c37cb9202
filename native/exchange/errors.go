package exchange

import "errors"

// Reason strings are part of the engine's public contract; callers match on
// them. Do not reword.
var (
	ErrTypeNotResolved = errors.New("PrivateExchanger: Token type not resolved")
	ErrCharged         = errors.New("PrivateExchanger: Charged")
	ErrFoundCharged    = errors.New("PrivateExchanger: Found charged")
	ErrWrongTypeFound  = errors.New("PrivateExchanger: Found wrong type in passed collection")
	ErrEmptyBatch      = errors.New("PrivateExchanger: nothing to charge")
	ErrInvalidReward   = errors.New("PrivateExchanger: reward must not be negative")
)
