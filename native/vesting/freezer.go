package vesting

import (
	"errors"
	"math/big"
	"strconv"
	"time"

	"github.com/Alium-Finance/alium-collectible/core/events"
	"github.com/Alium-Finance/alium-collectible/core/types"
	"github.com/Alium-Finance/alium-collectible/native/catalog"
)

// EventTypeFrozen is the acknowledgment emitted for every accepted freeze
// instruction.
const EventTypeFrozen = "vesting.frozen"

// ErrInvalidAmount rejects nil or negative freeze amounts. Zero-amount
// freezes are accepted: an exchanger type with no reward configured still
// produces an auditable acknowledgment.
var ErrInvalidAmount = errors.New("Vesting: amount must not be negative")

// FreezeRecord is one accepted freeze instruction.
type FreezeRecord struct {
	Account types.Address  `json:"account"`
	Amount  *big.Int       `json:"amount"`
	NFTType catalog.TypeID `json:"nftType"`
	At      int64          `json:"at"`
}

// Freezer is the reward sink the exchanger delegates payout delivery to. It
// accumulates time-locked balances per account instead of transferring value
// directly.
type Freezer struct {
	frozen  map[types.Address]*big.Int
	records []FreezeRecord
	emitter events.Emitter
	nowFn   func() int64
}

// NewFreezer constructs an empty freezer.
func NewFreezer() *Freezer {
	return &Freezer{
		frozen:  make(map[types.Address]*big.Int),
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (f *Freezer) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		f.emitter = events.NoopEmitter{}
		return
	}
	f.emitter = emitter
}

// SetNowFunc overrides the time source for deterministic tests.
func (f *Freezer) SetNowFunc(now func() int64) {
	if now == nil {
		f.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	f.nowFn = now
}

// Freeze locks amount for the account, tagged with the collectible type that
// earned it, and emits the Frozen acknowledgment.
func (f *Freezer) Freeze(account types.Address, amount *big.Int, nftType catalog.TypeID) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	locked := clone(amount)
	current := f.frozen[account]
	if current == nil {
		current = big.NewInt(0)
	}
	f.frozen[account] = new(big.Int).Add(current, locked)
	record := FreezeRecord{Account: account, Amount: locked, NFTType: nftType, At: f.nowFn()}
	f.records = append(f.records, record)
	f.emit(frozenEvent(record))
	return nil
}

// FrozenOf reports the account's cumulative frozen balance.
func (f *Freezer) FrozenOf(account types.Address) *big.Int {
	return clone(f.frozen[account])
}

// Records returns the accepted freeze instructions in order.
func (f *Freezer) Records() []FreezeRecord {
	out := make([]FreezeRecord, len(f.records))
	copy(out, f.records)
	return out
}

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

func (f *Freezer) emit(evt *types.Event) {
	if f == nil || f.emitter == nil || evt == nil {
		return
	}
	f.emitter.Emit(eventEnvelope{evt: evt})
}

func frozenEvent(record FreezeRecord) *types.Event {
	return &types.Event{
		Type: EventTypeFrozen,
		Attributes: map[string]string{
			"account": record.Account.Hex(),
			"amount":  record.Amount.String(),
			"nftType": strconv.FormatUint(uint64(record.NFTType), 10),
		},
	}
}

func clone(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
