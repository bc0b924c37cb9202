package exchange

import (
	"errors"
	"math/big"

	"github.com/Alium-Finance/alium-collectible/core/events"
	"github.com/Alium-Finance/alium-collectible/core/types"
	"github.com/Alium-Finance/alium-collectible/native/catalog"
	"github.com/Alium-Finance/alium-collectible/native/common"
)

var (
	errNilCollectible  = errors.New("exchange engine: collectible gateway not configured")
	errNilAchievements = errors.New("exchange engine: achievement gateway not configured")
	errNilFreezer      = errors.New("exchange engine: freezer not configured")
	errNilState        = errors.New("exchange engine: state not configured")
)

// Collectible is the slice of the catalog registry the exchanger consumes
// for the items it burns.
type Collectible interface {
	ResolveType(item catalog.ItemID) (catalog.TypeID, error)
	OwnerOf(item catalog.ItemID) (types.Address, error)
	Approved(operator types.Address, item catalog.ItemID) bool
	Transfer(caller, from, to types.Address, item catalog.ItemID) error
}

// Achievements is the companion-collectible registry the exchanger hands
// pre-funded achievement items out of, first-in-first-assigned.
type Achievements interface {
	FirstHeld(holder types.Address) (catalog.ItemID, bool)
	HeldCount(holder types.Address) uint64
	Transfer(caller, from, to types.Address, item catalog.ItemID) error
}

// Freezer is the reward sink charge payouts are delegated to.
type Freezer interface {
	Freeze(account types.Address, amount *big.Int, nftType catalog.TypeID) error
}

// State is the persistence surface of the exchanger: one-shot charge markers
// per item and the mutable per-type reward table.
type State interface {
	Charged(item catalog.ItemID) (bool, error)
	SetCharged(item catalog.ItemID) error
	RewardGet(id catalog.TypeID) (*big.Int, error)
	RewardSet(id catalog.TypeID, amount *big.Int) error
}

// ChargeResult describes one committed charge operation.
type ChargeResult struct {
	Account      types.Address    `json:"account"`
	NFTType      catalog.TypeID   `json:"nftType"`
	Burned       []catalog.ItemID `json:"burned"`
	Achievements []catalog.ItemID `json:"achievements"`
	Reward       *big.Int         `json:"reward"`
}

// Config wires an exchanger engine. The eligible type set is fixed at
// construction; per-type rewards arrive later via SetTypeReward.
type Config struct {
	Owner        types.Address
	Self         types.Address
	Collectible  Collectible
	Achievements Achievements
	Freezer      Freezer
	State        State
	Types        []catalog.TypeID
}

// Engine burns eligible collectibles in exchange for a type-scaled frozen
// reward and a companion achievement item. Items charge exactly once, ever.
type Engine struct {
	owner        types.Address
	self         types.Address
	collectible  Collectible
	achievements Achievements
	freezer      Freezer
	state        State
	eligible     map[catalog.TypeID]bool
	emitter      events.Emitter
}

// NewEngine validates the wiring and registers the eligible type set.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Collectible == nil {
		return nil, errNilCollectible
	}
	if cfg.Achievements == nil {
		return nil, errNilAchievements
	}
	if cfg.Freezer == nil {
		return nil, errNilFreezer
	}
	if cfg.State == nil {
		return nil, errNilState
	}
	eligible := make(map[catalog.TypeID]bool, len(cfg.Types))
	for _, id := range cfg.Types {
		eligible[id] = true
	}
	return &Engine{
		owner:        cfg.Owner,
		self:         cfg.Self,
		collectible:  cfg.Collectible,
		achievements: cfg.Achievements,
		freezer:      cfg.Freezer,
		state:        cfg.State,
		eligible:     eligible,
		emitter:      events.NoopEmitter{},
	}, nil
}

// Owner returns the engine administrator.
func (e *Engine) Owner() [20]byte { return e.owner }

// SelfAddress returns the account the engine holds achievement items under.
func (e *Engine) SelfAddress() types.Address { return e.self }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

// TransferOwnership hands the administrator capability to a new address.
func (e *Engine) TransferOwnership(caller types.Address, newOwner types.Address) error {
	if err := common.RequireOwner(e, caller); err != nil {
		return err
	}
	e.owner = newOwner
	return nil
}

// EligibleType reports whether the type participates in this exchanger.
func (e *Engine) EligibleType(id catalog.TypeID) bool { return e.eligible[id] }

// SetTypeReward overwrites the per-unit reward for an eligible type. Charges
// use the value in effect at charge time; no history is kept.
func (e *Engine) SetTypeReward(caller types.Address, id catalog.TypeID, amount *big.Int) error {
	if err := common.RequireOwner(e, caller); err != nil {
		return err
	}
	if !e.eligible[id] {
		return ErrTypeNotResolved
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidReward
	}
	reward := new(big.Int).Set(amount)
	if err := e.state.RewardSet(id, reward); err != nil {
		return err
	}
	e.emit(rewardSetEvent(id, reward.String()))
	return nil
}

// TypeReward reports the reward currently paid per charged unit of the type.
func (e *Engine) TypeReward(id catalog.TypeID) (*big.Int, error) {
	reward, err := e.state.RewardGet(id)
	if err != nil {
		return nil, err
	}
	if reward == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(reward), nil
}

// Charge burns one caller-owned eligible item, delivers the next pre-funded
// achievement item and freezes the type's reward for the caller.
func (e *Engine) Charge(caller types.Address, item catalog.ItemID) (*ChargeResult, error) {
	id, err := e.collectible.ResolveType(item)
	if err != nil {
		return nil, err
	}
	if !e.eligible[id] {
		return nil, ErrTypeNotResolved
	}
	charged, err := e.state.Charged(item)
	if err != nil {
		return nil, err
	}
	if charged {
		return nil, ErrCharged
	}
	if err := e.checkCustody(caller, item); err != nil {
		return nil, err
	}
	if _, ok := e.achievements.FirstHeld(e.self); !ok {
		return nil, catalog.ErrNothingHeld
	}
	reward, err := e.TypeReward(id)
	if err != nil {
		return nil, err
	}
	result := &ChargeResult{
		Account: caller,
		NFTType: id,
		Burned:  []catalog.ItemID{item},
		Reward:  reward,
	}
	return result, e.commit(result)
}

// ChargeBatch burns several caller-owned items of one declared type
// atomically: the whole batch is validated before any item is touched, and a
// single freeze instruction covers the summed reward.
func (e *Engine) ChargeBatch(caller types.Address, items []catalog.ItemID, id catalog.TypeID) (*ChargeResult, error) {
	if len(items) == 0 {
		return nil, ErrEmptyBatch
	}
	if !e.eligible[id] {
		return nil, ErrTypeNotResolved
	}
	seen := make(map[catalog.ItemID]bool, len(items))
	for _, item := range items {
		resolved, err := e.collectible.ResolveType(item)
		if err != nil {
			return nil, err
		}
		if resolved != id {
			return nil, ErrWrongTypeFound
		}
		charged, err := e.state.Charged(item)
		if err != nil {
			return nil, err
		}
		if charged || seen[item] {
			return nil, ErrFoundCharged
		}
		seen[item] = true
		if err := e.checkCustody(caller, item); err != nil {
			return nil, err
		}
	}
	if e.achievements.HeldCount(e.self) < uint64(len(items)) {
		return nil, catalog.ErrNothingHeld
	}
	perUnit, err := e.TypeReward(id)
	if err != nil {
		return nil, err
	}
	reward := new(big.Int).Mul(perUnit, big.NewInt(int64(len(items))))
	result := &ChargeResult{
		Account: caller,
		NFTType: id,
		Burned:  append([]catalog.ItemID(nil), items...),
		Reward:  reward,
	}
	return result, e.commit(result)
}

// checkCustody verifies the caller owns the item and the engine is approved
// to move it, so the later commit cannot fail halfway through a batch.
func (e *Engine) checkCustody(caller types.Address, item catalog.ItemID) error {
	holder, err := e.collectible.OwnerOf(item)
	if err != nil {
		return err
	}
	if holder != caller {
		return catalog.ErrNotItemOwner
	}
	if !e.collectible.Approved(e.self, item) {
		return catalog.ErrNotApproved
	}
	return nil
}

// commit applies a fully validated charge: burn each item, flip its one-shot
// marker, hand out achievements in receipt order, then issue one freeze
// instruction for the whole result.
func (e *Engine) commit(result *ChargeResult) error {
	for _, item := range result.Burned {
		if err := e.collectible.Transfer(e.self, result.Account, types.BurnAddress, item); err != nil {
			return err
		}
		if err := e.state.SetCharged(item); err != nil {
			return err
		}
	}
	result.Achievements = make([]catalog.ItemID, 0, len(result.Burned))
	for range result.Burned {
		achievement, ok := e.achievements.FirstHeld(e.self)
		if !ok {
			return catalog.ErrNothingHeld
		}
		result.Achievements = append(result.Achievements, achievement)
		if err := e.achievements.Transfer(e.self, e.self, result.Account, achievement); err != nil {
			return err
		}
	}
	if err := e.freezer.Freeze(result.Account, result.Reward, result.NFTType); err != nil {
		return err
	}
	e.emit(chargedEvent(result))
	return nil
}
