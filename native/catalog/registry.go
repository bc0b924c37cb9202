package catalog

import (
	"github.com/Alium-Finance/alium-collectible/core/events"
	"github.com/Alium-Finance/alium-collectible/core/types"
	"github.com/Alium-Finance/alium-collectible/native/common"
)

type typeRecord struct {
	info TypeInfo
}

type itemRecord struct {
	typeID TypeID
	owner  types.Address
}

// Registry is the collectible ledger behind the sale and exchange engines:
// typed supply counters, per-item ownership, minter roles and transfer
// approvals. It is single-writer; callers serialize mutating operations.
type Registry struct {
	owner     types.Address
	nextType  TypeID
	nextItem  ItemID
	typeTable map[TypeID]*typeRecord
	items     map[ItemID]*itemRecord
	// holdings preserves per-owner receipt order so the exchanger can hand
	// out achievement items first-in-first-assigned.
	holdings     map[types.Address][]ItemID
	minters      map[types.Address]bool
	itemApproval map[ItemID]types.Address
	operators    map[types.Address]map[types.Address]bool
	emitter      events.Emitter
}

// NewRegistry constructs an empty registry administered by owner.
func NewRegistry(owner types.Address) *Registry {
	return &Registry{
		owner:        owner,
		nextType:     1,
		nextItem:     1,
		typeTable:    make(map[TypeID]*typeRecord),
		items:        make(map[ItemID]*itemRecord),
		holdings:     make(map[types.Address][]ItemID),
		minters:      make(map[types.Address]bool),
		itemApproval: make(map[ItemID]types.Address),
		operators:    make(map[types.Address]map[types.Address]bool),
		emitter:      events.NoopEmitter{},
	}
}

// Owner returns the registry administrator.
func (r *Registry) Owner() [20]byte { return r.owner }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

func (r *Registry) emit(evt *types.Event) {
	if r == nil || r.emitter == nil || evt == nil {
		return
	}
	r.emitter.Emit(WrapEvent(evt))
}

// CreateType registers a new collectible type with a nominal fiat price and a
// fixed supply ceiling, returning its sequential id.
func (r *Registry) CreateType(caller types.Address, price, supply uint64, info string) (TypeID, error) {
	if err := common.RequireOwner(r, caller); err != nil {
		return 0, err
	}
	id := r.nextType
	r.nextType++
	rec := &typeRecord{info: TypeInfo{
		ID:            id,
		NominalPrice:  price,
		InitialSupply: supply,
		Info:          info,
	}}
	r.typeTable[id] = rec
	r.emit(typeCreatedEvent(&rec.info))
	return id, nil
}

// AddMinter grants the mint capability to an address.
func (r *Registry) AddMinter(caller, minter types.Address) error {
	if err := common.RequireOwner(r, caller); err != nil {
		return err
	}
	r.minters[minter] = true
	return nil
}

// SetMinterOnly restricts minting of a type to a single address. Sale engines
// are bound this way so nobody else can drain a type's supply.
func (r *Registry) SetMinterOnly(caller, minter types.Address, id TypeID) error {
	if err := common.RequireOwner(r, caller); err != nil {
		return err
	}
	rec, ok := r.typeTable[id]
	if !ok {
		return ErrUnknownType
	}
	rec.info.MinterOnly = minter
	return nil
}

// TypeExists reports whether the type has been registered.
func (r *Registry) TypeExists(id TypeID) bool {
	_, ok := r.typeTable[id]
	return ok
}

// TypeInfo returns a copy of the type's configuration and supply counters.
func (r *Registry) TypeInfo(id TypeID) (TypeInfo, error) {
	rec, ok := r.typeTable[id]
	if !ok {
		return TypeInfo{}, ErrUnknownType
	}
	return rec.info, nil
}

// MintCheck reports whether the caller could mint the type right now, with
// the same failure reasons Mint itself would return. Engines run it before
// taking payment so a doomed mint never moves funds.
func (r *Registry) MintCheck(caller types.Address, id TypeID) error {
	rec, ok := r.typeTable[id]
	if !ok {
		return ErrUnknownType
	}
	if !r.minters[caller] && caller != r.owner {
		return ErrNotMinter
	}
	if !rec.info.MinterOnly.IsZero() && rec.info.MinterOnly != caller {
		return ErrMinterBound
	}
	if rec.info.Remaining() == 0 {
		return ErrAllMinted
	}
	return nil
}

// Mint issues one item of the given type to the recipient. The caller must
// hold the minter capability and, when the type is bound to a single minter,
// must be that address. Minting past the supply ceiling fails.
func (r *Registry) Mint(caller, to types.Address, id TypeID) (ItemID, error) {
	if err := r.MintCheck(caller, id); err != nil {
		return 0, err
	}
	rec := r.typeTable[id]
	item := r.nextItem
	r.nextItem++
	rec.info.Minted++
	r.items[item] = &itemRecord{typeID: id, owner: to}
	r.holdings[to] = append(r.holdings[to], item)
	r.emit(mintedEvent(item, id, to))
	return item, nil
}

// Exists reports whether an item has been minted and not burned.
func (r *Registry) Exists(item ItemID) bool {
	rec, ok := r.items[item]
	return ok && rec.owner != types.BurnAddress
}

// OwnerOf returns the current holder of an item.
func (r *Registry) OwnerOf(item ItemID) (types.Address, error) {
	rec, ok := r.items[item]
	if !ok {
		return types.Address{}, ErrUnknownItem
	}
	return rec.owner, nil
}

// ResolveType maps an item back to its collectible type.
func (r *Registry) ResolveType(item ItemID) (TypeID, error) {
	rec, ok := r.items[item]
	if !ok {
		return 0, ErrUnknownItem
	}
	return rec.typeID, nil
}

// BalanceOf reports how many items the holder currently owns.
func (r *Registry) BalanceOf(holder types.Address) uint64 {
	return uint64(len(r.holdings[holder]))
}

// HeldCount is an alias of BalanceOf used by the exchanger when sizing
// achievement deliveries.
func (r *Registry) HeldCount(holder types.Address) uint64 { return r.BalanceOf(holder) }

// FirstHeld returns the earliest-received item still held by holder.
func (r *Registry) FirstHeld(holder types.Address) (ItemID, bool) {
	held := r.holdings[holder]
	if len(held) == 0 {
		return 0, false
	}
	return held[0], true
}

// Approve authorizes an operator to transfer a single item.
func (r *Registry) Approve(caller, operator types.Address, item ItemID) error {
	rec, ok := r.items[item]
	if !ok {
		return ErrUnknownItem
	}
	if rec.owner != caller {
		return ErrNotItemOwner
	}
	r.itemApproval[item] = operator
	return nil
}

// SetApprovalForAll authorizes or revokes an operator for every item the
// caller holds now or later.
func (r *Registry) SetApprovalForAll(caller, operator types.Address, approved bool) {
	ops, ok := r.operators[caller]
	if !ok {
		ops = make(map[types.Address]bool)
		r.operators[caller] = ops
	}
	ops[operator] = approved
}

// Approved reports whether operator may move the item on its owner's behalf.
func (r *Registry) Approved(operator types.Address, item ItemID) bool {
	rec, ok := r.items[item]
	if !ok {
		return false
	}
	if rec.owner == operator {
		return true
	}
	if r.itemApproval[item] == operator {
		return true
	}
	return r.operators[rec.owner][operator]
}

// Transfer moves an item between holders. The caller must be the current
// owner or an approved operator. Transfers to the burn address destroy the
// item for Exists purposes while keeping its type resolvable.
func (r *Registry) Transfer(caller, from, to types.Address, item ItemID) error {
	rec, ok := r.items[item]
	if !ok {
		return ErrUnknownItem
	}
	if rec.owner != from {
		return ErrNotItemOwner
	}
	if caller != from && !r.Approved(caller, item) {
		return ErrNotApproved
	}
	r.removeHolding(from, item)
	rec.owner = to
	r.holdings[to] = append(r.holdings[to], item)
	delete(r.itemApproval, item)
	r.emit(transferredEvent(item, from, to))
	return nil
}

func (r *Registry) removeHolding(holder types.Address, item ItemID) {
	held := r.holdings[holder]
	for i, candidate := range held {
		if candidate == item {
			r.holdings[holder] = append(held[:i], held[i+1:]...)
			return
		}
	}
}
