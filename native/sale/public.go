package sale

import (
	"math/big"

	"github.com/Alium-Finance/alium-collectible/core/types"
	"github.com/Alium-Finance/alium-collectible/native/catalog"
	"github.com/Alium-Finance/alium-collectible/native/common"
)

// PublicConfig wires a public sale engine.
type PublicConfig struct {
	Owner       types.Address
	Founder     types.Address
	Self        types.Address
	Collectible Collectible
	Stables     Stablecoins
	State       PublicState
	Types       []TypeSeed
	Stablecoins []types.Address
}

// PublicEngine sells catalog items to any caller, charging the exact
// fiat-denominated price in an accepted stablecoin and enforcing per-account
// purchase limits per type. When its member set is non-empty the sale is
// additionally gated on membership.
type PublicEngine struct {
	engine
	state   PublicState
	members *common.MemberSet
}

// NewPublicEngine validates the seed types against the catalog and registers
// the opening configuration.
func NewPublicEngine(cfg PublicConfig) (*PublicEngine, error) {
	base, err := newEngine(cfg.Owner, cfg.Founder, cfg.Self, cfg.Collectible, cfg.Stables)
	if err != nil {
		return nil, err
	}
	if cfg.State == nil {
		return nil, errNilState
	}
	e := &PublicEngine{engine: base, state: cfg.State, members: common.NewMemberSet()}
	// Seeding is idempotent over persisted state, so a restarted daemon can
	// pass the same configuration without tripping the already-active
	// errors AddType and AddStablecoin report to admins.
	for _, seed := range cfg.Types {
		existing, ok, err := e.state.SaleTypeGet(seed.ID)
		if err != nil {
			return nil, err
		}
		if ok && existing.Active {
			continue
		}
		if err := e.addType(seed.ID, seed.BuyLimit); err != nil {
			return nil, err
		}
	}
	for _, asset := range cfg.Stablecoins {
		accepted, err := e.state.StablecoinAccepted(asset)
		if err != nil {
			return nil, err
		}
		if accepted {
			continue
		}
		if err := e.addStablecoin(asset); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// AddMembers extends the optional whitelist gate.
func (e *PublicEngine) AddMembers(caller types.Address, accounts ...types.Address) error {
	if err := common.RequireOwner(e, caller); err != nil {
		return err
	}
	e.members.Add(accountsToKeys(accounts)...)
	return nil
}

// Members returns the current whitelist in byte order. An empty slice means
// the sale is open to everyone.
func (e *PublicEngine) Members() []types.Address {
	keys := e.members.Keys()
	out := make([]types.Address, len(keys))
	for i, key := range keys {
		out[i] = key
	}
	return out
}

func accountsToKeys(accounts []types.Address) [][20]byte {
	keys := make([][20]byte, len(accounts))
	for i, acc := range accounts {
		keys[i] = acc
	}
	return keys
}

// AddType activates a collectible type for sale with a per-account limit.
func (e *PublicEngine) AddType(caller types.Address, id catalog.TypeID, buyLimit uint64) error {
	if err := common.RequireOwner(e, caller); err != nil {
		return err
	}
	return e.addType(id, buyLimit)
}

func (e *PublicEngine) addType(id catalog.TypeID, buyLimit uint64) error {
	cfg, ok, err := e.state.SaleTypeGet(id)
	if err != nil {
		return err
	}
	if ok && cfg.Active {
		return ErrTypeResolved
	}
	if !e.collectible.TypeExists(id) {
		return ErrTypeNotInitialized
	}
	next := &TypeConfig{ID: id, Active: true, BuyLimit: buyLimit}
	if err := e.state.SaleTypePut(next); err != nil {
		return err
	}
	e.emit(typeAddedEvent(next))
	return nil
}

// RemoveType deactivates a type. Supply and purchase history are untouched.
func (e *PublicEngine) RemoveType(caller types.Address, id catalog.TypeID) error {
	if err := common.RequireOwner(e, caller); err != nil {
		return err
	}
	cfg, ok, err := e.state.SaleTypeGet(id)
	if err != nil {
		return err
	}
	if !ok || !cfg.Active {
		return ErrNFTNotAccepted
	}
	cfg.Active = false
	if err := e.state.SaleTypePut(cfg); err != nil {
		return err
	}
	e.emit(typeRemovedEvent(id))
	return nil
}

// TypeResolved reports whether the type is currently active for sale.
func (e *PublicEngine) TypeResolved(id catalog.TypeID) bool {
	cfg, ok, err := e.state.SaleTypeGet(id)
	return err == nil && ok && cfg.Active
}

// AddStablecoin accepts a new payment asset. Re-adding fails.
func (e *PublicEngine) AddStablecoin(caller types.Address, asset types.Address) error {
	if err := common.RequireOwner(e, caller); err != nil {
		return err
	}
	return e.addStablecoin(asset)
}

func (e *PublicEngine) addStablecoin(asset types.Address) error {
	accepted, err := e.state.StablecoinAccepted(asset)
	if err != nil {
		return err
	}
	if accepted {
		return ErrTokenResolved
	}
	if err := e.state.StablecoinPut(asset, true); err != nil {
		return err
	}
	e.emit(stablecoinAddedEvent(asset))
	return nil
}

// RemoveStablecoin drops a payment asset. Removing an asset that was never
// accepted is a tolerated no-op.
func (e *PublicEngine) RemoveStablecoin(caller types.Address, asset types.Address) error {
	if err := common.RequireOwner(e, caller); err != nil {
		return err
	}
	if err := e.state.StablecoinPut(asset, false); err != nil {
		return err
	}
	e.emit(stablecoinRemovedEvent(asset))
	return nil
}

// StablecoinResolved reports whether the asset is currently accepted.
func (e *PublicEngine) StablecoinResolved(asset types.Address) bool {
	accepted, err := e.state.StablecoinAccepted(asset)
	return err == nil && accepted
}

// Buy purchases a single item of the given type, paying exactly the computed
// amount in the given stablecoin.
func (e *PublicEngine) Buy(buyer, asset types.Address, id catalog.TypeID, offered *big.Int) (*Receipt, error) {
	cfg, info, err := e.validateSale(buyer, asset, id)
	if err != nil {
		return nil, err
	}
	if info.Remaining() == 0 {
		return nil, ErrAllTokensBought
	}
	purchased, err := e.state.PurchasedCount(buyer, id)
	if err != nil {
		return nil, err
	}
	if purchased+1 > cfg.BuyLimit {
		return nil, ErrPurchaseLimitReached
	}
	if err := e.checkPayment(asset, info.NominalPrice, 1, offered); err != nil {
		return nil, err
	}
	return e.commit(buyer, asset, id, 1, purchased, offered)
}

// BuyBatch purchases count items of the given type atomically. Cap and supply
// shortfalls are detected before any payment or mint.
func (e *PublicEngine) BuyBatch(buyer, asset types.Address, id catalog.TypeID, offered *big.Int, count uint64) (*Receipt, error) {
	if count == 0 {
		return nil, ErrEmptyBatch
	}
	cfg, info, err := e.validateSale(buyer, asset, id)
	if err != nil {
		return nil, err
	}
	purchased, err := e.state.PurchasedCount(buyer, id)
	if err != nil {
		return nil, err
	}
	if purchased+count > cfg.BuyLimit {
		return nil, ErrTokensLimitExceeded
	}
	if info.Remaining() < count {
		return nil, ErrAllTokensBought
	}
	if err := e.checkPayment(asset, info.NominalPrice, count, offered); err != nil {
		return nil, err
	}
	return e.commit(buyer, asset, id, count, purchased, offered)
}

func (e *PublicEngine) validateSale(buyer, asset types.Address, id catalog.TypeID) (*TypeConfig, catalog.TypeInfo, error) {
	accepted, err := e.state.StablecoinAccepted(asset)
	if err != nil {
		return nil, catalog.TypeInfo{}, err
	}
	if !accepted {
		return nil, catalog.TypeInfo{}, ErrStablecoinNotAccepted
	}
	cfg, ok, err := e.state.SaleTypeGet(id)
	if err != nil {
		return nil, catalog.TypeInfo{}, err
	}
	if !ok || !cfg.Active {
		return nil, catalog.TypeInfo{}, ErrNFTNotAccepted
	}
	if e.members.Len() > 0 && !e.members.Contains(buyer) {
		return nil, catalog.TypeInfo{}, ErrNotFromWhiteList
	}
	info, err := e.collectible.TypeInfo(id)
	if err != nil {
		return nil, catalog.TypeInfo{}, err
	}
	return cfg, info, nil
}

func (e *PublicEngine) checkPayment(asset types.Address, nominalPrice, units uint64, offered *big.Int) error {
	decimals, err := e.stables.Decimals(asset)
	if err != nil {
		return err
	}
	required := requiredPayment(nominalPrice, units, decimals)
	if offered == nil || offered.Cmp(required) != 0 {
		return ErrWrongAmount
	}
	return nil
}

func (e *PublicEngine) commit(buyer, asset types.Address, id catalog.TypeID, units, purchased uint64, offered *big.Int) (*Receipt, error) {
	receipt, err := e.settle(buyer, asset, id, units, offered)
	if err != nil {
		return nil, err
	}
	for _, item := range receipt.Items {
		if err := e.state.CollectionAppend(buyer, item); err != nil {
			return nil, err
		}
	}
	if err := e.state.SetPurchasedCount(buyer, id, purchased+units); err != nil {
		return nil, err
	}
	e.emit(purchaseEvent(receipt))
	return receipt, nil
}

// CollectionLength reports how many items the account has purchased here.
func (e *PublicEngine) CollectionLength(account types.Address) (uint64, error) {
	return e.state.CollectionLen(account)
}

// CollectionItem returns the account's purchased item at the given insertion
// index.
func (e *PublicEngine) CollectionItem(account types.Address, index uint64) (catalog.ItemID, bool, error) {
	return e.state.CollectionAt(account, index)
}

// PurchasedCount reports the account's cumulative purchases of a type.
func (e *PublicEngine) PurchasedCount(account types.Address, id catalog.TypeID) (uint64, error) {
	return e.state.PurchasedCount(account, id)
}
