package sale

import (
	"math/big"

	"github.com/Alium-Finance/alium-collectible/core/types"
	"github.com/Alium-Finance/alium-collectible/native/catalog"
	"github.com/Alium-Finance/alium-collectible/native/common"
)

// StrategicConfig wires a strategic private sale engine. Whitelist, types and
// stablecoins are fixed at construction; no membership mutation is exposed
// afterwards.
type StrategicConfig struct {
	Owner       types.Address
	Founder     types.Address
	Self        types.Address
	Collectible Collectible
	Stables     Stablecoins
	State       StrategicState
	Types       []catalog.TypeID
	Stablecoins []types.Address
	WhiteList   []types.Address
}

// StrategicEngine sells catalog items to a fixed whitelist, each member
// limited to exactly one purchase for the engine's lifetime.
type StrategicEngine struct {
	engine
	state     StrategicState
	members   *common.MemberSet
	typeTable map[catalog.TypeID]bool
}

// NewStrategicEngine validates the fixed type set against the catalog and
// seeds the accepted stablecoins.
func NewStrategicEngine(cfg StrategicConfig) (*StrategicEngine, error) {
	base, err := newEngine(cfg.Owner, cfg.Founder, cfg.Self, cfg.Collectible, cfg.Stables)
	if err != nil {
		return nil, err
	}
	if cfg.State == nil {
		return nil, errNilState
	}
	e := &StrategicEngine{
		engine:    base,
		state:     cfg.State,
		members:   common.NewMemberSet(accountsToKeys(cfg.WhiteList)...),
		typeTable: make(map[catalog.TypeID]bool, len(cfg.Types)),
	}
	for _, id := range cfg.Types {
		if !e.collectible.TypeExists(id) {
			return nil, ErrStrategicTypeNotInitialized
		}
		e.typeTable[id] = true
	}
	for _, asset := range cfg.Stablecoins {
		if err := e.state.StablecoinPut(asset, true); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Whitelisted reports whether the account may ever buy here.
func (e *StrategicEngine) Whitelisted(account types.Address) bool {
	return e.members.Contains(account)
}

// HasPurchased reports whether the account has used its single purchase.
func (e *StrategicEngine) HasPurchased(account types.Address) (bool, error) {
	return e.state.HasPurchased(account)
}

// Buy purchases a single item of the given type for a whitelisted account.
// The checks run in a fixed precedence: whitelist membership first, then
// payment asset, type, the one-shot purchase flag, supply and finally the
// offered amount. A non-whitelisted caller is rejected before any other
// input is looked at.
func (e *StrategicEngine) Buy(buyer, asset types.Address, id catalog.TypeID, offered *big.Int) (*Receipt, error) {
	if !e.members.Contains(buyer) {
		return nil, ErrNotFromPrivateList
	}
	accepted, err := e.state.StablecoinAccepted(asset)
	if err != nil {
		return nil, err
	}
	if !accepted {
		return nil, ErrStrategicStablecoinRejected
	}
	if !e.typeTable[id] {
		return nil, ErrStrategicNFTRejected
	}
	bought, err := e.state.HasPurchased(buyer)
	if err != nil {
		return nil, err
	}
	if bought {
		return nil, ErrAttemptsExhausted
	}
	info, err := e.collectible.TypeInfo(id)
	if err != nil {
		return nil, err
	}
	if info.Remaining() == 0 {
		return nil, ErrStrategicAllTokensBought
	}
	decimals, err := e.stables.Decimals(asset)
	if err != nil {
		return nil, err
	}
	required := requiredPayment(info.NominalPrice, 1, decimals)
	if offered == nil || offered.Cmp(required) != 0 {
		return nil, ErrStrategicWrongAmount
	}
	receipt, err := e.settle(buyer, asset, id, 1, offered)
	if err != nil {
		return nil, err
	}
	if err := e.state.SetPurchased(buyer); err != nil {
		return nil, err
	}
	e.emit(purchaseEvent(receipt))
	return receipt, nil
}
