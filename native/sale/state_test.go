package sale

import (
	"github.com/Alium-Finance/alium-collectible/core/types"
	"github.com/Alium-Finance/alium-collectible/native/catalog"
)

type purchaseKey struct {
	account types.Address
	typeID  catalog.TypeID
}

// memState is an in-memory implementation of both engine state surfaces.
type memState struct {
	stables     map[types.Address]bool
	typeTable   map[catalog.TypeID]*TypeConfig
	purchases   map[purchaseKey]uint64
	collections map[types.Address][]catalog.ItemID
	purchased   map[types.Address]bool
}

func newMemState() *memState {
	return &memState{
		stables:     make(map[types.Address]bool),
		typeTable:   make(map[catalog.TypeID]*TypeConfig),
		purchases:   make(map[purchaseKey]uint64),
		collections: make(map[types.Address][]catalog.ItemID),
		purchased:   make(map[types.Address]bool),
	}
}

func (m *memState) StablecoinAccepted(asset types.Address) (bool, error) {
	return m.stables[asset], nil
}

func (m *memState) StablecoinPut(asset types.Address, accepted bool) error {
	if accepted {
		m.stables[asset] = true
	} else {
		delete(m.stables, asset)
	}
	return nil
}

func (m *memState) SaleTypeGet(id catalog.TypeID) (*TypeConfig, bool, error) {
	cfg, ok := m.typeTable[id]
	if !ok {
		return nil, false, nil
	}
	clone := *cfg
	return &clone, true, nil
}

func (m *memState) SaleTypePut(cfg *TypeConfig) error {
	clone := *cfg
	m.typeTable[cfg.ID] = &clone
	return nil
}

func (m *memState) PurchasedCount(account types.Address, id catalog.TypeID) (uint64, error) {
	return m.purchases[purchaseKey{account: account, typeID: id}], nil
}

func (m *memState) SetPurchasedCount(account types.Address, id catalog.TypeID, count uint64) error {
	m.purchases[purchaseKey{account: account, typeID: id}] = count
	return nil
}

func (m *memState) CollectionAppend(account types.Address, item catalog.ItemID) error {
	m.collections[account] = append(m.collections[account], item)
	return nil
}

func (m *memState) CollectionLen(account types.Address) (uint64, error) {
	return uint64(len(m.collections[account])), nil
}

func (m *memState) CollectionAt(account types.Address, index uint64) (catalog.ItemID, bool, error) {
	items := m.collections[account]
	if index >= uint64(len(items)) {
		return 0, false, nil
	}
	return items[index], true, nil
}

func (m *memState) HasPurchased(account types.Address) (bool, error) {
	return m.purchased[account], nil
}

func (m *memState) SetPurchased(account types.Address) error {
	m.purchased[account] = true
	return nil
}
