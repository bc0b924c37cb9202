package sale

import (
	"math/big"

	"github.com/Alium-Finance/alium-collectible/core/types"
	"github.com/Alium-Finance/alium-collectible/native/catalog"
)

// TypeConfig records a collectible type accepted by a sale engine. Removal
// deactivates the config rather than deleting it, so the one-way history of a
// type stays visible.
type TypeConfig struct {
	ID       catalog.TypeID `json:"id"`
	Active   bool           `json:"active"`
	BuyLimit uint64         `json:"buyLimit"`
}

// TypeSeed is the constructor-time pairing of a type id with its per-account
// purchase limit.
type TypeSeed struct {
	ID       catalog.TypeID
	BuyLimit uint64
}

// Receipt captures one successful purchase. Its ID is deterministic over
// buyer, type and first minted item, so replays of the same turn reproduce
// the same receipt.
type Receipt struct {
	ID      [32]byte         `json:"id"`
	Buyer   types.Address    `json:"buyer"`
	Asset   types.Address    `json:"asset"`
	NFTType catalog.TypeID   `json:"nftType"`
	Units   uint64           `json:"units"`
	Paid    *big.Int         `json:"paid"`
	Items   []catalog.ItemID `json:"items"`
	At      int64            `json:"at"`
}

// Collectible is the slice of the catalog registry the sale engines consume.
// Supply is never cached locally; every purchase re-queries it here.
type Collectible interface {
	TypeExists(id catalog.TypeID) bool
	TypeInfo(id catalog.TypeID) (catalog.TypeInfo, error)
	MintCheck(caller types.Address, id catalog.TypeID) error
	Mint(caller, to types.Address, id catalog.TypeID) (catalog.ItemID, error)
}

// Stablecoins resolves accepted payment assets to transferable ledgers.
type Stablecoins interface {
	Decimals(asset types.Address) (uint8, error)
	TransferFrom(asset, spender, from, to types.Address, amount *big.Int) error
	Transfer(asset, from, to types.Address, amount *big.Int) error
	BalanceOf(asset, holder types.Address) (*big.Int, error)
}

// StablecoinState persists the accepted-asset set.
type StablecoinState interface {
	StablecoinAccepted(asset types.Address) (bool, error)
	StablecoinPut(asset types.Address, accepted bool) error
}

// PublicState is the persistence surface of the public sale engine.
type PublicState interface {
	StablecoinState
	SaleTypeGet(id catalog.TypeID) (*TypeConfig, bool, error)
	SaleTypePut(cfg *TypeConfig) error
	PurchasedCount(account types.Address, id catalog.TypeID) (uint64, error)
	SetPurchasedCount(account types.Address, id catalog.TypeID, count uint64) error
	CollectionAppend(account types.Address, item catalog.ItemID) error
	CollectionLen(account types.Address) (uint64, error)
	CollectionAt(account types.Address, index uint64) (catalog.ItemID, bool, error)
}

// StrategicState is the persistence surface of the strategic sale engine.
// HasPurchased flips to true exactly once per account and never resets.
type StrategicState interface {
	StablecoinState
	HasPurchased(account types.Address) (bool, error)
	SetPurchased(account types.Address) error
}
