package catalog

import "github.com/Alium-Finance/alium-collectible/core/types"

// TypeID identifies a category of collectible with its own nominal price and
// supply ceiling. IDs are assigned sequentially starting at 1.
type TypeID uint64

// ItemID identifies an individual minted collectible. IDs are assigned
// sequentially starting at 1 across all types.
type ItemID uint64

// TypeInfo describes the registered configuration of a collectible type.
type TypeInfo struct {
	ID            TypeID        `json:"id"`
	NominalPrice  uint64        `json:"nominalPrice"`
	InitialSupply uint64        `json:"initialSupply"`
	Minted        uint64        `json:"minted"`
	Info          string        `json:"info"`
	MinterOnly    types.Address `json:"minterOnly"`
}

// Remaining reports how many items of the type can still be minted.
func (t TypeInfo) Remaining() uint64 {
	if t.Minted >= t.InitialSupply {
		return 0
	}
	return t.InitialSupply - t.Minted
}
