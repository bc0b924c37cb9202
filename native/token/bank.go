package token

import (
	"errors"
	"math/big"

	"github.com/Alium-Finance/alium-collectible/core/types"
)

// ErrUnknownAsset is returned when an operation references an asset address
// no ledger has been registered under.
var ErrUnknownAsset = errors.New("Token: unknown asset")

// Bank resolves asset addresses to fungible ledgers. The sale engines speak
// to stablecoins by address; the bank is the directory behind that.
type Bank struct {
	ledgers map[types.Address]*Ledger
}

// NewBank constructs an empty asset directory.
func NewBank() *Bank {
	return &Bank{ledgers: make(map[types.Address]*Ledger)}
}

// Register binds a ledger to an asset address, replacing any prior binding.
func (b *Bank) Register(asset types.Address, ledger *Ledger) {
	b.ledgers[asset] = ledger
}

// Ledger returns the ledger registered under the asset address.
func (b *Bank) Ledger(asset types.Address) (*Ledger, bool) {
	ledger, ok := b.ledgers[asset]
	return ledger, ok
}

// Decimals reports the precision of the asset.
func (b *Bank) Decimals(asset types.Address) (uint8, error) {
	ledger, ok := b.ledgers[asset]
	if !ok {
		return 0, ErrUnknownAsset
	}
	return ledger.Decimals(), nil
}

// BalanceOf reports the holder's balance in the asset.
func (b *Bank) BalanceOf(asset, holder types.Address) (*big.Int, error) {
	ledger, ok := b.ledgers[asset]
	if !ok {
		return nil, ErrUnknownAsset
	}
	return ledger.BalanceOf(holder), nil
}

// Mint issues fresh asset units to the recipient.
func (b *Bank) Mint(asset, to types.Address, amount *big.Int) error {
	ledger, ok := b.ledgers[asset]
	if !ok {
		return ErrUnknownAsset
	}
	return ledger.Mint(to, amount)
}

// Approve sets the amount spender may transfer out of owner's asset balance.
func (b *Bank) Approve(asset, owner, spender types.Address, amount *big.Int) error {
	ledger, ok := b.ledgers[asset]
	if !ok {
		return ErrUnknownAsset
	}
	ledger.Approve(owner, spender, amount)
	return nil
}

// Allowance reports how much spender may still transfer out of owner's asset
// balance.
func (b *Bank) Allowance(asset, owner, spender types.Address) (*big.Int, error) {
	ledger, ok := b.ledgers[asset]
	if !ok {
		return nil, ErrUnknownAsset
	}
	return ledger.Allowance(owner, spender), nil
}

// Transfer moves asset units on the holder's own authority.
func (b *Bank) Transfer(asset, from, to types.Address, amount *big.Int) error {
	ledger, ok := b.ledgers[asset]
	if !ok {
		return ErrUnknownAsset
	}
	return ledger.Transfer(from, to, amount)
}

// TransferFrom moves asset units on the spender's authority.
func (b *Bank) TransferFrom(asset, spender, from, to types.Address, amount *big.Int) error {
	ledger, ok := b.ledgers[asset]
	if !ok {
		return ErrUnknownAsset
	}
	return ledger.TransferFrom(spender, from, to, amount)
}
