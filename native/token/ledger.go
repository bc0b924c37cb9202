package token

import (
	"errors"
	"math/big"

	"github.com/Alium-Finance/alium-collectible/core/types"
)

var (
	ErrInsufficientBalance   = errors.New("Token: insufficient balance")
	ErrInsufficientAllowance = errors.New("Token: insufficient allowance")
	ErrInvalidAmount         = errors.New("Token: amount must be positive")
)

// DefaultDecimals matches the stablecoins the sale engines are priced
// against.
const DefaultDecimals uint8 = 18

// Ledger is a decimals-aware fungible balance sheet with the allowance
// semantics the sale engines rely on to pull payment from buyers. It is
// single-writer; callers serialize mutating operations.
type Ledger struct {
	name        string
	symbol      string
	decimals    uint8
	totalSupply *big.Int
	balances    map[types.Address]*big.Int
	allowances  map[types.Address]map[types.Address]*big.Int
}

// NewLedger constructs an empty ledger. A zero decimals argument falls back
// to DefaultDecimals.
func NewLedger(name, symbol string, decimals uint8) *Ledger {
	if decimals == 0 {
		decimals = DefaultDecimals
	}
	return &Ledger{
		name:        name,
		symbol:      symbol,
		decimals:    decimals,
		totalSupply: big.NewInt(0),
		balances:    make(map[types.Address]*big.Int),
		allowances:  make(map[types.Address]map[types.Address]*big.Int),
	}
}

// Name returns the ledger's display name.
func (l *Ledger) Name() string { return l.name }

// Symbol returns the ledger's ticker symbol.
func (l *Ledger) Symbol() string { return l.symbol }

// Decimals returns the precision used when scaling nominal prices.
func (l *Ledger) Decimals() uint8 { return l.decimals }

// TotalSupply returns the amount currently in circulation.
func (l *Ledger) TotalSupply() *big.Int { return clone(l.totalSupply) }

// BalanceOf returns the holder's current balance.
func (l *Ledger) BalanceOf(holder types.Address) *big.Int {
	return clone(l.balances[holder])
}

// Mint credits freshly issued units to the recipient.
func (l *Ledger) Mint(to types.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.credit(to, amount)
	l.totalSupply = new(big.Int).Add(l.totalSupply, amount)
	return nil
}

// Burn destroys units held by the holder.
func (l *Ledger) Burn(holder types.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := l.debit(holder, amount); err != nil {
		return err
	}
	l.totalSupply = new(big.Int).Sub(l.totalSupply, amount)
	return nil
}

// Transfer moves units between holders on the holder's own authority.
func (l *Ledger) Transfer(from, to types.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := l.debit(from, amount); err != nil {
		return err
	}
	l.credit(to, amount)
	return nil
}

// Approve sets the amount spender may transfer out of owner's balance.
func (l *Ledger) Approve(owner, spender types.Address, amount *big.Int) {
	grants, ok := l.allowances[owner]
	if !ok {
		grants = make(map[types.Address]*big.Int)
		l.allowances[owner] = grants
	}
	grants[spender] = clone(amount)
}

// Allowance reports how much spender may still transfer out of owner's
// balance.
func (l *Ledger) Allowance(owner, spender types.Address) *big.Int {
	return clone(l.allowances[owner][spender])
}

// TransferFrom moves units out of from's balance on spender's authority,
// decrementing the allowance. A holder spending its own balance needs no
// allowance. The allowance is only consumed once the debit has succeeded, so
// a failed transfer leaves both sides untouched.
func (l *Ledger) TransferFrom(spender, from, to types.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	var granted *big.Int
	if spender != from {
		granted = l.allowances[from][spender]
		if granted == nil || granted.Cmp(amount) < 0 {
			return ErrInsufficientAllowance
		}
	}
	if err := l.debit(from, amount); err != nil {
		return err
	}
	if granted != nil {
		l.allowances[from][spender] = new(big.Int).Sub(granted, amount)
	}
	l.credit(to, amount)
	return nil
}

func (l *Ledger) credit(holder types.Address, amount *big.Int) {
	current := l.balances[holder]
	if current == nil {
		current = big.NewInt(0)
	}
	l.balances[holder] = new(big.Int).Add(current, amount)
}

func (l *Ledger) debit(holder types.Address, amount *big.Int) error {
	current := l.balances[holder]
	if current == nil || current.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	l.balances[holder] = new(big.Int).Sub(current, amount)
	return nil
}

func clone(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
