package token

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"

	"github.com/Alium-Finance/alium-collectible/core/types"
)

// LedgerSnapshot is a serializable copy of one ledger's state. Amounts are
// decimal strings so arbitrary-precision balances survive JSON encoding.
type LedgerSnapshot struct {
	Name        string              `json:"name"`
	Symbol      string              `json:"symbol"`
	Decimals    uint8               `json:"decimals"`
	TotalSupply string              `json:"totalSupply"`
	Balances    []BalanceSnapshot   `json:"balances"`
	Allowances  []AllowanceSnapshot `json:"allowances"`
}

// BalanceSnapshot records one holder's balance.
type BalanceSnapshot struct {
	Holder types.Address `json:"holder"`
	Amount string        `json:"amount"`
}

// AllowanceSnapshot records one spender grant.
type AllowanceSnapshot struct {
	Owner   types.Address `json:"owner"`
	Spender types.Address `json:"spender"`
	Amount  string        `json:"amount"`
}

// BankSnapshot captures every registered ledger keyed by asset address.
type BankSnapshot struct {
	Assets []AssetSnapshot `json:"assets"`
}

// AssetSnapshot binds a ledger snapshot to its asset address.
type AssetSnapshot struct {
	Asset  types.Address  `json:"asset"`
	Ledger LedgerSnapshot `json:"ledger"`
}

// Snapshot captures the ledger state in deterministic order.
func (l *Ledger) Snapshot() LedgerSnapshot {
	snap := LedgerSnapshot{
		Name:        l.name,
		Symbol:      l.symbol,
		Decimals:    l.decimals,
		TotalSupply: l.totalSupply.String(),
	}
	for holder, amount := range l.balances {
		if amount == nil || amount.Sign() == 0 {
			continue
		}
		snap.Balances = append(snap.Balances, BalanceSnapshot{Holder: holder, Amount: amount.String()})
	}
	sort.Slice(snap.Balances, func(i, j int) bool {
		return bytes.Compare(snap.Balances[i].Holder[:], snap.Balances[j].Holder[:]) < 0
	})
	for owner, grants := range l.allowances {
		for spender, amount := range grants {
			if amount == nil || amount.Sign() == 0 {
				continue
			}
			snap.Allowances = append(snap.Allowances, AllowanceSnapshot{Owner: owner, Spender: spender, Amount: amount.String()})
		}
	}
	sort.Slice(snap.Allowances, func(i, j int) bool {
		if c := bytes.Compare(snap.Allowances[i].Owner[:], snap.Allowances[j].Owner[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(snap.Allowances[i].Spender[:], snap.Allowances[j].Spender[:]) < 0
	})
	return snap
}

// RestoreLedger rebuilds a ledger from a snapshot.
func RestoreLedger(snap LedgerSnapshot) (*Ledger, error) {
	ledger := NewLedger(snap.Name, snap.Symbol, snap.Decimals)
	supply, err := parseAmount(snap.TotalSupply)
	if err != nil {
		return nil, fmt.Errorf("total supply: %w", err)
	}
	ledger.totalSupply = supply
	for _, balance := range snap.Balances {
		amount, err := parseAmount(balance.Amount)
		if err != nil {
			return nil, fmt.Errorf("balance of %s: %w", balance.Holder.Hex(), err)
		}
		ledger.balances[balance.Holder] = amount
	}
	for _, allowance := range snap.Allowances {
		amount, err := parseAmount(allowance.Amount)
		if err != nil {
			return nil, fmt.Errorf("allowance of %s: %w", allowance.Owner.Hex(), err)
		}
		grants, ok := ledger.allowances[allowance.Owner]
		if !ok {
			grants = make(map[types.Address]*big.Int)
			ledger.allowances[allowance.Owner] = grants
		}
		grants[allowance.Spender] = amount
	}
	return ledger, nil
}

// Snapshot captures every registered ledger in asset-address order.
func (b *Bank) Snapshot() BankSnapshot {
	var snap BankSnapshot
	for asset, ledger := range b.ledgers {
		snap.Assets = append(snap.Assets, AssetSnapshot{Asset: asset, Ledger: ledger.Snapshot()})
	}
	sort.Slice(snap.Assets, func(i, j int) bool {
		return bytes.Compare(snap.Assets[i].Asset[:], snap.Assets[j].Asset[:]) < 0
	})
	return snap
}

// RestoreBank rebuilds a bank and its ledgers from a snapshot.
func RestoreBank(snap BankSnapshot) (*Bank, error) {
	bank := NewBank()
	for _, asset := range snap.Assets {
		ledger, err := RestoreLedger(asset.Ledger)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", asset.Asset.Hex(), err)
		}
		bank.Register(asset.Asset, ledger)
	}
	return bank, nil
}

func parseAmount(raw string) (*big.Int, error) {
	if raw == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return amount, nil
}
