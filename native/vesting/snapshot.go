package vesting

import "math/big"

// FreezerSnapshot is a serializable copy of the freezer's accepted
// instructions. Per-account totals are rebuilt from the record log on
// restore.
type FreezerSnapshot struct {
	Records []FreezeRecord `json:"records"`
}

// Snapshot captures the freeze records in acceptance order.
func (f *Freezer) Snapshot() FreezerSnapshot {
	return FreezerSnapshot{Records: f.Records()}
}

// RestoreFreezer rebuilds a freezer from a snapshot. The emitter and clock
// start at their defaults; callers reattach theirs afterwards.
func RestoreFreezer(snap FreezerSnapshot) *Freezer {
	f := NewFreezer()
	for _, record := range snap.Records {
		locked := clone(record.Amount)
		current := f.frozen[record.Account]
		if current == nil {
			current = big.NewInt(0)
		}
		f.frozen[record.Account] = new(big.Int).Add(current, locked)
		f.records = append(f.records, FreezeRecord{
			Account: record.Account,
			Amount:  locked,
			NFTType: record.NFTType,
			At:      record.At,
		})
	}
	return f
}
