package catalog

import (
	"bytes"
	"sort"

	"github.com/Alium-Finance/alium-collectible/core/types"
)

// RegistrySnapshot is a serializable copy of the full registry state. It
// carries everything needed to rebuild the registry after a restart: supply
// counters, per-item ownership with receipt order, minter roles and transfer
// approvals.
type RegistrySnapshot struct {
	Owner     types.Address      `json:"owner"`
	NextType  TypeID             `json:"nextType"`
	NextItem  ItemID             `json:"nextItem"`
	Types     []TypeInfo         `json:"types"`
	Items     []ItemSnapshot     `json:"items"`
	Holdings  []HoldingSnapshot  `json:"holdings"`
	Minters   []types.Address    `json:"minters"`
	Approvals []ApprovalSnapshot `json:"approvals"`
	Operators []OperatorSnapshot `json:"operators"`
}

// ItemSnapshot records one minted item and its current owner.
type ItemSnapshot struct {
	ID    ItemID        `json:"id"`
	Type  TypeID        `json:"type"`
	Owner types.Address `json:"owner"`
}

// HoldingSnapshot records a holder's items in receipt order.
type HoldingSnapshot struct {
	Holder types.Address `json:"holder"`
	Items  []ItemID      `json:"items"`
}

// ApprovalSnapshot records a single-item transfer approval.
type ApprovalSnapshot struct {
	Item     ItemID        `json:"item"`
	Operator types.Address `json:"operator"`
}

// OperatorSnapshot records an approve-for-all grant.
type OperatorSnapshot struct {
	Holder   types.Address `json:"holder"`
	Operator types.Address `json:"operator"`
}

// Snapshot captures the registry state in deterministic order so repeated
// snapshots of the same state serialize identically.
func (r *Registry) Snapshot() RegistrySnapshot {
	snap := RegistrySnapshot{
		Owner:    r.owner,
		NextType: r.nextType,
		NextItem: r.nextItem,
	}
	for _, rec := range r.typeTable {
		snap.Types = append(snap.Types, rec.info)
	}
	sort.Slice(snap.Types, func(i, j int) bool { return snap.Types[i].ID < snap.Types[j].ID })
	for id, rec := range r.items {
		snap.Items = append(snap.Items, ItemSnapshot{ID: id, Type: rec.typeID, Owner: rec.owner})
	}
	sort.Slice(snap.Items, func(i, j int) bool { return snap.Items[i].ID < snap.Items[j].ID })
	for holder, held := range r.holdings {
		if len(held) == 0 {
			continue
		}
		snap.Holdings = append(snap.Holdings, HoldingSnapshot{Holder: holder, Items: append([]ItemID(nil), held...)})
	}
	sort.Slice(snap.Holdings, func(i, j int) bool {
		return bytes.Compare(snap.Holdings[i].Holder[:], snap.Holdings[j].Holder[:]) < 0
	})
	for minter, ok := range r.minters {
		if ok {
			snap.Minters = append(snap.Minters, minter)
		}
	}
	sortAddresses(snap.Minters)
	for item, operator := range r.itemApproval {
		snap.Approvals = append(snap.Approvals, ApprovalSnapshot{Item: item, Operator: operator})
	}
	sort.Slice(snap.Approvals, func(i, j int) bool { return snap.Approvals[i].Item < snap.Approvals[j].Item })
	for holder, ops := range r.operators {
		for operator, approved := range ops {
			if approved {
				snap.Operators = append(snap.Operators, OperatorSnapshot{Holder: holder, Operator: operator})
			}
		}
	}
	sort.Slice(snap.Operators, func(i, j int) bool {
		if c := bytes.Compare(snap.Operators[i].Holder[:], snap.Operators[j].Holder[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(snap.Operators[i].Operator[:], snap.Operators[j].Operator[:]) < 0
	})
	return snap
}

// RestoreRegistry rebuilds a registry from a snapshot. The emitter starts as
// a no-op; callers reattach theirs with SetEmitter.
func RestoreRegistry(snap RegistrySnapshot) *Registry {
	r := NewRegistry(snap.Owner)
	if snap.NextType > r.nextType {
		r.nextType = snap.NextType
	}
	if snap.NextItem > r.nextItem {
		r.nextItem = snap.NextItem
	}
	for _, info := range snap.Types {
		r.typeTable[info.ID] = &typeRecord{info: info}
	}
	for _, item := range snap.Items {
		r.items[item.ID] = &itemRecord{typeID: item.Type, owner: item.Owner}
	}
	for _, holding := range snap.Holdings {
		r.holdings[holding.Holder] = append([]ItemID(nil), holding.Items...)
	}
	for _, minter := range snap.Minters {
		r.minters[minter] = true
	}
	for _, approval := range snap.Approvals {
		r.itemApproval[approval.Item] = approval.Operator
	}
	for _, grant := range snap.Operators {
		ops, ok := r.operators[grant.Holder]
		if !ok {
			ops = make(map[types.Address]bool)
			r.operators[grant.Holder] = ops
		}
		ops[grant.Operator] = true
	}
	return r
}

func sortAddresses(addrs []types.Address) {
	sort.Slice(addrs, func(i, j int) bool { return bytes.Compare(addrs[i][:], addrs[j][:]) < 0 })
}
