package common

import (
	"bytes"
	"sort"
)

// MemberSet tracks a fixed or admin-extended collection of accounts eligible
// for a gated sale. Membership is insertion-deduplicated; removal is not part
// of the observed surface and is intentionally absent.
type MemberSet struct {
	members map[[20]byte]struct{}
}

// NewMemberSet seeds a member set with the supplied accounts.
func NewMemberSet(accounts ...[20]byte) *MemberSet {
	set := &MemberSet{members: make(map[[20]byte]struct{}, len(accounts))}
	for _, acc := range accounts {
		set.members[acc] = struct{}{}
	}
	return set
}

// Add registers additional accounts. Re-adding an existing member is a no-op.
func (s *MemberSet) Add(accounts ...[20]byte) {
	if s == nil {
		return
	}
	if s.members == nil {
		s.members = make(map[[20]byte]struct{}, len(accounts))
	}
	for _, acc := range accounts {
		s.members[acc] = struct{}{}
	}
}

// Contains reports whether the account is a member.
func (s *MemberSet) Contains(account [20]byte) bool {
	if s == nil || s.members == nil {
		return false
	}
	_, ok := s.members[account]
	return ok
}

// Keys returns the members in byte order, suitable for snapshots.
func (s *MemberSet) Keys() [][20]byte {
	if s == nil || len(s.members) == 0 {
		return nil
	}
	keys := make([][20]byte, 0, len(s.members))
	for acc := range s.members {
		keys = append(keys, acc)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })
	return keys
}

// Len reports the number of members.
func (s *MemberSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.members)
}
