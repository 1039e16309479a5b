// Package party carries participant identity and the per-session
// parameters shared by every round of the Protocol Driver.
package party

import (
	"fmt"
	"math/big"
	"sort"
)

// ID identifies a participant in a signing session. Id and Moniker are
// for operators to track participants by; Key is the value the party's
// index is derived from by sorting.
type ID struct {
	Id      string
	Moniker string
	Key     []byte
	Index   int
}

type UnsortedIDs []*ID
type SortedIDs []*ID

// New constructs an ID with an unassigned index; call SortIDs to assign one.
func New(id, moniker string, key *big.Int) *ID {
	return &ID{Id: id, Moniker: moniker, Key: key.Bytes(), Index: -1}
}

func (p *ID) KeyInt() *big.Int {
	return new(big.Int).SetBytes(p.Key)
}

func (p *ID) ValidateBasic() bool {
	return p != nil && p.Key != nil && len(p.Key) > 0
}

func (p ID) String() string {
	return fmt.Sprintf("{%d,%s}", p.Index, p.Moniker)
}

// SortIDs sorts parties by key ascending and assigns Index in that order.
func SortIDs(ids UnsortedIDs, startAt ...int) SortedIDs {
	sorted := make(SortedIDs, len(ids))
	copy(sorted, ids)
	sort.Sort(sorted)
	frm := 0
	if len(startAt) > 0 {
		frm = startAt[0]
	}
	for i, id := range sorted {
		id.Index = i + frm
	}
	return sorted
}

func (s SortedIDs) Keys() []*big.Int {
	keys := make([]*big.Int, s.Len())
	for i, id := range s {
		keys[i] = id.KeyInt()
	}
	return keys
}

func (s SortedIDs) FindByKey(key *big.Int) *ID {
	for _, id := range s {
		if id.KeyInt().Cmp(key) == 0 {
			return id
		}
	}
	return nil
}

func (s SortedIDs) Len() int      { return len(s) }
func (s SortedIDs) Swap(a, b int) { s[a], s[b] = s[b], s[a] }
func (s SortedIDs) Less(a, b int) bool {
	return s[a].KeyInt().Cmp(s[b].KeyInt()) <= 0
}
