// Package snapshot provides immutable point-in-time views of the pair
// ledger, plus diffing and patching between views. Hosts use it to observe
// state across operations without holding any engine lock.
package snapshot

import (
	"math/big"

	"github.com/superswap/superswap-engine-go/engine"
	"github.com/superswap/superswap-engine-go/registry"
)

// PairState is one pair's observable state. All big.Int fields are owned by
// the snapshot and never aliased into live pairs.
type PairState struct {
	Key         engine.PairKey `json:"key"`
	Reserve0    *big.Int       `json:"reserve0"`
	Reserve1    *big.Int       `json:"reserve1"`
	TotalShares *big.Int       `json:"totalShares"`
}

func deepCopyState(s PairState) PairState {
	copied := s
	if s.Reserve0 != nil {
		copied.Reserve0 = new(big.Int).Set(s.Reserve0)
	}
	if s.Reserve1 != nil {
		copied.Reserve1 = new(big.Int).Set(s.Reserve1)
	}
	if s.TotalShares != nil {
		copied.TotalShares = new(big.Int).Set(s.TotalShares)
	}
	return copied
}

// Capture reads every pair in the registry into an independent snapshot,
// in pair creation order. Each pair is read under its own lock; the snapshot
// as a whole is not a single atomic cut across pairs.
func Capture(reg *registry.Registry) []PairState {
	pairs := reg.AllPairs()
	states := make([]PairState, 0, len(pairs))
	for _, p := range pairs {
		reserve0, reserve1 := p.Reserves()
		states = append(states, PairState{
			Key:         p.Key(),
			Reserve0:    reserve0,
			Reserve1:    reserve1,
			TotalShares: p.TotalShares(),
		})
	}
	return states
}

// Diff is the change set between two snapshots.
type Diff struct {
	Additions []PairState      `json:"additions,omitempty"`
	Updates   []PairState      `json:"updates,omitempty"`
	Deletions []engine.PairKey `json:"deletions,omitempty"`
}

// IsEmpty returns true if the diff contains no changes.
func (d Diff) IsEmpty() bool {
	return len(d.Additions) == 0 && len(d.Updates) == 0 && len(d.Deletions) == 0
}

func equalState(a, b PairState) bool {
	return a.Reserve0.Cmp(b.Reserve0) == 0 &&
		a.Reserve1.Cmp(b.Reserve1) == 0 &&
		a.TotalShares.Cmp(b.TotalShares) == 0
}

// Differ computes the change set that transforms old into new. Both inputs
// are keyed by pair identity; additions and updates carry the new state.
// Pairs are never deleted by the engine, so Deletions stays empty for
// snapshots of the same registry, but the diff handles them for generality.
func Differ(old, new []PairState) Diff {
	oldByKey := make(map[engine.PairKey]PairState, len(old))
	for _, s := range old {
		oldByKey[s.Key] = s
	}

	var diff Diff
	seen := make(map[engine.PairKey]struct{}, len(new))
	for _, s := range new {
		seen[s.Key] = struct{}{}
		prev, ok := oldByKey[s.Key]
		switch {
		case !ok:
			diff.Additions = append(diff.Additions, deepCopyState(s))
		case !equalState(prev, s):
			diff.Updates = append(diff.Updates, deepCopyState(s))
		}
	}
	for _, s := range old {
		if _, ok := seen[s.Key]; !ok {
			diff.Deletions = append(diff.Deletions, s.Key)
		}
	}
	return diff
}

// Patcher applies a diff to a previous snapshot and returns the resulting
// snapshot. The result shares no memory with either input. Previous-state
// order is preserved for surviving pairs; additions append in diff order.
func Patcher(prev []PairState, diff Diff) []PairState {
	deleted := make(map[engine.PairKey]struct{}, len(diff.Deletions))
	for _, key := range diff.Deletions {
		deleted[key] = struct{}{}
	}
	updated := make(map[engine.PairKey]PairState, len(diff.Updates))
	for _, s := range diff.Updates {
		updated[s.Key] = s
	}

	next := make([]PairState, 0, len(prev)+len(diff.Additions))
	for _, s := range prev {
		if _, ok := deleted[s.Key]; ok {
			continue
		}
		if upd, ok := updated[s.Key]; ok {
			next = append(next, deepCopyState(upd))
			continue
		}
		next = append(next, deepCopyState(s))
	}
	for _, s := range diff.Additions {
		next = append(next, deepCopyState(s))
	}
	return next
}
