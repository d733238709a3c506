package registry

import (
	"github.com/superswap/superswap-engine-go/bitset"
	"github.com/superswap/superswap-engine-go/engine"
	"github.com/superswap/superswap-engine-go/pair"
)

// edge is one direction of a pair: the token at the far end and the pair
// serving it. At most one pair exists per token combination, so an edge
// carries exactly one pair.
type edge struct {
	target int
	pair   *pair.Pair
}

// tokenIndex is the token adjacency graph backing Neighbors, PairsWith, and
// HasRoute. Tokens and edges live in slices for cache-friendly traversal;
// the map is only the entry point. Not safe for concurrent use by itself:
// the registry's lock guards it.
type tokenIndex struct {
	tokenToIndex map[engine.Token]int
	tokens       []engine.Token
	adjacency    [][]edge
}

func newTokenIndex() *tokenIndex {
	return &tokenIndex{
		tokenToIndex: make(map[engine.Token]int),
	}
}

func (ti *tokenIndex) indexOf(token engine.Token) int {
	if index, ok := ti.tokenToIndex[token]; ok {
		return index
	}
	index := len(ti.tokens)
	ti.tokens = append(ti.tokens, token)
	ti.adjacency = append(ti.adjacency, nil)
	ti.tokenToIndex[token] = index
	return index
}

// add records both directions of a newly created pair. The registry
// guarantees each key is added at most once.
func (ti *tokenIndex) add(key engine.PairKey, p *pair.Pair) {
	index0 := ti.indexOf(key.Token0)
	index1 := ti.indexOf(key.Token1)
	ti.adjacency[index0] = append(ti.adjacency[index0], edge{target: index1, pair: p})
	ti.adjacency[index1] = append(ti.adjacency[index1], edge{target: index0, pair: p})
}

func (ti *tokenIndex) neighbors(token engine.Token) []engine.Token {
	index, ok := ti.tokenToIndex[token]
	if !ok {
		return nil
	}
	out := make([]engine.Token, 0, len(ti.adjacency[index]))
	for _, e := range ti.adjacency[index] {
		out = append(out, ti.tokens[e.target])
	}
	return out
}

func (ti *tokenIndex) pairsWith(token engine.Token) []*pair.Pair {
	index, ok := ti.tokenToIndex[token]
	if !ok {
		return nil
	}
	out := make([]*pair.Pair, 0, len(ti.adjacency[index]))
	for _, e := range ti.adjacency[index] {
		out = append(out, e.pair)
	}
	return out
}

// hasRoute runs a breadth-first search from one token to the other. The
// visited set is a dense bitset over token indices.
func (ti *tokenIndex) hasRoute(from, to engine.Token) bool {
	fromIndex, ok := ti.tokenToIndex[from]
	if !ok {
		return false
	}
	toIndex, ok := ti.tokenToIndex[to]
	if !ok {
		return false
	}
	if fromIndex == toIndex {
		return true
	}

	visited := bitset.NewBitSet(uint64(len(ti.tokens)))
	visited.Set(uint64(fromIndex))
	queue := []int{fromIndex}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, e := range ti.adjacency[current] {
			if e.target == toIndex {
				return true
			}
			if !visited.IsSet(uint64(e.target)) {
				visited.Set(uint64(e.target))
				queue = append(queue, e.target)
			}
		}
	}
	return false
}
