package router

import (
	"fmt"
	"strings"

	"github.com/superswap/superswap-engine-go/engine"
	"github.com/superswap/superswap-engine-go/pair"
)

// Path is an ordered token sequence for a multi-hop trade. Construct paths
// through NewPath; router operations re-validate arity regardless, so a
// hand-built slice cannot smuggle a degenerate path past validation.
type Path []engine.Token

// NewPath validates that a trade route names at least two tokens.
func NewPath(tokens ...engine.Token) (Path, error) {
	if len(tokens) < 2 {
		return nil, fmt.Errorf("%w: a path needs at least two tokens, got %d", engine.ErrInvalidPath, len(tokens))
	}
	path := make(Path, len(tokens))
	copy(path, tokens)
	return path, nil
}

// String renders the path as hop-joined hex identifiers, for logging.
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, token := range p {
		parts[i] = token.Hex()
	}
	return strings.Join(parts, " -> ")
}

// hop is one resolved step of a path. A nil pair marks a pass-through hop
// where both sides normalize to the same underlying asset; amounts cross it
// unchanged and no pool is touched.
type hop struct {
	tokenIn  engine.Token
	tokenOut engine.Token
	pair     *pair.Pair
}
