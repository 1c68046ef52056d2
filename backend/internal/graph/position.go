package graph

import (
	"math/rand"
	"sync"

	"cybernauts/backend/internal/domain"
)

// PositionProvider supplies a layout position for users that have none stored
type PositionProvider interface {
	Position(index int) domain.Position
}

// RandomPositions scatters nodes uniformly over a square canvas
type RandomPositions struct {
	mu   sync.Mutex
	rng  *rand.Rand
	Size float64
}

// NewRandomPositions creates a provider over [0,size)x[0,size)
func NewRandomPositions(size float64, seed int64) *RandomPositions {
	return &RandomPositions{
		rng:  rand.New(rand.NewSource(seed)),
		Size: size,
	}
}

func (p *RandomPositions) Position(int) domain.Position {
	p.mu.Lock()
	defer p.mu.Unlock()
	return domain.Position{
		X: p.rng.Float64() * p.Size,
		Y: p.rng.Float64() * p.Size,
	}
}

// GridPositions lays nodes out row by row with a fixed spacing
type GridPositions struct {
	Columns int
	Spacing float64
	Offset  float64
}

// NewGridPositions creates a grid layout
func NewGridPositions(columns int, spacing, offset float64) *GridPositions {
	if columns < 1 {
		columns = 1
	}
	return &GridPositions{Columns: columns, Spacing: spacing, Offset: offset}
}

func (g *GridPositions) Position(index int) domain.Position {
	if index < 0 {
		index = 0
	}
	return domain.Position{
		X: float64(index%g.Columns)*g.Spacing + g.Offset,
		Y: float64(index/g.Columns)*g.Spacing + g.Offset,
	}
}

// DefaultCanvas is the side length used for random placement
const DefaultCanvas = 400.0

// NewPositionProvider returns the provider for a layout name ("random" or "grid")
func NewPositionProvider(layout string, seed int64) PositionProvider {
	if layout == "grid" {
		return NewGridPositions(15, 250, 100)
	}
	return NewRandomPositions(DefaultCanvas, seed)
}
