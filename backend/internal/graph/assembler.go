// Package graph turns a page of user records into the node/edge view used by
// the graph frontend, including popularity scoring.
package graph

import (
	"context"
	"fmt"

	"cybernauts/backend/internal/domain"
)

// Resolver batch-loads users by id. Ids with no record are omitted.
type Resolver func(ctx context.Context, ids []string) ([]domain.User, error)

// Input is one graph page request with its primary records already loaded
type Input struct {
	Primary            []domain.User
	Total              int64
	Page               int
	Limit              int
	IncludeConnections bool
	Resolve            Resolver
}

// Assembler builds graph pages. It holds no state beyond the position provider.
type Assembler struct {
	positions PositionProvider
}

// NewAssembler creates an assembler; nil positions means random placement
func NewAssembler(positions PositionProvider) *Assembler {
	if positions == nil {
		positions = NewRandomPositions(DefaultCanvas, 1)
	}
	return &Assembler{positions: positions}
}

// Assemble scores every primary user and, with connections enabled, emits one
// edge per friendship whose both ends are known. Friend ids that resolve to
// nothing are ignored.
func (a *Assembler) Assemble(ctx context.Context, in Input) (Graph, error) {
	lookup := make(map[string]domain.User, len(in.Primary))
	for _, u := range in.Primary {
		lookup[u.ID] = u
	}

	if in.IncludeConnections {
		if err := a.resolveFriends(ctx, in, lookup); err != nil {
			return Graph{}, err
		}
	}

	nodes := make([]Node, 0, len(in.Primary))
	for i, u := range in.Primary {
		nodes = append(nodes, a.node(u, i, lookup, in.IncludeConnections))
	}

	edges := []Edge{}
	if in.IncludeConnections {
		edges = buildEdges(in.Primary, lookup)
	}

	return Graph{
		Nodes:      nodes,
		Edges:      edges,
		Pagination: BuildPagination(in.Page, in.Limit, len(in.Primary), in.Total),
	}, nil
}

// resolveFriends loads every friend of the page not already present, in one batch
func (a *Assembler) resolveFriends(ctx context.Context, in Input, lookup map[string]domain.User) error {
	missing := make([]string, 0)
	queued := make(map[string]bool)
	for _, u := range in.Primary {
		for _, fid := range u.Friends {
			if _, ok := lookup[fid]; ok || queued[fid] {
				continue
			}
			queued[fid] = true
			missing = append(missing, fid)
		}
	}
	if len(missing) == 0 || in.Resolve == nil {
		return nil
	}

	friends, err := in.Resolve(ctx, missing)
	if err != nil {
		return fmt.Errorf("failed to resolve friends: %w", err)
	}
	for _, f := range friends {
		lookup[f.ID] = f
	}
	return nil
}

func (a *Assembler) node(u domain.User, index int, lookup map[string]domain.User, withConnections bool) Node {
	shared := 0
	if withConnections {
		for _, fid := range u.Friends {
			if f, ok := lookup[fid]; ok {
				shared += SharedHobbies(u.Hobbies, f.Hobbies)
			}
		}
	}
	score := Score(len(u.Friends), shared)

	var pos domain.Position
	if u.Position != nil {
		pos = *u.Position
	} else {
		pos = a.positions.Position(index)
	}

	hobbies := u.Hobbies
	if hobbies == nil {
		hobbies = []string{}
	}

	return Node{
		ID:   u.ID,
		Type: Classify(score),
		Data: NodeData{
			Label:           u.Username,
			Age:             u.Age,
			Hobbies:         hobbies,
			PopularityScore: score,
		},
		Position: pos,
	}
}

// Score is friendCount plus half the summed per-friend shared hobby count
func Score(friendCount, sharedHobbies int) float64 {
	return float64(friendCount) + 0.5*float64(sharedHobbies)
}

// Classify returns the node class for a score
func Classify(score float64) string {
	if score > HighScoreThreshold {
		return NodeTypeHigh
	}
	return NodeTypeLow
}

// SharedHobbies counts entries of mine that also appear in theirs.
// Duplicates in mine count once per occurrence.
func SharedHobbies(mine, theirs []string) int {
	if len(mine) == 0 || len(theirs) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(theirs))
	for _, h := range theirs {
		set[h] = struct{}{}
	}
	n := 0
	for _, h := range mine {
		if _, ok := set[h]; ok {
			n++
		}
	}
	return n
}

// EdgeID is the direction-independent id of the friendship between a and b
func EdgeID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "e-" + a + "-" + b
}

func buildEdges(primary []domain.User, lookup map[string]domain.User) []Edge {
	seen := make(map[string]bool)
	edges := []Edge{}
	for _, u := range primary {
		for _, fid := range u.Friends {
			if _, ok := lookup[fid]; !ok {
				continue
			}
			id := EdgeID(u.ID, fid)
			if seen[id] {
				continue
			}
			seen[id] = true
			edges = append(edges, Edge{ID: id, Source: u.ID, Target: fid})
		}
	}
	return edges
}
