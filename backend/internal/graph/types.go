package graph

import "cybernauts/backend/internal/domain"

// Node classes, named the way the frontend's node renderers expect
const (
	NodeTypeHigh = "highScoreNode"
	NodeTypeLow  = "lowScoreNode"
)

// HighScoreThreshold is exclusive: a score of exactly 5 is low
const HighScoreThreshold = 5.0

// NodeData is the payload rendered inside a node
type NodeData struct {
	Label           string   `json:"label"`
	Age             int      `json:"age"`
	Hobbies         []string `json:"hobbies"`
	PopularityScore float64  `json:"popularityScore"`
}

// Node is one user in the rendered graph
type Node struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Data     NodeData        `json:"data"`
	Position domain.Position `json:"position"`
}

// Edge is an undirected friendship. ID is identical for both directions.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph is one page of the graph view
type Graph struct {
	Nodes      []Node            `json:"nodes"`
	Edges      []Edge            `json:"edges"`
	Pagination domain.Pagination `json:"pagination"`
}
