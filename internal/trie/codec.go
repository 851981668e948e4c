package trie

import (
	"fmt"

	"github.com/gridiron-labs/playcall/internal/models"
)

// NodeRecord is the flat, serializable form of a node. Children refer to
// indexes in Record.Nodes.
type NodeRecord struct {
	Visits   int64                   `json:"visits"`
	Next     map[models.Symbol]int64 `json:"next,omitempty"`
	Children map[models.Symbol]int   `json:"children,omitempty"`
	AuxSum   float64                 `json:"aux_sum,omitempty"`
	AuxCount int64                   `json:"aux_count,omitempty"`
}

// Record is the serializable form of a trie. Nodes[0] is the root.
type Record struct {
	MaxDepth  int          `json:"max_depth"`
	Sequences int64        `json:"sequences"`
	Nodes     []NodeRecord `json:"nodes"`
}

// Export flattens the trie breadth first, visiting children in alphabet order
// so identical tries always produce identical records.
func (t *Trie) Export() Record {
	rec := Record{MaxDepth: t.maxDepth, Sequences: t.sequences}
	order := t.alphabet.Symbols()

	queue := []*Node{t.root}
	for head := 0; head < len(queue); head++ {
		n := queue[head]
		nr := NodeRecord{
			Visits:   n.visits,
			AuxSum:   n.auxSum,
			AuxCount: n.auxCount,
		}
		if len(n.next) > 0 {
			nr.Next = make(map[models.Symbol]int64, len(n.next))
			for s, c := range n.next {
				nr.Next[s] = c
			}
		}
		if len(n.children) > 0 {
			nr.Children = make(map[models.Symbol]int, len(n.children))
			for _, s := range order {
				if c, ok := n.children[s]; ok {
					nr.Children[s] = len(queue)
					queue = append(queue, c)
				}
			}
		}
		rec.Nodes = append(rec.Nodes, nr)
	}
	return rec
}

// Import rebuilds a trie from a record, rejecting records that break the
// trie invariants (unknown symbols, shared or cyclic children, paths longer
// than MaxDepth, histograms that do not add up to the visit count). Nodes
// must be listed parents first, as Export writes them.
func Import(alphabet *models.Alphabet, rec Record) (*Trie, error) {
	t, err := New(alphabet, rec.MaxDepth)
	if err != nil {
		return nil, err
	}
	if len(rec.Nodes) == 0 {
		return nil, fmt.Errorf("trie record has no root node")
	}

	nodes := make([]*Node, len(rec.Nodes))
	depth := make([]int, len(rec.Nodes))
	seen := make([]bool, len(rec.Nodes))
	nodes[0] = t.root
	seen[0] = true

	for i, nr := range rec.Nodes {
		if nodes[i] == nil {
			return nil, fmt.Errorf("trie record node %d is unreachable", i)
		}
		n := nodes[i]
		var sum int64
		for s, c := range nr.Next {
			if !alphabet.Contains(s) {
				return nil, &models.InvalidSymbolError{Symbol: s, Position: depth[i]}
			}
			if c < 0 {
				return nil, fmt.Errorf("trie record node %d has negative count for %q", i, string(s))
			}
			n.next[s] = c
			sum += c
		}
		if sum != nr.Visits {
			return nil, fmt.Errorf("trie record node %d: histogram sums to %d, visits is %d", i, sum, nr.Visits)
		}
		n.visits = nr.Visits
		n.auxSum = nr.AuxSum
		n.auxCount = nr.AuxCount

		for s, ci := range nr.Children {
			if !alphabet.Contains(s) {
				return nil, &models.InvalidSymbolError{Symbol: s, Position: depth[i]}
			}
			if ci <= 0 || ci >= len(rec.Nodes) {
				return nil, fmt.Errorf("trie record node %d: child index %d out of range", i, ci)
			}
			if seen[ci] {
				return nil, fmt.Errorf("trie record node %d: child %d referenced twice", i, ci)
			}
			if depth[i]+1 > rec.MaxDepth {
				return nil, fmt.Errorf("trie record node %d: path exceeds max depth %d", ci, rec.MaxDepth)
			}
			seen[ci] = true
			child := newNode()
			n.children[s] = child
			nodes[ci] = child
			depth[ci] = depth[i] + 1
		}
	}

	t.sequences = rec.Sequences
	return t, nil
}
