// Package trie implements the bounded-depth play sequence trie.
//
// Each node records which symbol followed the path leading to it, so the
// histogram of the node reached by walking a context answers "what came next
// from here". Lookups back off to the longest matched prefix of the context.
package trie

import (
	"errors"
	"math"
	"sort"

	"github.com/gridiron-labs/playcall/internal/models"
)

// ErrInvalidK is returned when fewer than one alternative is requested.
var ErrInvalidK = errors.New("k must be at least 1")

// Node is a trie node. It is owned exclusively by its parent.
type Node struct {
	children map[models.Symbol]*Node
	next     map[models.Symbol]int64
	visits   int64
	auxSum   float64
	auxCount int64
}

func newNode() *Node {
	return &Node{
		children: make(map[models.Symbol]*Node),
		next:     make(map[models.Symbol]int64),
	}
}

// Visits is the number of insertions that recorded a next symbol at this node.
func (n *Node) Visits() int64 {
	return n.visits
}

// Count returns how often s followed this node.
func (n *Node) Count(s models.Symbol) int64 {
	return n.next[s]
}

// Child returns the child reached by s, or nil.
func (n *Node) Child(s models.Symbol) *Node {
	return n.children[s]
}

// AuxAverage returns the mean auxiliary value recorded at this node (0 when none).
func (n *Node) AuxAverage() float64 {
	if n.auxCount == 0 {
		return 0
	}
	return n.auxSum / float64(n.auxCount)
}

// Ranked is one symbol of a prediction with its probability.
type Ranked struct {
	Symbol      models.Symbol `json:"symbol"`
	Probability float64       `json:"probability"`
}

// Prediction is the result of a trie lookup.
type Prediction struct {
	Ranked       []Ranked
	MatchedDepth int
	// Support is the visit count of the matched node.
	Support int64
}

// Empty reports whether the matched node had no evidence at all.
func (p Prediction) Empty() bool {
	return len(p.Ranked) == 0
}

// Trie is a prefix tree over one alphabet, bounded to MaxDepth edges.
// It is not safe for concurrent mutation; concurrent Predict calls are safe
// once inserts have stopped.
type Trie struct {
	root      *Node
	maxDepth  int
	alphabet  *models.Alphabet
	sequences int64
}

// New creates an empty trie.
func New(alphabet *models.Alphabet, maxDepth int) (*Trie, error) {
	if alphabet == nil || alphabet.Size() == 0 {
		return nil, &models.ConfigurationError{Field: "alphabet", Reason: "must not be empty"}
	}
	if maxDepth <= 0 {
		return nil, &models.ConfigurationError{Field: "max_depth", Reason: "must be positive"}
	}
	return &Trie{
		root:     newNode(),
		maxDepth: maxDepth,
		alphabet: alphabet,
	}, nil
}

// MaxDepth returns the depth bound of the trie.
func (t *Trie) MaxDepth() int {
	return t.maxDepth
}

// Root returns the root node.
func (t *Trie) Root() *Node {
	return t.root
}

// Sequences returns how many non-empty sequences were inserted.
func (t *Trie) Sequences() int64 {
	return t.sequences
}

// Insert records seq, truncated to MaxDepth symbols. aux holds optional
// per-position values (e.g. EPA); positions past its end or NaN are skipped.
// The trie is left untouched when seq contains an unknown symbol.
func (t *Trie) Insert(seq models.Sequence, aux []float64) error {
	if err := t.alphabet.Validate(seq); err != nil {
		return err
	}
	if len(seq) == 0 {
		return nil
	}

	limit := min(len(seq), t.maxDepth)
	current := t.root
	for i := 0; i < limit; i++ {
		s := seq[i]
		current.next[s]++
		current.visits++
		if i < len(aux) && !math.IsNaN(aux[i]) {
			current.auxSum += aux[i]
			current.auxCount++
		}

		child, ok := current.children[s]
		if !ok {
			child = newNode()
			current.children[s] = child
		}
		current = child
	}
	t.sequences++
	return nil
}

// Predict walks the trailing MaxDepth symbols of context and returns the top
// k next symbols of the deepest matched node. An empty trie yields an empty
// prediction rather than an error.
func (t *Trie) Predict(context models.Sequence, k int) (Prediction, error) {
	if k < 1 {
		return Prediction{}, ErrInvalidK
	}
	if err := t.alphabet.Validate(context); err != nil {
		return Prediction{}, err
	}

	node, depth := t.walk(context)
	return Prediction{
		Ranked:       t.rank(node, k),
		MatchedDepth: depth,
		Support:      node.visits,
	}, nil
}

// Match returns the node reached by context and the matched depth without
// building a distribution.
func (t *Trie) Match(context models.Sequence) (*Node, int, error) {
	if err := t.alphabet.Validate(context); err != nil {
		return nil, 0, err
	}
	node, depth := t.walk(context)
	return node, depth, nil
}

// AuxAverage returns the mean auxiliary value at the node matched by context.
func (t *Trie) AuxAverage(context models.Sequence) (float64, error) {
	node, _, err := t.Match(context)
	if err != nil {
		return 0, err
	}
	return node.AuxAverage(), nil
}

func (t *Trie) window(context models.Sequence) models.Sequence {
	if len(context) > t.maxDepth {
		return context[len(context)-t.maxDepth:]
	}
	return context
}

func (t *Trie) walk(context models.Sequence) (*Node, int) {
	window := t.window(context)
	node, depth := t.root, 0
	for !contextExhausted(window, depth) && !missingChild(node, window[depth]) {
		node = node.children[window[depth]]
		depth++
	}
	return node, depth
}

// contextExhausted is the first stop condition of the backoff walk.
func contextExhausted(window models.Sequence, depth int) bool {
	return depth >= len(window)
}

// missingChild is the second stop condition of the backoff walk.
func missingChild(n *Node, s models.Symbol) bool {
	_, ok := n.children[s]
	return !ok
}

func (t *Trie) rank(n *Node, k int) []Ranked {
	if n.visits == 0 {
		return []Ranked{}
	}

	type entry struct {
		symbol models.Symbol
		count  int64
	}
	entries := make([]entry, 0, len(n.next))
	for s, c := range n.next {
		if c > 0 {
			entries = append(entries, entry{s, c})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return t.alphabet.Order(entries[i].symbol) < t.alphabet.Order(entries[j].symbol)
	})
	if len(entries) > k {
		entries = entries[:k]
	}

	// Normalize over what is returned so the truncated list still sums to 1.
	var total int64
	for _, e := range entries {
		total += e.count
	}
	out := make([]Ranked, len(entries))
	for i, e := range entries {
		out[i] = Ranked{Symbol: e.symbol, Probability: float64(e.count) / float64(total)}
	}
	return out
}

// Stats describes the shape of a trie.
type Stats struct {
	Sequences    int64
	MaxDepth     int
	Nodes        int
	AvgBranching float64
	RootVisits   int64
}

// Stats walks the trie and reports node count and average branching factor.
func (t *Trie) Stats() Stats {
	nodes, edges := 0, 0
	stack := []*Node{t.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++
		edges += len(n.children)
		for _, c := range n.children {
			stack = append(stack, c)
		}
	}
	return Stats{
		Sequences:    t.sequences,
		MaxDepth:     t.maxDepth,
		Nodes:        nodes,
		AvgBranching: float64(edges) / float64(nodes),
		RootVisits:   t.root.visits,
	}
}
