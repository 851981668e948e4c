package models

import (
	"fmt"
	"strings"
)

// Symbol is one element of the play-call alphabet (e.g. "P" for pass).
type Symbol string

const (
	Pass Symbol = "P"
	Run  Symbol = "R"
)

// Sequence is an ordered run of symbols, usually the plays of one drive.
type Sequence []Symbol

// Alphabet is the closed, ordered set of symbols a model accepts.
// Its order is the tie-break order used when ranking predictions.
type Alphabet struct {
	symbols []Symbol
	index   map[Symbol]int
	labels  map[Symbol]string
}

// DefaultAlphabet is the pass/run alphabet.
func DefaultAlphabet() *Alphabet {
	a, _ := NewAlphabet([]Symbol{Pass, Run})
	a.SetLabel(Pass, "PASS")
	a.SetLabel(Run, "RUN")
	return a
}

// NewAlphabet builds an alphabet from an ordered list of unique, non-empty symbols.
func NewAlphabet(symbols []Symbol) (*Alphabet, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("alphabet must contain at least one symbol")
	}
	a := &Alphabet{
		symbols: make([]Symbol, 0, len(symbols)),
		index:   make(map[Symbol]int, len(symbols)),
		labels:  make(map[Symbol]string),
	}
	for _, s := range symbols {
		if strings.TrimSpace(string(s)) == "" {
			return nil, fmt.Errorf("alphabet contains an empty symbol")
		}
		if _, dup := a.index[s]; dup {
			return nil, fmt.Errorf("alphabet contains duplicate symbol %q", string(s))
		}
		a.index[s] = len(a.symbols)
		a.symbols = append(a.symbols, s)
	}
	return a, nil
}

// Symbols returns a copy of the alphabet in tie-break order.
func (a *Alphabet) Symbols() []Symbol {
	out := make([]Symbol, len(a.symbols))
	copy(out, a.symbols)
	return out
}

// Size returns the number of symbols.
func (a *Alphabet) Size() int {
	return len(a.symbols)
}

// Contains reports whether s belongs to the alphabet.
func (a *Alphabet) Contains(s Symbol) bool {
	_, ok := a.index[s]
	return ok
}

// Order returns the tie-break rank of s, or -1 if s is unknown.
func (a *Alphabet) Order(s Symbol) int {
	if i, ok := a.index[s]; ok {
		return i
	}
	return -1
}

// SetLabel attaches a human readable name to a symbol.
func (a *Alphabet) SetLabel(s Symbol, label string) {
	if a.Contains(s) {
		a.labels[s] = label
	}
}

// Label returns the human readable name of s, falling back to the symbol itself.
func (a *Alphabet) Label(s Symbol) string {
	if l, ok := a.labels[s]; ok {
		return l
	}
	return string(s)
}

// Labels returns a copy of the symbol labels.
func (a *Alphabet) Labels() map[Symbol]string {
	out := make(map[Symbol]string, len(a.labels))
	for s, l := range a.labels {
		out[s] = l
	}
	return out
}

// Validate checks every symbol of seq against the alphabet.
func (a *Alphabet) Validate(seq Sequence) error {
	for i, s := range seq {
		if !a.Contains(s) {
			return &InvalidSymbolError{Symbol: s, Position: i}
		}
	}
	return nil
}

// ParseSequence converts raw strings into a validated sequence.
func (a *Alphabet) ParseSequence(raw []string) (Sequence, error) {
	seq := make(Sequence, len(raw))
	for i, r := range raw {
		seq[i] = Symbol(strings.TrimSpace(r))
	}
	if err := a.Validate(seq); err != nil {
		return nil, err
	}
	return seq, nil
}

// SymbolFromPlayType maps a feed play type ("pass", "run") onto the default alphabet.
// Anything else is returned verbatim so that Validate rejects it.
func SymbolFromPlayType(playType string) Symbol {
	switch strings.ToLower(strings.TrimSpace(playType)) {
	case "pass", "p":
		return Pass
	case "run", "r":
		return Run
	}
	return Symbol(playType)
}
