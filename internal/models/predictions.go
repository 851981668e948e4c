package models

import "time"

// PredictRequest asks for the next play call of a drive in progress.
type PredictRequest struct {
	Situation SituationFeatures `json:"situation"`
	// Context is the drive so far, oldest play first.
	Context []string `json:"context"`
	K       int      `json:"k" validate:"omitempty,min=1,max=16"`
}

// RankedPlay is one entry of a ranked prediction.
type RankedPlay struct {
	Symbol      string  `json:"symbol"`
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// PlayPrediction is the answer surfaced to API clients.
type PlayPrediction struct {
	Ranked        []RankedPlay `json:"ranked"`
	MatchedDepth  int          `json:"matched_depth"`
	FallbackLevel string       `json:"fallback_level"`
	SpecificKey   string       `json:"specific_key"`
	BaseKey       string       `json:"base_key"`
	Situation     string       `json:"situation"`
}

// SituationStats summarizes one situation trie.
type SituationStats struct {
	Key           string  `json:"key"`
	Description   string  `json:"description"`
	Examples      int64   `json:"examples"`
	Sequences     int64   `json:"sequences"`
	Nodes         int     `json:"nodes"`
	AvgBranching  float64 `json:"avg_branching"`
	RootVisits    int64   `json:"root_visits"`
	HasSufficient bool    `json:"has_sufficient_data"`
}

// ModelStats summarizes the whole registry.
type ModelStats struct {
	MaxDepth         int              `json:"max_depth"`
	MinExamples      int              `json:"min_examples_threshold"`
	Extensions       []string         `json:"extensions"`
	Situations       int              `json:"num_situation_groups"`
	TotalExamples    int64            `json:"total_examples"`
	SufficientGroups int              `json:"groups_with_sufficient_data"`
	SparseGroups     int              `json:"groups_with_sparse_data"`
	FallbackCounts   map[string]int64 `json:"fallback_stats"`

	// FallbackByKey holds the durable counters, keyed by specific situation then level.
	FallbackByKey map[string]map[string]int64 `json:"fallback_by_situation,omitempty"`
	Tries         []SituationStats            `json:"tries"`
}

// SnapshotInfo describes a persisted registry.
type SnapshotInfo struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Situations int       `json:"situations"`
	Bytes      int       `json:"bytes"`
}
