package models

// SituationFeatures are the raw situational fields a play is classified on.
// Optional extension inputs are pointers; nil means the feed did not carry them.
type SituationFeatures struct {
	Down                 int      `json:"down"`
	YardsToGo            int      `json:"ydstogo"`
	YardlineFromGoal     int      `json:"yardline_100"`
	ScoreDifferential    *float64 `json:"score_differential,omitempty"`
	TeamPassRate         *float64 `json:"team_pass_rate,omitempty"`
	GameSecondsRemaining *float64 `json:"game_seconds_remaining,omitempty"`
	PosteamType          string   `json:"posteam_type,omitempty"`
}

// Float returns a pointer to v, for filling optional feature fields.
func Float(v float64) *float64 {
	return &v
}
