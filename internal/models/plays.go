package models

import (
	"math"
	"time"
)

// PlayRecord is one offensive snap as delivered by the play-by-play feed.
type PlayRecord struct {
	GameID     string `json:"game_id" validate:"required"`
	DriveID    string `json:"drive_id" validate:"required"`
	PlayIndex  int    `json:"play_index"`
	Season     int    `json:"season,omitempty"`
	Week       int    `json:"week,omitempty"`
	SeasonType string `json:"season_type,omitempty"`
	Posteam    string `json:"posteam,omitempty"`
	PlayType   string `json:"play_type" validate:"required"`

	Down                 int      `json:"down"`
	YardsToGo            int      `json:"ydstogo"`
	YardlineFromGoal     int      `json:"yardline_100"`
	ScoreDifferential    *float64 `json:"score_differential,omitempty"`
	TeamPassRate         *float64 `json:"team_pass_rate,omitempty"`
	GameSecondsRemaining *float64 `json:"game_seconds_remaining,omitempty"`
	PosteamType          string   `json:"posteam_type,omitempty"`

	EPA      *float64 `json:"epa,omitempty"`
	DriveEnd bool     `json:"drive_end,omitempty"`
}

// Symbol returns the play call as an alphabet symbol.
func (p *PlayRecord) Symbol() Symbol {
	return SymbolFromPlayType(p.PlayType)
}

// Features returns the situational fields of the play.
func (p *PlayRecord) Features() SituationFeatures {
	return SituationFeatures{
		Down:                 p.Down,
		YardsToGo:            p.YardsToGo,
		YardlineFromGoal:     p.YardlineFromGoal,
		ScoreDifferential:    p.ScoreDifferential,
		TeamPassRate:         p.TeamPassRate,
		GameSecondsRemaining: p.GameSecondsRemaining,
		PosteamType:          p.PosteamType,
	}
}

// DriveKey identifies a drive across games.
type DriveKey struct {
	GameID  string
	DriveID string
}

// Key returns the drive the play belongs to.
func (p *PlayRecord) Key() DriveKey {
	return DriveKey{GameID: p.GameID, DriveID: p.DriveID}
}

// Drive is the ordered list of plays of one possession.
type Drive struct {
	GameID   string
	DriveID  string
	Plays    []PlayRecord
	LastSeen time.Time
}

// Sequence returns the play calls of the drive in order.
func (d *Drive) Sequence() Sequence {
	seq := make(Sequence, len(d.Plays))
	for i := range d.Plays {
		seq[i] = d.Plays[i].Symbol()
	}
	return seq
}

// EPAs returns per-play EPA aligned with Sequence; missing values are NaN.
func (d *Drive) EPAs() []float64 {
	out := make([]float64, len(d.Plays))
	for i := range d.Plays {
		if d.Plays[i].EPA != nil {
			out[i] = *d.Plays[i].EPA
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}
