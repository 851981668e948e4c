package logic

import (
	"fmt"
	"strings"
)

// PlayQuery selects training plays from the ClickHouse plays table.
type PlayQuery struct {
	Seasons    []int    `json:"seasons"`
	Teams      []string `json:"teams"`       // WHERE posteam IN ?
	SeasonType string   `json:"season_type"` // REG, POST or empty for both
	Limit      int      `json:"limit"`
}

const (
	minSeason = 1999
	maxSeason = 2100
	// PlaysTable is the ClickHouse table holding play-by-play rows.
	PlaysTable = "playcall.plays"
)

var allowedSeasonTypes = map[string]bool{"": true, "REG": true, "POST": true}

// playColumns are cast so that they scan into the PlayRecord field types.
var playColumns = []string{
	"game_id",
	"toString(drive_id) AS drive_id",
	"toInt64(play_index) AS play_index",
	"toInt64(season) AS season",
	"posteam",
	"play_type",
	"toInt64(down) AS down",
	"toInt64(ydstogo) AS ydstogo",
	"toInt64(yardline_100) AS yardline_100",
	"toNullable(toFloat64(score_differential)) AS score_differential",
	"toNullable(toFloat64(game_seconds_remaining)) AS game_seconds_remaining",
	"posteam_type",
	"toNullable(toFloat64(epa)) AS epa",
}

// BuildPlaysQuery constructs a safe ClickHouse SQL query. Rows come back in
// game order so that rolling team identity can be computed in one pass.
func BuildPlaysQuery(q PlayQuery) (string, []interface{}, error) {
	for _, s := range q.Seasons {
		if s < minSeason || s > maxSeason {
			return "", nil, fmt.Errorf("invalid season: %d", s)
		}
	}
	st := strings.ToUpper(q.SeasonType)
	if !allowedSeasonTypes[st] {
		return "", nil, fmt.Errorf("invalid season type: %s", q.SeasonType)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE play_type IN ('pass', 'run') AND down > 0",
		strings.Join(playColumns, ", "), PlaysTable)
	var args []interface{}

	if len(q.Seasons) > 0 {
		query += " AND season IN ?"
		args = append(args, q.Seasons)
	}
	if len(q.Teams) > 0 {
		query += " AND posteam IN ?"
		args = append(args, q.Teams)
	}
	if st != "" {
		query += " AND season_type = ?"
		args = append(args, st)
	}

	query += " ORDER BY season, week, game_id, drive_id, play_index"

	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}
	return query, args, nil
}
