package situation

// LeagueAveragePassRate is used for teams without any recorded game.
const LeagueAveragePassRate = 0.55

// DefaultIdentityWindow is the number of recent games the rolling pass rate covers.
const DefaultIdentityWindow = 4

// GameCalls is the pass/run split of one team in one game.
type GameCalls struct {
	GameID string
	Passes int
	Plays  int
}

// PassRateTracker keeps a rolling pass rate per team over its most recent games.
// Games must be recorded in chronological order. Not safe for concurrent use.
type PassRateTracker struct {
	window  int
	history map[string][]GameCalls
}

// NewPassRateTracker creates a tracker over the last window games.
func NewPassRateTracker(window int) *PassRateTracker {
	if window <= 0 {
		window = DefaultIdentityWindow
	}
	return &PassRateTracker{
		window:  window,
		history: make(map[string][]GameCalls),
	}
}

// Record appends one game for team, dropping games that left the window.
func (t *PassRateTracker) Record(team string, g GameCalls) {
	h := append(t.history[team], g)
	if len(h) > t.window {
		h = h[len(h)-t.window:]
	}
	t.history[team] = h
}

// Rate returns the pass rate over the recorded window, or the league average
// when nothing was recorded for team.
func (t *PassRateTracker) Rate(team string) float64 {
	var passes, plays int
	for _, g := range t.history[team] {
		passes += g.Passes
		plays += g.Plays
	}
	if plays == 0 {
		return LeagueAveragePassRate
	}
	return float64(passes) / float64(plays)
}
