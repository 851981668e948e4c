package worker

import (
	"strings"

	"github.com/gridiron-labs/playcall/internal/models"
)

// relocatedTeams maps historical abbreviations onto the current franchise
// code, so rolling identity follows a franchise across relocations.
var relocatedTeams = map[string]string{
	"JAC": "JAX",
	"STL": "LA",
	"LAR": "LA",
	"SD":  "LAC",
	"OAK": "LV",
}

// sanitizeTeam normalizes a team abbreviation.
func sanitizeTeam(team string) string {
	t := strings.ToUpper(strings.TrimSpace(team))
	if cur, ok := relocatedTeams[t]; ok {
		return cur
	}
	return t
}

// normalizePlayType rewrites every spelling of a pass or run call to the
// feed's canonical value, which is what the training query selects. Other
// play types are only trimmed.
func normalizePlayType(playType string) string {
	switch models.SymbolFromPlayType(playType) {
	case models.Pass:
		return "pass"
	case models.Run:
		return "run"
	}
	return strings.TrimSpace(playType)
}
