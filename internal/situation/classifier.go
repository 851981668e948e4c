package situation

import (
	"math"
	"strings"

	"github.com/gridiron-labs/playcall/internal/models"
)

// Bucket boundaries. Yardline is measured from the opponent's goal line.
const (
	GoalLineYards = 5
	RedZoneYards  = 20
	ShortYardage  = 3
	MediumYardage = 7
	ScoreMargin   = 7.0
	PassHeavyRate = 0.60
	RunHeavyRate  = 0.45
	TwoMinuteMark = 120.0
	minDown       = 1
	maxDown       = 4
	minYardsToGo  = 1
	maxYardsToGo  = 99
	minYardline   = 0
	maxYardline   = 100
)

// Classifier maps raw features to a specific and a base key. It is a pure,
// total function: out-of-range input is clamped, never rejected.
type Classifier struct {
	ext Extensions
}

// NewClassifier creates a classifier appending the given extensions.
func NewClassifier(ext Extensions) *Classifier {
	return &Classifier{ext: ext}
}

// Extensions returns the enabled extension dimensions.
func (c *Classifier) Extensions() Extensions {
	return c.ext
}

// Classify returns the specific key (all enabled dimensions) and the base key.
func (c *Classifier) Classify(f models.SituationFeatures) (specific, base Key) {
	base = Key{Group: BaseGroup(f.Down, f.YardsToGo, f.YardlineFromGoal)}
	specific = base
	if c.ext.Score {
		specific.Score = ScoreBucket(f.ScoreDifferential)
	}
	if c.ext.Identity {
		specific.Identity = IdentityBucket(f.TeamPassRate)
	}
	if c.ext.Clock {
		specific.Clock = ClockBucket(f.GameSecondsRemaining)
	}
	if c.ext.Venue {
		specific.Venue = VenueBucket(f.PosteamType)
	}
	return specific, base
}

// BaseGroup applies the precedence goal line > red zone > 4th down > 3rd down > early down.
func BaseGroup(down, yardsToGo, yardline int) Group {
	down = clamp(down, minDown, maxDown)
	yardsToGo = clamp(yardsToGo, minYardsToGo, maxYardsToGo)
	yardline = clamp(yardline, minYardline, maxYardline)

	switch {
	case yardline <= GoalLineYards:
		return GoalLine
	case yardline <= RedZoneYards:
		return RedZone
	case down == 4:
		return FourthDown
	case down == 3:
		switch {
		case yardsToGo <= ShortYardage:
			return ThirdShort
		case yardsToGo <= MediumYardage:
			return ThirdMedium
		}
		return ThirdLong
	}

	switch {
	case yardsToGo <= ShortYardage:
		return EarlyDownShort
	case yardsToGo <= MediumYardage:
		return EarlyDownMedium
	}
	return EarlyDownLong
}

// ScoreBucket: trailing by 7+, leading by 7+, otherwise tied. Missing is tied.
func ScoreBucket(diff *float64) ScoreContext {
	if diff == nil || math.IsNaN(*diff) {
		return Tied
	}
	switch {
	case *diff <= -ScoreMargin:
		return Trailing
	case *diff >= ScoreMargin:
		return Leading
	}
	return Tied
}

// IdentityBucket: pass rate >= 0.60 pass heavy, <= 0.45 run heavy. Missing is balanced.
func IdentityBucket(rate *float64) Identity {
	if rate == nil || math.IsNaN(*rate) {
		return Balanced
	}
	r := math.Min(1, math.Max(0, *rate))
	switch {
	case r >= PassHeavyRate:
		return PassHeavy
	case r <= RunHeavyRate:
		return RunHeavy
	}
	return Balanced
}

// ClockBucket: two minutes or less remaining is the two-minute drill. Missing is normal.
func ClockBucket(seconds *float64) Clock {
	if seconds == nil || math.IsNaN(*seconds) {
		return Normal
	}
	if math.Max(0, *seconds) <= TwoMinuteMark {
		return TwoMinute
	}
	return Normal
}

// VenueBucket maps "home"/"away" case-insensitively; anything else is neutral.
func VenueBucket(posteamType string) Venue {
	switch strings.ToLower(strings.TrimSpace(posteamType)) {
	case "home":
		return Home
	case "away":
		return Away
	}
	return Neutral
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
