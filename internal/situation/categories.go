// Package situation classifies raw game situations into the categorical
// keys that select which play trie is trained and queried.
package situation

import "fmt"

// Group is the base situation category. Exactly one applies to any input.
type Group uint8

const (
	GroupUnset Group = iota
	EarlyDownShort
	EarlyDownMedium
	EarlyDownLong
	ThirdShort
	ThirdMedium
	ThirdLong
	FourthDown
	RedZone
	GoalLine
)

var groupNames = map[Group]string{
	EarlyDownShort:  "early_down_short",
	EarlyDownMedium: "early_down_medium",
	EarlyDownLong:   "early_down_long",
	ThirdShort:      "third_short",
	ThirdMedium:     "third_medium",
	ThirdLong:       "third_long",
	FourthDown:      "fourth_down",
	RedZone:         "red_zone",
	GoalLine:        "goal_line",
}

var groupDescriptions = map[Group]string{
	EarlyDownShort:  "Early down, short yardage (1-3 yards)",
	EarlyDownMedium: "Early down, medium yardage (4-7 yards)",
	EarlyDownLong:   "Early down, long yardage (8+ yards)",
	ThirdShort:      "3rd down, short yardage (1-3 yards)",
	ThirdMedium:     "3rd down, medium yardage (4-7 yards)",
	ThirdLong:       "3rd down, long yardage (8+ yards)",
	FourthDown:      "4th down (any distance)",
	RedZone:         "Red zone (inside opponent 20)",
	GoalLine:        "Goal line (inside opponent 5)",
}

// Groups lists every base category in declaration order.
func Groups() []Group {
	return []Group{
		EarlyDownShort, EarlyDownMedium, EarlyDownLong,
		ThirdShort, ThirdMedium, ThirdLong,
		FourthDown, RedZone, GoalLine,
	}
}

func (g Group) String() string {
	if n, ok := groupNames[g]; ok {
		return n
	}
	return fmt.Sprintf("group(%d)", uint8(g))
}

// ScoreContext buckets the score differential of the team with the ball.
type ScoreContext uint8

const (
	ScoreUnset ScoreContext = iota
	Trailing
	Tied
	Leading
)

func (s ScoreContext) String() string {
	switch s {
	case Trailing:
		return "trailing"
	case Tied:
		return "tied"
	case Leading:
		return "leading"
	}
	return ""
}

// Identity buckets the offensive identity of the team with the ball.
type Identity uint8

const (
	IdentityUnset Identity = iota
	PassHeavy
	Balanced
	RunHeavy
)

func (i Identity) String() string {
	switch i {
	case PassHeavy:
		return "pass_heavy"
	case Balanced:
		return "balanced"
	case RunHeavy:
		return "run_heavy"
	}
	return ""
}

// Clock buckets the time remaining in the game.
type Clock uint8

const (
	ClockUnset Clock = iota
	Normal
	TwoMinute
)

func (c Clock) String() string {
	switch c {
	case Normal:
		return "normal"
	case TwoMinute:
		return "two_minute"
	}
	return ""
}

// Venue is whether the team with the ball is at home.
type Venue uint8

const (
	VenueUnset Venue = iota
	Home
	Away
	Neutral
)

func (v Venue) String() string {
	switch v {
	case Home:
		return "home"
	case Away:
		return "away"
	case Neutral:
		return "neutral"
	}
	return ""
}
