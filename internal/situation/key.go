package situation

import (
	"fmt"
	"sort"
	"strings"
)

// Dimension names an optional extension dimension of the specific key.
type Dimension string

const (
	DimScore    Dimension = "score"
	DimIdentity Dimension = "team_identity"
	DimClock    Dimension = "time_remaining"
	DimVenue    Dimension = "home_away"
)

// Extensions is the set of extension dimensions appended to the specific key.
type Extensions struct {
	Score    bool
	Identity bool
	Clock    bool
	Venue    bool
}

// ParseExtensions reads dimension names such as "score" or "team_identity".
func ParseExtensions(names []string) (Extensions, error) {
	var e Extensions
	for _, n := range names {
		switch Dimension(strings.ToLower(strings.TrimSpace(n))) {
		case DimScore:
			e.Score = true
		case DimIdentity:
			e.Identity = true
		case DimClock:
			e.Clock = true
		case DimVenue:
			e.Venue = true
		case "":
		default:
			return Extensions{}, fmt.Errorf("unknown situation dimension %q", n)
		}
	}
	return e, nil
}

// Names lists the enabled dimensions in key order.
func (e Extensions) Names() []string {
	names := make([]string, 0, 4)
	if e.Score {
		names = append(names, string(DimScore))
	}
	if e.Identity {
		names = append(names, string(DimIdentity))
	}
	if e.Clock {
		names = append(names, string(DimClock))
	}
	if e.Venue {
		names = append(names, string(DimVenue))
	}
	return names
}

// None reports whether no extension is enabled, making specific keys equal to base keys.
func (e Extensions) None() bool {
	return !e.Score && !e.Identity && !e.Clock && !e.Venue
}

// Key is a situation key. It is a comparable value and is used directly as a
// map key. Unset extension dimensions are not part of the key.
type Key struct {
	Group    Group
	Score    ScoreContext
	Identity Identity
	Clock    Clock
	Venue    Venue
}

// Base drops every extension dimension.
func (k Key) Base() Key {
	return Key{Group: k.Group}
}

// IsBase reports whether k carries only the base group.
func (k Key) IsBase() bool {
	return k == k.Base()
}

// String renders the key as "group[/dim=value...]" in fixed dimension order.
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(k.Group.String())
	if k.Score != ScoreUnset {
		b.WriteString("/score=" + k.Score.String())
	}
	if k.Identity != IdentityUnset {
		b.WriteString("/team_identity=" + k.Identity.String())
	}
	if k.Clock != ClockUnset {
		b.WriteString("/time_remaining=" + k.Clock.String())
	}
	if k.Venue != VenueUnset {
		b.WriteString("/home_away=" + k.Venue.String())
	}
	return b.String()
}

// MarshalText lets keys be used as JSON object keys.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the form produced by MarshalText.
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKey is the inverse of Key.String.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, "/")
	var k Key
	for g, name := range groupNames {
		if name == parts[0] {
			k.Group = g
		}
	}
	if k.Group == GroupUnset {
		return Key{}, fmt.Errorf("unknown situation group %q", parts[0])
	}

	for _, p := range parts[1:] {
		dim, val, ok := strings.Cut(p, "=")
		if !ok {
			return Key{}, fmt.Errorf("malformed situation dimension %q", p)
		}
		if err := k.set(Dimension(dim), val); err != nil {
			return Key{}, err
		}
	}
	return k, nil
}

func (k *Key) set(dim Dimension, val string) error {
	switch dim {
	case DimScore:
		for _, v := range []ScoreContext{Trailing, Tied, Leading} {
			if v.String() == val {
				k.Score = v
				return nil
			}
		}
	case DimIdentity:
		for _, v := range []Identity{PassHeavy, Balanced, RunHeavy} {
			if v.String() == val {
				k.Identity = v
				return nil
			}
		}
	case DimClock:
		for _, v := range []Clock{Normal, TwoMinute} {
			if v.String() == val {
				k.Clock = v
				return nil
			}
		}
	case DimVenue:
		for _, v := range []Venue{Home, Away, Neutral} {
			if v.String() == val {
				k.Venue = v
				return nil
			}
		}
	default:
		return fmt.Errorf("unknown situation dimension %q", string(dim))
	}
	return fmt.Errorf("invalid value %q for dimension %s", val, string(dim))
}

// Describe returns a human readable label, e.g.
// "3rd down, short yardage (1-3 yards), Trailing, Pass Heavy".
func Describe(k Key) string {
	desc, ok := groupDescriptions[k.Group]
	if !ok {
		desc = "Unknown situation"
	}
	parts := []string{desc}
	for _, v := range []string{k.Score.String(), k.Identity.String(), k.Clock.String(), k.Venue.String()} {
		if v != "" {
			parts = append(parts, title(v))
		}
	}
	return strings.Join(parts, ", ")
}

func title(s string) string {
	words := strings.Split(s, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// SortKeys orders keys by their string form.
func SortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
}
