package domain

import "fmt"

// Level is the qualitative classification of a result's percentage.
type Level string

const (
	LevelNeedsImprovement Level = "needs-improvement"
	LevelFair             Level = "fair"
	LevelGood             Level = "good"
	LevelExcellent        Level = "excellent"
)

// Levels lists the known levels from lowest to highest.
var Levels = []Level{LevelNeedsImprovement, LevelFair, LevelGood, LevelExcellent}

// Valid reports whether the level is one of the known levels.
func (l Level) Valid() bool {
	for _, known := range Levels {
		if l == known {
			return true
		}
	}
	return false
}

// SharingMode controls who may view a result. Modes are mutually exclusive.
type SharingMode string

const (
	SharingPrivate   SharingMode = "private"
	SharingLink      SharingMode = "link"
	SharingFollowers SharingMode = "followers"
	SharingPublic    SharingMode = "public"
)

// ParseSharingMode validates a raw sharing mode; empty means private.
func ParseSharingMode(raw string) (SharingMode, error) {
	switch m := SharingMode(raw); m {
	case "":
		return SharingPrivate, nil
	case SharingPrivate, SharingLink, SharingFollowers, SharingPublic:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSharingMode, raw)
	}
}
