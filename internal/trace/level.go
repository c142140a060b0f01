package trace

import (
	"fmt"
	"strconv"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota // no tracing
	LevelError               // errors only
	LevelPhase               // driver and pass boundaries
	LevelDetail              // plus per-file events
	LevelDebug               // plus single functions, resolutions, instantiations
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "level(" + strconv.Itoa(int(l)) + ")"
}

// ParseLevel accepts a level name or its number (0 for off through 4 for
// debug).
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range levelNames {
		if s == name || s == strconv.Itoa(i) {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// minLevel is the lowest level at which events of a scope are kept.
var minLevel = map[Scope]Level{
	ScopeDriver: LevelPhase,
	ScopePass:   LevelPhase,
	ScopeModule: LevelDetail,
	ScopeNode:   LevelDebug,
}

// ShouldEmit reports whether events of scope pass at level l.
func (l Level) ShouldEmit(scope Scope) bool {
	floor, ok := minLevel[scope]
	return ok && l >= floor
}

// gate is the level filter shared by the concrete tracers.
type gate struct{ level Level }

func (g gate) Level() Level             { return g.level }
func (g gate) Enabled() bool            { return g.level > LevelOff }
func (g gate) accepts(scope Scope) bool { return g.level.ShouldEmit(scope) }
