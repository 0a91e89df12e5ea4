package recovery

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// EventKind identifies a credential lifecycle event.
type EventKind string

const (
	// EventKeyIssued is emitted when Generate creates a new key.
	EventKeyIssued EventKind = "recovery.key.issued"
	// EventKeyExpired is emitted when ValidateKey finds the key past its expiry.
	EventKeyExpired EventKind = "recovery.key.expired"
	// EventKeyInvalidated is emitted when a key is destroyed.
	EventKeyInvalidated EventKind = "recovery.key.invalidated"
	// EventKeyUsed is emitted when MarkAsUsed consumes the key.
	EventKeyUsed EventKind = "recovery.key.used"
)

// Event describes a single state transition of the credential slot.
// Fields that do not apply to a kind are left at their zero value.
type Event struct {
	Kind      EventKind
	Key       string
	ExpiresAt time.Time
	// Remaining is the validity left at emission time (EventKeyIssued only).
	Remaining time.Duration
	At        time.Time
}

// EventSink receives lifecycle events. Implementations must not rely on
// being able to influence the manager; their failures are ignored.
type EventSink interface {
	Emit(Event)
}

// EventSinkFunc adapts a function to the EventSink interface.
type EventSinkFunc func(Event)

// Emit calls f.
func (f EventSinkFunc) Emit(e Event) { f(e) }

// Discard is an EventSink that drops every event.
var Discard EventSink = EventSinkFunc(func(Event) {})

// Level is the severity a rendered line should be reported at.
type Level string

const (
	LevelInfo Level = "info"
	LevelWarn Level = "warn"
)

// Line is one rendered line of output.
type Line struct {
	Level Level
	Text  string
}

// Render turns an event into human-readable lines.
func Render(e Event) []Line {
	switch e.Kind {
	case EventKeyIssued:
		panel := RenderPanel(e.Key, e.Remaining)
		lines := make([]Line, 0, len(panel)+2)
		lines = append(lines, Line{Level: LevelInfo})
		for _, text := range panel {
			lines = append(lines, Line{Level: LevelWarn, Text: text})
		}
		return append(lines, Line{Level: LevelInfo})
	case EventKeyExpired:
		return []Line{{Level: LevelWarn, Text: "Recovery key has expired"}}
	case EventKeyInvalidated:
		return []Line{{Level: LevelInfo, Text: "Recovery key has been invalidated"}}
	case EventKeyUsed:
		return []Line{{Level: LevelInfo, Text: "Recovery key has been used successfully"}}
	default:
		return []Line{{Level: LevelInfo, Text: string(e.Kind)}}
	}
}

// panelWidth is the number of columns between the vertical borders.
const panelWidth = 40

// RenderPanel draws the bordered box announcing an issued key. Remaining
// validity is shown in whole minutes, rounded down.
func RenderPanel(key string, remaining time.Duration) []string {
	minutes := int64(math.Floor(remaining.Minutes()))
	rows := []string{
		"   RECOVERY MODE ACTIVE",
		"",
		"   Recovery Key: " + key,
		fmt.Sprintf("   Expires: %d minutes", minutes),
		"",
		"   Login with any username and this",
		"   key as password to reset access",
	}

	border := strings.Repeat("═", panelWidth)
	out := make([]string, 0, len(rows)+2)
	out = append(out, "╔"+border+"╗")
	for _, row := range rows {
		out = append(out, fmt.Sprintf("║%-*s║", panelWidth, row))
	}
	return append(out, "╚"+border+"╝")
}
