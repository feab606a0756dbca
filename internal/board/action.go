package board

import (
	"fmt"
	"slices"

	"github.com/gravitas-games/haxagon/internal/hex"
)

// ActionKind tags the variant held by an Action.
type ActionKind uint8

const (
	// KindCycle shunts every marble on Path one step along it; the last wraps to the first.
	KindCycle ActionKind = iota + 1
	// KindDeleteColor removes every marble of Color.
	KindDeleteColor
	// KindClearBlobs clears every large enough blob, scoring with Multiplier.
	KindClearBlobs
)

// Ticks each kind of action takes to resolve.
const (
	CycleTime       = 10
	DeleteColorTime = 30
	ClearBlobsTime  = 20
)

// Action is a pending board mutation.
type Action struct {
	Kind       ActionKind
	Path       []hex.Axial
	Color      Marble
	Multiplier int
}

// Cycle rotates the marbles along path. The path must not repeat its first
// coordinate at the end.
func Cycle(path []hex.Axial) Action {
	return Action{Kind: KindCycle, Path: slices.Clone(path)}
}

// DeleteColor removes every marble of the given color.
func DeleteColor(color Marble) Action {
	return Action{Kind: KindDeleteColor, Color: color}
}

// ClearBlobs clears blobs with the given cascade multiplier.
func ClearBlobs(multiplier int) Action {
	return Action{Kind: KindClearBlobs, Multiplier: multiplier}
}

// Duration is how many ticks the action takes before it executes.
func (a Action) Duration() int {
	switch a.Kind {
	case KindCycle:
		return CycleTime
	case KindDeleteColor:
		return DeleteColorTime
	case KindClearBlobs:
		return ClearBlobsTime
	}
	panic(fmt.Sprintf("board: unknown action kind %d", a.Kind))
}

// Clone returns a copy that shares no memory with a.
func (a Action) Clone() Action {
	a.Path = slices.Clone(a.Path)
	return a
}

func (k ActionKind) String() string {
	switch k {
	case KindCycle:
		return "cycle"
	case KindDeleteColor:
		return "delete_color"
	case KindClearBlobs:
		return "clear_blobs"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func (a Action) String() string {
	switch a.Kind {
	case KindCycle:
		return fmt.Sprintf("cycle(%d cells)", len(a.Path))
	case KindDeleteColor:
		return fmt.Sprintf("delete_color(%s)", a.Color)
	case KindClearBlobs:
		return fmt.Sprintf("clear_blobs(x%d)", a.Multiplier)
	}
	return a.Kind.String()
}
