// Package scores keeps per-player high scores for the ranked board presets.
package scores

import (
	"context"
	"errors"
	"fmt"

	"github.com/gravitas-games/haxagon/internal/board"
)

var (
	// ErrNotFound is returned when a player has no score for a mode.
	ErrNotFound = errors.New("score not found")
	// ErrUnranked is returned for custom settings, which are never recorded.
	ErrUnranked = errors.New("mode is not ranked")
)

// Entry is one line of a leaderboard.
type Entry struct {
	Player string `json:"player"`
	Score  int    `json:"score"`
}

// Result describes what recording a finished game changed.
type Result struct {
	Previous    int  `json:"previous"`
	HadPrevious bool `json:"had_previous"`
	Best        int  `json:"best"`
}

// NewBest reports whether the recorded score beat the previous best.
func (r Result) NewBest() bool {
	return !r.HadPrevious || r.Best > r.Previous
}

// Store keeps the best score per player and mode.
type Store interface {
	// Record stores score if it beats the player's best for mode.
	Record(ctx context.Context, player string, mode board.ModeKey, score int) (Result, error)
	// Best returns ErrNotFound when the player never finished a game in mode.
	Best(ctx context.Context, player string, mode board.ModeKey) (int, error)
	// Top lists at most n entries, highest first.
	Top(ctx context.Context, mode board.ModeKey, n int) ([]Entry, error)
}

func checkMode(mode board.ModeKey) error {
	if !mode.Ranked() {
		return fmt.Errorf("%w: %q", ErrUnranked, mode)
	}
	return nil
}

func checkPlayer(player string) error {
	if player == "" {
		return errors.New("player is required")
	}
	return nil
}

func merge(previous int, had bool, score int) Result {
	best := score
	if had && previous > score {
		best = previous
	}
	return Result{Previous: previous, HadPrevious: had, Best: best}
}
