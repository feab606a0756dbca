package board

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSettings is returned when a board cannot be built from the given settings.
var ErrInvalidSettings = errors.New("invalid board settings")

// MinSpawnMultiplier keeps the spawn interval finite.
const MinSpawnMultiplier = 0.05

// MaxRadius bounds custom boards.
const MaxRadius = 16

// ModeKey names a preset for score keeping. The empty key is a custom configuration.
type ModeKey string

const (
	ModeCustom    ModeKey = ""
	ModeClassic   ModeKey = "classic"
	ModeAdvanced  ModeKey = "advanced"
	ModeNoGravity ModeKey = "no_gravity"
)

// Modes lists the ranked presets.
var Modes = []ModeKey{ModeClassic, ModeAdvanced, ModeNoGravity}

// Ranked reports whether scores for this key are kept.
func (k ModeKey) Ranked() bool {
	_, ok := PresetFor(k)
	return ok
}

// Settings configures a board. A Board keeps its own copy.
type Settings struct {
	// Rings from the center to the edge; radius 0 is a single cell.
	Radius int `yaml:"radius" json:"radius"`
	// Outer rings filled with marbles at the start.
	BorderWidth int `yaml:"border_width" json:"border_width"`
	// Marbles fall away from the center when set.
	Gravity bool `yaml:"gravity" json:"gravity"`
	// Smallest same-colored group that clears.
	ClearBlobSize int `yaml:"clear_blob_size" json:"clear_blob_size"`
	// Multiplier on the spawn rate.
	SpawnMultiplier float32 `yaml:"spawn_multiplier" json:"spawn_multiplier"`
	// How many colors new marbles are drawn from.
	MarbleColorCount int `yaml:"marble_color_count" json:"marble_color_count"`

	ModeKey ModeKey `yaml:"-" json:"mode_key,omitempty"`
}

// Classic is the default preset.
func Classic() Settings {
	return Settings{
		Radius:           5,
		BorderWidth:      2,
		SpawnMultiplier:  1.0,
		Gravity:          true,
		ClearBlobSize:    4,
		MarbleColorCount: 6,
		ModeKey:          ModeClassic,
	}
}

// Advanced is a larger, faster board with every color in play.
func Advanced() Settings {
	return Settings{
		Radius:           6,
		BorderWidth:      3,
		SpawnMultiplier:  1.2,
		Gravity:          true,
		ClearBlobSize:    4,
		MarbleColorCount: 7,
		ModeKey:          ModeAdvanced,
	}
}

// NoGravity is a small board where marbles stay where they land.
func NoGravity() Settings {
	return Settings{
		Radius:           3,
		BorderWidth:      2,
		SpawnMultiplier:  0.8,
		Gravity:          false,
		ClearBlobSize:    4,
		MarbleColorCount: 4,
		ModeKey:          ModeNoGravity,
	}
}

// PresetFor returns the preset registered under key.
func PresetFor(key ModeKey) (Settings, bool) {
	switch key {
	case ModeClassic:
		return Classic(), true
	case ModeAdvanced:
		return Advanced(), true
	case ModeNoGravity:
		return NoGravity(), true
	}
	return Settings{}, false
}

// Custom strips the mode key so scores from these settings are never ranked.
func (s Settings) Custom() Settings {
	s.ModeKey = ModeCustom
	return s
}

// Validate checks that a board can be built and run from s.
func (s Settings) Validate() error {
	switch {
	case s.Radius < 0 || s.Radius > MaxRadius:
		return fmt.Errorf("%w: radius %d outside [0, %d]", ErrInvalidSettings, s.Radius, MaxRadius)
	case s.BorderWidth < 0 || s.BorderWidth > s.Radius:
		return fmt.Errorf("%w: border width %d outside [0, %d]", ErrInvalidSettings, s.BorderWidth, s.Radius)
	case s.ClearBlobSize < 2:
		return fmt.Errorf("%w: clear blob size %d below 2", ErrInvalidSettings, s.ClearBlobSize)
	case !(s.SpawnMultiplier >= MinSpawnMultiplier) || math.IsInf(float64(s.SpawnMultiplier), 0):
		return fmt.Errorf("%w: spawn multiplier %v below %v", ErrInvalidSettings, s.SpawnMultiplier, MinSpawnMultiplier)
	case s.MarbleColorCount < 1 || s.MarbleColorCount > MarbleColors:
		return fmt.Errorf("%w: marble color count %d outside [1, %d]", ErrInvalidSettings, s.MarbleColorCount, MarbleColors)
	}
	if s.ModeKey != ModeCustom {
		preset, ok := PresetFor(s.ModeKey)
		if !ok {
			return fmt.Errorf("%w: unknown mode %q", ErrInvalidSettings, s.ModeKey)
		}
		if preset != s {
			return fmt.Errorf("%w: settings differ from the %s preset", ErrInvalidSettings, s.ModeKey)
		}
	}
	return nil
}
