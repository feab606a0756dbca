package main

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/sirupsen/logrus"
)

const sampleRate = beep.SampleRate(48000)

type cue int

const (
	cueClose cue = iota
	cueReject
	cueScore
	cueOver
)

type note struct {
	freq float64
	dur  time.Duration
}

var cueNotes = map[cue][]note{
	cueClose:  {{660, 40 * time.Millisecond}},
	cueReject: {{140, 60 * time.Millisecond}},
	cueScore:  {{880, 50 * time.Millisecond}, {1320, 70 * time.Millisecond}},
	cueOver:   {{440, 150 * time.Millisecond}, {330, 150 * time.Millisecond}, {220, 300 * time.Millisecond}},
}

// cuePlayer plays short sounds for game events.
type cuePlayer interface {
	Play(c cue)
	Close()
}

type speakerCues struct {
	enabled bool
}

// newCues opens the speaker. Without an audio device the cues stay silent.
func newCues(enabled bool) *speakerCues {
	if !enabled {
		return &speakerCues{}
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		logrus.WithError(err).Warn("Sound disabled")
		return &speakerCues{}
	}
	return &speakerCues{enabled: true}
}

func (s *speakerCues) Play(c cue) {
	if !s.enabled {
		return
	}
	streamer, err := tone(c)
	if err != nil {
		logrus.WithError(err).Debug("Failed to build cue")
		return
	}
	speaker.Play(streamer)
}

func (s *speakerCues) Close() {
	if !s.enabled {
		return
	}
	speaker.Clear()
	speaker.Close()
	s.enabled = false
}

// tone renders the notes of c back to back at a quarter of full volume.
func tone(c cue) (beep.Streamer, error) {
	notes := cueNotes[c]
	parts := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		sine, err := generators.SineTone(sampleRate, n.freq)
		if err != nil {
			return nil, err
		}
		parts = append(parts, beep.Take(sampleRate.N(n.dur), sine))
	}
	return &effects.Gain{Streamer: beep.Seq(parts...), Gain: -0.75}, nil
}
