package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/haxagon/internal/board"
	"github.com/gravitas-games/haxagon/internal/hex"
	"github.com/gravitas-games/haxagon/internal/network"
	"github.com/gravitas-games/haxagon/internal/play"
	"github.com/gravitas-games/haxagon/internal/scores"
	"github.com/gravitas-games/haxagon/pkg/models"
)

// recordTimeout bounds how long a finished game waits on the score store.
const recordTimeout = 5 * time.Second

// sender is the outbound side of a connection.
type sender interface {
	SendMessage(msg *network.ServerMessage)
}

// inputKind is a player input forwarded to a session.
type inputKind int

const (
	inputPress inputKind = iota
	inputDrag
	inputRelease
	inputPause
	inputResume
)

type input struct {
	kind inputKind
	cell hex.Axial
}

// Session runs one board for one player. All access to the game happens on
// the goroutine running Run.
type Session struct {
	ID        string
	CreatedAt time.Time

	player *models.Player
	game   *play.Game
	mode   board.ModeKey

	inputs chan input
	stop   chan struct{}
	once   sync.Once

	out           sender
	scores        scores.Store
	tickRate      int
	snapshotEvery int
	steps         int
	log           *logrus.Entry
}

// SessionStatus summarizes a session for the health endpoint
type SessionStatus struct {
	ID       string        `json:"id"`
	PlayerID string        `json:"player_id"`
	Mode     board.ModeKey `json:"mode,omitempty"`
	Uptime   int64         `json:"uptime"` // seconds
}

// NewSession creates a session around a freshly built board.
func NewSession(id string, player *models.Player, settings board.Settings, out sender, store scores.Store, tickRate, snapshotEvery int) (*Session, error) {
	logger := logrus.WithFields(logrus.Fields{
		"session": id,
		"player":  player.ID,
		"mode":    settings.ModeKey,
	})
	game, err := play.Start(settings, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("Session created")
	return &Session{
		ID:            id,
		CreatedAt:     time.Now(),
		player:        player,
		game:          game,
		mode:          settings.ModeKey,
		inputs:        make(chan input, 64),
		stop:          make(chan struct{}),
		out:           out,
		scores:        store,
		tickRate:      tickRate,
		snapshotEvery: snapshotEvery,
		log:           logger,
	}, nil
}

// Submit queues a player input. It reports false when the session has
// stopped or is too far behind to take more.
func (s *Session) Submit(in input) bool {
	select {
	case <-s.stop:
		return false
	default:
	}
	select {
	case s.inputs <- in:
		return true
	default:
		s.log.Warn("Input buffer full, dropping input")
		return false
	}
}

// Stop ends Run. It is safe to call more than once.
func (s *Session) Stop() {
	s.once.Do(func() { close(s.stop) })
}

// Run ticks the board until the game ends, Stop is called or ctx is done.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(s.tickRate))
	defer ticker.Stop()
	defer s.Stop()

	s.out.SendMessage(&network.ServerMessage{
		Type: network.MsgTypeStarted,
		Payload: network.StartedPayload{
			SessionID: s.ID,
			Mode:      s.mode,
			Settings:  s.game.Board().Settings(),
		},
	})
	s.sendSnapshot()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			s.log.Info("Session stopped")
			return
		case in := <-s.inputs:
			s.apply(in)
			s.sendSnapshot()
		case <-ticker.C:
			if s.step(ctx) {
				return
			}
		}
	}
}

func (s *Session) apply(in input) {
	var ev play.Event
	switch in.kind {
	case inputPress:
		ev = s.game.Press(in.cell)
	case inputDrag:
		ev = s.game.Drag(in.cell)
	case inputRelease:
		ev = s.game.Release()
	case inputPause:
		s.game.Pause()
	case inputResume:
		s.game.Resume()
	}
	if ev != play.None {
		s.out.SendMessage(&network.ServerMessage{
			Type:    network.MsgTypeGesture,
			Payload: network.GesturePayload{Event: ev.String()},
		})
	}
}

// step advances the board and reports whether the game has ended.
func (s *Session) step(ctx context.Context) bool {
	outcome := s.game.Step()
	s.steps++
	if outcome.Over {
		s.sendSnapshot()
		s.finish(ctx, outcome.Score)
		return true
	}
	if s.steps%s.snapshotEvery == 0 {
		s.sendSnapshot()
	}
	return false
}

func (s *Session) finish(ctx context.Context, score int) {
	payload := network.GameOverPayload{
		Mode:   s.mode,
		Score:  score,
		Ranked: s.mode.Ranked() && s.player.Ranked() && s.scores != nil,
	}

	if payload.Ranked {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
		defer cancel()
		res, err := s.scores.Record(ctx, s.player.ID, s.mode, score)
		switch {
		case err == nil:
			if res.HadPrevious {
				prev := res.Previous
				payload.PreviousBest = &prev
			}
			payload.NewBest = res.NewBest()
		case errors.Is(err, scores.ErrUnranked):
			payload.Ranked = false
		default:
			s.log.WithError(err).Error("Failed to record score")
			payload.Ranked = false
		}
	}

	s.log.WithFields(logrus.Fields{"score": score, "new_best": payload.NewBest}).Info("Game over")
	s.out.SendMessage(&network.ServerMessage{Type: network.MsgTypeGameOver, Payload: payload})
}

func (s *Session) sendSnapshot() {
	s.out.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypeSnapshot,
		Payload: network.NewBoardView(s.game.View()),
	})
}

// Status returns the current session status
func (s *Session) Status() SessionStatus {
	return SessionStatus{
		ID:       s.ID,
		PlayerID: s.player.ID,
		Mode:     s.mode,
		Uptime:   int64(time.Since(s.CreatedAt).Seconds()),
	}
}
