package network

import (
	"cmp"
	"encoding/json"
	"slices"

	"github.com/gravitas-games/haxagon/internal/board"
	"github.com/gravitas-games/haxagon/internal/hex"
	"github.com/gravitas-games/haxagon/internal/play"
)

// Message types - Client → Server
const (
	MsgTypeStart   = "start"
	MsgTypePress   = "press"
	MsgTypeDrag    = "drag"
	MsgTypeRelease = "release"
	MsgTypePause   = "pause"
	MsgTypeResume  = "resume"
	MsgTypeLeave   = "leave"
	MsgTypePing    = "ping"
)

// Message types - Server → Client
const (
	MsgTypeWelcome  = "welcome"
	MsgTypeStarted  = "started"
	MsgTypeSnapshot = "snapshot"
	MsgTypeGesture  = "gesture"
	MsgTypeGameOver = "game_over"
	MsgTypeError    = "error"
	MsgTypePong     = "pong"
)

// ClientMessage represents any message from client to server
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage represents any message from server to client
type ServerMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// --- Client Message Payloads ---

// StartPayload starts a new board. Mode names a preset; Settings, when
// present, starts an unranked custom board instead.
type StartPayload struct {
	Mode     board.ModeKey   `json:"mode,omitempty"`
	Settings *board.Settings `json:"settings,omitempty"`
}

// CellPayload addresses one board cell for press and drag.
type CellPayload struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// Axial converts the payload to a coordinate.
func (p CellPayload) Axial() hex.Axial { return hex.Axial{Q: p.Q, R: p.R} }

// --- Server Message Payloads ---

// WelcomePayload is sent to client after successful connection
type WelcomePayload struct {
	PlayerID string          `json:"player_id"`
	Username string          `json:"username"`
	TickRate int             `json:"tick_rate"`
	Modes    []board.ModeKey `json:"modes"`
}

// StartedPayload opens a new board, ahead of its first snapshot.
type StartedPayload struct {
	SessionID string         `json:"session_id"`
	Mode      board.ModeKey  `json:"mode,omitempty"`
	Settings  board.Settings `json:"settings"`
}

// GesturePayload reports what a press, drag or release did.
type GesturePayload struct {
	Event string `json:"event"`
}

// GameOverPayload is sent once when the board fills up.
type GameOverPayload struct {
	Mode         board.ModeKey `json:"mode,omitempty"`
	Score        int           `json:"score"`
	PreviousBest *int          `json:"previous_best,omitempty"`
	NewBest      bool          `json:"new_best"`
	Ranked       bool          `json:"ranked"`
}

// ErrorPayload contains error information
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MarbleView is one occupied cell.
type MarbleView struct {
	Q     int          `json:"q"`
	R     int          `json:"r"`
	Color board.Marble `json:"color"`
}

// ScoreView is one award of points.
type ScoreView struct {
	Points     int `json:"points"`
	Multiplier int `json:"multiplier"`
	Blobs      int `json:"blobs"`
}

// ActionView describes the action at the front of the queue.
type ActionView struct {
	Kind       string        `json:"kind"`
	Path       []hex.Axial   `json:"path,omitempty"`
	Color      *board.Marble `json:"color,omitempty"`
	Multiplier int           `json:"multiplier,omitempty"`
	Duration   int           `json:"duration"`
	Timer      int           `json:"timer"`
}

// BoardView is the board state sent to clients.
type BoardView struct {
	Mode          board.ModeKey `json:"mode,omitempty"`
	Radius        int           `json:"radius"`
	Marbles       []MarbleView  `json:"marbles"`
	Score         int           `json:"score"`
	RecentScores  []ScoreView   `json:"recent_scores"`
	Tick          int           `json:"tick"`
	NextAction    *ActionView   `json:"next_action,omitempty"`
	QueueLen      int           `json:"queue_len"`
	PendingClear  []hex.Axial   `json:"pending_clear,omitempty"`
	PendingScore  *ScoreView    `json:"pending_score,omitempty"`
	SpawnTimer    int           `json:"spawn_timer"`
	SpawnInterval int           `json:"spawn_interval"`
	NextSpawn     *hex.Axial    `json:"next_spawn,omitempty"`
	Gesture       []hex.Axial   `json:"gesture,omitempty"`
	Paused        bool          `json:"paused"`
	Over          bool          `json:"over"`
}

func scoreView(s board.Score) ScoreView {
	return ScoreView{Points: s.Points, Multiplier: s.Multiplier, Blobs: s.Blobs}
}

// NewBoardView converts a game view to its wire form. Marbles are listed row
// by row so equal boards encode identically.
func NewBoardView(v play.View) BoardView {
	out := BoardView{
		Mode:          v.Settings.ModeKey,
		Radius:        v.Radius,
		Marbles:       make([]MarbleView, 0, len(v.Marbles)),
		Score:         v.Score,
		RecentScores:  make([]ScoreView, 0, len(v.RecentScores)),
		Tick:          v.TickCount,
		QueueLen:      v.QueueLen,
		PendingClear:  v.PendingClear,
		SpawnTimer:    v.SpawnTimer,
		SpawnInterval: v.SpawnInterval,
		NextSpawn:     v.NextSpawn,
		Gesture:       v.Gesture,
		Paused:        v.Paused,
		Over:          v.Over,
	}
	for c, m := range v.Marbles {
		out.Marbles = append(out.Marbles, MarbleView{Q: c.Q, R: c.R, Color: m})
	}
	slices.SortFunc(out.Marbles, func(a, b MarbleView) int {
		if c := cmp.Compare(a.R, b.R); c != 0 {
			return c
		}
		return cmp.Compare(a.Q, b.Q)
	})
	for _, s := range v.RecentScores {
		out.RecentScores = append(out.RecentScores, scoreView(s))
	}
	if v.PendingScore != nil {
		s := scoreView(*v.PendingScore)
		out.PendingScore = &s
	}
	if a := v.NextAction; a != nil {
		av := &ActionView{
			Kind:     a.Kind.String(),
			Duration: a.Duration(),
			Timer:    v.ActionTimer,
		}
		switch a.Kind {
		case board.KindCycle:
			av.Path = a.Path
		case board.KindDeleteColor:
			color := a.Color
			av.Color = &color
		case board.KindClearBlobs:
			av.Multiplier = a.Multiplier
		}
		out.NextAction = av
	}
	return out
}
