package board

import "github.com/gravitas-games/haxagon/internal/hex"

// Snapshot is a copy of the board's observable state. It shares no memory with
// the board and stays valid after further ticks.
type Snapshot struct {
	Marbles      Layout
	Radius       int
	Score        int
	RecentScores []Score
	TickCount    int

	NextAction    *Action
	ActionTimer   int
	QueueLen      int
	PendingClear  []hex.Axial
	PendingScore  *Score
	SpawnTimer    int
	SpawnInterval int
	NextSpawn     *hex.Axial

	Settings Settings
}

// Snapshot copies the board for presentation.
func (b *Board) Snapshot() Snapshot {
	s := Snapshot{
		Marbles:       b.Marbles(),
		Radius:        b.settings.Radius,
		Score:         b.score,
		RecentScores:  b.RecentScores(),
		TickCount:     b.tickCount,
		ActionTimer:   b.actionTimer,
		QueueLen:      len(b.queue),
		PendingClear:  b.PendingClear(),
		SpawnTimer:    b.spawnTimer,
		SpawnInterval: b.SpawnInterval(),
		Settings:      b.settings,
	}
	if a, ok := b.NextAction(); ok {
		s.NextAction = &a
		if sc, ok := b.ScoreFor(a); ok {
			s.PendingScore = &sc
		}
	}
	if sp, ok := b.NextSpawnPoint(); ok {
		s.NextSpawn = &sp
	}
	return s
}
