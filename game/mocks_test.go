package game

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/spexcher/Pictionary/domain"
)

// --- WordSource ---

type MockWordSource struct {
	mock.Mock
}

func (m *MockWordSource) RandomWord(ctx context.Context, difficulty domain.Difficulty) (domain.Word, error) {
	args := m.Called(ctx, difficulty)
	return args.Get(0).(domain.Word), args.Error(1)
}

// --- ScoreReporter ---

type MockScoreReporter struct {
	mock.Mock
}

func (m *MockScoreReporter) UpdatePlayerScore(ctx context.Context, playerID, playerName string, score int) error {
	args := m.Called(ctx, playerID, playerName, score)
	return args.Error(0)
}

// --- GameRecorder ---

type MockGameRecorder struct {
	mock.Mock
}

func (m *MockGameRecorder) RecordGame(ctx context.Context, record domain.GameRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// --- UniqueIdGenerator ---

type MockUniqueIdGenerator struct {
	mock.Mock
}

func (m *MockUniqueIdGenerator) Generate() string {
	args := m.Called()
	return args.String(0)
}

// --- Clock ---

type manualTicker struct {
	c chan time.Time
}

func (t *manualTicker) C() <-chan time.Time { return t.c }
func (t *manualTicker) Stop()               {}

type manualStopper struct{}

func (manualStopper) Stop() bool { return true }

// manualClock never fires on its own; tests move time with Set and fire the
// armed timer through Engine.FireTimer.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock(now time.Time) *manualClock {
	return &manualClock{now: now}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *manualClock) NewTicker(d time.Duration) Ticker {
	return &manualTicker{c: make(chan time.Time)}
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Stopper {
	return manualStopper{}
}

// --- Broadcaster ---

const (
	toRoom   = "room"
	toExcept = "except"
	toPlayer = "player"
)

type sentEvent struct {
	scope  string
	roomID string
	player string
	event  Event
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	sent   []sentEvent
	joins  []string
	leaves []string
}

func (b *recordingBroadcaster) Join(roomID, playerID, connID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.joins = append(b.joins, roomID+"/"+playerID+"/"+connID)
}

func (b *recordingBroadcaster) Leave(roomID, playerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.leaves = append(b.leaves, roomID+"/"+playerID)
}

func (b *recordingBroadcaster) ToRoom(roomID string, e Event) {
	b.record(sentEvent{scope: toRoom, roomID: roomID, event: e})
}

func (b *recordingBroadcaster) ToRoomExcept(roomID, exceptPlayerID string, e Event) {
	b.record(sentEvent{scope: toExcept, roomID: roomID, player: exceptPlayerID, event: e})
}

func (b *recordingBroadcaster) ToPlayer(roomID, playerID string, e Event) {
	b.record(sentEvent{scope: toPlayer, roomID: roomID, player: playerID, event: e})
}

func (b *recordingBroadcaster) record(s sentEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, s)
}

// drain returns everything sent since the last call.
func (b *recordingBroadcaster) drain() []sentEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.sent
	b.sent = nil
	return out
}

func ofType(events []sentEvent, typ string) []sentEvent {
	var out []sentEvent
	for _, e := range events {
		if e.event.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func types(events []sentEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.event.Type
	}
	return out
}
