package game

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spexcher/Pictionary/crypto"
	"github.com/spexcher/Pictionary/domain"
	"github.com/spexcher/Pictionary/storage"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	engine   *Engine
	clock    *manualClock
	out      *recordingBroadcaster
	words    *MockWordSource
	scores   *MockScoreReporter
	recorder *MockGameRecorder
	store    *storage.MemoryStore
	tokens   *MockUniqueIdGenerator
	rooms    *MockUniqueIdGenerator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock:    newManualClock(t0),
		out:      &recordingBroadcaster{},
		words:    &MockWordSource{},
		scores:   &MockScoreReporter{},
		recorder: &MockGameRecorder{},
		store:    storage.NewMemoryStore(),
		tokens:   &MockUniqueIdGenerator{},
		rooms:    &MockUniqueIdGenerator{},
	}
	for i := 1; i <= 50; i++ {
		h.tokens.On("Generate").Return(fmt.Sprintf("tok%d", i)).Once()
	}
	h.rooms.On("Generate").Return("room1").Once()
	h.rooms.On("Generate").Return("room2").Once()
	h.scores.On("UpdatePlayerScore", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	h.recorder.On("RecordGame", mock.Anything, mock.Anything).Return(nil).Maybe()

	h.engine = NewEngine(Deps{
		Store:       h.store,
		Words:       h.words,
		Scores:      h.scores,
		Recorder:    h.recorder,
		Broadcaster: h.out,
		Hasher:      crypto.NewArgon2idHasher(1, 1024, 32, 16, 1),
		Clock:       h.clock,
		RoomIDs:     h.rooms,
		Tokens:      h.tokens,
		Logger:      zerolog.Nop(),
	}, DefaultConfig())
	return h
}

func (h *harness) wordIs(text string, d domain.Difficulty) {
	h.words.On("RandomWord", mock.Anything, mock.Anything).Return(domain.Word{Text: text, Difficulty: d, Category: "Things"}, nil).Once()
}

func (h *harness) room(t *testing.T, id string) Room {
	t.Helper()
	b, err := h.store.Get(context.Background(), roomKey(id))
	require.NoError(t, err)
	var r Room
	require.NoError(t, json.Unmarshal(b, &r))
	return r
}

func (h *harness) round(t *testing.T, id string) RoundState {
	t.Helper()
	b, err := h.store.Get(context.Background(), roundKey(id))
	require.NoError(t, err)
	var s RoundState
	require.NoError(t, json.Unmarshal(b, &s))
	return s
}

// lobbyOf3 creates room1 hosted by a and joined by b and c, with three rounds.
func (h *harness) lobbyOf3(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := h.engine.CreateRoom(ctx, CreateRoomRequest{
		PlayerID: "a", DisplayName: "Ann", RoomName: "r",
		Settings:   GameSettings{Rounds: 3, TimerMultiplier: 1, WordDifficulty: domain.DifficultyEasy},
		MaxPlayers: 8,
	})
	require.NoError(t, err)
	for _, p := range []struct{ id, name string }{{"b", "Bob"}, {"c", "Cid"}} {
		_, err := h.engine.JoinRoom(ctx, JoinRoomRequest{RoomID: "room1", PlayerID: p.id, DisplayName: p.name})
		require.NoError(t, err)
	}
	h.out.drain()
}

// assertRoles checks the host and drawer invariants of a persisted room.
func assertRoles(t *testing.T, r Room) {
	t.Helper()
	hosts, drawers := 0, 0
	for _, p := range r.Players {
		if p.IsHost {
			hosts++
		}
		if p.IsDrawing {
			drawers++
		}
	}
	if len(r.Players) > 0 {
		require.Equal(t, 1, hosts, "exactly one host")
	}
	require.LessOrEqual(t, drawers, 1, "at most one drawer")
	if r.roundActive() {
		require.Equal(t, 1, drawers, "one drawer while a round is active")
	}
}
