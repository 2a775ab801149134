package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spexcher/Pictionary/crypto"
	"github.com/spexcher/Pictionary/drawing"
	"github.com/spexcher/Pictionary/game"
)

// --- Engine ---

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) CreateRoom(ctx context.Context, req game.CreateRoomRequest) (game.JoinResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(game.JoinResult), args.Error(1)
}

func (m *MockEngine) JoinRoom(ctx context.Context, req game.JoinRoomRequest) (game.JoinResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(game.JoinResult), args.Error(1)
}

func (m *MockEngine) StartGame(ctx context.Context, roomID, requesterID string) error {
	args := m.Called(ctx, roomID, requesterID)
	return args.Error(0)
}

func (m *MockEngine) LeaveRoom(ctx context.Context, roomID, playerID string) error {
	args := m.Called(ctx, roomID, playerID)
	return args.Error(0)
}

func (m *MockEngine) KickPlayer(ctx context.Context, roomID, requesterID, targetID string) error {
	args := m.Called(ctx, roomID, requesterID, targetID)
	return args.Error(0)
}

func (m *MockEngine) UpdateSettings(ctx context.Context, roomID, requesterID string, settings game.GameSettings) (game.Room, error) {
	args := m.Called(ctx, roomID, requesterID, settings)
	return args.Get(0).(game.Room), args.Error(1)
}

func (m *MockEngine) Reconnect(ctx context.Context, req game.ReconnectRequest) (game.ReconnectResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(game.ReconnectResult), args.Error(1)
}

func (m *MockEngine) RelayDrawCommand(ctx context.Context, roomID, senderID string, cmd drawing.Command) error {
	args := m.Called(ctx, roomID, senderID, cmd)
	return args.Error(0)
}

func (m *MockEngine) SubmitGuess(ctx context.Context, roomID, senderID, text string) (game.GuessOutcome, error) {
	args := m.Called(ctx, roomID, senderID, text)
	return args.Get(0).(game.GuessOutcome), args.Error(1)
}

// --- TokenVerifier ---

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(token string) (crypto.Identity, error) {
	args := m.Called(token)
	return args.Get(0).(crypto.Identity), args.Error(1)
}

// --- Socket ---

type frame struct {
	messageType int
	data        []byte
}

var errSocketClosed = errors.New("socket closed")

// fakeSocket feeds Read from in and collects writes in out.
type fakeSocket struct {
	in        chan frame
	out       chan []byte
	closed    chan struct{}
	closeOnce sync.Once
	closeCode string
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{
		in:     make(chan frame, 64),
		out:    make(chan []byte, 512),
		closed: make(chan struct{}),
	}
}

func (s *fakeSocket) Write(data []byte) error {
	select {
	case <-s.closed:
		return errSocketClosed
	case s.out <- data:
		return nil
	}
}

func (s *fakeSocket) Ping() error { return nil }

func (s *fakeSocket) Read() (int, []byte, error) {
	select {
	case f, ok := <-s.in:
		if !ok {
			return 0, nil, errSocketClosed
		}
		return f.messageType, f.data, nil
	case <-s.closed:
		return 0, nil, errSocketClosed
	}
}

func (s *fakeSocket) Close(errCode string) {
	s.closeOnce.Do(func() {
		s.closeCode = errCode
		close(s.closed)
	})
}

func (s *fakeSocket) sendJSON(t *testing.T, intent string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	b, err := json.Marshal(inbound{Type: intent, Data: raw})
	require.NoError(t, err)
	s.in <- frame{messageType: websocket.TextMessage, data: b}
}

type received struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// next waits for the next event written to the socket.
func (s *fakeSocket) next(t *testing.T) received {
	t.Helper()
	select {
	case b := <-s.out:
		var r received
		require.NoError(t, json.Unmarshal(b, &r))
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no event written")
		return received{}
	}
}

func (s *fakeSocket) quiet(t *testing.T) {
	t.Helper()
	select {
	case b := <-s.out:
		t.Fatalf("unexpected event %s", b)
	case <-time.After(50 * time.Millisecond):
	}
}
