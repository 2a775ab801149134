package game

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spexcher/Pictionary/domain"
	"github.com/spexcher/Pictionary/drawing"
)

func TestCreateRoom(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	testCases := []struct {
		desc               string
		req                CreateRoomRequest
		expectedMaxPlayers int
		expectedMultiplier float64
		expectedName       string
		expectedRoomName   string
		expectedSettings   GameSettings
	}{
		{
			desc:               "clamps to the upper bounds",
			req:                CreateRoomRequest{PlayerID: "a", DisplayName: "Ann", RoomName: "fun", MaxPlayers: 50, Settings: GameSettings{Rounds: 6, TimerMultiplier: 99, WordDifficulty: "HARD"}},
			expectedMaxPlayers: 8,
			expectedName:       "Ann",
			expectedRoomName:   "fun",
			expectedSettings:   GameSettings{Rounds: 6, TimerMultiplier: 2, WordDifficulty: domain.DifficultyHard},
		},
		{
			desc:               "clamps to the lower bounds",
			req:                CreateRoomRequest{PlayerID: "a", DisplayName: "  ", Username: "anna_from_jwt", MaxPlayers: -1, Settings: GameSettings{Rounds: 0, TimerMultiplier: -3}},
			expectedMaxPlayers: 3,
			expectedName:       "anna_from_jwt",
			expectedRoomName:   DefaultRoomName,
			expectedSettings:   GameSettings{Rounds: DefaultRounds, TimerMultiplier: 0.5, WordDifficulty: domain.DifficultyMixed},
		},
		{
			desc:               "long names are cut",
			req:                CreateRoomRequest{PlayerID: "a", DisplayName: "  abcdefghijklmnopqrstuvwxyz", MaxPlayers: 5, Settings: GameSettings{Rounds: 3, TimerMultiplier: 1.25, WordDifficulty: domain.DifficultyEasy}},
			expectedMaxPlayers: 5,
			expectedName:       "abcdefghijklmnopqrst",
			expectedRoomName:   DefaultRoomName,
			expectedSettings:   GameSettings{Rounds: 3, TimerMultiplier: 1.25, WordDifficulty: domain.DifficultyEasy},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)
			tc.req.ConnID = "conn-a"

			res, err := h.engine.CreateRoom(ctx, tc.req)
			require.NoError(t, err)

			assert.Equal(t, "tok1", res.SessionToken)
			assert.Equal(t, "a", res.SelfID)
			assert.Equal(t, "room1", res.Room.ID)
			assert.Equal(t, tc.expectedRoomName, res.Room.Name)
			assert.Equal(t, tc.expectedMaxPlayers, res.Room.MaxPlayers)
			assert.Equal(t, tc.expectedSettings, res.Room.Settings)
			assert.Equal(t, []Player{{ID: "a", DisplayName: tc.expectedName, IsHost: true}}, res.Room.Players)
			assert.Equal(t, []string{"room1/a/conn-a"}, h.out.joins)

			stored := h.room(t, "room1")
			assert.Equal(t, "tok1", stored.Players[0].SessionToken)

			b, err := h.store.Get(ctx, sessionKey("tok1"))
			require.NoError(t, err)
			assert.JSONEq(t, `{"roomId":"room1","userId":"a"}`, string(b))
		})
	}
}

func TestCreateRoom_PrivatePasswordIsHashed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	res, err := h.engine.CreateRoom(ctx, CreateRoomRequest{PlayerID: "a", IsPrivate: true, Password: "s3cret", MaxPlayers: 4})
	require.NoError(t, err)
	assert.Empty(t, res.Room.PasswordHash)

	stored := h.room(t, "room1")
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotContains(t, stored.PasswordHash, "s3cret")

	pub, err := json.Marshal(res.Room)
	require.NoError(t, err)
	assert.NotContains(t, string(pub), "passwordHash")
	assert.NotContains(t, string(pub), "sessionToken")
}

func TestJoinRoom(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("unknown room", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		_, err := h.engine.JoinRoom(ctx, JoinRoomRequest{RoomID: "nope", PlayerID: "b"})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Eventually(t, func() bool { return h.engine.LiveRooms() == 0 }, time.Second, 5*time.Millisecond)
	})

	t.Run("private room checks the password", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		_, err := h.engine.CreateRoom(ctx, CreateRoomRequest{PlayerID: "a", IsPrivate: true, Password: "pw", MaxPlayers: 4})
		require.NoError(t, err)

		_, err = h.engine.JoinRoom(ctx, JoinRoomRequest{RoomID: "room1", PlayerID: "b", Password: "wrong"})
		assert.ErrorIs(t, err, ErrForbidden)
		_, err = h.engine.JoinRoom(ctx, JoinRoomRequest{RoomID: "room1", PlayerID: "b"})
		assert.ErrorIs(t, err, ErrForbidden)

		res, err := h.engine.JoinRoom(ctx, JoinRoomRequest{RoomID: "room1", PlayerID: "b", Password: "pw"})
		require.NoError(t, err)
		assert.Len(t, res.Room.Players, 2)
	})

	t.Run("full room only lets members back in", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		_, err := h.engine.CreateRoom(ctx, CreateRoomRequest{PlayerID: "a", DisplayName: "Ann", MaxPlayers: 3})
		require.NoError(t, err)
		for _, id := range []string{"b", "c"} {
			_, err := h.engine.JoinRoom(ctx, JoinRoomRequest{RoomID: "room1", PlayerID: id, DisplayName: id})
			require.NoError(t, err)
		}

		_, err = h.engine.JoinRoom(ctx, JoinRoomRequest{RoomID: "room1", PlayerID: "d"})
		assert.ErrorIs(t, err, ErrRoomFull)

		res, err := h.engine.JoinRoom(ctx, JoinRoomRequest{RoomID: "room1", PlayerID: "b", DisplayName: "Bobby"})
		require.NoError(t, err)
		require.Len(t, res.Room.Players, 3)
		assert.Equal(t, "Bobby", res.Room.Players[1].DisplayName)
		assert.False(t, res.Room.Players[1].IsHost)
	})

	t.Run("broadcasts the room to members", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		_, err := h.engine.CreateRoom(ctx, CreateRoomRequest{PlayerID: "a", MaxPlayers: 4})
		require.NoError(t, err)
		h.out.drain()

		res, err := h.engine.JoinRoom(ctx, JoinRoomRequest{RoomID: "room1", PlayerID: "b", DisplayName: "Bob", ConnID: "c2"})
		require.NoError(t, err)

		sent := h.out.drain()
		require.Len(t, sent, 1)
		assert.Equal(t, sentEvent{scope: toRoom, roomID: "room1", event: Event{Type: EventRoomUpdate, Data: res.Room}}, sent[0])
		assert.Contains(t, h.out.joins, "room1/b/c2")
	})
}

func TestJoinRoom_SessionTokens(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.engine.CreateRoom(ctx, CreateRoomRequest{PlayerID: "a", MaxPlayers: 4}) // tok1
	require.NoError(t, err)
	_, err = h.engine.CreateRoom(ctx, CreateRoomRequest{PlayerID: "z", MaxPlayers: 4}) // tok2, room2
	require.NoError(t, err)
	res, err := h.engine.JoinRoom(ctx, JoinRoomRequest{RoomID: "room1", PlayerID: "b"}) // tok3
	require.NoError(t, err)
	require.Equal(t, "tok3", res.SessionToken)

	testCases := []struct {
		desc          string
		req           JoinRoomRequest
		expectedErr   error
		expectedToken string
	}{
		{desc: "unknown token", req: JoinRoomRequest{RoomID: "room1", PlayerID: "b", SessionToken: "forged"}, expectedErr: ErrInvalidSession},
		{desc: "token of another player", req: JoinRoomRequest{RoomID: "room1", PlayerID: "b", SessionToken: "tok1"}, expectedErr: ErrInvalidSession},
		{desc: "own token is refreshed", req: JoinRoomRequest{RoomID: "room1", PlayerID: "b", SessionToken: "tok3"}, expectedToken: "tok3"},
		{desc: "token of another room is replaced", req: JoinRoomRequest{RoomID: "room1", PlayerID: "z", SessionToken: "tok2"}, expectedToken: "tok4"},
	}

	for _, tc := range testCases {
		res, err := h.engine.JoinRoom(ctx, tc.req)
		if tc.expectedErr != nil {
			assert.ErrorIs(t, err, tc.expectedErr, tc.desc)
			continue
		}
		require.NoError(t, err, tc.desc)
		assert.Equal(t, tc.expectedToken, res.SessionToken, tc.desc)
	}

	assert.Len(t, h.room(t, "room1").Players, 3)
}

func TestJoinRoom_ExpiredToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.engine.CreateRoom(ctx, CreateRoomRequest{PlayerID: "a", MaxPlayers: 4})
	require.NoError(t, err)
	require.NoError(t, h.store.Delete(ctx, sessionKey("tok1")))

	_, err = h.engine.JoinRoom(ctx, JoinRoomRequest{RoomID: "room1", PlayerID: "a", SessionToken: "tok1"})
	assert.ErrorIs(t, err, ErrInvalidSession)
	_, err = h.engine.Reconnect(ctx, ReconnectRequest{SessionToken: "tok1", PlayerID: "a"})
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestJoinRoom_MidRound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	h.lobbyOf3(t)

	h.wordIs("cat", domain.DifficultyEasy)
	require.NoError(t, h.engine.StartGame(ctx, "room1", "a"))
	require.NoError(t, h.engine.RelayDrawCommand(ctx, "room1", "a", drawing.Command{Kind: drawing.KindStart, Timestamp: 1}))
	h.clock.Set(t0.Add(4 * time.Second))
	_, err := h.engine.SubmitGuess(ctx, "room1", "b", "dog")
	require.NoError(t, err)
	h.out.drain()

	res, err := h.engine.JoinRoom(ctx, JoinRoomRequest{RoomID: "room1", PlayerID: "d", DisplayName: "Dee"})
	require.NoError(t, err)
	assert.Equal(t, "d", res.SelfID)
	assert.Empty(t, res.Room.CurrentWord)
	require.NotNil(t, res.RoundState)
	assert.Equal(t, 1, res.RoundState.Round)
	assert.Empty(t, res.RoundState.Word)
	require.Len(t, res.RoundState.Guesses, 1)
	assert.Empty(t, res.RoundState.Guesses[0].Text)
	require.Len(t, res.DrawingHistory, 1)
	assert.Equal(t, drawing.KindStart, res.DrawingHistory[0].Kind)

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"cat"`)

	// the late joiner is not in the current rotation slot
	room := h.room(t, "room1")
	assert.Equal(t, "a", room.CurrentDrawerID)
	assertRoles(t, room)
}

func TestJoinRoom_InLobbyHasNoRound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	h.lobbyOf3(t)

	res, err := h.engine.JoinRoom(ctx, JoinRoomRequest{RoomID: "room1", PlayerID: "d"})
	require.NoError(t, err)
	assert.Nil(t, res.RoundState)
	assert.Empty(t, res.DrawingHistory)

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "gameState")
	assert.NotContains(t, string(b), "drawingHistory")
}

func TestStartGame_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.engine.CreateRoom(ctx, CreateRoomRequest{
		PlayerID: "a", MaxPlayers: 8,
		Settings: GameSettings{Rounds: 4, TimerMultiplier: 1, WordDifficulty: domain.DifficultyEasy},
	})
	require.NoError(t, err)
	_, err = h.engine.JoinRoom(ctx, JoinRoomRequest{RoomID: "room1", PlayerID: "b"})
	require.NoError(t, err)

	assert.ErrorIs(t, h.engine.StartGame(ctx, "room1", "a"), ErrInsufficientPlayers)

	_, err = h.engine.JoinRoom(ctx, JoinRoomRequest{RoomID: "room1", PlayerID: "c"})
	require.NoError(t, err)

	assert.ErrorIs(t, h.engine.StartGame(ctx, "room1", "b"), ErrForbidden)
	assert.ErrorIs(t, h.engine.StartGame(ctx, "room1", "a"), ErrInvalidSettings)
	assert.ErrorIs(t, h.engine.StartGame(ctx, "nope", "a"), ErrNotFound)

	_, err = h.engine.UpdateSettings(ctx, "room1", "a", GameSettings{Rounds: 3, TimerMultiplier: 1, WordDifficulty: domain.DifficultyEasy})
	require.NoError(t, err)

	h.wordIs("cat", domain.DifficultyEasy)
	require.NoError(t, h.engine.StartGame(ctx, "room1", "a"))
	assert.True(t, h.room(t, "room1").GameStarted)
	h.out.drain()

	// a second start is absorbed
	require.NoError(t, h.engine.StartGame(ctx, "room1", "a"))
	assert.Empty(t, h.out.drain())
	h.words.AssertNumberOfCalls(t, "RandomWord", 1)
}

func TestStartGame_WordSourceFailureLeavesLobby(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	h.lobbyOf3(t)

	h.words.On("RandomWord", mock.Anything, domain.DifficultyEasy).Return(domain.Word{}, assert.AnError).Once()
	err := h.engine.StartGame(ctx, "room1", "a")
	assert.ErrorIs(t, err, ErrStoreFailure)
	assert.False(t, h.room(t, "room1").GameStarted)

	h.wordIs("cat", domain.DifficultyEasy)
	assert.NoError(t, h.engine.StartGame(ctx, "room1", "a"))
}

func TestUpdateSettings(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	h.lobbyOf3(t)

	testCases := []struct {
		desc        string
		requester   string
		settings    GameSettings
		expectedErr error
	}{
		{desc: "not host", requester: "b", settings: GameSettings{Rounds: 3, WordDifficulty: "easy"}, expectedErr: ErrForbidden},
		{desc: "zero rounds", requester: "a", settings: GameSettings{Rounds: 0, WordDifficulty: "easy"}, expectedErr: ErrInvalidSettings},
		{desc: "unknown difficulty", requester: "a", settings: GameSettings{Rounds: 3, WordDifficulty: "impossible"}, expectedErr: ErrInvalidSettings},
		{desc: "ok and clamped", requester: "a", settings: GameSettings{Rounds: 6, TimerMultiplier: 0.1, WordDifficulty: "Medium"}},
	}
	for _, tc := range testCases {
		room, err := h.engine.UpdateSettings(ctx, "room1", tc.requester, tc.settings)
		if tc.expectedErr != nil {
			assert.ErrorIs(t, err, tc.expectedErr, tc.desc)
			continue
		}
		require.NoError(t, err, tc.desc)
		assert.Equal(t, GameSettings{Rounds: 6, TimerMultiplier: 0.5, WordDifficulty: domain.DifficultyMedium}, room.Settings)
	}

	h.wordIs("cat", domain.DifficultyEasy)
	require.NoError(t, h.engine.StartGame(ctx, "room1", "a"))
	_, err := h.engine.UpdateSettings(ctx, "room1", "a", GameSettings{Rounds: 3, WordDifficulty: "easy"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestLeaveRoom_HostPromotion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	h.lobbyOf3(t)

	require.NoError(t, h.engine.LeaveRoom(ctx, "room1", "a"))

	room := h.room(t, "room1")
	assertRoles(t, room)
	require.Len(t, room.Players, 2)
	assert.Equal(t, "b", room.Players[0].ID)
	assert.True(t, room.Players[0].IsHost)

	sent := h.out.drain()
	assert.Equal(t, []string{EventRoomUpdate, EventPlayerDisconnect}, types(sent))
	assert.Equal(t, PlayerNoticePayload{PlayerID: "a", PlayerName: "Ann"}, sent[1].event.Data)
	assert.Equal(t, []string{"room1/a"}, h.out.leaves)

	// leaving twice is harmless
	require.NoError(t, h.engine.LeaveRoom(ctx, "room1", "a"))
	assert.Empty(t, h.out.drain())
}

func TestLeaveRoom_LastPlayerDeletesEverything(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	h.lobbyOf3(t)

	h.wordIs("cat", domain.DifficultyEasy)
	require.NoError(t, h.engine.StartGame(ctx, "room1", "a"))
	require.NoError(t, h.store.ListAppend(ctx, strokeKey("room1", 1), []byte{0x0a, 0x04, 'd', 'r', 'a', 'w'}))

	for _, id := range []string{"b", "c", "a"} {
		require.NoError(t, h.engine.LeaveRoom(ctx, "room1", id))
	}

	for _, key := range []string{roomKey("room1"), roundKey("room1")} {
		_, err := h.store.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrKeyNotFound, key)
	}
	strokes, err := h.store.ListReadAll(ctx, strokeKey("room1", 1))
	require.NoError(t, err)
	assert.Empty(t, strokes)

	assert.Eventually(t, func() bool { return h.engine.LiveRooms() == 0 }, time.Second, 5*time.Millisecond)

	_, err = h.engine.JoinRoom(ctx, JoinRoomRequest{RoomID: "room1", PlayerID: "a"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKickPlayer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	h.lobbyOf3(t)

	assert.ErrorIs(t, h.engine.KickPlayer(ctx, "room1", "b", "c"), ErrForbidden)
	assert.ErrorIs(t, h.engine.KickPlayer(ctx, "room1", "a", "a"), ErrForbidden)
	assert.ErrorIs(t, h.engine.KickPlayer(ctx, "room1", "a", "ghost"), ErrNotFound)
	assert.Empty(t, h.out.drain())

	require.NoError(t, h.engine.KickPlayer(ctx, "room1", "a", "c"))

	sent := h.out.drain()
	require.Equal(t, []string{EventKicked, EventRoomUpdate, EventPlayerDisconnect}, types(sent))
	assert.Equal(t, sentEvent{scope: toPlayer, roomID: "room1", player: "c", event: Event{Type: EventKicked, Data: KickedPayload{RoomID: "room1"}}}, sent[0])
	assert.Len(t, h.room(t, "room1").Players, 2)
	assert.Contains(t, h.out.leaves, "room1/c")
}
