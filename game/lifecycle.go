package game

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spexcher/Pictionary/domain"
	"github.com/spexcher/Pictionary/drawing"
	"github.com/spexcher/Pictionary/scoring"
)

type CreateRoomRequest struct {
	PlayerID    string
	DisplayName string
	// Username is the identity's own name, used when DisplayName is blank.
	Username   string
	RoomName   string
	Settings   GameSettings
	MaxPlayers int
	IsPrivate  bool
	Password   string
	ConnID     string
}

type JoinRoomRequest struct {
	RoomID       string
	PlayerID     string
	DisplayName  string
	Username     string
	Password     string
	SessionToken string
	ConnID       string
}

type ReconnectRequest struct {
	SessionToken string
	PlayerID     string
	ConnID       string
}

func (e *Engine) normalizeSettings(s GameSettings) GameSettings {
	if s.Rounds <= 0 {
		s.Rounds = DefaultRounds
	}
	s.TimerMultiplier = scoring.ClampMultiplier(s.TimerMultiplier, e.cfg.MultiplierMin, e.cfg.MultiplierMax)
	d, ok := domain.ParseDifficulty(string(s.WordDifficulty))
	if !ok {
		d = domain.DifficultyMixed
	}
	s.WordDifficulty = d
	return s
}

func (e *Engine) CreateRoom(ctx context.Context, req CreateRoomRequest) (JoinResult, error) {
	var hash string
	if req.IsPrivate && req.Password != "" {
		h, err := e.hasher.Hash(req.Password)
		if err != nil {
			return JoinResult{}, fmt.Errorf("%w: %w", ErrRoomCreation, err)
		}
		hash = h
	}

	name := strings.TrimSpace(req.RoomName)
	if name == "" {
		name = DefaultRoomName
	}

	roomID := e.roomIDs.Generate()
	var res JoinResult

	err := e.do(ctx, roomID, func(ctx context.Context, a *roomActor) error {
		token := e.tokens.Generate()
		room := Room{
			ID:   roomID,
			Name: name,
			Players: []Player{{
				ID:           req.PlayerID,
				DisplayName:  normalizeName(req.DisplayName, req.Username),
				IsHost:       true,
				SessionToken: token,
			}},
			MaxPlayers:   min(max(req.MaxPlayers, e.cfg.MinPlayers), e.cfg.MaxPlayers),
			IsPrivate:    req.IsPrivate,
			PasswordHash: hash,
			Settings:     e.normalizeSettings(req.Settings),
		}

		if err := e.saveRoom(ctx, a, room); err != nil {
			a.retiring = true
			return fmt.Errorf("%w: %w", ErrRoomCreation, err)
		}
		if err := e.saveSession(ctx, token, session{RoomID: roomID, PlayerID: req.PlayerID}); err != nil {
			if derr := e.deleteRoom(ctx, a, room); derr != nil {
				e.log.Error().Err(derr).Str("room", roomID).Msg("could not roll back room")
			}
			return fmt.Errorf("%w: %w", ErrRoomCreation, err)
		}

		e.out.Join(roomID, req.PlayerID, req.ConnID)
		res = JoinResult{Room: room.Public(), SessionToken: token, SelfID: req.PlayerID}
		e.log.Info().Str("room", roomID).Str("player", req.PlayerID).Msg("room created")
		return nil
	})
	return res, err
}

func (e *Engine) checkPassword(room Room, password string) bool {
	if !room.IsPrivate || room.PasswordHash == "" {
		return true
	}
	ok, err := e.hasher.Compare(room.PasswordHash, password)
	if err != nil {
		e.log.Warn().Err(err).Str("room", room.ID).Msg("password comparison failed")
		return false
	}
	return ok
}

func (e *Engine) JoinRoom(ctx context.Context, req JoinRoomRequest) (JoinResult, error) {
	var res JoinResult

	err := e.do(ctx, req.RoomID, func(ctx context.Context, a *roomActor) error {
		room, err := e.loadRoom(ctx, a)
		if err != nil {
			return err
		}

		if !e.checkPassword(room, req.Password) {
			return ErrForbidden
		}

		member := room.playerIndex(req.PlayerID) >= 0
		if !member && len(room.Players) >= room.MaxPlayers {
			return ErrRoomFull
		}

		var token string
		if req.SessionToken != "" {
			s, err := e.loadSession(ctx, req.SessionToken)
			if err != nil {
				return err
			}
			if s.PlayerID != req.PlayerID {
				return ErrInvalidSession
			}
			// a token issued for another room is replaced
			if s.RoomID == room.ID {
				token = req.SessionToken
			}
		}
		if token == "" {
			token = e.tokens.Generate()
		}

		name := normalizeName(req.DisplayName, req.Username)
		if p, ok := room.player(req.PlayerID); ok {
			p.DisplayName = name
			p.SessionToken = token
		} else {
			room.Players = append(room.Players, Player{ID: req.PlayerID, DisplayName: name, SessionToken: token})
		}

		if err := e.saveSession(ctx, token, session{RoomID: room.ID, PlayerID: req.PlayerID}); err != nil {
			return err
		}
		if err := e.saveRoom(ctx, a, room); err != nil {
			return err
		}

		e.out.Join(room.ID, req.PlayerID, req.ConnID)
		pub := room.Public()
		e.out.ToRoom(room.ID, Event{Type: EventRoomUpdate, Data: pub})
		res = JoinResult{Room: pub, SessionToken: token, SelfID: req.PlayerID}
		if room.roundActive() {
			if res.RoundState, res.DrawingHistory, err = e.roundView(ctx, room); err != nil {
				e.log.Warn().Err(err).Str("room", room.ID).Msg("joined without round state")
			}
		}

		e.log.Debug().Str("room", room.ID).Str("player", req.PlayerID).Int("players", len(room.Players)).Msg("player joined")
		return nil
	})
	return res, err
}

func (e *Engine) StartGame(ctx context.Context, roomID, requesterID string) error {
	return e.do(ctx, roomID, func(ctx context.Context, a *roomActor) error {
		room, err := e.loadRoom(ctx, a)
		if err != nil {
			return err
		}
		if room.GameStarted {
			return nil
		}
		if !room.isHost(requesterID) {
			return ErrForbidden
		}
		if len(room.Players) < e.cfg.MinPlayers {
			return ErrInsufficientPlayers
		}
		if room.Settings.Rounds%len(room.Players) != 0 {
			return ErrInvalidSettings
		}

		for i := range room.Players {
			room.Players[i].Score = 0
		}
		room.clearRound()
		room.GameStarted = true
		room.CurrentRound = 1
		room.GameStartedAt = e.clock.Now().UnixMilli()

		// startRound persists the room, so nothing is written if it fails.
		if err := e.startRound(ctx, a, room); err != nil {
			return err
		}
		e.log.Info().Str("room", room.ID).Int("players", len(room.Players)).Int("rounds", room.Settings.Rounds).Msg("game started")
		return nil
	})
}

// LeaveRoom is also what a dropped connection turns into. Leaving a room the
// player is not part of is a no-op.
func (e *Engine) LeaveRoom(ctx context.Context, roomID, playerID string) error {
	return e.do(ctx, roomID, func(ctx context.Context, a *roomActor) error {
		room, err := e.loadRoom(ctx, a)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return e.removePlayer(ctx, a, room, playerID)
	})
}

func (e *Engine) removePlayer(ctx context.Context, a *roomActor, room Room, playerID string) error {
	wasDrawing := room.roundActive() && room.CurrentDrawerID == playerID

	gone, ok := room.removePlayer(playerID)
	if !ok {
		return nil
	}
	e.out.Leave(room.ID, playerID)

	if len(room.Players) == 0 {
		e.log.Info().Str("room", room.ID).Msg("room emptied, deleting")
		return e.deleteRoom(ctx, a, room)
	}

	if err := e.saveRoom(ctx, a, room); err != nil {
		return err
	}
	e.out.ToRoom(room.ID, Event{Type: EventRoomUpdate, Data: room.Public()})
	e.out.ToRoom(room.ID, Event{Type: EventPlayerDisconnect, Data: PlayerNoticePayload{PlayerID: gone.ID, PlayerName: gone.DisplayName}})

	if wasDrawing {
		e.log.Debug().Str("room", room.ID).Str("player", playerID).Msg("drawer left, ending round")
		return e.endRound(ctx, a, room)
	}
	return nil
}

// KickPlayer lets the host remove another member.
func (e *Engine) KickPlayer(ctx context.Context, roomID, requesterID, targetID string) error {
	return e.do(ctx, roomID, func(ctx context.Context, a *roomActor) error {
		room, err := e.loadRoom(ctx, a)
		if err != nil {
			return err
		}
		if !room.isHost(requesterID) || requesterID == targetID {
			return ErrForbidden
		}
		if room.playerIndex(targetID) < 0 {
			return ErrNotFound
		}

		e.out.ToPlayer(room.ID, targetID, Event{Type: EventKicked, Data: KickedPayload{RoomID: room.ID}})
		return e.removePlayer(ctx, a, room, targetID)
	})
}

// UpdateSettings changes the game settings from the lobby. Only the host may
// do it and never while a game runs.
func (e *Engine) UpdateSettings(ctx context.Context, roomID, requesterID string, settings GameSettings) (Room, error) {
	var out Room
	err := e.do(ctx, roomID, func(ctx context.Context, a *roomActor) error {
		room, err := e.loadRoom(ctx, a)
		if err != nil {
			return err
		}
		if !room.isHost(requesterID) || room.GameStarted {
			return ErrForbidden
		}
		if settings.Rounds <= 0 {
			return ErrInvalidSettings
		}
		d, ok := domain.ParseDifficulty(string(settings.WordDifficulty))
		if !ok {
			return ErrInvalidSettings
		}

		room.Settings = GameSettings{
			Rounds:          settings.Rounds,
			TimerMultiplier: scoring.ClampMultiplier(settings.TimerMultiplier, e.cfg.MultiplierMin, e.cfg.MultiplierMax),
			WordDifficulty:  d,
		}
		if err := e.saveRoom(ctx, a, room); err != nil {
			return err
		}

		out = room.Public()
		e.out.ToRoom(room.ID, Event{Type: EventRoomUpdate, Data: out})
		return nil
	})
	return out, err
}

// Reconnect re-attaches a new connection to the player a session token was
// issued for.
func (e *Engine) Reconnect(ctx context.Context, req ReconnectRequest) (ReconnectResult, error) {
	s, err := e.loadSession(ctx, req.SessionToken)
	if err != nil {
		return ReconnectResult{}, err
	}
	if s.PlayerID != req.PlayerID {
		return ReconnectResult{}, ErrInvalidSession
	}

	var res ReconnectResult
	err = e.do(ctx, s.RoomID, func(ctx context.Context, a *roomActor) error {
		room, err := e.loadRoom(ctx, a)
		if err != nil {
			return err
		}
		p, ok := room.player(req.PlayerID)
		if !ok {
			return ErrNotFound
		}

		if err := e.saveSession(ctx, req.SessionToken, s); err != nil {
			return err
		}
		if p.SessionToken != req.SessionToken {
			p.SessionToken = req.SessionToken
			if err := e.saveRoom(ctx, a, room); err != nil {
				return err
			}
		}

		e.out.Join(room.ID, req.PlayerID, req.ConnID)

		res = ReconnectResult{Room: room.Public(), DrawingHistory: []drawing.Command{}, SelfID: req.PlayerID}
		if room.roundActive() {
			state, history, err := e.roundView(ctx, room)
			if err != nil {
				return err
			}
			res.RoundState, res.DrawingHistory = state, history

			if room.CurrentDrawerID == req.PlayerID {
				res.CurrentWord = room.CurrentWord
			}
		}

		e.out.ToRoomExcept(room.ID, req.PlayerID, Event{
			Type: EventPlayerReconnected,
			Data: PlayerNoticePayload{PlayerID: p.ID, PlayerName: p.DisplayName},
		})
		return nil
	})
	return res, err
}

// roundView is the public state of the running round and the strokes drawn
// so far. The word is never part of it.
func (e *Engine) roundView(ctx context.Context, room Room) (*RoundState, []drawing.Command, error) {
	var view *RoundState
	state, err := e.loadRound(ctx, room.ID)
	switch {
	case err == nil:
		pub := state.Public()
		view = &pub
	case !errors.Is(err, ErrNotFound):
		return nil, nil, err
	}

	entries, err := e.store.ListReadAll(ctx, strokeKey(room.ID, room.CurrentRound))
	if err != nil {
		return nil, nil, storeErr(err)
	}
	return view, drawing.DecodeAll(entries), nil
}
