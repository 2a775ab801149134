// Package game is the room engine: it owns room membership, round
// sequencing, drawer rotation, the round timer, guess scoring and session
// token recovery. Each live room is driven by its own actor goroutine and
// its state is persisted to a Store after every mutation.
package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/spexcher/Pictionary/domain"
)

type Deps struct {
	Store       Store
	Words       WordSource
	Scores      ScoreReporter
	Recorder    GameRecorder
	Broadcaster Broadcaster
	Hasher      PasswordHasher
	Clock       Clock
	RoomIDs     UniqueIdGenerator
	Tokens      UniqueIdGenerator
	Logger      zerolog.Logger
}

type Engine struct {
	store    Store
	words    WordSource
	scores   ScoreReporter
	recorder GameRecorder
	out      Broadcaster
	hasher   PasswordHasher
	clock    Clock
	roomIDs  UniqueIdGenerator
	tokens   UniqueIdGenerator
	log      zerolog.Logger
	cfg      Config
	rooms    *registry
}

func NewEngine(d Deps, cfg Config) *Engine {
	if d.Clock == nil {
		d.Clock = RealClock{}
	}
	if d.RoomIDs == nil {
		d.RoomIDs = RoomIdGenerator{}
	}
	if d.Tokens == nil {
		d.Tokens = TokenGenerator{}
	}
	log := d.Logger.With().Str("component", "engine").Logger()
	return &Engine{
		store:    d.Store,
		words:    d.Words,
		scores:   d.Scores,
		recorder: d.Recorder,
		out:      d.Broadcaster,
		hasher:   d.Hasher,
		clock:    d.Clock,
		roomIDs:  d.RoomIDs,
		tokens:   d.Tokens,
		log:      log,
		cfg:      cfg,
		rooms:    newRegistry(log),
	}
}

// do runs fn on the actor of roomID and waits for its result. The task keeps
// running to completion if ctx ends first, so a room is never left half
// written.
func (e *Engine) do(ctx context.Context, roomID string, fn func(ctx context.Context, a *roomActor) error) error {
	a := e.rooms.acquire(roomID)
	errc := make(chan error, 1)
	taskCtx := context.WithoutCancel(ctx)

	a.inbox <- func() {
		defer func() {
			if r := recover(); r != nil {
				errc <- fmt.Errorf("room %s: task panicked: %v", roomID, r)
				panic(r)
			}
		}()
		errc <- fn(taskCtx, a)
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops every round timer. Rooms stay persisted.
func (e *Engine) Shutdown(ctx context.Context) error {
	for _, a := range e.rooms.live() {
		err := e.do(ctx, a.id, func(ctx context.Context, a *roomActor) error {
			a.cancelTimer()
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// LiveRooms is the number of rooms with a running actor.
func (e *Engine) LiveRooms() int {
	return e.rooms.size()
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreFailure, err)
}

// loadRoom retires the actor when the room does not exist.
func (e *Engine) loadRoom(ctx context.Context, a *roomActor) (Room, error) {
	b, err := e.store.Get(ctx, roomKey(a.id))
	if errors.Is(err, domain.ErrKeyNotFound) {
		a.retiring = true
		return Room{}, ErrNotFound
	}
	if err != nil {
		return Room{}, storeErr(err)
	}

	var room Room
	if err := json.Unmarshal(b, &room); err != nil {
		return Room{}, storeErr(err)
	}
	return room, nil
}

func (e *Engine) saveRoom(ctx context.Context, a *roomActor, room Room) error {
	b, err := json.Marshal(room)
	if err != nil {
		return storeErr(err)
	}
	if err := e.store.Set(ctx, roomKey(room.ID), b, 0); err != nil {
		return storeErr(err)
	}
	a.retiring = false
	return nil
}

func (e *Engine) deleteRoom(ctx context.Context, a *roomActor, room Room) error {
	a.cancelTimer()
	a.retiring = true

	keys := []string{roomKey(room.ID), roundKey(room.ID)}
	if room.CurrentRound > 0 {
		keys = append(keys, strokeKey(room.ID, room.CurrentRound))
	}
	if err := e.store.Delete(ctx, keys...); err != nil {
		return storeErr(err)
	}
	return nil
}

func (e *Engine) loadRound(ctx context.Context, roomID string) (RoundState, error) {
	b, err := e.store.Get(ctx, roundKey(roomID))
	if errors.Is(err, domain.ErrKeyNotFound) {
		return RoundState{}, ErrNotFound
	}
	if err != nil {
		return RoundState{}, storeErr(err)
	}

	var state RoundState
	if err := json.Unmarshal(b, &state); err != nil {
		return RoundState{}, storeErr(err)
	}
	return state, nil
}

func (e *Engine) saveRound(ctx context.Context, state RoundState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return storeErr(err)
	}
	if err := e.store.Set(ctx, roundKey(state.RoomID), b, 0); err != nil {
		return storeErr(err)
	}
	return nil
}

func (e *Engine) loadSession(ctx context.Context, token string) (session, error) {
	if token == "" {
		return session{}, ErrInvalidSession
	}
	b, err := e.store.Get(ctx, sessionKey(token))
	if errors.Is(err, domain.ErrKeyNotFound) {
		return session{}, ErrInvalidSession
	}
	if err != nil {
		return session{}, storeErr(err)
	}

	var s session
	if err := json.Unmarshal(b, &s); err != nil {
		return session{}, ErrInvalidSession
	}
	return s, nil
}

// saveSession writes (or refreshes) a token with a full TTL.
func (e *Engine) saveSession(ctx context.Context, token string, s session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return storeErr(err)
	}
	if err := e.store.Set(ctx, sessionKey(token), b, e.cfg.SessionTTL); err != nil {
		return storeErr(err)
	}
	return nil
}
