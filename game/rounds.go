package game

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"slices"
	"time"

	"github.com/spexcher/Pictionary/domain"
	"github.com/spexcher/Pictionary/scoring"
)

// startRound makes players[(round-1) mod n] the drawer, draws a word, persists
// the room and a fresh RoundState and arms the one-second ticker.
func (e *Engine) startRound(ctx context.Context, a *roomActor, room Room) error {
	n := len(room.Players)
	if n == 0 || room.CurrentRound < 1 {
		return nil
	}

	idx := (room.CurrentRound - 1) % n
	for i := range room.Players {
		room.Players[i].IsDrawing = i == idx
	}
	drawer := room.Players[idx]

	word, err := e.words.RandomWord(ctx, room.Settings.WordDifficulty)
	if err != nil {
		return storeErr(err)
	}

	duration := scoring.RoundDuration(e.cfg.baseDuration(word.Difficulty), room.Settings.TimerMultiplier)
	now := e.clock.Now()

	room.CurrentDrawerID = drawer.ID
	room.CurrentWord = word.Text
	room.RoundEndTimestamp = now.Add(time.Duration(duration) * time.Second).UnixMilli()

	state := RoundState{
		RoomID:              room.ID,
		Round:               room.CurrentRound,
		DrawerID:            drawer.ID,
		Word:                word.Text,
		Category:            word.Category,
		Difficulty:          word.Difficulty,
		Duration:            duration,
		TimeLeftSeconds:     duration,
		RoundStartTimestamp: now.UnixMilli(),
		Guesses:             []Guess{},
	}

	if err := e.saveRoom(ctx, a, room); err != nil {
		return err
	}
	if err := e.saveRound(ctx, state); err != nil {
		return err
	}
	if room.CurrentRound > 1 {
		if err := e.store.Delete(ctx, strokeKey(room.ID, room.CurrentRound-1)); err != nil {
			e.log.Warn().Err(err).Str("room", room.ID).Msg("could not drop previous stroke log")
		}
	}

	e.out.ToRoom(room.ID, Event{Type: EventRoundStart, Data: RoundStartPayload{
		Round:       room.CurrentRound,
		TotalRounds: room.Settings.Rounds,
		DrawerName:  drawer.DisplayName,
		DrawerID:    drawer.ID,
		TimeLeft:    duration,
		Difficulty:  string(word.Difficulty),
	}})
	e.out.ToPlayer(room.ID, drawer.ID, Event{Type: EventYourWord, Data: YourWordPayload{Word: word.Text, Category: word.Category}})

	e.armTicker(a, func() { e.tick(context.Background(), a) })

	e.log.Debug().Str("room", room.ID).Int("round", room.CurrentRound).Str("drawer", drawer.ID).Int("seconds", duration).Msg("round started")
	return nil
}

// tick refreshes the countdown and ends the round once it hits zero.
func (e *Engine) tick(ctx context.Context, a *roomActor) {
	room, err := e.loadRoom(ctx, a)
	if err != nil {
		a.cancelTimer()
		if !errors.Is(err, ErrNotFound) {
			e.log.Error().Err(err).Str("room", a.id).Msg("tick could not load room")
		}
		return
	}
	if !room.roundActive() {
		a.cancelTimer()
		return
	}

	state, err := e.loadRound(ctx, room.ID)
	if err != nil {
		a.cancelTimer()
		e.log.Error().Err(err).Str("room", room.ID).Msg("tick could not load round state")
		return
	}

	state.TimeLeftSeconds = scoring.SecondsLeft(time.UnixMilli(room.RoundEndTimestamp), e.clock.Now())
	if err := e.saveRound(ctx, state); err != nil {
		e.log.Error().Err(err).Str("room", room.ID).Msg("tick could not persist round state")
	}
	e.out.ToRoom(room.ID, Event{Type: EventGameState, Data: state.Public()})

	if state.TimeLeftSeconds > 0 {
		return
	}
	if err := e.endRound(ctx, a, room); err != nil {
		e.log.Error().Err(err).Str("room", room.ID).Msg("could not end round")
	}
}

// endRound closes the current round and either schedules the next one after
// the transition delay or finishes the game.
func (e *Engine) endRound(ctx context.Context, a *roomActor, room Room) error {
	a.cancelTimer()

	if err := e.store.Delete(ctx, strokeKey(room.ID, room.CurrentRound)); err != nil {
		e.log.Warn().Err(err).Str("room", room.ID).Msg("could not drop stroke log")
	}
	room.clearRound()

	if room.CurrentRound >= room.Settings.Rounds {
		return e.endGame(ctx, a, room)
	}

	room.CurrentRound++
	if err := e.saveRoom(ctx, a, room); err != nil {
		return err
	}
	e.out.ToRoom(room.ID, Event{Type: EventNextRound, Data: NextRoundPayload{NextRound: room.CurrentRound}})

	e.armTransition(a, func() { e.startNextRound(context.Background(), a) })
	return nil
}

func (e *Engine) startNextRound(ctx context.Context, a *roomActor) {
	room, err := e.loadRoom(ctx, a)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			e.log.Error().Err(err).Str("room", a.id).Msg("could not load room for next round")
		}
		return
	}
	if !room.GameStarted || room.roundActive() {
		return
	}

	err = e.startRound(ctx, a, room)
	if err == nil {
		return
	}

	e.log.Error().Err(err).Str("room", room.ID).Int("round", room.CurrentRound).Msg("could not start round, ending game")
	e.out.ToRoom(room.ID, ErrorEvent(err))
	if err := e.endGame(ctx, a, room); err != nil {
		e.log.Error().Err(err).Str("room", room.ID).Msg("could not end game")
	}
}

// endGame ranks the players, reports their scores and puts the room back in
// the lobby with the same membership.
func (e *Engine) endGame(ctx context.Context, a *roomActor, room Room) error {
	a.cancelTimer()

	startedAt := room.GameStartedAt
	room.clearRound()
	room.GameStarted = false
	room.CurrentRound = 0
	room.GameStartedAt = 0

	if err := e.saveRoom(ctx, a, room); err != nil {
		return err
	}

	results := room.Public().Players
	slices.SortStableFunc(results, func(x, y Player) int {
		return cmp.Compare(y.Score, x.Score)
	})

	e.reportScores(ctx, room, results)
	e.recordGame(ctx, room, results, startedAt)

	if err := e.store.Delete(ctx, roundKey(room.ID)); err != nil {
		e.log.Warn().Err(err).Str("room", room.ID).Msg("could not drop round state")
	}

	e.out.ToRoom(room.ID, Event{Type: EventGameEnd, Data: GameEndPayload{Results: results, Winner: results[0]}})
	e.out.ToRoom(room.ID, Event{Type: EventRoomUpdate, Data: room.Public()})

	e.log.Info().Str("room", room.ID).Str("winner", results[0].ID).Msg("game ended")
	return nil
}

func (e *Engine) reportScores(ctx context.Context, room Room, results []Player) {
	if e.scores == nil {
		return
	}
	for _, p := range results {
		if err := e.scores.UpdatePlayerScore(ctx, p.ID, p.DisplayName, p.Score); err != nil {
			e.log.Error().Err(err).Str("room", room.ID).Str("player", p.ID).Msg("could not update leaderboard")
		}
	}
}

func (e *Engine) recordGame(ctx context.Context, room Room, results []Player, startedAt int64) {
	if e.recorder == nil {
		return
	}

	settings, err := json.Marshal(room.Settings)
	if err != nil {
		e.log.Error().Err(err).Str("room", room.ID).Msg("could not encode settings")
		return
	}

	var hostID string
	for _, p := range room.Players {
		if p.IsHost {
			hostID = p.ID
		}
	}

	record := domain.GameRecord{
		RoomID:    room.ID,
		HostID:    hostID,
		Settings:  settings,
		StartedAt: time.UnixMilli(startedAt),
		EndedAt:   e.clock.Now(),
		Results:   make([]domain.PlayerResult, len(results)),
	}
	for i, p := range results {
		record.Results[i] = domain.PlayerResult{PlayerID: p.ID, PlayerName: p.DisplayName, Score: p.Score, Position: i + 1}
	}

	if err := e.recorder.RecordGame(ctx, record); err != nil {
		e.log.Error().Err(err).Str("room", room.ID).Msg("could not record game")
	}
}
