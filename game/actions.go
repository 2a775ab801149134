package game

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spexcher/Pictionary/drawing"
	"github.com/spexcher/Pictionary/scoring"
)

// RelayDrawCommand appends a command to the round's stroke log and fans it
// out to everyone but the sender. Commands from anyone but the current drawer,
// or outside an active round, are dropped without an error.
func (e *Engine) RelayDrawCommand(ctx context.Context, roomID, senderID string, cmd drawing.Command) error {
	return e.do(ctx, roomID, func(ctx context.Context, a *roomActor) error {
		room, err := e.loadRoom(ctx, a)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !room.roundActive() || room.CurrentDrawerID != senderID {
			return nil
		}

		if cmd.Timestamp == 0 {
			cmd.Timestamp = e.clock.Now().UnixMilli()
		}
		entry, err := cmd.MarshalBinary()
		if err != nil {
			e.log.Debug().Err(err).Str("room", room.ID).Msg("dropping unencodable draw command")
			return nil
		}
		if err := e.store.ListAppend(ctx, strokeKey(room.ID, room.CurrentRound), entry); err != nil {
			return storeErr(err)
		}

		e.out.ToRoomExcept(room.ID, senderID, Event{Type: EventDrawingSync, Data: cmd})
		return nil
	})
}

// SubmitGuess scores a guess against the secret word. The points of a correct
// guess go to the drawer. Anything that arrives outside an active round, from
// the drawer, or from a player who already guessed right is ignored.
func (e *Engine) SubmitGuess(ctx context.Context, roomID, senderID, text string) (GuessOutcome, error) {
	var outcome GuessOutcome
	text = strings.TrimSpace(text)

	err := e.do(ctx, roomID, func(ctx context.Context, a *roomActor) error {
		if text == "" {
			return nil
		}
		room, err := e.loadRoom(ctx, a)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !room.roundActive() || senderID == room.CurrentDrawerID {
			return nil
		}
		guesser, ok := room.player(senderID)
		if !ok {
			return nil
		}

		state, err := e.loadRound(ctx, room.ID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if state.hasCorrectGuess(senderID) {
			return nil
		}

		now := e.clock.Now()
		correct := guessMatches(text, room.CurrentWord)
		points := 0
		if correct {
			points = scoring.Points(scoring.ElapsedSeconds(time.UnixMilli(state.RoundStartTimestamp), now))
			if drawer, ok := room.player(room.CurrentDrawerID); ok {
				drawer.Score += points
			}
		}

		state.Guesses = append(state.Guesses, Guess{
			PlayerID:      senderID,
			PlayerName:    guesser.DisplayName,
			Text:          text,
			Timestamp:     now.UnixMilli(),
			Correct:       correct,
			PointsAwarded: points,
		})

		if err := e.saveRound(ctx, state); err != nil {
			return err
		}
		if err := e.saveRoom(ctx, a, room); err != nil {
			return err
		}

		if correct {
			e.out.ToPlayer(room.ID, senderID, Event{Type: EventCorrectGuess, Data: CorrectGuessPayload{Word: room.CurrentWord, Points: points}})
		}
		e.out.ToRoom(room.ID, Event{Type: EventGuessResult, Data: GuessResultPayload{
			PlayerID:   senderID,
			PlayerName: guesser.DisplayName,
			Correct:    correct,
		}})
		e.out.ToRoom(room.ID, Event{Type: EventGameState, Data: state.Public()})
		if correct {
			e.out.ToRoom(room.ID, Event{Type: EventRoomUpdate, Data: room.Public()})
		}

		outcome = GuessOutcome{Accepted: true, Correct: correct, Points: points}
		return nil
	})
	return outcome, err
}
