package hub

import (
	"encoding/json"
	"fmt"

	"github.com/spexcher/Pictionary/domain"
	"github.com/spexcher/Pictionary/game"
)

const (
	IntentCreateRoom      = "createRoom"
	IntentJoinRoom        = "joinRoom"
	IntentStartGame       = "startGame"
	IntentDrawCommand     = "drawCommand"
	IntentMakeGuess       = "makeGuess"
	IntentLeaveRoom       = "leaveRoom"
	IntentPlayerReconnect = "playerReconnect"
	IntentUpdateSettings  = "updateSettings"
	IntentKickPlayer      = "kickPlayer"
)

// inbound is the envelope of every text frame.
type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type settingsIntent struct {
	Rounds          int      `json:"rounds"`
	TimerMultiplier *float64 `json:"timerMultiplier"`
	WordDifficulty  string   `json:"wordDifficulty"`
}

// settings fills in a multiplier of 1 when the client sent none.
func (s settingsIntent) settings() game.GameSettings {
	multiplier := 1.0
	if s.TimerMultiplier != nil {
		multiplier = *s.TimerMultiplier
	}
	return game.GameSettings{
		Rounds:          s.Rounds,
		TimerMultiplier: multiplier,
		WordDifficulty:  domain.Difficulty(s.WordDifficulty),
	}
}

type createRoomIntent struct {
	RoomName   string         `json:"roomName"`
	PlayerName string         `json:"playerName"`
	Settings   settingsIntent `json:"gameSettings"`
	MaxPlayers int            `json:"maxPlayers"`
	IsPrivate  bool           `json:"isPrivate"`
	Password   string         `json:"password"`
}

type joinRoomIntent struct {
	RoomID       string `json:"roomId"`
	Password     string `json:"password"`
	SessionToken string `json:"sessionToken"`
	PlayerName   string `json:"playerName"`
}

type reconnectIntent struct {
	SessionToken string `json:"sessionToken"`
}

type updateSettingsIntent struct {
	settingsIntent
}

// UnmarshalJSON takes the settings either bare or under "gameSettings".
func (u *updateSettingsIntent) UnmarshalJSON(b []byte) error {
	var wrapped struct {
		Settings *settingsIntent `json:"gameSettings"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return err
	}
	if wrapped.Settings != nil {
		u.settingsIntent = *wrapped.Settings
		return nil
	}
	return json.Unmarshal(b, &u.settingsIntent)
}

type kickPlayerIntent struct {
	PlayerID string `json:"playerId"`
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// decodeGuess accepts a bare string or {"guess": "..."}.
func decodeGuess(data json.RawMessage) (string, error) {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		return text, nil
	}
	var wrapped struct {
		Guess string `json:"guess"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return "", fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return wrapped.Guess, nil
}
