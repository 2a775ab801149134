package domain

import "time"

// GameRecord is the historical summary of one finished game.
type GameRecord struct {
	RoomID    string
	HostID    string
	Settings  []byte // JSON encoded game settings
	StartedAt time.Time
	EndedAt   time.Time
	Results   []PlayerResult
}

type PlayerResult struct {
	PlayerID   string
	PlayerName string
	Score      int
	Position   int
}
