package game

import (
	"context"
	"time"

	"github.com/spexcher/Pictionary/domain"
)

// Store is the slice of the session store the engine needs. Get returns
// domain.ErrKeyNotFound for a missing or expired key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	ListAppend(ctx context.Context, key string, value []byte) error
	ListReadAll(ctx context.Context, key string) ([][]byte, error)
}

type WordSource interface {
	RandomWord(ctx context.Context, difficulty domain.Difficulty) (domain.Word, error)
}

type ScoreReporter interface {
	UpdatePlayerScore(ctx context.Context, playerID, playerName string, score int) error
}

type GameRecorder interface {
	RecordGame(ctx context.Context, record domain.GameRecord) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}

// Broadcaster delivers events to the connections bound to a room.
//
// Join binds the connection connID of playerID to the room group; an empty
// connID binds nothing. Leave unbinds every connection of the player.
type Broadcaster interface {
	Join(roomID, playerID, connID string)
	Leave(roomID, playerID string)
	ToRoom(roomID string, e Event)
	ToRoomExcept(roomID, exceptPlayerID string, e Event)
	ToPlayer(roomID, playerID string, e Event)
}

type UniqueIdGenerator interface {
	Generate() string
}
