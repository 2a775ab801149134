package game

import "github.com/google/uuid"

const roomIDLength = 8

// RoomIdGenerator hands out short room ids cut from a random uuid.
type RoomIdGenerator struct{}

func (RoomIdGenerator) Generate() string {
	return uuid.NewString()[:roomIDLength]
}

type TokenGenerator struct{}

func (TokenGenerator) Generate() string {
	return uuid.NewString()
}
