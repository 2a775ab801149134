package main

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/spexcher/Pictionary/domain"
	"github.com/spexcher/Pictionary/leaderboard"
)

type MockBoard struct {
	mock.Mock
}

func (m *MockBoard) TopPlayers(ctx context.Context, n int) ([]leaderboard.Entry, error) {
	args := m.Called(ctx, n)
	return args.Get(0).([]leaderboard.Entry), args.Error(1)
}

type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) GameHistory(ctx context.Context, playerID string, limit int) ([]domain.GameRecord, error) {
	args := m.Called(ctx, playerID, limit)
	return args.Get(0).([]domain.GameRecord), args.Error(1)
}
