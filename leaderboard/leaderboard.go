// Package leaderboard keeps the global ranking of players by final score.
package leaderboard

import (
	"context"
	"strings"

	"github.com/spexcher/Pictionary/domain"
)

const Key = "leaderboard"

type SortedSet interface {
	SortedSetUpsert(ctx context.Context, key string, score float64, member string) error
	SortedSetTopN(ctx context.Context, key string, n int) ([]domain.ScoredMember, error)
}

type Entry struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	TotalScore int    `json:"totalScore"`
}

type Service struct {
	store SortedSet
}

func NewService(store SortedSet) *Service {
	return &Service{store: store}
}

// UpdatePlayerScore sets the score of the id:name member, replacing any
// previous score it had.
func (s *Service) UpdatePlayerScore(ctx context.Context, playerID, playerName string, score int) error {
	return s.store.SortedSetUpsert(ctx, Key, float64(score), member(playerID, playerName))
}

func (s *Service) TopPlayers(ctx context.Context, n int) ([]Entry, error) {
	top, err := s.store.SortedSetTopN(ctx, Key, n)
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(top))
	for _, m := range top {
		id, name, _ := strings.Cut(m.Member, ":")
		out = append(out, Entry{PlayerID: id, PlayerName: name, TotalScore: int(m.Score)})
	}
	return out, nil
}

func member(playerID, playerName string) string {
	return playerID + ":" + playerName
}
