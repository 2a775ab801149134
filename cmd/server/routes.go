package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/spexcher/Pictionary/domain"
	"github.com/spexcher/Pictionary/leaderboard"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

type topPlayers interface {
	TopPlayers(ctx context.Context, n int) ([]leaderboard.Entry, error)
}

type historyReader interface {
	GameHistory(ctx context.Context, playerID string, limit int) ([]domain.GameRecord, error)
}

type historyEntry struct {
	RoomID    string                `json:"roomId"`
	HostID    string                `json:"hostId"`
	Settings  json.RawMessage       `json:"gameSettings,omitempty"`
	StartedAt time.Time             `json:"startedAt"`
	EndedAt   time.Time             `json:"endedAt"`
	Results   []historyPlayerResult `json:"results"`
}

type historyPlayerResult struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Score      int    `json:"score"`
	Position   int    `json:"position"`
}

// listLimit reads ?limit, falling back to the default on anything unusable.
func listLimit(ctx *gin.Context) int {
	n, err := strconv.Atoi(ctx.Query("limit"))
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	return min(n, maxListLimit)
}

func leaderboardHandler(board topPlayers, log zerolog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		entries, err := board.TopPlayers(ctx.Request.Context(), listLimit(ctx))
		if err != nil {
			log.Error().Err(err).Msg("reading leaderboard")
			ctx.String(http.StatusInternalServerError, "unknown-error")
			return
		}
		ctx.JSON(http.StatusOK, entries)
	}
}

func historyHandler(history historyReader, log zerolog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		playerID := ctx.Param("playerId")
		records, err := history.GameHistory(ctx.Request.Context(), playerID, listLimit(ctx))
		if err != nil {
			log.Error().Err(err).Str("player", playerID).Msg("reading game history")
			ctx.String(http.StatusInternalServerError, "unknown-error")
			return
		}

		out := make([]historyEntry, 0, len(records))
		for _, g := range records {
			e := historyEntry{RoomID: g.RoomID, HostID: g.HostID, StartedAt: g.StartedAt, EndedAt: g.EndedAt}
			if json.Valid(g.Settings) {
				e.Settings = g.Settings
			}
			for _, r := range g.Results {
				e.Results = append(e.Results, historyPlayerResult(r))
			}
			out = append(out, e)
		}
		ctx.JSON(http.StatusOK, out)
	}
}
