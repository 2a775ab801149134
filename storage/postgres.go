package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spexcher/Pictionary/domain"
)

// PostgresRepo keeps the word dictionary and the history of finished games.
type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresRepo{pool: pool}, nil
}

func (pgr *PostgresRepo) Close() {
	pgr.pool.Close()
}

func wrapDatabaseErr(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
}

func (pgr *PostgresRepo) LoadWords(ctx context.Context) ([]domain.Word, error) {
	rows, err := pgr.pool.Query(ctx, "SELECT text, difficulty, category FROM words ORDER BY id")
	if err != nil {
		return nil, wrapDatabaseErr(err)
	}

	words, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Word, error) {
		var w domain.Word
		var difficulty string
		err := row.Scan(&w.Text, &difficulty, &w.Category)
		w.Difficulty = domain.Difficulty(difficulty)
		return w, err
	})
	if err != nil {
		return nil, wrapDatabaseErr(err)
	}
	return words, nil
}

func (pgr *PostgresRepo) AddWord(ctx context.Context, w domain.Word) error {
	_, err := pgr.pool.Exec(ctx,
		"INSERT INTO words(text, difficulty, category) VALUES($1, $2, $3)",
		w.Text, string(w.Difficulty), w.Category,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			// "23505" is the PostgreSQL error code for unique_violation
			if pgErr.Code == "23505" {
				return domain.ErrDuplicateWord
			}
		}
		return wrapDatabaseErr(err)
	}
	return nil
}

// RecordGame stores a finished game and its ranked results in one transaction.
func (pgr *PostgresRepo) RecordGame(ctx context.Context, record domain.GameRecord) error {
	tx, err := pgr.pool.Begin(ctx)
	if err != nil {
		return wrapDatabaseErr(err)
	}
	defer tx.Rollback(ctx)

	var gameID int64
	err = tx.QueryRow(ctx,
		"INSERT INTO games(room_id, host_id, settings, started_at, ended_at) VALUES($1, $2, $3, $4, $5) RETURNING id",
		record.RoomID, record.HostID, record.Settings, record.StartedAt, record.EndedAt,
	).Scan(&gameID)
	if err != nil {
		return wrapDatabaseErr(err)
	}

	batch := &pgx.Batch{}
	for _, r := range record.Results {
		batch.Queue(
			"INSERT INTO game_results(game_id, player_id, player_name, score, position) VALUES($1, $2, $3, $4, $5)",
			gameID, r.PlayerID, r.PlayerName, r.Score, r.Position,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return wrapDatabaseErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapDatabaseErr(err)
	}
	return nil
}

// GameHistory returns the most recent games a player took part in, newest first.
func (pgr *PostgresRepo) GameHistory(ctx context.Context, playerID string, limit int) ([]domain.GameRecord, error) {
	rows, err := pgr.pool.Query(ctx, `
		SELECT g.id, g.room_id, g.host_id, g.settings, g.started_at, g.ended_at, r.player_id, r.player_name, r.score, r.position
		FROM games g JOIN game_results r ON r.game_id = g.id
		WHERE g.id IN (
			SELECT game_id FROM game_results WHERE player_id = $1 ORDER BY game_id DESC LIMIT $2
		)
		ORDER BY g.id DESC, r.position`, playerID, limit)
	if err != nil {
		return nil, wrapDatabaseErr(err)
	}
	defer rows.Close()

	out := []domain.GameRecord{}
	lastID := int64(-1)
	for rows.Next() {
		var id int64
		var g domain.GameRecord
		var r domain.PlayerResult
		if err := rows.Scan(&id, &g.RoomID, &g.HostID, &g.Settings, &g.StartedAt, &g.EndedAt, &r.PlayerID, &r.PlayerName, &r.Score, &r.Position); err != nil {
			return nil, wrapDatabaseErr(err)
		}
		if id != lastID {
			out = append(out, g)
			lastID = id
		}
		out[len(out)-1].Results = append(out[len(out)-1].Results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDatabaseErr(err)
	}
	return out, nil
}
