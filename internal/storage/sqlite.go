package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/dungeon-engine/pkg/state"
	store "github.com/jwebster45206/dungeon-engine/pkg/storage"
	_ "modernc.org/sqlite"
)

const timeFormat = time.RFC3339Nano

var schema = []string{
	`CREATE TABLE IF NOT EXISTS game_sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT UNIQUE NOT NULL,
    campaign_id TEXT NOT NULL,
    character_id TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    last_updated TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS player_stats (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    name TEXT NOT NULL,
    health INTEGER NOT NULL,
    max_health INTEGER NOT NULL,
    level INTEGER NOT NULL,
    inventory TEXT,
    FOREIGN KEY (session_id) REFERENCES game_sessions(session_id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS world_state (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    location TEXT NOT NULL,
    time_of_day TEXT NOT NULL,
    weather TEXT,
    FOREIGN KEY (session_id) REFERENCES game_sessions(session_id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS campaign_state (
    session_id TEXT PRIMARY KEY,
    data TEXT NOT NULL,
    FOREIGN KEY (session_id) REFERENCES game_sessions(session_id) ON DELETE CASCADE
)`,
	`CREATE INDEX IF NOT EXISTS idx_player_stats_session ON player_stats(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_world_state_session ON world_state(session_id)`,
}

// SQLiteStorage keeps sessions in a local SQLite file. Every save rewrites
// the session's rows inside one transaction.
type SQLiteStorage struct {
	*Files
	db     *sql.DB
	logger *slog.Logger
}

var _ store.Storage = (*SQLiteStorage)(nil)

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path, dataDir string, logger *slog.Logger) (*SQLiteStorage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}

	dsn := "file:" + filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection serializes writers and keeps pragmas consistent.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	return &SQLiteStorage{
		Files:  NewFiles(dataDir, logger),
		db:     db,
		logger: logger,
	}, nil
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStorage) SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error {
	if gs == nil || gs.Campaign == nil {
		return errors.New("gamestate cannot be nil")
	}
	gs.UpdatedAt = time.Now()

	inventory, err := json.Marshal(gs.Player.Clone().Inventory)
	if err != nil {
		return fmt.Errorf("failed to marshal inventory: %w", err)
	}
	campaignState, err := json.Marshal(gs.Campaign)
	if err != nil {
		return fmt.Errorf("failed to marshal campaign state: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	sid := id.String()
	stmts := []struct {
		query string
		args  []any
	}{
		{`INSERT INTO game_sessions (session_id, campaign_id, character_id, created_at, last_updated)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(session_id) DO UPDATE SET
				campaign_id = excluded.campaign_id,
				character_id = excluded.character_id,
				last_updated = excluded.last_updated`,
			[]any{sid, gs.CampaignID, gs.CharacterID, gs.CreatedAt.UTC().Format(timeFormat), gs.UpdatedAt.UTC().Format(timeFormat)}},
		{`DELETE FROM player_stats WHERE session_id = ?`, []any{sid}},
		{`DELETE FROM world_state WHERE session_id = ?`, []any{sid}},
		{`INSERT INTO player_stats (session_id, name, health, max_health, level, inventory) VALUES (?, ?, ?, ?, ?, ?)`,
			[]any{sid, gs.Player.Name, gs.Player.Health, gs.Player.MaxHealth, gs.Player.Level, string(inventory)}},
		{`INSERT INTO world_state (session_id, location, time_of_day, weather) VALUES (?, ?, ?, ?)`,
			[]any{sid, gs.World.Location, gs.World.TimeOfDay, gs.World.Weather}},
		{`INSERT INTO campaign_state (session_id, data) VALUES (?, ?)
			ON CONFLICT(session_id) DO UPDATE SET data = excluded.data`,
			[]any{sid, string(campaignState)}},
	}
	for _, st := range stmts {
		if _, err := tx.ExecContext(ctx, st.query, st.args...); err != nil {
			s.logger.Error("Failed to save gamestate", "session_id", id, "error", err)
			return fmt.Errorf("failed to save gamestate: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit gamestate: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	sid := id.String()
	gs := &state.GameState{ID: id}

	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT campaign_id, character_id, created_at, last_updated FROM game_sessions WHERE session_id = ?`, sid,
	).Scan(&gs.CampaignID, &gs.CharacterID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load gamestate: %w", err)
	}
	if gs.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if gs.UpdatedAt, err = time.Parse(timeFormat, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse last_updated: %w", err)
	}

	var inventory sql.NullString
	err = s.db.QueryRowContext(ctx,
		`SELECT name, health, max_health, level, inventory FROM player_stats WHERE session_id = ? ORDER BY id DESC LIMIT 1`, sid,
	).Scan(&gs.Player.Name, &gs.Player.Health, &gs.Player.MaxHealth, &gs.Player.Level, &inventory)
	if err != nil {
		return nil, fmt.Errorf("failed to load player stats: %w", err)
	}
	gs.Player.Inventory = []string{}
	if inventory.Valid && inventory.String != "" {
		if err := json.Unmarshal([]byte(inventory.String), &gs.Player.Inventory); err != nil {
			return nil, fmt.Errorf("failed to unmarshal inventory: %w", err)
		}
	}
	gs.Player = gs.Player.Clone()

	var weather sql.NullString
	err = s.db.QueryRowContext(ctx,
		`SELECT location, time_of_day, weather FROM world_state WHERE session_id = ? ORDER BY id DESC LIMIT 1`, sid,
	).Scan(&gs.World.Location, &gs.World.TimeOfDay, &weather)
	if err != nil {
		return nil, fmt.Errorf("failed to load world state: %w", err)
	}
	gs.World.Weather = weather.String

	var data string
	err = s.db.QueryRowContext(ctx, `SELECT data FROM campaign_state WHERE session_id = ?`, sid).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("gamestate %s has no campaign state: %w", id, state.ErrDataIntegrity)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign state: %w", err)
	}
	var cs state.CampaignState
	if err := json.Unmarshal([]byte(data), &cs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal campaign state: %w", err)
	}
	gs.Campaign = &cs

	return gs, nil
}

func (s *SQLiteStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"campaign_state", "world_state", "player_stats", "game_sessions"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE session_id = ?", id.String()); err != nil {
			return fmt.Errorf("failed to delete gamestate: %w", err)
		}
	}
	return tx.Commit()
}

// PruneSessions deletes sessions last saved before cutoff and reports how
// many went. Child rows follow through ON DELETE CASCADE.
func (s *SQLiteStorage) PruneSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM game_sessions WHERE julianday(last_updated) < julianday(?)`,
		cutoff.UTC().Format(timeFormat))
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned sessions: %w", err)
	}
	return n, nil
}
