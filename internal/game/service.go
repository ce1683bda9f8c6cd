// Package game runs player turns: it loads a session, checks it against its
// campaign, applies one engine operation to a copy and persists the copy.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/dungeon-engine/internal/logger"
	"github.com/jwebster45206/dungeon-engine/pkg/actor"
	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
	"github.com/jwebster45206/dungeon-engine/pkg/dice"
	"github.com/jwebster45206/dungeon-engine/pkg/engine"
	"github.com/jwebster45206/dungeon-engine/pkg/state"
	"github.com/jwebster45206/dungeon-engine/pkg/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/jwebster45206/dungeon-engine/internal/game"

func tracer() trace.Tracer { return otel.Tracer(tracerName) }

// ErrSessionNotFound is returned for an unknown or expired session id.
var ErrSessionNotFound = fmt.Errorf("game session %w", engine.ErrNotFound)

// Campaigns supplies shared, read-only campaigns by id.
type Campaigns interface {
	Get(ctx context.Context, id string) (*campaign.Campaign, error)
	Reload(ctx context.Context, id string) (*campaign.Campaign, error)
}

// Recorder receives one call per completed operation. status is "ok", a
// failure reason, or "error".
type Recorder interface {
	RecordOperation(ctx context.Context, op, status string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordOperation(context.Context, string, string, time.Duration) {}

// Session is a loaded game: its state and the engine over its campaign.
type Session struct {
	State  *state.GameState
	Engine *engine.Engine
}

// Campaign returns the session's campaign.
func (s *Session) Campaign() *campaign.Campaign {
	return s.Engine.Campaign()
}

type Service struct {
	storage   storage.Storage
	campaigns Campaigns
	logger    *slog.Logger
	metrics   Recorder
	roller    *dice.Roller

	mu    sync.Mutex
	locks map[uuid.UUID]*sessionLock
}

// sessionLock is held in Service.locks only while some turn holds or waits
// for it, so sessions that expire in storage leave nothing behind.
type sessionLock struct {
	sync.Mutex
	refs int
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder reports operations to r.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

// WithRoller sets the dice used when a search has no roll.
func WithRoller(r *dice.Roller) Option {
	return func(s *Service) { s.roller = r }
}

func NewService(store storage.Storage, campaigns Campaigns, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		storage:   store,
		campaigns: campaigns,
		logger:    logger,
		metrics:   nopRecorder{},
		roller:    dice.Default,
		locks:     make(map[uuid.UUID]*sessionLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lock serializes turns on one session.
func (s *Service) lock(id uuid.UUID) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// ListCampaigns maps campaign id to display name.
func (s *Service) ListCampaigns(ctx context.Context) (map[string]string, error) {
	return s.storage.ListCampaigns(ctx)
}

// Campaign returns a campaign by id.
func (s *Service) Campaign(ctx context.Context, id string) (*campaign.Campaign, error) {
	return s.campaigns.Get(ctx, id)
}

// ReloadCampaign re-reads a campaign from disk. Sessions pick it up on their
// next turn.
func (s *Service) ReloadCampaign(ctx context.Context, id string) (*campaign.Campaign, error) {
	return s.campaigns.Reload(ctx, id)
}

// ListCharacters returns the available character sheet ids.
func (s *Service) ListCharacters(ctx context.Context) ([]string, error) {
	return s.storage.ListCharacters(ctx)
}

// Character builds the playable character for a sheet id.
func (s *Service) Character(ctx context.Context, id string) (*actor.PC, error) {
	sheet, err := s.storage.GetCharacter(ctx, id)
	if err != nil {
		return nil, err
	}
	return actor.NewPC(sheet)
}

// NewGame starts and persists a session. Without a characterID the player is
// the default adventurer.
func (s *Service) NewGame(ctx context.Context, campaignID, characterID string) (*state.GameState, error) {
	start := time.Now()
	ctx, span := tracer().Start(ctx, "game.new_game", trace.WithAttributes(
		attribute.String("campaign_id", campaignID),
		attribute.String("character_id", characterID),
	))
	defer span.End()
	c, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		s.record(ctx, "new_game", err, engine.Outcome{}, start)
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}

	player := actor.DefaultPlayer()
	if characterID != "" {
		sheet, err := s.storage.GetCharacter(ctx, characterID)
		if err == nil {
			err = sheet.Validate()
		}
		if err != nil {
			s.record(ctx, "new_game", err, engine.Outcome{}, start)
			return nil, fmt.Errorf("failed to load character: %w", err)
		}
		player = actor.FromCharacterSheet(sheet)
	}

	gs, err := state.NewGameState(c, characterID, player)
	if err == nil {
		err = s.storage.SaveGameState(ctx, gs.ID, gs)
	}
	s.record(ctx, "new_game", err, engine.Outcome{Success: true}, start)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	logger.WithSession(s.logger, gs.ID, campaignID).Info("Game created", "character_id", characterID)
	return gs, nil
}

// Load returns a session after checking its state against the campaign.
func (s *Service) Load(ctx context.Context, id uuid.UUID) (*Session, error) {
	gs, err := s.storage.LoadGameState(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}
	if gs == nil {
		return nil, ErrSessionNotFound
	}
	c, err := s.campaigns.Get(ctx, gs.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign %s: %w", gs.CampaignID, err)
	}
	if err := gs.Campaign.Validate(c); err != nil {
		logger.WithSession(s.logger, id, gs.CampaignID).Error("Session does not match campaign", "error", err)
		return nil, err
	}
	return &Session{State: gs, Engine: engine.New(c)}, nil
}

// Delete removes a session.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	unlock := s.lock(id)
	defer unlock()

	gs, err := s.storage.LoadGameState(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load game: %w", err)
	}
	if gs == nil {
		return ErrSessionNotFound
	}
	return s.storage.DeleteGameState(ctx, id)
}

func (s *Service) record(ctx context.Context, op string, err error, out engine.Outcome, start time.Time) {
	status := "ok"
	switch {
	case err != nil:
		status = "error"
	case !out.Success:
		status = string(out.Reason)
	}
	s.metrics.RecordOperation(ctx, op, status, time.Since(start))

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("status", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// Result is any engine mutation result.
type Result interface {
	Result() engine.Outcome
}

// turn runs op against a copy of the session and persists the copy when the
// operation succeeded. A failed operation or a failed save leaves the stored
// session as it was.
func turn[R Result](ctx context.Context, s *Service, id uuid.UUID, op string, fn func(*Session) (R, error)) (R, error) {
	start := time.Now()
	ctx, span := tracer().Start(ctx, "game."+op, trace.WithAttributes(attribute.String("session_id", id.String())))
	defer span.End()

	unlock := s.lock(id)
	defer unlock()

	var zero R
	sess, err := s.Load(ctx, id)
	if err != nil {
		s.record(ctx, op, err, engine.Outcome{}, start)
		return zero, err
	}
	sess.State = sess.State.Clone()

	res, err := fn(sess)
	if err != nil {
		s.record(ctx, op, err, engine.Outcome{}, start)
		return zero, err
	}

	out := res.Result()
	log := logger.WithSession(s.logger, id, sess.State.CampaignID)
	if out.Success {
		sess.State.SyncLocation(sess.Campaign())
		if err := s.storage.SaveGameState(ctx, id, sess.State); err != nil {
			s.record(ctx, op, err, out, start)
			log.Error("Failed to persist turn", "op", op, "error", err)
			return zero, fmt.Errorf("failed to save game: %w", err)
		}
	}
	s.record(ctx, op, nil, out, start)
	log.Debug("Turn applied", "op", op, "success", out.Success, "reason", out.Reason)
	return res, nil
}
