package game

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/d20"
	istorage "github.com/jwebster45206/dungeon-engine/internal/storage"
	"github.com/jwebster45206/dungeon-engine/pkg/actor"
	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
	"github.com/jwebster45206/dungeon-engine/pkg/dice"
	"github.com/jwebster45206/dungeon-engine/pkg/engine"
	"github.com/jwebster45206/dungeon-engine/pkg/state"
	"github.com/jwebster45206/dungeon-engine/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type op struct{ name, status string }

type fakeRecorder struct {
	mu  sync.Mutex
	ops []op
}

func (r *fakeRecorder) RecordOperation(_ context.Context, name, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op{name, status})
}

func (r *fakeRecorder) last() op {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ops[len(r.ops)-1]
}

func setup(t *testing.T, opts ...Option) (*Service, *storage.MockStorage, *fakeRecorder) {
	t.Helper()
	data, err := os.ReadFile("../../pkg/campaign/testdata/crypt.yaml")
	require.NoError(t, err)
	c, err := campaign.Parse(data, "crypt")
	require.NoError(t, err)

	store := storage.NewMockStorage()
	store.AddCampaign(c)
	store.AddCharacter(&actor.CharacterSheet{ID: "mira", Name: "Mira", Level: 3, HitPoints: 9, MaxHitPoints: 11})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := &fakeRecorder{}
	opts = append([]Option{WithRecorder(rec)}, opts...)
	return NewService(store, istorage.NewCampaignCache(store, logger), logger, opts...), store, rec
}

func newGame(t *testing.T, svc *Service) uuid.UUID {
	t.Helper()
	gs, err := svc.NewGame(context.Background(), "crypt", "")
	require.NoError(t, err)
	return gs.ID
}

func TestNewGame(t *testing.T) {
	svc, store, rec := setup(t)
	ctx := context.Background()

	gs, err := svc.NewGame(ctx, "crypt", "")
	require.NoError(t, err)
	assert.Equal(t, "chapel", gs.Campaign.CurrentRoomID)
	assert.Equal(t, "Adventurer", gs.Player.Name)
	assert.Equal(t, "Ruined Chapel", gs.World.Location)
	assert.Equal(t, 1, store.Saves())
	assert.Equal(t, op{"new_game", "ok"}, rec.last())

	gs, err = svc.NewGame(ctx, "crypt", "mira")
	require.NoError(t, err)
	assert.Equal(t, "Mira", gs.Player.Name)
	assert.Equal(t, 9, gs.Player.Health)
	assert.Equal(t, "mira", gs.CharacterID)

	_, err = svc.NewGame(ctx, "atlantis", "")
	assert.True(t, errors.Is(err, engine.ErrNotFound))
	_, err = svc.NewGame(ctx, "crypt", "nobody")
	assert.True(t, errors.Is(err, engine.ErrNotFound))
	assert.Equal(t, op{"new_game", "error"}, rec.last())
}

func TestPlaythrough(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()
	id := newGame(t, svc)

	move, err := svc.Move(ctx, id, "down")
	require.NoError(t, err)
	require.True(t, move.Success)

	move, err = svc.Move(ctx, id, "east")
	require.NoError(t, err)
	assert.Equal(t, engine.ReasonLocked, move.Reason)
	assert.Contains(t, move.Message, "need Iron Key")

	_, err = svc.Move(ctx, id, "up")
	require.NoError(t, err)

	roll := 15
	found, err := svc.Search(ctx, id, &roll)
	require.NoError(t, err)
	require.Len(t, found.Exits, 1)
	assert.Equal(t, "north", found.Exits[0].Direction)

	_, err = svc.Move(ctx, id, "north")
	require.NoError(t, err)
	got, err := svc.Collect(ctx, id, "iron_key")
	require.NoError(t, err)
	require.True(t, got.Success)
	assert.Equal(t, "Iron Key", got.InventoryItem)

	for _, dir := range []string{"south", "down"} {
		res, err := svc.Move(ctx, id, dir)
		require.NoError(t, err)
		require.True(t, res.Success, dir)
	}

	move, err = svc.Move(ctx, id, "east")
	require.NoError(t, err)
	assert.True(t, move.CanUnlock)

	unlock, err := svc.Unlock(ctx, id, "east")
	require.NoError(t, err)
	require.True(t, unlock.Success)

	move, err = svc.Move(ctx, id, "east")
	require.NoError(t, err)
	require.True(t, move.Success)

	gs, err := store.LoadGameState(ctx, id)
	require.NoError(t, err)
	cs := gs.Campaign
	assert.Equal(t, "crypt", cs.CurrentRoomID)
	assert.Equal(t, state.NewSet("chapel", "stairs", "vestry", "crypt"), cs.VisitedRooms)
	assert.True(t, cs.DiscoveredExits.Has("chapel:north"))
	assert.True(t, cs.UnlockedExits.Has("stairs:east"))
	assert.True(t, cs.CollectedTreasure.Has("iron_key"))
	assert.Equal(t, []string{"Iron Key"}, gs.Player.Inventory)
	assert.Equal(t, "Crypt", gs.World.Location)

	view, err := svc.Room(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "crypt", view.ID)
	room, enemies, err := svc.Enemies(ctx, id, "")
	require.NoError(t, err)
	assert.Equal(t, "crypt", room)
	require.Len(t, enemies, 1)
	assert.Equal(t, "ghoul", enemies[0].ID)
}

func TestFailedTurnIsNotPersisted(t *testing.T) {
	svc, store, rec := setup(t)
	ctx := context.Background()
	id := newGame(t, svc)
	saves := store.Saves()

	res, err := svc.Move(ctx, id, "north")
	require.NoError(t, err)
	assert.False(t, res.Success, "north is hidden until searched")
	assert.Equal(t, engine.ReasonNoExit, res.Reason)
	assert.Equal(t, saves, store.Saves())
	assert.Equal(t, op{"move", "no_exit"}, rec.last())

	store.SetSaveError(errors.New("disk full"))
	_, err = svc.Move(ctx, id, "down")
	assert.Error(t, err)
	store.SetSaveError(nil)

	gs, err := store.LoadGameState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "chapel", gs.Campaign.CurrentRoomID, "a failed save leaves the old state")
	assert.Equal(t, 1, gs.Campaign.VisitedRooms.Len())
}

func TestSearch_RollsWhenNoRollGiven(t *testing.T) {
	const seed = 20
	svc, _, _ := setup(t, WithRoller(dice.NewSeeded(seed)))
	id := newGame(t, svc)

	want, err := d20.NewRoller(seed).Dice(1, 20).Roll()
	require.NoError(t, err)

	res, err := svc.Search(context.Background(), id, nil)
	require.NoError(t, err)
	assert.Equal(t, want.Value, res.Roll)
	if want.Value >= engine.ExitDetectionThreshold {
		assert.Len(t, res.Exits, 1)
	} else {
		assert.Empty(t, res.Exits)
	}
	require.Len(t, res.Treasure, 1, "treasure needs no roll")
	assert.Equal(t, "silver_chalice", res.Treasure[0].ID)
}

func TestSessionErrors(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Move(ctx, uuid.New(), "down")
	assert.True(t, errors.Is(err, ErrSessionNotFound))
	assert.True(t, errors.Is(err, engine.ErrNotFound))

	id := newGame(t, svc)
	gs, err := store.LoadGameState(ctx, id)
	require.NoError(t, err)
	gs.Campaign.CollectedTreasure.Add("dragon_hoard")
	require.NoError(t, store.SaveGameState(ctx, id, gs))

	_, err = svc.Room(ctx, id)
	assert.True(t, errors.Is(err, engine.ErrDataIntegrity))
	_, err = svc.Move(ctx, id, "down")
	assert.True(t, errors.Is(err, engine.ErrDataIntegrity))

	_, err = svc.Enemy(ctx, id, EnemyRequest{Action: "tickle", EnemyID: "ghoul"})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestDelete(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	id := newGame(t, svc)

	require.NoError(t, svc.Delete(ctx, id))
	_, err := svc.Load(ctx, id)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
	assert.True(t, errors.Is(svc.Delete(ctx, id), ErrSessionNotFound))
}

func TestEnemyAndHealth(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	id := newGame(t, svc)

	res, err := svc.Enemy(ctx, id, EnemyRequest{Action: EnemyPlace, EnemyID: "drowned_priest", RoomID: "chapel"})
	require.NoError(t, err)
	require.True(t, res.Success)

	res, err = svc.Enemy(ctx, id, EnemyRequest{Action: EnemyDamage, EnemyID: "drowned_priest", Amount: 20})
	require.NoError(t, err)
	assert.True(t, res.Defeated)

	_, enemies, err := svc.Enemies(ctx, id, "chapel")
	require.NoError(t, err)
	assert.Empty(t, enemies)

	hr, err := svc.UpdateHealth(ctx, id, -30)
	require.NoError(t, err)
	assert.Equal(t, 100, hr.Previous)
	assert.Equal(t, 70, hr.Current)
	assert.False(t, hr.Unconscious)

	flag, err := svc.SetFlag(ctx, id, "crypt_opened", true)
	require.NoError(t, err)
	assert.True(t, flag.Success)

	trap, err := svc.TriggerTrap(ctx, id, "stairs", "loose_step")
	require.NoError(t, err)
	assert.True(t, trap.Success)

	room, treasure, err := svc.Treasure(ctx, id, "crypt")
	require.NoError(t, err)
	assert.Equal(t, "crypt", room)
	require.Len(t, treasure, 1)
	assert.Equal(t, "blessed_mace", treasure[0].ID)
}

func TestConcurrentTurnsAreSerialized(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()
	id := newGame(t, svc)

	// Reveal the vestry and walk in so the key is collectable.
	roll := 20
	_, err := svc.Search(ctx, id, &roll)
	require.NoError(t, err)
	_, err = svc.Move(ctx, id, "north")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Collect(ctx, id, "iron_key")
			assert.NoError(t, err)
			if res.Success {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	gs, err := store.LoadGameState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"Iron Key"}, gs.Player.Inventory)
	assert.Equal(t, 0, svc.heldLocks())
}

func (s *Service) heldLocks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

func TestSessionLocksReleasedAfterExpiry(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()

	for range 5 {
		id := newGame(t, svc)
		_, err := svc.Move(ctx, id, "down")
		require.NoError(t, err)
		// Storage TTL removes the session behind the service's back.
		require.NoError(t, store.DeleteGameState(ctx, id))
		_, err = svc.Move(ctx, id, "up")
		assert.True(t, errors.Is(err, ErrSessionNotFound))
	}
	assert.Equal(t, 0, svc.heldLocks())

	id := newGame(t, svc)
	require.NoError(t, svc.Delete(ctx, id))
	assert.Equal(t, 0, svc.heldLocks())
}

func TestTurnSpans(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	orig := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(orig)
		_ = tp.Shutdown(context.Background())
	})

	svc, _, _ := setup(t)
	ctx := context.Background()
	id := newGame(t, svc)

	_, err := svc.Move(ctx, id, "down")
	require.NoError(t, err)
	_, err = svc.Move(ctx, uuid.New(), "down")
	require.Error(t, err)

	spans := exp.GetSpans()
	require.Len(t, spans, 3)
	assert.Equal(t, "game.new_game", spans[0].Name)

	assert.Equal(t, "game.move", spans[1].Name)
	assert.Contains(t, spans[1].Attributes, attribute.String("session_id", id.String()))
	assert.Contains(t, spans[1].Attributes, attribute.String("status", "ok"))

	assert.Equal(t, "game.move", spans[2].Name)
	assert.Equal(t, codes.Error, spans[2].Status.Code)
}
