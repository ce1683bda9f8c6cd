package storage

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
	"golang.org/x/sync/singleflight"
)

// CampaignLoader is the part of Storage the cache reads through.
type CampaignLoader interface {
	GetCampaign(ctx context.Context, id string) (*campaign.Campaign, error)
}

// CampaignCache shares one parsed campaign per id between all sessions.
// Cached campaigns are read-only. Concurrent misses for the same id share a
// single load.
type CampaignCache struct {
	loader CampaignLoader
	logger *slog.Logger

	mu        sync.RWMutex
	campaigns map[string]*campaign.Campaign
	group     singleflight.Group
}

// NewCampaignCache creates an empty cache in front of loader.
func NewCampaignCache(loader CampaignLoader, logger *slog.Logger) *CampaignCache {
	return &CampaignCache{
		loader:    loader,
		logger:    logger,
		campaigns: make(map[string]*campaign.Campaign),
	}
}

// Get returns the cached campaign, loading it on first use. Failed loads
// are not cached.
func (c *CampaignCache) Get(ctx context.Context, id string) (*campaign.Campaign, error) {
	c.mu.RLock()
	cached, ok := c.campaigns[id]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}
	return c.load(ctx, id)
}

// Reload discards any cached copy and loads the campaign again, so authoring
// changes are picked up. Sessions already holding the old pointer keep it.
func (c *CampaignCache) Reload(ctx context.Context, id string) (*campaign.Campaign, error) {
	c.group.Forget(id)
	c.mu.Lock()
	delete(c.campaigns, id)
	c.mu.Unlock()
	return c.load(ctx, id)
}

func (c *CampaignCache) load(ctx context.Context, id string) (*campaign.Campaign, error) {
	v, err, shared := c.group.Do(id, func() (any, error) {
		c.mu.RLock()
		cached, ok := c.campaigns[id]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		loaded, err := c.loader.GetCampaign(ctx, id)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.campaigns[id] = loaded
		c.mu.Unlock()
		c.logger.Info("Campaign loaded", "campaign_id", id, "rooms", len(loaded.Rooms))
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("Campaign load shared", "campaign_id", id)
	}
	return v.(*campaign.Campaign), nil
}
