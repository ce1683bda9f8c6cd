package storage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jwebster45206/dungeon-engine/pkg/campaign"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLoader struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (l *countingLoader) GetCampaign(ctx context.Context, id string) (*campaign.Campaign, error) {
	l.calls.Add(1)
	time.Sleep(l.delay)
	if l.err != nil {
		return nil, l.err
	}
	return &campaign.Campaign{ID: id, Name: "Loaded " + id}, nil
}

func TestCampaignCache_LoadsOnce(t *testing.T) {
	loader := &countingLoader{delay: 20 * time.Millisecond}
	cache := NewCampaignCache(loader, testLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]*campaign.Campaign, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := cache.Get(ctx, "crypt")
			assert.NoError(t, err)
			results[i] = c
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), loader.calls.Load())
	for _, c := range results {
		assert.Same(t, results[0], c, "every session shares one campaign")
	}
}

func TestCampaignCache_Reload(t *testing.T) {
	loader := &countingLoader{}
	cache := NewCampaignCache(loader, testLogger())
	ctx := context.Background()

	first, err := cache.Get(ctx, "crypt")
	require.NoError(t, err)
	again, err := cache.Get(ctx, "crypt")
	require.NoError(t, err)
	assert.Same(t, first, again)

	fresh, err := cache.Reload(ctx, "crypt")
	require.NoError(t, err)
	assert.NotSame(t, first, fresh)
	assert.Equal(t, int32(2), loader.calls.Load())

	cached, err := cache.Get(ctx, "crypt")
	require.NoError(t, err)
	assert.Same(t, fresh, cached)
}

func TestCampaignCache_ErrorsAreNotCached(t *testing.T) {
	loader := &countingLoader{err: campaign.ErrNotFound}
	cache := NewCampaignCache(loader, testLogger())
	ctx := context.Background()

	_, err := cache.Get(ctx, "missing")
	assert.True(t, errors.Is(err, campaign.ErrNotFound))

	loader.err = nil
	c, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, "missing", c.ID)
	assert.Equal(t, int32(2), loader.calls.Load())
}
