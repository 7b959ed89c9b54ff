package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitestock/inventorybot/internal/domain/inventory"
)

type stubFetcher struct {
	items []*inventory.Item
	err   error
	calls int
}

func (s *stubFetcher) FindAll(ctx context.Context) ([]*inventory.Item, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

func TestCatalogueCache_FetchesOnMiss(t *testing.T) {
	fetcher := &stubFetcher{items: []*inventory.Item{inventory.NewItem("cement")}}
	c := NewCatalogueCache(fetcher, time.Minute, nil)

	items, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, fetcher.calls)
}

func TestCatalogueCache_ServesFreshSnapshotWithoutRefetch(t *testing.T) {
	fetcher := &stubFetcher{items: []*inventory.Item{inventory.NewItem("cement")}}
	c := NewCatalogueCache(fetcher, time.Minute, nil)

	_, err := c.Get(context.Background())
	require.NoError(t, err)
	_, err = c.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.calls)
}

func TestCatalogueCache_RefetchesAfterTTL(t *testing.T) {
	fetcher := &stubFetcher{items: []*inventory.Item{inventory.NewItem("cement")}}
	c := NewCatalogueCache(fetcher, time.Millisecond, nil)

	_, err := c.Get(context.Background())
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = c.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, fetcher.calls)
}

func TestCatalogueCache_ServesStaleOnFetchFailure(t *testing.T) {
	fetcher := &stubFetcher{items: []*inventory.Item{inventory.NewItem("cement")}}
	c := NewCatalogueCache(fetcher, time.Millisecond, nil)

	items, err := c.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	fetcher.err = errors.New("connection refused")
	time.Sleep(5 * time.Millisecond)

	items, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1, "stale snapshot should still be served")
}

func TestCatalogueCache_ReturnsErrorWhenNoStaleData(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("connection refused")}
	c := NewCatalogueCache(fetcher, time.Minute, nil)

	_, err := c.Get(context.Background())
	assert.Error(t, err)
}

func TestCatalogueCache_Invalidate(t *testing.T) {
	fetcher := &stubFetcher{items: []*inventory.Item{inventory.NewItem("cement")}}
	c := NewCatalogueCache(fetcher, time.Hour, nil)

	_, err := c.Get(context.Background())
	require.NoError(t, err)
	c.Invalidate()
	_, err = c.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, fetcher.calls)
}
