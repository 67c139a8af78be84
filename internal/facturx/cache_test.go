package facturx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *DocumentCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewDocumentCache(client, time.Hour)
}

func TestDocumentCacheFetchLoadsOnce(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	invoiceID := uuid.New()

	loads := 0
	loader := func(context.Context) ([]byte, error) {
		loads++
		return []byte("<doc/>"), nil
	}

	payload, err := cache.Fetch(ctx, invoiceID, ProfileBasic, loader)
	require.NoError(t, err)
	require.Equal(t, []byte("<doc/>"), payload)
	require.Equal(t, 1, loads)

	payload, err = cache.Fetch(ctx, invoiceID, ProfileBasic, loader)
	require.NoError(t, err)
	require.Equal(t, []byte("<doc/>"), payload)
	require.Equal(t, 1, loads)
}

func TestDocumentCacheKeysByProfile(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	invoiceID := uuid.New()

	loads := 0
	loader := func(context.Context) ([]byte, error) {
		loads++
		return []byte("<doc/>"), nil
	}

	_, err := cache.Fetch(ctx, invoiceID, ProfileBasic, loader)
	require.NoError(t, err)
	_, err = cache.Fetch(ctx, invoiceID, ProfileEN16931, loader)
	require.NoError(t, err)
	require.Equal(t, 2, loads)
}

func TestDocumentCacheLoaderErrorNotCached(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	invoiceID := uuid.New()
	boom := errors.New("build failed")

	_, err := cache.Fetch(ctx, invoiceID, ProfileBasic, func(context.Context) ([]byte, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	payload, err := cache.Fetch(ctx, invoiceID, ProfileBasic, func(context.Context) ([]byte, error) {
		return []byte("<doc/>"), nil
	})
	require.NoError(t, err)
	require.Equal(t, []byte("<doc/>"), payload)
}

func TestDocumentCacheInvalidate(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	invoiceID := uuid.New()

	loads := 0
	loader := func(context.Context) ([]byte, error) {
		loads++
		return []byte("<doc/>"), nil
	}

	_, err := cache.Fetch(ctx, invoiceID, ProfileBasic, loader)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx, invoiceID, []Profile{ProfileBasic, ProfileEN16931}))

	_, err = cache.Fetch(ctx, invoiceID, ProfileBasic, loader)
	require.NoError(t, err)
	require.Equal(t, 2, loads)
}

func TestDocumentCacheNilClientFallsThrough(t *testing.T) {
	cache := NewDocumentCache(nil, time.Hour)
	ctx := context.Background()

	loads := 0
	loader := func(context.Context) ([]byte, error) {
		loads++
		return []byte("<doc/>"), nil
	}

	for range [3]struct{}{} {
		payload, err := cache.Fetch(ctx, uuid.New(), ProfileBasic, loader)
		require.NoError(t, err)
		require.Equal(t, []byte("<doc/>"), payload)
	}
	require.Equal(t, 3, loads)
}
