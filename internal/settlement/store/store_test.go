package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement/store"
)

func TestStore_AddListClear(t *testing.T) {
	ctx := context.Background()
	s := store.New()

	first := &settlement.Entry{ID: uuid.New(), Name: "first"}
	second := &settlement.Entry{ID: uuid.New(), Name: "second"}

	require.NoError(t, s.Add(ctx, first))
	require.NoError(t, s.Add(ctx, second))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Name)
	assert.Equal(t, "second", list[1].Name)

	got, err := s.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Same(t, second, got)

	require.NoError(t, s.Clear(ctx))

	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = s.Get(ctx, first.ID)
	assert.ErrorIs(t, err, settlement.ErrNotFound)
}

func TestStore_ListIsSnapshot(t *testing.T) {
	ctx := context.Background()
	s := store.New()

	require.NoError(t, s.Add(ctx, &settlement.Entry{ID: uuid.New()}))

	snapshot, err := s.List(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Add(ctx, &settlement.Entry{ID: uuid.New()}))
	assert.Len(t, snapshot, 1)
}

func TestStore_ConcurrentReadsAndWrites(t *testing.T) {
	ctx := context.Background()
	s := store.New()

	const writers = 8

	ids := make([]uuid.UUID, writers)
	for i := range ids {
		ids[i] = uuid.New()
	}

	var wg sync.WaitGroup

	for _, id := range ids {
		wg.Add(2)

		go func() {
			defer wg.Done()
			assert.NoError(t, s.Add(ctx, &settlement.Entry{ID: id}))
		}()

		go func() {
			defer wg.Done()

			_, err := s.List(ctx)
			assert.NoError(t, err)

			_, _ = s.Get(ctx, id)
		}()
	}

	wg.Wait()

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, writers)

	for _, id := range ids {
		_, err := s.Get(ctx, id)
		assert.NoError(t, err)
	}
}
