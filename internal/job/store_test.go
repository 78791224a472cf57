package job

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReelForge/pkg/compose"
)

// Runs against a real database when REELFORGE_TEST_DSN is set.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("REELFORGE_TEST_DSN")
	if dsn == "" {
		t.Skip("REELFORGE_TEST_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := NewStore(pool)
	require.NoError(t, store.Migrate(ctx))
	_, err = pool.Exec(ctx, "TRUNCATE composition_jobs CASCADE")
	require.NoError(t, err)
	return store
}

func TestStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	params := sampleParams()
	params.EditConfig.HookTrim = &compose.Trim{StartTime: 1, EndTime: 4}
	created, err := store.CreateJob(ctx, params)
	require.NoError(t, err)

	claimed, err := store.ClaimNextJob(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, created.ID, claimed.ID)
	assert.Equal(t, StatusProcessing, claimed.Status)
	require.NotNil(t, claimed.EditConfig.HookTrim)
	assert.Equal(t, 4.0, claimed.EditConfig.HookTrim.EndTime)

	none, err := store.ClaimNextJob(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, store.AddProgressEvent(ctx, created.ID, StageRendering, 60, "Rendering", map[string]interface{}{"args": 42}))
	require.NoError(t, store.CompleteJob(ctx, created.ID, RenderResult{OutputKey: params.OutputKey, ExpectedDuration: 10}))

	got, err := store.GetJobWithProgress(ctx, created.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	require.Len(t, got.LatestEvents, 1)
	assert.NotEmpty(t, got.Result)
}

func TestStore_GetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetJob(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrJobNotFound)
}
