package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchplan-ai/engine/patch"
	"github.com/patchplan-ai/engine/plan"
)

// setupTestStore creates a miniredis instance and returns a connected RedisStore.
func setupTestStore(t *testing.T) *RedisStore {
	t.Helper()

	mr := miniredis.RunT(t)
	s, err := NewRedisStore(RedisOptions{
		URL:            fmt.Sprintf("redis://%s", mr.Addr()),
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
		mr.Close()
	})

	return s
}

func samplePlan(id string) *plan.Plan {
	return &plan.Plan{
		ID:          id,
		GeneratedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Entries: []plan.Entry{
			{
				VulnerabilityID: "CVE-2024-0001",
				RiskScore:       0.91,
				Tier:            patch.TierCritical,
				Slot:            1,
				Targets:         []string{"web-01"},
				ComplianceTags:  []string{"PCI-DSS"},
			},
		},
		Summary: plan.Summary{
			TotalPatches:     1,
			ScheduledPatches: 1,
			CountsByTier:     map[patch.Tier]int{patch.TierCritical: 1},
		},
	}
}

func TestNewRedisStore(t *testing.T) {
	t.Run("successful connection", func(t *testing.T) {
		mr := miniredis.RunT(t)
		defer mr.Close()

		s, err := NewRedisStore(RedisOptions{URL: fmt.Sprintf("redis://%s", mr.Addr())})
		require.NoError(t, err)
		require.NotNil(t, s)
		defer s.Close()
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := NewRedisStore(RedisOptions{URL: "://not-a-url"})
		assert.Error(t, err)
	})
}

func TestRedisStore_SaveAndGet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	original := samplePlan("plan-001")
	require.NoError(t, s.Save(ctx, original))

	got, err := s.Get(ctx, "plan-001")
	require.NoError(t, err)
	assert.Equal(t, original.ID, got.ID)
	assert.Equal(t, original.GeneratedAt, got.GeneratedAt)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "CVE-2024-0001", got.Entries[0].VulnerabilityID)
	assert.Equal(t, patch.TierCritical, got.Entries[0].Tier)
}

func TestRedisStore_GetMissing(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Get(context.Background(), "no-such-plan")
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestRedisStore_Latest(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		_, err := s.Latest(ctx)
		assert.ErrorIs(t, err, ErrPlanNotFound)
	})

	t.Run("latest follows saves", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, samplePlan("plan-001")))
		require.NoError(t, s.Save(ctx, samplePlan("plan-002")))

		got, err := s.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, "plan-002", got.ID)
	})
}

func TestRedisStore_PublishSubscribe(t *testing.T) {
	s := setupTestStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	plans, err := s.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Publish(ctx, samplePlan("plan-pub")))

	select {
	case got := <-plans:
		require.NotNil(t, got)
		assert.Equal(t, "plan-pub", got.ID)
	case <-ctx.Done():
		t.Fatal("timed out waiting for published plan")
	}

	cancel()
	// The subscription channel closes once the context is cancelled.
	for range plans {
	}
}
