package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_FilterAndClear(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryRepositoryWithClock(0, func() time.Time { return now })

	require.NoError(t, repo.RecordEvent(EventPurchase, EventMetadata{"id": "farm1", "cost": 10}))
	now = now.Add(time.Minute)
	require.NoError(t, repo.RecordEvent(EventPurchaseFailed, EventMetadata{"id": "farm3", "reason": "locked"}))

	all, err := repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].ID)
	assert.Equal(t, 2, all[1].ID)

	recent, err := repo.GetEvents(now, nil)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, EventPurchaseFailed, recent[0].Type)

	typed, err := repo.GetEvents(time.Time{}, []EventType{EventPurchase})
	require.NoError(t, err)
	require.Len(t, typed, 1)

	require.NoError(t, repo.Clear())
	all, _ = repo.GetEvents(time.Time{}, nil)
	assert.Empty(t, all)
}

func TestMemoryRepository_DropsOldestAtCapacity(t *testing.T) {
	repo := NewMemoryRepositoryWithClock(3, nil)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.RecordEvent(EventAction, EventMetadata{"n": i}))
	}
	events, err := repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, 3, events[0].ID)
	assert.Equal(t, 5, events[2].ID)
}

func TestCalculateStats(t *testing.T) {
	repo := NewMemoryRepository()
	_ = repo.RecordEvent(EventPurchase, EventMetadata{"id": "farm1", "cost": 10})
	_ = repo.RecordEvent(EventPurchase, EventMetadata{"id": "buy_meat_10", "cost": 30})
	_ = repo.RecordEvent(EventPurchase, EventMetadata{"id": "buy_meat_10", "cost": 30})
	_ = repo.RecordEvent(EventSkillLearned, EventMetadata{"id": "farm_a", "cost": 100})
	_ = repo.RecordEvent(EventPurchaseFailed, EventMetadata{"id": "farm3", "reason": "locked"})
	_ = repo.RecordEvent(EventLearnFailed, EventMetadata{"id": "farm_a", "reason": "insufficient_funds"})
	_ = repo.RecordEvent(EventItemUnlocked, EventMetadata{"id": "farm2"})
	_ = repo.RecordEvent(EventSaveMalformed, EventMetadata{})
	_ = repo.RecordEvent(EventSaveWritten, EventMetadata{})

	events, err := repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)
	stats, err := CalculateStats(events, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "2026-03-01", stats.Period)
	assert.Equal(t, 3, stats.Purchases)
	assert.Equal(t, 1, stats.SkillsLearned)
	assert.Equal(t, int64(170), stats.GoldSpent)
	assert.Equal(t, 2, stats.PurchasesByItem["buy_meat_10"])
	assert.Equal(t, map[string]int{"locked": 1, "insufficient_funds": 1}, stats.FailuresByReason)
	assert.Equal(t, 1, stats.ItemsUnlocked)
	assert.Equal(t, 1, stats.MalformedLoads)
	assert.Equal(t, 1, stats.SavesWritten)
	assert.Equal(t, 3, stats.EventCounts[EventPurchase])
}
