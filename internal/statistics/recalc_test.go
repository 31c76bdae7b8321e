package statistics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/chatstats-tui/internal/models"
)

func TestRecalculateAll_TopicCreatedToday(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	svc := newTestService(store, today)

	store.addTopic(topicWithMessages("t1", "Today", today.Add(-time.Hour), 15))

	require.NoError(t, svc.RecalculateAll(ctx, today))
	assert.Equal(t, 1, store.batches)

	for _, w := range models.Windows {
		snap := store.get(string(w))
		require.NotNil(t, snap, w)
		assert.Equal(t, 1, snap.Data.Usage.TotalSessions, w)
		assert.Equal(t, 1, snap.Data.Content.SessionLengthDistribution[1], w)
		assert.Equal(t, 15, snap.Data.Usage.TotalMessages, w)
		assert.Equal(t, "2024-03-13", snap.Date)
	}
}

func TestRecalculateAll_WindowMembership(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	svc := newTestService(store, today)

	// Monday of this week, earlier this month, last year.
	store.addTopic(topicWithMessages("week", "Week", time.Date(2024, time.March, 11, 8, 0, 0, 0, time.UTC), 2))
	store.addTopic(topicWithMessages("month", "Month", time.Date(2024, time.March, 2, 8, 0, 0, 0, time.UTC), 3))
	store.addTopic(topicWithMessages("old", "Old", time.Date(2023, time.June, 2, 8, 0, 0, 0, time.UTC), 4))

	// A message added today to an old topic still counts for today.
	late := store.topics["old"]
	late.Messages = append(late.Messages, &models.Message{ID: "late", Role: models.RoleUser, CreatedAt: today})

	require.NoError(t, svc.RecalculateAll(ctx, today))

	sessions := func(w models.WindowType) int { return store.get(string(w)).Data.Usage.TotalSessions }
	messages := func(w models.WindowType) int { return store.get(string(w)).Data.Usage.TotalMessages }

	assert.Equal(t, 0, sessions(models.WindowDaily))
	assert.Equal(t, 1, sessions(models.WindowWeekly))
	assert.Equal(t, 2, sessions(models.WindowMonthly))
	assert.Equal(t, 3, sessions(models.WindowAllTime))

	assert.Equal(t, 1, messages(models.WindowDaily))
	assert.Equal(t, 3, messages(models.WindowWeekly))
	assert.Equal(t, 6, messages(models.WindowMonthly))
	assert.Equal(t, 10, messages(models.WindowAllTime))
}

func TestRecalculateAll_ReplacesDrift(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	svc := newTestService(store, today)

	drifted := models.NewSnapshot(models.WindowAllTime, "2020-01-01")
	drifted.Data.Usage.TotalMessages = 12345
	require.NoError(t, store.PutSnapshot(ctx, drifted))

	store.addTopic(topicWithMessages("t1", "One", today, 2))
	require.NoError(t, svc.RecalculateAll(ctx, today))

	assert.Equal(t, 2, store.get("all_time").Data.Usage.TotalMessages)
}

func TestRecalculateAll_ZeroTimestampsCountAsNow(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, today)

	topic := topicWithMessages("t1", "Undated", time.Time{}, 1)
	topic.Messages[0].CreatedAt = time.Time{}
	store.addTopic(topic)

	require.NoError(t, svc.RecalculateAll(context.Background(), today))
	assert.Equal(t, 1, store.get("daily").Data.Usage.TotalSessions)
	assert.Equal(t, 1, store.get("daily").Data.Usage.TotalMessages)
}

func TestRecalculateAll_StoreFailure(t *testing.T) {
	store := newMemStore()
	store.failPut = "monthly"
	svc := newTestService(store, today)

	for i := 0; i < 3; i++ {
		store.addTopic(topicWithMessages(fmt.Sprint(i), "t", today, 1))
	}
	assert.Error(t, svc.RecalculateAll(context.Background(), today))
}

func TestRecalculateAll_ArchivesStaleLiveRows(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	stale := map[models.WindowType]string{
		models.WindowDaily:   "2024-03-12",
		models.WindowWeekly:  "2024-03-04",
		models.WindowMonthly: "2024-03-01",
	}
	for w, date := range stale {
		snap := models.NewSnapshot(w, date)
		snap.Data.Usage.TotalMessages = 9
		require.NoError(t, store.PutSnapshot(ctx, snap))
	}

	var rotated []string
	svc := newTestService(store, today, WithRotateHook(func(archived, fresh *models.AggregateSnapshot) {
		rotated = append(rotated, archived.ID+"->"+fresh.Date)
	}))

	store.addTopic(topicWithMessages("t1", "Today", today, 2))
	require.NoError(t, svc.RecalculateAll(ctx, today))
	assert.Equal(t, 1, store.batches, "archives and live rows are written together")

	daily := store.get("history_daily_2024-03-12")
	require.NotNil(t, daily)
	assert.Equal(t, 9, daily.Data.Usage.TotalMessages)
	weekly := store.get("history_weekly_2024-03-04")
	require.NotNil(t, weekly)
	assert.Equal(t, 9, weekly.Data.Usage.TotalMessages)
	assert.Nil(t, store.get("history_monthly_2024-03-01"), "current month is not archived")

	assert.ElementsMatch(t, []string{
		"history_daily_2024-03-12->2024-03-13",
		"history_weekly_2024-03-04->2024-03-13",
	}, rotated)
	assert.Equal(t, 2, store.get("daily").Data.Usage.TotalMessages)

	merged, err := svc.StatsForRange(ctx, yesterday, yesterday)
	require.NoError(t, err)
	require.NotNil(t, merged)
	assert.Equal(t, 9, merged.Data.Usage.TotalMessages)
}
