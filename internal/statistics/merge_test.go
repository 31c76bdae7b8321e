package statistics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/chatstats-tui/internal/models"
)

func archivedDay(date string, fill func(d *models.SnapshotData)) *models.AggregateSnapshot {
	s := models.NewSnapshot(models.WindowDaily, date)
	if fill != nil {
		fill(&s.Data)
	}
	return s.Archived()
}

func TestMerge_ModelWeightedAverage(t *testing.T) {
	a := archivedDay("2024-03-10", func(d *models.SnapshotData) {
		d.Models.TotalCalls = 3
		d.Models.ModelUsage["m1"] = &models.ModelUsage{ID: "m1", Count: 3, AvgResponseTime: 100, AvgResponseLength: 10, ErrorRate: 0, TokenUsage: 30}
	})
	b := archivedDay("2024-03-11", func(d *models.SnapshotData) {
		d.Models.TotalCalls = 1
		d.Models.ModelUsage["m1"] = &models.ModelUsage{ID: "m1", Count: 1, AvgResponseTime: 500, AvgResponseLength: 50, ErrorRate: 1, TokenUsage: 5}
		d.Models.ModelUsage["m2"] = &models.ModelUsage{ID: "m2", Count: 2, AvgResponseTime: 70}
	})

	out := Merge(a, b)
	require.NotNil(t, out)

	m1 := out.Data.Models.ModelUsage["m1"]
	assert.Equal(t, 4, m1.Count)
	assert.InDelta(t, (100*3+500*1)/4.0, m1.AvgResponseTime, 1e-9)
	assert.InDelta(t, (10*3+50*1)/4.0, m1.AvgResponseLength, 1e-9)
	assert.InDelta(t, 0.25, m1.ErrorRate, 1e-9)
	assert.Equal(t, 35, m1.TokenUsage)
	assert.Equal(t, 4, out.Data.Models.TotalCalls)

	m2 := out.Data.Models.ModelUsage["m2"]
	assert.Equal(t, 2, m2.Count)
	assert.InDelta(t, 70, m2.AvgResponseTime, 1e-9)

	// Sources are not modified.
	assert.Equal(t, 3, a.Data.Models.ModelUsage["m1"].Count)
	m2.Count = 99
	assert.Equal(t, 2, b.Data.Models.ModelUsage["m2"].Count)
}

func TestMerge_SumsMaxAndAverages(t *testing.T) {
	a := archivedDay("2024-03-12", func(d *models.SnapshotData) {
		d.Usage = models.UsageStats{TotalSessions: 2, TotalMessages: 10, UserMessages: 6, AssistantMessages: 4, AvgSessionLength: 5, TotalUsageTime: 30, ActiveUsers: 1}
		d.Time.UsageByHour[9].Count = 4
		d.Time.UsageByDay[2].Count = 4
		d.Content.SessionLengthDistribution[0] = 2
		d.Content.TopTopics = []models.RankedTag{{Name: "go", Count: 2}, {Name: "sql", Count: 1}}
		d.Resources.TotalAPICalls = 4
		d.Resources.TotalTokenUsage = 400
		d.Resources.TokenUsageByModel["m1"] = 400
		d.Resources.KnowledgeBaseUsage["kb"] = 1
	})
	b := archivedDay("2024-03-10", func(d *models.SnapshotData) {
		d.Usage = models.UsageStats{TotalSessions: 1, TotalMessages: 3, UserMessages: 2, AssistantMessages: 1, AvgSessionLength: 15, TotalUsageTime: 5, ActiveUsers: 3}
		d.Time.UsageByHour[21].Count = 6
		d.Content.SessionLengthDistribution[1] = 1
		d.Content.TopTopics = []models.RankedTag{{Name: "sql", Count: 3}}
		d.Content.Keywords = []models.RankedTag{{Name: "join", Count: 2}}
		d.Resources.TotalAPICalls = 1
		d.Resources.TotalTokenUsage = 50
		d.Resources.TokenUsageByModel["m2"] = 50
		d.Resources.KnowledgeBaseUsage["kb"] = 2
	})

	out := Merge(a, b)

	assert.Equal(t, "2024-03-10~2024-03-12", out.Date)
	assert.Equal(t, "custom_2024-03-10~2024-03-12", out.ID)
	assert.Equal(t, models.WindowAllTime, out.Type)

	u := out.Data.Usage
	assert.Equal(t, 3, u.TotalSessions)
	assert.Equal(t, 13, u.TotalMessages)
	assert.Equal(t, 8, u.UserMessages)
	assert.Equal(t, 5, u.AssistantMessages)
	assert.Equal(t, 35, u.TotalUsageTime)
	assert.Equal(t, 3, u.ActiveUsers)
	assert.InDelta(t, 10, u.AvgSessionLength, 1e-9)

	assert.Equal(t, 4, out.Data.Time.UsageByHour[9].Count)
	assert.Equal(t, 6, out.Data.Time.UsageByHour[21].Count)
	assert.Equal(t, "21:00 - 22:00", out.Data.Time.PeakUsageTime)
	assert.Len(t, out.Data.Time.UsageByHour, models.HourBuckets)

	assert.Equal(t, []int{2, 1, 0, 0, 0, 0, 0, 0, 0, 0}, out.Data.Content.SessionLengthDistribution)
	assert.Equal(t, []models.RankedTag{{Name: "sql", Count: 4}, {Name: "go", Count: 2}}, out.Data.Content.TopTopics)
	assert.Equal(t, []models.RankedTag{{Name: "join", Count: 2}}, out.Data.Content.Keywords)

	r := out.Data.Resources
	assert.Equal(t, 5, r.TotalAPICalls)
	assert.Equal(t, 450, r.TotalTokenUsage)
	assert.Equal(t, map[string]int{"m1": 400, "m2": 50}, r.TokenUsageByModel)
	assert.Equal(t, map[string]int{"kb": 3}, r.KnowledgeBaseUsage)
}

func TestMerge_Empty(t *testing.T) {
	assert.Nil(t, Merge())
}

func TestMerge_RankedListCapped(t *testing.T) {
	var snaps []*models.AggregateSnapshot
	for i := 0; i < 3; i++ {
		snaps = append(snaps, archivedDay("2024-03-1"+string(rune('0'+i)), func(d *models.SnapshotData) {
			for j := 0; j < 15; j++ {
				d.Content.TopTopics = append(d.Content.TopTopics, models.RankedTag{Name: string(rune('a'+i*15+j)), Count: j + 1})
			}
		}))
	}

	out := Merge(snaps...)
	top := out.Data.Content.TopTopics
	assert.Len(t, top, models.RankedListLimit)
	for j := 1; j < len(top); j++ {
		assert.GreaterOrEqual(t, top[j-1].Count, top[j].Count)
	}
}

func TestStatsForRange(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	svc := newTestService(store, today)

	require.NoError(t, store.PutSnapshot(ctx, archivedDay("2024-03-09", func(d *models.SnapshotData) {
		d.Usage.TotalMessages = 5
	})))
	require.NoError(t, store.PutSnapshot(ctx, archivedDay("2024-03-11", func(d *models.SnapshotData) {
		d.Usage.TotalMessages = 7
	})))
	// Outside the range.
	require.NoError(t, store.PutSnapshot(ctx, archivedDay("2024-03-01", func(d *models.SnapshotData) {
		d.Usage.TotalMessages = 100
	})))

	start := time.Date(2024, time.March, 8, 18, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.March, 12, 1, 0, 0, 0, time.UTC)
	out, err := svc.StatsForRange(ctx, start, end)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, 12, out.Data.Usage.TotalMessages)
	assert.Equal(t, "2024-03-09~2024-03-11", out.Date)

	// Range results are never persisted.
	assert.Nil(t, store.get(out.ID))
}

func TestStatsForRange_NoHistory(t *testing.T) {
	svc := newTestService(newMemStore(), today)

	out, err := svc.StatsForRange(context.Background(), yesterday.AddDate(0, 0, -30), yesterday)
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = svc.StatsForRange(context.Background(), today, yesterday)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestStatsForRange_StoreError(t *testing.T) {
	store := newMemStore()
	store.failGet = true
	svc := newTestService(store, today)

	_, err := svc.StatsForRange(context.Background(), yesterday, today)
	assert.Error(t, err)
}

func TestRotatedDaysFeedRangeQueries(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	day1 := newTestService(store, yesterday)
	require.NoError(t, day1.RecordMessage(ctx, &models.Message{Role: models.RoleUser, CreatedAt: yesterday}).Err())

	day2 := newTestService(store, today)
	_, err := day2.Statistics(ctx, models.WindowDaily)
	require.NoError(t, err)

	out, err := day2.StatsForRange(ctx, yesterday, today)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, 1, out.Data.Usage.TotalMessages)
}

func TestMerge_NoActivityHasNoPeak(t *testing.T) {
	out := Merge(archivedDay("2024-03-10", nil), archivedDay("2024-03-11", nil))
	require.NotNil(t, out)
	assert.Empty(t, out.Data.Time.PeakUsageTime)
	assert.Empty(t, peakLabel(models.NewSnapshotData().Time.UsageByHour))
}
