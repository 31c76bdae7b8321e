package statistics

import (
	"sort"
	"time"
	"unicode/utf8"

	"github.com/j-veylop/chatstats-tui/internal/models"
)

// runningMean folds value into an average that already covers n-1 samples.
func runningMean(avg float64, n int, value float64) float64 {
	if n <= 0 {
		return avg
	}
	return (avg*float64(n-1) + value) / float64(n)
}

// sessionBucket maps a session length onto its distribution bucket.
// Bucket i covers lengths i*10+1 through (i+1)*10; the last absorbs overflow.
func sessionBucket(length int) int {
	idx := (length - 1) / 10
	if length < 1 {
		idx = 0
	}
	return min(idx, models.SessionLengthBuckets-1)
}

// applyMessage folds one message into d. at is the message time in the
// service location and drives the calendar buckets.
func applyMessage(d *models.SnapshotData, msg *models.Message, at time.Time) {
	d.Usage.TotalMessages++

	switch msg.Role {
	case models.RoleUser:
		d.Usage.UserMessages++
	case models.RoleAssistant:
		d.Usage.AssistantMessages++
		if msg.Model != nil {
			applyModel(&d.Models, msg)
		}
		if msg.Usage != nil {
			applyResources(&d.Resources, msg)
		}
	}

	applyTime(&d.Time, at)
}

func applyModel(ms *models.ModelStats, msg *models.Message) {
	ms.TotalCalls++

	mu, ok := ms.ModelUsage[msg.Model.ID]
	if !ok {
		mu = &models.ModelUsage{ID: msg.Model.ID, Name: msg.Model.Name}
		ms.ModelUsage[msg.Model.ID] = mu
	}
	mu.Count++

	if msg.Metrics != nil && msg.Metrics.TimeCompletionMs > 0 {
		mu.AvgResponseTime = runningMean(mu.AvgResponseTime, mu.Count, float64(msg.Metrics.TimeCompletionMs))
	}
	mu.AvgResponseLength = runningMean(mu.AvgResponseLength, mu.Count, float64(utf8.RuneCountInString(msg.Content)))

	failed := 0.0
	if msg.Status == models.StatusError {
		failed = 1
	}
	mu.ErrorRate = runningMean(mu.ErrorRate, mu.Count, failed)

	mu.TokenUsage += msg.CompletionTokens()
}

func applyResources(rs *models.ResourceStats, msg *models.Message) {
	rs.TotalAPICalls++

	if tokens := msg.CompletionTokens(); tokens > 0 {
		rs.TotalTokenUsage += tokens
		if msg.Model != nil {
			rs.TokenUsageByModel[msg.Model.ID] += tokens
		}
	}

	for _, kb := range msg.KnowledgeBaseIDs {
		rs.KnowledgeBaseUsage[kb]++
	}
}

func applyTime(ts *models.TimeStats, at time.Time) {
	ts.UsageByHour[at.Hour()].Count++
	ts.UsageByDay[int(at.Weekday())].Count++
	ts.UsageByMonth[int(at.Month())-1].Count++
	ts.PeakUsageTime = peakLabel(ts.UsageByHour)
}

// peakLabel names the busiest hour bucket. Ties go to the earliest hour and
// an all-zero histogram has no peak.
func peakLabel(hours []models.TimePoint) string {
	best, bestCount := -1, 0
	for i, p := range hours {
		if p.Count > bestCount {
			best, bestCount = i, p.Count
		}
	}
	if best < 0 {
		return ""
	}
	return models.PeakLabel(best)
}

// applyTopic folds one session into d.
func applyTopic(d *models.SnapshotData, topic *models.Topic) {
	length := len(topic.Messages)

	d.Usage.TotalSessions++
	d.Usage.AvgSessionLength = runningMean(d.Usage.AvgSessionLength, d.Usage.TotalSessions, float64(length))
	d.Content.SessionLengthDistribution[sessionBucket(length)]++
	d.Content.TopTopics = addRanked(d.Content.TopTopics, topic.Name, 1)
}

// addRanked adds count to name, keeping the list sorted descending and capped.
func addRanked(list []models.RankedTag, name string, count int) []models.RankedTag {
	found := false
	for i := range list {
		if list[i].Name == name {
			list[i].Count += count
			found = true
			break
		}
	}
	if !found {
		list = append(list, models.RankedTag{Name: name, Count: count})
	}
	return rankAndCap(list)
}

func rankAndCap(list []models.RankedTag) []models.RankedTag {
	sort.SliceStable(list, func(i, j int) bool { return list[i].Count > list[j].Count })
	if len(list) > models.RankedListLimit {
		list = list[:models.RankedListLimit]
	}
	return list
}
