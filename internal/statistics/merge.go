package statistics

import (
	"sort"

	"github.com/j-veylop/chatstats-tui/internal/models"
)

// Merge combines snapshots into a single all_time shaped result dated
// "<first>~<last>". It returns nil when no snapshots are given.
func Merge(snapshots ...*models.AggregateSnapshot) *models.AggregateSnapshot {
	if len(snapshots) == 0 {
		return nil
	}

	dates := make([]string, 0, len(snapshots))
	for _, s := range snapshots {
		dates = append(dates, s.Date)
	}
	sort.Strings(dates)
	span := dates[0] + "~" + dates[len(dates)-1]

	out := models.NewSnapshot(models.WindowAllTime, span)
	out.ID = "custom_" + span
	out.Data.Usage.ActiveUsers = 0

	for _, s := range snapshots {
		mergeData(&out.Data, &s.Data)
	}

	out.Data.Usage.AvgSessionLength /= float64(len(snapshots))
	out.Data.Time.PeakUsageTime = peakLabel(out.Data.Time.UsageByHour)
	if out.Data.Usage.ActiveUsers < 1 {
		out.Data.Usage.ActiveUsers = 1
	}
	return out
}

// mergeData adds src into dst. avgSessionLength is summed; Merge divides it
// once all sources are folded in.
func mergeData(dst, src *models.SnapshotData) {
	dst.Usage.TotalSessions += src.Usage.TotalSessions
	dst.Usage.TotalMessages += src.Usage.TotalMessages
	dst.Usage.UserMessages += src.Usage.UserMessages
	dst.Usage.AssistantMessages += src.Usage.AssistantMessages
	dst.Usage.AvgSessionLength += src.Usage.AvgSessionLength
	dst.Usage.TotalUsageTime += src.Usage.TotalUsageTime
	dst.Usage.ActiveUsers = max(dst.Usage.ActiveUsers, src.Usage.ActiveUsers)

	mergeModels(&dst.Models, &src.Models)

	addPoints(dst.Time.UsageByHour, src.Time.UsageByHour)
	addPoints(dst.Time.UsageByDay, src.Time.UsageByDay)
	addPoints(dst.Time.UsageByMonth, src.Time.UsageByMonth)

	for _, tag := range src.Content.TopTopics {
		dst.Content.TopTopics = addRankedNoSort(dst.Content.TopTopics, tag)
	}
	dst.Content.TopTopics = rankAndCap(dst.Content.TopTopics)
	for _, tag := range src.Content.Keywords {
		dst.Content.Keywords = addRankedNoSort(dst.Content.Keywords, tag)
	}
	dst.Content.Keywords = rankAndCap(dst.Content.Keywords)
	for i := 0; i < len(dst.Content.SessionLengthDistribution) && i < len(src.Content.SessionLengthDistribution); i++ {
		dst.Content.SessionLengthDistribution[i] += src.Content.SessionLengthDistribution[i]
	}

	dst.Resources.TotalAPICalls += src.Resources.TotalAPICalls
	dst.Resources.TotalTokenUsage += src.Resources.TotalTokenUsage
	for id, n := range src.Resources.TokenUsageByModel {
		dst.Resources.TokenUsageByModel[id] += n
	}
	for id, n := range src.Resources.KnowledgeBaseUsage {
		dst.Resources.KnowledgeBaseUsage[id] += n
	}
}

func mergeModels(dst, src *models.ModelStats) {
	dst.TotalCalls += src.TotalCalls

	for id, s := range src.ModelUsage {
		t, ok := dst.ModelUsage[id]
		if !ok {
			cp := *s
			dst.ModelUsage[id] = &cp
			continue
		}

		if total := t.Count + s.Count; total > 0 {
			t.AvgResponseTime = weighted(t.AvgResponseTime, t.Count, s.AvgResponseTime, s.Count)
			t.AvgResponseLength = weighted(t.AvgResponseLength, t.Count, s.AvgResponseLength, s.Count)
			t.ErrorRate = weighted(t.ErrorRate, t.Count, s.ErrorRate, s.Count)
		}
		t.Count += s.Count
		t.TokenUsage += s.TokenUsage
	}
}

func weighted(a float64, na int, b float64, nb int) float64 {
	return (a*float64(na) + b*float64(nb)) / float64(na+nb)
}

func addPoints(dst, src []models.TimePoint) {
	for i := 0; i < len(dst) && i < len(src); i++ {
		dst[i].Count += src[i].Count
	}
}

func addRankedNoSort(list []models.RankedTag, tag models.RankedTag) []models.RankedTag {
	for i := range list {
		if list[i].Name == tag.Name {
			list[i].Count += tag.Count
			return list
		}
	}
	return append(list, tag)
}
