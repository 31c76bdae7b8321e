package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Fixed facet sizes.
const (
	HourBuckets          = 24
	DayBuckets           = 7
	MonthBuckets         = 12
	SessionLengthBuckets = 10
	// RankedListLimit caps topTopics and keywords.
	RankedListLimit = 20
)

const historyPrefix = "history_"

// TimePoint is a labelled counter inside a time facet.
type TimePoint struct {
	Timestamp string `json:"timestamp"`
	Count     int    `json:"count"`
}

// RankedTag is a named counter in a ranked list.
type RankedTag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// UsageStats counts sessions and messages.
type UsageStats struct {
	TotalSessions     int     `json:"totalSessions"`
	TotalMessages     int     `json:"totalMessages"`
	UserMessages      int     `json:"userMessages"`
	AssistantMessages int     `json:"assistantMessages"`
	AvgSessionLength  float64 `json:"avgSessionLength"`
	TotalUsageTime    int     `json:"totalUsageTime"` // minutes
	ActiveUsers       int     `json:"activeUsers"`
}

// ModelUsage aggregates responses from a single model.
type ModelUsage struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Count             int     `json:"count"`
	AvgResponseTime   float64 `json:"avgResponseTime"`   // ms
	AvgResponseLength float64 `json:"avgResponseLength"` // characters
	ErrorRate         float64 `json:"errorRate"`
	TokenUsage        int     `json:"tokenUsage"`
}

// ModelStats aggregates per-model usage.
type ModelStats struct {
	ModelUsage map[string]*ModelUsage `json:"modelUsage"`
	TotalCalls int                    `json:"totalCalls"`
}

// TimeStats holds calendar bucketed activity.
type TimeStats struct {
	PeakUsageTime string      `json:"peakUsageTime"`
	UsageByHour   []TimePoint `json:"usageByHour"`
	UsageByDay    []TimePoint `json:"usageByDay"` // 0 = Sunday
	UsageByWeek   []TimePoint `json:"usageByWeek"`
	UsageByMonth  []TimePoint `json:"usageByMonth"`
}

// ContentStats tracks topics and session shapes.
type ContentStats struct {
	TopTopics []RankedTag `json:"topTopics"`
	// Keywords is merged but never populated by message or topic updates.
	Keywords                  []RankedTag `json:"keywords"`
	SessionLengthDistribution []int       `json:"sessionLengthDistribution"`
}

// ResourceStats tracks API and token consumption.
type ResourceStats struct {
	TokenUsageByModel  map[string]int `json:"tokenUsageByModel"`
	KnowledgeBaseUsage map[string]int `json:"knowledgeBaseUsage"`
	TotalAPICalls      int            `json:"totalApiCalls"`
	TotalTokenUsage    int            `json:"totalTokenUsage"`
}

// SnapshotData groups the five facets. Every facet is always present.
type SnapshotData struct {
	Models    ModelStats    `json:"models"`
	Time      TimeStats     `json:"time"`
	Content   ContentStats  `json:"content"`
	Resources ResourceStats `json:"resources"`
	Usage     UsageStats    `json:"usage"`
}

// AggregateSnapshot is the aggregate record for one window at one point in time.
type AggregateSnapshot struct {
	ID   string       `json:"id"`
	Date string       `json:"date"`
	Type WindowType   `json:"type"`
	Data SnapshotData `json:"data"`
}

// NewSnapshot returns the zeroed live snapshot for window dated date.
func NewSnapshot(window WindowType, date string) *AggregateSnapshot {
	return &AggregateSnapshot{
		ID:   string(window),
		Date: date,
		Type: window,
		Data: NewSnapshotData(),
	}
}

// NewSnapshotData returns zeroed facets with every bucket array allocated.
func NewSnapshotData() SnapshotData {
	var d SnapshotData
	d.Normalize()
	return d
}

// HistoryID returns the archive key for a window snapshot dated date.
func HistoryID(window WindowType, date string) string {
	return historyPrefix + string(window) + "_" + date
}

// IsHistoryID reports whether id addresses an archived snapshot.
func IsHistoryID(id string) bool {
	return strings.HasPrefix(id, historyPrefix)
}

// Archived returns a copy of s addressed by its history key. An already
// archived snapshot keeps its id.
func (s *AggregateSnapshot) Archived() *AggregateSnapshot {
	c := s.Clone()
	if IsHistoryID(s.ID) {
		return c
	}
	c.ID = HistoryID(s.Type, s.Date)
	return c
}

// Normalize fills missing facets and restores canonical bucket lengths.
// Rows written by older databases may carry an empty data object.
func (s *AggregateSnapshot) Normalize() {
	s.Data.Normalize()
}

// Normalize fills missing facets and restores canonical bucket lengths.
func (d *SnapshotData) Normalize() {
	if d.Usage.ActiveUsers < 1 {
		d.Usage.ActiveUsers = 1
	}
	if d.Models.ModelUsage == nil {
		d.Models.ModelUsage = make(map[string]*ModelUsage)
	}
	for id, mu := range d.Models.ModelUsage {
		if mu == nil {
			delete(d.Models.ModelUsage, id)
		}
	}

	d.Time.UsageByHour = fixPoints(d.Time.UsageByHour, HourBuckets, func(i int) string {
		return fmt.Sprintf("%02d", i)
	})
	d.Time.UsageByDay = fixPoints(d.Time.UsageByDay, DayBuckets, strconv.Itoa)
	d.Time.UsageByMonth = fixPoints(d.Time.UsageByMonth, MonthBuckets, func(i int) string {
		return strconv.Itoa(i + 1)
	})
	if d.Time.UsageByWeek == nil {
		d.Time.UsageByWeek = []TimePoint{}
	}

	if d.Content.TopTopics == nil {
		d.Content.TopTopics = []RankedTag{}
	}
	if d.Content.Keywords == nil {
		d.Content.Keywords = []RankedTag{}
	}
	dist := make([]int, SessionLengthBuckets)
	copy(dist, d.Content.SessionLengthDistribution)
	d.Content.SessionLengthDistribution = dist

	if d.Resources.TokenUsageByModel == nil {
		d.Resources.TokenUsageByModel = make(map[string]int)
	}
	if d.Resources.KnowledgeBaseUsage == nil {
		d.Resources.KnowledgeBaseUsage = make(map[string]int)
	}
}

// fixPoints returns n buckets labelled by label, carrying over counts from
// points at matching positions.
func fixPoints(points []TimePoint, n int, label func(int) string) []TimePoint {
	if len(points) == n {
		return points
	}
	out := make([]TimePoint, n)
	for i := range out {
		out[i].Timestamp = label(i)
		if i < len(points) {
			out[i].Count = points[i].Count
		}
	}
	return out
}

// Clone returns a deep copy of s.
func (s *AggregateSnapshot) Clone() *AggregateSnapshot {
	c := *s
	c.Data = s.Data.Clone()
	return &c
}

// Clone returns a deep copy of d.
func (d SnapshotData) Clone() SnapshotData {
	c := d

	c.Models.ModelUsage = make(map[string]*ModelUsage, len(d.Models.ModelUsage))
	for id, mu := range d.Models.ModelUsage {
		if mu == nil {
			continue
		}
		cp := *mu
		c.Models.ModelUsage[id] = &cp
	}

	c.Time.UsageByHour = append([]TimePoint(nil), d.Time.UsageByHour...)
	c.Time.UsageByDay = append([]TimePoint(nil), d.Time.UsageByDay...)
	c.Time.UsageByWeek = append([]TimePoint{}, d.Time.UsageByWeek...)
	c.Time.UsageByMonth = append([]TimePoint(nil), d.Time.UsageByMonth...)

	c.Content.TopTopics = append([]RankedTag{}, d.Content.TopTopics...)
	c.Content.Keywords = append([]RankedTag{}, d.Content.Keywords...)
	c.Content.SessionLengthDistribution = append([]int(nil), d.Content.SessionLengthDistribution...)

	c.Resources.TokenUsageByModel = cloneCounts(d.Resources.TokenUsageByModel)
	c.Resources.KnowledgeBaseUsage = cloneCounts(d.Resources.KnowledgeBaseUsage)
	return c
}

func cloneCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// PeakLabel formats an hour bucket as "H:00 - H+1:00".
func PeakLabel(hour int) string {
	return fmt.Sprintf("%d:00 - %d:00", hour, hour+1)
}
