package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/chatstats-tui/internal/models"
)

func sampleSnapshot() *models.AggregateSnapshot {
	s := models.NewSnapshot(models.WindowDaily, "2024-03-10")
	s.Data.Usage.TotalSessions = 2
	s.Data.Usage.TotalMessages = 9
	s.Data.Models.TotalCalls = 4
	s.Data.Models.ModelUsage["gpt"] = &models.ModelUsage{ID: "gpt", Name: "GPT", Count: 3, AvgResponseTime: 1200, ErrorRate: 0.25, TokenUsage: 90}
	s.Data.Models.ModelUsage["local"] = &models.ModelUsage{ID: "local", Count: 1}
	s.Data.Time.UsageByHour[14].Count = 9
	s.Data.Time.UsageByDay[0].Count = 9
	s.Data.Time.PeakUsageTime = models.PeakLabel(14)
	s.Data.Content.TopTopics = []models.RankedTag{{Name: "Deploy plan", Count: 1}}
	s.Data.Content.SessionLengthDistribution[0] = 2
	s.Data.Resources.TotalAPICalls = 4
	s.Data.Resources.TotalTokenUsage = 90
	s.Data.Resources.TokenUsageByModel["gpt"] = 90
	s.Data.Resources.KnowledgeBaseUsage["kb-1"] = 2
	return s
}

func TestNew_RejectsUnknownFormat(t *testing.T) {
	_, err := New("xml", &bytes.Buffer{})
	require.Error(t, err)

	rep, err := New("", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, FormatTable, rep.format)
}

func TestRender_Table(t *testing.T) {
	var buf bytes.Buffer
	rep, err := New(FormatTable, &buf)
	require.NoError(t, err)

	require.NoError(t, rep.Render("Today", sampleSnapshot()))

	output := buf.String()
	assert.Contains(t, output, "Today (2024-03-10)")
	assert.Contains(t, output, "USAGE")
	assert.Contains(t, output, "MODELS")
	assert.Contains(t, output, "4 calls")
	assert.Contains(t, output, "ACTIVITY")
	assert.Contains(t, output, "90 tokens")
	assert.Contains(t, output, "Deploy plan")
	assert.Contains(t, output, "1-10 msgs")
	assert.Contains(t, output, "kb-1")
	assert.Contains(t, output, "25.0%")
	assert.Contains(t, output, "Sun")
}

func TestRender_TableTotalsStayOnOneLine(t *testing.T) {
	var buf bytes.Buffer
	rep, err := New(FormatTable, &buf)
	require.NoError(t, err)

	// Narrow tables: a single hour bucket and a single knowledge base.
	s := models.NewSnapshot(models.WindowDaily, "2024-03-10")
	s.Data.Time.UsageByHour[14].Count = 1
	s.Data.Time.PeakUsageTime = models.PeakLabel(14)
	s.Data.Resources.TotalAPICalls = 4
	s.Data.Resources.TotalTokenUsage = 90
	s.Data.Resources.KnowledgeBaseUsage["kb"] = 1
	require.NoError(t, rep.Render("Today", s))

	lines := strings.Split(buf.String(), "\n")
	assert.True(t, hasLine(lines, "Peak", "14:00 - 15:00"), buf.String())
	assert.True(t, hasLine(lines, "4 calls", "90 tokens"), buf.String())
}

func hasLine(lines []string, parts ...string) bool {
	for _, l := range lines {
		ok := true
		for _, p := range parts {
			if !strings.Contains(l, p) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func TestRender_Markdown(t *testing.T) {
	var buf bytes.Buffer
	rep, err := New(FormatMarkdown, &buf)
	require.NoError(t, err)

	require.NoError(t, rep.Render("Today", sampleSnapshot()))

	output := buf.String()
	assert.True(t, strings.HasPrefix(output, "# Today (2024-03-10)"))
	assert.Contains(t, output, "## USAGE")
	assert.Contains(t, output, "| GPT |")
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	rep, err := New(FormatJSON, &buf)
	require.NoError(t, err)

	require.NoError(t, rep.Render("Today", sampleSnapshot()))

	var decoded models.AggregateSnapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "2024-03-10", decoded.Date)
	assert.Equal(t, 9, decoded.Data.Usage.TotalMessages)
	assert.Equal(t, 90, decoded.Data.Models.ModelUsage["gpt"].TokenUsage)
}

func TestRender_NilSnapshot(t *testing.T) {
	rep, err := New(FormatTable, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Error(t, rep.Render("Today", nil))
}

func TestSortedModels(t *testing.T) {
	got := SortedModels(sampleSnapshot().Data.Models)
	require.Len(t, got, 2)
	assert.Equal(t, "gpt", got[0].ID)
	assert.Equal(t, "local", ModelLabel(got[1]))
}

func TestSessionBucketLabel(t *testing.T) {
	assert.Equal(t, "1-10 msgs", SessionBucketLabel(0))
	assert.Equal(t, "81-90 msgs", SessionBucketLabel(8))
	assert.Equal(t, "91+ msgs", SessionBucketLabel(9))
}
