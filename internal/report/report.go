// Package report renders aggregate snapshots for the command line.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/j-veylop/chatstats-tui/internal/models"
)

// Output formats.
const (
	FormatTable    = "table"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

var weekdays = [models.DayBuckets]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Reporter writes snapshots in one output format.
type Reporter struct {
	w      io.Writer
	format string
}

// New returns a Reporter. Unknown formats are rejected.
func New(format string, w io.Writer) (*Reporter, error) {
	switch format {
	case "", FormatTable:
		format = FormatTable
	case FormatMarkdown, FormatJSON:
	default:
		return nil, fmt.Errorf("unknown format %q (want table, markdown or json)", format)
	}
	return &Reporter{w: w, format: format}, nil
}

func (r *Reporter) printLine(a ...any) {
	_, _ = fmt.Fprintln(r.w, a...)
}

// Render writes every facet of snap.
func (r *Reporter) Render(title string, snap *models.AggregateSnapshot) error {
	if snap == nil {
		return fmt.Errorf("no snapshot to render")
	}
	if r.format == FormatJSON {
		return r.printJSON(snap)
	}

	if r.format == FormatMarkdown {
		_, _ = fmt.Fprintf(r.w, "# %s (%s)\n\n", title, snap.Date)
	} else {
		r.printLine()
		_, _ = fmt.Fprintf(r.w, "  %s (%s)\n", title, snap.Date)
		r.printLine()
	}

	for _, s := range sections(snap) {
		r.render(s)
	}
	return nil
}

func (r *Reporter) printJSON(snap *models.AggregateSnapshot) error {
	out, err := sonic.ConfigStd.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = fmt.Fprintln(r.w, string(out))
	return err
}

// section is one rendered table.
type section struct {
	title  string
	header table.Row
	rows   []table.Row
	footer table.Row
}

func (r *Reporter) newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)

	t.Style().Title.Align = text.AlignCenter
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault

	return t
}

func (r *Reporter) render(s section) {
	if r.format == FormatMarkdown {
		t := r.newTable("")
		t.AppendHeader(s.header)
		t.AppendRows(s.rows)
		if s.footer != nil {
			t.AppendFooter(s.footer)
		}
		r.printLine("## " + s.title)
		r.printLine()
		t.RenderMarkdown()
		r.printLine()
		return
	}

	// Titles wrap to the table width, so totals live in the footer.
	t := r.newTable(s.title)
	t.AppendHeader(s.header)
	t.AppendRows(s.rows)
	if s.footer != nil {
		t.AppendFooter(s.footer)
	}
	t.Render()
	r.printLine()
}

func sections(snap *models.AggregateSnapshot) []section {
	d := snap.Data
	return []section{
		usageSection(d.Usage),
		modelSection(d.Models),
		timeSection(d.Time),
		contentSection(d.Content),
		resourceSection(d.Resources),
	}
}

func usageSection(u models.UsageStats) section {
	return section{
		title:  "USAGE",
		header: table.Row{"Metric", "Value"},
		rows: []table.Row{
			{"Sessions", u.TotalSessions},
			{"Messages", u.TotalMessages},
			{"User messages", u.UserMessages},
			{"Assistant messages", u.AssistantMessages},
			{"Avg session length", fmt.Sprintf("%.1f", u.AvgSessionLength)},
			{"Usage time (min)", u.TotalUsageTime},
			{"Active users", u.ActiveUsers},
		},
	}
}

func modelSection(m models.ModelStats) section {
	s := section{
		title:  "MODELS",
		header: table.Row{"Model", "Responses", "Avg Time", "Avg Length", "Error Rate", "Tokens"},
		footer: table.Row{fmt.Sprintf("%d calls", m.TotalCalls)},
	}
	for _, mu := range SortedModels(m) {
		s.rows = append(s.rows, table.Row{
			ModelLabel(mu),
			mu.Count,
			fmt.Sprintf("%.0fms", mu.AvgResponseTime),
			fmt.Sprintf("%.0f", mu.AvgResponseLength),
			fmt.Sprintf("%.1f%%", mu.ErrorRate*100),
			mu.TokenUsage,
		})
	}
	return s
}

func timeSection(t models.TimeStats) section {
	peak := t.PeakUsageTime
	if peak == "" {
		peak = "-"
	}
	s := section{
		title:  "ACTIVITY",
		header: table.Row{"Bucket", "Messages"},
		footer: table.Row{"Peak", peak},
	}
	for _, p := range t.UsageByHour {
		if p.Count > 0 {
			s.rows = append(s.rows, table.Row{p.Timestamp + ":00", p.Count})
		}
	}
	for i, p := range t.UsageByDay {
		if p.Count > 0 && i < len(weekdays) {
			s.rows = append(s.rows, table.Row{weekdays[i], p.Count})
		}
	}
	for _, p := range t.UsageByMonth {
		if p.Count > 0 {
			s.rows = append(s.rows, table.Row{"Month " + p.Timestamp, p.Count})
		}
	}
	return s
}

func contentSection(c models.ContentStats) section {
	s := section{
		title:  "CONTENT",
		header: table.Row{"Topic / Session length", "Count"},
	}
	for _, t := range c.TopTopics {
		s.rows = append(s.rows, table.Row{t.Name, t.Count})
	}
	for i, n := range c.SessionLengthDistribution {
		if n > 0 {
			s.rows = append(s.rows, table.Row{SessionBucketLabel(i), n})
		}
	}
	return s
}

func resourceSection(r models.ResourceStats) section {
	s := section{
		title:  "RESOURCES",
		header: table.Row{"Kind", "Name", "Count"},
		footer: table.Row{"Total", fmt.Sprintf("%d calls", r.TotalAPICalls), fmt.Sprintf("%d tokens", r.TotalTokenUsage)},
	}
	for _, k := range sortedKeys(r.TokenUsageByModel) {
		s.rows = append(s.rows, table.Row{"tokens", k, r.TokenUsageByModel[k]})
	}
	for _, k := range sortedKeys(r.KnowledgeBaseUsage) {
		s.rows = append(s.rows, table.Row{"knowledge base", k, r.KnowledgeBaseUsage[k]})
	}
	return s
}

// SortedModels returns model entries by descending response count, then id.
func SortedModels(m models.ModelStats) []*models.ModelUsage {
	out := make([]*models.ModelUsage, 0, len(m.ModelUsage))
	for _, mu := range m.ModelUsage {
		out = append(out, mu)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ModelLabel prefers the display name over the id.
func ModelLabel(mu *models.ModelUsage) string {
	if mu.Name != "" {
		return mu.Name
	}
	return mu.ID
}

// SessionBucketLabel names a session length bucket, e.g. "1-10 msgs".
func SessionBucketLabel(i int) string {
	if i >= models.SessionLengthBuckets-1 {
		return strconv.Itoa((models.SessionLengthBuckets-1)*10+1) + "+ msgs"
	}
	return fmt.Sprintf("%d-%d msgs", i*10+1, (i+1)*10)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
