// Package stats provides the tabs that show one facet of the selected
// window's aggregate snapshot.
package stats

import (
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/chatstats-tui/internal/app"
	"github.com/j-veylop/chatstats-tui/internal/models"
	"github.com/j-veylop/chatstats-tui/internal/report"
	"github.com/j-veylop/chatstats-tui/internal/ui/components"
)

// Category selects the facet a tab shows.
type Category int

const (
	// Overview shows usage counters and a summary of every facet.
	Overview Category = iota
	// Models shows per-model responses, latency and error rate.
	Models
	// Activity shows hour, weekday and month buckets.
	Activity
	// Content shows top topics and session lengths.
	Content
	// Resources shows token and knowledge base consumption.
	Resources
)

func (c Category) String() string {
	switch c {
	case Overview:
		return "Overview"
	case Models:
		return "Models"
	case Activity:
		return "Activity"
	case Content:
		return "Content"
	case Resources:
		return "Resources"
	default:
		return "Unknown"
	}
}

// SortMode orders the model list.
type SortMode int

const (
	SortByResponses SortMode = iota
	SortByErrorRate
	SortByLatency
	sortModeCount
)

func (s SortMode) String() string {
	switch s {
	case SortByErrorRate:
		return "error rate"
	case SortByLatency:
		return "latency"
	default:
		return "responses"
	}
}

type animationTickMsg time.Time

func animationTickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*40, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

const animationDuration = 1.5 // seconds

type keyMap struct {
	ScrollDown key.Binding
	ScrollUp   key.Binding
	Top        key.Binding
	Bottom     key.Binding
	Sort       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		ScrollDown: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "scroll down"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "scroll up"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort models"),
		),
	}
}

// AnimationState tracks a share bar easing toward its target.
type AnimationState struct {
	StartTime      time.Time
	CurrentPercent float64
	TargetPercent  float64
	StartPercent   float64
}

// Model renders one category of the selected window.
type Model struct {
	state          *app.State
	animations     map[string]*AnimationState
	loader         components.Loader
	keys           keyMap
	viewport       viewport.Model
	shareBar       components.ShareBar
	category       Category
	sort           SortMode
	width          int
	height         int
	animationFrame int
}

// New creates a tab showing category.
func New(state *app.State, category Category) *Model {
	return &Model{
		state:      state,
		category:   category,
		loader:     components.NewLoader(category.String()),
		shareBar:   components.NewShareBar(),
		keys:       defaultKeyMap(),
		viewport:   viewport.New(0, 0),
		animations: make(map[string]*AnimationState),
	}
}

// Category returns the facet this tab shows.
func (m *Model) Category() Category {
	return m.category
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loader.Tick(), animationTickCmd())
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case animationTickMsg:
		cmds = append(cmds, m.handleAnimationTick(time.Time(msg)))

	case app.StatsLoadedMsg, app.RefreshMsg, app.WindowChangedMsg, app.TabSwitchMsg:
		m.syncAnimationTargets(time.Now())
		cmds = append(cmds, animationTickCmd())

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyMsg(msg))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.loader, cmd = m.loader.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleAnimationTick(now time.Time) tea.Cmd {
	m.animationFrame++

	m.syncAnimationTargets(now)
	m.stepAnimations(now)

	if m.animating() || m.state.AnyLoading() {
		return animationTickCmd()
	}
	return nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
	case key.Matches(msg, m.keys.Sort) && m.category == Models:
		m.sort = (m.sort + 1) % sortModeCount
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

// SetSize sets the available size for the tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// animationKey names an animated bar. Bars keep their key across windows so
// switching windows eases from the previous value.
func animationKey(prefix, id string) string {
	return prefix + ":" + id
}

// shareTargets returns the share, in percent, each animated bar should reach.
func (m *Model) shareTargets() map[string]float64 {
	snap := m.state.Snapshot()
	if snap == nil {
		return nil
	}

	targets := make(map[string]float64)
	switch m.category {
	case Models, Overview:
		total := float64(snap.Data.Models.TotalCalls)
		for id, mu := range snap.Data.Models.ModelUsage {
			targets[animationKey("model", id)] = components.Share(float64(mu.Count), total)
		}
	case Resources:
		total := float64(snap.Data.Resources.TotalTokenUsage)
		for id, n := range snap.Data.Resources.TokenUsageByModel {
			targets[animationKey("tokens", id)] = components.Share(float64(n), total)
		}
	}
	return targets
}

func (m *Model) syncAnimationTargets(now time.Time) bool {
	animating := false
	for k, target := range m.shareTargets() {
		if m.updateAnimationState(k, target, now) {
			animating = true
		}
	}
	return animating
}

func (m *Model) updateAnimationState(animKey string, target float64, now time.Time) bool {
	state, exists := m.animations[animKey]
	if !exists {
		state = &AnimationState{StartTime: now}
		m.animations[animKey] = state
	}

	if target != state.TargetPercent {
		state.StartPercent = state.CurrentPercent
		state.TargetPercent = target
		state.StartTime = now
	}

	return state.CurrentPercent != state.TargetPercent
}

func (m *Model) animating() bool {
	for _, state := range m.animations {
		if state.CurrentPercent != state.TargetPercent {
			return true
		}
	}
	return false
}

func (m *Model) stepAnimations(now time.Time) {
	for _, state := range m.animations {
		if state.CurrentPercent == state.TargetPercent {
			continue
		}
		elapsed := now.Sub(state.StartTime).Seconds()
		if elapsed >= animationDuration {
			state.CurrentPercent = state.TargetPercent
			continue
		}
		progress := elapsed / animationDuration
		ease := 1.0 - (1.0-progress)*(1.0-progress)
		state.CurrentPercent = state.StartPercent + (state.TargetPercent-state.StartPercent)*ease
	}
}

// displayPercent returns the animated value for a bar, or target before the
// first animation tick.
func (m *Model) displayPercent(animKey string, target float64) float64 {
	if anim, ok := m.animations[animKey]; ok && anim.TargetPercent == target {
		return anim.CurrentPercent
	}
	return target
}

// sortedModels orders the model list by the current sort mode.
func (m *Model) sortedModels(stats models.ModelStats) []*models.ModelUsage {
	list := report.SortedModels(stats)
	switch m.sort {
	case SortByErrorRate:
		sort.SliceStable(list, func(i, j int) bool { return list[i].ErrorRate > list[j].ErrorRate })
	case SortByLatency:
		sort.SliceStable(list, func(i, j int) bool { return list[i].AvgResponseTime > list[j].AvgResponseTime })
	}
	return list
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	if m.category == Models {
		return []key.Binding{m.keys.ScrollDown, m.keys.ScrollUp, m.keys.Sort}
	}
	return []key.Binding{m.keys.ScrollDown, m.keys.ScrollUp}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ScrollDown, m.keys.ScrollUp},
		{m.keys.Top, m.keys.Bottom},
		{m.keys.Sort},
	}
}
