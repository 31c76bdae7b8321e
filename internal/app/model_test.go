package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/chatstats-tui/internal/models"
	"github.com/j-veylop/chatstats-tui/internal/services"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// collectMsgs runs cmd and flattens any batches into their messages.
func collectMsgs(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, collectMsgs(c)...)
	}
	return out
}

func readyModel(svc Services) *Model {
	m := NewModel(svc, models.WindowDaily)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func TestNewModel(t *testing.T) {
	model := NewModel(nil, models.WindowMonthly)
	if model == nil {
		t.Fatal("NewModel returned nil")
	}
	if model.state == nil {
		t.Error("State should be initialized")
	}
	if model.activeTab != TabOverview {
		t.Error("Default tab should be Overview")
	}
	if len(model.tabs) != int(tabCount) {
		t.Errorf("Should have %d tab placeholders, got %d", tabCount, len(model.tabs))
	}
	if model.state.Window() != models.WindowMonthly {
		t.Errorf("Window = %s, want monthly", model.state.Window())
	}
	if model.refreshInterval != DefaultTickInterval {
		t.Errorf("refreshInterval = %v", model.refreshInterval)
	}

	model.SetRefreshInterval(time.Minute)
	model.SetRefreshInterval(0)
	if model.refreshInterval != time.Minute {
		t.Errorf("refreshInterval = %v, want 1m", model.refreshInterval)
	}
}

func TestModel_Init(t *testing.T) {
	model := NewModel(newFakeServices(), models.WindowDaily)
	if cmd := model.Init(); cmd == nil {
		t.Error("Init returned nil command")
	}
	if len(model.state.GetNotifications()) != 1 {
		t.Error("Init should show a loading notification")
	}
}

func TestModel_Update_WindowSize(t *testing.T) {
	model := NewModel(nil, models.WindowDaily)

	newModel, _ := model.Update(tea.WindowSizeMsg{Width: 100, Height: 50})
	m, ok := newModel.(*Model)
	if !ok {
		t.Fatal("Update returned wrong model type")
	}

	if m.width != 100 || m.height != 50 {
		t.Errorf("size = %dx%d, want 100x50", m.width, m.height)
	}
	if !m.IsReady() {
		t.Error("Model should be ready after WindowSizeMsg")
	}
}

func TestModel_Update_TabSwitch(t *testing.T) {
	model := readyModel(nil)

	model.Update(TabSwitchMsg{Tab: TabHistory})
	if model.GetActiveTab() != TabHistory {
		t.Errorf("ActiveTab = %v, want History", model.GetActiveTab())
	}

	cmd := model.handleKeyMsg(runeKey('2'))
	if cmd == nil {
		t.Fatal("Key '2' should return a command")
	}
	if msg, ok := cmd().(TabSwitchMsg); !ok || msg.Tab != TabModels {
		t.Errorf("Key '2' produced %#v", cmd())
	}

	model.activeTab = TabInfo
	msg := model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyTab})().(TabSwitchMsg)
	if msg.Tab != TabOverview {
		t.Errorf("next tab from Info = %v, want Overview", msg.Tab)
	}

	model.activeTab = TabOverview
	msg = model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyShiftTab})().(TabSwitchMsg)
	if msg.Tab != TabInfo {
		t.Errorf("prev tab from Overview = %v, want Info", msg.Tab)
	}

	model.Update(TabSwitchMsg{Tab: TabID(42)})
	if model.GetActiveTab() != TabOverview {
		t.Error("invalid tab should be ignored")
	}
}

func TestModel_CycleWindow(t *testing.T) {
	svc := newFakeServices()
	model := readyModel(svc)

	cmd := model.handleKeyMsg(runeKey('w'))
	if cmd == nil {
		t.Fatal("Key 'w' should return a command")
	}
	changed, ok := cmd().(WindowChangedMsg)
	if !ok || changed.Window != models.WindowWeekly {
		t.Fatalf("unexpected msg %#v", cmd())
	}
	if model.state.Window() != models.WindowWeekly {
		t.Errorf("Window = %s, want weekly", model.state.Window())
	}

	_, cmd = model.Update(changed)
	var loaded *StatsLoadedMsg
	for _, msg := range collectMsgs(cmd) {
		if m, ok := msg.(StatsLoadedMsg); ok {
			loaded = &m
		}
	}
	if loaded == nil || loaded.Window != models.WindowWeekly {
		t.Fatalf("window change should load weekly stats, got %+v", loaded)
	}

	model.Update(*loaded)
	if snap := model.state.Snapshot(); snap == nil || snap.Type != models.WindowWeekly {
		t.Errorf("snapshot not stored: %+v", snap)
	}
}

func TestModel_StatsLoaded(t *testing.T) {
	model := readyModel(nil)
	model.Init()

	snap := models.NewSnapshot(models.WindowDaily, "2024-03-10")
	model.Update(StatsLoadedMsg{Window: models.WindowDaily, Snapshot: snap})

	if model.state.Snapshot() != snap {
		t.Error("snapshot should be stored for the selected window")
	}
	if model.state.IsInitialLoading() {
		t.Error("initial loading should be cleared")
	}
	if len(model.state.GetNotifications()) != 0 {
		t.Error("loading notification should be cleared")
	}
	if model.state.GetLastUpdated().IsZero() {
		t.Error("LastUpdated should be set")
	}

	cmd := model.handleStatsLoaded(StatsLoadedMsg{Window: models.WindowDaily, Error: errors.New("db locked")})
	add, ok := cmd().(AddNotificationMsg)
	if !ok {
		t.Fatalf("Expected AddNotificationMsg, got %T", cmd())
	}
	if add.Type != NotificationError || add.Message != "Could not load statistics: db locked" {
		t.Errorf("unexpected notification: %+v", add)
	}
	if model.state.Snapshot() != snap {
		t.Error("failed load should keep the previous snapshot")
	}
}

func TestModel_Recalculate(t *testing.T) {
	svc := newFakeServices()
	model := readyModel(svc)

	cmd := model.handleKeyMsg(runeKey('R'))
	if cmd == nil {
		t.Fatal("Key 'R' should return a command")
	}
	if !model.state.IsRecalculating() {
		t.Error("state should be recalculating")
	}
	if again := model.handleKeyMsg(runeKey('R')); again != nil {
		t.Error("second 'R' while recalculating should be ignored")
	}

	done, ok := cmd().(RecalculatedMsg)
	if !ok {
		t.Fatalf("Expected RecalculatedMsg, got %T", cmd())
	}
	if svc.recalcs != 1 {
		t.Errorf("recalcs = %d, want 1", svc.recalcs)
	}

	cmds := model.handleRecalculated(done)
	if model.state.IsRecalculating() {
		t.Error("recalculating flag should be cleared")
	}
	add := cmds[0]().(AddNotificationMsg)
	if add.Type != NotificationSuccess || !strings.HasPrefix(add.Message, "Statistics recalculated in") {
		t.Errorf("unexpected notification: %+v", add)
	}

	cmds = model.handleRecalculated(RecalculatedMsg{Error: errors.New("busy")})
	if len(cmds) != 1 {
		t.Fatalf("failure should only notify, got %d cmds", len(cmds))
	}
	if add := cmds[0]().(AddNotificationMsg); add.Message != "Recalculation failed: busy" {
		t.Errorf("unexpected message %q", add.Message)
	}
}

func TestModel_RecalculateWithoutServices(t *testing.T) {
	model := readyModel(nil)
	if cmd := model.handleKeyMsg(runeKey('R')); cmd != nil {
		t.Error("recalculate without services should be a no-op")
	}
}

func TestModel_Tick(t *testing.T) {
	svc := newFakeServices()
	model := readyModel(svc)

	_, cmd := model.Update(TickMsg{Time: time.Now()})
	if cmd == nil {
		t.Error("TickMsg should return commands")
	}
	if !model.state.Loading.Stats {
		t.Error("tick should start a stats reload")
	}
}

func TestModel_HandleServiceEvent(t *testing.T) {
	svc := newFakeServices()
	model := readyModel(svc)

	tests := []struct {
		name      string
		event     services.ServiceEvent
		wantNote  string
		wantLoads bool
	}{
		{"updated", services.StatsUpdatedEvent{TopicID: "t1", Messages: 2}, "", true},
		{"partial", services.StatsUpdatedEvent{TopicID: "t1", Failed: []models.WindowType{models.WindowWeekly}},
			"Some windows were not updated for t1", true},
		{"rotated", services.WindowRotatedEvent{Window: models.WindowDaily,
			Archived: models.NewSnapshot(models.WindowDaily, "2024-03-09")},
			"Archived Today statistics for 2024-03-09", true},
		{"recalculated", services.RecalculatedEvent{}, "", true},
		{"error", services.ErrorEvent{Service: "watcher", Error: errors.New("boom")}, "[watcher] boom", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var note string
			loads := false
			for _, msg := range collectMsgs(model.handleServiceEvent(tt.event)) {
				switch m := msg.(type) {
				case AddNotificationMsg:
					note = m.Message
				case StatsLoadedMsg:
					loads = true
				}
			}
			if note != tt.wantNote {
				t.Errorf("notification = %q, want %q", note, tt.wantNote)
			}
			if loads != tt.wantLoads {
				t.Errorf("reload = %v, want %v", loads, tt.wantLoads)
			}
		})
	}
}

func TestModel_ServiceEventMsgRearms(t *testing.T) {
	svc := newFakeServices()
	model := readyModel(svc)

	model.Update(SubscriptionEventMsg{Channel: svc.events})
	if model.eventChannel == nil {
		t.Fatal("event channel should be stored")
	}

	_, cmd := model.Update(ServiceEventMsg{Event: services.ErrorEvent{Service: "x", Error: errors.New("y")}})
	if cmd == nil {
		t.Error("service event should return commands")
	}
}

func TestModel_Notifications(t *testing.T) {
	model := readyModel(nil)

	_, cmd := model.Update(AddNotificationMsg{Type: NotificationSuccess, Message: "saved", Duration: time.Second})
	if cmd == nil {
		t.Error("timed notification should schedule removal")
	}
	notes := model.state.GetNotifications()
	if len(notes) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notes))
	}
	if !strings.Contains(model.View(), "[OK] saved") {
		t.Error("View should render the toast")
	}

	model.Update(RemoveNotificationMsg{ID: notes[0].ID})
	if len(model.state.GetNotifications()) != 0 {
		t.Error("notification should be removed")
	}
}

func TestModel_View(t *testing.T) {
	model := NewModel(nil, models.WindowDaily)
	if !strings.Contains(model.View(), "Loading...") {
		t.Error("View should show Loading... before ready")
	}

	model = readyModel(nil)
	view := model.View()
	for i := TabID(0); i < tabCount; i++ {
		if !strings.Contains(view, i.String()) {
			t.Errorf("View should contain tab name %q", i)
		}
	}
	if !strings.Contains(view, "not yet implemented") {
		t.Error("View should show placeholder for missing tab")
	}
	if !strings.Contains(view, "Today") || !strings.Contains(view, "never updated") {
		t.Error("status bar should show the window and update time")
	}
}

func TestModel_Help(t *testing.T) {
	model := readyModel(nil)

	model.Update(runeKey('?'))
	if !model.showHelp {
		t.Fatal("'?' should open help")
	}
	if !strings.Contains(model.View(), "Keyboard Shortcuts") {
		t.Error("View should contain help text")
	}

	model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if model.showHelp {
		t.Error("esc should close help")
	}

	model.Update(ToggleHelpMsg{})
	if !model.showHelp {
		t.Error("ToggleHelpMsg should open help")
	}
}

func TestModel_Quit(t *testing.T) {
	model := readyModel(nil)
	cmd := model.handleKeyMsg(runeKey('q'))
	if cmd == nil {
		t.Fatal("'q' should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("Expected QuitMsg, got %T", cmd())
	}
}

func TestModel_Spinner(t *testing.T) {
	model := readyModel(nil)
	_, cmd := model.Update(spinner.TickMsg{})
	if cmd == nil {
		t.Error("spinner tick should be rescheduled")
	}
}

func TestTabID_String(t *testing.T) {
	tests := []struct {
		tab  TabID
		want string
	}{
		{TabOverview, "Overview"},
		{TabModels, "Models"},
		{TabActivity, "Activity"},
		{TabContent, "Content"},
		{TabResources, "Resources"},
		{TabHistory, "History"},
		{TabInfo, "Info"},
		{TabID(99), "Unknown"},
		{TabID(-1), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.tab.String(); got != tt.want {
			t.Errorf("TabID(%d).String() = %q, want %q", tt.tab, got, tt.want)
		}
	}
}

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()
	if len(km.Tabs) != int(tabCount) {
		t.Errorf("Tabs = %d bindings, want %d", len(km.Tabs), tabCount)
	}
	if len(km.ShortHelp()) == 0 {
		t.Error("ShortHelp should not be empty")
	}
	if len(km.FullHelp()) == 0 {
		t.Error("FullHelp should not be empty")
	}
}

func TestDefaultStyles(t *testing.T) {
	s := DefaultStyles()
	if s.ActiveTab.Render("x") == "" {
		t.Error("ActiveTab style should render")
	}
}
