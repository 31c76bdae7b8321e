package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/chatstats-tui/internal/models"
	"github.com/j-veylop/chatstats-tui/internal/services"
)

type fakeServices struct {
	mu        sync.Mutex
	snapshots map[models.WindowType]*models.AggregateSnapshot
	err       error
	recalcErr error
	recalcs   int
	calls     []models.WindowType
	events    chan services.ServiceEvent
}

func newFakeServices() *fakeServices {
	f := &fakeServices{
		snapshots: make(map[models.WindowType]*models.AggregateSnapshot),
		events:    make(chan services.ServiceEvent, 4),
	}
	for _, w := range models.Windows {
		f.snapshots[w] = models.NewSnapshot(w, "2024-03-10")
	}
	return f
}

func (f *fakeServices) Statistics(_ context.Context, w models.WindowType) (*models.AggregateSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, w)
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshots[w], nil
}

func (f *fakeServices) StatsForRange(_ context.Context, start, end time.Time) (*models.AggregateSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	snap := models.NewSnapshot(models.WindowAllTime, start.Format("2006-01-02"))
	snap.ID = "custom_" + end.Format("2006-01-02")
	return snap, nil
}

func (f *fakeServices) History(_ context.Context, w models.WindowType, _ int) ([]*models.AggregateSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*models.AggregateSnapshot{models.NewSnapshot(w, "2024-03-09")}, nil
}

func (f *fakeServices) Recalculate(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recalcs++
	return f.recalcErr
}

func (f *fakeServices) Subscribe() (chan services.ServiceEvent, tea.Cmd) {
	return f.events, nil
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		op   string
		err  error
		want string
	}{
		{OpFetch, errors.New("disk full"), "Could not load statistics: disk full"},
		{OpRange, errors.New("bad range"), "Could not load statistics for the selected range: bad range"},
		{OpRecalculate, nil, "Recalculation failed"},
		{"other", errors.New("x"), "Something went wrong: x"},
		{OpFetch, fmt.Errorf("read: %w", context.DeadlineExceeded), "Could not load statistics: timed out"},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			if got := UserMessage(tt.op, tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTickCmd(t *testing.T) {
	if tickCmd(time.Millisecond) == nil {
		t.Error("tickCmd returned nil")
	}
	if tickCmd(0) == nil {
		t.Error("tickCmd with zero interval returned nil")
	}

	msg := tickCmd(time.Millisecond)()
	if _, ok := msg.(TickMsg); !ok {
		t.Errorf("Expected TickMsg, got %T", msg)
	}
}

func TestNotifyCommands(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) tea.Cmd
		want NotificationType
		dur  time.Duration
	}{
		{"Success", NotifySuccess, NotificationSuccess, DefaultNotificationDuration},
		{"Error", NotifyError, NotificationError, LongNotificationDuration},
		{"Info", NotifyInfo, NotificationInfo, QuickNotificationDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.fn("msg")()

			addMsg, ok := msg.(AddNotificationMsg)
			if !ok {
				t.Fatalf("Expected AddNotificationMsg, got %T", msg)
			}
			if addMsg.Type != tt.want {
				t.Errorf("Type = %v, want %v", addMsg.Type, tt.want)
			}
			if addMsg.Message != "msg" {
				t.Errorf("Message = %q, want msg", addMsg.Message)
			}
			if addMsg.Duration != tt.dur {
				t.Errorf("Duration = %v, want %v", addMsg.Duration, tt.dur)
			}
		})
	}
}

func TestClearNotificationCmd(t *testing.T) {
	msg := clearNotificationCmd("id-1", time.Millisecond)()
	rm, ok := msg.(RemoveNotificationMsg)
	if !ok {
		t.Fatalf("Expected RemoveNotificationMsg, got %T", msg)
	}
	if rm.ID != "id-1" {
		t.Errorf("ID = %q, want id-1", rm.ID)
	}
}

func TestLoadStatsCmd(t *testing.T) {
	svc := newFakeServices()

	msg := loadStatsCmd(svc, models.WindowWeekly)()
	loaded, ok := msg.(StatsLoadedMsg)
	if !ok {
		t.Fatalf("Expected StatsLoadedMsg, got %T", msg)
	}
	if loaded.Window != models.WindowWeekly || loaded.Error != nil {
		t.Errorf("unexpected msg: %+v", loaded)
	}
	if loaded.Snapshot == nil || loaded.Snapshot.Type != models.WindowWeekly {
		t.Errorf("unexpected snapshot: %+v", loaded.Snapshot)
	}

	svc.err = errors.New("boom")
	loaded = loadStatsCmd(svc, models.WindowDaily)().(StatsLoadedMsg)
	if loaded.Error == nil {
		t.Error("expected error to be carried")
	}
}

func TestRecalculateCmd(t *testing.T) {
	svc := newFakeServices()

	msg := recalculateCmd(svc)()
	done, ok := msg.(RecalculatedMsg)
	if !ok {
		t.Fatalf("Expected RecalculatedMsg, got %T", msg)
	}
	if done.Error != nil || svc.recalcs != 1 {
		t.Errorf("unexpected result: %+v, recalcs=%d", done, svc.recalcs)
	}

	svc.recalcErr = errors.New("locked")
	done = recalculateCmd(svc)().(RecalculatedMsg)
	if done.Error == nil || !strings.Contains(done.Error.Error(), "locked") {
		t.Errorf("expected recalculation error, got %v", done.Error)
	}
}

func TestServiceEventCommands(t *testing.T) {
	svc := newFakeServices()

	msg := subscribeToServicesCmd(svc)()
	sub, ok := msg.(SubscriptionEventMsg)
	if !ok || sub.Channel != svc.events {
		t.Fatalf("unexpected subscription msg: %#v", msg)
	}

	svc.events <- services.RecalculatedEvent{Duration: time.Second}
	msg = waitForServiceEventCmd(sub.Channel)()
	ev, ok := msg.(ServiceEventMsg)
	if !ok {
		t.Fatalf("Expected ServiceEventMsg, got %T", msg)
	}
	if _, ok := ev.Event.(services.RecalculatedEvent); !ok {
		t.Errorf("unexpected event %T", ev.Event)
	}

	close(svc.events)
	if msg := waitForServiceEventCmd(sub.Channel)(); msg != nil {
		t.Errorf("closed channel should yield nil, got %v", msg)
	}
}
