package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/chatstats-tui/internal/app"
	"github.com/j-veylop/chatstats-tui/internal/ui/tabs/history"
	"github.com/j-veylop/chatstats-tui/internal/ui/tabs/info"
	"github.com/j-veylop/chatstats-tui/internal/ui/tabs/stats"
)

func newTUICmd(a *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the statistics dashboard (default)",
		Long: `Open the statistics dashboard.

Keys:
  1-7             Switch tabs
  Tab/Shift+Tab   Next/previous tab
  w               Cycle window (daily, weekly, monthly, all time)
  r               Re-read statistics
  R               Recalculate from all topics
  ?               Toggle help
  q, Ctrl+C       Quit`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationTUI: annotationTrue},
		RunE:        a.runTUI,
	}
}

func (a *appContext) runTUI(cmd *cobra.Command, _ []string) error {
	mgr, err := a.manager()
	if err != nil {
		return err
	}
	defer closeManager(mgr)

	if err := mgr.Watch(cmd.Context()); err != nil {
		return fmt.Errorf("failed to watch topics: %w", err)
	}

	model := app.NewModel(mgr, a.cfg.DefaultWindow)
	model.SetRefreshInterval(a.cfg.RefreshInterval)

	state := model.GetState()
	model.SetTabs([]app.Tab{
		stats.New(state, stats.Overview),
		stats.New(state, stats.Models),
		stats.New(state, stats.Activity),
		stats.New(state, stats.Content),
		stats.New(state, stats.Resources),
		history.New(state, mgr),
		info.New(state, a.cfg),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
