package statistics

import (
	"sync"

	"github.com/j-veylop/chatstats-tui/internal/models"
)

// windowLocks serializes read-modify-write cycles per live snapshot key.
type windowLocks struct {
	mu map[models.WindowType]*sync.Mutex
}

func newWindowLocks() *windowLocks {
	l := &windowLocks{mu: make(map[models.WindowType]*sync.Mutex, len(models.Windows))}
	for _, w := range models.Windows {
		l.mu[w] = &sync.Mutex{}
	}
	return l
}

func (l *windowLocks) lock(w models.WindowType) func() {
	m := l.mu[w]
	m.Lock()
	return m.Unlock
}

// lockAll acquires every window in a fixed order.
func (l *windowLocks) lockAll() func() {
	for _, w := range models.Windows {
		l.mu[w].Lock()
	}
	return func() {
		for i := len(models.Windows) - 1; i >= 0; i-- {
			l.mu[models.Windows[i]].Unlock()
		}
	}
}
