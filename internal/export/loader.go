package export

import (
	"sync"

	appLog "github.com/jinyuanZhou-Leo/Semestra-sub001/internal/log"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/model"
)

// Loader guards an occurrence snapshot against stale asynchronous loads.
// Every load operation takes a monotonically increasing token via Begin; a
// completed load only commits its result when its token still matches the
// latest issued one. Superseded loads are silently discarded, never treated
// as errors.
type Loader struct {
	mu       sync.Mutex
	latest   uint64
	snapshot []model.ScheduleOccurrence
	loaded   bool
}

// Begin issues a token for a new load, superseding all earlier ones.
func (l *Loader) Begin() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.latest++
	return l.latest
}

// Commit installs occs as the current snapshot if token is still the
// latest. It reports whether the commit took effect.
func (l *Loader) Commit(token uint64, occs []model.ScheduleOccurrence) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if token != l.latest {
		appLog.Debug("loader: stale load discarded", "token", token, "latest", l.latest)
		return false
	}
	l.snapshot = occs
	l.loaded = true
	return true
}

// Invalidate drops the snapshot and supersedes in-flight loads, forcing the
// next Snapshot call to miss.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.latest++
	l.snapshot = nil
	l.loaded = false
}

// Snapshot returns the committed snapshot, if any.
func (l *Loader) Snapshot() ([]model.ScheduleOccurrence, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot, l.loaded
}
