package switcher

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	winerrors "binocular/internal/infrastructure/errors"
	"binocular/internal/infrastructure/logging"
	"binocular/internal/platform"
	"binocular/internal/types"
)

// Snapshot is one complete result of a window walk. Windows is in walk order.
type Snapshot struct {
	Windows    []types.WindowRecord
	Generation uint64    // stamp taken when the producing walk started; 0 before the first refresh
	TakenAt    time.Time // when the producing walk finished
}

// List converts the snapshot into its wire payload
func (s Snapshot) List() types.WindowList {
	return types.WindowList{
		Generation: s.Generation,
		TakenAt:    s.TakenAt,
		Windows:    s.Windows,
	}
}

// Registry owns the current window snapshot. The snapshot lock is the only
// point of serialisation: walks run outside it and install their result
// in one step, so readers see a whole snapshot or the one before it.
type Registry struct {
	sys        platform.WindowSystem
	logger     logging.Logger
	classifier *Classifier
	processes  *ProcessResolver
	icons      *IconExtractor
	ownPID     uint32
	now        func() time.Time

	generation atomic.Uint64

	mu      sync.RWMutex
	current Snapshot
}

// Option configures a Registry
type Option func(*registryOptions)

type registryOptions struct {
	logger   logging.Logger
	iconSize int
	now      func() time.Time
}

// WithLogger sets the registry's logger
func WithLogger(logger logging.Logger) Option {
	return func(o *registryOptions) { o.logger = logger }
}

// WithIconSize sets the edge length icons are encoded at
func WithIconSize(size int) Option {
	return func(o *registryOptions) { o.iconSize = size }
}

// WithClock replaces time.Now for snapshot timestamps
func WithClock(now func() time.Time) Option {
	return func(o *registryOptions) { o.now = now }
}

// NewRegistry creates a registry with an empty snapshot. The enumerating
// process id is captured once here.
func NewRegistry(sys platform.WindowSystem, opts ...Option) *Registry {
	o := registryOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewDefaultLogger()
	}

	ownPID := sys.CurrentProcessID()
	return &Registry{
		sys:        sys,
		logger:     o.logger,
		classifier: NewClassifier(sys, ownPID),
		processes:  NewProcessResolver(sys, o.logger),
		icons:      NewIconExtractor(sys, o.logger, o.iconSize),
		ownPID:     ownPID,
		now:        o.now,
		current:    Snapshot{Windows: []types.WindowRecord{}},
	}
}

// OwnPID returns the process id the registry excludes
func (r *Registry) OwnPID() uint32 {
	return r.ownPID
}

// Refresh walks every top-level window, keeps the ones the classifier
// surfaces and enriches them with process name and icon. A walk failure
// returns an enumeration error and leaves the installed snapshot alone.
// When walks overlap, the one that started last wins: a result older than
// the installed snapshot is dropped.
func (r *Registry) Refresh() error {
	start := time.Now()
	gen := r.generation.Add(1)

	records := make([]types.WindowRecord, 0, r.Len())
	for candidate, err := range r.classifier.Filter(r.sys.Walk()) {
		if err != nil {
			opErr := winerrors.NewEnumerationError("refresh", err).
				WithContext("generation", strconv.FormatUint(gen, 10))
			logging.LogError(r.logger, opErr, "refresh", map[string]interface{}{
				"partial_windows": len(records),
			})
			return opErr
		}
		records = append(records, r.record(candidate))
	}

	installed := r.install(Snapshot{
		Windows:    records,
		Generation: gen,
		TakenAt:    r.now(),
	})

	logging.LogOperation(r.logger, "refresh", time.Since(start), map[string]interface{}{
		"windows":    len(records),
		"generation": gen,
		"installed":  installed,
	})
	return nil
}

// record builds a WindowRecord; enrichment failures leave fields nil
func (r *Registry) record(c Candidate) types.WindowRecord {
	return types.WindowRecord{
		Handle:      uint64(c.Handle),
		Title:       c.Title,
		ProcessID:   c.PID,
		ProcessName: r.processes.ResolveName(c.PID),
		Icon:        r.icons.Extract(c.Handle),
	}
}

func (r *Registry) install(s Snapshot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.Generation < r.current.Generation {
		r.logger.Debug("Discarding stale refresh result",
			"generation", s.Generation,
			"installed_generation", r.current.Generation)
		return false
	}
	r.current = s
	return true
}

// Snapshot returns a copy of the installed snapshot. It never refreshes.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	windows := make([]types.WindowRecord, len(r.current.Windows))
	for i, rec := range r.current.Windows {
		windows[i] = cloneRecord(rec)
	}
	return Snapshot{
		Windows:    windows,
		Generation: r.current.Generation,
		TakenAt:    r.current.TakenAt,
	}
}

// Len reports the size of the installed snapshot
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.current.Windows)
}

func cloneRecord(rec types.WindowRecord) types.WindowRecord {
	if rec.ProcessName != nil {
		name := *rec.ProcessName
		rec.ProcessName = &name
	}
	if rec.Icon != nil {
		icon := *rec.Icon
		rec.Icon = &icon
	}
	return rec
}

// Focus brings h to the foreground, restoring it first when minimised. A
// failed restore is logged and the foreground request is still made. The
// handle is not checked against the snapshot; a vanished window fails in
// the OS call and that failure is returned.
func (r *Registry) Focus(h platform.Handle) error {
	handle := fmt.Sprintf("0x%x", uintptr(h))

	if r.sys.IsMinimized(h) {
		if err := r.sys.Restore(h); err != nil {
			r.logger.Warn("Restore before focus failed",
				"handle", handle,
				"error", err.Error())
		}
	}

	if err := r.sys.SetForeground(h); err != nil {
		opErr := winerrors.NewFocusError("focus", uintptr(h), err)
		logging.LogError(r.logger, opErr, "focus", nil)
		return opErr
	}

	r.logger.Debug("Window focused", "handle", handle)
	return nil
}

// Close asks h to close and returns without waiting. The window may refuse
// or prompt; a failed request is only logged.
func (r *Registry) Close(h platform.Handle) {
	if err := r.sys.PostClose(h); err != nil {
		r.logger.Debug("Close request not delivered",
			"handle", fmt.Sprintf("0x%x", uintptr(h)),
			"cause", winerrors.ClassifyError(err).String(),
			"error", err.Error())
	}
}
