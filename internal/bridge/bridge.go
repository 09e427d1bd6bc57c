package bridge

import (
	"errors"
	"sync"
	"time"

	"binocular/internal/infrastructure/logging"
	"binocular/internal/platform"
	"binocular/internal/switcher"

	"github.com/bep/debounce"
)

// Refresher is the registry surface the bridge drives
type Refresher interface {
	Refresh() error
	Snapshot() switcher.Snapshot
}

// Publisher forwards a fresh snapshot to whoever renders it
type Publisher interface {
	Publish(snapshot switcher.Snapshot)
}

// PublisherFunc adapts a function to Publisher
type PublisherFunc func(snapshot switcher.Snapshot)

func (f PublisherFunc) Publish(snapshot switcher.Snapshot) { f(snapshot) }

// Options tunes the bridge
type Options struct {
	// Debounce coalesces a burst of notifications into one refresh run once
	// the burst has been quiet this long. Zero refreshes on every event.
	Debounce time.Duration
}

// Bridge turns window created/destroyed notifications into a registry
// refresh followed by a publish. Notifications may arrive on any thread.
type Bridge struct {
	registry  Refresher
	publisher Publisher
	logger    logging.Logger
	debounced func(func())

	mu      sync.Mutex
	source  platform.EventSource
	stopped bool
}

// New creates a bridge; it does nothing until Start or Notify is called
func New(registry Refresher, publisher Publisher, logger logging.Logger, opts Options) *Bridge {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	b := &Bridge{
		registry:  registry,
		publisher: publisher,
		logger:    logger,
	}
	if opts.Debounce > 0 {
		b.debounced = debounce.New(opts.Debounce)
	}
	return b
}

// Notify handles one event. Only window lifecycle events trigger a refresh.
func (b *Bridge) Notify(kind platform.EventKind) {
	switch kind {
	case platform.EventWindowCreated, platform.EventWindowDestroyed:
	default:
		return
	}

	b.logger.Debug("Window change notification", "event", kind.String())
	if b.debounced != nil {
		b.debounced(b.refreshAndPublish)
		return
	}
	b.refreshAndPublish()
}

func (b *Bridge) refreshAndPublish() {
	b.mu.Lock()
	stopped := b.stopped
	b.mu.Unlock()
	if stopped {
		return
	}

	if err := b.registry.Refresh(); err != nil {
		// The registry already logged the failure with its context.
		b.logger.Warn("Skipping publish after failed refresh", "error", err.Error())
		return
	}
	b.publisher.Publish(b.registry.Snapshot())
}

// Start subscribes to source. Lifecycle events drive the bridge; every
// other kind is handed to others, which may be nil.
func (b *Bridge) Start(source platform.EventSource, others func(platform.EventKind)) error {
	b.mu.Lock()
	if b.source != nil {
		b.mu.Unlock()
		return errors.New("bridge already started")
	}
	b.source = source
	b.stopped = false
	b.mu.Unlock()

	err := source.Start(func(kind platform.EventKind) {
		switch kind {
		case platform.EventWindowCreated, platform.EventWindowDestroyed:
			b.Notify(kind)
		default:
			if others != nil {
				others(kind)
			}
		}
	})
	if err != nil {
		b.mu.Lock()
		b.source = nil
		b.mu.Unlock()
		return err
	}

	b.logger.Info("Listening for window changes")
	return nil
}

// Stop closes the event source. A debounced refresh still pending is
// dropped.
func (b *Bridge) Stop() error {
	b.mu.Lock()
	source := b.source
	b.source = nil
	b.stopped = true
	b.mu.Unlock()

	if source == nil {
		return nil
	}
	return source.Close()
}
