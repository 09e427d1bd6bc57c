package bridge

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"binocular/internal/infrastructure/logging"
	"binocular/internal/platform"
	"binocular/internal/switcher"
	"binocular/internal/types"
)

type mockRegistry struct {
	mu         sync.Mutex
	refreshes  int
	refreshErr error
}

func (m *mockRegistry) Refresh() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshes++
	return m.refreshErr
}

func (m *mockRegistry) Snapshot() switcher.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return switcher.Snapshot{
		Generation: uint64(m.refreshes),
		Windows:    []types.WindowRecord{{Handle: 1, Title: "Editor"}},
	}
}

func (m *mockRegistry) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshes
}

type mockPublisher struct {
	mu        sync.Mutex
	published []switcher.Snapshot
}

func (m *mockPublisher) Publish(s switcher.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, s)
}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}

type mockSource struct {
	handler  func(platform.EventKind)
	startErr error
	closed   int
}

func (m *mockSource) Start(handler func(platform.EventKind)) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.handler = handler
	return nil
}

func (m *mockSource) Close() error {
	m.closed++
	return nil
}

func quietLogger() logging.Logger {
	return logging.NewLogger(io.Discard, false)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBridge_NotifySynchronous(t *testing.T) {
	tests := []struct {
		name        string
		kind        platform.EventKind
		wantRefresh int
	}{
		{"created", platform.EventWindowCreated, 1},
		{"destroyed", platform.EventWindowDestroyed, 1},
		{"hotkey ignored", platform.EventHotkey, 0},
		{"unknown ignored", platform.EventKind(42), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := &mockRegistry{}
			publisher := &mockPublisher{}
			b := New(registry, publisher, quietLogger(), Options{})

			b.Notify(tt.kind)

			if registry.count() != tt.wantRefresh {
				t.Errorf("Expected %d refreshes, got %d", tt.wantRefresh, registry.count())
			}
			if publisher.count() != tt.wantRefresh {
				t.Errorf("Expected %d publishes, got %d", tt.wantRefresh, publisher.count())
			}
		})
	}
}

func TestBridge_RefreshFailureSkipsPublish(t *testing.T) {
	registry := &mockRegistry{refreshErr: errors.New("enumeration refused")}
	publisher := &mockPublisher{}
	b := New(registry, publisher, quietLogger(), Options{})

	b.Notify(platform.EventWindowCreated)

	if registry.count() != 1 {
		t.Errorf("Expected 1 refresh, got %d", registry.count())
	}
	if publisher.count() != 0 {
		t.Errorf("Expected no publish after failure, got %d", publisher.count())
	}
}

func TestBridge_DebounceCoalescesBurst(t *testing.T) {
	registry := &mockRegistry{}
	publisher := &mockPublisher{}
	b := New(registry, publisher, quietLogger(), Options{Debounce: 20 * time.Millisecond})

	for i := 0; i < 10; i++ {
		b.Notify(platform.EventWindowCreated)
	}

	waitFor(t, func() bool { return publisher.count() == 1 })
	time.Sleep(60 * time.Millisecond)
	if registry.count() != 1 {
		t.Errorf("Expected a single refresh for the burst, got %d", registry.count())
	}
}

func TestBridge_StartRoutesEvents(t *testing.T) {
	registry := &mockRegistry{}
	publisher := &mockPublisher{}
	source := &mockSource{}
	b := New(registry, publisher, quietLogger(), Options{})

	var others []platform.EventKind
	if err := b.Start(source, func(k platform.EventKind) { others = append(others, k) }); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	source.handler(platform.EventWindowDestroyed)
	source.handler(platform.EventHotkey)

	if registry.count() != 1 {
		t.Errorf("Expected 1 refresh, got %d", registry.count())
	}
	if len(others) != 1 || others[0] != platform.EventHotkey {
		t.Errorf("Expected hotkey to be forwarded, got %v", others)
	}

	if err := b.Start(source, nil); err == nil {
		t.Error("Expected second Start to fail")
	}
}

func TestBridge_StartFailure(t *testing.T) {
	source := &mockSource{startErr: errors.New("shell hook unavailable")}
	b := New(&mockRegistry{}, &mockPublisher{}, quietLogger(), Options{})

	if err := b.Start(source, nil); err == nil {
		t.Fatal("Expected Start to fail")
	}
	// A failed start leaves the bridge startable again.
	source.startErr = nil
	if err := b.Start(source, nil); err != nil {
		t.Fatalf("Start() after failure error = %v", err)
	}
}

func TestBridge_Stop(t *testing.T) {
	registry := &mockRegistry{}
	publisher := &mockPublisher{}
	source := &mockSource{}
	b := New(registry, publisher, quietLogger(), Options{})

	if err := b.Start(source, nil); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := b.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := b.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
	if source.closed != 1 {
		t.Errorf("Expected source closed once, got %d", source.closed)
	}

	b.Notify(platform.EventWindowCreated)
	if registry.count() != 0 {
		t.Errorf("Expected no refresh after Stop, got %d", registry.count())
	}
}

func TestPublisherFunc(t *testing.T) {
	var got uint64
	PublisherFunc(func(s switcher.Snapshot) { got = s.Generation }).Publish(switcher.Snapshot{Generation: 7})
	if got != 7 {
		t.Errorf("Expected generation 7, got %d", got)
	}
}
