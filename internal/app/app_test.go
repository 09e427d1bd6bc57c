package app

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"binocular/internal/config"
	winerrors "binocular/internal/infrastructure/errors"
	"binocular/internal/infrastructure/logging"
	"binocular/internal/platform"
	"binocular/internal/testutils"
	"binocular/internal/types"
)

const ownPID = 4242

type shellCall struct {
	kind    string
	event   string
	windows []types.WindowRecord
}

type mockShell struct {
	mu    sync.Mutex
	calls []shellCall

	onShow func()
	onHide func()
}

func (m *mockShell) Emit(ctx context.Context, event string, data ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	call := shellCall{kind: "emit", event: event}
	if len(data) == 1 {
		call.windows, _ = data[0].([]types.WindowRecord)
	}
	m.calls = append(m.calls, call)
}

func (m *mockShell) Show(ctx context.Context) {
	m.mu.Lock()
	m.calls = append(m.calls, shellCall{kind: "show"})
	m.mu.Unlock()
	if m.onShow != nil {
		m.onShow()
	}
}

func (m *mockShell) Hide(ctx context.Context) {
	m.mu.Lock()
	m.calls = append(m.calls, shellCall{kind: "hide"})
	m.mu.Unlock()
	if m.onHide != nil {
		m.onHide()
	}
}

func (m *mockShell) kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kinds []string
	for _, c := range m.calls {
		kinds = append(kinds, c.kind)
	}
	return kinds
}

func (m *mockShell) lastEmit() (shellCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.calls) - 1; i >= 0; i-- {
		if m.calls[i].kind == "emit" {
			return m.calls[i], true
		}
	}
	return shellCall{}, false
}

type mockEvents struct {
	handler   func(platform.EventKind)
	startErr  error
	hotkeyErr error
	closed    int
}

func (m *mockEvents) Start(handler func(platform.EventKind)) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.handler = handler
	return nil
}

func (m *mockEvents) Close() error {
	m.closed++
	return nil
}

func (m *mockEvents) HotkeyErr() error { return m.hotkeyErr }

type fixture struct {
	app    *App
	sys    *testutils.FakeWindowSystem
	shell  *mockShell
	events *mockEvents
	runKey *testutils.FakeRunKey
}

func newFixture(t *testing.T, windows ...testutils.FakeWindow) *fixture {
	t.Helper()
	return newFixtureWithConfig(t, config.TestConfig(), windows...)
}

func newFixtureWithConfig(t *testing.T, cfg *config.Config, windows ...testutils.FakeWindow) *fixture {
	t.Helper()
	sys := testutils.NewFakeWindowSystem(ownPID, windows...)
	shell := &mockShell{}
	events := &mockEvents{}
	runKey := testutils.NewFakeRunKey()
	app := NewApp(Options{
		Config:    cfg,
		Logger:    logging.NewLogger(io.Discard, false),
		System:    sys,
		Events:    events,
		Shell:     shell,
		Autostart: platform.NewAutostart(runKey, AppName),
	})
	return &fixture{app: app, sys: sys, shell: shell, events: events, runKey: runKey}
}

// panelWindow is the app's own top-level window, hidden until shown
func panelWindow() testutils.FakeWindow {
	w := testutils.AppWindow(0x20, ownPID, "Binocular")
	w.Visible = false
	return w
}

// linkPanel makes the shell's show and hide act on the fake panel window
func (f *fixture) linkPanel() {
	f.shell.onShow = func() { f.sys.SetVisible(0x20, true) }
	f.shell.onHide = func() { f.sys.SetVisible(0x20, false) }
}

func equalKinds(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestApp_StartupLoadsInitialList(t *testing.T) {
	f := newFixture(t,
		testutils.AppWindow(0x10, 100, "Editor"),
		testutils.AppWindow(0x20, ownPID, "Binocular"))

	f.app.Startup(context.Background())
	defer f.app.Shutdown(context.Background())

	windows := f.app.ListWindows()
	if len(windows) != 1 || windows[0].Title != "Editor" {
		t.Fatalf("Expected only Editor after startup, got %+v", windows)
	}
	if f.events.handler == nil {
		t.Error("Expected the event source to be started")
	}
}

func TestApp_StartupSurvivesEventSourceFailure(t *testing.T) {
	f := newFixture(t, testutils.AppWindow(0x10, 100, "Editor"))
	f.events.startErr = errors.New("shell hook unavailable")

	f.app.Startup(context.Background())

	if got := len(f.app.ListWindows()); got != 1 {
		t.Errorf("Expected the initial list despite the failure, got %d windows", got)
	}
}

func TestApp_ListWindowsDoesNotRefresh(t *testing.T) {
	f := newFixture(t, testutils.AppWindow(0x10, 100, "Editor"))
	f.app.Startup(context.Background())
	walks := f.sys.Walks()

	f.sys.SetWindows(testutils.AppWindow(0x10, 100, "Editor"), testutils.AppWindow(0x11, 101, "Terminal"))
	if got := len(f.app.ListWindows()); got != 1 {
		t.Errorf("Expected the cached list of 1, got %d", got)
	}
	if f.sys.Walks() != walks {
		t.Error("Expected ListWindows to leave the window table alone")
	}

	windows, err := f.app.Refresh()
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if len(windows) != 2 {
		t.Errorf("Expected 2 windows after Refresh, got %d", len(windows))
	}
	emit, ok := f.shell.lastEmit()
	if !ok || emit.event != WindowsUpdatedEvent || len(emit.windows) != 2 {
		t.Errorf("Expected Refresh to publish 2 windows, got %+v", emit)
	}
}

func TestApp_RefreshFailureKeepsList(t *testing.T) {
	f := newFixture(t, testutils.AppWindow(0x10, 100, "Editor"))
	f.app.Startup(context.Background())

	f.sys.WalkErr = errors.New("enumeration refused")
	windows, err := f.app.Refresh()
	if err == nil {
		t.Fatal("Expected Refresh to fail")
	}
	if !winerrors.IsEnumeration(err) {
		t.Errorf("Expected enumeration error, got %v", err)
	}
	if len(windows) != 1 {
		t.Errorf("Expected the previous list to be returned, got %d", len(windows))
	}
}

func TestApp_SearchWindows(t *testing.T) {
	f := newFixture(t,
		testutils.AppWindow(0x10, 100, "main.go - Editor"),
		testutils.AppWindow(0x11, 101, "Terminal"))
	f.app.Startup(context.Background())

	got := f.app.SearchWindows("term")
	if len(got) != 1 || got[0].Handle != 0x11 {
		t.Errorf("Expected Terminal, got %+v", got)
	}
	if all := f.app.SearchWindows(""); len(all) != 2 {
		t.Errorf("Expected an empty query to return everything, got %d", len(all))
	}
}

func TestApp_FocusWindowHidesPanelFirst(t *testing.T) {
	f := newFixture(t, testutils.AppWindow(0x10, 100, "Editor"))
	f.app.Startup(context.Background())

	if err := f.app.FocusWindow(0x10); err != nil {
		t.Fatalf("FocusWindow() error = %v", err)
	}

	kinds := f.shell.kinds()
	if len(kinds) == 0 || kinds[len(kinds)-1] != "hide" {
		t.Errorf("Expected the panel to be hidden, got %v", kinds)
	}
	if calls := f.sys.ForegroundCalls(); len(calls) != 1 || calls[0] != 0x10 {
		t.Errorf("Expected foreground on 0x10, got %v", calls)
	}
}

func TestApp_FocusWindowUnknownHandle(t *testing.T) {
	f := newFixture(t, testutils.AppWindow(0x10, 100, "Editor"))
	f.app.Startup(context.Background())

	err := f.app.FocusWindow(0xdead)
	if err == nil {
		t.Fatal("Expected FocusWindow on a vanished window to fail")
	}
	if !winerrors.IsFocus(err) {
		t.Errorf("Expected focus error, got %v", err)
	}
}

func TestApp_CloseWindow(t *testing.T) {
	f := newFixture(t, testutils.AppWindow(0x10, 100, "Editor"))
	f.app.Startup(context.Background())

	f.app.CloseWindow(0x10)
	f.sys.CloseErr = errors.New("window already gone")
	f.app.CloseWindow(0x99)

	if calls := f.sys.CloseCalls(); len(calls) != 2 {
		t.Errorf("Expected 2 close requests, got %v", calls)
	}
}

func TestApp_HotkeyTogglesPanel(t *testing.T) {
	f := newFixture(t, testutils.AppWindow(0x10, 100, "Editor"), panelWindow())
	f.linkPanel()
	f.app.Startup(context.Background())
	f.sys.SetWindows(testutils.AppWindow(0x10, 100, "Editor"), testutils.AppWindow(0x11, 101, "Terminal"), panelWindow())

	f.events.handler(platform.EventHotkey)

	kinds := f.shell.kinds()
	if !equalKinds(kinds, []string{"emit", "show"}) {
		t.Fatalf("Expected refresh publish then show, got %v", kinds)
	}
	if emit, _ := f.shell.lastEmit(); len(emit.windows) != 2 {
		t.Errorf("Expected the freshly walked list, got %d windows", len(emit.windows))
	}

	f.events.handler(platform.EventHotkey)
	kinds = f.shell.kinds()
	if kinds[len(kinds)-1] != "hide" {
		t.Errorf("Expected second press to hide, got %v", kinds)
	}
}

func TestApp_HotkeyShowsPanelHiddenByShell(t *testing.T) {
	f := newFixture(t, testutils.AppWindow(0x10, 100, "Editor"), panelWindow())
	f.linkPanel()
	f.app.Startup(context.Background())

	f.events.handler(platform.EventHotkey)

	// Alt+F4 with HideWindowOnClose hides the panel without going through the app
	f.sys.SetVisible(0x20, false)

	f.events.handler(platform.EventHotkey)

	kinds := f.shell.kinds()
	if !equalKinds(kinds, []string{"emit", "show", "emit", "show"}) {
		t.Errorf("Expected the second press to show again, got %v", kinds)
	}
}

func TestApp_LifecycleEventsRefreshAndPublish(t *testing.T) {
	f := newFixture(t, testutils.AppWindow(0x10, 100, "Editor"))
	f.app.Startup(context.Background())

	f.sys.SetWindows()
	f.events.handler(platform.EventWindowDestroyed)

	emit, ok := f.shell.lastEmit()
	if !ok || len(emit.windows) != 0 {
		t.Errorf("Expected an empty list to be published, got %+v", emit)
	}
	if got := len(f.app.ListWindows()); got != 0 {
		t.Errorf("Expected the registry to be empty, got %d", got)
	}
}

func TestApp_DomReadyPublishesSnapshot(t *testing.T) {
	f := newFixture(t, testutils.AppWindow(0x10, 100, "Editor"))
	f.app.Startup(context.Background())

	f.app.DomReady(context.Background())

	emit, ok := f.shell.lastEmit()
	if !ok || len(emit.windows) != 1 {
		t.Errorf("Expected DomReady to publish 1 window, got %+v", emit)
	}
}

func TestApp_PublishBeforeStartupIsDropped(t *testing.T) {
	f := newFixture(t)
	f.app.DomReady(context.Background())
	f.app.HideWindow()

	if kinds := f.shell.kinds(); len(kinds) != 0 {
		t.Errorf("Expected no runtime calls before Startup, got %v", kinds)
	}
}

func TestApp_Thumbnails(t *testing.T) {
	f := newFixture(t, testutils.AppWindow(0x10, 100, "Editor"))
	f.app.Startup(context.Background())

	reg, err := f.app.RegisterThumbnail(0x10, 0x20, 200, 120)
	if err != nil {
		t.Fatalf("RegisterThumbnail() error = %v", err)
	}
	if reg.ID == "" || reg.Source != 0x10 || reg.Width != 200 || reg.Height != 120 {
		t.Errorf("Unexpected registration %+v", reg)
	}
	if f.sys.LiveThumbnails() != 1 {
		t.Fatalf("Expected 1 live thumbnail, got %d", f.sys.LiveThumbnails())
	}

	if err := f.app.UnregisterThumbnail(reg.ID); err != nil {
		t.Fatalf("UnregisterThumbnail() error = %v", err)
	}
	if f.sys.LiveThumbnails() != 0 {
		t.Errorf("Expected no live thumbnails, got %d", f.sys.LiveThumbnails())
	}

	err = f.app.UnregisterThumbnail(reg.ID)
	if err == nil || !winerrors.IsThumbnail(err) {
		t.Errorf("Expected thumbnail error for a released id, got %v", err)
	}
}

func TestApp_RegisterThumbnailInvalidSize(t *testing.T) {
	f := newFixture(t, testutils.AppWindow(0x10, 100, "Editor"))
	f.app.Startup(context.Background())

	if _, err := f.app.RegisterThumbnail(0x10, 0x20, 0, 120); err == nil {
		t.Fatal("Expected zero width to be rejected")
	}
	if f.sys.LiveThumbnails() != 0 {
		t.Errorf("Expected nothing registered, got %d", f.sys.LiveThumbnails())
	}
}

func TestApp_ShutdownReleasesThumbnails(t *testing.T) {
	f := newFixture(t, testutils.AppWindow(0x10, 100, "Editor"))
	f.app.Startup(context.Background())

	for i := 0; i < 3; i++ {
		if _, err := f.app.RegisterThumbnail(0x10, 0x20, 100, 100); err != nil {
			t.Fatalf("RegisterThumbnail() error = %v", err)
		}
	}

	f.app.Shutdown(context.Background())

	if f.sys.LiveThumbnails() != 0 {
		t.Errorf("Expected all thumbnails released, got %d", f.sys.LiveThumbnails())
	}
	if f.events.closed != 1 {
		t.Errorf("Expected the event source closed once, got %d", f.events.closed)
	}
}

func TestApp_Autostart(t *testing.T) {
	exe := filepath.Join(t.TempDir(), "binocular.exe")
	previous := executable
	executable = func() (string, error) { return exe, nil }
	defer func() { executable = previous }()
	defer logging.SetLevel("info")

	cfg := config.DefaultConfig()
	cfg.Autostart = true
	f := newFixtureWithConfig(t, cfg)

	f.app.Startup(context.Background())

	if got, ok := f.runKey.Value(AppName); !ok || got != `"`+exe+`"` {
		t.Fatalf("Expected the Run key to start %s, got %q (present=%v)", exe, got, ok)
	}

	disabled := config.DefaultConfig()
	f.app.applyConfig(disabled)

	if _, ok := f.runKey.Value(AppName); ok {
		t.Error("Expected the Run key entry removed once autostart is turned off")
	}
}

func TestApp_AutostartSkippedOutsideProduction(t *testing.T) {
	cfg := config.TestConfig()
	cfg.Autostart = true
	f := newFixtureWithConfig(t, cfg)

	f.app.Startup(context.Background())

	if _, ok := f.runKey.Value(AppName); ok {
		t.Error("Expected test runs to leave the Run key alone")
	}
}

func TestApp_ApplyConfig(t *testing.T) {
	f := newFixture(t)
	defer logging.SetLevel("info")

	cfg := config.TestConfig()
	cfg.Refresh.Retry = true
	f.app.applyConfig(cfg)

	if !f.app.currentConfig().Refresh.Retry {
		t.Error("Expected the new config to be in effect")
	}
}

func TestHotkeySpec(t *testing.T) {
	logger := logging.NewLogger(io.Discard, false)

	cfg := config.DefaultConfig()
	spec := hotkeySpec(cfg, logger)
	if spec == nil || spec.Key != 'M' {
		t.Errorf("Expected ctrl+M spec, got %+v", spec)
	}

	cfg.Hotkey.Enabled = false
	if hotkeySpec(cfg, logger) != nil {
		t.Error("Expected no spec for a disabled hotkey")
	}

	cfg.Hotkey.Enabled = true
	cfg.Hotkey.Modifiers = nil
	if hotkeySpec(cfg, logger) != nil {
		t.Error("Expected no spec for an unusable hotkey")
	}
}

func TestApp_StartupReportsHotkeyFailure(t *testing.T) {
	logger := &testutils.RecordingLogger{}
	events := &mockEvents{hotkeyErr: errors.New("hotkey already registered")}
	app := NewApp(Options{
		Config: config.TestConfig(),
		Logger: logger,
		System: testutils.NewFakeWindowSystem(ownPID),
		Events: events,
		Shell:  &mockShell{},
	})

	app.Startup(context.Background())

	entry, ok := logger.Find("warn", "Hotkey unavailable")
	if !ok {
		t.Fatalf("Expected a hotkey warning, got %+v", logger.Entries(""))
	}
	fields := testutils.FieldsToMap(t, entry.Fields)
	if fields["error"] != "hotkey already registered" {
		t.Errorf("Unexpected warning fields %v", fields)
	}
	if events.handler == nil {
		t.Error("Expected change notifications to run without the hotkey")
	}
}
