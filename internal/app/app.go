package app

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"binocular/internal/bridge"
	"binocular/internal/config"
	"binocular/internal/infrastructure/errors"
	"binocular/internal/infrastructure/logging"
	"binocular/internal/platform"
	"binocular/internal/switcher"
	"binocular/internal/types"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

const (
	// AppName is used for the autostart entry and the window title
	AppName = "Binocular"

	// WindowsUpdatedEvent carries the full window list to the panel
	WindowsUpdatedEvent = "windows-updated"
)

// Shell is the part of the Wails runtime the app drives
type Shell interface {
	Emit(ctx context.Context, event string, data ...interface{})
	Show(ctx context.Context)
	Hide(ctx context.Context)
}

type wailsShell struct{}

func (wailsShell) Emit(ctx context.Context, event string, data ...interface{}) {
	runtime.EventsEmit(ctx, event, data...)
}

func (wailsShell) Show(ctx context.Context) {
	runtime.WindowShow(ctx)
	runtime.WindowUnminimise(ctx)
}

func (wailsShell) Hide(ctx context.Context) {
	runtime.WindowHide(ctx)
}

// Options wires the app's collaborators. Nil fields get the platform
// defaults.
type Options struct {
	Config *config.Config
	Loader *config.Loader
	Logger logging.Logger
	System platform.WindowSystem
	Events platform.EventSource
	Shell  Shell

	// Autostart owns the start-at-login entry for this executable
	Autostart *platform.Autostart
}

// App is the command surface bound to the panel
type App struct {
	ctx       context.Context
	sys       platform.WindowSystem
	registry  *switcher.Registry
	bridge    *bridge.Bridge
	events    platform.EventSource
	shell     Shell
	autostart *platform.Autostart
	loader    *config.Loader
	logger    logging.Logger

	mu         sync.Mutex
	config     *config.Config
	thumbnails map[string]*switcher.Thumbnail
}

// NewApp creates the app with its registry and notification bridge
func NewApp(opts Options) *App {
	cfg := opts.Config
	if cfg == nil && opts.Loader != nil {
		cfg = opts.Loader.Config()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	sys := opts.System
	if sys == nil {
		sys = platform.NewWindowSystem()
	}

	events := opts.Events
	if events == nil {
		events = platform.NewShellHook(hotkeySpec(cfg, logger))
	}

	shell := opts.Shell
	if shell == nil {
		shell = wailsShell{}
	}

	autostart := opts.Autostart
	if autostart == nil {
		autostart = platform.NewAutostart(platform.NewRunKey(), AppName)
	}

	a := &App{
		registry: switcher.NewRegistry(sys,
			switcher.WithLogger(componentLogger(logger, "registry")),
			switcher.WithIconSize(cfg.Icon.Size)),
		sys:        sys,
		events:     events,
		shell:      shell,
		autostart:  autostart,
		loader:     opts.Loader,
		logger:     logger,
		config:     cfg,
		thumbnails: make(map[string]*switcher.Thumbnail),
	}
	a.bridge = bridge.New(a.registry, a, componentLogger(logger, "bridge"),
		bridge.Options{Debounce: cfg.Bridge.Debounce})
	return a
}

func componentLogger(logger logging.Logger, component string) logging.Logger {
	if l, ok := logger.(interface {
		WithComponent(string) logging.Logger
	}); ok {
		return l.WithComponent(component)
	}
	return logger
}

func hotkeySpec(cfg *config.Config, logger logging.Logger) *platform.HotkeySpec {
	if !cfg.Hotkey.Enabled {
		return nil
	}
	spec, err := cfg.Hotkey.Spec()
	if err != nil {
		logger.Warn("Hotkey disabled", "hotkey", cfg.Hotkey.String(), "error", err.Error())
		return nil
	}
	return &spec
}

// Startup is called at application startup
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
	errors.SetDefaultRetryLogger(a.logger)

	cfg := a.currentConfig()
	a.applyAutostart(cfg)

	if err := a.registry.Refresh(); err != nil {
		a.logger.Warn("Initial window refresh failed, waiting for the next trigger", "error", err.Error())
	}

	if err := a.bridge.Start(a.events, a.handleEvent); err != nil {
		logging.LogError(a.logger, err, "start change notifications", nil)
	} else if hk, ok := a.events.(interface{ HotkeyErr() error }); ok {
		if err := hk.HotkeyErr(); err != nil {
			a.logger.Warn("Hotkey unavailable", "hotkey", cfg.Hotkey.String(), "error", err.Error())
		}
	}

	if a.loader != nil {
		a.loader.Watch(a.applyConfig)
	}

	a.logger.Info("Application started", "environment", cfg.Environment, "own_pid", a.registry.OwnPID())
}

// applyAutostart keeps the Run key in line with config, pointing it at the
// running executable. Development and test runs never touch it.
func (a *App) applyAutostart(cfg *config.Config) {
	if cfg.IsDevelopment() || cfg.IsTest() {
		return
	}

	var target string
	if cfg.Autostart {
		exe, err := executable()
		if err != nil {
			a.logger.Warn("Autostart update failed", "enabled", true, "error", err.Error())
			return
		}
		target = exe
	}

	if err := a.autostart.Apply(cfg.Autostart, target); err != nil {
		a.logger.Warn("Autostart update failed", "enabled", cfg.Autostart, "error", err.Error())
	}
}

var executable = os.Executable

// applyConfig takes the settings that can change while running
func (a *App) applyConfig(cfg *config.Config) {
	logging.SetLevel(cfg.Log.Level)

	a.mu.Lock()
	previous := a.config
	a.config = cfg
	a.mu.Unlock()

	if previous.Autostart != cfg.Autostart {
		a.applyAutostart(cfg)
	}

	a.logger.Info("Config applied", "log_level", cfg.Log.Level, "refresh_retry", cfg.Refresh.Retry)
}

func (a *App) currentConfig() *config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.config
}

// DomReady sends the panel the list it should render first
func (a *App) DomReady(ctx context.Context) {
	a.Publish(a.registry.Snapshot())
}

// BeforeClose is called when the application is about to quit
func (a *App) BeforeClose(ctx context.Context) (prevent bool) {
	return false
}

// Shutdown stops change notifications and releases every live thumbnail
func (a *App) Shutdown(ctx context.Context) {
	if err := a.bridge.Stop(); err != nil {
		a.logger.Warn("Stopping change notifications failed", "error", err.Error())
	}

	a.mu.Lock()
	thumbnails := a.thumbnails
	a.thumbnails = make(map[string]*switcher.Thumbnail)
	a.mu.Unlock()

	for id, thumb := range thumbnails {
		if err := thumb.Release(); err != nil {
			a.logger.Warn("Thumbnail release failed", "id", id, "error", err.Error())
		}
	}

	a.logger.Info("Application shutdown completed", "released_thumbnails", len(thumbnails))
}

// Publish forwards a snapshot to the panel
func (a *App) Publish(snapshot switcher.Snapshot) {
	if a.ctx == nil {
		return
	}
	a.shell.Emit(a.ctx, WindowsUpdatedEvent, snapshot.Windows)
}

func (a *App) handleEvent(kind platform.EventKind) {
	if kind == platform.EventHotkey {
		a.TogglePanel()
	}
}

// TogglePanel hides the panel when shown; otherwise refreshes the list,
// publishes it and then shows the panel
func (a *App) TogglePanel() {
	if a.panelVisible() {
		a.HideWindow()
		return
	}
	a.ShowPanel()
}

// panelVisible asks the OS whether any window of this process is showing.
// The shell can hide the panel on its own (close button, Alt+F4), so no
// flag kept here would stay accurate.
func (a *App) panelVisible() bool {
	own := a.registry.OwnPID()
	for h, err := range a.sys.Walk() {
		if err != nil {
			a.logger.Debug("Panel visibility walk failed", "error", err.Error())
			return false
		}
		if pid, err := a.sys.ProcessID(h); err == nil && pid == own && a.sys.IsVisible(h) {
			return true
		}
	}
	return false
}

// ShowPanel refreshes, publishes and shows. A failed refresh still shows
// the last good list.
func (a *App) ShowPanel() {
	if err := a.refresh(); err != nil {
		a.logger.Warn("Refresh before show failed, showing last snapshot", "error", err.Error())
	}
	a.Publish(a.registry.Snapshot())

	if a.ctx != nil {
		a.shell.Show(a.ctx)
	}
}

func (a *App) refresh() error {
	if !a.currentConfig().Refresh.Retry {
		return a.registry.Refresh()
	}
	ctx := a.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return errors.RetryQuick(ctx, a.registry.Refresh)
}

// ListWindows returns the current window list without refreshing it
func (a *App) ListWindows() []types.WindowRecord {
	return a.registry.Snapshot().Windows
}

// SearchWindows returns the current windows fuzzily matching query
func (a *App) SearchWindows(query string) []types.WindowRecord {
	return a.registry.Search(query)
}

// Refresh walks the window table now and publishes the result
func (a *App) Refresh() ([]types.WindowRecord, error) {
	start := time.Now()
	if err := a.refresh(); err != nil {
		return a.registry.Snapshot().Windows, err
	}
	snapshot := a.registry.Snapshot()
	a.Publish(snapshot)
	logging.LogOperation(a.logger, "refresh_command", time.Since(start), map[string]interface{}{
		"windows": len(snapshot.Windows),
	})
	return snapshot.Windows, nil
}

// FocusWindow hides the panel and then brings handle to the foreground.
// The panel goes first so it does not hold focus over the target.
func (a *App) FocusWindow(handle uint64) error {
	a.HideWindow()
	return a.registry.Focus(platform.Handle(handle))
}

// CloseWindow asks handle to close and does not wait for it
func (a *App) CloseWindow(handle uint64) {
	a.registry.Close(platform.Handle(handle))
}

// HideWindow hides the panel
func (a *App) HideWindow() {
	if a.ctx != nil {
		a.shell.Hide(a.ctx)
	}
}

// RegisterThumbnail starts a live preview of source inside destination.
// The returned id must be passed to UnregisterThumbnail; anything still
// registered at shutdown is released then.
func (a *App) RegisterThumbnail(source, destination uint64, width, height int32) (types.ThumbnailRegistration, error) {
	thumb, err := a.registry.Thumbnail(platform.Handle(source), platform.Handle(destination), width, height)
	if err != nil {
		logging.LogError(a.logger, err, "register thumbnail", nil)
		return types.ThumbnailRegistration{}, err
	}

	id := uuid.NewString()
	a.mu.Lock()
	a.thumbnails[id] = thumb
	a.mu.Unlock()

	return types.ThumbnailRegistration{
		ID:     id,
		Source: source,
		Width:  width,
		Height: height,
	}, nil
}

// UnregisterThumbnail releases a registration made by RegisterThumbnail
func (a *App) UnregisterThumbnail(id string) error {
	a.mu.Lock()
	thumb, ok := a.thumbnails[id]
	delete(a.thumbnails, id)
	a.mu.Unlock()

	if !ok {
		return errors.NewOperationErrorWithContext("unregister thumbnail",
			fmt.Errorf("unknown thumbnail id"),
			errors.ErrCodeThumbnail,
			map[string]string{"id": id})
	}
	return thumb.Release()
}

// GetLogger returns the application's structured logger
func (a *App) GetLogger() logging.Logger {
	return a.logger
}
