//go:build !windows

package platform

import (
	"errors"
	"fmt"
	"iter"
)

// UnsupportedAPI stands in on platforms without a window system backend.
// Every primitive fails with an error wrapping errors.ErrUnsupported.
type UnsupportedAPI struct{}

// NewWindowSystem creates the WindowSystem for this platform
func NewWindowSystem() WindowSystem {
	return &UnsupportedAPI{}
}

func unsupported(op string) error {
	return fmt.Errorf("%s: %w", op, errors.ErrUnsupported)
}

func (u *UnsupportedAPI) Walk() iter.Seq2[Handle, error] {
	return func(yield func(Handle, error) bool) {
		yield(0, unsupported("enumerate windows"))
	}
}

func (u *UnsupportedAPI) ProcessID(Handle) (uint32, error) {
	return 0, unsupported("process id")
}

func (u *UnsupportedAPI) IsVisible(Handle) bool   { return false }
func (u *UnsupportedAPI) IsMinimized(Handle) bool { return false }
func (u *UnsupportedAPI) Style(Handle) uint32     { return 0 }
func (u *UnsupportedAPI) ExStyle(Handle) uint32   { return 0 }

func (u *UnsupportedAPI) Title(Handle) (string, error) {
	return "", unsupported("window title")
}

func (u *UnsupportedAPI) Restore(Handle) error       { return unsupported("restore window") }
func (u *UnsupportedAPI) SetForeground(Handle) error { return unsupported("focus window") }
func (u *UnsupportedAPI) PostClose(Handle) error     { return unsupported("close window") }

func (u *UnsupportedAPI) IconHandle(Handle, IconQuery) uintptr { return 0 }

func (u *UnsupportedAPI) RenderIcon(uintptr, int) ([]byte, error) {
	return nil, unsupported("render icon")
}

func (u *UnsupportedAPI) ProcessImagePath(uint32) (string, error) {
	return "", unsupported("process image path")
}

func (u *UnsupportedAPI) RegisterThumbnail(Handle, Handle, int32, int32) (ThumbnailID, error) {
	return 0, unsupported("register thumbnail")
}

func (u *UnsupportedAPI) UnregisterThumbnail(ThumbnailID) error {
	return unsupported("unregister thumbnail")
}

func (u *UnsupportedAPI) CurrentProcessID() uint32 { return 0 }

// ShellHook has no backend here; Start always fails
type ShellHook struct {
	hotkey *HotkeySpec
}

func NewShellHook(hotkey *HotkeySpec) *ShellHook {
	return &ShellHook{hotkey: hotkey}
}

func (s *ShellHook) Start(func(EventKind)) error { return unsupported("shell hook") }
func (s *ShellHook) HotkeyErr() error             { return nil }
func (s *ShellHook) Close() error                 { return nil }

type unsupportedRunKey struct{}

// NewRunKey returns a Run key that refuses writes and reads as empty
func NewRunKey() RunKey { return unsupportedRunKey{} }

func (unsupportedRunKey) Set(string, string) error { return unsupported("autostart") }
func (unsupportedRunKey) Delete(string) error      { return unsupported("autostart") }

func (unsupportedRunKey) Get(string) (string, bool, error) { return "", false, nil }
