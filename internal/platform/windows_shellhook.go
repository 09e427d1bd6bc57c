//go:build windows

package platform

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32                      = windows.NewLazySystemDLL("kernel32.dll")
	procGetModuleHandleW          = kernel32.NewProc("GetModuleHandleW")
	procRegisterClassExW          = user32.NewProc("RegisterClassExW")
	procCreateWindowExW           = user32.NewProc("CreateWindowExW")
	procDestroyWindow             = user32.NewProc("DestroyWindow")
	procDefWindowProcW            = user32.NewProc("DefWindowProcW")
	procGetMessageW               = user32.NewProc("GetMessageW")
	procTranslateMessage          = user32.NewProc("TranslateMessage")
	procDispatchMessageW          = user32.NewProc("DispatchMessageW")
	procPostThreadMessageW        = user32.NewProc("PostThreadMessageW")
	procRegisterWindowMessageW    = user32.NewProc("RegisterWindowMessageW")
	procRegisterShellHookWindow   = user32.NewProc("RegisterShellHookWindow")
	procDeregisterShellHookWindow = user32.NewProc("DeregisterShellHookWindow")
	procRegisterHotKey            = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey          = user32.NewProc("UnregisterHotKey")
)

const (
	wmQuit   = 0x0012
	wmHotkey = 0x0312

	hshellWindowCreated   = 1
	hshellWindowDestroyed = 2

	hotkeyID = 1

	errorClassAlreadyExists = 1410

	shellHookClassName = "BinocularShellHook"
)

// HWND_MESSAGE
var hwndMessage = ^uintptr(2)

type wndClassEx struct {
	size       uint32
	style      uint32
	wndProc    uintptr
	clsExtra   int32
	wndExtra   int32
	instance   uintptr
	icon       uintptr
	cursor     uintptr
	background uintptr
	menuName   *uint16
	className  *uint16
	iconSm     uintptr
}

type point struct {
	x, y int32
}

type msg struct {
	hwnd     uintptr
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       point
	lPrivate uint32
}

var (
	registerClassOnce sync.Once
	registerClassErr  error

	hooksMu sync.Mutex
	hooks   = map[uintptr]*ShellHook{}

	shellHookWndProc = windows.NewCallback(func(hwnd, message, wParam, lParam uintptr) uintptr {
		hooksMu.Lock()
		hook := hooks[hwnd]
		hooksMu.Unlock()
		if hook != nil {
			hook.dispatch(uint32(message), wParam)
		}
		r, _, _ := procDefWindowProcW.Call(hwnd, message, wParam, lParam)
		return r
	})
)

// ShellHook receives window created/destroyed notifications and, when
// configured, a global hotkey through a message-only window serviced by a
// dedicated OS thread.
type ShellHook struct {
	hotkey *HotkeySpec

	mu        sync.Mutex
	handler   func(EventKind)
	shellMsg  uint32
	threadID  uint32
	running   bool
	done      chan struct{}
	hotkeyErr error
}

// NewShellHook creates an unstarted hook. A nil hotkey disables hotkey
// registration.
func NewShellHook(hotkey *HotkeySpec) *ShellHook {
	return &ShellHook{hotkey: hotkey}
}

// Start spins up the message thread and returns once the shell hook is
// registered. Failing to claim the hotkey does not fail Start; see HotkeyErr.
func (s *ShellHook) Start(handler func(EventKind)) error {
	if handler == nil {
		return errors.New("shell hook: nil handler")
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("shell hook: already started")
	}
	s.handler = handler
	s.done = make(chan struct{})
	s.mu.Unlock()

	ready := make(chan error, 1)
	go s.loop(ready)
	if err := <-ready; err != nil {
		return err
	}

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	return nil
}

// HotkeyErr reports why the hotkey could not be registered, if it could not
func (s *ShellHook) HotkeyErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hotkeyErr
}

// Close stops the message thread and releases every registration
func (s *ShellHook) Close() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	threadID := s.threadID
	done := s.done
	s.mu.Unlock()

	r, _, err := procPostThreadMessageW.Call(uintptr(threadID), wmQuit, 0, 0)
	if r == 0 {
		return lastError("PostThreadMessageW", err)
	}
	<-done
	return nil
}

func (s *ShellHook) dispatch(message uint32, wParam uintptr) {
	s.mu.Lock()
	handler := s.handler
	shellMsg := s.shellMsg
	s.mu.Unlock()
	if handler == nil {
		return
	}

	switch {
	case shellMsg != 0 && message == shellMsg:
		switch wParam {
		case hshellWindowCreated:
			handler(EventWindowCreated)
		case hshellWindowDestroyed:
			handler(EventWindowDestroyed)
		}
	case message == wmHotkey && wParam == hotkeyID:
		handler(EventHotkey)
	}
}

func registerShellHookClass(instance uintptr) error {
	registerClassOnce.Do(func() {
		className, err := windows.UTF16PtrFromString(shellHookClassName)
		if err != nil {
			registerClassErr = err
			return
		}
		wc := wndClassEx{
			wndProc:   shellHookWndProc,
			instance:  instance,
			className: className,
		}
		wc.size = uint32(unsafe.Sizeof(wc))
		r, _, err := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc)))
		if r == 0 {
			if errno, ok := err.(syscall.Errno); ok && errno == errorClassAlreadyExists {
				return
			}
			registerClassErr = lastError("RegisterClassExW", err)
		}
	})
	return registerClassErr
}

// loop owns the message-only window for its whole life; window messages
// are delivered to the thread that created the window.
func (s *ShellHook) loop(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.done)

	instance, _, _ := procGetModuleHandleW.Call(0)
	if err := registerShellHookClass(instance); err != nil {
		ready <- err
		return
	}

	className, _ := windows.UTF16PtrFromString(shellHookClassName)
	hwnd, _, err := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(className)),
		0,
		0,
		0, 0, 0, 0,
		hwndMessage,
		0,
		instance,
		0,
	)
	if hwnd == 0 {
		ready <- lastError("CreateWindowExW", err)
		return
	}
	defer procDestroyWindow.Call(hwnd)

	hookName, _ := windows.UTF16PtrFromString("SHELLHOOK")
	shellMsg, _, err := procRegisterWindowMessageW.Call(uintptr(unsafe.Pointer(hookName)))
	if shellMsg == 0 {
		ready <- lastError("RegisterWindowMessageW", err)
		return
	}

	s.mu.Lock()
	s.shellMsg = uint32(shellMsg)
	s.threadID = windows.GetCurrentThreadId()
	s.mu.Unlock()

	hooksMu.Lock()
	hooks[hwnd] = s
	hooksMu.Unlock()
	defer func() {
		hooksMu.Lock()
		delete(hooks, hwnd)
		hooksMu.Unlock()
	}()

	r, _, err := procRegisterShellHookWindow.Call(hwnd)
	if r == 0 {
		ready <- lastError("RegisterShellHookWindow", err)
		return
	}
	defer procDeregisterShellHookWindow.Call(hwnd)

	if s.hotkey != nil {
		r, _, err := procRegisterHotKey.Call(hwnd, hotkeyID, uintptr(s.hotkey.Modifiers), uintptr(s.hotkey.Key))
		if r == 0 {
			s.mu.Lock()
			s.hotkeyErr = fmt.Errorf("register hotkey (modifiers=0x%X key=0x%X): %w",
				s.hotkey.Modifiers, s.hotkey.Key, lastError("RegisterHotKey", err))
			s.mu.Unlock()
		} else {
			defer procUnregisterHotKey.Call(hwnd, hotkeyID)
		}
	}

	ready <- nil

	var m msg
	for {
		r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		// 0 is WM_QUIT, -1 is failure
		if int32(r) <= 0 {
			return
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}
