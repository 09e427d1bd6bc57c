package platform

import "iter"

// Handle is an opaque, non-owning reference to a top-level OS window. It is
// only meaningful while the OS considers the window alive; any primitive
// given a stale handle fails with the OS error rather than panicking.
type Handle uintptr

// ThumbnailID identifies a live thumbnail registration held by the compositor
type ThumbnailID uintptr

// Window style bits consulted by the classifier. The values are the Win32
// ones; the thresholds are a policy choice, not a discovered constant.
const (
	StyleCaption      uint32 = 0x00C00000 // WS_CAPTION
	StyleVisible      uint32 = 0x10000000 // WS_VISIBLE
	ExStyleToolWindow uint32 = 0x00000080 // WS_EX_TOOLWINDOW
)

// IconQuery selects one of the icon lookups, in fallback order
type IconQuery int

const (
	IconQuerySmall      IconQuery = iota // WM_GETICON ICON_SMALL
	IconQueryBig                         // WM_GETICON ICON_BIG
	IconQueryClassSmall                  // GCLP_HICONSM
	IconQueryClassBig                    // GCLP_HICON
)

// IconQueries lists the lookups in the order they are attempted
var IconQueries = []IconQuery{IconQuerySmall, IconQueryBig, IconQueryClassSmall, IconQueryClassBig}

// String returns a short name for logs
func (q IconQuery) String() string {
	switch q {
	case IconQuerySmall:
		return "small"
	case IconQueryBig:
		return "big"
	case IconQueryClassSmall:
		return "class_small"
	case IconQueryClassBig:
		return "class_big"
	default:
		return "unknown"
	}
}

// Inspector answers the per-window attribute queries
type Inspector interface {
	ProcessID(h Handle) (uint32, error)
	IsVisible(h Handle) bool
	Style(h Handle) uint32
	ExStyle(h Handle) uint32
	Title(h Handle) (string, error)
	IsMinimized(h Handle) bool
}

// Enumerator walks the OS window table. The sequence is lazy and finite and
// visits each top-level window once; it cannot be restarted. A walk failure
// is delivered as a final element carrying a non-nil error. Stopping the
// range early aborts the walk.
type Enumerator interface {
	Walk() iter.Seq2[Handle, error]
}

// Controller issues the mutating requests against a window
type Controller interface {
	Restore(h Handle) error
	SetForeground(h Handle) error
	PostClose(h Handle) error
}

// IconSource resolves and renders window icons. IconHandle returns 0 when
// the lookup yields nothing. RenderIcon draws icon into an off-screen
// size*size surface and returns the pixels top-down in BGRA order; every
// drawing resource it acquires is released before it returns, on success
// and on failure. The returned buffer may be short when fewer rows were read.
type IconSource interface {
	IconHandle(h Handle, q IconQuery) uintptr
	RenderIcon(icon uintptr, size int) ([]byte, error)
}

// ProcessInspector reads the image path of a process
type ProcessInspector interface {
	ProcessImagePath(pid uint32) (string, error)
}

// Compositor manages live thumbnails. A failed registration leaves nothing
// registered behind it.
type Compositor interface {
	RegisterThumbnail(source, destination Handle, width, height int32) (ThumbnailID, error)
	UnregisterThumbnail(id ThumbnailID) error
}

// WindowSystem is the full primitive set the switcher consumes from the OS
type WindowSystem interface {
	Enumerator
	Inspector
	Controller
	IconSource
	ProcessInspector
	Compositor
	CurrentProcessID() uint32
}

// EventKind tags a push notification from the OS
type EventKind int

const (
	EventWindowCreated EventKind = iota + 1
	EventWindowDestroyed
	EventHotkey
)

// String returns a short name for logs
func (k EventKind) String() string {
	switch k {
	case EventWindowCreated:
		return "window_created"
	case EventWindowDestroyed:
		return "window_destroyed"
	case EventHotkey:
		return "hotkey"
	default:
		return "unknown"
	}
}

// HotkeySpec describes a global hotkey registration
type HotkeySpec struct {
	Modifiers uint32 // MOD_* bits
	Key       uint32 // virtual-key code
}

// Hotkey modifier bits (MOD_*)
const (
	ModAlt      uint32 = 0x0001
	ModControl  uint32 = 0x0002
	ModShift    uint32 = 0x0004
	ModWin      uint32 = 0x0008
	ModNoRepeat uint32 = 0x4000
)

// EventSource delivers OS notifications to a handler on whatever thread the
// OS uses. Close stops delivery and releases the underlying registration.
type EventSource interface {
	Start(handler func(EventKind)) error
	Close() error
}
