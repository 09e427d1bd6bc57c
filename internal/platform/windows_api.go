//go:build windows

package platform

import (
	"fmt"
	"iter"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                           = windows.NewLazySystemDLL("user32.dll")
	gdi32                            = windows.NewLazySystemDLL("gdi32.dll")
	dwmapi                           = windows.NewLazySystemDLL("dwmapi.dll")
	procEnumWindows                  = user32.NewProc("EnumWindows")
	procGetWindowThreadProcessId     = user32.NewProc("GetWindowThreadProcessId")
	procIsWindow                     = user32.NewProc("IsWindow")
	procIsWindowVisible              = user32.NewProc("IsWindowVisible")
	procIsIconic                     = user32.NewProc("IsIconic")
	procGetWindowLongW               = user32.NewProc("GetWindowLongW")
	procGetWindowTextLengthW         = user32.NewProc("GetWindowTextLengthW")
	procGetWindowTextW               = user32.NewProc("GetWindowTextW")
	procShowWindow                   = user32.NewProc("ShowWindow")
	procSetForegroundWindow          = user32.NewProc("SetForegroundWindow")
	procPostMessageW                 = user32.NewProc("PostMessageW")
	procSendMessageTimeoutW          = user32.NewProc("SendMessageTimeoutW")
	procGetClassLongPtrW             = user32.NewProc("GetClassLongPtrW")
	procGetClassLongW                = user32.NewProc("GetClassLongW")
	procGetDC                        = user32.NewProc("GetDC")
	procReleaseDC                    = user32.NewProc("ReleaseDC")
	procDrawIconEx                   = user32.NewProc("DrawIconEx")
	procCreateCompatibleDC           = gdi32.NewProc("CreateCompatibleDC")
	procCreateCompatibleBitmap       = gdi32.NewProc("CreateCompatibleBitmap")
	procSelectObject                 = gdi32.NewProc("SelectObject")
	procDeleteObject                 = gdi32.NewProc("DeleteObject")
	procDeleteDC                     = gdi32.NewProc("DeleteDC")
	procGetDIBits                    = gdi32.NewProc("GetDIBits")
	procDwmRegisterThumbnail         = dwmapi.NewProc("DwmRegisterThumbnail")
	procDwmUpdateThumbnailProperties = dwmapi.NewProc("DwmUpdateThumbnailProperties")
	procDwmUnregisterThumbnail       = dwmapi.NewProc("DwmUnregisterThumbnail")
)

const (
	gwlStyle   int32 = -16
	gwlExStyle int32 = -20
	gclpHIcon  int32 = -14
	gclpHIconS int32 = -34

	wmClose   = 0x0010
	wmGetIcon = 0x007F
	iconSmall = 0
	iconBig   = 1

	smtoBlock          = 0x0001
	smtoAbortIfHung    = 0x0002
	iconMessageTimeout = 100 // milliseconds

	swRestore    = 9
	diNormal     = 0x0003
	biRGB        = 0
	dibRGBColors = 0
	hgdiError    = ^uintptr(0)

	dwmTnpRectDestination = 0x00000001
	dwmTnpOpacity         = 0x00000004
	dwmTnpVisible         = 0x00000008

	processPathCapacity = 1024
)

type bitmapInfoHeader struct {
	biSize          uint32
	biWidth         int32
	biHeight        int32
	biPlanes        uint16
	biBitCount      uint16
	biCompression   uint32
	biSizeImage     uint32
	biXPelsPerMeter int32
	biYPelsPerMeter int32
	biClrUsed       uint32
	biClrImportant  uint32
}

type bitmapInfo struct {
	header bitmapInfoHeader
	colors [1]uint32
}

type rect struct {
	left, top, right, bottom int32
}

type dwmThumbnailProperties struct {
	flags                uint32
	destination          rect
	source               rect
	opacity              uint8
	visible              int32
	sourceClientAreaOnly int32
}

// walkState carries the consumer's yield through EnumWindows
type walkState struct {
	yield   func(Handle, error) bool
	stopped bool
}

// enumWindowsProc is created once; the OS caps the number of callbacks a
// process may create.
var enumWindowsProc = windows.NewCallback(func(hwnd, lparam uintptr) uintptr {
	state := (*walkState)(unsafe.Pointer(lparam))
	if !state.yield(Handle(hwnd), nil) {
		state.stopped = true
		return 0
	}
	return 1
})

// WindowsAPI implements WindowSystem on top of user32, gdi32 and dwmapi
type WindowsAPI struct{}

// NewWindowsAPI creates a new Windows API instance
func NewWindowsAPI() *WindowsAPI {
	return &WindowsAPI{}
}

// NewWindowSystem creates the WindowSystem for this platform
func NewWindowSystem() WindowSystem {
	return NewWindowsAPI()
}

// lastError turns the error returned alongside a failed call into something
// worth reporting; a zero errno means the API gave no reason.
func lastError(proc string, err error) error {
	if errno, ok := err.(syscall.Errno); ok && errno != 0 {
		return fmt.Errorf("%s: %w", proc, errno)
	}
	return fmt.Errorf("%s failed", proc)
}

func hresultError(proc string, hr uintptr) error {
	return fmt.Errorf("%s failed: HRESULT 0x%08X", proc, uint32(hr))
}

// signedArg passes a negative index through a uintptr argument slot
func signedArg(v int32) uintptr {
	return uintptr(v)
}

// Walk enumerates top-level windows through EnumWindows. The consumer's
// loop body runs inside the enumeration callback.
func (w *WindowsAPI) Walk() iter.Seq2[Handle, error] {
	return func(yield func(Handle, error) bool) {
		state := &walkState{yield: yield}
		r, _, err := procEnumWindows.Call(enumWindowsProc, uintptr(unsafe.Pointer(state)))
		if r == 0 && !state.stopped {
			yield(0, lastError("EnumWindows", err))
		}
	}
}

func (w *WindowsAPI) ProcessID(h Handle) (uint32, error) {
	var pid uint32
	tid, _, err := procGetWindowThreadProcessId.Call(uintptr(h), uintptr(unsafe.Pointer(&pid)))
	if tid == 0 {
		return 0, lastError("GetWindowThreadProcessId", err)
	}
	return pid, nil
}

func (w *WindowsAPI) IsVisible(h Handle) bool {
	r, _, _ := procIsWindowVisible.Call(uintptr(h))
	return r != 0
}

func (w *WindowsAPI) IsMinimized(h Handle) bool {
	r, _, _ := procIsIconic.Call(uintptr(h))
	return r != 0
}

func (w *WindowsAPI) Style(h Handle) uint32 {
	r, _, _ := procGetWindowLongW.Call(uintptr(h), signedArg(gwlStyle))
	return uint32(r)
}

func (w *WindowsAPI) ExStyle(h Handle) uint32 {
	r, _, _ := procGetWindowLongW.Call(uintptr(h), signedArg(gwlExStyle))
	return uint32(r)
}

// Title reads the caption text. An untitled window yields "" and no error.
func (w *WindowsAPI) Title(h Handle) (string, error) {
	n, _, err := procGetWindowTextLengthW.Call(uintptr(h))
	if n == 0 {
		if errno, ok := err.(syscall.Errno); ok && errno != 0 {
			return "", lastError("GetWindowTextLengthW", err)
		}
		return "", nil
	}

	// The length is an upper bound; the text may shrink between calls.
	buf := make([]uint16, n+1)
	copied, _, err := procGetWindowTextW.Call(uintptr(h), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if copied == 0 {
		if errno, ok := err.(syscall.Errno); ok && errno != 0 {
			return "", lastError("GetWindowTextW", err)
		}
		return "", nil
	}
	return windows.UTF16ToString(buf[:copied]), nil
}

func (w *WindowsAPI) isWindow(h Handle) bool {
	r, _, _ := procIsWindow.Call(uintptr(h))
	return r != 0
}

// Restore un-minimises h. ShowWindow reports prior visibility rather than
// success, so a dead handle is detected up front.
func (w *WindowsAPI) Restore(h Handle) error {
	if !w.isWindow(h) {
		return fmt.Errorf("ShowWindow: %w", windows.ERROR_INVALID_WINDOW_HANDLE)
	}
	procShowWindow.Call(uintptr(h), swRestore)
	return nil
}

func (w *WindowsAPI) SetForeground(h Handle) error {
	r, _, err := procSetForegroundWindow.Call(uintptr(h))
	if r != 0 {
		return nil
	}
	if !w.isWindow(h) {
		return fmt.Errorf("SetForegroundWindow: %w", windows.ERROR_INVALID_WINDOW_HANDLE)
	}
	return lastError("SetForegroundWindow", err)
}

// PostClose queues WM_CLOSE without waiting for the target to handle it
func (w *WindowsAPI) PostClose(h Handle) error {
	r, _, err := procPostMessageW.Call(uintptr(h), wmClose, 0, 0)
	if r == 0 {
		return lastError("PostMessageW", err)
	}
	return nil
}

// IconHandle performs a single icon lookup. Message queries go through
// SendMessageTimeout so a hung target cannot stall the walk.
func (w *WindowsAPI) IconHandle(h Handle, q IconQuery) uintptr {
	switch q {
	case IconQuerySmall, IconQueryBig:
		which := uintptr(iconSmall)
		if q == IconQueryBig {
			which = iconBig
		}
		var result uintptr
		r, _, _ := procSendMessageTimeoutW.Call(
			uintptr(h),
			wmGetIcon,
			which,
			0,
			smtoBlock|smtoAbortIfHung,
			iconMessageTimeout,
			uintptr(unsafe.Pointer(&result)),
		)
		if r == 0 {
			return 0
		}
		return result
	case IconQueryClassSmall:
		return classLong(h, gclpHIconS)
	case IconQueryClassBig:
		return classLong(h, gclpHIcon)
	default:
		return 0
	}
}

// classLong reads a class slot, using GetClassLongW where the pointer-sized
// export does not exist (32-bit user32).
func classLong(h Handle, index int32) uintptr {
	proc := procGetClassLongPtrW
	if proc.Find() != nil {
		proc = procGetClassLongW
	}
	r, _, _ := proc.Call(uintptr(h), signedArg(index))
	return r
}

// RenderIcon draws icon onto a size*size off-screen bitmap and reads the
// pixels back as top-down 32-bit BGRA.
func (w *WindowsAPI) RenderIcon(icon uintptr, size int) ([]byte, error) {
	if icon == 0 {
		return nil, fmt.Errorf("render icon: null icon handle")
	}
	if size <= 0 {
		return nil, fmt.Errorf("render icon: invalid size %d", size)
	}

	screenDC, _, err := procGetDC.Call(0)
	if screenDC == 0 {
		return nil, lastError("GetDC", err)
	}
	defer procReleaseDC.Call(0, screenDC)

	memDC, _, err := procCreateCompatibleDC.Call(screenDC)
	if memDC == 0 {
		return nil, lastError("CreateCompatibleDC", err)
	}
	defer procDeleteDC.Call(memDC)

	bitmap, _, err := procCreateCompatibleBitmap.Call(screenDC, uintptr(size), uintptr(size))
	if bitmap == 0 {
		return nil, lastError("CreateCompatibleBitmap", err)
	}
	defer procDeleteObject.Call(bitmap)

	previous, _, err := procSelectObject.Call(memDC, bitmap)
	if previous == 0 || previous == hgdiError {
		return nil, lastError("SelectObject", err)
	}
	selected := true
	// the bitmap must be out of the DC before GetDIBits and DeleteObject
	defer func() {
		if selected {
			procSelectObject.Call(memDC, previous)
		}
	}()

	r, _, err := procDrawIconEx.Call(memDC, 0, 0, icon, uintptr(size), uintptr(size), 0, 0, diNormal)
	if r == 0 {
		return nil, lastError("DrawIconEx", err)
	}

	procSelectObject.Call(memDC, previous)
	selected = false

	info := bitmapInfo{
		header: bitmapInfoHeader{
			biWidth:       int32(size),
			biHeight:      -int32(size), // negative height requests top-down rows
			biPlanes:      1,
			biBitCount:    32,
			biCompression: biRGB,
		},
	}
	info.header.biSize = uint32(unsafe.Sizeof(info.header))

	pixels := make([]byte, size*size*4)
	rows, _, err := procGetDIBits.Call(
		memDC,
		bitmap,
		0,
		uintptr(size),
		uintptr(unsafe.Pointer(&pixels[0])),
		uintptr(unsafe.Pointer(&info)),
		dibRGBColors,
	)
	if rows == 0 {
		return nil, lastError("GetDIBits", err)
	}

	return pixels[:int(rows)*size*4], nil
}

// ProcessImagePath opens the process with the minimal query right and reads
// its full image path.
func (w *WindowsAPI) ProcessImagePath(pid uint32) (string, error) {
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return "", fmt.Errorf("OpenProcess(%d): %w", pid, err)
	}
	defer windows.CloseHandle(handle)

	buf := make([]uint16, processPathCapacity)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(handle, 0, &buf[0], &size); err != nil {
		return "", fmt.Errorf("QueryFullProcessImageName(%d): %w", pid, err)
	}
	return windows.UTF16ToString(buf[:size]), nil
}

// RegisterThumbnail links source's live image into destination and sizes it
// to the width*height rectangle at the destination's origin.
func (w *WindowsAPI) RegisterThumbnail(source, destination Handle, width, height int32) (ThumbnailID, error) {
	if err := procDwmRegisterThumbnail.Find(); err != nil {
		return 0, fmt.Errorf("DwmRegisterThumbnail: %w", err)
	}

	var id uintptr
	hr, _, _ := procDwmRegisterThumbnail.Call(uintptr(destination), uintptr(source), uintptr(unsafe.Pointer(&id)))
	if uint32(hr) != 0 {
		return 0, hresultError("DwmRegisterThumbnail", hr)
	}

	props := dwmThumbnailProperties{
		flags:       dwmTnpRectDestination | dwmTnpVisible | dwmTnpOpacity,
		destination: rect{right: width, bottom: height},
		opacity:     255,
		visible:     1,
	}
	hr, _, _ = procDwmUpdateThumbnailProperties.Call(id, uintptr(unsafe.Pointer(&props)))
	if uint32(hr) != 0 {
		procDwmUnregisterThumbnail.Call(id)
		return 0, hresultError("DwmUpdateThumbnailProperties", hr)
	}

	return ThumbnailID(id), nil
}

func (w *WindowsAPI) UnregisterThumbnail(id ThumbnailID) error {
	if err := procDwmUnregisterThumbnail.Find(); err != nil {
		return fmt.Errorf("DwmUnregisterThumbnail: %w", err)
	}
	hr, _, _ := procDwmUnregisterThumbnail.Call(uintptr(id))
	if uint32(hr) != 0 {
		return hresultError("DwmUnregisterThumbnail", hr)
	}
	return nil
}

func (w *WindowsAPI) CurrentProcessID() uint32 {
	return windows.GetCurrentProcessId()
}
