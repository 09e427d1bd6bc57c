package testutils

import (
	"errors"
	"iter"
	"sync"

	"binocular/internal/platform"
)

// FakeWindow is one synthetic entry in the fake window table
type FakeWindow struct {
	Handle    platform.Handle
	PID       uint32
	PIDErr    error
	Visible   bool
	Style     uint32
	ExStyle   uint32
	Title     string
	TitleErr  error
	Minimized bool
	Icons     map[platform.IconQuery]uintptr
}

// AppWindow returns a window that passes every classifier rule
func AppWindow(h platform.Handle, pid uint32, title string) FakeWindow {
	return FakeWindow{
		Handle:  h,
		PID:     pid,
		Visible: true,
		Style:   platform.StyleCaption | platform.StyleVisible,
		Title:   title,
	}
}

// FakeWindowSystem is an in-memory platform.WindowSystem for tests. Fields
// may be set before use; counters are read through the accessor methods.
type FakeWindowSystem struct {
	mu sync.Mutex

	Windows []FakeWindow
	OwnPID  uint32
	WalkErr error
	// OnVisit runs before each window is yielded, outside the fake's lock
	OnVisit func(index int, h platform.Handle)

	Paths    map[uint32]string
	PathErrs map[uint32]error

	Pixels    []byte
	RenderErr error

	RestoreErr    error
	ForegroundErr error
	CloseErr      error

	RegisterErr   error
	UnregisterErr error

	restoreCalls    int
	foregroundCalls []platform.Handle
	closeCalls      []platform.Handle
	iconQueries     []platform.IconQuery
	renderCalls     int
	walks           int
	nextThumb       platform.ThumbnailID
	liveThumbs      map[platform.ThumbnailID]platform.Handle
}

var errNoSuchWindow = errors.New("invalid window handle")

// NewFakeWindowSystem creates a fake reporting ownPID as the current process
func NewFakeWindowSystem(ownPID uint32, windows ...FakeWindow) *FakeWindowSystem {
	return &FakeWindowSystem{
		Windows:    windows,
		OwnPID:     ownPID,
		Paths:      map[uint32]string{},
		PathErrs:   map[uint32]error{},
		liveThumbs: map[platform.ThumbnailID]platform.Handle{},
	}
}

// SetWindows swaps the window table, as if windows had opened or closed
func (f *FakeWindowSystem) SetWindows(windows ...FakeWindow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Windows = windows
}

// SetVisible flips the visibility of window h, as if it were shown or hidden
func (f *FakeWindowSystem) SetVisible(h platform.Handle, visible bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Windows {
		if f.Windows[i].Handle == h {
			f.Windows[i].Visible = visible
		}
	}
}

func (f *FakeWindowSystem) find(h platform.Handle) (FakeWindow, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.Windows {
		if w.Handle == h {
			return w, true
		}
	}
	return FakeWindow{}, false
}

func (f *FakeWindowSystem) Walk() iter.Seq2[platform.Handle, error] {
	return func(yield func(platform.Handle, error) bool) {
		f.mu.Lock()
		f.walks++
		windows := append([]FakeWindow(nil), f.Windows...)
		walkErr := f.WalkErr
		onVisit := f.OnVisit
		f.mu.Unlock()

		for i, w := range windows {
			if onVisit != nil {
				onVisit(i, w.Handle)
			}
			if !yield(w.Handle, nil) {
				return
			}
		}
		if walkErr != nil {
			yield(0, walkErr)
		}
	}
}

func (f *FakeWindowSystem) ProcessID(h platform.Handle) (uint32, error) {
	w, ok := f.find(h)
	if !ok {
		return 0, errNoSuchWindow
	}
	return w.PID, w.PIDErr
}

func (f *FakeWindowSystem) IsVisible(h platform.Handle) bool {
	w, _ := f.find(h)
	return w.Visible
}

func (f *FakeWindowSystem) Style(h platform.Handle) uint32 {
	w, _ := f.find(h)
	return w.Style
}

func (f *FakeWindowSystem) ExStyle(h platform.Handle) uint32 {
	w, _ := f.find(h)
	return w.ExStyle
}

func (f *FakeWindowSystem) Title(h platform.Handle) (string, error) {
	w, ok := f.find(h)
	if !ok {
		return "", errNoSuchWindow
	}
	return w.Title, w.TitleErr
}

func (f *FakeWindowSystem) IsMinimized(h platform.Handle) bool {
	w, _ := f.find(h)
	return w.Minimized
}

func (f *FakeWindowSystem) Restore(h platform.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restoreCalls++
	return f.RestoreErr
}

func (f *FakeWindowSystem) SetForeground(h platform.Handle) error {
	if _, ok := f.find(h); !ok {
		return errNoSuchWindow
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.foregroundCalls = append(f.foregroundCalls, h)
	return f.ForegroundErr
}

func (f *FakeWindowSystem) PostClose(h platform.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls = append(f.closeCalls, h)
	return f.CloseErr
}

func (f *FakeWindowSystem) IconHandle(h platform.Handle, q platform.IconQuery) uintptr {
	f.mu.Lock()
	f.iconQueries = append(f.iconQueries, q)
	f.mu.Unlock()

	w, _ := f.find(h)
	return w.Icons[q]
}

func (f *FakeWindowSystem) RenderIcon(icon uintptr, size int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renderCalls++
	if f.RenderErr != nil {
		return nil, f.RenderErr
	}
	return append([]byte(nil), f.Pixels...), nil
}

func (f *FakeWindowSystem) ProcessImagePath(pid uint32) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.PathErrs[pid]; err != nil {
		return "", err
	}
	path, ok := f.Paths[pid]
	if !ok {
		return "", errors.New("access is denied")
	}
	return path, nil
}

func (f *FakeWindowSystem) RegisterThumbnail(source, destination platform.Handle, width, height int32) (platform.ThumbnailID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RegisterErr != nil {
		return 0, f.RegisterErr
	}
	f.nextThumb++
	f.liveThumbs[f.nextThumb] = source
	return f.nextThumb, nil
}

func (f *FakeWindowSystem) UnregisterThumbnail(id platform.ThumbnailID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UnregisterErr != nil {
		return f.UnregisterErr
	}
	if _, ok := f.liveThumbs[id]; !ok {
		return errors.New("thumbnail not registered")
	}
	delete(f.liveThumbs, id)
	return nil
}

func (f *FakeWindowSystem) CurrentProcessID() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.OwnPID
}

// RestoreCalls reports how many restore requests were issued
func (f *FakeWindowSystem) RestoreCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.restoreCalls
}

// ForegroundCalls returns the handles passed to SetForeground, in order
func (f *FakeWindowSystem) ForegroundCalls() []platform.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]platform.Handle(nil), f.foregroundCalls...)
}

// CloseCalls returns the handles passed to PostClose, in order
func (f *FakeWindowSystem) CloseCalls() []platform.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]platform.Handle(nil), f.closeCalls...)
}

// IconQueries returns every icon lookup issued, in order
func (f *FakeWindowSystem) IconQueries() []platform.IconQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]platform.IconQuery(nil), f.iconQueries...)
}

// RenderCalls reports how many times the render stage ran
func (f *FakeWindowSystem) RenderCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.renderCalls
}

// Walks reports how many walks were started
func (f *FakeWindowSystem) Walks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.walks
}

// LiveThumbnails reports how many thumbnail registrations are outstanding
func (f *FakeWindowSystem) LiveThumbnails() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.liveThumbs)
}

var _ platform.WindowSystem = (*FakeWindowSystem)(nil)
