package switcher

import (
	"iter"

	"binocular/internal/platform"
)

// requiredStyle is the policy for "has a title bar and is shown": both bits
// must be present.
const requiredStyle = platform.StyleCaption | platform.StyleVisible

// Candidate is a raw window that passed classification, carrying the
// attributes read while classifying it
type Candidate struct {
	Handle platform.Handle
	PID    uint32
	Title  string
}

// Classifier decides whether a raw window is a real, user-switchable
// application window. It holds no state beyond the enumerating process id.
type Classifier struct {
	inspector platform.Inspector
	ownPID    uint32
}

// NewClassifier creates a classifier excluding windows owned by ownPID
func NewClassifier(inspector platform.Inspector, ownPID uint32) *Classifier {
	return &Classifier{inspector: inspector, ownPID: ownPID}
}

// ShouldSurface applies the rules in order and stops at the first that
// fails: self-exclusion, visibility, caption style, tool window, title.
func (c *Classifier) ShouldSurface(h platform.Handle) bool {
	_, ok := c.Classify(h)
	return ok
}

// Classify is ShouldSurface that also returns the attributes it read
func (c *Classifier) Classify(h platform.Handle) (Candidate, bool) {
	// An unreadable owner cannot be proven foreign, so it is treated as own.
	pid, err := c.inspector.ProcessID(h)
	if err != nil || pid == c.ownPID {
		return Candidate{}, false
	}

	if !c.inspector.IsVisible(h) {
		return Candidate{}, false
	}

	if c.inspector.Style(h)&requiredStyle != requiredStyle {
		return Candidate{}, false
	}

	if c.inspector.ExStyle(h)&platform.ExStyleToolWindow != 0 {
		return Candidate{}, false
	}

	title, err := c.inspector.Title(h)
	if err != nil || title == "" {
		return Candidate{}, false
	}

	return Candidate{Handle: h, PID: pid, Title: title}, true
}

// Filter narrows a window walk to the surfaced candidates. Walk errors pass
// through unchanged, and stopping the range stops the underlying walk.
func (c *Classifier) Filter(walk iter.Seq2[platform.Handle, error]) iter.Seq2[Candidate, error] {
	return func(yield func(Candidate, error) bool) {
		for h, err := range walk {
			if err != nil {
				if !yield(Candidate{}, err) {
					return
				}
				continue
			}
			candidate, ok := c.Classify(h)
			if !ok {
				continue
			}
			if !yield(candidate, nil) {
				return
			}
		}
	}
}
