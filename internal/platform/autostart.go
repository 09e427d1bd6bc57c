package platform

import (
	"fmt"
	"path/filepath"
	"strings"
)

// RunKey is the per-user start-at-login store. Delete of an absent name
// succeeds; Get reports absence through its bool.
type RunKey interface {
	Set(name, command string) error
	Delete(name string) error
	Get(name string) (string, bool, error)
}

// Autostart manages one named start-at-login entry
type Autostart struct {
	key  RunKey
	name string
}

// NewAutostart manages the entry called name in key
func NewAutostart(key RunKey, name string) *Autostart {
	return &Autostart{key: key, name: name}
}

// Enable makes the entry start target at login. target must be an absolute
// path to the executable that should run, which is not necessarily the
// calling process.
func (a *Autostart) Enable(target string) error {
	if !filepath.IsAbs(target) {
		return fmt.Errorf("autostart target must be an absolute path, got %q", target)
	}
	return a.key.Set(a.name, `"`+target+`"`)
}

// Disable removes the entry
func (a *Autostart) Disable() error {
	return a.key.Delete(a.name)
}

// Apply enables the entry for target or removes it
func (a *Autostart) Apply(enabled bool, target string) error {
	if !enabled {
		return a.Disable()
	}
	return a.Enable(target)
}

// Target returns the executable the entry starts, if it is present
func (a *Autostart) Target() (string, bool, error) {
	command, ok, err := a.key.Get(a.name)
	if err != nil || !ok {
		return "", ok, err
	}
	return strings.Trim(command, `"`), true, nil
}
