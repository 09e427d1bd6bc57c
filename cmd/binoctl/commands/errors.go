package commands

import (
	"fmt"

	winerrors "binocular/internal/infrastructure/errors"
	"binocular/internal/platform"
)

// explainError turns an OS failure on window h into something a terminal
// user can act on. Unrecognised errors pass through unchanged.
func explainError(h platform.Handle, err error) error {
	switch {
	case err == nil:
		return nil
	case winerrors.IsInvalidHandle(err):
		return fmt.Errorf("window 0x%x no longer exists; run 'binoctl list' for current handles: %w", uintptr(h), err)
	case winerrors.IsPermission(err):
		return fmt.Errorf("window 0x%x belongs to a process with higher privileges: %w", uintptr(h), err)
	case winerrors.IsUnsupported(err):
		return fmt.Errorf("window control is only available on Windows: %w", err)
	case winerrors.IsTimeout(err):
		return fmt.Errorf("window 0x%x did not respond in time: %w", uintptr(h), err)
	default:
		return err
	}
}
