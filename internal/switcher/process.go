package switcher

import (
	"strings"

	winerrors "binocular/internal/infrastructure/errors"
	"binocular/internal/infrastructure/logging"
	"binocular/internal/platform"
)

// ProcessResolver turns a process id into its executable file name
type ProcessResolver struct {
	source platform.ProcessInspector
	logger logging.Logger
}

// NewProcessResolver creates a resolver over source
func NewProcessResolver(source platform.ProcessInspector, logger logging.Logger) *ProcessResolver {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &ProcessResolver{source: source, logger: logger}
}

// ResolveName returns the executable name owning pid, or nil when the
// process cannot be opened or its path read. Denial is expected for
// protected processes and is only logged at debug level.
func (r *ProcessResolver) ResolveName(pid uint32) *string {
	path, err := r.source.ProcessImagePath(pid)
	if err != nil {
		r.logger.Debug("Process name unavailable",
			"pid", pid,
			"cause", winerrors.ClassifyError(err).String(),
			"error", err.Error())
		return nil
	}

	name := executableName(path)
	if name == "" {
		return nil
	}
	return &name
}

// executableName returns the last path component. Both separators are
// accepted so that Windows paths split the same way on every GOOS.
func executableName(path string) string {
	if i := strings.LastIndexAny(path, `\/`); i >= 0 {
		return path[i+1:]
	}
	return path
}
