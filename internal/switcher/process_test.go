package switcher

import (
	"errors"
	"io"
	"syscall"
	"testing"

	"binocular/internal/infrastructure/logging"
	"binocular/internal/testutils"
)

func quietLogger() logging.Logger {
	return logging.NewLogger(io.Discard, false)
}

func TestExecutableName(t *testing.T) {
	tests := map[string]string{
		`C:\Program Files\Editor\editor.exe`: "editor.exe",
		`C:/tools/term.exe`:                   "term.exe",
		`\\?\C:\Windows\explorer.exe`:         "explorer.exe",
		"bare.exe":                            "bare.exe",
		`C:\dir\`:                             "",
		"":                                    "",
	}
	for path, want := range tests {
		if got := executableName(path); got != want {
			t.Errorf("executableName(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestProcessResolver_ResolveName(t *testing.T) {
	sys := testutils.NewFakeWindowSystem(ownPID)
	sys.Paths[100] = `C:\Program Files\Editor\editor.exe`
	sys.Paths[300] = `C:\dir\`
	sys.PathErrs[200] = syscall.Errno(5)

	resolver := NewProcessResolver(sys, quietLogger())

	tests := []struct {
		name string
		pid  uint32
		want *string
	}{
		{"resolved", 100, strPtr("editor.exe")},
		{"access denied", 200, nil},
		{"unknown process", 400, nil},
		{"path without file", 300, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolver.ResolveName(tt.pid)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("ResolveName(%d) = %v, want %v", tt.pid, deref(got), deref(tt.want))
			}
			if got != nil && *got != *tt.want {
				t.Errorf("ResolveName(%d) = %q, want %q", tt.pid, *got, *tt.want)
			}
		})
	}
}

func TestProcessResolver_DenialIsLoggedAtDebug(t *testing.T) {
	sys := testutils.NewFakeWindowSystem(ownPID)
	sys.PathErrs[200] = errors.New("access is denied")
	log := &recordingLogger{}

	NewProcessResolver(sys, log).ResolveName(200)

	if len(log.debug) != 1 {
		t.Fatalf("Expected 1 debug entry, got %d", len(log.debug))
	}
	fields := testutils.FieldsToMap(t, log.debug[0].fields)
	if fields["cause"] != "PERMISSION" {
		t.Errorf("Expected cause PERMISSION, got %v", fields["cause"])
	}
	if len(log.errors) != 0 || len(log.warns) != 0 {
		t.Error("Denial must not be logged above debug")
	}
}

func strPtr(s string) *string { return &s }

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
