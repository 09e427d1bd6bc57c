package config

import (
	"fmt"
	"strconv"
	"strings"

	"binocular/internal/platform"
)

var modifierBits = map[string]uint32{
	"alt":     platform.ModAlt,
	"ctrl":    platform.ModControl,
	"control": platform.ModControl,
	"shift":   platform.ModShift,
	"win":     platform.ModWin,
	"super":   platform.ModWin,
}

var namedKeys = map[string]uint32{
	"space":  0x20,
	"tab":    0x09,
	"enter":  0x0D,
	"escape": 0x1B,
	"esc":    0x1B,
}

// Spec converts the configured names to a registrable hotkey. Auto-repeat
// is always suppressed so holding the keys toggles once.
func (h HotkeyConfig) Spec() (platform.HotkeySpec, error) {
	if len(h.Modifiers) == 0 {
		return platform.HotkeySpec{}, fmt.Errorf("at least one modifier is required")
	}

	spec := platform.HotkeySpec{Modifiers: platform.ModNoRepeat}
	for _, name := range h.Modifiers {
		bit, ok := modifierBits[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return platform.HotkeySpec{}, fmt.Errorf("unknown modifier %q", name)
		}
		spec.Modifiers |= bit
	}

	key, err := virtualKey(h.Key)
	if err != nil {
		return platform.HotkeySpec{}, err
	}
	spec.Key = key
	return spec, nil
}

// String renders the hotkey the way it is written in config, e.g. ctrl+M
func (h HotkeyConfig) String() string {
	parts := append([]string{}, h.Modifiers...)
	parts = append(parts, h.Key)
	return strings.Join(parts, "+")
}

// virtualKey maps a key name to its virtual-key code
func virtualKey(name string) (uint32, error) {
	key := strings.TrimSpace(name)
	if key == "" {
		return 0, fmt.Errorf("key is required")
	}

	if code, ok := namedKeys[strings.ToLower(key)]; ok {
		return code, nil
	}

	upper := strings.ToUpper(key)
	if len(upper) == 1 {
		c := upper[0]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			return uint32(c), nil
		}
	}

	if len(upper) > 1 && upper[0] == 'F' {
		if n, err := strconv.Atoi(upper[1:]); err == nil && n >= 1 && n <= 24 {
			return 0x70 + uint32(n-1), nil
		}
	}

	return 0, fmt.Errorf("unknown key %q", name)
}
