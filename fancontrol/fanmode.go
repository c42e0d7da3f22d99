package fancontrol

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// FanMode is the value of the utility's fan-mode key.
type FanMode int

const (
	FanModeSmart     FanMode = 0
	FanModeFixed     FanMode = 1
	FanModeCustomize FanMode = 2
)

// String returns the mode name.
func (m FanMode) String() string {
	switch m {
	case FanModeSmart:
		return "smart"
	case FanModeFixed:
		return "fixed"
	case FanModeCustomize:
		return "customize"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// DefaultFanModeKey is the key the utility stores its fan mode under.
const DefaultFanModeKey = "FanMode"

// ErrFanModeKeyMissing indicates no line of the file starts with "key=".
var ErrFanModeKeyMissing = errors.New("fan mode key not found")

// RewriteFanMode returns content with every line that starts with "key="
// replaced by "key=<mode>". All other bytes are preserved, including each
// line's own ending (\n or \r\n) and a missing final newline.
func RewriteFanMode(content []byte, key string, mode FanMode) ([]byte, error) {
	prefix := []byte(key + "=")
	replacement := []byte(key + "=" + strconv.Itoa(int(mode)))

	out := make([]byte, 0, len(content)+len(replacement))
	found := false
	rest := content
	for len(rest) > 0 {
		var line, ending []byte
		if i := bytes.IndexByte(rest, '\n'); i >= 0 {
			line, rest = rest[:i], rest[i+1:]
			ending = []byte("\n")
			if n := len(line); n > 0 && line[n-1] == '\r' {
				line = line[:n-1]
				ending = []byte("\r\n")
			}
		} else {
			line, rest = rest, nil
		}

		if bytes.HasPrefix(line, prefix) {
			line = replacement
			found = true
		}
		out = append(out, line...)
		out = append(out, ending...)
	}

	if !found {
		return nil, fmt.Errorf("%w: %q", ErrFanModeKeyMissing, key)
	}
	return out, nil
}

// HasFanModeKey reports whether any line of content starts with "key=".
func HasFanModeKey(content []byte, key string) bool {
	_, err := RewriteFanMode(content, key, FanModeSmart)
	return err == nil
}

// SetFanMode rewrites the file at path in place, keeping its permissions.
func SetFanMode(path, key string, mode FanMode) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	updated, err := RewriteFanMode(content, key, mode)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, updated, info.Mode().Perm()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
