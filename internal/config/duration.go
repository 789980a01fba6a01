package config

import (
	"fmt"
	"strings"
	"time"
)

// Duration parses an optional duration field. Empty means unset and yields
// zero; negative values are rejected. path names the field in error
// messages, e.g. "delivery.send_delay".
func Duration(path, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	switch {
	case err != nil:
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	case d < 0:
		return 0, fmt.Errorf("%s: negative duration %q", path, raw)
	}
	return d, nil
}
