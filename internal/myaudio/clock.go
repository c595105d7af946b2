package myaudio

import (
	"strconv"
	"strings"

	"github.com/voicevault/voicevault/internal/errors"
)

// ParseClock converts an MM:SS or HH:MM:SS time string to seconds. Any
// non-numeric or negative component is a validation error.
func ParseClock(timeStr string) (int, error) {
	parts := strings.Split(strings.TrimSpace(timeStr), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, invalidClock(timeStr)
	}

	values := make([]int, len(parts))
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 {
			return 0, invalidClock(timeStr)
		}
		values[i] = v
	}

	if len(values) == 2 {
		return values[0]*60 + values[1], nil
	}
	return values[0]*3600 + values[1]*60 + values[2], nil
}

// FormatClock renders whole seconds as MM:SS.
func FormatClock(seconds int) string {
	mins := seconds / 60
	secs := seconds % 60
	return pad2(mins) + ":" + pad2(secs)
}

func pad2(v int) string {
	s := strconv.Itoa(v)
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

func invalidClock(timeStr string) error {
	return errors.Newf("invalid time %q: use MM:SS or HH:MM:SS", timeStr).
		Component("myaudio").
		Category(errors.CategoryValidation).
		Build()
}
