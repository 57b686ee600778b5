package observability

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// maxSinceHours is the largest hour count a time.Duration can hold.
const maxSinceHours = math.MaxInt64 / int64(time.Hour)

// ParseSince parses a human-friendly duration such as "7d", "30d" or "24h"
// and returns the instant that far before now.
func ParseSince(s string, now time.Time) (time.Time, error) {
	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	num, err := strconv.ParseInt(s[:len(s)-1], 10, 64)
	if err != nil || num < 0 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	switch suffix {
	case 'd':
		if num > maxSinceHours/24 {
			return time.Time{}, fmt.Errorf("duration %q out of range", s)
		}
		return now.AddDate(0, 0, -int(num)), nil
	case 'h':
		if num > maxSinceHours {
			return time.Time{}, fmt.Errorf("duration %q out of range", s)
		}
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
