package serving

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"stockPredictor/internal/ports"
)

// ParsePeriod converts a history period such as "5d", "3mo", "1y", "ytd" or
// "max" into the first date of the window ending at now.
func ParsePeriod(period string, now time.Time) (time.Time, error) {
	p := strings.ToLower(strings.TrimSpace(period))
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch p {
	case "ytd":
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC), nil
	case "max":
		return time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), nil
	}

	units := []struct {
		suffix string
		apply  func(n int) time.Time
	}{
		{"mo", func(n int) time.Time { return today.AddDate(0, -n, 0) }},
		{"wk", func(n int) time.Time { return today.AddDate(0, 0, -7*n) }},
		{"d", func(n int) time.Time { return today.AddDate(0, 0, -n) }},
		{"y", func(n int) time.Time { return today.AddDate(-n, 0, 0) }},
	}
	for _, u := range units {
		if !strings.HasSuffix(p, u.suffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(p, u.suffix))
		if err != nil || n <= 0 {
			break
		}
		return u.apply(n), nil
	}
	return time.Time{}, fmt.Errorf("unsupported period %q: %w", period, ports.ErrInvalidRequest)
}
