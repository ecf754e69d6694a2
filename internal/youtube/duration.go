package youtube

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseISODuration parses the ISO-8601 durations the Data API reports for
// videos ("PT3M33S", "PT1H2M", "P1DT2H"). It returns 0 for an empty string
// so an unknown duration stays unknown instead of failing the whole result.
func ParseISODuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	rest, ok := strings.CutPrefix(s, "P")
	if !ok {
		return 0, fmt.Errorf("invalid duration %q: missing P", s)
	}

	var total time.Duration
	inTime := false
	num := ""

	for _, r := range rest {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
			continue
		case r == 'T':
			inTime = true
			continue
		}

		if num == "" {
			return 0, fmt.Errorf("invalid duration %q: bare unit %c", s, r)
		}
		n, err := strconv.Atoi(num)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		num = ""

		switch {
		case r == 'D' && !inTime:
			total += time.Duration(n) * 24 * time.Hour
		case r == 'H' && inTime:
			total += time.Duration(n) * time.Hour
		case r == 'M' && inTime:
			total += time.Duration(n) * time.Minute
		case r == 'S' && inTime:
			total += time.Duration(n) * time.Second
		default:
			return 0, fmt.Errorf("invalid duration %q: unexpected unit %c", s, r)
		}
	}

	if num != "" {
		return 0, fmt.Errorf("invalid duration %q: trailing number", s)
	}

	return total, nil
}
