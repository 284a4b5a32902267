package scan

import (
	"strconv"
	"strings"
)

// ParseSelection expands an ID list such as "1,2,5,7-15,30". Reversed
// ranges are swapped and malformed parts are ignored. Order and repeats are
// kept as written.
//
// Ranges are clipped to 1..maxID, the largest ID that can exist, so a huge
// range never expands past the index. Single IDs are kept as written and
// left for the lookup to report.
func ParseSelection(s string, maxID int64) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		lo, hi, isRange := strings.Cut(part, "-")
		if !isRange {
			if n, err := strconv.ParseInt(part, 10, 64); err == nil {
				ids = append(ids, n)
			}
			continue
		}

		start, err1 := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
		end, err2 := strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		if start > end {
			start, end = end, start
		}
		start = max(start, 1)
		end = min(end, maxID)
		for n := start; n <= end; n++ {
			ids = append(ids, n)
			if n == end {
				break
			}
		}
	}
	return ids
}
