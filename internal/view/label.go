package view

import (
	"fmt"
	"time"

	"sharedlist/pkg/domain"
)

// TimeLabel describes how long ago addedAt (unix seconds) was, relative to now.
// Items from the future read as "just now". After a week the absolute date
// is shown in now's location.
func TimeLabel(addedAt int64, now time.Time) string {
	diff := now.Unix() - addedAt
	switch {
	case diff < 60:
		return "just now"
	case diff < 3600:
		return plural(diff/60, "min")
	case diff < 86400:
		return plural(diff/3600, "hour")
	case diff < 7*86400:
		return plural(diff/86400, "day")
	default:
		return time.Unix(addedAt, 0).In(now.Location()).Format("Jan 2, 2006")
	}
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// Summary reports remaining against total, e.g. "2 of 5 items".
func Summary(list domain.List) string {
	if len(list) == 0 {
		return "0 items"
	}
	remaining := 0
	for _, it := range list {
		if !it.Completed {
			remaining++
		}
	}
	return fmt.Sprintf("%d of %d items", remaining, len(list))
}
