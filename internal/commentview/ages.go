package commentview

import (
	"fmt"
	"time"
)

// RelativeAge formats how long ago t was relative to now. Units floor:
// 90 minutes reads "1 hour ago", 10 days reads "1 week ago". The unit is
// pluralized only when the value exceeds 1.
func RelativeAge(now, t time.Time) string {
	d := now.Sub(t)
	if d < time.Minute {
		return "Just now"
	}
	if minutes := int(d.Minutes()); minutes < 60 {
		return agoLabel(minutes, "minute")
	}
	hours := int(d.Hours())
	if hours < 24 {
		return agoLabel(hours, "hour")
	}
	days := hours / 24
	if days < 7 {
		return agoLabel(days, "day")
	}
	return agoLabel(days/7, "week")
}

func agoLabel(n int, unit string) string {
	if n > 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s ago", n, unit)
}
