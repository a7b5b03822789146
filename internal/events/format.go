package events

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Countdown renders how long until r ends, "all day" for all-day records
// and "ended" once the end has passed.
func Countdown(r Record) string {
	if r.AllDay {
		return "all day"
	}
	if r.RemainingSeconds <= 0 {
		return "ended"
	}
	return HumanizeDuration(time.Duration(r.RemainingSeconds) * time.Second)
}

func HumanizeDuration(d time.Duration) string {
	if d <= 0 {
		return "now"
	}

	minutes := int(math.Ceil(d.Minutes()))
	days := minutes / (24 * 60)
	remaining := minutes % (24 * 60)
	hours := remaining / 60
	mins := remaining % 60

	parts := make([]string, 0, 3)
	if days > 0 {
		parts = append(parts, strconv.Itoa(days)+"d")
	}
	if hours > 0 {
		parts = append(parts, strconv.Itoa(hours)+"h")
	}
	if mins > 0 {
		parts = append(parts, strconv.Itoa(mins)+"m")
	}
	if len(parts) == 0 {
		parts = append(parts, "0m")
	}
	return strings.Join(parts, " ")
}
