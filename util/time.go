package util

import (
	"fmt"
	"time"
)

// HumanDuration returns human readable time format of a duration,
// rounded down to whole seconds.
func HumanDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	seconds := uint64(d / time.Second)

	var hours, minutes uint64
	if seconds >= 3600 {
		hours = seconds / 3600
		seconds -= hours * 3600
	}
	if seconds >= 60 {
		minutes = seconds / 60
		seconds -= minutes * 60
	}

	if hours > 0 {
		return fmt.Sprintf("%02dh %02dm %02ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%02dm %02ds", minutes, seconds)
	}
	return fmt.Sprintf("%02ds", seconds)
}
