package models

import (
	"math"
	"time"
)

// Progress returns how far now sits between start and end as a whole
// percentage in [0,100]. A window with end <= start jumps straight to 100
// once now reaches end.
func Progress(start, end, now time.Time) int {
	if !now.After(start) && start.Before(end) {
		return 0
	}
	if !now.Before(end) {
		return 100
	}
	if !end.After(start) {
		return 0
	}
	elapsed := float64(now.Sub(start))
	total := float64(end.Sub(start))
	pct := int(math.Round(elapsed / total * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
