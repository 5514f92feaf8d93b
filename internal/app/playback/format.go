package playback

import (
	"fmt"
	"math"
)

// UnknownDuration is displayed when the duration cannot be determined.
const UnknownDuration = "-:--"

// FormatTime renders seconds as M:SS, truncating fractional seconds.
// NaN, infinite and negative inputs render as 0:00.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "0:00"
	}
	whole := int64(seconds)
	return fmt.Sprintf("%d:%02d", whole/60, whole%60)
}

// isFinite reports whether v is a usable number.
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
