package player

import (
	"fmt"
	"math"
)

// FormatTime converts elapsed seconds into an MM:SS readout.
// Unknown values (NaN, infinities, negatives) render as "00:00".
// Minutes are not rolled over into hours.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "00:00"
	}
	whole := int64(math.Floor(seconds))
	return fmt.Sprintf("%02d:%02d", whole/60, whole%60)
}
