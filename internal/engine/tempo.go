package engine

import (
	"errors"
	"math"
	"sort"
)

var (
	// ErrNotEnoughBeats is returned when BPM is requested for less than two
	// intervals.
	ErrNotEnoughBeats = errors.New("not enough beats")
	// ErrInvalidInterval is returned when beat times are not strictly
	// increasing.
	ErrInvalidInterval = errors.New("invalid beat interval")
)

// BPM returns the median of 60/Δt over consecutive beat times in seconds.
func BPM(beats []float64) (float64, error) {
	if len(beats) < 3 {
		return 0, ErrNotEnoughBeats
	}
	bpms := make([]float64, len(beats)-1)
	for i := range bpms {
		d := beats[i+1] - beats[i]
		if !(d > 0) || math.IsInf(d, 0) {
			return 0, ErrInvalidInterval
		}
		bpms[i] = 60 / d
	}
	return median(bpms), nil
}

// Skew returns the correction in seconds for the local clock. It matches
// local beat with the closest raw beat from history. Beats are wall-clock
// milliseconds, period is in seconds. Correction is zero when there's no
// raw beat within one period.
func Skew(local int64, history []int64, period, gain float64) float64 {
	if len(history) == 0 {
		return 0
	}
	closest, best := history[0], abs(history[0]-local)
	for _, h := range history[1:] {
		if d := abs(h - local); d < best {
			closest, best = h, d
		}
	}
	diff := float64(best)
	if diff >= period*1000 {
		return 0
	}
	// local clock is late, shorten the next interval
	sign := 1.0
	if local > closest {
		sign = -1.0
	}
	return sign * diff * gain / 1000
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
