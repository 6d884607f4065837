package prediction

import (
	"fmt"
	"math"
)

// Normalize rescales raw per-class confidences to percentages summing to 100.
// The backends report either probabilities (0-1) or percentages (0-100) and
// do not guarantee the values add up; only the ratios are trusted.
func Normalize(raw map[Label]float64) (map[Label]float64, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("no confidence values")
	}

	sum := 0.0
	for label, v := range raw {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("confidence for %v is not a finite number", label)
		}
		if v < 0 {
			return nil, fmt.Errorf("confidence for %v is negative: %v", label, v)
		}
		sum += v
	}
	if sum <= 0 {
		return nil, fmt.Errorf("confidence values sum to zero")
	}
	if math.IsInf(sum, 0) {
		return nil, fmt.Errorf("confidence values overflow when summed")
	}

	out := make(map[Label]float64, len(raw))
	for label, v := range raw {
		out[label] = Clamp(v / sum * 100)
	}
	return out, nil
}

func Clamp(percent float64) float64 {
	return math.Max(0, math.Min(100, percent))
}
