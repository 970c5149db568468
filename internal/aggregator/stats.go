package aggregator

import (
	"math"
	"regexp"
	"strings"
)

// Pct returns n/d as a percentage, or nil when d is zero so that "no data"
// never reads as 0%.
func Pct(n, d int) *float64 {
	if d == 0 {
		return nil
	}
	v := float64(n) / float64(d) * 100
	return &v
}

// PctOr0 is Pct with zero substituted for the no-data case. Coaching
// heuristics compare rates directly and treat an empty bucket as 0%.
func PctOr0(n, d int) float64 {
	if p := Pct(n, d); p != nil {
		return *p
	}
	return 0
}

// Clamp bounds v to [lo, hi]; NaN and ±Inf map to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return lo
	}
	return math.Min(hi, math.Max(lo, v))
}

// Clamp100 is Clamp to the 0–100 score range.
func Clamp100(v float64) float64 {
	return Clamp(v, 0, 100)
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev is the population standard deviation, 0 for an empty slice.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := Mean(values)
	var acc float64
	for _, v := range values {
		acc += (v - m) * (v - m)
	}
	return math.Sqrt(acc / float64(len(values)))
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Round2 rounds to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var (
	setPrefixRe = regexp.MustCompile(`(?i)^(tft\d+_|set\d+_)`)
	wordStartRe = regexp.MustCompile(`\b\w`)
)

// PrettyName turns "TFT13_Heavy_Hitter" into "Heavy Hitter".
func PrettyName(name string) string {
	if name == "" {
		return "Unknown"
	}
	s := setPrefixRe.ReplaceAllString(name, "")
	s = setPrefixRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "_", " ")
	return wordStartRe.ReplaceAllStringFunc(s, strings.ToUpper)
}

func ints(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
