package pipeline

import "math"

// Percentage returns part/total as a percentage rounded to one decimal.
// A zero total yields 0, never NaN or Inf.
func Percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(part) / float64(total) * 100)
}

// SuccessRate is Percentage with naming that matches the KPI cards.
func SuccessRate(succeeded, total int) float64 {
	return Percentage(succeeded, total)
}

// Average returns sum/count rounded to one decimal, 0 when count is 0.
func Average(sum float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return round1(sum / float64(count))
}

// CountBy tallies rows into buckets by the given key function.
func CountBy[T any](rows []T, key func(T) string) map[string]int {
	out := make(map[string]int)
	for _, row := range rows {
		out[key(row)]++
	}
	return out
}

// SumBy totals a numeric projection over the rows.
func SumBy[T any](rows []T, value func(T) float64) float64 {
	var sum float64
	for _, row := range rows {
		sum += value(row)
	}
	return sum
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
