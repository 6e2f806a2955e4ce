package boundary

import (
	"gonum.org/v1/gonum/stat"
)

// smoothProfile applies a centered moving average of the given window size,
// clamping the window at the profile edges.
func smoothProfile(profile []float64, window int) []float64 {
	if window < 2 || len(profile) == 0 {
		out := make([]float64, len(profile))
		copy(out, profile)
		return out
	}

	half := window / 2
	out := make([]float64, len(profile))
	for i := range profile {
		lo := i - half
		hi := i + half + 1
		if lo < 0 {
			lo = 0
		}
		if hi > len(profile) {
			hi = len(profile)
		}
		out[i] = stat.Mean(profile[lo:hi], nil)
	}
	return out
}

// contentRun locates the first and last profile positions where at least
// 80% of a runLength-wide window exceeds mean(profile) x sensitivity. The
// run-length requirement keeps isolated noisy positions from being mistaken
// for a real content boundary.
func contentRun(profile []float64, sensitivity float64, runLength int) (first, last int, ok bool) {
	n := len(profile)
	if n == 0 || runLength < 1 {
		return 0, 0, false
	}
	if runLength > n {
		runLength = n
	}

	threshold := stat.Mean(profile, nil) * sensitivity
	above := make([]bool, n)
	for i, v := range profile {
		above[i] = v > threshold
	}

	need := int(float64(runLength)*0.8 + 0.5)
	if need < 1 {
		need = 1
	}

	// Rolling count of above-threshold positions per window
	count := 0
	for i := 0; i < runLength; i++ {
		if above[i] {
			count++
		}
	}

	first = -1
	lastStart := -1
	for i := 0; ; i++ {
		if count >= need {
			if first < 0 {
				first = i
			}
			lastStart = i
		}
		if i+runLength >= n {
			break
		}
		if above[i] {
			count--
		}
		if above[i+runLength] {
			count++
		}
	}

	if first < 0 {
		return 0, 0, false
	}
	return first, lastStart + runLength - 1, true
}

// cropsFromRun converts a content run to (startCrop, endCrop) pixel counts
// and applies the sanity clamps: each crop is limited to half the size, a
// content region under 10% of the size falls back to a conservative fixed
// crop, and crops that would consume the whole image disable cropping.
func cropsFromRun(first, last, size int) (int, int) {
	start := first
	end := size - (last + 1)
	if start < 0 {
		start = 0
	}
	if end < 0 {
		end = 0
	}

	if start > size/2 {
		start = size / 2
	}
	if end > size/2 {
		end = size / 2
	}

	if size-start-end < size/10 {
		// Conservative fixed crop when detection leaves almost nothing
		c := size / 10
		if c > 100 {
			c = 100
		}
		start, end = c, c
	}

	if start+end >= size {
		return 0, 0
	}
	return start, end
}
