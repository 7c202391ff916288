package dataset

import "math"

// Entropy returns the Shannon entropy, in bits per byte, of the
// concatenation of parts. Empty input has zero entropy.
func Entropy(parts ...[]byte) float64 {
	var freq [256]int
	total := 0
	for _, p := range parts {
		for _, b := range p {
			freq[b]++
		}
		total += len(p)
	}
	if total == 0 {
		return 0
	}
	h := 0.0
	for _, n := range freq {
		if n == 0 {
			continue
		}
		p := float64(n) / float64(total)
		h -= p * math.Log2(p)
	}
	return h
}
