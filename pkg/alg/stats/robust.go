package stats

import "math"

// MADConsistency scales the median absolute deviation to be comparable with
// the standard deviation under a normal distribution.
const MADConsistency = 0.6745

// MAD returns the median absolute deviation of values around their median.
// Returns 0 for an empty slice.
func MAD(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	med := Median(values)
	absDev := make([]float64, len(values))

	for i, v := range values {
		absDev[i] = math.Abs(v - med)
	}

	return Median(absDev)
}

// RobustZScores computes MAD-based z-scores for each value, in input order.
// When the MAD is zero (all values identical), every score is 0 so that no
// element can exceed any positive threshold.
func RobustZScores(values []float64) []float64 {
	scores := make([]float64, len(values))
	if len(values) == 0 {
		return scores
	}

	med := Median(values)

	mad := MAD(values)
	if mad == 0 {
		return scores
	}

	for i, v := range values {
		scores[i] = MADConsistency * (v - med) / mad
	}

	return scores
}
