package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    []float64
		expected float64
	}{
		{name: "empty_returns_zero", input: nil, expected: 0},
		{name: "single_element", input: []float64{5.0}, expected: 5.0},
		{name: "known_mean", input: []float64{1.0, 2.0, 3.0, 4.0, 5.0}, expected: 3.0},
		{name: "negative_values", input: []float64{-2.0, -4.0}, expected: -3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Mean(tt.input)
			assert.InDelta(t, tt.expected, got, 0.0001)
		})
	}
}

func TestPercentile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    []float64
		p        float64
		expected float64
	}{
		{name: "empty_returns_zero", input: nil, p: PercentileMedian, expected: 0},
		{name: "single_element", input: []float64{7.0}, p: PercentileMedian, expected: 7.0},
		{name: "median_odd", input: []float64{3.0, 1.0, 2.0}, p: PercentileMedian, expected: 2.0},
		{name: "median_even", input: []float64{1.0, 2.0, 3.0, 4.0}, p: PercentileMedian, expected: 2.5},
		{name: "p90_interpolates", input: []float64{1.0, 2.0, 3.0, 4.0, 5.0, 6.0, 7.0, 8.0, 9.0, 10.0}, p: PercentileP90, expected: 9.1},
		{name: "p0_is_min", input: []float64{5.0, 1.0, 9.0}, p: 0, expected: 1.0},
		{name: "p100_is_max", input: []float64{5.0, 1.0, 9.0}, p: 1.0, expected: 9.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Percentile(tt.input, tt.p)
			assert.InDelta(t, tt.expected, got, 0.01)
		})
	}
}

func TestMedian(t *testing.T) {
	t.Parallel()

	got := Median([]float64{3.0, 1.0, 2.0})
	assert.InDelta(t, 2.0, got, 0.0001)
}

func TestMinMaxSum(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, Min([]int{3, 1, 4, 1, 5}))
	assert.Equal(t, 5, Max([]int{3, 1, 4, 1, 5}))
	assert.Equal(t, 10, Sum([]int{1, 2, 3, 4}))
	assert.Equal(t, 0, Min([]int{}))
	assert.Equal(t, 0, Max([]int{}))
	assert.Equal(t, 0, Sum([]int{}))
}

func TestMAD(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    []float64
		expected float64
	}{
		{name: "empty_returns_zero", input: nil, expected: 0},
		{name: "constant_series_zero", input: []float64{4.0, 4.0, 4.0, 4.0}, expected: 0},
		{name: "known_value", input: []float64{1.0, 1.0, 2.0, 2.0, 4.0, 6.0, 9.0}, expected: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := MAD(tt.input)
			assert.InDelta(t, tt.expected, got, 0.0001)
		})
	}
}

func TestRobustZScores(t *testing.T) {
	t.Parallel()

	t.Run("constant_series_all_zero", func(t *testing.T) {
		t.Parallel()

		scores := RobustZScores([]float64{5.0, 5.0, 5.0, 5.0, 5.0})
		for _, s := range scores {
			assert.InDelta(t, 0, s, 0.0001)
		}
	})

	t.Run("outlier_scores_high", func(t *testing.T) {
		t.Parallel()

		scores := RobustZScores([]float64{10, 11, 9, 10, 11, 10000})
		assert.Len(t, scores, 6)
		assert.Greater(t, scores[5], 3.5)
		for _, s := range scores[:5] {
			assert.LessOrEqual(t, s, 3.5)
		}
	})

	t.Run("preserves_input_order", func(t *testing.T) {
		t.Parallel()

		scores := RobustZScores([]float64{1, 2, 100, 1, 2})
		assert.Greater(t, scores[2], scores[0])
		assert.InDelta(t, scores[0], scores[3], 0.0001)
	})

	t.Run("empty_input", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, RobustZScores(nil))
	})
}
