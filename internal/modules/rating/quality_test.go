package rating

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateQualityScore_OptimalOilseed(t *testing.T) {
	result, err := CalculateQualityScore(QualityInputs{
		Category: CategoryOilseed,
		Parameters: map[string]float64{
			"oil_content":     45,
			"moisture":        8,
			"free_fatty_acid": 0.5,
			"protein_content": 20,
			"impurities":      1,
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)
	assert.Len(t, result.Breakdown.Parameters, 5)
	for _, p := range result.Breakdown.Parameters {
		assert.True(t, p.Present, p.Name)
		assert.Equal(t, p.MaxPoints, p.Points, p.Name)
	}
}

func TestCalculateQualityScore_Interpolation(t *testing.T) {
	tests := []struct {
		name     string
		inputs   QualityInputs
		expected int
	}{
		{
			name:     "higher is better midpoint",
			inputs:   QualityInputs{Category: CategoryOilseed, Parameters: map[string]float64{"oil_content": 38.5}},
			expected: 15,
		},
		{
			name:     "lower is better midpoint",
			inputs:   QualityInputs{Category: CategoryUCO, Parameters: map[string]float64{"free_fatty_acid": 10}},
			expected: 15,
		},
		{
			name:     "at acceptable threshold",
			inputs:   QualityInputs{Category: CategoryUCO, Parameters: map[string]float64{"free_fatty_acid": 15}},
			expected: 0,
		},
		{
			name:     "beyond acceptable threshold",
			inputs:   QualityInputs{Category: CategoryTallow, Parameters: map[string]float64{"free_fatty_acid": 40}},
			expected: 0,
		},
		{
			name:     "other category single parameter",
			inputs:   QualityInputs{Category: CategoryOther, Parameters: map[string]float64{"overall_quality": 60}},
			expected: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := CalculateQualityScore(tt.inputs)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result.Score)
		})
	}
}

func TestCalculateQualityScore_MissingParametersScoreZero(t *testing.T) {
	result, err := CalculateQualityScore(QualityInputs{
		Category:   CategoryUCO,
		Parameters: map[string]float64{"free_fatty_acid": 5},
	})

	require.NoError(t, err)
	assert.Equal(t, 30, result.Score)

	missing := 0
	for _, p := range result.Breakdown.Parameters {
		if !p.Present {
			missing++
			assert.Zero(t, p.Points, p.Name)
		}
	}
	assert.Equal(t, 4, missing)
}

func TestCalculateQualityScore_NilParameters(t *testing.T) {
	result, err := CalculateQualityScore(QualityInputs{Category: CategoryAlgae})

	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
}

func TestCalculateQualityScore_UnknownCategory(t *testing.T) {
	_, err := CalculateQualityScore(QualityInputs{Category: "not_a_real_category"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCategory))
}

func TestCalculateQualityScore_ExtraParametersIgnored(t *testing.T) {
	result, err := CalculateQualityScore(QualityInputs{
		Category:   CategoryOther,
		Parameters: map[string]float64{"overall_quality": 80, "colour": 3},
	})

	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)
	assert.Len(t, result.Breakdown.Parameters, 1)
}

func TestCalculateQualityScore_EveryCategoryBounded(t *testing.T) {
	for _, c := range AllCategories() {
		t.Run(string(c), func(t *testing.T) {
			table, err := DefaultEngine().QualityTable(c)
			require.NoError(t, err)

			best := map[string]float64{}
			worst := map[string]float64{}
			for _, p := range table {
				best[p.Name] = p.Optimal
				worst[p.Name] = p.Acceptable
			}

			high, err := CalculateQualityScore(QualityInputs{Category: c, Parameters: best})
			require.NoError(t, err)
			assert.Equal(t, 100, high.Score)

			low, err := CalculateQualityScore(QualityInputs{Category: c, Parameters: worst})
			require.NoError(t, err)
			assert.Equal(t, 0, low.Score)
		})
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input    string
		expected Category
	}{
		{"oilseed", CategoryOilseed},
		{"UCO", CategoryUCO},
		{"uco", CategoryUCO},
		{"used_cooking_oil", CategoryUCO},
		{" Lignocellulosic ", CategoryLignocellulosic},
	}
	for _, tt := range tests {
		got, err := ParseCategory(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, got)
	}

	_, err := ParseCategory("plastic")
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestCalculateQualityScore_NonFiniteScoresAsMissing(t *testing.T) {
	for name, v := range map[string]float64{
		"nan":    math.NaN(),
		"posInf": math.Inf(1),
		"negInf":  math.Inf(-1),
	} {
		t.Run(name, func(t *testing.T) {
			result, err := CalculateQualityScore(QualityInputs{
				Category:   CategoryOther,
				Parameters: map[string]float64{"overall_quality": v},
			})

			require.NoError(t, err)
			assert.Equal(t, 0, result.Score)
			require.Len(t, result.Breakdown.Parameters, 1)
			assert.False(t, result.Breakdown.Parameters[0].Present)
			assert.Equal(t, 0.0, result.Breakdown.Parameters[0].Points)
		})
	}
}
