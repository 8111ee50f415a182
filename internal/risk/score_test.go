package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func best() Factors {
	return Factors{
		SoilQuality:            "excellent",
		WeatherExposure:        "low",
		PestHistory:            "none",
		DiseaseSusceptibility:  "low",
		MarketAccess:           "excellent",
		IrrigationAvailability: "full",
	}
}

func worst() Factors {
	return Factors{
		SoilQuality:            "poor",
		WeatherExposure:        "extreme",
		PestHistory:            "severe",
		DiseaseSusceptibility:  "high",
		MarketAccess:           "poor",
		IrrigationAvailability: "none",
	}
}

func set(f *Factors, category, value string) {
	switch category {
	case SoilQuality:
		f.SoilQuality = value
	case WeatherExposure:
		f.WeatherExposure = value
	case PestHistory:
		f.PestHistory = value
	case DiseaseSusceptibility:
		f.DiseaseSusceptibility = value
	case MarketAccess:
		f.MarketAccess = value
	case IrrigationAvailability:
		f.IrrigationAvailability = value
	}
}

func TestCalculateScore_Bounds(t *testing.T) {
	low, err := CalculateScore(best())
	require.NoError(t, err)
	assert.Equal(t, 5, low)

	high, err := CalculateScore(worst())
	require.NoError(t, err)
	assert.Equal(t, 100, high, "worst case is clamped")
}

func TestCalculateScore_Deterministic(t *testing.T) {
	f := Factors{
		SoilQuality:            "good",
		WeatherExposure:        "moderate",
		PestHistory:            "occasional",
		DiseaseSusceptibility:  "medium",
		MarketAccess:           "good",
		IrrigationAvailability: "partial",
	}
	first, err := CalculateScore(f)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := CalculateScore(f)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, 50, first)
}

func TestCalculateScore_Monotonic(t *testing.T) {
	for _, category := range Categories() {
		t.Run(category, func(t *testing.T) {
			f := best()
			prev := -1
			for _, opt := range Options(category) {
				set(&f, category, opt)
				score, err := CalculateScore(f)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, score, prev, "option %s lowered the score", opt)
				assert.GreaterOrEqual(t, score, 0)
				assert.LessOrEqual(t, score, 100)
				prev = score
			}
		})
	}
}

func TestCalculateScore_UnknownOption(t *testing.T) {
	f := best()
	f.PestHistory = "locusts"
	_, err := CalculateScore(f)
	assert.ErrorIs(t, err, ErrUnknownOption)

	f = best()
	f.MarketAccess = ""
	_, err = CalculateScore(f)
	assert.ErrorIs(t, err, ErrUnknownOption)
}

func TestLevelFor(t *testing.T) {
	cases := map[int]Level{0: LevelLow, 29: LevelLow, 30: LevelMedium, 69: LevelMedium, 70: LevelHigh, 100: LevelHigh}
	for score, want := range cases {
		assert.Equal(t, want, LevelFor(score), "score %d", score)
	}
}

func TestEvaluate_Contributions(t *testing.T) {
	res, err := Evaluate(worst())
	require.NoError(t, err)
	assert.Equal(t, LevelHigh, res.Level)
	assert.Len(t, res.Contributions, len(Categories()))
	assert.Equal(t, 20, res.Contributions[WeatherExposure])
}
