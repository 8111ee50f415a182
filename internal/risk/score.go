// Package risk scores a field's insurance risk from categorical factors.
//
// The score is a fixed weighted sum: 50 plus one weight per category, clamped
// to [0,100]. Options in every category are ordered from best to worst and
// their weights never decrease along that order.
package risk

import (
	"errors"
	"fmt"
)

// ErrUnknownOption is returned when a factor value is not a known option.
var ErrUnknownOption = errors.New("unknown risk factor option")

const (
	baseScore = 50
	minScore  = 0
	maxScore  = 100

	lowThreshold    = 30
	mediumThreshold = 70
)

// Level is the bucket a score falls into.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Category names, as sent by the client.
const (
	SoilQuality            = "soilQuality"
	WeatherExposure        = "weatherExposure"
	PestHistory            = "pestHistory"
	DiseaseSusceptibility  = "diseaseSusceptibility"
	MarketAccess           = "marketAccess"
	IrrigationAvailability = "irrigationAvailability"
)

type option struct {
	name   string
	weight int
}

// categories lists every category's options from best to worst.
var categories = map[string][]option{
	SoilQuality:            {{"excellent", -10}, {"good", -5}, {"fair", 5}, {"poor", 15}},
	WeatherExposure:        {{"low", -10}, {"moderate", 0}, {"high", 10}, {"extreme", 20}},
	PestHistory:            {{"none", -5}, {"occasional", 0}, {"frequent", 10}, {"severe", 15}},
	DiseaseSusceptibility:  {{"low", -5}, {"medium", 5}, {"high", 15}},
	MarketAccess:           {{"excellent", -5}, {"good", 0}, {"limited", 5}, {"poor", 10}},
	IrrigationAvailability: {{"full", -10}, {"partial", 0}, {"rainfed", 10}, {"none", 15}},
}

// categoryOrder keeps error messages and iteration deterministic.
var categoryOrder = []string{
	SoilQuality, WeatherExposure, PestHistory, DiseaseSusceptibility, MarketAccess, IrrigationAvailability,
}

// Factors is one selection per category.
type Factors struct {
	SoilQuality            string `bson:"soilQuality" json:"soilQuality" binding:"required"`
	WeatherExposure        string `bson:"weatherExposure" json:"weatherExposure" binding:"required"`
	PestHistory            string `bson:"pestHistory" json:"pestHistory" binding:"required"`
	DiseaseSusceptibility  string `bson:"diseaseSusceptibility" json:"diseaseSusceptibility" binding:"required"`
	MarketAccess           string `bson:"marketAccess" json:"marketAccess" binding:"required"`
	IrrigationAvailability string `bson:"irrigationAvailability" json:"irrigationAvailability" binding:"required"`
}

func (f Factors) selections() map[string]string {
	return map[string]string{
		SoilQuality:            f.SoilQuality,
		WeatherExposure:        f.WeatherExposure,
		PestHistory:            f.PestHistory,
		DiseaseSusceptibility:  f.DiseaseSusceptibility,
		MarketAccess:           f.MarketAccess,
		IrrigationAvailability: f.IrrigationAvailability,
	}
}

// Result bundles a score with its level and per-category contributions.
type Result struct {
	Score         int            `json:"score"`
	Level         Level          `json:"level"`
	Contributions map[string]int `json:"contributions"`
}

// CalculateScore returns 50 plus the weight of every selected option, clamped to [0,100].
func CalculateScore(f Factors) (int, error) {
	res, err := Evaluate(f)
	if err != nil {
		return 0, err
	}
	return res.Score, nil
}

// Evaluate scores the factors and reports what each category contributed.
func Evaluate(f Factors) (Result, error) {
	selected := f.selections()
	contributions := make(map[string]int, len(categoryOrder))
	score := baseScore
	for _, category := range categoryOrder {
		w, err := Weight(category, selected[category])
		if err != nil {
			return Result{}, err
		}
		contributions[category] = w
		score += w
	}
	score = clamp(score)
	return Result{Score: score, Level: LevelFor(score), Contributions: contributions}, nil
}

// Weight returns the weight of one option within a category.
func Weight(category, value string) (int, error) {
	opts, ok := categories[category]
	if !ok {
		return 0, fmt.Errorf("%w: category %q", ErrUnknownOption, category)
	}
	for _, o := range opts {
		if o.name == value {
			return o.weight, nil
		}
	}
	return 0, fmt.Errorf("%w: %s=%q", ErrUnknownOption, category, value)
}

// LevelFor maps a score to low (<30), medium (<70) or high.
func LevelFor(score int) Level {
	switch {
	case score < lowThreshold:
		return LevelLow
	case score < mediumThreshold:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// Categories returns the category names in display order.
func Categories() []string {
	return append([]string(nil), categoryOrder...)
}

// Options returns a category's options ordered from best to worst.
func Options(category string) []string {
	opts := categories[category]
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.name
	}
	return out
}

func clamp(score int) int {
	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}
