package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shortlister/internal/models"
)

func TestOverallPercentWeightedAverage(t *testing.T) {
	requisites := []models.Requisite{
		{Name: "A", Weight: 70},
		{Name: "B", Weight: 30},
	}
	results := []models.CriterionResult{
		{Requisite: "A", ScorePercent: 80},
		{Requisite: "B", ScorePercent: 50},
	}

	assert.Equal(t, 71, OverallPercent(requisites, results))
}

func TestOverallPercentRoundsHalfUp(t *testing.T) {
	tests := []struct {
		name    string
		weights []int
		scores  []int
		want    int
	}{
		{"two requisites", []int{60, 40}, []int{90, 100}, 94},
		{"midpoint rounds up", []int{50, 50}, []int{1, 2}, 2},
		{"exact average", []int{50, 50}, []int{80, 60}, 70},
		{"single requisite", []int{100}, []int{73}, 73},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requisites []models.Requisite
			var results []models.CriterionResult
			for i, w := range tt.weights {
				requisites = append(requisites, models.Requisite{Name: string(rune('A' + i)), Weight: w})
				results = append(results, models.CriterionResult{ScorePercent: tt.scores[i]})
			}
			assert.Equal(t, tt.want, OverallPercent(requisites, results))
		})
	}
}

func TestOverallPercentClampsScores(t *testing.T) {
	requisites := []models.Requisite{{Name: "A", Weight: 100}}

	assert.Equal(t, 100, OverallPercent(requisites, []models.CriterionResult{{ScorePercent: 150}}))
	assert.Equal(t, 0, OverallPercent(requisites, []models.CriterionResult{{ScorePercent: -5}}))
}

func TestOverallPercentFailedJudgmentDragsScore(t *testing.T) {
	requisites := []models.Requisite{
		{Name: "A", Weight: 50},
		{Name: "B", Weight: 50},
	}
	results := []models.CriterionResult{
		{Requisite: "A", ScorePercent: 80, Rationale: "Scored."},
		{Requisite: "B", ScorePercent: 0, Rationale: failedJudgmentRationale},
	}

	assert.Equal(t, 40, OverallPercent(requisites, results))
}

func TestOverallPercentNoRequisites(t *testing.T) {
	assert.Equal(t, 0, OverallPercent(nil, nil))
}

func TestClampPercent(t *testing.T) {
	assert.Equal(t, 0, clampPercent(-1))
	assert.Equal(t, 0, clampPercent(0))
	assert.Equal(t, 55, clampPercent(55))
	assert.Equal(t, 100, clampPercent(100))
	assert.Equal(t, 100, clampPercent(250))
}
