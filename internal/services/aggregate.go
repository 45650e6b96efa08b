package services

import "shortlister/internal/models"

// OverallPercent computes the weighted average of per-requisite scores,
// rounded half-up to an integer. The two slices are parallel: results[i]
// is the judgment for requisites[i]. Placeholder results contribute their
// zero score at full weight.
func OverallPercent(requisites []models.Requisite, results []models.CriterionResult) int {
	weightedSum := 0
	totalWeight := 0
	for i, req := range requisites {
		weightedSum += clampPercent(results[i].ScorePercent) * req.Weight
		totalWeight += req.Weight
	}
	if totalWeight == 0 {
		return 0
	}

	// Integer round-half-up: floor((2*sum + total) / (2*total)).
	overall := (2*weightedSum + totalWeight) / (2 * totalWeight)
	return clampPercent(overall)
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
