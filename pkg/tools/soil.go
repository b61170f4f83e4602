package tools

import "strings"

// SoilFactors are the agronomic inputs to the quality score. Missing
// measurements are represented by the zero value and simply earn no bonus.
type SoilFactors struct {
	PH               float64
	OrganicMatterPct float64
	FertilityClass   string
	DrainageClass    string
	HydrologicGroup  string
	NitrogenPPM      float64
	PhosphorusPPM    float64
	PotassiumPPM     float64
}

// ScoreSoilQuality computes a deterministic 0-100 quality score from soil
// measurements. The score starts at a base of 50 and each factor adds a
// bonus or penalty; the ideal profile (pH 6.5, high organic matter, high
// fertility, well drained, hydrologic group A, all nutrients sufficient)
// scores exactly 100.
func ScoreSoilQuality(f SoilFactors) float64 {
	score := 50.0

	// pH closeness to the 6.0-7.0 band
	switch {
	case f.PH >= 6.0 && f.PH <= 7.0:
		score += 10
	case f.PH >= 5.5 && f.PH <= 7.5:
		score += 5
	case f.PH > 0:
		score -= 5
	}

	// Organic matter thresholds
	switch {
	case f.OrganicMatterPct >= 3.5:
		score += 10
	case f.OrganicMatterPct >= 2.0:
		score += 5
	case f.OrganicMatterPct > 0 && f.OrganicMatterPct < 1.0:
		score -= 5
	}

	switch strings.ToLower(f.FertilityClass) {
	case "high":
		score += 10
	case "moderate":
		score += 5
	case "low":
		score -= 5
	}

	switch strings.ToLower(f.DrainageClass) {
	case "well drained":
		score += 8
	case "moderately well drained":
		score += 4
	case "poorly drained":
		score -= 8
	}

	switch strings.ToUpper(f.HydrologicGroup) {
	case "A":
		score += 6
	case "B":
		score += 4
	case "C":
		score += 1
	case "D":
		score -= 4
	}

	// Nutrient sufficiency thresholds, ppm
	if f.NitrogenPPM >= 20 {
		score += 2
	}
	if f.PhosphorusPPM >= 25 {
		score += 2
	}
	if f.PotassiumPPM >= 150 {
		score += 2
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// QualityClass maps a numeric score to the coarse label used in
// soil-analysis results.
func QualityClass(score float64) string {
	switch {
	case score >= 80:
		return "High"
	case score >= 60:
		return "Moderate"
	default:
		return "Low"
	}
}
