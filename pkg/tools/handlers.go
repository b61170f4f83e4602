package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/acreview/landchat/pkg/warehouse"
)

// Per-acre annual lease rates in USD, by lease type.
var leaseRates = map[string]map[string]float64{
	"crop":    {"min": 150, "max": 250, "average": 200},
	"pasture": {"min": 30, "max": 60, "average": 45},
	"hunting": {"min": 10, "max": 25, "average": 15},
	"mixed":   {"min": 100, "max": 200, "average": 150},
}

func (r *Registry) searchProperties(ctx context.Context, rawArgs json.RawMessage) (any, error) {
	var args SearchPropertiesArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	filters := warehouse.SearchFilters{}
	if args.Filters != nil {
		filters.MinAcreage = args.Filters.MinAcreage
		filters.MaxAcreage = args.Filters.MaxAcreage
		filters.County = args.Filters.County
		filters.State = args.Filters.State
	}

	properties, err := r.conn.SearchPropertiesByCriteria(ctx, filters, 25)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"query":      args.Query,
		"properties": properties,
		"total":      len(properties),
	}, nil
}

func (r *Registry) getSoilAnalysis(ctx context.Context, rawArgs json.RawMessage) (any, error) {
	var args SoilAnalysisArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	boundary, err := r.conn.GetPropertyBoundaries(ctx, args.PropertyID)
	if err != nil {
		return nil, err
	}
	if boundary == nil {
		return map[string]any{"error": fmt.Sprintf("Property not found: %s", args.PropertyID)}, nil
	}

	soilRows, err := r.conn.GetSoilData(ctx, args.PropertyID)
	if err != nil {
		return nil, err
	}
	if len(soilRows) == 0 {
		return map[string]any{
			"property_id": args.PropertyID,
			"address":     boundary["ADDRESS"],
			"error":       "No soil records available for this property",
		}, nil
	}

	// Score each soil component and aggregate weighted by coverage.
	var components []map[string]any
	var weightedScore, weightedPH, weightedOM, totalPct float64
	for _, row := range soilRows {
		factors := SoilFactors{
			PH:               rowFloat(row, "PH_LEVEL"),
			OrganicMatterPct: rowFloat(row, "ORGANIC_MATTER_PCT"),
			FertilityClass:   rowString(row, "FERTILITY_CLASS"),
			DrainageClass:    rowString(row, "DRAINAGE_CLASS"),
			HydrologicGroup:  rowString(row, "HYDROLOGIC_GROUP"),
			NitrogenPPM:      rowFloat(row, "NITROGEN_PPM"),
			PhosphorusPPM:    rowFloat(row, "PHOSPHORUS_PPM"),
			PotassiumPPM:     rowFloat(row, "POTASSIUM_PPM"),
		}
		score := ScoreSoilQuality(factors)
		pct := rowFloat(row, "COMPONENT_PERCENTAGE")
		if pct <= 0 {
			pct = 1
		}

		weightedScore += score * pct
		weightedPH += factors.PH * pct
		weightedOM += factors.OrganicMatterPct * pct
		totalPct += pct

		components = append(components, map[string]any{
			"soil_series":          rowString(row, "SOIL_SERIES"),
			"soil_type":            rowString(row, "SOIL_TYPE"),
			"component_percentage": pct,
			"quality_score":        score,
			"ph":                   factors.PH,
			"organic_matter_pct":   factors.OrganicMatterPct,
			"fertility_class":      factors.FertilityClass,
			"drainage_class":       factors.DrainageClass,
			"hydrologic_group":     factors.HydrologicGroup,
		})
	}

	overallScore := weightedScore / totalPct
	avgPH := weightedPH / totalPct
	avgOM := weightedOM / totalPct

	return map[string]any{
		"property_id":            args.PropertyID,
		"address":                boundary["ADDRESS"],
		"county":                 boundary["COUNTY_ID"],
		"acres":                  boundary["ACRES"],
		"overall_quality":        QualityClass(overallScore),
		"overall_score":          overallScore,
		"avg_ph":                 avgPH,
		"avg_organic_matter_pct": avgOM,
		"recommendations":        soilRecommendations(overallScore, avgPH, avgOM),
		"components":             components,
	}, nil
}

// soilRecommendations derives management advice from the aggregate profile.
func soilRecommendations(score, ph, organicMatter float64) []string {
	var recs []string
	switch {
	case score >= 80:
		recs = append(recs, "Well suited for row crops such as corn and soybeans")
	case score >= 60:
		recs = append(recs, "Suitable for small grains and forage crops")
	default:
		recs = append(recs, "Best suited for pasture or conservation use")
	}
	if ph > 0 && ph < 6.0 {
		recs = append(recs, "Consider lime application to raise pH toward the 6.0-7.0 range")
	}
	if ph > 7.5 {
		recs = append(recs, "Alkaline soil; select tolerant varieties or amend with sulfur")
	}
	if organicMatter > 0 && organicMatter < 2.0 {
		recs = append(recs, "Build organic matter with cover crops or reduced tillage")
	}
	return recs
}

func (r *Registry) getCropRecommendations(ctx context.Context, rawArgs json.RawMessage) (any, error) {
	var args CropRecommendationsArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	season := args.Season
	if season == "" {
		season = "spring"
	}

	soilRows, err := r.conn.GetSoilData(ctx, args.PropertyID)
	if err != nil {
		return nil, err
	}
	history, err := r.conn.GetCropHistory(ctx, args.PropertyID, 5)
	if err != nil {
		return nil, err
	}

	var score float64 = 50
	if len(soilRows) > 0 {
		score = ScoreSoilQuality(SoilFactors{
			PH:               rowFloat(soilRows[0], "PH_LEVEL"),
			OrganicMatterPct: rowFloat(soilRows[0], "ORGANIC_MATTER_PCT"),
			FertilityClass:   rowString(soilRows[0], "FERTILITY_CLASS"),
			DrainageClass:    rowString(soilRows[0], "DRAINAGE_CLASS"),
			HydrologicGroup:  rowString(soilRows[0], "HYDROLOGIC_GROUP"),
			NitrogenPPM:      rowFloat(soilRows[0], "NITROGEN_PPM"),
			PhosphorusPPM:    rowFloat(soilRows[0], "PHOSPHORUS_PPM"),
			PotassiumPPM:     rowFloat(soilRows[0], "POTASSIUM_PPM"),
		})
	}

	recentCrops := make(map[string]bool)
	for _, row := range history {
		if crop := rowString(row, "CROP_TYPE"); crop != "" {
			recentCrops[strings.ToLower(crop)] = true
		}
	}

	return map[string]any{
		"property_id":     args.PropertyID,
		"season":          season,
		"soil_score":      score,
		"recent_crops":    mapKeys(recentCrops),
		"recommendations": cropCandidates(score, season, recentCrops),
	}, nil
}

// cropCandidates ranks crops by soil suitability with a rotation bonus for
// crops not grown in the recent history.
func cropCandidates(soilScore float64, season string, recentCrops map[string]bool) []map[string]any {
	type candidate struct {
		crop     string
		base     float64
		expected string
		revenue  string
	}
	var pool []candidate
	if season == "fall" || season == "winter" {
		pool = []candidate{
			{"Winter Wheat", 0.95, "55 bushels/acre", "$400/acre"},
			{"Cover Crop Mix", 0.85, "n/a", "soil health investment"},
			{"Winter Rye", 0.80, "45 bushels/acre", "$300/acre"},
		}
	} else {
		pool = []candidate{
			{"Corn", 1.0, "180 bushels/acre", "$900/acre"},
			{"Soybeans", 0.95, "50 bushels/acre", "$750/acre"},
			{"Grain Sorghum", 0.85, "90 bushels/acre", "$450/acre"},
			{"Alfalfa Hay", 0.75, "4 tons/acre", "$600/acre"},
		}
	}

	var out []map[string]any
	for _, c := range pool {
		suitability := soilScore * c.base
		if !recentCrops[strings.ToLower(c.crop)] {
			// Rotation benefit for a crop absent from recent history.
			suitability += 5
		}
		if suitability > 100 {
			suitability = 100
		}
		out = append(out, map[string]any{
			"crop":              c.crop,
			"suitability_score": suitability,
			"expected_yield":    c.expected,
			"revenue_potential": c.revenue,
		})
	}
	return out
}

func (r *Registry) calculateLeaseValue(ctx context.Context, rawArgs json.RawMessage) (any, error) {
	var args LeaseValueArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	rates, ok := leaseRates[args.LeaseType]
	if !ok {
		rates = leaseRates["mixed"]
	}

	result := map[string]any{
		"property_id":    args.PropertyID,
		"lease_type":     args.LeaseType,
		"value_per_acre": rates,
		"currency":       "USD",
		"period":         "per year",
	}

	boundary, err := r.conn.GetPropertyBoundaries(ctx, args.PropertyID)
	if err != nil {
		return nil, err
	}
	if boundary != nil {
		if acres := rowFloat(boundary, "ACRES"); acres > 0 {
			result["acres"] = acres
			result["estimated_annual_total"] = map[string]float64{
				"min":     acres * rates["min"],
				"max":     acres * rates["max"],
				"average": acres * rates["average"],
			}
		}
	}

	return result, nil
}

func (r *Registry) checkSection180Eligibility(ctx context.Context, rawArgs json.RawMessage) (any, error) {
	var args Section180Args
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	estimate, err := r.conn.GetSection180Estimates(ctx, args.PropertyID)
	if err != nil {
		return nil, err
	}
	if estimate != nil {
		return map[string]any{
			"property_id":         args.PropertyID,
			"eligible":            true,
			"potential_deduction": estimate["TOTAL_DEDUCTION"],
			"nutrient_values": map[string]any{
				"nitrogen":   estimate["NITROGEN_VALUE"],
				"phosphorus": estimate["PHOSPHORUS_VALUE"],
				"potassium":  estimate["POTASSIUM_VALUE"],
			},
			"confidence_score": estimate["CONFIDENCE_SCORE"],
			"methodology":      estimate["METHODOLOGY"],
			"estimate_date":    estimate["ESTIMATE_DATE"],
		}, nil
	}

	// No stored estimate; fall back to the land-cover analysis signal.
	analysis, err := r.conn.GetComprehensiveAnalysis(ctx, args.PropertyID)
	if err != nil {
		return nil, err
	}
	if analysis != nil {
		potential := rowString(analysis, "SECTION_180_POTENTIAL")
		return map[string]any{
			"property_id":           args.PropertyID,
			"eligible":              strings.EqualFold(potential, "high") || strings.EqualFold(potential, "moderate"),
			"section_180_potential": potential,
			"requirements": []string{
				"Soil testing required",
				"Must be used for agricultural production",
				"Deduction available for residual soil fertility",
			},
			"next_steps": []string{
				"Schedule soil testing",
				"Consult with tax advisor",
				"Document current land use",
			},
		}, nil
	}

	return map[string]any{"error": fmt.Sprintf("Property not found: %s", args.PropertyID)}, nil
}

// rowFloat coerces a warehouse column value to float64. Snowflake NUMBER
// columns may arrive as *big.Float or *big.Rat through the driver.
func rowFloat(row warehouse.Row, column string) float64 {
	switch v := row[column].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case *big.Float:
		f, _ := v.Float64()
		return f
	case *big.Rat:
		f, _ := v.Float64()
		return f
	case json.Number:
		f, _ := v.Float64()
		return f
	default:
		return 0
	}
}

func rowString(row warehouse.Row, column string) string {
	if s, ok := row[column].(string); ok {
		return s
	}
	return ""
}

func mapKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
