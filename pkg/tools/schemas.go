package tools

import (
	"fmt"

	"github.com/acreview/landchat/pkg/llm"
)

// Parameter structs for the tool schemas. The JSON Schema sent to
// providers is reflected from these with llm.SchemaFromStructAsMap.

// SearchPropertiesArgs are the arguments for search_properties.
type SearchPropertiesArgs struct {
	Query   string         `json:"query" required:"true" description:"Search query"`
	Filters *SearchFilters `json:"filters,omitempty" description:"Search filters"`
}

// SearchFilters narrows a property search.
type SearchFilters struct {
	MinAcreage  *float64 `json:"min_acreage,omitempty" description:"Minimum acreage"`
	MaxAcreage  *float64 `json:"max_acreage,omitempty" description:"Maximum acreage"`
	County      string   `json:"county,omitempty" description:"County name"`
	State       string   `json:"state,omitempty" description:"Two-letter state code"`
	SoilQuality string   `json:"soil_quality,omitempty" description:"Desired soil quality class"`
}

// SoilAnalysisArgs are the arguments for get_soil_analysis.
type SoilAnalysisArgs struct {
	PropertyID string `json:"property_id" required:"true" description:"Property ID"`
}

// CropRecommendationsArgs are the arguments for get_crop_recommendations.
type CropRecommendationsArgs struct {
	PropertyID string `json:"property_id" required:"true" description:"Property ID"`
	Season     string `json:"season,omitempty" description:"Planting season" enum:"spring,summer,fall,winter"`
}

// LeaseValueArgs are the arguments for calculate_lease_value.
type LeaseValueArgs struct {
	PropertyID string `json:"property_id" required:"true" description:"Property ID"`
	LeaseType  string `json:"lease_type" required:"true" description:"Type of lease" enum:"crop,pasture,hunting,mixed"`
}

// Section180Args are the arguments for check_section_180_eligibility.
type Section180Args struct {
	PropertyID string `json:"property_id" required:"true" description:"Property ID"`
}

// buildSpecs reflects the five tool schemas. Reflection only fails on
// unrepresentable types, so a failure here is a programming error.
func buildSpecs() []llm.Tool {
	return []llm.Tool{
		mustTool("search_properties", "Search for properties based on criteria", SearchPropertiesArgs{}),
		mustTool("get_soil_analysis", "Get soil analysis for a property", SoilAnalysisArgs{}),
		mustTool("get_crop_recommendations", "Get crop recommendations for a property", CropRecommendationsArgs{}),
		mustTool("calculate_lease_value", "Calculate potential lease value for a property", LeaseValueArgs{}),
		mustTool("check_section_180_eligibility", "Check if property is eligible for Section 180 tax deduction", Section180Args{}),
	}
}

func mustTool(name, description string, args any) llm.Tool {
	schema, err := llm.SchemaFromStructAsMap(args)
	if err != nil {
		panic(fmt.Sprintf("reflecting schema for %s: %v", name, err))
	}
	return llm.NewFunctionTool(name, description, schema)
}
