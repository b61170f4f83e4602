package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acreview/landchat/pkg/llm"
	"github.com/acreview/landchat/pkg/warehouse"
)

// stubConnector returns fixed rows and can be set to fail.
type stubConnector struct {
	boundary  warehouse.Row
	soil      []warehouse.Row
	history   []warehouse.Row
	search    []warehouse.Row
	analysis  warehouse.Row
	estimates warehouse.Row
	err       error
}

func (s *stubConnector) GetPropertyBoundaries(ctx context.Context, propertyID string) (warehouse.Row, error) {
	return s.boundary, s.err
}

func (s *stubConnector) GetSoilData(ctx context.Context, propertyID string) ([]warehouse.Row, error) {
	return s.soil, s.err
}

func (s *stubConnector) SearchPropertiesByCriteria(ctx context.Context, filters warehouse.SearchFilters, limit int) ([]warehouse.Row, error) {
	return s.search, s.err
}

func (s *stubConnector) GetCropHistory(ctx context.Context, propertyID string, years int) ([]warehouse.Row, error) {
	return s.history, s.err
}

func (s *stubConnector) GetComprehensiveAnalysis(ctx context.Context, propertyID string) (warehouse.Row, error) {
	return s.analysis, s.err
}

func (s *stubConnector) GetSection180Estimates(ctx context.Context, propertyID string) (warehouse.Row, error) {
	return s.estimates, s.err
}

func (s *stubConnector) Close() error { return nil }

func goodSoilRow() warehouse.Row {
	return warehouse.Row{
		"SOIL_SERIES":          "Drummer",
		"SOIL_TYPE":            "Clay Loam",
		"COMPONENT_PERCENTAGE": 100.0,
		"PH_LEVEL":             6.5,
		"ORGANIC_MATTER_PCT":   4.0,
		"FERTILITY_CLASS":      "high",
		"DRAINAGE_CLASS":       "well drained",
		"HYDROLOGIC_GROUP":     "A",
		"NITROGEN_PPM":         25.0,
		"PHOSPHORUS_PPM":       30.0,
		"POTASSIUM_PPM":        180.0,
	}
}

func call(name, args string) llm.ToolCall {
	return llm.ToolCall{
		ID:   "call_" + name,
		Type: llm.ToolTypeFunction,
		Function: llm.ToolCallFunction{
			Name:      name,
			Arguments: args,
		},
	}
}

func TestSpecsListsFiveTools(t *testing.T) {
	registry := NewRegistry(&stubConnector{}, nil)

	specs := registry.Specs()
	require.Len(t, specs, 5)

	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		assert.Equal(t, llm.ToolTypeFunction, spec.Type)
		assert.NotEmpty(t, spec.Function.Description)
		assert.NotNil(t, spec.Function.Parameters)
		names = append(names, spec.Function.Name)
	}
	assert.Equal(t, []string{
		"search_properties",
		"get_soil_analysis",
		"get_crop_recommendations",
		"calculate_lease_value",
		"check_section_180_eligibility",
	}, names)
}

func TestDispatchUnknownToolDoesNotAbortBatch(t *testing.T) {
	conn := &stubConnector{
		boundary: warehouse.Row{"PARCEL_ID": "42", "ADDRESS": "123 Ranch Rd", "ACRES": 500.0},
		soil:     []warehouse.Row{goodSoilRow()},
	}
	registry := NewRegistry(conn, nil)

	sources := registry.Dispatch(context.Background(), []llm.ToolCall{
		call("get_soil_analysis", `{"property_id":"42"}`),
		call("divine_water_rights", `{"property_id":"42"}`),
		call("calculate_lease_value", `{"property_id":"42","lease_type":"crop"}`),
	})

	require.Len(t, sources, 3)

	soil := sources[0].Result.(map[string]any)
	assert.Equal(t, "High", soil["overall_quality"])

	unknown := sources[1].Result.(map[string]any)
	assert.Equal(t, "Unknown function: divine_water_rights", unknown["error"])

	lease := sources[2].Result.(map[string]any)
	assert.Equal(t, "crop", lease["lease_type"])
	assert.NotContains(t, lease, "error")
}

func TestDispatchMalformedArguments(t *testing.T) {
	registry := NewRegistry(&stubConnector{}, nil)

	sources := registry.Dispatch(context.Background(), []llm.ToolCall{
		call("get_soil_analysis", `{"property_id":`),
	})

	require.Len(t, sources, 1)
	result := sources[0].Result.(map[string]any)
	assert.Contains(t, result["error"], "Invalid arguments for get_soil_analysis")
	assert.Nil(t, sources[0].Arguments)
}

func TestDispatchHandlerErrorIsContained(t *testing.T) {
	registry := NewRegistry(&stubConnector{err: errors.New("warehouse unavailable")}, nil)

	sources := registry.Dispatch(context.Background(), []llm.ToolCall{
		call("get_soil_analysis", `{"property_id":"42"}`),
	})

	require.Len(t, sources, 1)
	result := sources[0].Result.(map[string]any)
	assert.Equal(t, "warehouse unavailable", result["error"])
}

func TestSoilAnalysisPropertyNotFound(t *testing.T) {
	registry := NewRegistry(&stubConnector{}, nil)

	sources := registry.Dispatch(context.Background(), []llm.ToolCall{
		call("get_soil_analysis", `{"property_id":"nope"}`),
	})

	require.Len(t, sources, 1)
	result := sources[0].Result.(map[string]any)
	assert.Equal(t, "Property not found: nope", result["error"])
}

func TestSoilAnalysisAggregatesComponents(t *testing.T) {
	weak := goodSoilRow()
	weak["COMPONENT_PERCENTAGE"] = 40.0
	weak["PH_LEVEL"] = 4.5
	weak["FERTILITY_CLASS"] = "low"
	weak["DRAINAGE_CLASS"] = "poorly drained"
	weak["HYDROLOGIC_GROUP"] = "D"
	strong := goodSoilRow()
	strong["COMPONENT_PERCENTAGE"] = 60.0

	conn := &stubConnector{
		boundary: warehouse.Row{"PARCEL_ID": "42", "ADDRESS": "123 Ranch Rd", "ACRES": 500.0},
		soil:     []warehouse.Row{strong, weak},
	}
	registry := NewRegistry(conn, nil)

	sources := registry.Dispatch(context.Background(), []llm.ToolCall{
		call("get_soil_analysis", `{"property_id":"42"}`),
	})

	result := sources[0].Result.(map[string]any)
	components := result["components"].([]map[string]any)
	require.Len(t, components, 2)

	score := result["overall_score"].(float64)
	assert.Greater(t, score, 0.0)
	assert.Less(t, score, 100.0)
	assert.NotEmpty(t, result["recommendations"])
}

func TestLeaseValueUsesAcreage(t *testing.T) {
	conn := &stubConnector{
		boundary: warehouse.Row{"PARCEL_ID": "42", "ACRES": 100.0},
	}
	registry := NewRegistry(conn, nil)

	sources := registry.Dispatch(context.Background(), []llm.ToolCall{
		call("calculate_lease_value", `{"property_id":"42","lease_type":"pasture"}`),
	})

	result := sources[0].Result.(map[string]any)
	assert.Equal(t, 100.0, result["acres"])

	totals := result["estimated_annual_total"].(map[string]float64)
	assert.Equal(t, 4500.0, totals["average"])
	assert.Equal(t, 3000.0, totals["min"])
	assert.Equal(t, 6000.0, totals["max"])
}

func TestSection180FallsBackToAnalysis(t *testing.T) {
	conn := &stubConnector{
		analysis: warehouse.Row{"PARCEL_ID": "42", "SECTION_180_POTENTIAL": "High"},
	}
	registry := NewRegistry(conn, nil)

	sources := registry.Dispatch(context.Background(), []llm.ToolCall{
		call("check_section_180_eligibility", `{"property_id":"42"}`),
	})

	result := sources[0].Result.(map[string]any)
	assert.Equal(t, true, result["eligible"])
	assert.Equal(t, "High", result["section_180_potential"])
}

func TestSection180UsesStoredEstimate(t *testing.T) {
	conn := &stubConnector{
		estimates: warehouse.Row{
			"PARCEL_ID":       "42",
			"TOTAL_DEDUCTION": 52500.0,
			"NITROGEN_VALUE":  20000.0,
		},
	}
	registry := NewRegistry(conn, nil)

	sources := registry.Dispatch(context.Background(), []llm.ToolCall{
		call("check_section_180_eligibility", `{"property_id":"42"}`),
	})

	result := sources[0].Result.(map[string]any)
	assert.Equal(t, true, result["eligible"])
	assert.Equal(t, 52500.0, result["potential_deduction"])
}

func TestEmptyArgumentsTreatedAsEmptyObject(t *testing.T) {
	registry := NewRegistry(&stubConnector{}, nil)

	sources := registry.Dispatch(context.Background(), []llm.ToolCall{
		call("search_properties", ""),
	})

	require.Len(t, sources, 1)
	result := sources[0].Result.(map[string]any)
	assert.Equal(t, 0, result["total"])
}
