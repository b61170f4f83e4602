package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acreview/landchat/pkg/llm"
	"github.com/acreview/landchat/pkg/providers/mock"
	"github.com/acreview/landchat/pkg/tools"
	"github.com/acreview/landchat/pkg/warehouse"
)

// fakeConnector serves canned warehouse rows for one parcel.
type fakeConnector struct {
	boundary warehouse.Row
	soil     []warehouse.Row
}

func (f *fakeConnector) GetPropertyBoundaries(ctx context.Context, propertyID string) (warehouse.Row, error) {
	return f.boundary, nil
}

func (f *fakeConnector) GetSoilData(ctx context.Context, propertyID string) ([]warehouse.Row, error) {
	return f.soil, nil
}

func (f *fakeConnector) SearchPropertiesByCriteria(ctx context.Context, filters warehouse.SearchFilters, limit int) ([]warehouse.Row, error) {
	return nil, nil
}

func (f *fakeConnector) GetCropHistory(ctx context.Context, propertyID string, years int) ([]warehouse.Row, error) {
	return nil, nil
}

func (f *fakeConnector) GetComprehensiveAnalysis(ctx context.Context, propertyID string) (warehouse.Row, error) {
	return nil, nil
}

func (f *fakeConnector) GetSection180Estimates(ctx context.Context, propertyID string) (warehouse.Row, error) {
	return nil, nil
}

func (f *fakeConnector) Close() error { return nil }

func testConnector() *fakeConnector {
	return &fakeConnector{
		boundary: warehouse.Row{
			"PARCEL_ID": "42",
			"ADDRESS":   "123 Ranch Rd",
			"COUNTY_ID": "Travis",
			"ACRES":     500.0,
		},
		soil: []warehouse.Row{{
			"SOIL_SERIES":          "Drummer",
			"SOIL_TYPE":            "Clay Loam",
			"COMPONENT_PERCENTAGE": 60.0,
			"PH_LEVEL":             6.5,
			"ORGANIC_MATTER_PCT":   4.0,
			"FERTILITY_CLASS":      "high",
			"DRAINAGE_CLASS":       "well drained",
			"HYDROLOGIC_GROUP":     "A",
			"NITROGEN_PPM":         25.0,
			"PHOSPHORUS_PPM":       30.0,
			"POTASSIUM_PPM":        180.0,
		}},
	}
}

func testService(t *testing.T, client llm.Client) *Service {
	t.Helper()

	service, err := NewService(Params{
		Client: client,
		Tools:  tools.NewRegistry(testConnector(), nil),
		Retry: llm.RetryConfig{
			MaxRetries:    2,
			BaseDelay:     time.Millisecond,
			MaxDelay:      5 * time.Millisecond,
			BackoffFactor: 2.0,
		},
	})
	require.NoError(t, err)
	return service
}

func TestGenerateResponseWithoutToolCalls(t *testing.T) {
	client, err := mock.NewClient("mock-model", "mock")
	require.NoError(t, err)
	client.WithSimpleResponse("Hello!")

	service := testService(t, client)

	text, sources := service.GenerateResponse(context.Background(), Request{
		History:      []llm.Message{llm.NewTextMessage(llm.RoleUser, "Hi")},
		SystemPrompt: "You are helpful",
	})

	assert.Equal(t, "Hello!", text)
	assert.Nil(t, sources)

	callLog := client.GetCallLog()
	require.Len(t, callLog, 1)
	assert.Len(t, callLog[0].Tools, 5)
	assert.Equal(t, llm.RoleSystem, callLog[0].Messages[0].Role)
	assert.Equal(t, "You are helpful", callLog[0].Messages[0].Content)
}

func TestGenerateResponseWithToolCalls(t *testing.T) {
	client, err := mock.NewClient("mock-model", "mock")
	require.NoError(t, err)
	client.WithToolCalls(llm.ToolCall{
		ID:   "call_1",
		Type: llm.ToolTypeFunction,
		Function: llm.ToolCallFunction{
			Name:      "get_soil_analysis",
			Arguments: `{"property_id":"42"}`,
		},
	})
	client.WithSimpleResponse("Soil is excellent.")

	service := testService(t, client)

	text, sources := service.GenerateResponse(context.Background(), Request{
		History:      []llm.Message{llm.NewTextMessage(llm.RoleUser, "How is the soil on parcel 42?")},
		SystemPrompt: "You are helpful",
	})

	assert.Equal(t, "Soil is excellent.", text)
	require.Len(t, sources, 1)
	assert.Equal(t, "get_soil_analysis", sources[0].Function)
	assert.Equal(t, map[string]any{"property_id": "42"}, sources[0].Arguments)

	result, ok := sources[0].Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "High", result["overall_quality"])

	// The grounding call replays the tool turn and carries the result.
	callLog := client.GetCallLog()
	require.Len(t, callLog, 2)
	assert.Empty(t, callLog[1].Tools)

	var toolMsg *llm.Message
	for i := range callLog[1].Messages {
		if callLog[1].Messages[i].Role == llm.RoleTool {
			toolMsg = &callLog[1].Messages[i]
		}
	}
	require.NotNil(t, toolMsg)
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
	assert.Contains(t, toolMsg.Content, "overall_quality")
}

func TestGenerateResponseFoldsResultsWithoutNativeToolIDs(t *testing.T) {
	client, err := mock.NewClient("mock-model", "mock")
	require.NoError(t, err)
	client.WithModelInfo(llm.ModelInfo{
		Name:          "mock-model",
		Provider:      "mock",
		MaxTokens:     4096,
		SupportsTools: true,
		NativeToolIDs: false,
	})
	client.WithToolCalls(llm.ToolCall{
		ID:   "call_1",
		Type: llm.ToolTypeFunction,
		Function: llm.ToolCallFunction{
			Name:      "get_soil_analysis",
			Arguments: `{"property_id":"42"}`,
		},
	})
	client.WithSimpleResponse("Soil is excellent.")

	service := testService(t, client)

	text, sources := service.GenerateResponse(context.Background(), Request{
		History: []llm.Message{llm.NewTextMessage(llm.RoleUser, "How is the soil?")},
	})

	assert.Equal(t, "Soil is excellent.", text)
	require.Len(t, sources, 1)

	callLog := client.GetCallLog()
	require.Len(t, callLog, 2)

	// No structured tool turn; the results arrive as a user digest.
	last := callLog[1].Messages[len(callLog[1].Messages)-1]
	assert.Equal(t, llm.RoleUser, last.Role)
	assert.Contains(t, last.Content, "get_soil_analysis")
	assert.Contains(t, last.Content, "overall_quality")
	for _, msg := range callLog[1].Messages {
		assert.NotEqual(t, llm.RoleTool, msg.Role)
	}
}

func TestGenerateResponseRendersContextMessage(t *testing.T) {
	client, err := mock.NewClient("mock-model", "mock")
	require.NoError(t, err)
	client.WithSimpleResponse("Noted.")

	service := testService(t, client)

	_, _ = service.GenerateResponse(context.Background(), Request{
		History:      []llm.Message{llm.NewTextMessage(llm.RoleUser, "Hi")},
		SystemPrompt: "You are helpful",
		PropertyContext: map[string]any{
			"parcel_id": "42",
			"acres":     500,
		},
		UserPreferences: map[string]any{
			"preferred_crops": []string{"corn"},
		},
	})

	callLog := client.GetCallLog()
	require.Len(t, callLog, 1)
	require.GreaterOrEqual(t, len(callLog[0].Messages), 3)

	contextMsg := callLog[0].Messages[1]
	assert.Equal(t, llm.RoleSystem, contextMsg.Role)
	assert.Contains(t, contextMsg.Content, "Property context:")
	assert.Contains(t, contextMsg.Content, `"parcel_id": "42"`)
	assert.Contains(t, contextMsg.Content, "User preferences:")
	assert.Contains(t, contextMsg.Content, "preferred_crops")
}

func TestGenerateResponseApologyAfterRetries(t *testing.T) {
	client, err := mock.NewClient("mock-model", "mock")
	require.NoError(t, err)
	client.WithError("server_error", "upstream down", llm.ErrorTypeAPI)
	client.WithError("server_error", "upstream down", llm.ErrorTypeAPI)
	client.WithError("server_error", "upstream down", llm.ErrorTypeAPI)

	service := testService(t, client)

	start := time.Now()
	text, sources := service.GenerateResponse(context.Background(), Request{
		History: []llm.Message{llm.NewTextMessage(llm.RoleUser, "Hi")},
	})

	assert.Equal(t, apologyMessage, text)
	assert.Nil(t, sources)
	assert.Len(t, client.GetCallLog(), 3)
	assert.True(t, strings.HasPrefix(text, "I apologize"))
	assert.Less(t, time.Since(start), time.Second)
}
