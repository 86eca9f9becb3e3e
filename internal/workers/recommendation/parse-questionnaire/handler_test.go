package parsequestionnaire

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"bizmatch-workers/internal/catalog"
	"bizmatch-workers/internal/common/errors"
	"bizmatch-workers/internal/common/logger"
	"bizmatch-workers/internal/recommendation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func createTestHandler(t *testing.T) *Handler {
	return NewHandler(createTestConfig(), logger.NewTestLogger(t))
}

func createMockJob(key int64, variables string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		CustomHeaders:      "{}",
		Retries:            3,
		Variables:          variables,
	}}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	handler := createTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{RawForm: map[string]interface{}{
		"interests":  []interface{}{"Technology"},
		"budget":     []interface{}{200000.0},
		"location":   "urban",
		"experience": "Some",
		"filters": map[string]interface{}{
			"maxBudget": 50000.0,
		},
	}})

	require.NoError(t, err)
	assert.Equal(t, []catalog.Category{catalog.CategoryTechnology}, output.UserProfile.Interests)
	assert.Equal(t, 200000.0, output.UserProfile.Budget)
	assert.Equal(t, recommendation.LocationUrban, output.UserProfile.Location)
	assert.Equal(t, recommendation.ExperienceSome, output.UserProfile.Experience)
	require.NotNil(t, output.Filters.MaxBudget)
	assert.Equal(t, 50000, *output.Filters.MaxBudget)
	assert.Nil(t, output.Filters.Category)
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name         string
		input        *Input
		expectedCode errors.ErrorCode
	}{
		{
			name:         "missing form",
			input:        &Input{},
			expectedCode: errors.ErrCodeInvalidProfile,
		},
		{
			name:         "unknown interest",
			input:        &Input{RawForm: map[string]interface{}{"interests": "Astrology"}},
			expectedCode: errors.ErrCodeInvalidProfile,
		},
		{
			name:         "negative budget",
			input:        &Input{RawForm: map[string]interface{}{"budget": -100.0}},
			expectedCode: errors.ErrCodeInvalidProfile,
		},
		{
			name: "bad filter",
			input: &Input{RawForm: map[string]interface{}{
				"filters": map[string]interface{}{"minMatch": "abc"},
			}},
			expectedCode: errors.ErrCodeInvalidFilterFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := createTestHandler(t)
			output, err := handler.Execute(context.Background(), tt.input)

			require.Error(t, err)
			assert.Nil(t, output)
			assert.Equal(t, tt.expectedCode, errors.Normalize(err).Code)
		})
	}
}

// ==========================
// Input Parsing Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	handler := createTestHandler(t)

	input, err := handler.parseInput(createMockJob(1, `{"rawForm":{"interests":"Retail, Education","budget":"75,000"}}`))
	require.NoError(t, err)
	assert.Equal(t, "Retail, Education", input.RawForm["interests"])

	_, err = handler.parseInput(createMockJob(2, `{"rawForm":`))
	require.Error(t, err)
	assert.Equal(t, errors.ErrorCode("PARSE_ERROR"), errors.Normalize(err).Code)
}

func TestOutput_MatchesRegistryShape(t *testing.T) {
	handler := createTestHandler(t)
	output, err := handler.Execute(context.Background(), &Input{RawForm: map[string]interface{}{
		"interests": []interface{}{"Retail"},
		"budget":    30000.0,
	}})
	require.NoError(t, err)

	data, err := json.Marshal(output)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	profile := decoded["userProfile"].(map[string]interface{})
	assert.Equal(t, []interface{}{"Retail"}, profile["interests"])
	assert.Equal(t, 30000.0, profile["budget"])
	assert.NotContains(t, profile, "location")
	assert.Equal(t, map[string]interface{}{}, decoded["filters"])
}
