package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)
	require.NoError(t, reg.Validate())

	for _, taskType := range []string{"parse-questionnaire", "generate-recommendations", "resolve-business-detail"} {
		activity, ok := reg.Find(taskType)
		require.True(t, ok, taskType)
		assert.NotEmpty(t, activity.InputSchema, taskType)
		timeout, err := activity.TimeoutDuration()
		require.NoError(t, err)
		assert.Positive(t, timeout, taskType)
	}
}

func TestValidateInput_GenerateRecommendations(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	tests := []struct {
		name  string
		input map[string]interface{}
		valid bool
	}{
		{
			name: "complete",
			input: map[string]interface{}{
				"userProfile": map[string]interface{}{
					"interests":  []interface{}{"Technology", "Retail"},
					"budget":     150000.0,
					"location":   "Online Only",
					"experience": "some",
				},
				"filters": map[string]interface{}{"maxBudget": 200000.0, "minMatch": 50.0},
				"limit":   5.0,
			},
			valid: true,
		},
		{
			name:  "null filters",
			input: map[string]interface{}{"userProfile": map[string]interface{}{"budget": 0.0}, "filters": nil},
			valid: true,
		},
		{name: "missing profile", input: map[string]interface{}{}, valid: false},
		{
			name:  "unknown interest",
			input: map[string]interface{}{"userProfile": map[string]interface{}{"budget": 1.0, "interests": []interface{}{"Gaming"}}},
			valid: false,
		},
		{
			name:  "negative budget",
			input: map[string]interface{}{"userProfile": map[string]interface{}{"budget": -5.0}},
			valid: false,
		},
		{
			name: "min match above 100",
			input: map[string]interface{}{
				"userProfile": map[string]interface{}{"budget": 1.0},
				"filters":     map[string]interface{}{"minMatch": 101.0},
			},
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := reg.ValidateInput("generate-recommendations", tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid, result.GetErrorMessages())
		})
	}
}

func TestValidateInput_UnknownTaskType(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	result, err := reg.ValidateInput("no-such-task", map[string]interface{}{"x": 1})
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name   string
		reg    ActivityRegistry
		errMsg string
	}{
		{name: "empty", reg: ActivityRegistry{}, errMsg: "no activities"},
		{
			name:   "duplicate id",
			reg:    ActivityRegistry{Activities: []Activity{{ID: "a", DisplayName: "A", TaskType: "a"}, {ID: "a", DisplayName: "A", TaskType: "b"}}},
			errMsg: "duplicate activity ID",
		},
		{
			name:   "duplicate task type",
			reg:    ActivityRegistry{Activities: []Activity{{ID: "a", DisplayName: "A", TaskType: "t"}, {ID: "b", DisplayName: "B", TaskType: "t"}}},
			errMsg: "duplicate task type",
		},
		{
			name:   "missing task type",
			reg:    ActivityRegistry{Activities: []Activity{{ID: "a", DisplayName: "A"}}},
			errMsg: "TaskType",
		},
		{
			name:   "bad timeout",
			reg:    ActivityRegistry{Activities: []Activity{{ID: "a", DisplayName: "A", TaskType: "a", Timeout: "soon"}}},
			errMsg: "invalid timeout",
		},
		{
			name:   "negative retries",
			reg:    ActivityRegistry{Activities: []Activity{{ID: "a", DisplayName: "A", TaskType: "a", Retries: -1}}},
			errMsg: "negative retries",
		},
		{
			name:   "unknown error code",
			reg:    ActivityRegistry{Activities: []Activity{{ID: "a", DisplayName: "A", TaskType: "a", ErrorCodes: []string{"OOPS"}}}},
			errMsg: "unknown error code OOPS",
		},
		{
			name: "broken schema",
			reg: ActivityRegistry{Activities: []Activity{{
				ID: "a", DisplayName: "A", TaskType: "a",
				InputSchema: map[string]interface{}{"type": 42},
			}}},
			errMsg: "invalid input schema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.reg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, defaultRegistry, 0o600))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Len(t, reg.Activities, 3)

	_, err = LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Parse([]byte("{"))
	assert.Error(t, err)
}
