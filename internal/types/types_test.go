package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/creative-o-meter/internal/creativity"
)

func TestSynergyRequestDecodesFlatVector(t *testing.T) {
	var req SynergyRequest
	require.NoError(t, json.Unmarshal([]byte(`{"subject":0.7,"style":0.6,"mood":0.5,"detail":0.8,"context":0.4}`), &req))
	assert.Equal(t, creativity.DefaultAttributeVector(), req.AttributeVector)
}

func TestPromptRequestOptionalFields(t *testing.T) {
	var req PromptRequest
	require.NoError(t, json.Unmarshal([]byte(`{"subject":1}`), &req))
	assert.Nil(t, req.Threshold)
	assert.Empty(t, req.Lead)

	require.NoError(t, json.Unmarshal([]byte(`{"subject":1,"threshold":2.5,"lead":"Imagine"}`), &req))
	require.NotNil(t, req.Threshold)
	assert.Equal(t, 2.5, *req.Threshold)
	assert.Equal(t, "Imagine", req.Lead)
}

func TestValidateVector(t *testing.T) {
	assert.Empty(t, ValidateVector(creativity.DefaultAttributeVector()))
	assert.Empty(t, ValidateVector(creativity.AttributeVector{Subject: 1, Context: 0}))

	problems := ValidateVector(creativity.AttributeVector{Subject: -0.1, Mood: 1.5})
	assert.Len(t, problems, 2)
	assert.Contains(t, problems, "subject")
	assert.Contains(t, problems, "mood")
}

func TestFrameRequestGrid(t *testing.T) {
	tests := []struct {
		name       string
		req        FrameRequest
		cols, rows int
	}{
		{"explicit", FrameRequest{Cols: 4, Rows: 3}, 4, 3},
		{"canvas default cell", FrameRequest{Width: 800, Height: 300}, 40, 15},
		{"canvas custom cell", FrameRequest{Width: 100, Height: 50, CellSize: 25}, 4, 2},
		{"explicit wins", FrameRequest{Cols: 2, Rows: 2, Width: 800, Height: 300}, 2, 2},
		{"empty", FrameRequest{}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, rows := tt.req.Grid(20)
			assert.Equal(t, tt.cols, cols)
			assert.Equal(t, tt.rows, rows)
		})
	}
}

func TestFrameRequestValidate(t *testing.T) {
	assert.Empty(t, FrameRequest{Cols: 10, Rows: 10}.Validate(20, 100))

	problems := FrameRequest{Cols: 11, Rows: 10}.Validate(20, 100)
	assert.Contains(t, problems["grid"], "exceeds 100 cells")

	problems = FrameRequest{}.Validate(20, 100)
	assert.Contains(t, problems, "grid")

	for _, req := range []FrameRequest{
		{Cols: 1 << 32, Rows: 1 << 32},
		{Cols: 1<<62 + 1, Rows: 4},
	} {
		assert.Contains(t, req.Validate(20, 100), "grid", "%dx%d", req.Cols, req.Rows)
		assert.Contains(t, req.Validate(20, 0), "grid", "%dx%d without a cap", req.Cols, req.Rows)
	}

	bad := creativity.DefaultScoreParameters()
	bad.Delta = 0.5
	problems = FrameRequest{Cols: 1, Rows: 1, Params: &bad, Iteration: -1}.Validate(20, 0)
	assert.Contains(t, problems, "delta")
	assert.Contains(t, problems, "iteration")
	assert.NotContains(t, problems, "grid")
}

func TestFrameRequestDefaults(t *testing.T) {
	req := FrameRequest{}
	assert.Equal(t, creativity.DefaultScoreParameters(), req.ScoreParameters())
	assert.True(t, req.WantsCells())

	no := false
	req.IncludeCells = &no
	assert.False(t, req.WantsCells())
}
