package main

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestPipeResult_RunIDRoundTrips(t *testing.T) {
	t.Parallel()

	runID := uuid.NewString()
	_, err := uuid.Parse(runID)
	require.NoError(t, err)

	res := pipeResult{
		RunID:       runID,
		PromptID:    "p1",
		Model:       "gpt-4o",
		InputTokens: 10,
		TotalUSD:    0.001,
		TotalPico:   1000000000,
	}

	buf, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded pipeResult
	require.NoError(t, json.Unmarshal(buf, &decoded))
	require.Equal(t, runID, decoded.RunID)
	require.Contains(t, string(buf), `"run_id"`)
}

func TestRunIDSource_DiffersAcrossCalls(t *testing.T) {
	t.Parallel()

	a := uuid.NewString()
	b := uuid.NewString()
	require.NotEqual(t, a, b)
}
