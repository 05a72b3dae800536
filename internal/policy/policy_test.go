package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluate_Ok(t *testing.T) {
	t.Parallel()

	pol := Policy{AllowedModels: []string{"gpt-4o"}, MaxCostUSD: SomeMaxCost(10)}
	prompts := []PromptCost{{Model: "gpt-4o", CostUSD: 1.5}, {Model: "gpt-4o", CostUSD: 2.0}}

	res, err := Evaluate(pol, prompts)
	require.NoError(t, err)
	require.Equal(t, Ok, res.Verdict)
	require.InDelta(t, 3.5, res.TotalCostUSD, 1e-9)
}

func TestEvaluate_PolicyViolation(t *testing.T) {
	t.Parallel()

	pol := Policy{AllowedModels: []string{"gpt-4o"}}
	prompts := []PromptCost{{Model: "gpt-4o", CostUSD: 1}, {Model: "claude-3-opus", CostUSD: 1}}

	res, err := Evaluate(pol, prompts)
	require.Error(t, err)
	require.Equal(t, PolicyViolation, res.Verdict)
	require.Equal(t, "claude-3-opus", res.OffendingModel)
}

func TestEvaluate_BudgetExceeded(t *testing.T) {
	t.Parallel()

	pol := Policy{MaxCostUSD: SomeMaxCost(1)}
	prompts := []PromptCost{{Model: "gpt-4o", CostUSD: 0.6}, {Model: "gpt-4o", CostUSD: 0.6}}

	res, err := Evaluate(pol, prompts)
	require.Error(t, err)
	require.Equal(t, BudgetExceeded, res.Verdict)
	require.InDelta(t, 1.2, res.TotalCostUSD, 1e-9)
}

func TestEvaluate_PolicyViolationTakesPrecedenceOverBudget(t *testing.T) {
	t.Parallel()

	pol := Policy{AllowedModels: []string{"gpt-4o"}, MaxCostUSD: SomeMaxCost(0.01)}
	prompts := []PromptCost{{Model: "gpt-4o", CostUSD: 100}, {Model: "claude-3-opus", CostUSD: 100}}

	res, err := Evaluate(pol, prompts)
	require.Error(t, err)
	require.Equal(t, PolicyViolation, res.Verdict)
}

func TestEvaluate_NoAllowListNoBudgetAlwaysOk(t *testing.T) {
	t.Parallel()

	res, err := Evaluate(Policy{}, []PromptCost{{Model: "anything", CostUSD: 1e9}})
	require.NoError(t, err)
	require.Equal(t, Ok, res.Verdict)
}

func TestEvaluate_TagCardinalityWarning(t *testing.T) {
	t.Parallel()

	var prompts []PromptCost
	for i := 0; i < 101; i++ {
		prompts = append(prompts, PromptCost{
			Model: "gpt-4o",
			Tags:  map[string]string{"team": itoaTest(i)},
		})
	}

	res, err := Evaluate(Policy{}, prompts)
	require.NoError(t, err)
	require.Equal(t, Ok, res.Verdict)
	require.Len(t, res.Warnings, 1)
	require.Contains(t, res.Warnings[0], "team")
}

func TestEvaluate_TagCardinalityUnderLimitNoWarning(t *testing.T) {
	t.Parallel()

	prompts := []PromptCost{
		{Model: "gpt-4o", Tags: map[string]string{"team": "a"}},
		{Model: "gpt-4o", Tags: map[string]string{"team": "b"}},
	}

	res, err := Evaluate(Policy{}, prompts)
	require.NoError(t, err)
	require.Empty(t, res.Warnings)
}

func itoaTest(i int) string {
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}
