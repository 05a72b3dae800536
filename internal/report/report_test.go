package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/llm-cost/llm-cost/internal/catalog"
	"github.com/llm-cost/llm-cost/internal/cost"
)

func TestEstimate_RendersTotals(t *testing.T) {
	t.Parallel()
	SetNoColor(true)

	pd := catalog.PriceDef{InputRate: 2.5, OutputRate: 10.0}
	result := cost.Calculate(pd, 1000, 500, cost.Options{})

	var buf bytes.Buffer
	Estimate(&buf, "gpt-4o", pd, 1000, 500, result, catalog.Fresh)

	out := buf.String()
	require.Contains(t, out, "gpt-4o")
	require.Contains(t, out, "1,000")
	require.Contains(t, out, "500")
	require.Contains(t, out, "0.007500")
	require.NotContains(t, out, "Warning:")
}

func TestEstimate_RendersStalenessWarning(t *testing.T) {
	t.Parallel()
	SetNoColor(true)

	pd := catalog.PriceDef{InputRate: 1, OutputRate: 1}
	result := cost.Calculate(pd, 10, 10, cost.Options{})

	var buf bytes.Buffer
	Estimate(&buf, "claude-3-opus", pd, 10, 10, result, catalog.Critical)

	require.Contains(t, buf.String(), "Warning:")
	require.Contains(t, buf.String(), "critical")
}

func TestFormatInt_Comma(t *testing.T) {
	t.Parallel()

	require.Equal(t, "1,234,567", formatInt(1234567))
	require.Equal(t, "123", formatInt(123))
	require.Equal(t, "-42", formatInt(-42))
}
