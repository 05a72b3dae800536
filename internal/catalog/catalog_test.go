package catalog

import (
	"bytes"
	"compress/gzip"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

const sampleCatalogueJSON = `{
  "schema_version": 1,
  "generated_at": "2026-01-01T00:00:00Z",
  "valid_until": "2026-12-31T00:00:00Z",
  "source": "test",
  "models": {
    "gpt-4o": {
      "provider": "OpenAI",
      "display_name": "GPT-4o",
      "input_cost_per_mtok": 2.5,
      "output_cost_per_mtok": 10.0,
      "cache_read_price": 1.25,
      "context_window": 128000
    }
  },
  "aliases": {
    "gpt-4o-latest": "gpt-4o"
  },
  "revocations": [
    {"key_id": "deadbeef", "revoked_at": "2026-02-01T00:00:00Z", "reason": "compromised"}
  ]
}`

func TestParse_Basic(t *testing.T) {
	t.Parallel()

	cat, err := Parse([]byte(sampleCatalogueJSON))
	require.NoError(t, err)
	require.Equal(t, 1, cat.SchemaVersion)
	require.Len(t, cat.Models, 1)

	pd, ok := cat.Lookup("gpt-4o")
	require.True(t, ok)
	require.Equal(t, ProviderOpenAI, pd.Provider)
	require.True(t, pd.CacheReadRate.Present)
	require.Equal(t, 1.25, pd.CacheReadRate.Value)
	require.False(t, pd.CacheWriteRate.Present)
}

func TestParse_AliasResolvesOneStep(t *testing.T) {
	t.Parallel()

	cat, err := Parse([]byte(sampleCatalogueJSON))
	require.NoError(t, err)

	direct, ok1 := cat.Lookup("gpt-4o")
	aliased, ok2 := cat.Lookup("gpt-4o-latest")
	require.True(t, ok1)
	require.True(t, ok2)
	require.Equal(t, direct, aliased)
}

func TestParse_UnknownModelMisses(t *testing.T) {
	t.Parallel()

	cat, err := Parse([]byte(sampleCatalogueJSON))
	require.NoError(t, err)

	_, ok := cat.Lookup("does-not-exist")
	require.False(t, ok)
}

func TestParse_TooLarge(t *testing.T) {
	t.Parallel()

	huge := make([]byte, MaxCatalogueBytes+1)
	_, err := Parse(huge)
	require.Error(t, err)
}

func TestParse_TooManyModels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	buf.WriteString(`{"schema_version":1,"generated_at":"2026-01-01T00:00:00Z","valid_until":"2026-12-31T00:00:00Z","source":"t","models":{`)
	for i := 0; i < MaxModelEntries+1; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`"m`)
		buf.WriteString(itoa(i))
		buf.WriteString(`":{"provider":"OpenAI","display_name":"x","input_cost_per_mtok":1,"output_cost_per_mtok":1,"context_window":1}`)
	}
	buf.WriteString(`},"aliases":{},"revocations":[]}`)

	_, err := Parse(buf.Bytes())
	require.Error(t, err)
}

func itoa(i int) string {
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

func TestParse_AliasTargetMustResolve(t *testing.T) {
	t.Parallel()

	bad := `{"schema_version":1,"generated_at":"2026-01-01T00:00:00Z","valid_until":"2026-12-31T00:00:00Z","source":"t",
	"models":{"gpt-4o":{"provider":"OpenAI","display_name":"x","input_cost_per_mtok":1,"output_cost_per_mtok":1,"context_window":1}},
	"aliases":{"missing":"not-a-model"},"revocations":[]}`
	_, err := Parse([]byte(bad))
	require.Error(t, err)
}

func TestParse_NegativeRateRejected(t *testing.T) {
	t.Parallel()

	bad := `{"schema_version":1,"generated_at":"2026-01-01T00:00:00Z","valid_until":"2026-12-31T00:00:00Z","source":"t",
	"models":{"m":{"provider":"OpenAI","display_name":"x","input_cost_per_mtok":-1,"output_cost_per_mtok":1,"context_window":1}},
	"aliases":{},"revocations":[]}`
	_, err := Parse([]byte(bad))
	require.Error(t, err)
}

func TestParse_Gzipped(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(sampleCatalogueJSON))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	cat, err := Parse(buf.Bytes())
	require.NoError(t, err)
	_, ok := cat.Lookup("gpt-4o")
	require.True(t, ok)
}

func TestParse_Zstd(t *testing.T) {
	t.Parallel()

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll([]byte(sampleCatalogueJSON), nil)
	require.NoError(t, enc.Close())

	cat, err := Parse(compressed)
	require.NoError(t, err)
	_, ok := cat.Lookup("gpt-4o")
	require.True(t, ok)
}

func TestParse_MissingSchemaVersion(t *testing.T) {
	t.Parallel()

	bad := `{"generated_at":"2026-01-01T00:00:00Z","valid_until":"2026-12-31T00:00:00Z","source":"t","models":{},"aliases":{},"revocations":[]}`
	_, err := Parse([]byte(bad))
	require.Error(t, err)
}

func TestClassifyStaleness_Boundaries(t *testing.T) {
	t.Parallel()

	validUntil := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.Equal(t, Fresh, ClassifyStaleness(validUntil, validUntil))
	require.Equal(t, Stale, ClassifyStaleness(validUntil.Add(time.Second), validUntil))
	require.Equal(t, Stale, ClassifyStaleness(validUntil.Add(30*24*time.Hour), validUntil))
	require.Equal(t, Critical, ClassifyStaleness(validUntil.Add(30*24*time.Hour+time.Second), validUntil))
}

func TestResolve_FallsThroughToEmbedded(t *testing.T) {
	t.Parallel()

	var failed []string
	cat, err := Resolve(ResolveOptions{
		ExplicitPath: "",
		EnvPath:      "/does/not/exist.json",
		UserCachePath: "",
		Embedded:     []byte(sampleCatalogueJSON),
		OnStepFailed: func(step string, _ error) { failed = append(failed, step) },
	})
	require.NoError(t, err)
	_, ok := cat.Lookup("gpt-4o")
	require.True(t, ok)
	require.Contains(t, failed, "env-LLM_COST_DB_PATH")
}

func TestResolve_AllStepsFail(t *testing.T) {
	t.Parallel()

	_, err := Resolve(ResolveOptions{})
	require.Error(t, err)
}

func TestIsRevoked(t *testing.T) {
	t.Parallel()

	cat, err := Parse([]byte(sampleCatalogueJSON))
	require.NoError(t, err)
	require.True(t, cat.IsRevoked("deadbeef"))
	require.False(t, cat.IsRevoked("cafebabe"))
}

func TestEmbeddedSnapshot_Parses(t *testing.T) {
	t.Parallel()

	buf, err := EmbeddedSnapshot()
	require.NoError(t, err)

	cat, err := Parse(buf)
	require.NoError(t, err)
	require.NotEmpty(t, cat.Models)
}
