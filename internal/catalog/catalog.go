// Package catalog implements the signed, versioned pricing catalogue
// (spec.md §4.4): resolution chain, schema parsing, alias resolution,
// and staleness classification.
package catalog

import (
	"bytes"
	"compress/gzip"
	"embed"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
	"github.com/tidwall/gjson"

	"github.com/llm-cost/llm-cost/internal/errs"
)

// Hardening limits (spec.md §4.4, §6).
const (
	MaxCatalogueBytes = 10 * 1024 * 1024
	MaxModelEntries   = 1000

	// staleGraceDays is the number of days past ValidUntil during which
	// the catalogue is Stale rather than Critical.
	staleGraceDays = 30
)

// Provider enumerates FOCUS-conformant provider values (spec.md §3); the
// exact case is significant downstream.
type Provider string

const (
	ProviderOpenAI    Provider = "OpenAI"
	ProviderAnthropic Provider = "Anthropic"
	ProviderGoogle    Provider = "Google"
	ProviderAzure     Provider = "Azure"
	ProviderAWS       Provider = "AWS"
	ProviderMistral   Provider = "Mistral"
	ProviderCohere    Provider = "Cohere"
	ProviderUnknown   Provider = "Unknown"
)

// Rate is an optional USD-per-million-tokens rate. Present distinguishes
// an explicit value (including zero) from absence, per spec.md §9 — an
// absent cache_read_price must never be silently treated as zero cost.
type Rate struct {
	Value   float64
	Present bool
}

// SomeRate returns a present Rate.
func SomeRate(v float64) Rate { return Rate{Value: v, Present: true} }

// PriceDef is one model's pricing entry.
type PriceDef struct {
	Provider       Provider
	DisplayName    string
	InputRate      float64 // USD per 10^6 tokens, required, >= 0
	OutputRate     float64 // USD per 10^6 tokens, required, >= 0
	CacheReadRate  Rate
	CacheWriteRate Rate
	ReasoningRate  Rate
	ContextWindow  int
	DeprecatedAt   *time.Time
	Notes          string
}

// jsonPriceDef mirrors the wire schema (spec.md §4.4), with pointer
// fields for the optional rates and dates distinguishing absence from
// zero.
type jsonPriceDef struct {
	Provider       string   `json:"provider"`
	DisplayName    string   `json:"display_name"`
	InputPrice     float64  `json:"input_cost_per_mtok"`
	OutputPrice    float64  `json:"output_cost_per_mtok"`
	CacheReadPrice *float64 `json:"cache_read_price,omitempty"`
	CacheWritePrice *float64 `json:"cache_write_price,omitempty"`
	ReasoningPrice *float64 `json:"reasoning_price,omitempty"`
	ContextWindow  int      `json:"context_window"`
	DeprecatedAt   *string  `json:"deprecated_at,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

// Revocation is a single revoked signing key entry.
type Revocation struct {
	KeyID     string    `json:"key_id"`
	RevokedAt time.Time `json:"revoked_at"`
	Reason    string    `json:"reason"`
}

type jsonCatalogue struct {
	SchemaVersion int                     `json:"schema_version"`
	GeneratedAt   string                  `json:"generated_at"`
	ValidUntil    string                  `json:"valid_until"`
	Source        string                  `json:"source"`
	Models        map[string]jsonPriceDef `json:"models"`
	Aliases       map[string]string       `json:"aliases"`
	Revocations   []jsonRevocation        `json:"revocations"`
}

type jsonRevocation struct {
	KeyID     string `json:"key_id"`
	RevokedAt string `json:"revoked_at"`
	Reason    string `json:"reason"`
}

// Catalogue is an immutable, parsed pricing snapshot.
type Catalogue struct {
	SchemaVersion int
	GeneratedAt   time.Time
	ValidUntil    time.Time
	Source        string
	Models        map[string]PriceDef
	Aliases       map[string]string
	Revocations   []Revocation
}

// Staleness classifies a catalogue's freshness relative to now,
// per spec.md §4.4.
type Staleness int

const (
	Fresh Staleness = iota
	Stale
	Critical
)

func (s Staleness) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// ClassifyStaleness implements the boundary rules from spec.md §8:
// now<=validUntil -> Fresh; up to +30d -> Stale; beyond -> Critical.
func ClassifyStaleness(now, validUntil time.Time) Staleness {
	if !now.After(validUntil) {
		return Fresh
	}
	if now.Sub(validUntil) <= staleGraceDays*24*time.Hour {
		return Stale
	}
	return Critical
}

// Parse validates and decodes a catalogue JSON buffer, optionally gzip-
// or zstd-compressed and detected by magic bytes rather than a file
// extension or content-type hint. It enforces the size and model-count
// hardening limits from spec.md §4.4/§6.
func Parse(buf []byte) (*Catalogue, error) {
	if len(buf) > MaxCatalogueBytes {
		return nil, errs.Data("pricing catalogue exceeds maximum size").WithField("bytes", len(buf))
	}

	switch {
	case isGzip(buf):
		decompressed, err := gunzip(buf)
		if err != nil {
			return nil, errs.DataWrap("decompress pricing catalogue", err)
		}
		buf = decompressed
	case isZstd(buf):
		decompressed, err := unzstd(buf)
		if err != nil {
			return nil, errs.DataWrap("decompress pricing catalogue", err)
		}
		buf = decompressed
	}
	if len(buf) > MaxCatalogueBytes {
		return nil, errs.Data("pricing catalogue exceeds maximum size after decompression")
	}

	// Peek at schema_version with gjson before paying for a full decode:
	// an old or future catalogue format should fail fast with a precise
	// message rather than however goccy's struct decode happens to choke
	// on an incompatible shape.
	versionResult := gjson.GetBytes(buf, "schema_version")
	if !versionResult.Exists() {
		return nil, errs.Data("pricing catalogue is missing schema_version")
	}
	if versionResult.Int() != 1 {
		return nil, errs.Data("unsupported pricing catalogue schema version").WithField("schema_version", versionResult.Int())
	}

	var raw jsonCatalogue
	if err := json.Unmarshal(buf, &raw); err != nil {
		return nil, errs.DataWrap("parse pricing catalogue JSON", err)
	}
	if len(raw.Models) > MaxModelEntries {
		return nil, errs.Data("pricing catalogue exceeds maximum model entries").WithField("count", len(raw.Models))
	}

	generatedAt, err := time.Parse(time.RFC3339, raw.GeneratedAt)
	if err != nil {
		return nil, errs.DataWrap("parse generated_at", err)
	}
	validUntil, err := time.Parse(time.RFC3339, raw.ValidUntil)
	if err != nil {
		return nil, errs.DataWrap("parse valid_until", err)
	}

	models := make(map[string]PriceDef, len(raw.Models))
	for id, def := range raw.Models {
		pd, err := def.toPriceDef()
		if err != nil {
			return nil, errs.DataWrap("model "+id, err)
		}
		models[id] = pd
	}

	for alias, target := range raw.Aliases {
		if _, ok := models[target]; !ok {
			return nil, errs.Data("alias target does not resolve to an existing model").WithField("alias", alias).WithField("target", target)
		}
	}

	revocations := make([]Revocation, 0, len(raw.Revocations))
	for _, r := range raw.Revocations {
		revokedAt, err := time.Parse(time.RFC3339, r.RevokedAt)
		if err != nil {
			return nil, errs.DataWrap("parse revocation revoked_at", err)
		}
		revocations = append(revocations, Revocation{KeyID: r.KeyID, RevokedAt: revokedAt, Reason: r.Reason})
	}

	return &Catalogue{
		SchemaVersion: raw.SchemaVersion,
		GeneratedAt:   generatedAt,
		ValidUntil:    validUntil,
		Source:        raw.Source,
		Models:        models,
		Aliases:       raw.Aliases,
		Revocations:   revocations,
	}, nil
}

func (d jsonPriceDef) toPriceDef() (PriceDef, error) {
	if d.InputPrice < 0 || d.OutputPrice < 0 {
		return PriceDef{}, errs.Data("negative rate is not allowed")
	}
	pd := PriceDef{
		Provider:      Provider(d.Provider),
		DisplayName:   d.DisplayName,
		InputRate:     d.InputPrice,
		OutputRate:    d.OutputPrice,
		ContextWindow: d.ContextWindow,
		Notes:         d.Notes,
	}
	if d.CacheReadPrice != nil {
		if *d.CacheReadPrice < 0 {
			return PriceDef{}, errs.Data("negative cache_read_price is not allowed")
		}
		pd.CacheReadRate = SomeRate(*d.CacheReadPrice)
	}
	if d.CacheWritePrice != nil {
		if *d.CacheWritePrice < 0 {
			return PriceDef{}, errs.Data("negative cache_write_price is not allowed")
		}
		pd.CacheWriteRate = SomeRate(*d.CacheWritePrice)
	}
	if d.ReasoningPrice != nil {
		if *d.ReasoningPrice < 0 {
			return PriceDef{}, errs.Data("negative reasoning_price is not allowed")
		}
		pd.ReasoningRate = SomeRate(*d.ReasoningPrice)
	}
	if d.DeprecatedAt != nil {
		t, err := time.Parse(time.RFC3339, *d.DeprecatedAt)
		if err != nil {
			return PriceDef{}, errs.DataWrap("parse deprecated_at", err)
		}
		pd.DeprecatedAt = &t
	}
	return pd, nil
}

// Lookup resolves a model name directly, then through one alias step, per
// spec.md §4.4 — never recursing past one indirection.
func (c *Catalogue) Lookup(model string) (PriceDef, bool) {
	if pd, ok := c.Models[model]; ok {
		return pd, true
	}
	if canonical, ok := c.Aliases[model]; ok {
		if pd, ok := c.Models[canonical]; ok {
			return pd, true
		}
	}
	return PriceDef{}, false
}

// IsRevoked reports whether keyID appears in the revocation list.
func (c *Catalogue) IsRevoked(keyID string) bool {
	for _, r := range c.Revocations {
		if r.KeyID == keyID {
			return true
		}
	}
	return false
}

func isGzip(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0x1f && buf[1] == 0x8b
}

func gunzip(buf []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func isZstd(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0x28 && buf[1] == 0xb5 && buf[2] == 0x2f && buf[3] == 0xfd
}

func unzstd(buf []byte) ([]byte, error) {
	r, err := zstd.NewReader(bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Source describes one step of the resolution chain (spec.md §4.4).
type Source struct {
	Name string
	Load func() ([]byte, error)
}

// ResolveOptions configures catalogue resolution.
type ResolveOptions struct {
	// ExplicitPath is the --pricing-file flag value, if given.
	ExplicitPath string
	// EnvPath is the value of LLM_COST_DB_PATH, if set.
	EnvPath string
	// UserCachePath is the platform-appropriate user cache location.
	UserCachePath string
	// Embedded is the embedded fallback snapshot, always usable.
	Embedded []byte
	// OnStepFailed is called with a diagnostic when a step fails and the
	// chain continues to the next one (spec.md §4.4: "logged").
	OnStepFailed func(step string, err error)
}

// Resolve walks the resolution chain in spec.md §4.4 order: explicit
// path, environment variable, user cache, embedded snapshot. The
// embedded snapshot never fails to parse in a correctly built binary, so
// Resolve only returns an error if every step including the embedded one
// fails.
func Resolve(opts ResolveOptions) (*Catalogue, error) {
	steps := []Source{
		{Name: "explicit-path", Load: func() ([]byte, error) { return loadPath(opts.ExplicitPath) }},
		{Name: "env-LLM_COST_DB_PATH", Load: func() ([]byte, error) { return loadPath(opts.EnvPath) }},
		{Name: "user-cache", Load: func() ([]byte, error) { return loadPath(opts.UserCachePath) }},
		{Name: "embedded", Load: func() ([]byte, error) {
			if len(opts.Embedded) == 0 {
				return nil, os.ErrNotExist
			}
			return opts.Embedded, nil
		}},
	}

	var lastErr error
	for _, step := range steps {
		buf, err := step.Load()
		if err != nil {
			if opts.OnStepFailed != nil {
				opts.OnStepFailed(step.Name, err)
			}
			lastErr = err
			continue
		}
		cat, err := Parse(buf)
		if err != nil {
			if opts.OnStepFailed != nil {
				opts.OnStepFailed(step.Name, err)
			}
			lastErr = err
			continue
		}
		return cat, nil
	}
	return nil, errs.DataWrap("no pricing catalogue source succeeded", lastErr)
}

func loadPath(path string) ([]byte, error) {
	if path == "" {
		return nil, os.ErrNotExist
	}
	return os.ReadFile(path)
}

// DefaultUserCachePath returns the platform-appropriate user cache
// location for pricing_db.json, per spec.md §4.4/§6.
func DefaultUserCachePath() string {
	if runtime.GOOS == "windows" {
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, "llm-cost", "pricing_db.json")
		}
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "llm-cost", "pricing_db.json")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "llm-cost", "pricing_db.json")
	}
	return filepath.Join(os.TempDir(), "llm-cost", "pricing_db.json")
}

//go:embed embedded_snapshot.json.gz
var embeddedSnapshotFS embed.FS

// EmbeddedSnapshot returns the bytes of the compiled-in pricing snapshot
// that guarantees offline operation (spec.md §4.4).
func EmbeddedSnapshot() ([]byte, error) {
	return embeddedSnapshotFS.ReadFile("embedded_snapshot.json.gz")
}
