// Package tokenizer composes internal/vocab, internal/pretoken, and
// internal/bpe into the public Counter/Encoder surface the rest of the
// tool uses: a per-encoding Tokenizer wrapping a loaded vocabulary and
// its matching pre-tokenizer, and a Registry that lazy-loads and caches
// one Tokenizer per encoding name.
package tokenizer

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/llm-cost/llm-cost/internal/bpe"
	"github.com/llm-cost/llm-cost/internal/pretoken"
	"github.com/llm-cost/llm-cost/internal/vocab"
)

// Tokenizer counts and encodes text against one vocabulary.
type Tokenizer struct {
	voc      *vocab.Vocabulary
	splitter *pretoken.Splitter
	encoder  *bpe.Encoder
	policy   pretoken.InvalidUTF8Policy
}

// New builds a Tokenizer for a loaded vocabulary and its matching
// pre-tokenizer pattern set (selected by vocab.Name, which must be
// "cl100k_base" or "o200k_base").
func New(voc *vocab.Vocabulary, policy pretoken.InvalidUTF8Policy) (*Tokenizer, error) {
	sp, err := pretoken.New(voc.Name)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: %w", err)
	}
	return &Tokenizer{
		voc:      voc,
		splitter: sp,
		encoder:  bpe.New(voc),
		policy:   policy,
	}, nil
}

// Encode returns the full token sequence for s.
func (t *Tokenizer) Encode(s string) ([]vocab.Rank, error) {
	pieces, err := t.splitter.Split(s, t.policy)
	if err != nil {
		return nil, err
	}
	byteePieces := make([][]byte, len(pieces))
	for i, p := range pieces {
		byteePieces[i] = []byte(p)
	}
	return t.encoder.EncodePieces(byteePieces), nil
}

// Count returns len(Encode(s)) without retaining the token sequence.
func (t *Tokenizer) Count(s string) (int, error) {
	toks, err := t.Encode(s)
	if err != nil {
		return 0, err
	}
	return len(toks), nil
}

// Vocabulary returns the bound vocabulary.
func (t *Tokenizer) Vocabulary() *vocab.Vocabulary { return t.voc }

// Registry lazily loads and caches Tokenizers by encoding name.
type Registry struct {
	mu         sync.Mutex
	loaders    map[string]func() ([]byte, error)
	tokenizers map[string]*Tokenizer
	policy     pretoken.InvalidUTF8Policy
}

// NewRegistry builds a Registry. loaders supplies, per encoding name, a
// function that returns the raw BPE2 binary bytes (embedded data, a
// memory-mapped file, or a lazily-downloaded cache entry).
func NewRegistry(loaders map[string]func() ([]byte, error), policy pretoken.InvalidUTF8Policy) *Registry {
	return &Registry{
		loaders:    loaders,
		tokenizers: make(map[string]*Tokenizer, len(loaders)),
		policy:     policy,
	}
}

// Get returns the Tokenizer for encodingName, loading and caching it on
// first use.
func (r *Registry) Get(encodingName string) (*Tokenizer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tk, ok := r.tokenizers[encodingName]; ok {
		return tk, nil
	}
	loader, ok := r.loaders[encodingName]
	if !ok {
		return nil, fmt.Errorf("tokenizer: no loader registered for encoding %q", encodingName)
	}
	data, err := loader()
	if err != nil {
		return nil, fmt.Errorf("tokenizer: load %q: %w", encodingName, err)
	}
	v, err := vocab.Load(encodingName, data)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: parse %q: %w", encodingName, err)
	}
	tk, err := New(v, r.policy)
	if err != nil {
		return nil, err
	}
	r.tokenizers[encodingName] = tk
	return tk, nil
}

// CacheDir returns the cache directory for lazily-downloaded vocabulary
// binaries. override, when non-empty, takes precedence over
// $XDG_CACHE_HOME (e.g. a user's configured cache_dir preference);
// otherwise resolution falls back to $XDG_CACHE_HOME and finally
// ~/.cache.
func CacheDir(override string) string {
	cache := override
	if cache == "" {
		cache = os.Getenv("XDG_CACHE_HOME")
	}
	if cache == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}
		cache = filepath.Join(home, ".cache")
	}
	return filepath.Join(cache, "llm-cost", "vocab")
}
