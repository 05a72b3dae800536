package main

import (
	"os"
	"path/filepath"

	"github.com/llm-cost/llm-cost/internal/catalog"
	"github.com/llm-cost/llm-cost/internal/errs"
	"github.com/llm-cost/llm-cost/internal/pretoken"
	"github.com/llm-cost/llm-cost/internal/tokenizer"
)

// resolveCatalogue runs the catalogue resolution chain (spec.md §4.4),
// logging every step that falls through before the next one succeeds.
// An explicit --pricing-file flag wins outright; absent that, the
// user's configured catalog_path preference (internal/appconfig) steps
// in ahead of the environment variable and user-cache steps of the
// chain.
func resolveCatalogue() (*catalog.Catalogue, error) {
	embedded, err := catalog.EmbeddedSnapshot()
	if err != nil {
		return nil, errs.DataWrap("read embedded pricing snapshot", err)
	}

	explicit := pricingDB
	if explicit == "" {
		explicit = cfg.CatalogPathOverride
	}

	return catalog.Resolve(catalog.ResolveOptions{
		ExplicitPath:  explicit,
		EnvPath:       os.Getenv("LLM_COST_DB_PATH"),
		UserCachePath: catalog.DefaultUserCachePath(),
		Embedded:      embedded,
		OnStepFailed: func(step string, err error) {
			if logHandler != nil {
				logHandler.Debug("pricing catalogue source unavailable", "step", step, "error", err)
			}
		},
	})
}

// vocabFileLoader returns a tokenizer.Registry loader that reads a
// BPE2 binary from an explicit file path if given, else the named
// file under the vocabulary cache directory (tokenizer.CacheDir),
// the shape external tooling (the out-of-scope vocabulary fetch/cache
// step) is expected to have already populated.
func vocabFileLoader(explicitPath, cacheDir, encodingName string) func() ([]byte, error) {
	return func() ([]byte, error) {
		if explicitPath != "" {
			return os.ReadFile(explicitPath)
		}
		cachedPath := filepath.Join(cacheDir, encodingName+".bpe2")
		buf, err := os.ReadFile(cachedPath)
		if err != nil {
			return nil, errs.ConfigurationWrap(
				"no vocabulary file found; pass --cl100k-vocab/--o200k-vocab or populate the vocabulary cache",
				err,
			).WithField("cached_path", cachedPath)
		}
		return buf, nil
	}
}

func newTokenizerRegistry(cl100kPath, o200kPath string) *tokenizer.Registry {
	cacheDir := tokenizer.CacheDir(cfg.CacheDirOverride)
	return tokenizer.NewRegistry(map[string]func() ([]byte, error){
		pretoken.CL100kBase: vocabFileLoader(cl100kPath, cacheDir, pretoken.CL100kBase),
		pretoken.O200kBase:  vocabFileLoader(o200kPath, cacheDir, pretoken.O200kBase),
	}, pretoken.Strict)
}
