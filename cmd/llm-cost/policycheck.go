package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/llm-cost/llm-cost/internal/cost"
	"github.com/llm-cost/llm-cost/internal/errs"
	"github.com/llm-cost/llm-cost/internal/policy"
)

// manifestTOML is the on-disk shape of a policy manifest. Parsing this
// into a policy.Policy value is the thin, external-collaborator layer
// spec.md §1 assigns outside the core; the evaluator itself lives in
// internal/policy.
type manifestTOML struct {
	AllowedModels []string `toml:"allowed_models"`
	MaxCostUSD    *float64 `toml:"max_cost_usd"`
	Prompts       []struct {
		Model string            `toml:"model"`
		File  string            `toml:"file"`
		Tags  map[string]string `toml:"tags"`
	} `toml:"prompts"`
}

func loadPolicyManifest(path string) (policy.Policy, []promptManifestEntry, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return policy.Policy{}, nil, errs.ConfigurationWrap("reading policy manifest", err).WithField("path", path)
	}

	var m manifestTOML
	if err := toml.Unmarshal(buf, &m); err != nil {
		return policy.Policy{}, nil, errs.ConfigurationWrap("parsing policy manifest", err).WithField("path", path)
	}

	pol := policy.Policy{AllowedModels: m.AllowedModels}
	if m.MaxCostUSD != nil {
		pol.MaxCostUSD = policy.SomeMaxCost(*m.MaxCostUSD)
	}

	entries := make([]promptManifestEntry, len(m.Prompts))
	for i, p := range m.Prompts {
		entries[i] = promptManifestEntry{Model: p.Model, File: p.File, Tags: p.Tags}
	}
	return pol, entries, nil
}

type promptManifestEntry struct {
	Model string
	File  string
	Tags  map[string]string
}

type policyCheckOptions struct {
	manifestPath    string
	cl100kVocabPath string
	o200kVocabPath  string
}

func newPolicyCheckCmd() *cobra.Command {
	opts := &policyCheckOptions{}

	cmd := &cobra.Command{
		Use:   "policy-check",
		Short: "Evaluate a batch of prompts against a policy manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPolicyCheck(opts)
		},
	}

	cmd.Flags().StringVar(&opts.manifestPath, "manifest", "", "path to the TOML policy manifest (required)")
	cmd.Flags().StringVar(&opts.cl100kVocabPath, "cl100k-vocab", "", "path to the cl100k_base BPE2 vocabulary file")
	cmd.Flags().StringVar(&opts.o200kVocabPath, "o200k-vocab", "", "path to the o200k_base BPE2 vocabulary file")
	_ = cmd.MarkFlagRequired("manifest")

	return cmd
}

func runPolicyCheck(opts *policyCheckOptions) error {
	pol, entries, err := loadPolicyManifest(opts.manifestPath)
	if err != nil {
		return err
	}

	cat, err := resolveCatalogue()
	if err != nil {
		return err
	}
	registry := newTokenizerRegistry(opts.cl100kVocabPath, opts.o200kVocabPath)

	prompts := make([]policy.PromptCost, 0, len(entries))
	for _, entry := range entries {
		pd, ok := cat.Lookup(entry.Model)
		if !ok {
			return errs.Data("unknown model in manifest").WithField("model", entry.Model)
		}

		text, err := os.ReadFile(entry.File)
		if err != nil {
			return errs.ConfigurationWrap("reading prompt file", err).WithField("file", entry.File)
		}

		tk, err := registry.Get(encodingForModel(entry.Model))
		if err != nil {
			return errs.DataWrap("load tokenizer", err)
		}
		inputTokens, err := tk.Count(string(text))
		if err != nil {
			return errs.DataWrap("tokenize prompt", err).WithField("file", entry.File)
		}

		result := cost.Calculate(pd, int64(inputTokens), 0, cost.Options{})
		prompts = append(prompts, policy.PromptCost{Model: entry.Model, CostUSD: result.TotalUSD, Tags: entry.Tags})
	}

	res, err := policy.Evaluate(pol, prompts)
	if err != nil {
		for _, w := range res.Warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
		return err
	}

	for _, w := range res.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	fmt.Printf("llm-cost policy-check: ok, total cost $%.6f across %d prompts\n", res.TotalCostUSD, len(prompts))
	return nil
}
