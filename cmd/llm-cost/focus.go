package main

import (
	"encoding/csv"
	"encoding/hex"
	"os"

	"github.com/spf13/cobra"

	"github.com/llm-cost/llm-cost/internal/cost"
	"github.com/llm-cost/llm-cost/internal/errs"
	"github.com/llm-cost/llm-cost/internal/focusexport"
	"github.com/llm-cost/llm-cost/internal/resourceid"
)

// newFocusExportCmd batch-prices every prompt in a policy manifest and
// writes the result as a FOCUS CSV to stdout (spec.md §4.9), rows in
// resource-id lexicographic order for byte-stable diffs across runs.
func newFocusExportCmd() *cobra.Command {
	opts := &policyCheckOptions{}

	cmd := &cobra.Command{
		Use:   "focus-export",
		Short: "Export a manifest's priced prompts as a FOCUS CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFocusExport(opts)
		},
	}

	cmd.Flags().StringVar(&opts.manifestPath, "manifest", "", "path to the TOML policy manifest (required)")
	cmd.Flags().StringVar(&opts.cl100kVocabPath, "cl100k-vocab", "", "path to the cl100k_base BPE2 vocabulary file")
	cmd.Flags().StringVar(&opts.o200kVocabPath, "o200k-vocab", "", "path to the o200k_base BPE2 vocabulary file")
	_ = cmd.MarkFlagRequired("manifest")

	return cmd
}

func runFocusExport(opts *policyCheckOptions) error {
	_, entries, err := loadPolicyManifest(opts.manifestPath)
	if err != nil {
		return err
	}

	cat, err := resolveCatalogue()
	if err != nil {
		return err
	}
	registry := newTokenizerRegistry(opts.cl100kVocabPath, opts.o200kVocabPath)

	seen := map[string]struct{}{}
	rows := make([]focusexport.Row, 0, len(entries))
	for _, entry := range entries {
		pd, ok := cat.Lookup(entry.Model)
		if !ok {
			return errs.Data("unknown model in manifest").WithField("model", entry.Model)
		}

		content, err := os.ReadFile(entry.File)
		if err != nil {
			return errs.ConfigurationWrap("reading prompt file", err).WithField("file", entry.File)
		}

		tk, err := registry.Get(encodingForModel(entry.Model))
		if err != nil {
			return errs.DataWrap("load tokenizer", err)
		}
		inputTokens, err := tk.Count(string(content))
		if err != nil {
			return errs.DataWrap("tokenize prompt", err).WithField("file", entry.File)
		}

		result := cost.Calculate(pd, int64(inputTokens), 0, cost.Options{})
		id := resourceid.Derive("", entry.File, content, seen)
		contentHash := resourceid.ContentHash(content)

		rows = append(rows, focusexport.BuildRow(
			id, entry.File, pd, result, result,
			int64(inputTokens), 0, 0,
			hex.EncodeToString(contentHash[:])[:24], entry.Tags,
		))
	}

	focusexport.SortRowsByResourceID(rows)

	w := csv.NewWriter(os.Stdout)
	if err := w.Write(focusexport.Columns); err != nil {
		return errs.Internal("writing FOCUS header").WithField("error", err.Error())
	}
	for _, row := range rows {
		if err := w.Write(row.Values()); err != nil {
			return errs.Internal("writing FOCUS row").WithField("error", err.Error())
		}
	}
	w.Flush()
	return w.Error()
}
