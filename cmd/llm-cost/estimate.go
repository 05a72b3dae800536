package main

import (
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/llm-cost/llm-cost/internal/catalog"
	"github.com/llm-cost/llm-cost/internal/cost"
	"github.com/llm-cost/llm-cost/internal/errs"
	"github.com/llm-cost/llm-cost/internal/report"
)

type estimateOptions struct {
	model             string
	inputFile         string
	outputText        string
	format            string
	cl100kVocabPath   string
	o200kVocabPath    string
	cacheHitRatio     float64
	includeCacheWrite bool
}

func newEstimateCmd() *cobra.Command {
	opts := &estimateOptions{}

	cmd := &cobra.Command{
		Use:   "estimate [file]",
		Short: "Estimate the cost of tokenizing a single prompt",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.inputFile = args[0]
			}
			return runEstimate(opts)
		},
	}

	cmd.Flags().StringVar(&opts.model, "model", "gpt-4o", "model name to price against")
	cmd.Flags().StringVar(&opts.outputText, "output", "", "expected output text, for output-token pricing")
	cmd.Flags().StringVar(&opts.format, "format", "", `output format: "table" or "json" (default: the configured default_format, else "table")`)
	cmd.Flags().StringVar(&opts.cl100kVocabPath, "cl100k-vocab", "", "path to the cl100k_base BPE2 vocabulary file")
	cmd.Flags().StringVar(&opts.o200kVocabPath, "o200k-vocab", "", "path to the o200k_base BPE2 vocabulary file")
	cmd.Flags().Float64Var(&opts.cacheHitRatio, "cache-hit-ratio", 0, "fraction of input tokens served from cache")
	cmd.Flags().BoolVar(&opts.includeCacheWrite, "cache-write", false, "additionally charge the full input at the cache-write rate")

	return cmd
}

func runEstimate(opts *estimateOptions) error {
	var inputText, outputText string
	if opts.inputFile != "" {
		buf, err := os.ReadFile(opts.inputFile)
		if err != nil {
			return errs.ConfigurationWrap("reading input file", err).WithField("path", opts.inputFile)
		}
		inputText = string(buf)
	} else {
		buf, err := readAllStdin()
		if err != nil {
			return errs.ConfigurationWrap("reading stdin", err)
		}
		inputText = buf
	}
	outputText = opts.outputText

	cat, err := resolveCatalogue()
	if err != nil {
		return err
	}

	pd, ok := cat.Lookup(opts.model)
	if !ok {
		return errs.Data("unknown model").WithField("model", opts.model)
	}

	staleness := catalogStaleness(cat)
	if staleness == catalog.Critical && os.Getenv("CI") == "" && os.Getenv("GITHUB_ACTIONS") == "" {
		return errs.Staleness("pricing catalogue is critically stale").WithField("valid_until", cat.ValidUntil)
	}

	registry := newTokenizerRegistry(opts.cl100kVocabPath, opts.o200kVocabPath)
	tk, err := registry.Get(encodingForModel(opts.model))
	if err != nil {
		return errs.DataWrap("load tokenizer", err)
	}

	inputTokens, err := tk.Count(inputText)
	if err != nil {
		return errs.DataWrap("tokenize input", err)
	}
	outputTokens, err := tk.Count(outputText)
	if err != nil {
		return errs.DataWrap("tokenize output", err)
	}

	result := cost.Calculate(pd, int64(inputTokens), int64(outputTokens), cost.Options{
		CacheHitRatio:     opts.cacheHitRatio,
		IncludeCacheWrite: opts.includeCacheWrite,
	})

	if staleness != catalog.Fresh && logHandler != nil {
		logHandler.Warn("pricing catalogue is stale", "staleness", staleness.String(), "valid_until", cat.ValidUntil)
	}

	format := opts.format
	if format == "" {
		format = cfg.DefaultFormat
	}
	if format == "json" {
		return json.NewEncoder(os.Stdout).Encode(estimateJSON{
			Model:        opts.model,
			InputTokens:  int64(inputTokens),
			OutputTokens: int64(outputTokens),
			TotalUSD:     result.TotalUSD,
			TotalPico:    result.TotalPico,
			Staleness:    staleness.String(),
		})
	}

	report.Estimate(os.Stdout, opts.model, pd, int64(inputTokens), int64(outputTokens), result, staleness)
	return nil
}

// estimateJSON is the --format=json rendering of a single estimate.
type estimateJSON struct {
	Model        string  `json:"model"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	TotalUSD     float64 `json:"total_usd"`
	TotalPico    int64   `json:"total_pico_usd"`
	Staleness    string  `json:"staleness"`
}
