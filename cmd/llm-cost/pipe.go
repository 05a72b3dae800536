package main

import (
	"bufio"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/llm-cost/llm-cost/internal/cost"
	"github.com/llm-cost/llm-cost/internal/errs"
)

// pipeLine is one JSONL record the pipe command accepts: the core
// cares only about the text and model fields it delivers, matching the
// "streaming JSONL reader ... delivers text slices to the core"
// out-of-scope boundary (spec.md §1).
type pipeLine struct {
	PromptID string `json:"prompt_id"`
	Model    string `json:"model"`
	Text     string `json:"text"`
}

type pipeResult struct {
	RunID       string  `json:"run_id"`
	PromptID    string  `json:"prompt_id"`
	Model       string  `json:"model"`
	InputTokens int     `json:"input_tokens"`
	TotalUSD    float64 `json:"total_usd"`
	TotalPico   int64   `json:"total_pico_usd"`
}

type pipeOptions struct {
	cl100kVocabPath string
	o200kVocabPath  string
	maxCostUSD      float64
}

func newPipeCmd() *cobra.Command {
	opts := &pipeOptions{}

	cmd := &cobra.Command{
		Use:   "pipe",
		Short: "Price a stream of JSONL prompt records from stdin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipe(opts)
		},
	}

	cmd.Flags().StringVar(&opts.cl100kVocabPath, "cl100k-vocab", "", "path to the cl100k_base BPE2 vocabulary file")
	cmd.Flags().StringVar(&opts.o200kVocabPath, "o200k-vocab", "", "path to the o200k_base BPE2 vocabulary file")
	cmd.Flags().Float64Var(&opts.maxCostUSD, "max-cost", 0, "abort with a partial summary once the running total exceeds this (0 disables)")

	return cmd
}

func runPipe(opts *pipeOptions) error {
	cat, err := resolveCatalogue()
	if err != nil {
		return err
	}
	registry := newTokenizerRegistry(opts.cl100kVocabPath, opts.o200kVocabPath)

	// Every line of a single pipe invocation carries the same run ID, so a
	// downstream log aggregator can group a stream's lines (and a partial
	// abort's budget error) back to the invocation that produced them.
	runID := uuid.NewString()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	encoder := json.NewEncoder(os.Stdout)
	var runningTotal float64
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var line pipeLine
		if err := json.Unmarshal(raw, &line); err != nil {
			return errs.Data("malformed JSONL record").WithField("line", lineNo).WithField("cause", err.Error())
		}

		pd, ok := cat.Lookup(line.Model)
		if !ok {
			return errs.Data("unknown model").WithField("line", lineNo).WithField("model", line.Model)
		}

		tk, err := registry.Get(encodingForModel(line.Model))
		if err != nil {
			return errs.DataWrap("load tokenizer", err).WithField("line", lineNo)
		}

		inputTokens, err := tk.Count(line.Text)
		if err != nil {
			return errs.DataWrap("tokenize line", err).WithField("line", lineNo)
		}

		result := cost.Calculate(pd, int64(inputTokens), 0, cost.Options{})
		runningTotal += result.TotalUSD

		if err := encoder.Encode(pipeResult{
			RunID:       runID,
			PromptID:    line.PromptID,
			Model:       line.Model,
			InputTokens: inputTokens,
			TotalUSD:    result.TotalUSD,
			TotalPico:   result.TotalPico,
		}); err != nil {
			return errs.Internal("write pipe result").WithField("cause", err.Error())
		}

		if opts.maxCostUSD > 0 && runningTotal > opts.maxCostUSD {
			fmt.Fprintf(os.Stderr, "llm-cost pipe: running total $%.6f exceeded --max-cost $%.6f at line %d; stopping\n",
				runningTotal, opts.maxCostUSD, lineNo)
			return errs.Budget("running cost exceeded max-cost during pipe processing").
				WithField("run_id", runID).
				WithField("total_usd", runningTotal).
				WithField("max_cost_usd", opts.maxCostUSD).
				WithField("line", lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return errs.ConfigurationWrap("reading stdin", err)
	}
	return nil
}
