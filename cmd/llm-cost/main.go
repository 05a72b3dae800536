// Command llm-cost is an offline CLI for LLM cost governance: it
// tokenizes prompts, applies a signed pricing catalogue, enforces
// budget/allow-list policy, and exports FOCUS rows.
package main

import (
	"fmt"
	"os"

	"github.com/llm-cost/llm-cost/internal/errs"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(errs.ExitCode(err))
	}
}
