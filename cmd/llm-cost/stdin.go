package main

import (
	"io"
	"os"

	"github.com/llm-cost/llm-cost/internal/catalog"
)

func readAllStdin() (string, error) {
	buf, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// catalogStaleness classifies cat against the current wall clock. This
// is the one place the command layer reaches for real time; the core
// packages take "now" as an explicit argument so they stay testable.
func catalogStaleness(cat *catalog.Catalogue) catalog.Staleness {
	return catalog.ClassifyStaleness(wallClockNow(), cat.ValidUntil)
}
