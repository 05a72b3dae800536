package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/llm-cost/llm-cost/internal/errs"
	"github.com/llm-cost/llm-cost/internal/resourceid"
)

// newDiffCmd compares two prompt snapshots by content hash, surfacing
// which resource ids changed, were added, or were removed between
// them. It consumes internal/resourceid's identity derivation and
// content hashing; walking the two directory trees is the thin,
// external-collaborator part of this command (spec.md §1).
func newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <old-dir> <new-dir>",
		Short: "Show which prompts changed between two directory snapshots",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(args[0], args[1])
		},
	}
	return cmd
}

func runDiff(oldDir, newDir string) error {
	oldHashes, err := hashDirectory(oldDir)
	if err != nil {
		return err
	}
	newHashes, err := hashDirectory(newDir)
	if err != nil {
		return err
	}

	var added, removed, changed, unchanged []string
	for id, newHash := range newHashes {
		oldHash, existed := oldHashes[id]
		switch {
		case !existed:
			added = append(added, id)
		case oldHash != newHash:
			changed = append(changed, id)
		default:
			unchanged = append(unchanged, id)
		}
	}
	for id := range oldHashes {
		if _, ok := newHashes[id]; !ok {
			removed = append(removed, id)
		}
	}

	printList := func(label string, ids []string) {
		for _, id := range ids {
			fmt.Printf("%s %s\n", label, id)
		}
	}
	printList("A", added)
	printList("D", removed)
	printList("M", changed)
	return nil
}

func hashDirectory(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errs.ConfigurationWrap("reading directory", err).WithField("path", dir)
	}

	seen := map[string]struct{}{}
	hashes := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := dir + "/" + e.Name()
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.ConfigurationWrap("reading file", err).WithField("path", path)
		}
		id := resourceid.Derive("", e.Name(), content, seen)
		digest := resourceid.ContentHash(content)
		hashes[id] = hex.EncodeToString(digest[:])
	}
	return hashes, nil
}
