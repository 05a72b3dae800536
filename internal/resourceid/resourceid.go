// Package resourceid derives stable resource identities for prompts
// (spec.md §4.8): prompt_id when slug-valid, else a slugified path,
// else a content-hash fallback, with collision resolution across a
// single invocation's batch.
package resourceid

import (
	"encoding/hex"
	"path"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

var slugValid = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)

// ContentHash returns the BLAKE2b-512 digest of data, used only for
// diff/change-detection output; it is never the identity itself.
func ContentHash(data []byte) [64]byte {
	return blake2b.Sum512(data)
}

// Derive computes the resource id for one prompt given its optional
// promptID, its path, and its raw content bytes, per the precedence in
// spec.md §4.8. seen tracks ids already assigned within the current
// invocation and is mutated to record the id this call returns.
func Derive(promptID, filePath string, content []byte, seen map[string]struct{}) string {
	if promptID != "" && slugValid.MatchString(promptID) {
		seen[promptID] = struct{}{}
		return promptID
	}

	slug := slugifyPath(filePath)
	if slug == "" {
		digest := blake2b.Sum512(content)
		slug = hex.EncodeToString(digest[:])[:12]
	}

	id := slug
	for n := 1; ; n++ {
		if _, collide := seen[id]; !collide {
			break
		}
		id = slug + "-" + strconv.Itoa(n)
	}
	seen[id] = struct{}{}
	return id
}

// slugifyPath strips any directory prefix and file extension, then
// lowercases and collapses runs of non-alphanumerics to a single "-",
// trimming leading/trailing dashes.
func slugifyPath(p string) string {
	base := path.Base(p)
	base = strings.TrimSuffix(base, path.Ext(base))
	lower := strings.ToLower(base)
	slug := nonAlnumRun.ReplaceAllString(lower, "-")
	return strings.Trim(slug, "-")
}
