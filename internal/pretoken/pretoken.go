// Package pretoken splits UTF-8 text into BPE pieces using the
// cl100k_base and o200k_base regex rules (spec.md §4.2). BPE merges run
// within each piece independently; pretoken guarantees the concatenation
// and partition laws tested in spec.md §8.
package pretoken

import (
	"fmt"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// Encoding names accepted by New.
const (
	CL100kBase = "cl100k_base"
	O200kBase  = "o200k_base"
)

// Go's stdlib regexp (RE2) cannot express the contraction alternation's
// case-insensitive inline group combined with the trailing-whitespace
// negative lookahead (\s+(?!\S)) that rule 6 requires bit-exact. regexp2
// supports both .NET-style constructs, so the patterns below are used
// verbatim against the OpenAI reference grammar.
const (
	cl100kPattern = `'(?i:[sdtm]|ll|ve|re)|[^\r\n\p{L}\p{N}]?\p{L}+|\p{N}{1,3}| ?[^\s\p{L}\p{N}]+[\r\n]*|\s*[\r\n]+|\s+(?!\S)|\s+`

	o200kPattern = `[^\r\n\p{L}\p{N}]?[\p{Lu}\p{Lt}\p{Lm}\p{Lo}\p{M}]*[\p{Ll}\p{Lm}\p{Lo}\p{M}]+(?i:'s|'t|'re|'ve|'m|'ll|'d)?` +
		`|[^\r\n\p{L}\p{N}]?[\p{Lu}\p{Lt}\p{Lm}\p{Lo}\p{M}]+[\p{Ll}\p{Lm}\p{Lo}\p{M}]*(?i:'s|'t|'re|'ve|'m|'ll|'d)?` +
		`|\p{N}{1,3}| ?[^\s\p{L}\p{N}]+[\r\n]*|\s*[\r\n]+|\s+(?!\S)|\s+`
)

// InvalidUTF8Policy controls how non-UTF-8 input is handled; the pre-
// tokenizer is total on valid UTF-8, per spec.md §4.2 this is a
// configuration choice rather than a single hardcoded behavior.
type InvalidUTF8Policy int

const (
	// Strict rejects invalid UTF-8 input outright.
	Strict InvalidUTF8Policy = iota
	// Lossy decodes invalid sequences byte-by-byte instead of failing.
	Lossy
)

// Splitter splits text into pieces for one vocabulary's regex rules.
type Splitter struct {
	re *regexp2.Regexp
}

// New returns a Splitter for the named encoding ("cl100k_base" or
// "o200k_base").
func New(encodingName string) (*Splitter, error) {
	var pattern string
	switch encodingName {
	case CL100kBase:
		pattern = cl100kPattern
	case O200kBase:
		pattern = o200kPattern
	default:
		return nil, fmt.Errorf("pretoken: unknown encoding %q", encodingName)
	}
	re, err := regexp2.Compile(pattern, regexp2.Unicode)
	if err != nil {
		return nil, fmt.Errorf("pretoken: compile %q: %w", encodingName, err)
	}
	re.MatchTimeout = 0
	return &Splitter{re: re}, nil
}

// Split returns the ordered list of pieces for s under the given
// invalid-UTF-8 policy. The partition law concat(pieces(s)) == s holds
// for Lossy mode against the validated (possibly re-decoded) string, and
// always holds for already-valid UTF-8 input.
func (sp *Splitter) Split(s string, policy InvalidUTF8Policy) ([]string, error) {
	if !utf8.ValidString(s) {
		if policy == Strict {
			return nil, fmt.Errorf("pretoken: invalid UTF-8 input")
		}
		s = lossyRedecode(s)
	}
	if s == "" {
		return nil, nil
	}

	var pieces []string
	m, err := sp.re.FindStringMatch(s)
	if err != nil {
		return nil, fmt.Errorf("pretoken: match: %w", err)
	}
	for m != nil {
		pieces = append(pieces, m.String())
		m, err = sp.re.FindNextMatch(m)
		if err != nil {
			return nil, fmt.Errorf("pretoken: match: %w", err)
		}
	}
	return pieces, nil
}

// lossyRedecode replaces invalid UTF-8 byte sequences with the Unicode
// replacement character, one byte at a time, matching Go's built-in
// range-over-string decoding behavior (utf8.RuneError substitution).
func lossyRedecode(s string) string {
	out := make([]rune, 0, len(s))
	b := []byte(s)
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		out = append(out, r)
		b = b[size:]
	}
	return string(out)
}
