// Package bpe implements the byte-level BPE encoder (spec.md §4.3): a
// struct-of-arrays linked list of slots plus a rank-ordered min-heap of
// merge candidates, run once per pre-tokenizer piece.
package bpe

import (
	"container/heap"

	"github.com/llm-cost/llm-cost/internal/vocab"
)

const sentinel = -1

// Encoder runs BPE merges against one Vocabulary. It is safe for
// concurrent use across goroutines that each call Encode independently;
// each call allocates its own per-encode arena (the slot arrays and
// heap), reset implicitly by discarding them at call return.
type Encoder struct {
	voc *vocab.Vocabulary
}

// New returns an Encoder bound to voc.
func New(voc *vocab.Vocabulary) *Encoder {
	return &Encoder{voc: voc}
}

// candidate is a pending merge: rank is the vocabulary rank of the
// merged token for the pair starting at left. Ties break on lower left
// (deterministic left-to-right on equal rank).
type candidate struct {
	rank vocab.Rank
	left int
}

type candidateHeap []candidate

func (h candidateHeap) Len() int { return len(h) }
func (h candidateHeap) Less(i, j int) bool {
	if h[i].rank != h[j].rank {
		return h[i].rank < h[j].rank
	}
	return h[i].left < h[j].left
}
func (h candidateHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x any)        { *h = append(*h, x.(candidate)) }
func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Encode runs byte-level BPE over piece and returns the ordered token
// sequence. Encode never fails on a well-formed byte sequence: if no
// merges apply it returns the byte-level tokens unchanged. An internal
// invariant violation (a heap candidate referencing an out-of-bounds
// slot) panics — spec.md §4.3 treats this as a fatal bug, not a user
// error.
func (e *Encoder) Encode(piece []byte) []vocab.Rank {
	n := len(piece)
	if n == 0 {
		return nil
	}

	token := make([]vocab.Rank, n)
	prev := make([]int, n)
	next := make([]int, n)
	valid := make([]bool, n)

	for i, b := range piece {
		r, ok := e.voc.RankOf([]byte{b})
		if !ok {
			// Byte-level totality (spec.md §8): every byte must map to a
			// token rank in a byte-level vocabulary. If it doesn't, the
			// vocabulary itself is malformed — that is an internal
			// invariant violation, not a recoverable user error.
			panic("bpe: vocabulary missing byte-level token for a raw byte")
		}
		token[i] = r
		prev[i] = i - 1
		if i == n-1 {
			next[i] = sentinel
		} else {
			next[i] = i + 1
		}
		valid[i] = true
	}
	h := &candidateHeap{}
	heap.Init(h)

	mergeRank := func(a, b vocab.Rank) (vocab.Rank, bool) {
		ab, ok1 := e.voc.BytesOf(a)
		bb, ok2 := e.voc.BytesOf(b)
		if !ok1 || !ok2 {
			return 0, false
		}
		combined := make([]byte, 0, len(ab)+len(bb))
		combined = append(combined, ab...)
		combined = append(combined, bb...)
		return e.voc.RankOf(combined)
	}

	pushCandidate := func(left int) {
		if left == sentinel || left < 0 {
			return
		}
		right := next[left]
		if right == sentinel {
			return
		}
		if r, ok := mergeRank(token[left], token[right]); ok {
			heap.Push(h, candidate{rank: r, left: left})
		}
	}

	for i := 0; i < n-1; i++ {
		pushCandidate(i)
	}

	for h.Len() > 0 {
		c := heap.Pop(h).(candidate)
		left := c.left
		if left < 0 || left >= n {
			panic("bpe: heap candidate references an out-of-bounds slot")
		}
		if !valid[left] {
			continue
		}
		right := next[left]
		if right == sentinel {
			continue
		}
		if !valid[right] {
			continue
		}
		curRank, ok := mergeRank(token[left], token[right])
		if !ok || curRank != c.rank {
			continue
		}

		token[left] = curRank
		newRight := next[right]
		next[left] = newRight
		if newRight != sentinel {
			prev[newRight] = left
		}
		valid[right] = false

		pushCandidate(prev[left])
		pushCandidate(left)
	}

	out := make([]vocab.Rank, 0, n)
	for i := 0; i != sentinel; {
		if valid[i] {
			out = append(out, token[i])
		}
		i = next[i]
	}
	return out
}

// EncodePieces runs Encode over each piece in order and concatenates the
// results, preserving the concatenation property required by the
// pre-tokenizer boundary (spec.md §4.2).
func (e *Encoder) EncodePieces(pieces [][]byte) []vocab.Rank {
	var out []vocab.Rank
	for _, p := range pieces {
		out = append(out, e.Encode(p)...)
	}
	return out
}
