// Package vocab loads the BPE2 binary vocabulary format (spec.md §4.1)
// and exposes token<->bytes lookup with amortised O(1) access in both
// directions.
//
// Layout, little-endian, 64-byte header:
//
//	0..3   magic "BPE2"
//	4..7   format version (=1)
//	8..11  token count N
//	12..15 max token byte length
//	16..19 blob size in bytes
//	20..51 SHA-256 of the originating .tiktoken source
//	52..63 reserved, zero
//	then N entries of (u32 offset, u32 length) into the blob
//	then the blob itself
package vocab

import (
	"encoding/binary"
	"fmt"
)

const (
	headerSize  = 64
	magicString = "BPE2"
	formatVersion = 1
	entrySize   = 8 // two little-endian u32
)

// Error kinds for vocabulary loading failures, per spec.md §4.1.
var (
	ErrBadMagic           = fmt.Errorf("vocab: bad magic")
	ErrUnsupportedVersion = fmt.Errorf("vocab: unsupported format version")
	ErrTruncatedFile      = fmt.Errorf("vocab: truncated file")
	ErrEntryOutOfBounds   = fmt.Errorf("vocab: entry out of bounds")
)

// Rank identifies a vocabulary token by its merge priority; lower rank
// merges earlier. Rank doubles as the token id throughout this module —
// per spec.md §9 these are the same concept and only one name is used.
type Rank = uint32

// Vocabulary is an immutable, loaded BPE2 vocabulary.
type Vocabulary struct {
	Name          string
	tokenCount    int
	maxTokenLen   int
	sourceSHA256  [32]byte
	blob          []byte
	offsets       []uint32 // offsets[rank] -> byte offset into blob
	lengths       []uint32 // lengths[rank] -> byte length into blob
	byBytes       map[string]Rank
}

// SourceSHA256 returns the SHA-256 of the originating .tiktoken file,
// recorded for provenance.
func (v *Vocabulary) SourceSHA256() [32]byte { return v.sourceSHA256 }

// Size returns the number of tokens in the vocabulary.
func (v *Vocabulary) Size() int { return v.tokenCount }

// MaxTokenLen returns the maximum token byte length.
func (v *Vocabulary) MaxTokenLen() int { return v.maxTokenLen }

// BytesOf returns the byte sequence for rank, and whether rank is valid.
func (v *Vocabulary) BytesOf(rank Rank) ([]byte, bool) {
	if int(rank) < 0 || int(rank) >= v.tokenCount {
		return nil, false
	}
	off := v.offsets[rank]
	length := v.lengths[rank]
	return v.blob[off : off+length], true
}

// RankOf returns the rank for the given byte sequence, and whether it
// exists in the vocabulary.
func (v *Vocabulary) RankOf(b []byte) (Rank, bool) {
	r, ok := v.byByte(b)
	return r, ok
}

func (v *Vocabulary) byByte(b []byte) (Rank, bool) {
	r, ok := v.byBytes[string(b)]
	return r, ok
}

// Load parses a BPE2 binary buffer into a Vocabulary. buf may be a
// memory-mapped region or an embedded byte slice; Load does not retain
// ownership semantics beyond holding a reference — the caller must keep
// buf alive for the Vocabulary's lifetime.
func Load(name string, buf []byte) (*Vocabulary, error) {
	if len(buf) < headerSize {
		return nil, ErrTruncatedFile
	}
	if string(buf[0:4]) != magicString {
		return nil, ErrBadMagic
	}
	version := binary.LittleEndian.Uint32(buf[4:8])
	if version != formatVersion {
		return nil, ErrUnsupportedVersion
	}
	n := binary.LittleEndian.Uint32(buf[8:12])
	maxLen := binary.LittleEndian.Uint32(buf[12:16])
	blobSize := binary.LittleEndian.Uint32(buf[16:20])

	var sha [32]byte
	copy(sha[:], buf[20:52])

	entriesStart := headerSize
	entriesEnd := entriesStart + int(n)*entrySize
	if len(buf) < entriesEnd {
		return nil, ErrTruncatedFile
	}
	blobStart := entriesEnd
	blobEnd := blobStart + int(blobSize)
	if len(buf) < blobEnd {
		return nil, ErrTruncatedFile
	}

	offsets := make([]uint32, n)
	lengths := make([]uint32, n)
	byBytes := make(map[string]Rank, n)
	blob := buf[blobStart:blobEnd]

	for i := uint32(0); i < n; i++ {
		entryOff := entriesStart + int(i)*entrySize
		off := binary.LittleEndian.Uint32(buf[entryOff : entryOff+4])
		length := binary.LittleEndian.Uint32(buf[entryOff+4 : entryOff+8])
		if uint64(off)+uint64(length) > uint64(blobSize) {
			return nil, ErrEntryOutOfBounds
		}
		offsets[i] = off
		lengths[i] = length
		byBytes[string(blob[off:off+length])] = Rank(i)
	}

	return &Vocabulary{
		Name:         name,
		tokenCount:   int(n),
		maxTokenLen:  int(maxLen),
		sourceSHA256: sha,
		blob:         blob,
		offsets:      offsets,
		lengths:      lengths,
		byBytes:      byBytes,
	}, nil
}

// Encode serializes a rank->bytes map into the BPE2 binary format, for
// tooling that builds vocabulary binaries from .tiktoken rank files.
// Ranks must be contiguous starting at 0.
func Encode(ranks map[string]Rank, sourceSHA256 [32]byte) ([]byte, error) {
	n := len(ranks)
	ordered := make([][]byte, n)
	for b, r := range ranks {
		if int(r) < 0 || int(r) >= n {
			return nil, fmt.Errorf("vocab: rank %d out of contiguous range [0,%d)", r, n)
		}
		if ordered[r] != nil {
			return nil, fmt.Errorf("vocab: duplicate rank %d", r)
		}
		ordered[r] = []byte(b)
	}
	for i, b := range ordered {
		if b == nil {
			return nil, fmt.Errorf("vocab: missing rank %d", i)
		}
	}

	maxLen := 0
	blobSize := 0
	for _, b := range ordered {
		if len(b) > maxLen {
			maxLen = len(b)
		}
		blobSize += len(b)
	}

	out := make([]byte, headerSize+n*entrySize+blobSize)
	copy(out[0:4], magicString)
	binary.LittleEndian.PutUint32(out[4:8], formatVersion)
	binary.LittleEndian.PutUint32(out[8:12], uint32(n))
	binary.LittleEndian.PutUint32(out[12:16], uint32(maxLen))
	binary.LittleEndian.PutUint32(out[16:20], uint32(blobSize))
	copy(out[20:52], sourceSHA256[:])

	blobStart := headerSize + n*entrySize
	cursor := 0
	for i, b := range ordered {
		entryOff := headerSize + i*entrySize
		binary.LittleEndian.PutUint32(out[entryOff:entryOff+4], uint32(cursor))
		binary.LittleEndian.PutUint32(out[entryOff+4:entryOff+8], uint32(len(b)))
		copy(out[blobStart+cursor:], b)
		cursor += len(b)
	}
	return out, nil
}
