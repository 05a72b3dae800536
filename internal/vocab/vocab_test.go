package vocab

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
)

func byteVocabRanks() map[string]Rank {
	ranks := make(map[string]Rank, 256)
	for i := 0; i < 256; i++ {
		ranks[string([]byte{byte(i)})] = Rank(i)
	}
	return ranks
}

func TestEncodeLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	ranks := byteVocabRanks()
	ranks["ab"] = 256
	sha := sha256.Sum256([]byte("source"))

	buf, err := Encode(ranks, sha)
	require.NoError(t, err)

	v, err := Load("test_vocab", buf)
	require.NoError(t, err)
	require.Equal(t, 257, v.Size())
	require.Equal(t, sha, v.SourceSHA256())

	b, ok := v.BytesOf(256)
	require.True(t, ok)
	require.Equal(t, []byte("ab"), b)

	r, ok := v.RankOf([]byte("ab"))
	require.True(t, ok)
	require.Equal(t, Rank(256), r)
}

func TestLoad_RoundTripEveryToken(t *testing.T) {
	t.Parallel()

	ranks := byteVocabRanks()
	sha := sha256.Sum256([]byte("source2"))
	buf, err := Encode(ranks, sha)
	require.NoError(t, err)

	v, err := Load("bytes", buf)
	require.NoError(t, err)

	for b, r := range ranks {
		got, ok := v.BytesOf(r)
		require.True(t, ok)
		require.Equal(t, []byte(b), got)

		gotRank, ok := v.RankOf([]byte(b))
		require.True(t, ok)
		require.Equal(t, r, gotRank)
	}
}

func TestLoad_BadMagic(t *testing.T) {
	t.Parallel()

	buf := make([]byte, headerSize)
	copy(buf[0:4], "XXXX")
	_, err := Load("bad", buf)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestLoad_TruncatedHeader(t *testing.T) {
	t.Parallel()

	_, err := Load("short", make([]byte, 10))
	require.ErrorIs(t, err, ErrTruncatedFile)
}

func TestLoad_UnsupportedVersion(t *testing.T) {
	t.Parallel()

	ranks := byteVocabRanks()
	sha := sha256.Sum256([]byte("s"))
	buf, err := Encode(ranks, sha)
	require.NoError(t, err)
	buf[4] = 2 // bump version field

	_, err = Load("v2", buf)
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestLoad_EntryOutOfBounds(t *testing.T) {
	t.Parallel()

	ranks := map[string]Rank{"a": 0}
	sha := sha256.Sum256([]byte("s"))
	buf, err := Encode(ranks, sha)
	require.NoError(t, err)

	// Corrupt the single entry's length to overrun the blob.
	entryOff := headerSize
	buf[entryOff+4] = 0xFF
	buf[entryOff+5] = 0xFF

	_, err = Load("corrupt", buf)
	require.ErrorIs(t, err, ErrEntryOutOfBounds)
}

func TestEncode_MaxTokenLen(t *testing.T) {
	t.Parallel()

	ranks := byteVocabRanks()
	ranks["abcdef"] = 256
	sha := sha256.Sum256([]byte("s"))
	buf, err := Encode(ranks, sha)
	require.NoError(t, err)

	v, err := Load("maxlen", buf)
	require.NoError(t, err)
	require.Equal(t, 6, v.MaxTokenLen())
}
