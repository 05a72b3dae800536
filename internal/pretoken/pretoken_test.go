package pretoken

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_PartitionLaw(t *testing.T) {
	t.Parallel()

	cases := []string{
		"",
		"Hello world",
		"   ",
		"foo\n\nbar",
		"don't stop believing",
		"CJK: 你好，世界！",
		"emoji 🎉🔥 mix",
		"line1\r\nline2\r\n",
	}

	sp, err := New(CL100kBase)
	require.NoError(t, err)

	for _, s := range cases {
		pieces, err := sp.Split(s, Strict)
		require.NoError(t, err)
		require.Equal(t, s, strings.Join(pieces, ""), "partition law failed for %q", s)
	}
}

func TestSplit_ConcatenationLaw(t *testing.T) {
	t.Parallel()

	sp, err := New(CL100kBase)
	require.NoError(t, err)

	// The split falls at a piece boundary: " a" is one piece, so the
	// space stays with b.
	a := "Hello, world! This is"
	b := " a test of concatenation."

	piecesWhole, err := sp.Split(a+b, Strict)
	require.NoError(t, err)

	piecesA, err := sp.Split(a, Strict)
	require.NoError(t, err)
	piecesB, err := sp.Split(b, Strict)
	require.NoError(t, err)

	require.Equal(t, strings.Join(piecesWhole, "|"), strings.Join(append(piecesA, piecesB...), "|"))
}

func TestSplit_TrailingWhitespaceLookahead(t *testing.T) {
	t.Parallel()

	sp, err := New(CL100kBase)
	require.NoError(t, err)

	// A whitespace run followed by a non-whitespace character yields the
	// run minus its final whitespace as a piece; the final whitespace
	// joins the next piece.
	pieces, err := sp.Split("   x", Strict)
	require.NoError(t, err)
	require.Equal(t, []string{"  ", " x"}, pieces)
}

func TestSplit_IsolatedSpacesCollapseToWhitespaceRun(t *testing.T) {
	t.Parallel()

	sp, err := New(CL100kBase)
	require.NoError(t, err)

	pieces, err := sp.Split("   ", Strict)
	require.NoError(t, err)
	require.Equal(t, []string{"   "}, pieces)
}

func TestSplit_Contraction(t *testing.T) {
	t.Parallel()

	sp, err := New(CL100kBase)
	require.NoError(t, err)

	pieces, err := sp.Split("don't", Strict)
	require.NoError(t, err)
	require.Equal(t, []string{"don", "'t"}, pieces)
}

func TestSplit_ContractionCaseInsensitive(t *testing.T) {
	t.Parallel()

	sp, err := New(CL100kBase)
	require.NoError(t, err)

	pieces, err := sp.Split("don'T", Strict)
	require.NoError(t, err)
	require.Equal(t, []string{"don", "'T"}, pieces)
}

func TestSplit_Digits(t *testing.T) {
	t.Parallel()

	sp, err := New(CL100kBase)
	require.NoError(t, err)

	pieces, err := sp.Split("12345", Strict)
	require.NoError(t, err)
	require.Equal(t, []string{"123", "45"}, pieces)
}

func TestSplit_O200kPartitionLaw(t *testing.T) {
	t.Parallel()

	sp, err := New(O200kBase)
	require.NoError(t, err)

	cases := []string{"", "Hello world", "don't", "12345", "   x"}
	for _, s := range cases {
		pieces, err := sp.Split(s, Strict)
		require.NoError(t, err)
		require.Equal(t, s, strings.Join(pieces, ""))
	}
}

func TestSplit_InvalidUTF8StrictRejects(t *testing.T) {
	t.Parallel()

	sp, err := New(CL100kBase)
	require.NoError(t, err)

	_, err = sp.Split(string([]byte{0xff, 0xfe}), Strict)
	require.Error(t, err)
}

func TestSplit_InvalidUTF8LossyDecodes(t *testing.T) {
	t.Parallel()

	sp, err := New(CL100kBase)
	require.NoError(t, err)

	pieces, err := sp.Split(string([]byte{0xff, 'x'}), Lossy)
	require.NoError(t, err)
	require.NotEmpty(t, pieces)
}

func TestNew_UnknownEncoding(t *testing.T) {
	t.Parallel()

	_, err := New("unknown_base")
	require.Error(t, err)
}
