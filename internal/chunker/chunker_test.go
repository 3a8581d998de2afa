package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_ShortTextReturnsInputUnchanged(t *testing.T) {
	input := "  a short text with leading whitespace"
	got := Split(input, 1000)
	require.Equal(t, []string{input}, got)
}

func TestSplit_PacksParagraphsGreedily(t *testing.T) {
	p1 := strings.Repeat("a", 40)
	p2 := strings.Repeat("b", 40)
	p3 := strings.Repeat("c", 40)
	input := p1 + "\n\n" + p2 + "\n\n" + p3

	got := Split(input, 90)
	require.Len(t, got, 2)
	require.Equal(t, p1+"\n\n"+p2, got[0])
	require.Equal(t, p3, got[1])
}

func TestSplit_OversizedParagraphFallsBackToSentences(t *testing.T) {
	s1 := strings.Repeat("x", 30) + "."
	s2 := strings.Repeat("y", 30) + "!"
	s3 := strings.Repeat("z", 30) + "?"
	input := s1 + " " + s2 + " " + s3

	got := Split(input, 70)
	require.Len(t, got, 2)
	require.Equal(t, s1+" "+s2, got[0])
	require.Equal(t, s3, got[1])
}

func TestSplit_ResidualSentenceSeedsNextChunk(t *testing.T) {
	long := strings.Repeat("w", 60) + ". " + strings.Repeat("v", 20)
	next := strings.Repeat("n", 20)
	input := long + "\n\n" + next

	got := Split(input, 70)
	require.Len(t, got, 2)
	// The trailing partial sentence of the oversized paragraph is not
	// dropped; the following paragraph packs after it.
	require.Equal(t, strings.Repeat("v", 20)+"\n\n"+next, got[1])
}

func TestSplit_ChunksAreTrimmedAndNonEmpty(t *testing.T) {
	input := "first paragraph here.\n\n   \n\nsecond paragraph here.\n\nthird paragraph text."
	got := Split(input, 30)
	require.NotEmpty(t, got)
	for _, chunk := range got {
		require.Equal(t, chunk, strings.TrimSpace(chunk))
		require.NotEmpty(t, chunk)
	}
}

func TestSplit_NoChunkExceedsMaxLen(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 30; i++ {
		sb.WriteString("some sentence about robots and middleware. ")
		if i%5 == 4 {
			sb.WriteString("\n\n")
		}
	}
	got := Split(sb.String(), 120)
	require.Greater(t, len(got), 1)
	for _, chunk := range got {
		require.LessOrEqual(t, len(chunk), 120)
	}
}

func TestSplit_UnsplittableRunStaysWhole(t *testing.T) {
	input := strings.Repeat("q", 500)
	got := Split(input, 100)
	require.Equal(t, []string{input}, got)
}

func TestSplit_ContentIsPreserved(t *testing.T) {
	input := "alpha beta.\n\ngamma delta! epsilon zeta?\n\ntheta iota kappa."
	got := Split(input, 25)
	joined := strings.Join(got, " ")
	for _, word := range []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "theta", "iota", "kappa"} {
		require.Contains(t, joined, word)
	}
}

func TestSplit_IsDeterministic(t *testing.T) {
	input := "one two three.\n\nfour five six.\n\nseven eight nine."
	first := Split(input, 20)
	second := Split(input, 20)
	require.Equal(t, first, second)
}
