package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// squash strips all whitespace so chunk concatenation can be compared to
// the input regardless of which separators the splitter dropped.
func squash(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func TestSplitShortInputIsIdentity(t *testing.T) {
	require.Equal(t, []string{"hello"}, Split("hello", 10))
	require.Equal(t, []string{"hello"}, Split("hello", 5))
	require.Equal(t, []string{""}, Split("", 10))
}

func TestSplitParagraphBoundaries(t *testing.T) {
	text := "first paragraph here\n\nsecond paragraph here\n\nthird paragraph here"
	chunks := Split(text, 45)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		require.LessOrEqual(t, len(c), 45)
	}
	require.Equal(t, squash(text), squash(strings.Join(chunks, "")))
}

func TestSplitFallsBackToLines(t *testing.T) {
	// One paragraph that cannot fit whole, made of short lines.
	lines := make([]string, 10)
	for i := range lines {
		lines[i] = "line number " + strings.Repeat("x", 10)
	}
	text := strings.Join(lines, "\n")
	chunks := Split(text, 60)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		require.LessOrEqual(t, len(c), 60)
	}
	require.Equal(t, squash(text), squash(strings.Join(chunks, "")))
}

func TestSplitFallsBackToSentences(t *testing.T) {
	text := "Alpha beta gamma. Delta epsilon zeta! Eta theta iota? Kappa lambda mu."
	chunks := Split(text, 25)
	for _, c := range chunks {
		require.LessOrEqual(t, len(c), 25)
	}
	require.Equal(t, squash(text), squash(strings.Join(chunks, "")))
	// Sentence punctuation stays with its sentence.
	require.True(t, strings.HasSuffix(chunks[0], ".") || strings.HasSuffix(chunks[0], "!"))
}

func TestSplitHardCut(t *testing.T) {
	text := strings.Repeat("a", 95)
	chunks := Split(text, 10)
	require.Len(t, chunks, 10)
	for _, c := range chunks {
		require.LessOrEqual(t, len(c), 10)
	}
	require.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplitClosesCodeFences(t *testing.T) {
	var b strings.Builder
	b.WriteString("Here is the log:\n\n```\n")
	for i := 0; i < 40; i++ {
		b.WriteString("entry line with some detail\n")
	}
	b.WriteString("```")
	chunks := Split(b.String(), 200)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		require.LessOrEqual(t, len(c), 200)
		require.Equal(t, 0, strings.Count(c, "```")%2, "chunk has a dangling code fence: %q", c)
	}
}

func TestSplitTinyLimitNeverExceedsMaxLen(t *testing.T) {
	// Below the fence reservation floor the limit still binds; fences may
	// dangle but no chunk may overflow.
	text := "```\n" + strings.Repeat("x", 50) + "\n```"
	for _, maxLen := range []int{1, 4, 6, 8} {
		for _, c := range Split(text, maxLen) {
			require.LessOrEqual(t, len(c), maxLen, "maxLen %d", maxLen)
		}
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := strings.Repeat("Some sentence here. ", 200)
	require.Equal(t, Split(text, 100), Split(text, 100))
}

func TestSplitSentencesHelper(t *testing.T) {
	got := splitSentences("One two. Three four! Five six? Seven")
	require.Equal(t, []string{"One two.", "Three four!", "Five six?", "Seven"}, got)
	// A dot without trailing whitespace is not a boundary.
	got = splitSentences("v1.2.3 released")
	require.Equal(t, []string{"v1.2.3 released"}, got)
}
