// Package chunker splits response text into transport-safe segments and
// tracks the unsent remainder per channel. Discord rejects messages above
// 2000 characters; the bot stays under 1900 to leave room for decoration.
package chunker

import (
	"strings"
)

// DefaultMaxLen is the transport limit the bot splits against.
const DefaultMaxLen = 1900

const fence = "```"

// Split cuts text into ordered chunks of at most maxLen characters.
// Boundaries are tried in priority order: whole paragraphs (blank-line
// separated), then lines, then sentences (whitespace after '.', '!' or
// '?'), then a hard cut at the limit. Each fallback level flushes the
// accumulated buffer before continuing. The result is deterministic for a
// given input and limit.
//
// A chunk containing an odd number of triple-backtick markers is closed
// with an appended fence, and the following chunk reopens one, so no chunk
// renders with a dangling code block.
func Split(text string, maxLen int) []string {
	if maxLen < 1 {
		maxLen = 1
	}
	if len(text) <= maxLen {
		return []string{text}
	}
	budget := maxLen
	// Reserve room for one appended closing fence and one carried opening
	// fence per chunk. Limits at or below the reservation floor leave
	// fences unbalanced rather than let a chunk exceed maxLen.
	fenced := strings.Contains(text, fence) && maxLen > 2*(len(fence)+1)
	if fenced {
		budget = maxLen - 2*(len(fence)+1)
	}
	chunks := split(text, budget)
	if fenced {
		chunks = closeFences(chunks)
	}
	return chunks
}

func split(text string, budget int) []string {
	var out []string
	var buf strings.Builder

	flush := func() {
		if buf.Len() > 0 {
			out = append(out, buf.String())
			buf.Reset()
		}
	}
	// add appends piece to the buffer when it fits, joined by sep unless
	// the buffer is empty.
	add := func(piece, sep string) bool {
		if buf.Len() == 0 {
			if len(piece) <= budget {
				buf.WriteString(piece)
				return true
			}
			return false
		}
		if buf.Len()+len(sep)+len(piece) <= budget {
			buf.WriteString(sep)
			buf.WriteString(piece)
			return true
		}
		return false
	}

	for _, para := range strings.Split(text, "\n\n") {
		if add(para, "\n\n") {
			continue
		}
		flush()
		if add(para, "") {
			continue
		}
		// Paragraph exceeds the budget on its own: fall back to lines.
		for _, line := range strings.Split(para, "\n") {
			if add(line, "\n") {
				continue
			}
			flush()
			if add(line, "") {
				continue
			}
			// Line exceeds the budget: fall back to sentences.
			for _, sent := range splitSentences(line) {
				if add(sent, " ") {
					continue
				}
				flush()
				if add(sent, "") {
					continue
				}
				// Sentence exceeds the budget: hard cut.
				for len(sent) > budget {
					out = append(out, sent[:budget])
					sent = sent[budget:]
				}
				buf.WriteString(sent)
			}
		}
	}
	flush()
	return out
}

// splitSentences cuts s at whitespace following '.', '!' or '?', keeping
// the punctuation with the preceding sentence and dropping the separator.
func splitSentences(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '.', '!', '?':
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
				j++
			}
			if j > i+1 {
				out = append(out, s[start:i+1])
				start = j
				i = j - 1
			}
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// closeFences balances triple-backtick markers across chunk boundaries: a
// chunk that leaves a code block open gets a closing fence appended, and
// the next chunk reopens it.
func closeFences(chunks []string) []string {
	open := false
	for i, c := range chunks {
		if open {
			c = fence + "\n" + c
		}
		if strings.Count(chunks[i], fence)%2 == 1 {
			open = !open
		}
		if open {
			c += "\n" + fence
		}
		chunks[i] = c
	}
	return chunks
}
