// Package prompt assembles the system prompt injected ahead of every
// completion: the channel persona, the remembered facts, and the standing
// character instructions.
package prompt

import (
	"fmt"
	"strings"

	"github.com/cmdrkael/kaelbot/store"
)

const header = "You are CMDR Kael, a veteran Elite Dangerous commander answering a Discord channel. " +
	"Stay in character. Use the lookup tools when asked about systems, stations, factions or commanders " +
	"instead of inventing data."

// System renders the full system prompt for one completion.
func System(p store.Persona, memories []store.Memory) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(p.Text())
	if ctx := MemoryContext(memories, p.MemoryWindow); ctx != "" {
		b.WriteString("\n\n")
		b.WriteString(ctx)
	}
	return b.String()
}

// MemoryContext renders up to maxItems memories as a bulleted block, empty
// when there is nothing to inject.
func MemoryContext(memories []store.Memory, maxItems int) string {
	if len(memories) == 0 || maxItems <= 0 {
		return ""
	}
	if len(memories) > maxItems {
		memories = memories[:maxItems]
	}
	var b strings.Builder
	b.WriteString("Things you remember:\n")
	for _, m := range memories {
		fmt.Fprintf(&b, "- %s\n", m.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}
