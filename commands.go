package kaelbot

import (
	"strings"
)

type cmdKind int

const (
	cmdNone cmdKind = iota
	cmdPersonaShow
	cmdPersonaSet
	cmdPersonaReset
	cmdRemember
	cmdForget
	cmdMemories
	cmdMore
	cmdStop
)

type command struct {
	kind  cmdKind
	field string // persona set field
	value string // persona set value
	arg   string // remember/forget payload
}

// parseCommand recognizes the fixed keyword commands. Anything else is
// free text for the model.
func parseCommand(content string) (command, bool) {
	text := strings.TrimSpace(content)
	lower := strings.ToLower(text)
	switch lower {
	case "persona":
		return command{kind: cmdPersonaShow}, true
	case "persona reset":
		return command{kind: cmdPersonaReset}, true
	case "memories":
		return command{kind: cmdMemories}, true
	case "more":
		return command{kind: cmdMore}, true
	case "stop":
		return command{kind: cmdStop}, true
	}
	if rest, ok := cutPrefixFold(text, "persona set "); ok {
		parts := strings.SplitN(strings.TrimSpace(rest), " ", 2)
		if len(parts) == 2 {
			return command{kind: cmdPersonaSet, field: parts[0], value: strings.TrimSpace(parts[1])}, true
		}
		return command{kind: cmdPersonaShow}, true
	}
	if rest, ok := cutPrefixFold(text, "remember:"); ok {
		return command{kind: cmdRemember, arg: strings.TrimSpace(rest)}, true
	}
	if rest, ok := cutPrefixFold(text, "forget:"); ok {
		return command{kind: cmdForget, arg: strings.TrimSpace(rest)}, true
	}
	return command{}, false
}

// cutPrefixFold is strings.CutPrefix with ASCII case folding on the prefix.
func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) {
		return s, false
	}
	if !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}
