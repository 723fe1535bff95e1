package kaelbot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		in   string
		want command
		ok   bool
	}{
		{"persona", command{kind: cmdPersonaShow}, true},
		{"  Persona  ", command{kind: cmdPersonaShow}, true},
		{"persona reset", command{kind: cmdPersonaReset}, true},
		{"persona set snark 8", command{kind: cmdPersonaSet, field: "snark", value: "8"}, true},
		{"Persona Set tone military", command{kind: cmdPersonaSet, field: "tone", value: "military"}, true},
		{"remember: the Krait is in dock", command{kind: cmdRemember, arg: "the Krait is in dock"}, true},
		{"Remember:fuel low", command{kind: cmdRemember, arg: "fuel low"}, true},
		{"forget: 2", command{kind: cmdForget, arg: "2"}, true},
		{"memories", command{kind: cmdMemories}, true},
		{"more", command{kind: cmdMore}, true},
		{"stop", command{kind: cmdStop}, true},
		{"what's the state of Wyrd?", command{}, false},
		{"morestuff", command{}, false},
		{"personal question", command{}, false},
	}
	for _, tc := range cases {
		got, ok := parseCommand(tc.in)
		require.Equal(t, tc.ok, ok, "input %q", tc.in)
		if ok {
			require.Equal(t, tc.want, got, "input %q", tc.in)
		}
	}
}
