package command

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"avalon-game-bot/internal/game/code"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Command
	}{
		{"help", "help", Command{Kind: Help, Args: []string{}}},
		{"help with sigil", "#help", Command{Kind: Help, Args: []string{}}},
		{"slash sigil", "/list", Command{Kind: List, Args: []string{}}},
		{"bang sigil", "!start", Command{Kind: Start, Args: []string{}}},

		{"create", "create", Command{Kind: Create, Args: []string{}}},
		{"create uppercase", "CREATE", Command{Kind: Create, Args: []string{}}},
		{"create-game suffix", "create-game", Command{Kind: Create, Args: []string{}}},
		{"create game token", "create game", Command{Kind: Create, Args: []string{}}},
		{"create secret", "create secret", Command{Kind: Create, Secret: true, Args: []string{"secret"}}},
		{"create game secret", "create game secret", Command{Kind: Create, Secret: true, Args: []string{"secret"}}},
		{"create yolo", "create yolo", Command{Kind: Create, Secret: true, Args: []string{"yolo"}}},

		{"join with code", "join 1234", Command{Kind: Join, Code: "1234", Args: []string{"1234"}}},
		{"join six digits", "#join 123456", Command{Kind: Join, Code: "123456", Args: []string{"123456"}}},
		{"join without code", "join", Command{Kind: Join, Args: []string{}}},
		{"join messy whitespace", "  JoIn   9999  ", Command{Kind: Join, Code: "9999", Args: []string{"9999"}}},
		{"yolo quick-join", "yolo", Command{Kind: Join, Code: code.HiddenCode, Args: []string{}}},
		{"yolo-join synonym", "yolo-join", Command{Kind: Join, Code: code.HiddenCode, Args: []string{}}},

		{"list", "list", Command{Kind: List, Args: []string{}}},
		{"list-games suffix", "list-games", Command{Kind: List, Args: []string{}}},

		{"start", "start", Command{Kind: Start, Args: []string{}}},
		{"begin synonym", "begin", Command{Kind: Start, Args: []string{}}},
		{"begin-game suffix", "begin-game", Command{Kind: Start, Args: []string{}}},

		{"exit", "exit", Command{Kind: Exit, Args: []string{}}},
		{"exit games token", "exit games", Command{Kind: Exit, Args: []string{}}},
		{"quit synonym", "quit", Command{Kind: Exit, Args: []string{}}},
		{"leave synonym", "leave", Command{Kind: Exit, Args: []string{}}},

		{"empty", "", Command{Kind: Unknown}},
		{"whitespace only", "   ", Command{Kind: Unknown}},
		{"unknown keyword", "dance", Command{Kind: Unknown, Args: []string{}}},
		{"unknown with args", "dance with me", Command{Kind: Unknown, Args: []string{"with", "me"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			assert.Equal(t, tt.want.Kind, got.Kind)
			assert.Equal(t, tt.want.Secret, got.Secret)
			assert.Equal(t, tt.want.Code, got.Code)
			if len(tt.want.Args) > 0 || len(got.Args) > 0 {
				assert.Equal(t, tt.want.Args, got.Args)
			}
		})
	}
}

func TestParse_NeverPanicsOnGarbage(t *testing.T) {
	for _, raw := range []string{"###", "---", "#", "/", "!", "#-game", "create-games-game"} {
		assert.NotPanics(t, func() { Parse(raw) }, "input %q", raw)
	}
}
