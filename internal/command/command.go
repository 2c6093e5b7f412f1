// Package command parses raw chat text into normalized lobby commands.
// Parsing is pure: no state, no side effects.
package command

import (
	"strings"

	"avalon-game-bot/internal/game/code"
)

// Kind identifies a lobby operation.
type Kind int

const (
	Unknown Kind = iota
	Help
	Create
	Join
	List
	Start
	Exit
)

// Command is a normalized inbound command.
type Command struct {
	Kind Kind
	// Secret marks the quick-join create variant ("create secret").
	Secret bool
	// Code is the join code argument, if any.
	Code string
	// Args holds any remaining tokens after the keyword.
	Args []string
}

// sigils recognized as command prefixes, e.g. "#join" or "/join".
const sigils = "#/!"

// Parse normalizes raw text into a Command. Casing and surrounding
// whitespace are irrelevant; unknown keywords yield Unknown rather than an
// error so the caller can re-send help text.
func Parse(raw string) Command {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(raw)))
	if len(fields) == 0 {
		return Command{Kind: Unknown}
	}

	keyword := strings.TrimLeft(fields[0], sigils)
	keyword = strings.TrimSuffix(keyword, "-games")
	keyword = strings.TrimSuffix(keyword, "-game")

	args := fields[1:]
	// A bare "game"/"games" qualifier after the keyword is decoration:
	// "create game" means "create".
	if len(args) > 0 && (args[0] == "game" || args[0] == "games") {
		args = args[1:]
	}

	switch keyword {
	case "help":
		return Command{Kind: Help, Args: args}
	case "create":
		secret := len(args) > 0 && (args[0] == "secret" || args[0] == "yolo")
		return Command{Kind: Create, Secret: secret, Args: args}
	case "join":
		var joinCode string
		if len(args) > 0 {
			joinCode = args[0]
		}
		return Command{Kind: Join, Code: joinCode, Args: args}
	case "yolo", "yolo-join":
		return Command{Kind: Join, Code: code.HiddenCode, Args: args}
	case "list":
		return Command{Kind: List, Args: args}
	case "start", "begin":
		return Command{Kind: Start, Args: args}
	case "exit", "quit", "leave":
		return Command{Kind: Exit, Args: args}
	default:
		return Command{Kind: Unknown, Args: args}
	}
}
