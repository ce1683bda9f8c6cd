package main

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// command is a parsed line of player input. Exactly one of query or action
// is set: queries are GETs on the session, actions are turns.
type command struct {
	query  string
	action string
	body   any
}

var directionAliases = map[string]string{
	"n": "north", "s": "south", "e": "east", "w": "west",
	"u": "up", "d": "down",
	"ne": "northeast", "nw": "northwest", "se": "southeast", "sw": "southwest",
}

func direction(word string) string {
	if full, ok := directionAliases[word]; ok {
		return full
	}
	return word
}

// isDirection reports whether a bare word should be read as a move.
func isDirection(word string) bool {
	if _, ok := directionAliases[word]; ok {
		return true
	}
	for _, full := range directionAliases {
		if word == full {
			return true
		}
	}
	return false
}

// toID turns "iron key" into "iron_key".
func toID(words []string) string {
	return strings.Join(words, "_")
}

// parseCommand reads a line such as "go north", "search 15" or "take iron key".
func parseCommand(input string) (command, error) {
	words := strings.Fields(strings.ToLower(input))
	if len(words) == 0 {
		return command{}, fmt.Errorf("say something")
	}
	verb, args := words[0], words[1:]

	if len(args) == 0 && isDirection(verb) {
		return command{action: "move", body: map[string]any{"direction": direction(verb)}}, nil
	}

	switch verb {
	case "look", "l", "room":
		return command{query: "room"}, nil
	case "enemies":
		return command{query: "enemies"}, nil
	case "treasure", "loot":
		return command{query: "treasure"}, nil

	case "go", "move", "walk":
		if len(args) != 1 {
			return command{}, fmt.Errorf("usage: go <direction>")
		}
		return command{action: "move", body: map[string]any{"direction": direction(args[0])}}, nil

	case "search":
		if len(args) == 0 {
			return command{action: "search", body: map[string]any{}}, nil
		}
		roll, err := strconv.Atoi(args[0])
		if err != nil || roll < 1 || roll > 20 {
			return command{}, fmt.Errorf("usage: search [d20 roll 1-20]")
		}
		return command{action: "search", body: map[string]any{"roll": roll}}, nil

	case "take", "get", "collect":
		if len(args) == 0 {
			return command{}, fmt.Errorf("usage: take <treasure>")
		}
		return command{action: "collect", body: map[string]any{"treasure_id": toID(args)}}, nil

	case "unlock":
		if len(args) != 1 {
			return command{}, fmt.Errorf("usage: unlock <direction>")
		}
		return command{action: "unlock", body: map[string]any{"direction": direction(args[0])}}, nil

	case "discover", "reveal":
		if len(args) != 1 {
			return command{}, fmt.Errorf("usage: discover <direction>")
		}
		return command{action: "discover", body: map[string]any{"direction": direction(args[0])}}, nil

	case "trap", "spring":
		if len(args) == 0 {
			return command{}, fmt.Errorf("usage: trap <trap>")
		}
		return command{action: "trap", body: map[string]any{"trap_id": toID(args)}}, nil

	case "flag":
		if len(args) != 2 || (args[1] != "on" && args[1] != "off") {
			return command{}, fmt.Errorf("usage: flag <name> on|off")
		}
		return command{action: "flag", body: map[string]any{"name": args[0], "value": args[1] == "on"}}, nil

	case "hit", "attack", "damage":
		if len(args) != 2 {
			return command{}, fmt.Errorf("usage: hit <enemy> <damage>")
		}
		amount, err := strconv.Atoi(args[1])
		if err != nil || amount < 1 {
			return command{}, fmt.Errorf("damage must be a positive number")
		}
		return command{action: "enemy", body: map[string]any{"action": "damage", "enemy_id": args[0], "amount": amount}}, nil

	case "defeat", "kill":
		if len(args) == 0 {
			return command{}, fmt.Errorf("usage: defeat <enemy>")
		}
		return command{action: "enemy", body: map[string]any{"action": "defeat", "enemy_id": toID(args)}}, nil

	case "heal", "hurt":
		if len(args) != 1 {
			return command{}, fmt.Errorf("usage: %s <amount>", verb)
		}
		amount, err := strconv.Atoi(args[0])
		if err != nil || amount < 1 {
			return command{}, fmt.Errorf("amount must be a positive number")
		}
		if verb == "hurt" {
			amount = -amount
		}
		return command{action: "health", body: map[string]any{"change": amount}}, nil
	}

	return command{}, fmt.Errorf("unknown command %q, try /help", verb)
}

// displayName turns an id such as "iron_key" into "Iron Key". Casers keep
// state, so each call gets its own.
func displayName(id string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(id, "_", " "))
}
