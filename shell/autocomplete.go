package shell

import (
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/domino14/blockgrid/config"
	"github.com/domino14/blockgrid/game"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string // Available options for this command (e.g., "-cap", "-threads")
	Args    []string // Possible argument values (for non-option arguments)
}

var commandMetadata = map[string]CommandMetadata{
	"new": {
		Options: []string{"-board"},
		Args:    []string{"random"},
	},
	"hand": {
		Args: []string{"random"},
	},
	"solve": {
		Options: []string{"-cap"},
		Args:    []string{"first", "best"},
	},
	"autoplay": {
		Options: []string{"-games", "-threads", "-log", "-seeds"},
	},
	"set": {
		Args: config.Keys(),
	},
	"setconfig": {
		Args: config.Keys(),
	},
	"help": {
		Args: commandNames,
	},
}

// Common command names for command completion
var commandNames = []string{
	"help", "new", "board", "show", "s", "place", "edit", "hand", "undo", "u",
	"redo", "r", "checkout", "co", "delete", "tree", "leaves", "path", "stats",
	"legal", "pieces", "solve", "apply", "autoplay", "analyze", "set",
	"setconfig", "script", "exit",
}

// nodeArgs lists the ids of the session tree for commands that take one.
func (c *ShellCompleter) nodeArgs() []string {
	if c.sc.tree == nil {
		return nil
	}
	var ids []string
	c.sc.tree.Walk(func(n *game.GameNode, _ int) bool {
		ids = append(ids, strconv.FormatUint(uint64(n.ID()), 10))
		return true
	})
	return ids
}

// Do implements the readline.AutoComplete interface
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		switch cmdName {
		case "checkout", "co", "delete", "path":
			completions = c.nodeArgs()
		default:
			if metadata, exists := commandMetadata[cmdName]; exists {
				if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
					completions = metadata.Options
				} else {
					completions = metadata.Args
				}
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}
