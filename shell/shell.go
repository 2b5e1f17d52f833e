package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/domino14/blockgrid/cache"
	"github.com/domino14/blockgrid/config"
	"github.com/domino14/blockgrid/game"
	"github.com/domino14/blockgrid/piece"
	"github.com/domino14/blockgrid/solver"
)

var (
	errNoData            = errors.New("no data in command")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errNoTree            = errors.New("no puzzle loaded; use the `new` command first")
	errNoSolution        = errors.New("no solution to apply; use the `solve` command first")
)

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

type ShellController struct {
	l          *readline.Instance
	out        io.Writer
	config     *config.Config
	execPath   string
	gitVersion string

	catalog *piece.Catalog
	solver  *solver.Solver
	cache   *cache.SolutionCache

	// tree is the only reference to the session history; every command that
	// changes it runs on the readline goroutine.
	tree *game.StateTree

	lastSolution *solver.Solution
	// nextStep indexes the first step of lastSolution not yet applied.
	nextStep int
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

// newController builds everything but the terminal. Output goes to out.
func newController(cfg *config.Config, execPath, gitVersion string, out io.Writer) (*ShellController, error) {
	catalog := piece.Default()
	if p := cfg.GetString(config.ConfigCatalogPath); p != "" {
		var err error
		catalog, err = piece.LoadFile(p)
		if err != nil {
			return nil, err
		}
	}
	s := solver.NewSolver(catalog)
	s.SetMaxSolutions(cfg.GetInt(config.ConfigSolverMaxSolutions))
	return &ShellController{
		out:        out,
		config:     cfg,
		execPath:   execPath,
		gitVersion: gitVersion,
		catalog:    catalog,
		solver:     s,
		cache:      cache.NewFromMemory(cfg.GetFloat64(config.ConfigCacheMemoryFraction)),
	}, nil
}

func NewShellController(cfg *config.Config, execPath, gitVersion string) *ShellController {
	prompt := "blockgrid"
	sc, err := newController(cfg, execPath, gitVersion, os.Stderr)
	if err != nil {
		panic(err)
	}
	sc.l, err = readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("\033[31m%v>\033[0m ", prompt),
		HistoryFile:     cfg.GetString(config.ConfigHistoryFile),
		AutoComplete:    NewShellCompleter(sc),
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc.out = sc.l.Stderr()
	return sc
}

func (sc *ShellController) showMessage(msg string) {
	showMessage(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// setTree replaces the session tree. Any pending solution was computed for
// the old position and is dropped.
func (sc *ShellController) setTree(t *game.StateTree) {
	sc.tree = t
	sc.lastSolution = nil
	sc.nextStep = 0
}

func (sc *ShellController) currentNode() (*game.GameNode, error) {
	if sc.tree == nil {
		return nil, errNoTree
	}
	return sc.tree.Current(), nil
}

func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := CmdOptions{}
	for idx := 1; idx < len(fields); idx++ {
		if strings.HasPrefix(fields[idx], "-") {
			if _, err := strconv.Atoi(fields[idx]); err != nil {
				if idx == len(fields)-1 {
					return nil, errWrongOptionSyntax
				}
				key := fields[idx][1:]
				options[key] = append(options[key], fields[idx+1])
				idx++
				continue
			}
		}
		args = append(args, fields[idx])
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

func (sc *ShellController) standardModeSwitch(line string, sig chan os.Signal) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "exit", "bye":
		sig <- syscall.SIGINT
		return nil, errors.New("sending quit signal")
	case "help":
		return sc.help(cmd)
	case "new":
		return sc.newPuzzle(cmd)
	case "board":
		return sc.loadBoard(cmd)
	case "show", "s":
		return sc.show(cmd)
	case "place":
		return sc.place(cmd)
	case "edit":
		return sc.edit(cmd)
	case "hand":
		return sc.hand(cmd)
	case "undo", "u":
		return sc.undo(cmd)
	case "redo", "r":
		return sc.redo(cmd)
	case "checkout", "co":
		return sc.checkout(cmd)
	case "delete":
		return sc.deleteBranch(cmd)
	case "tree":
		return sc.showTree(cmd)
	case "leaves":
		return sc.leaves(cmd)
	case "path":
		return sc.path(cmd)
	case "stats":
		return sc.stats(cmd)
	case "legal":
		return sc.legal(cmd)
	case "pieces":
		return sc.pieces(cmd)
	case "solve":
		return sc.solve(cmd)
	case "apply":
		return sc.apply(cmd)
	case "autoplay":
		return sc.autoplay(cmd)
	case "analyze":
		return sc.analyze(cmd)
	case "set":
		return sc.set(cmd)
	case "setconfig":
		return sc.setConfig(cmd)
	case "script":
		return sc.script(cmd)
	default:
		log.Debug().Msgf("you said: %v", strconv.Quote(line))
		return nil, fmt.Errorf("unknown command %q; try `help`", cmd.cmd)
	}
}

// Execute runs a single command line, as given on the command line of the
// binary, and prints its result.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	resp, err := sc.standardModeSwitch(line, sig)
	if err != nil {
		sc.showError(err)
		return
	}
	if resp != nil && resp.message != "" {
		sc.showMessage(resp.message)
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		resp, err := sc.standardModeSwitch(line, sig)
		if err != nil {
			if line == "exit" || line == "bye" {
				break
			}
			sc.showError(err)
			continue
		}
		if resp != nil && resp.message != "" {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

// Cleanup runs when the program exits.
func (sc *ShellController) Cleanup() {
	if sc.cache != nil {
		hits, misses, evicted := sc.cache.Stats()
		log.Debug().Int("hits", hits).Int("misses", misses).Int("evicted", evicted).
			Msg("solution-cache-stats")
	}
}
