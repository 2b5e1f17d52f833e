package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"lukechampine.com/frand"

	"github.com/domino14/blockgrid/automatic"
	"github.com/domino14/blockgrid/bitboard"
	"github.com/domino14/blockgrid/config"
	"github.com/domino14/blockgrid/game"
	"github.com/domino14/blockgrid/mechanics"
	"github.com/domino14/blockgrid/piece"
	"github.com/domino14/blockgrid/solver"
)

type Response struct {
	message string
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) Int(key string) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) Bool(key string) bool {
	v := c[key]
	if len(v) == 0 {
		return false
	}
	return strings.ToLower(v[0]) == "true"
}

func msg(message string) *Response {
	return &Response{message: message}
}

func intArgs(args []string, names ...string) ([]int, error) {
	if len(args) != len(names) {
		return nil, fmt.Errorf("need arguments: %s", strings.Join(names, " "))
	}
	out := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", names[i], err)
		}
		out[i] = v
	}
	return out, nil
}

func parseNodeID(s string) (game.NodeID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad node id %q", s)
	}
	return game.NodeID(v), nil
}

// randomHand deals hand-size pieces uniformly from the catalog.
func (sc *ShellController) randomHand() []piece.ID {
	ids := sc.catalog.IDs()
	n := max(sc.config.GetInt(config.ConfigHandSize), 1)
	hand := make([]piece.ID, n)
	for i := range hand {
		hand[i] = ids[frand.Intn(len(ids))]
	}
	return hand
}

// parseHand reads piece ids, or deals a random hand for "random" or no
// arguments at all.
func (sc *ShellController) parseHand(args []string) ([]piece.ID, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "random") {
		return sc.randomHand(), nil
	}
	hand := make([]piece.ID, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("bad piece id %q", a)
		}
		hand[i] = piece.ID(v)
	}
	return hand, nil
}

func (sc *ShellController) displayCurrent() string {
	n := sc.tree.Current()
	var ss strings.Builder
	ss.WriteString(n.Board().ToDisplayText())
	ss.WriteString("\nHand:\n")
	used := n.HandUsed()
	for i, id := range n.Hand() {
		status := ""
		if used[i] {
			status = " (used)"
		}
		p, _ := sc.catalog.Piece(id)
		fmt.Fprintf(&ss, "  [%d] piece %d %s%s\n", i, id, p.Name(), status)
	}
	st, _ := sc.tree.Stats(n.ID())
	fmt.Fprintf(&ss, "\nNode %d  %s  mobility=%d\n", n.ID(), st,
		mechanics.Mobility(sc.catalog, n.Board()))
	return ss.String()
}

func (sc *ShellController) newTree(b bitboard.Board, hand []piece.ID) (*Response, error) {
	t, err := game.NewStateTree(sc.catalog, b, hand)
	if err != nil {
		return nil, err
	}
	sc.setTree(t)
	return msg(sc.displayCurrent()), nil
}

func (sc *ShellController) newPuzzle(cmd *shellcmd) (*Response, error) {
	hand, err := sc.parseHand(cmd.args)
	if err != nil {
		return nil, err
	}
	b := bitboard.Empty
	if text := cmd.options.String("board"); text != "" {
		b, err = bitboard.Parse(text)
		if err != nil {
			return nil, err
		}
	}
	return sc.newTree(b, hand)
}

// loadBoard starts a new session on the given board, keeping the current
// hand if there is one.
func (sc *ShellController) loadBoard(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("need a board, e.g. board ########/......../...")
	}
	b, err := bitboard.Parse(strings.Join(cmd.args, "/"))
	if err != nil {
		return nil, err
	}
	var hand []piece.ID
	if sc.tree != nil {
		hand = sc.tree.Current().Hand()
	} else {
		hand = sc.randomHand()
	}
	return sc.newTree(b, hand)
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	if _, err := sc.currentNode(); err != nil {
		return nil, err
	}
	return msg(sc.displayCurrent()), nil
}

// advance installs a tree produced by a mutator and drops any pending
// solution.
func (sc *ShellController) advance(t *game.StateTree) *Response {
	sc.tree = t
	sc.lastSolution = nil
	sc.nextStep = 0
	return msg(sc.displayCurrent())
}

func (sc *ShellController) place(cmd *shellcmd) (*Response, error) {
	if _, err := sc.currentNode(); err != nil {
		return nil, err
	}
	v, err := intArgs(cmd.args, "piece", "slot", "x", "y")
	if err != nil {
		return nil, err
	}
	t, err := sc.tree.ApplyPlace(piece.ID(v[0]), v[1], v[2], v[3])
	if err != nil {
		return nil, err
	}
	return sc.advance(t), nil
}

func (sc *ShellController) edit(cmd *shellcmd) (*Response, error) {
	if _, err := sc.currentNode(); err != nil {
		return nil, err
	}
	v, err := intArgs(cmd.args, "x", "y")
	if err != nil {
		return nil, err
	}
	t, err := sc.tree.ApplyEditCell(v[0], v[1])
	if err != nil {
		return nil, err
	}
	return sc.advance(t), nil
}

func (sc *ShellController) hand(cmd *shellcmd) (*Response, error) {
	if _, err := sc.currentNode(); err != nil {
		return nil, err
	}
	hand, err := sc.parseHand(cmd.args)
	if err != nil {
		return nil, err
	}
	t, err := sc.tree.ApplySetHand(hand)
	if err != nil {
		return nil, err
	}
	return sc.advance(t), nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	if _, err := sc.currentNode(); err != nil {
		return nil, err
	}
	return sc.advance(sc.tree.Undo()), nil
}

func (sc *ShellController) redo(cmd *shellcmd) (*Response, error) {
	if _, err := sc.currentNode(); err != nil {
		return nil, err
	}
	return sc.advance(sc.tree.Redo()), nil
}

func (sc *ShellController) checkout(cmd *shellcmd) (*Response, error) {
	if _, err := sc.currentNode(); err != nil {
		return nil, err
	}
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: checkout <node>")
	}
	id, err := parseNodeID(cmd.args[0])
	if err != nil {
		return nil, err
	}
	t, err := sc.tree.Checkout(id)
	if err != nil {
		return nil, err
	}
	return sc.advance(t), nil
}

func (sc *ShellController) deleteBranch(cmd *shellcmd) (*Response, error) {
	if _, err := sc.currentNode(); err != nil {
		return nil, err
	}
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: delete <node>")
	}
	id, err := parseNodeID(cmd.args[0])
	if err != nil {
		return nil, err
	}
	before := sc.tree.Len()
	t, err := sc.tree.DeleteBranch(id)
	if err != nil {
		return nil, err
	}
	sc.tree = t
	return msg(fmt.Sprintf("deleted %d node(s)", before-t.Len())), nil
}

func (sc *ShellController) showTree(cmd *shellcmd) (*Response, error) {
	if _, err := sc.currentNode(); err != nil {
		return nil, err
	}
	var ss strings.Builder
	cur := sc.tree.CurrentID()
	sc.tree.Walk(func(n *game.GameNode, depth int) bool {
		marker := " "
		if n.ID() == cur {
			marker = "*"
		}
		desc := "root"
		if m := n.Move(); m != nil {
			desc = m.ShortDescription()
		}
		fmt.Fprintf(&ss, "%s%s%d: %s\n", marker, strings.Repeat("  ", depth), n.ID(), desc)
		return true
	})
	return msg(strings.TrimRight(ss.String(), "\n")), nil
}

func (sc *ShellController) leaves(cmd *shellcmd) (*Response, error) {
	if _, err := sc.currentNode(); err != nil {
		return nil, err
	}
	ids := lo.Map(sc.tree.Leaves(), func(id game.NodeID, _ int) string {
		return strconv.FormatUint(uint64(id), 10)
	})
	return msg(strings.Join(ids, " ")), nil
}

func (sc *ShellController) path(cmd *shellcmd) (*Response, error) {
	if _, err := sc.currentNode(); err != nil {
		return nil, err
	}
	id := sc.tree.CurrentID()
	if len(cmd.args) > 0 {
		var err error
		id, err = parseNodeID(cmd.args[0])
		if err != nil {
			return nil, err
		}
	}
	p, err := sc.tree.Path(id)
	if err != nil {
		return nil, err
	}
	ids := lo.Map(p, func(id game.NodeID, _ int) string {
		return strconv.FormatUint(uint64(id), 10)
	})
	return msg(strings.Join(ids, " -> ")), nil
}

func (sc *ShellController) stats(cmd *shellcmd) (*Response, error) {
	if _, err := sc.currentNode(); err != nil {
		return nil, err
	}
	st, err := sc.tree.Stats(sc.tree.CurrentID())
	if err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("%s nodes=%d leaves=%d", st, sc.tree.Len(), len(sc.tree.Leaves()))), nil
}

func (sc *ShellController) legal(cmd *shellcmd) (*Response, error) {
	n, err := sc.currentNode()
	if err != nil {
		return nil, err
	}
	v, err := intArgs(cmd.args, "piece")
	if err != nil {
		return nil, err
	}
	id := piece.ID(v[0])
	p, ok := sc.catalog.Piece(id)
	if !ok {
		return nil, fmt.Errorf("%w %d", piece.ErrUnknownPiece, id)
	}
	pls := sc.catalog.LegalPlacements(n.Board(), id)
	anchors := lo.Map(pls, func(pl piece.Placement, _ int) string {
		return fmt.Sprintf("%d,%d", pl.X, pl.Y)
	})
	return msg(fmt.Sprintf("%s%d legal placement(s): %s", p.ToDisplayText(), len(pls),
		strings.Join(anchors, " "))), nil
}

func (sc *ShellController) pieces(cmd *shellcmd) (*Response, error) {
	var ss strings.Builder
	for _, p := range sc.catalog.Pieces() {
		fmt.Fprintf(&ss, "%d %s (%dx%d)\n%s", p.ID(), p.Name(), p.Width(), p.Height(),
			p.ToDisplayText())
	}
	return msg(strings.TrimRight(ss.String(), "\n")), nil
}

func solutionText(sol *solver.Solution, next int) string {
	var ss strings.Builder
	for i, st := range sol.Steps {
		marker := " "
		if i < next {
			marker = "x"
		}
		fmt.Fprintf(&ss, "%s %d: %s\n", marker, i+1, st)
	}
	fmt.Fprintf(&ss, "final mobility %d, cells cleared %d\n", sol.Mobility, sol.CellsCleared())
	ss.WriteString(sol.Board.ToDisplayText())
	return strings.TrimRight(ss.String(), "\n")
}

// solve searches from the current node for its unused pieces: first-fit by
// default, best-of with "solve best". -cap overrides the best-of cap for
// this search.
func (sc *ShellController) solve(cmd *shellcmd) (*Response, error) {
	n, err := sc.currentNode()
	if err != nil {
		return nil, err
	}
	best := len(cmd.args) > 0 && cmd.args[0] == "best"
	ids, idxs := n.Unused()
	if len(ids) == 0 {
		return nil, errors.New("every piece in the hand has been used")
	}
	var sol solver.Solution
	var ok bool
	if best {
		limit, err := cmd.options.IntDefault("cap", sc.solver.MaxSolutions())
		if err != nil {
			return nil, err
		}
		if limit != sc.solver.MaxSolutions() {
			s := solver.NewSolver(sc.catalog)
			s.SetMaxSolutions(limit)
			sol, ok = s.FindBestSolution(n.Board(), ids, idxs)
		} else {
			sol, ok = sc.cache.BestSolution(sc.solver, n.Board(), ids, idxs)
		}
	} else {
		sol, ok = sc.solver.SolvePartial(n.Board(), ids, idxs)
	}
	if !ok {
		sc.lastSolution = nil
		return msg("no solution: the remaining pieces cannot all be placed"), nil
	}
	sc.lastSolution = &sol
	sc.nextStep = 0
	return msg(solutionText(&sol, 0)), nil
}

// apply plays the pending solution: all remaining steps, or the next n.
func (sc *ShellController) apply(cmd *shellcmd) (*Response, error) {
	if _, err := sc.currentNode(); err != nil {
		return nil, err
	}
	if sc.lastSolution == nil {
		return nil, errNoSolution
	}
	remaining := len(sc.lastSolution.Steps) - sc.nextStep
	count := remaining
	if len(cmd.args) > 0 {
		v, err := strconv.Atoi(cmd.args[0])
		if err != nil || v < 1 {
			return nil, fmt.Errorf("bad step count %q", cmd.args[0])
		}
		count = min(v, remaining)
	}
	part := solver.Solution{Steps: sc.lastSolution.Steps[sc.nextStep : sc.nextStep+count]}
	t, err := game.ApplySolution(sc.tree, part)
	if err != nil {
		return nil, err
	}
	sol, next := sc.lastSolution, sc.nextStep+count
	sc.tree = t
	if next < len(sol.Steps) {
		sc.nextStep = next
	} else {
		sc.lastSolution, sc.nextStep = nil, 0
	}
	return msg(sc.displayCurrent()), nil
}

func (sc *ShellController) autoplay(cmd *shellcmd) (*Response, error) {
	games, err := cmd.options.IntDefault("games", sc.config.GetInt(config.ConfigAutoplayGames))
	if err != nil {
		return nil, err
	}
	threads, err := cmd.options.IntDefault("threads", sc.config.GetInt(config.ConfigSolverThreads))
	if err != nil {
		return nil, err
	}
	opts := automatic.Options{
		Games:   games,
		Threads: threads,
		LogFile: sc.config.GetString(config.ConfigAutoplayLog),
	}
	if f := cmd.options.String("log"); f != "" {
		opts.LogFile = f
	}
	if f := cmd.options.String("seeds"); f != "" {
		opts.Seeds, err = automatic.LoadSeeds(f)
		if err != nil {
			return nil, err
		}
	}
	records, err := automatic.PlayGames(context.Background(), sc.config, sc.catalog, sc.cache, opts)
	if err != nil {
		return nil, err
	}
	return msg(automatic.Summarize(records) + "Log: " + opts.LogFile), nil
}

func (sc *ShellController) analyze(cmd *shellcmd) (*Response, error) {
	path := sc.config.GetString(config.ConfigAutoplayLog)
	if len(cmd.args) > 0 {
		path = cmd.args[0]
	}
	s, err := automatic.AnalyzeLogFile(path)
	if err != nil {
		return nil, err
	}
	return msg(s), nil
}

// set changes a setting for this session only; setconfig also saves it.
func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		var ss strings.Builder
		for _, k := range config.Keys() {
			fmt.Fprintf(&ss, "%-24s%v\n", k, sc.config.Get(k))
		}
		return msg(strings.TrimRight(ss.String(), "\n")), nil
	}
	key := cmd.args[0]
	if !lo.Contains(config.Keys(), key) {
		return nil, fmt.Errorf("unknown setting %q", key)
	}
	if len(cmd.args) == 1 {
		return msg(fmt.Sprintf("%v", sc.config.Get(key))), nil
	}
	value := cmd.args[1]
	sc.config.Set(key, value)
	if key == config.ConfigSolverMaxSolutions {
		sc.solver.SetMaxSolutions(sc.config.GetInt(key))
		sc.cache.Reset()
	}
	return msg("set " + key + " to " + value), nil
}

func (sc *ShellController) setConfig(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) < 2 {
		return nil, errors.New("usage: setconfig <key> <value>")
	}
	if _, err := sc.set(cmd); err != nil {
		return nil, err
	}
	if err := sc.config.Write(); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}
	return msg(fmt.Sprintf("set config %s to %s and saved to file", cmd.args[0], cmd.args[1])), nil
}
