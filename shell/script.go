package shell

import (
	"errors"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
)

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal("blockgrid_shell")
	ud, ok := shell.(*lua.LUserData)
	if !ok {
		panic("luserdata not right type")
	}
	sc, ok := ud.Value.(*ShellController)
	if !ok {
		panic("shellcontroller not right type")
	}
	return sc
}

// command wraps a shell command as a Lua function taking the rest of the
// command line. Errors come back as a string starting with ERROR.
func command(name string) lua.LGFunction {
	return func(L *lua.LState) int {
		line := name
		if L.GetTop() > 0 {
			if rest := L.ToString(1); rest != "" {
				line += " " + rest
			}
		}
		sc := getShell(L)
		r, err := sc.standardModeSwitch(line, nil)
		if err != nil {
			log.Err(err).Str("cmd", name).Msg("error-executing-script-command")
			L.Push(lua.LString("ERROR: " + err.Error()))
			return 1
		}
		if r == nil {
			L.Push(lua.LString(""))
			return 1
		}
		L.Push(lua.LString(r.message))
		// return number of results pushed to stack.
		return 1
	}
}

// Run executes a full command line.
func Run(L *lua.LState) int {
	line := L.ToString(1)
	if line == "exit" || line == "bye" {
		L.Push(lua.LString("ERROR: scripts cannot exit the shell"))
		return 1
	}
	sc := getShell(L)
	r, err := sc.standardModeSwitch(line, nil)
	if err != nil {
		L.Push(lua.LString("ERROR: " + err.Error()))
		return 1
	}
	if r == nil {
		L.Push(lua.LString(""))
		return 1
	}
	L.Push(lua.LString(r.message))
	return 1
}

// Board returns the compact text of the current board, or nil with no
// puzzle loaded.
func Board(L *lua.LState) int {
	sc := getShell(L)
	n, err := sc.currentNode()
	if err != nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(n.Board().String()))
	return 1
}

func (sc *ShellController) script(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("need arguments for script")
	}

	filepath := cmd.args[0]

	L := lua.NewState()
	defer L.Close()

	lsc := L.NewUserData()
	lsc.Value = sc

	L.SetGlobal("blockgrid_shell", lsc)
	L.SetGlobal("blockgrid_run", L.NewFunction(Run))
	L.SetGlobal("blockgrid_board", L.NewFunction(Board))
	for _, name := range []string{"new", "place", "solve", "apply", "set", "show", "hand", "undo"} {
		L.SetGlobal("blockgrid_"+name, L.NewFunction(command(name)))
	}

	if err := L.DoFile(filepath); err != nil {
		log.Err(err).Msg("there was a error")
		return nil, err
	}
	return nil, nil
}
