// Package sandbox runs rule scripts in a restricted Lua state.
//
// A state gets the base, string, table and math libraries only. The loaders
// that reach the filesystem or compile arbitrary strings are removed, so a
// script can only compute over the value it is called with.
package sandbox

import (
	"errors"
	"fmt"
	"sort"

	lua "github.com/Shopify/go-lua"
)

// ErrParse marks failures to load or run the top level of a script.
var ErrParse = errors.New("rule script does not compile")

var removedGlobals = []string{"dofile", "loadfile", "load", "loadstring", "require", "collectgarbage"}

// NewState returns a Lua state with the sandboxed library set.
func NewState() *lua.State {
	l := lua.NewState()
	libs := []lua.RegistryFunction{
		{Name: "_G", Function: lua.BaseOpen},
		{Name: "string", Function: lua.StringOpen},
		{Name: "table", Function: lua.TableOpen},
		{Name: "math", Function: lua.MathOpen},
	}
	for _, lib := range libs {
		lua.Require(l, lib.Name, lib.Function, true)
		l.Pop(1)
	}
	for _, name := range removedGlobals {
		l.PushNil()
		l.SetGlobal(name)
	}
	return l
}

// Load compiles body and runs its top level once. It returns the names of
// the global functions the script defined, sorted.
func Load(l *lua.State, body, chunkName string) ([]string, error) {
	before := globalFunctions(l)
	if err := lua.LoadBuffer(l, body, chunkName, "t"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := l.ProtectedCall(0, 0, 0); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var defined []string
	for name := range globalFunctions(l) {
		if _, builtin := before[name]; !builtin {
			defined = append(defined, name)
		}
	}
	sort.Strings(defined)
	return defined, nil
}

// Call invokes the global function name with input converted to Lua and
// returns its first result converted back to Go values. The stack is left
// as it was found.
func Call(l *lua.State, name string, input any) (any, error) {
	top := l.Top()
	defer l.SetTop(top)

	l.Global(name)
	if !l.IsFunction(-1) {
		return nil, fmt.Errorf("rule function %q is not defined", name)
	}
	if err := Push(l, input); err != nil {
		return nil, fmt.Errorf("convert input for %s: %w", name, err)
	}
	if err := l.ProtectedCall(1, 1, 0); err != nil {
		return nil, err
	}
	out, err := ToGo(l, -1)
	if err != nil {
		return nil, fmt.Errorf("convert result of %s: %w", name, err)
	}
	return out, nil
}

func globalFunctions(l *lua.State) map[string]struct{} {
	names := make(map[string]struct{})
	l.PushGlobalTable()
	index := l.AbsIndex(-1)
	l.PushNil()
	for l.Next(index) {
		if l.TypeOf(-2) == lua.TypeString && l.TypeOf(-1) == lua.TypeFunction {
			key, _ := l.ToString(-2)
			names[key] = struct{}{}
		}
		l.Pop(1)
	}
	l.Pop(1)
	return names
}
