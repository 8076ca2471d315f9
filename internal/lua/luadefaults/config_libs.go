package luadefaults

import lua "github.com/yuin/gopher-lua"

// InjectConfigLibs loads the libraries a configuration file may use.
// There is no package (require), os or io module available.
func InjectConfigLibs(L *lua.LState) {
	for _, pair := range []struct {
		n string
		f lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
	} {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(pair.f),
			NRet:    0,
			Protect: true,
		}, lua.LString(pair.n)); err != nil {
			panic(err)
		}
	}
	// base lib can still reach the filesystem through these
	for _, name := range []string{"dofile", "loadfile"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// NewConfigState returns a state with only InjectConfigLibs loaded
func NewConfigState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	InjectConfigLibs(L)
	return L
}
