package platform

import (
	lua "github.com/yuin/gopher-lua"
)

// InjectPlatformTable creates a read-only platform table and injects it into
// the Lua state as a global. Call it before running any user configuration.
func InjectPlatformTable(L *lua.LState, info *Info) error {
	platformTable := L.NewTable()
	fp := info.Fingerprint

	L.SetField(platformTable, "os", lua.LString(fp.OS.String()))
	L.SetField(platformTable, "arch", lua.LString(fp.Arch.String()))
	L.SetField(platformTable, "goos", lua.LString(info.GOOS))
	L.SetField(platformTable, "goarch", lua.LString(info.GOARCH))

	L.SetField(platformTable, "is_linux", lua.LBool(fp.OS == Linux))
	L.SetField(platformTable, "is_macos", lua.LBool(fp.OS == MacOS))
	L.SetField(platformTable, "is_windows", lua.LBool(fp.OS == Windows))

	L.SetField(platformTable, "is_x86_64", lua.LBool(fp.Arch == X86_64))
	L.SetField(platformTable, "is_aarch64", lua.LBool(fp.Arch == Aarch64))
	L.SetField(platformTable, "is_arm", lua.LBool(fp.Arch == Arm))
	L.SetField(platformTable, "is_apple_silicon", lua.LBool(fp.OS == MacOS && fp.Arch == Aarch64))
	L.SetField(platformTable, "is_musl", lua.LBool(info.IsMusl()))

	// Linux distribution (nil on non-Linux)
	if distro := info.GetDistro(); distro != nil {
		distroTable := L.NewTable()
		L.SetField(distroTable, "id", lua.LString(distro.ID))
		L.SetField(distroTable, "family", lua.LString(distro.Family))
		L.SetField(distroTable, "version", lua.LString(distro.Version))
		L.SetField(platformTable, "distro", distroTable)
	} else {
		L.SetField(platformTable, "distro", lua.LNil)
	}

	// when(condition, value) returns value if condition is true, nil otherwise
	whenFunc := L.NewFunction(func(L *lua.LState) int {
		cond := L.CheckBool(1)
		value := L.Get(2)
		if cond {
			L.Push(value)
		} else {
			L.Push(lua.LNil)
		}
		return 1
	})
	L.SetField(platformTable, "when", whenFunc)

	L.SetGlobal("platform", makeReadOnly(L, platformTable))

	return nil
}

// makeReadOnly wraps table in a proxy whose metatable forwards reads and
// rejects writes.
func makeReadOnly(L *lua.LState, table *lua.LTable) *lua.LTable {
	mt := L.NewTable()

	L.SetField(mt, "__index", table)
	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("platform table is read-only and cannot be modified")
		return 0
	}))
	L.SetField(mt, "__metatable", lua.LString("protected"))

	proxy := L.NewTable()
	L.SetMetatable(proxy, mt)

	return proxy
}
