// Package config loads the optional jas configuration file and builds the
// logger every other package receives.
//
// The file is Lua, run in a sandboxed gopher-lua VM with a read-only
// platform table available, so one file can serve several machines:
//
//	jas = {
//	  dir = "~/.local/bin",
//	  verbose = false,
//	  assets = {
//	    ["jgm/pandoc"] = platform.is_arm and "pandoc-3.6.4-linux-arm64.tar.gz" or nil,
//	  },
//	}
//
// # Lookup
//
// An explicit path (the --config flag) must exist. Without one the loader
// tries $XDG_CONFIG_HOME/jas/config.lua and then ~/.config/jas/config.lua;
// when neither exists the defaults apply.
//
// # Sandbox
//
// The VM has no os, io, debug or module loading functions, and parsing is
// bound to the caller's context so a runaway loop is cancelled. Files larger
// than MaxConfigSize are rejected before they are run.
//
// # Errors
//
// Syntax and runtime errors from Lua, and schema violations, are returned as
// *ParseError. FormatError trims the Lua stack traceback unless verbose
// output was requested.
package config
