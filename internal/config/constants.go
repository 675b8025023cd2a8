package config

// Lua schema field names and globals
const (
	luaGlobalJas    = "jas"
	luaFieldDir     = "dir"
	luaFieldVerbose = "verbose"
	luaFieldANSI    = "ansi"
	luaFieldAssets  = "assets"
)

const (
	// MaxConfigSize bounds the config file read from disk.
	MaxConfigSize = 1 << 20

	// MaxAssetOverrides bounds the assets table.
	MaxAssetOverrides = 1000

	// FileName is the config file looked up under the config directories.
	FileName = "config.lua"
)
