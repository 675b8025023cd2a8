package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/ZebulonRouseFrantzich/jas/internal/platform"
)

// Parser represents a Lua config parser with platform detection.
type Parser struct {
	detector platform.Detector
}

// NewParser creates a new config parser with the given platform detector.
// A nil detector leaves the platform global undefined.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector}
}

// ParseFile reads and parses the config file at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Config, error) {
	data, err := readConfig(path)
	if err != nil {
		return nil, err
	}
	return p.parseNamed(ctx, path, data)
}

func readConfig(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &ParseError{File: path, Message: "cannot read config", Detail: err.Error()}
	}
	if info.Size() > MaxConfigSize {
		return nil, &ParseError{
			File:    path,
			Message: "config too large",
			Detail:  fmt.Sprintf("%d bytes, maximum is %d", info.Size(), MaxConfigSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{File: path, Message: "cannot read config", Detail: err.Error()}
	}
	return data, nil
}

func (p *Parser) parseNamed(ctx context.Context, path string, data []byte) (*Config, error) {
	cfg, err := p.ParseString(ctx, string(data))
	if perr, ok := err.(*ParseError); ok {
		perr.File = path
	}
	return cfg, err
}

// ParseString parses a Lua config from a string.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Config, error) {
	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.detector != nil {
		platformInfo, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, platformInfo); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		return nil, &ParseError{
			Message: "Lua error",
			Detail:  err.Error(),
		}
	}

	return extractConfig(L)
}

// ParseError represents a config parsing error with friendly message.
type ParseError struct {
	File    string // empty for in-memory configs
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractConfig reads the global "jas" table.
func extractConfig(L *lua.LState) (*Config, error) {
	jasTable := L.GetGlobal(luaGlobalJas)
	if jasTable.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: fmt.Sprintf("missing or invalid '%s' table", luaGlobalJas),
			Detail:  fmt.Sprintf("expected table, got %s", jasTable.Type()),
		}
	}

	config := &Config{}
	table := jasTable.(*lua.LTable)

	switch v := table.RawGetString(luaFieldDir).(type) {
	case *lua.LNilType:
	case lua.LString:
		config.Dir = string(v)
	default:
		return nil, fieldTypeError(luaFieldDir, "string", v)
	}

	var err error
	if config.Verbose, err = optionalBool(table, luaFieldVerbose); err != nil {
		return nil, err
	}
	if config.ANSI, err = optionalBool(table, luaFieldANSI); err != nil {
		return nil, err
	}

	switch v := table.RawGetString(luaFieldAssets).(type) {
	case *lua.LNilType:
	case *lua.LTable:
		if config.Assets, err = extractAssets(v); err != nil {
			return nil, err
		}
	default:
		return nil, fieldTypeError(luaFieldAssets, "table", v)
	}

	if err := config.Validate(); err != nil {
		return nil, &ParseError{
			Message: "config validation failed",
			Detail:  err.Error(),
		}
	}

	return config, nil
}

func optionalBool(table *lua.LTable, field string) (*bool, error) {
	switch v := table.RawGetString(field).(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LBool:
		b := bool(v)
		return &b, nil
	default:
		return nil, fieldTypeError(field, "boolean", v)
	}
}

// extractAssets reads the assets map. Entries set to nil by platform
// conditionals never reach the table, so every value seen must be a string.
func extractAssets(table *lua.LTable) (map[string]string, error) {
	assets := make(map[string]string)
	var err error

	table.ForEach(func(key, value lua.LValue) {
		if err != nil {
			return
		}
		k, ok := key.(lua.LString)
		if !ok {
			err = fieldTypeError(luaFieldAssets+" key", "string", key)
			return
		}
		switch v := value.(type) {
		case lua.LString:
			assets[string(k)] = string(v)
		case lua.LBool:
			// platform.is_linux and "x" evaluates to false elsewhere.
			if bool(v) {
				err = fieldTypeError(fmt.Sprintf("%s[%q]", luaFieldAssets, string(k)), "string", v)
			}
		default:
			err = fieldTypeError(fmt.Sprintf("%s[%q]", luaFieldAssets, string(k)), "string", v)
		}
	})
	if err != nil {
		return nil, err
	}
	return assets, nil
}

func fieldTypeError(field, want string, got lua.LValue) *ParseError {
	return &ParseError{
		Message: fmt.Sprintf("invalid '%s.%s'", luaGlobalJas, field),
		Detail:  fmt.Sprintf("expected %s, got %s", want, got.Type()),
	}
}

// FormatError formats a ParseError for user display.
// In verbose mode, show the raw Lua error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	if parseErr, ok := err.(*ParseError); ok {
		prefix := parseErr.Message
		if parseErr.File != "" {
			prefix = parseErr.File + ": " + prefix
		}
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", prefix, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", prefix, detail)
	}
	return err.Error()
}
