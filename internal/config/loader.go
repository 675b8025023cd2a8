package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

// Lookup says where to look for the config file.
type Lookup struct {
	// Explicit is the --config value; it must exist when set.
	Explicit      string
	XDGConfigHome string
	Home          string
}

// Loaded is the outcome of Load.
type Loaded struct {
	Config *Config
	// Path is the file that was read, or "" when defaults were used.
	Path     string
	Findings []SensitiveDataFinding
}

// SearchPaths returns the implicit config locations in lookup order.
func SearchPaths(xdgConfigHome, home string) []string {
	var paths []string
	if xdgConfigHome != "" {
		paths = append(paths, filepath.Join(xdgConfigHome, "jas", FileName))
	}
	if home != "" {
		p := filepath.Join(home, ".config", "jas", FileName)
		if len(paths) == 0 || paths[0] != p {
			paths = append(paths, p)
		}
	}
	return paths
}

// Load finds and parses the config file. With no explicit path and no file
// at any search path it returns an empty Config.
func Load(ctx context.Context, parser *Parser, lookup Lookup) (*Loaded, error) {
	if lookup.Explicit != "" {
		return loadFile(ctx, parser, lookup.Explicit)
	}

	for _, p := range SearchPaths(lookup.XDGConfigHome, lookup.Home) {
		_, err := os.Stat(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, &ParseError{File: p, Message: "cannot read config", Detail: err.Error()}
		}
		return loadFile(ctx, parser, p)
	}

	return &Loaded{Config: &Config{}}, nil
}

func loadFile(ctx context.Context, parser *Parser, path string) (*Loaded, error) {
	data, err := readConfig(path)
	if err != nil {
		return nil, err
	}
	cfg, err := parser.parseNamed(ctx, path, data)
	if err != nil {
		return nil, err
	}
	return &Loaded{Config: cfg, Path: path, Findings: DetectSensitiveData(string(data))}, nil
}
