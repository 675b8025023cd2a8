package binary

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
)

// WalkArchive lists the entries an extracted archive offers.
//
// It descends transparently through wrappers: a lone directory, or a "bin"
// directory whose only siblings are regular files (READMEs, licenses). Only
// the immediate children of the chosen level are returned, in lexical order,
// with paths relative to dir.
func WalkArchive(dir string) ([]Entry, error) {
	root, err := descend(dir, "")
	if err != nil {
		return nil, err
	}

	children, err := readDirSorted(filepath.Join(dir, filepath.FromSlash(root)))
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(children))
	for _, c := range children {
		entries = append(entries, Entry{Path: path.Join(root, c.Name()), IsDir: c.IsDir()})
	}
	return entries, nil
}

func readDirSorted(dir string) ([]os.DirEntry, error) {
	children, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrFilesystem, dir, err)
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Name() < children[j].Name() })
	return children, nil
}

// descend returns the slash path (relative to dir) of the level whose
// contents should be listed.
func descend(dir, rel string) (string, error) {
	children, err := readDirSorted(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		return "", err
	}

	if next, ok := binDir(children); ok {
		return descend(dir, path.Join(rel, next))
	}
	if len(children) == 1 && children[0].IsDir() {
		return descend(dir, path.Join(rel, children[0].Name()))
	}
	return rel, nil
}

// binDir reports whether children are a "bin" directory plus only regular
// files.
func binDir(children []os.DirEntry) (string, bool) {
	found := false
	for _, c := range children {
		switch {
		case c.IsDir() && c.Name() == "bin":
			found = true
		case c.Type().IsRegular():
		default:
			return "", false
		}
	}
	return "bin", found
}
