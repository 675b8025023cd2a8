package binary

import (
	"path"
	"strings"

	"github.com/ZebulonRouseFrantzich/jas/internal/platform"
)

// ExecutableName appends .exe on Windows when name has no extension. Names
// that already have one (scripts, .exe) are left alone.
func ExecutableName(name string, fp platform.Fingerprint) string {
	if fp.IsWindows() && path.Ext(name) == "" {
		return name + ".exe"
	}
	return name
}

// LocateExplicit finds each requested file among entries, in request order.
// A name matches an entry's base name or its full relative path.
func LocateExplicit(entries []Entry, names []string, fp platform.Fingerprint) ([]Entry, error) {
	found := make([]Entry, 0, len(names))
	for _, requested := range names {
		want := ExecutableName(requested, fp)
		entry, ok := findFile(entries, want)
		if !ok {
			return nil, &NotFoundError{
				Kind:      "executable",
				Wanted:    want,
				Available: entryPaths(entries),
				Err:       ErrExecutableNotFound,
			}
		}
		found = append(found, entry)
	}
	return found, nil
}

func findFile(entries []Entry, want string) (Entry, bool) {
	want = strings.TrimPrefix(want, "./")
	for _, e := range entries {
		if e.IsDir {
			continue
		}
		if e.Path == want || e.Base() == want {
			return e, true
		}
	}
	return Entry{}, false
}

// GuessExecutable picks the file most likely to be target.
//
// A file matches when its name equals target, or contains it and does not
// contain "LICENSE". An exact match wins; otherwise the shortest name does,
// ties going to the first in walk order.
func GuessExecutable(entries []Entry, target string) (Entry, error) {
	var matches []Entry
	for _, e := range entries {
		if e.IsDir {
			continue
		}
		name := e.Base()
		if name == target {
			return e, nil
		}
		if strings.Contains(name, target) && !strings.Contains(name, "LICENSE") {
			matches = append(matches, e)
		}
	}

	if len(matches) == 0 {
		return Entry{}, &NotFoundError{
			Kind:      "executable",
			Wanted:    target,
			Available: entryPaths(entries),
			Err:       ErrExecutableNotFound,
		}
	}

	best := matches[0]
	for _, m := range matches[1:] {
		if len(m.Base()) < len(best.Base()) {
			best = m
		}
	}
	return best, nil
}

func entryPaths(entries []Entry) []string {
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir {
			paths = append(paths, e.Path+"/")
		} else {
			paths = append(paths, e.Path)
		}
	}
	return paths
}
