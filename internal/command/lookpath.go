package command

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a path search fails to find an executable
// file, adapted from spawnexec's LookPath.
var ErrNotFound = errors.New("command: executable file not found in $PATH")

// lookPath searches for an executable named file in the directories named
// by $PATH. Spawn uses it to locate the interposing shell; the target
// program itself is searched for by that shell (see execScript). If file
// contains a slash it is tried directly and $PATH is not consulted.
func lookPath(file string) (string, error) {
	if strings.Contains(file, "/") {
		if err := findExecutable(file); err == nil {
			return file, nil
		}
		return "", ErrNotFound
	}

	path := os.Getenv("PATH")
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", ErrNotFound
}

func findExecutable(file string) error {
	fi, err := os.Stat(file)
	if err != nil {
		return err
	}
	m := fi.Mode()
	if m.IsDir() {
		return os.ErrPermission
	}
	if m&0111 != 0 {
		return nil
	}
	return os.ErrPermission
}
