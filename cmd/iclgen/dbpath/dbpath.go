// Package dbpath resolves the location of the local SQLite turn log shared by
// the serve and sessions commands.
package dbpath

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveDBPath returns the turn-log path to use. An explicit path wins;
// otherwise the ICLGEN_DB environment variable; otherwise ~/.iclgen/iclgen.db,
// creating the directory if needed.
func ResolveDBPath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	if env := os.Getenv("ICLGEN_DB"); env != "" {
		return env, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}

	dir := filepath.Join(home, ".iclgen")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("could not create %s: %w", dir, err)
	}

	return filepath.Join(dir, "iclgen.db"), nil
}
