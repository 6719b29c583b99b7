package configloader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when no config file exists in any location.
var ErrNotFound = errors.New("no config file found")

// ResolveConfigPath returns the best config path for a given subsystem and filename.
// It checks, in order:
// 1. $<envVar> if set (used as is, even if missing)
// 2. ~/.plotgeist/<subsystem>/<file>
// 3. /etc/plotgeist/<file>
func ResolveConfigPath(envVar, subsystem, file string) (string, error) {
	if envVar != "" {
		if env := os.Getenv(envVar); env != "" {
			return env, nil
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(home, ".plotgeist", subsystem, file)
		if _, err := os.Stat(userPath); err == nil {
			return userPath, nil
		}
	}
	systemPath := filepath.Join("/etc/plotgeist", file)
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath, nil
	}
	return "", fmt.Errorf("%w for %s/%s", ErrNotFound, subsystem, file)
}
