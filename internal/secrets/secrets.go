// Package secrets loads operator-supplied secrets from one file per
// secret inside a secrets directory (filename is the secret name, no
// extension), falling back to an environment variable of the same name.
// Require reports a missing secret as an error naming it.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Loader reads secrets from dir, falling back to the environment.
type Loader struct {
	dir string
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Get returns the named secret from the secrets directory if present,
// otherwise from the environment variable of the same name, otherwise
// ("", false).
func (l *Loader) Get(name string) (string, bool) {
	if l.dir != "" {
		path := filepath.Join(l.dir, name)
		if data, err := os.ReadFile(path); err == nil {
			return strings.TrimSpace(string(data)), true
		}
	}
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v, true
	}
	return "", false
}

// Require returns the named secret, or a plain error naming it when it is
// found in neither the secrets directory nor the environment.
func (l *Loader) Require(name string) (string, error) {
	v, ok := l.Get(name)
	if !ok {
		return "", fmt.Errorf("required secret %q not found in secrets directory or environment", name)
	}
	return v, nil
}
