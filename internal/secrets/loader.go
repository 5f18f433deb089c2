// Package secrets resolves API credentials from files, config values or the environment.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var ErrNotConfigured = errors.New("not configured")

// Source lists the places a credential may come from, in precedence order:
// File, then Value, then the Env variable.
type Source struct {
	// Name only decorates error messages.
	Name  string
	Value string
	File  string
	Env   string
}

// Load returns the first non-empty credential of src, trimmed.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	if secret := strings.TrimSpace(src.Value); secret != "" {
		return secret, nil
	}

	if src.Env != "" {
		if secret := strings.TrimSpace(os.Getenv(src.Env)); secret != "" {
			return secret, nil
		}
		return "", fmt.Errorf("%s is %w (set %s)", name, ErrNotConfigured, src.Env)
	}

	return "", fmt.Errorf("%s is %w", name, ErrNotConfigured)
}
