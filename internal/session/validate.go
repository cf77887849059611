package session

import (
	"fmt"

	"github.com/matheus3301/huddle/internal/config"
)

// ValidateName checks that a session or channel name is safe to use as a
// single path element.
func ValidateName(kind, name string) error {
	if !config.ValidName(name) {
		return fmt.Errorf("invalid %s name %q: must match ^[a-z0-9_-]{1,64}$", kind, name)
	}
	return nil
}
