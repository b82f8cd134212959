package atlas

import (
	"fmt"
	"strings"
)

// ConfigError is a project-fatal configuration failure. Analysis does not
// start: no partial model is produced.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Msg
}

// ConflictError is a project-fatal model conflict: two entities in
// different files claimed the same qualified name, so the identity
// invariant cannot hold. Assembly is all-or-nothing, so no model is
// returned.
type ConflictError struct {
	Names []string // conflicting qualified names, first-conflict order
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("model conflict: duplicate qualified name(s): %s",
		strings.Join(e.Names, ", "))
}
