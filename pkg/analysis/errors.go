package analysis

import (
	"errors"
	"fmt"
)

// Sentinel errors for replay analysis
var (
	ErrPlayerLookup       = errors.New("player lookup failed")
	ErrUnknownExportLevel = errors.New("unknown export level")
	ErrInvalidRecord      = errors.New("invalid replay record")
)

// LookupError reports that the "you" player could not be resolved to exactly
// one player of the record.
type LookupError struct {
	Name     string
	Position int
	Matches  int
}

func (e *LookupError) Error() string {
	if e.Name != "" && e.Position != 0 {
		return fmt.Sprintf("%s: name %q matched %d players and there is no player at position %d", ErrPlayerLookup, e.Name, e.Matches, e.Position)
	}
	if e.Name != "" {
		return fmt.Sprintf("%s: name %q matched %d players", ErrPlayerLookup, e.Name, e.Matches)
	}
	return fmt.Sprintf("%s: no player at position %d", ErrPlayerLookup, e.Position)
}

func (e *LookupError) Unwrap() error {
	return ErrPlayerLookup
}
