package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreachable is returned when a round produces no new candidates and
	// the target has not been found, so the search cannot continue.
	ErrUnreachable = errors.New("target unreachable")

	// ErrRoundLimit is returned when Options.MaxRounds rounds complete
	// without finding the target.
	ErrRoundLimit = errors.New("round limit reached")
)

// FetchError reports that the content of a single node could not be
// retrieved. The engine treats such a node as having no links.
type FetchError struct {
	ID  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.ID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
