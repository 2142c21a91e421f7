package doctree

import (
	"errors"
	"fmt"
)

// Error kinds reported by the engine. Callers match them with errors.Is; the
// wrapped message names the offending input.
var (
	ErrParse               = errors.New("pdf parsing error")
	ErrEncrypted           = fmt.Errorf("%w: document is encrypted", ErrParse)
	ErrSectionNotFound     = errors.New("section not found")
	ErrInvalidSectionID    = errors.New("invalid section id (expected 's-{level}-{index}')")
	ErrInvalidPeekPosition = errors.New("invalid peek position (expected beginning, middle, ending or random)")
	ErrImageNotFound       = errors.New("image not found")
)
