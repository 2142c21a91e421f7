package navigator

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/dgallion1/pdfnav/internal/doctree"
)

// PeekPosition selects where a peek window is taken from.
type PeekPosition int

const (
	Beginning PeekPosition = iota
	Middle
	Ending
	Random
)

func (p PeekPosition) String() string {
	switch p {
	case Beginning:
		return "beginning"
	case Middle:
		return "middle"
	case Ending:
		return "ending"
	case Random:
		return "random"
	}
	return fmt.Sprintf("PeekPosition(%d)", int(p))
}

// ParsePeekPosition accepts the String forms, ignoring case and surrounding
// whitespace.
func ParsePeekPosition(s string) (PeekPosition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginning":
		return Beginning, nil
	case "middle":
		return Middle, nil
	case "ending":
		return Ending, nil
	case "random":
		return Random, nil
	}
	return 0, fmt.Errorf("%w: %q (expected beginning, middle, ending or random)", doctree.ErrInvalidPeekPosition, s)
}

func (p PeekPosition) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *PeekPosition) UnmarshalText(b []byte) error {
	v, err := ParsePeekPosition(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Rand is the randomness source for Random peeks and image picks.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand uses the math/rand/v2 top-level source, which is safe for
// concurrent use.
func DefaultRand() Rand { return globalRand{} }

// Window is a peeked slice of text. Start and Total count characters.
type Window struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	Total int    `json:"total"`
}

// Peek returns at most limit characters of text taken from pos. Text no
// longer than limit is returned whole. rnd is only used for Random and may be
// nil, in which case DefaultRand is used.
func Peek(text string, pos PeekPosition, limit int, rnd Rand) Window {
	runes := []rune(text)
	total := len(runes)
	if limit <= 0 {
		return Window{Total: total}
	}
	if total <= limit {
		return Window{Text: text, Total: total}
	}

	var start int
	switch pos {
	case Beginning:
		start = 0
	case Middle:
		start = (total - limit) / 2
	case Ending:
		start = total - limit
	case Random:
		if rnd == nil {
			rnd = DefaultRand()
		}
		start = rnd.IntN(total - limit + 1)
	}
	return Window{Text: string(runes[start : start+limit]), Start: start, Total: total}
}
