package doctree

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxLevel is the deepest heading level.
const MaxLevel = 6

// SectionID addresses a section within one parse as s-{level}-{index}, where
// index counts headings of the same level in document order.
type SectionID struct {
	Level int
	Index int
}

func (id SectionID) String() string {
	return fmt.Sprintf("s-%d-%d", id.Level, id.Index)
}

// ParseSectionID parses the textual form produced by String.
func ParseSectionID(text string) (SectionID, error) {
	parts := strings.Split(text, "-")
	if len(parts) != 3 || parts[0] != "s" {
		return SectionID{}, fmt.Errorf("%w: %q", ErrInvalidSectionID, text)
	}
	level, err := parseUint(parts[1])
	if err != nil || level < 1 || level > MaxLevel {
		return SectionID{}, fmt.Errorf("%w: %q", ErrInvalidSectionID, text)
	}
	index, err := parseUint(parts[2])
	if err != nil {
		return SectionID{}, fmt.Errorf("%w: %q", ErrInvalidSectionID, text)
	}
	return SectionID{Level: level, Index: index}, nil
}

// parseUint accepts only plain decimal digits, so "+1" and " 1" are rejected.
func parseUint(s string) (int, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}

func (id SectionID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *SectionID) UnmarshalText(b []byte) error {
	parsed, err := ParseSectionID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ClampLevel bounds a heading level to 1..MaxLevel.
func ClampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}
