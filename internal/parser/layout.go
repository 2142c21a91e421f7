package parser

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// lineTolerance is the maximum Y distance between spans on one line.
	lineTolerance = 1.0
	// minWordGap is the horizontal gap, in points, that separates words.
	minWordGap = 1.5
	// columnGapFactor times the font size separates unrelated runs on a line.
	columnGapFactor = 2.0
	// blockGapFactor times the font size between lines starts a new block.
	blockGapFactor = 1.4
	// sizeBucket quantizes font sizes for statistics.
	sizeBucket = 0.5
	// headingMargin is how much larger than body text a heading must be.
	headingMargin = 1.5
	// maxHeadingChars excludes long lines from heading detection.
	maxHeadingChars = 200
	// defaultBodySize is used when a document has no text.
	defaultBodySize = 12.0
	maxHeadingLevels = 6
)

// span is a run of text in one font at one position.
type span struct {
	Text string
	Font string
	Size float64
	X, Y float64
	W    float64
}

func (s span) end() float64 { return s.X + s.W }

// line is a set of spans sharing a baseline, left to right.
type line struct {
	Spans   []span
	Y       float64
	Size    float64 // Dominant font size
	Heading int     // Heading level, 0 for body text
	Tabular bool    // Spans are separated by column-sized gaps
}

func (l line) text() string {
	var buf strings.Builder
	for i, s := range l.Spans {
		if i > 0 && needsSpace(l.Spans[i-1], s) {
			buf.WriteByte(' ')
		}
		buf.WriteString(s.Text)
	}
	return strings.TrimSpace(buf.String())
}

func (l line) charCount() int {
	n := 0
	for _, s := range l.Spans {
		n += utf8.RuneCountInString(s.Text)
	}
	return n
}

func needsSpace(prev, next span) bool {
	if next.X-prev.end() < minWordGap {
		return false
	}
	if strings.HasSuffix(prev.Text, " ") || strings.HasPrefix(next.Text, " ") {
		return false
	}
	return !spacelessBoundary(prev.Text, next.Text)
}

// spacelessBoundary reports whether both sides of a join are characters
// from scripts written without inter-word spaces.
func spacelessBoundary(left, right string) bool {
	l, _ := utf8.DecodeLastRuneInString(left)
	r, _ := utf8.DecodeRuneInString(right)
	return isSpaceless(l) && isSpaceless(r)
}

var spacelessRanges = []*unicode.RangeTable{
	unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul,
	unicode.Thai, unicode.Lao, unicode.Myanmar, unicode.Khmer, unicode.Tibetan,
}

func isSpaceless(r rune) bool {
	if r == utf8.RuneError {
		return false
	}
	if r >= 0x3000 && r <= 0x303F || r >= 0xFF00 && r <= 0xFFEF {
		return true
	}
	return unicode.IsOneOf(spacelessRanges, r)
}

// groupLines assembles glyphs into lines ordered top to bottom.
func groupLines(glyphs []glyph) []line {
	if len(glyphs) == 0 {
		return nil
	}
	sorted := make([]glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines []line
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i == len(sorted) || math.Abs(sorted[i].Y-sorted[start].Y) > lineTolerance {
			lines = append(lines, assembleLine(sorted[start:i]))
			start = i
		}
	}
	return lines
}

// assembleLine merges a baseline's glyphs into spans. Adjacent glyphs in the
// same font join directly, small gaps become a space, and wide gaps start a
// new span.
func assembleLine(glyphs []glyph) line {
	sort.SliceStable(glyphs, func(i, j int) bool { return glyphs[i].X < glyphs[j].X })

	var spans []span
	tabular := false
	for _, g := range glyphs {
		if n := len(spans); n > 0 {
			prev := &spans[n-1]
			gap := g.X - prev.end()
			sameFont := prev.Font == g.Font && math.Abs(prev.Size-g.Size) < sizeBucket
			switch {
			case sameFont && gap < minWordGap && gap > -prev.Size:
				prev.Text += g.S
				prev.W = g.X + g.W - prev.X
				continue
			case sameFont && gap >= minWordGap && gap < prev.Size*columnGapFactor:
				if !strings.HasSuffix(prev.Text, " ") && g.S != " " && !spacelessBoundary(prev.Text, g.S) {
					prev.Text += " "
				}
				prev.Text += g.S
				prev.W = g.X + g.W - prev.X
				continue
			}
			if gap >= prev.Size*columnGapFactor {
				tabular = true
			}
		}
		spans = append(spans, span{Text: g.S, Font: g.Font, Size: g.Size, X: g.X, Y: g.Y, W: g.W})
	}

	l := line{Spans: spans, Y: glyphs[0].Y, Size: dominantSize(spans), Tabular: tabular}
	for i := range l.Spans {
		l.Spans[i].Text = strings.TrimSpace(l.Spans[i].Text)
	}
	return l
}

func dominantSize(spans []span) float64 {
	counts := map[float64]int{}
	best, bestCount := 0.0, -1
	for _, s := range spans {
		counts[s.Size] += utf8.RuneCountInString(s.Text)
	}
	for size, c := range counts {
		if c > bestCount || c == bestCount && size > best {
			best, bestCount = size, c
		}
	}
	return best
}

func bucket(size float64) float64 {
	return math.Round(size/sizeBucket) * sizeBucket
}

// fontStats summarizes font sizes across the document.
type fontStats struct {
	Body      float64
	Threshold float64
}

// buildFontStats picks the body size as the bucket covering the most
// characters. Ties go to the smaller size.
func buildFontStats(pages [][]line) fontStats {
	hist := map[float64]int{}
	for _, lines := range pages {
		for _, l := range lines {
			for _, s := range l.Spans {
				if s.Size <= 0 {
					continue
				}
				hist[bucket(s.Size)] += utf8.RuneCountInString(s.Text)
			}
		}
	}
	body, most := defaultBodySize, 0
	for size, n := range hist {
		if n > most || n == most && size < body {
			body, most = size, n
		}
	}
	return fontStats{Body: body, Threshold: body + headingMargin}
}

// detectHeadings marks lines whose size exceeds the heading threshold. Distinct
// heading sizes are ranked largest first and the top six become levels 1..6.
func detectHeadings(pages [][]line, stats fontStats) {
	isCandidate := func(l line) bool {
		return l.Size > stats.Threshold && l.charCount() <= maxHeadingChars && l.text() != ""
	}

	var sizes []float64
	seen := map[float64]bool{}
	for _, lines := range pages {
		for _, l := range lines {
			if !isCandidate(l) {
				continue
			}
			b := bucket(l.Size)
			if !seen[b] {
				seen[b] = true
				sizes = append(sizes, b)
			}
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sizes)))
	if len(sizes) > maxHeadingLevels {
		sizes = sizes[:maxHeadingLevels]
	}

	for _, lines := range pages {
		for i := range lines {
			if !isCandidate(lines[i]) {
				continue
			}
			b := bucket(lines[i].Size)
			for rank, s := range sizes {
				if s == b {
					lines[i].Heading = rank + 1
					lines[i].Tabular = false
					break
				}
			}
		}
	}
}

type blockType int

const (
	blockParagraph blockType = iota
	blockHeading
	blockList
	blockTable
)

// textBlock is a run of consecutive lines of one type.
type textBlock struct {
	Type  blockType
	Level int
	Lines []line
}

func classifyLine(l line) blockType {
	switch {
	case l.Heading > 0:
		return blockHeading
	case l.Tabular:
		return blockTable
	case isListItem(l.text()):
		return blockList
	}
	return blockParagraph
}

// groupBlocks splits a page's lines into blocks. Headings stand alone; a type
// change or a vertical gap wider than blockGapFactor line heights starts a new
// block. Consecutive list items each start their own block.
func groupBlocks(lines []line) []textBlock {
	var blocks []textBlock
	var cur *textBlock
	flush := func() {
		if cur != nil && len(cur.Lines) > 0 {
			blocks = append(blocks, *cur)
		}
		cur = nil
	}

	for _, l := range lines {
		t := classifyLine(l)
		if t == blockHeading {
			flush()
			blocks = append(blocks, textBlock{Type: blockHeading, Level: l.Heading, Lines: []line{l}})
			continue
		}
		if cur != nil {
			prev := cur.Lines[len(cur.Lines)-1]
			gapBreak := math.Abs(prev.Y-l.Y) > prev.Size*blockGapFactor
			if gapBreak || cur.Type != t || t == blockList {
				flush()
			}
		}
		if cur == nil {
			cur = &textBlock{Type: t}
		}
		cur.Lines = append(cur.Lines, l)
	}
	flush()
	return blocks
}

// isListItem recognizes bullets, dashes and enumerators such as "1.", "a)"
// and "(iv)".
func isListItem(text string) bool {
	t := strings.TrimLeft(text, " \t")
	if t == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(t)
	switch first {
	case '•', '‣', '◦', '⁃', '∙', '●', '○', '■', '▪':
		return true
	}
	for _, dash := range []string{"- ", "-- ", "– "} {
		if strings.HasPrefix(t, dash) {
			return true
		}
	}

	marker, _, found := strings.Cut(t, " ")
	if !found {
		marker = t
	}
	return isEnumerator(marker)
}

func isEnumerator(m string) bool {
	if strings.HasPrefix(m, "(") && strings.HasSuffix(m, ")") && len(m) > 2 {
		inner := m[1 : len(m)-1]
		return isDigits(inner) || isSingleLetter(inner) || isRoman(inner)
	}
	if len(m) < 2 {
		return false
	}
	last := m[len(m)-1]
	if last != '.' && last != ')' {
		return false
	}
	body := m[:len(m)-1]
	return len(body) <= 3 && isDigits(body) || isSingleLetter(body) || isRoman(body)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isSingleLetter(s string) bool {
	return len(s) == 1 && (s[0] >= 'a' && s[0] <= 'z' || s[0] >= 'A' && s[0] <= 'Z')
}

func isRoman(s string) bool {
	if s == "" || len(s) > 6 {
		return false
	}
	lower := strings.ToLower(s)
	return strings.Trim(lower, "ivxlc") == ""
}
