package parser

import (
	"math"
	"sort"
	"strings"

	"github.com/dgallion1/pdfnav/internal/doctree"
)

// TableConfig tunes table detection.
type TableConfig struct {
	MinRows        int
	MinColumns     int
	MaxColumns     int
	YToleranceRate float64 // Row tolerance as a fraction of the median font size
	AlignmentRatio float64 // Share of rows that must align with the columns
	MinColumnGap   float64 // Minimum distance between column starts, in points
}

// DefaultTableConfig returns the detector defaults.
func DefaultTableConfig() TableConfig {
	return TableConfig{
		MinRows:        2,
		MinColumns:     2,
		MaxColumns:     20,
		YToleranceRate: 0.3,
		AlignmentRatio: 0.5,
		MinColumnGap:   10,
	}
}

type tableRow struct {
	Y     float64
	Spans []span
}

// detectTable finds a column grid in the spans. The first (top-most) row
// becomes the header row. ok is false when the spans do not form a table.
func detectTable(spans []span, cfg TableConfig) (headers []string, rows [][]string, ok bool) {
	if len(spans) == 0 {
		return nil, nil, false
	}
	grid := groupRows(spans, rowTolerance(spans, cfg.YToleranceRate))
	if len(grid) < cfg.MinRows {
		return nil, nil, false
	}
	columns := detectColumns(grid, cfg)
	if len(columns) < cfg.MinColumns || len(columns) > cfg.MaxColumns {
		return nil, nil, false
	}

	aligned := 0
	for _, r := range grid {
		hits := 0
		for _, col := range columns {
			for _, s := range r.Spans {
				if math.Abs(s.X-col) < cfg.MinColumnGap {
					hits++
					break
				}
			}
		}
		if hits >= (len(columns)+1)/2 {
			aligned++
		}
	}
	if float64(aligned)/float64(len(grid)) < cfg.AlignmentRatio {
		return nil, nil, false
	}

	cells := make([][]string, 0, len(grid))
	for _, r := range grid {
		row := make([]string, len(columns))
		for _, s := range r.Spans {
			c := nearestColumn(s.X, columns)
			text := strings.TrimSpace(s.Text)
			if text == "" {
				continue
			}
			if row[c] != "" {
				row[c] += " "
			}
			row[c] += text
		}
		cells = append(cells, row)
	}
	return cells[0], cells[1:], true
}

// rowTolerance is the median span size times rate, at least one point.
func rowTolerance(spans []span, rate float64) float64 {
	sizes := make([]float64, len(spans))
	for i, s := range spans {
		sizes[i] = s.Size
	}
	sort.Float64s(sizes)
	return math.Max(sizes[len(sizes)/2]*rate, 1)
}

// groupRows clusters spans by baseline, top to bottom.
func groupRows(spans []span, tolerance float64) []tableRow {
	sorted := make([]span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var rows []tableRow
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) && math.Abs(sorted[i].Y-sorted[start].Y) <= tolerance {
			continue
		}
		group := sorted[start:i]
		sum := 0.0
		for _, s := range group {
			sum += s.Y
		}
		sort.SliceStable(group, func(a, b int) bool { return group[a].X < group[b].X })
		rows = append(rows, tableRow{Y: sum / float64(len(group)), Spans: group})
		start = i
	}
	return rows
}

// detectColumns keeps span start positions shared by enough rows. Each row
// votes once per rounded X position; candidates closer than MinColumnGap to
// the previous column are merged into it.
func detectColumns(rows []tableRow, cfg TableConfig) []float64 {
	type vote struct {
		sum   float64
		count int
	}
	votes := map[int]*vote{}
	for _, r := range rows {
		seen := map[int]bool{}
		for _, s := range r.Spans {
			key := int(math.Round(s.X))
			if seen[key] {
				continue
			}
			seen[key] = true
			v := votes[key]
			if v == nil {
				v = &vote{}
				votes[key] = v
			}
			v.sum += s.X
			v.count++
		}
	}

	minCount := int(math.Ceil(float64(len(rows)) * cfg.AlignmentRatio))
	var candidates []float64
	for _, v := range votes {
		if v.count >= minCount {
			candidates = append(candidates, v.sum/float64(v.count))
		}
	}
	sort.Float64s(candidates)

	var columns []float64
	for _, x := range candidates {
		if n := len(columns); n > 0 && x-columns[n-1] < cfg.MinColumnGap {
			continue
		}
		columns = append(columns, x)
	}
	return columns
}

func nearestColumn(x float64, columns []float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, c := range columns {
		if d := math.Abs(x - c); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// classifyBlocks turns layout blocks into content blocks. Headings come out
// as SubHeading blocks; the tree builder promotes them to sections.
func classifyBlocks(page int, blocks []textBlock, cfg TableConfig) []doctree.ContentBlock {
	var out []doctree.ContentBlock
	for _, b := range blocks {
		switch b.Type {
		case blockHeading:
			out = append(out, doctree.SubHeading(b.Level, joinLines(b.Lines, " ")).OnPage(page))
		case blockTable:
			var spans []span
			for _, l := range b.Lines {
				spans = append(spans, l.Spans...)
			}
			if headers, rows, ok := detectTable(spans, cfg); ok {
				out = append(out, doctree.Table(headers, rows).OnPage(page))
				continue
			}
			out = append(out, doctree.Paragraph(joinLines(b.Lines, "\n")).OnPage(page))
		case blockParagraph, blockList:
			out = append(out, doctree.Paragraph(joinLines(b.Lines, "\n")).OnPage(page))
		}
	}
	return out
}

func joinLines(lines []line, sep string) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		if t := l.text(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, sep)
}
