package render

import (
	"strings"

	"github.com/dgallion1/pdfnav/internal/doctree"
)

// RenderSectionContent converts content blocks to Markdown, in order.
func RenderSectionContent(blocks []doctree.ContentBlock) string {
	var buf strings.Builder
	for _, b := range blocks {
		switch b.Kind {
		case doctree.KindParagraph:
			text := CleanupText(b.Text)
			if text == "" {
				continue
			}
			buf.WriteString(text)
			buf.WriteString("\n\n")
		case doctree.KindSubHeading:
			buf.WriteString(strings.Repeat("#", doctree.ClampLevel(b.Level)))
			buf.WriteByte(' ')
			buf.WriteString(b.Title)
			buf.WriteString("\n\n")
		case doctree.KindTable:
			table := RenderTable(b.Headers, b.Rows)
			if table == "" {
				continue
			}
			buf.WriteString(table)
			buf.WriteString("\n\n")
		case doctree.KindImage:
			alt := ""
			if b.AltText != nil {
				alt = *b.AltText
			}
			buf.WriteString("![")
			buf.WriteString(alt)
			buf.WriteString("](image:")
			buf.WriteString(b.ImageID)
			buf.WriteString(")\n\n")
		}
	}
	return strings.TrimRight(buf.String(), " \t\r\n")
}

// RenderTable renders a Markdown pipe table. Rows are truncated or padded to
// the header width. A table without headers renders as "".
func RenderTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	var buf strings.Builder
	writeRow := func(cells []string) {
		buf.WriteByte('|')
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = escapeCell(cells[i])
			}
			buf.WriteByte(' ')
			buf.WriteString(cell)
			buf.WriteString(" |")
		}
		buf.WriteByte('\n')
	}

	writeRow(headers)
	buf.WriteByte('|')
	for range headers {
		buf.WriteString(" --- |")
	}
	buf.WriteByte('\n')
	for _, row := range rows {
		writeRow(row)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

var cellEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	`*`, `\*`,
	`_`, `\_`,
	`[`, `\[`,
	`]`, `\]`,
	`|`, `\|`,
	"\r\n", " ",
	"\n", " ",
)

func escapeCell(s string) string {
	return cellEscaper.Replace(s)
}
