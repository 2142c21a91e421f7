// Package parser turns PDF bytes into a section tree. Layout is inferred from
// glyph positions and font sizes: larger-than-body lines become headings,
// aligned columns become tables and image XObjects become image blocks.
package parser

import (
	"github.com/dgallion1/pdfnav/internal/doctree"
)

// Document is the result of a parse: every classified block in reading order
// and the tree built from them.
type Document struct {
	Blocks []doctree.ContentBlock
	Tree   *doctree.Tree
}

// Parse reads data as a PDF. The bytes are not retained.
func Parse(data []byte) (*Document, error) {
	return ParseWith(data, DefaultTableConfig())
}

// ParseWith is Parse with custom table detection settings.
func ParseWith(data []byte, cfg TableConfig) (*Document, error) {
	reader, err := Open(data)
	if err != nil {
		return nil, err
	}
	meta, err := ReadMetadata(reader)
	if err != nil {
		return nil, err
	}

	pages := make([][]line, meta.PageCount)
	for p := range pages {
		glyphs, err := pageGlyphs(reader, p+1)
		if err != nil {
			return nil, err
		}
		pages[p] = groupLines(glyphs)
	}
	detectHeadings(pages, buildFontStats(pages))

	var blocks []doctree.ContentBlock
	for p, lines := range pages {
		blocks = append(blocks, classifyBlocks(p+1, groupBlocks(lines), cfg)...)

		xobjects, err := PageImages(reader, p+1)
		if err != nil {
			return nil, err
		}
		for _, x := range xobjects {
			blocks = append(blocks, doctree.Image(x.ID(), nil).OnPage(p+1))
		}
	}

	return &Document{Blocks: blocks, Tree: BuildTree(blocks, meta)}, nil
}
