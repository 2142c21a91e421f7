// Package navigator answers read, peek and list requests against a built
// section tree.
package navigator

import (
	"fmt"

	"github.com/dgallion1/pdfnav/internal/chunker"
	"github.com/dgallion1/pdfnav/internal/doctree"
	"github.com/dgallion1/pdfnav/internal/render"
)

// SectionBlocks returns the section's own blocks followed by a SubHeading for
// each descendant, in document order. Descendant content is not included.
func SectionBlocks(tree *doctree.Tree, id doctree.SectionID) ([]doctree.ContentBlock, error) {
	idx, ok := tree.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", doctree.ErrSectionNotFound, id)
	}
	s := tree.Sections[idx]
	out := make([]doctree.ContentBlock, 0, len(s.Blocks))
	out = append(out, s.Blocks...)
	for _, d := range tree.Descendants(idx) {
		sub := tree.Sections[d]
		out = append(out, doctree.SubHeading(sub.Level, sub.Title).OnPage(sub.Pages.Start))
	}
	return out, nil
}

// DocumentBlocks returns the preamble and then, for every section in document
// order, its heading and its own blocks.
func DocumentBlocks(tree *doctree.Tree) []doctree.ContentBlock {
	out := make([]doctree.ContentBlock, 0, len(tree.Blocks)+2*len(tree.Sections))
	out = append(out, tree.Blocks...)
	for _, s := range tree.Sections {
		out = append(out, doctree.SubHeading(s.Level, s.Title).OnPage(s.Pages.Start))
		out = append(out, s.Blocks...)
	}
	return out
}

// Blocks selects the whole document when id is nil and one section otherwise.
func Blocks(tree *doctree.Tree, id *doctree.SectionID) ([]doctree.ContentBlock, error) {
	if id == nil {
		return DocumentBlocks(tree), nil
	}
	return SectionBlocks(tree, *id)
}

// Read renders the selected content as Markdown.
func Read(tree *doctree.Tree, id *doctree.SectionID) (string, error) {
	blocks, err := Blocks(tree, id)
	if err != nil {
		return "", err
	}
	return render.RenderSectionContent(blocks), nil
}

// ImageIDs lists the image ids in the selected scope: the whole document for
// a nil id, otherwise the section and all of its descendants. Duplicates are
// dropped and document order is kept.
func ImageIDs(tree *doctree.Tree, id *doctree.SectionID) ([]string, error) {
	var scope [][]doctree.ContentBlock
	if id == nil {
		scope = append(scope, tree.Blocks)
		for _, s := range tree.Sections {
			scope = append(scope, s.Blocks)
		}
	} else {
		idx, ok := tree.Lookup(*id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", doctree.ErrSectionNotFound, *id)
		}
		scope = append(scope, tree.Sections[idx].Blocks)
		for _, d := range tree.Descendants(idx) {
			scope = append(scope, tree.Sections[d].Blocks)
		}
	}

	ids := []string{}
	seen := map[string]bool{}
	for _, blocks := range scope {
		for _, b := range blocks {
			if b.Kind != doctree.KindImage || seen[b.ImageID] {
				continue
			}
			seen[b.ImageID] = true
			ids = append(ids, b.ImageID)
		}
	}
	return ids, nil
}

// Index flattens the tree into table-of-contents entries with breadcrumbs.
// Tokens estimates the size of Read for the section.
func Index(tree *doctree.Tree) []doctree.IndexEntry {
	entries := make([]doctree.IndexEntry, 0, len(tree.Sections))
	for i, s := range tree.Sections {
		text, _ := Read(tree, &s.ID)
		entries = append(entries, doctree.IndexEntry{
			ID:         s.ID,
			Level:      s.Level,
			Title:      s.Title,
			Path:       tree.Breadcrumb(i),
			Pages:      s.Pages,
			ImageCount: s.ImageCount,
			Tokens:     chunker.EstimateTokens(text),
		})
	}
	return entries
}
