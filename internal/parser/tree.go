package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/pdfnav/internal/doctree"
)

// previewChars bounds Section.Preview.
const previewChars = 100

// BuildTree nests classified blocks into sections. SubHeading blocks open
// sections; other blocks belong to the innermost open section. Without any
// headings the tree falls back to one section per page.
func BuildTree(blocks []doctree.ContentBlock, meta doctree.Metadata) *doctree.Tree {
	tree := &doctree.Tree{Metadata: meta}

	hasHeadings := false
	for _, b := range blocks {
		if b.Kind == doctree.KindSubHeading {
			hasHeadings = true
			break
		}
	}
	if hasHeadings {
		buildFromHeadings(tree, blocks)
	} else {
		buildPerPage(tree, blocks, meta.PageCount)
	}

	for i := len(tree.Sections) - 1; i >= 0; i-- {
		s := &tree.Sections[i]
		s.Preview = contentPreview(sectionText(s.Blocks), previewChars)
		for _, c := range s.Children {
			s.Pages = s.Pages.Merge(tree.Sections[c].Pages)
			s.ImageCount += tree.Sections[c].ImageCount
		}
	}

	switch {
	case meta.Title != nil:
		tree.Title = *meta.Title
	case len(tree.Sections) > 0:
		tree.Title = tree.Sections[0].Title
	default:
		tree.Title = "Untitled"
	}
	return tree
}

func buildFromHeadings(tree *doctree.Tree, blocks []doctree.ContentBlock) {
	var counters [doctree.MaxLevel + 1]int
	var stack []int

	for _, b := range blocks {
		if b.Kind == doctree.KindSubHeading {
			level := doctree.ClampLevel(b.Level)
			for len(stack) > 0 && tree.Sections[stack[len(stack)-1]].Level >= level {
				stack = stack[:len(stack)-1]
			}

			parent := -1
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			idx := len(tree.Sections)
			tree.Sections = append(tree.Sections, doctree.Section{
				ID:     doctree.SectionID{Level: level, Index: counters[level]},
				Level:  level,
				Title:  b.Title,
				Parent: parent,
				Pages:  doctree.PageRange{}.Extend(b.Page),
			})
			counters[level]++
			if parent >= 0 {
				tree.Sections[parent].Children = append(tree.Sections[parent].Children, idx)
			} else {
				tree.Roots = append(tree.Roots, idx)
			}
			stack = append(stack, idx)
			continue
		}

		if len(stack) == 0 {
			tree.Blocks = append(tree.Blocks, b)
			continue
		}
		appendBlock(&tree.Sections[stack[len(stack)-1]], b)
	}
}

func buildPerPage(tree *doctree.Tree, blocks []doctree.ContentBlock, pageCount int) {
	byPage := map[int]int{}
	addPage := func(page int) int {
		if idx, ok := byPage[page]; ok {
			return idx
		}
		idx := len(tree.Sections)
		tree.Sections = append(tree.Sections, doctree.Section{
			ID:     doctree.SectionID{Level: 1, Index: idx},
			Level:  1,
			Title:  fmt.Sprintf("Page %d", page),
			Parent: -1,
			Pages:  doctree.PageRange{}.Extend(page),
		})
		tree.Roots = append(tree.Roots, idx)
		byPage[page] = idx
		return idx
	}

	if len(blocks) == 0 {
		for p := 1; p <= pageCount; p++ {
			addPage(p)
		}
		return
	}
	for _, b := range blocks {
		page := b.Page
		if page <= 0 {
			page = 1
		}
		appendBlock(&tree.Sections[addPage(page)], b)
	}
}

func appendBlock(s *doctree.Section, b doctree.ContentBlock) {
	s.Blocks = append(s.Blocks, b)
	s.Pages = s.Pages.Extend(b.Page)
	if b.Kind == doctree.KindImage {
		s.ImageCount++
	}
}

// sectionText flattens paragraphs and tables for previews. Table cells are
// joined with " | ".
func sectionText(blocks []doctree.ContentBlock) string {
	var parts []string
	for _, b := range blocks {
		switch b.Kind {
		case doctree.KindParagraph:
			parts = append(parts, strings.Join(strings.Fields(b.Text), " "))
		case doctree.KindTable:
			var rows []string
			if len(b.Headers) > 0 {
				rows = append(rows, strings.Join(b.Headers, " | "))
			}
			for _, r := range b.Rows {
				rows = append(rows, strings.Join(r, " | "))
			}
			if len(rows) > 0 {
				parts = append(parts, strings.Join(rows, " "))
			}
		case doctree.KindSubHeading, doctree.KindImage:
		}
	}
	return strings.Join(parts, " ")
}

// contentPreview trims text to at most max characters, cutting at the last
// space and appending "..." when it had to shorten.
func contentPreview(text string, max int) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	head := string(runes[:max])
	if i := strings.LastIndexByte(head, ' '); i > 0 {
		return strings.TrimRight(head[:i], " ") + "..."
	}
	return head + "..."
}
