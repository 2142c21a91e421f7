// Package chunker splits a parsed document into token-bounded passages that
// keep their heading breadcrumbs, for feeding retrieval pipelines.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/pdfnav/internal/doctree"
	"github.com/dgallion1/pdfnav/internal/render"
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize    int // Target chunk size in tokens.
	ChunkOverlap int // Overlap between consecutive chunks in tokens.
	MinChunk     int // Minimum chunk size to emit.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1500,
		ChunkOverlap: 200,
		MinChunk:     100,
	}
}

// Chunk is one passage of rendered section text.
type Chunk struct {
	Text       string             `json:"text"`
	Index      int                `json:"index"`
	SectionID  *doctree.SectionID `json:"section_id,omitempty"` // nil for the preamble
	Breadcrumb []string           `json:"breadcrumb,omitempty"`
	PageStart  int                `json:"page_start,omitempty"`
	PageEnd    int                `json:"page_end,omitempty"`
	Tokens     int                `json:"tokens"`
}

// ChunkTree renders the preamble and then every section's own content in
// document order, splitting each into chunks of about cfg.ChunkSize tokens.
func ChunkTree(tree *doctree.Tree, cfg Config) []Chunk {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1500
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = 200
	}
	if cfg.MinChunk <= 0 {
		cfg.MinChunk = 100
	}

	var chunks []Chunk
	emit := func(text string, id *doctree.SectionID, bc []string, pages doctree.PageRange) {
		if text == "" {
			return
		}
		parts := []string{text}
		if EstimateTokens(text) > cfg.ChunkSize {
			parts = splitText(text, cfg.ChunkSize, cfg.ChunkOverlap)
		}
		for _, part := range parts {
			tokens := EstimateTokens(part)
			if tokens < cfg.MinChunk {
				continue
			}
			chunks = append(chunks, Chunk{
				Text:       part,
				Index:      len(chunks),
				SectionID:  id,
				Breadcrumb: copyBreadcrumb(bc),
				PageStart:  pages.Start,
				PageEnd:    pages.End,
				Tokens:     tokens,
			})
		}
	}

	emit(render.RenderSectionContent(tree.Blocks), nil, nil, blockPages(tree.Blocks))
	for i := range tree.Sections {
		s := &tree.Sections[i]
		id := s.ID
		emit(render.RenderSectionContent(s.Blocks), &id, tree.Breadcrumb(i), blockPages(s.Blocks))
	}
	return chunks
}

func blockPages(blocks []doctree.ContentBlock) doctree.PageRange {
	var r doctree.PageRange
	for _, b := range blocks {
		r = r.Extend(b.Page)
	}
	return r
}

// splitText breaks text into chunks of approximately targetTokens, with overlap.
func splitText(text string, targetTokens, overlapTokens int) []string {
	paragraphs := splitByParagraphs(text)

	var result []string
	var current strings.Builder
	currentTokens := 0

	for _, para := range paragraphs {
		paraTokens := EstimateTokens(para)

		// A single oversized paragraph is split by sentences on its own.
		if paraTokens > targetTokens {
			if currentTokens > 0 {
				result = append(result, current.String())
				current.Reset()
				currentTokens = 0
			}
			result = append(result, splitBySentences(para, targetTokens, overlapTokens)...)
			continue
		}

		if currentTokens+paraTokens > targetTokens && currentTokens > 0 {
			result = append(result, current.String())

			overlap := getOverlapText(current.String(), overlapTokens)
			current.Reset()
			currentTokens = 0
			if overlap != "" {
				current.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
		currentTokens += paraTokens
	}

	if currentTokens > 0 {
		result = append(result, current.String())
	}
	return result
}

// splitByParagraphs splits on blank lines.
func splitByParagraphs(text string) []string {
	var result []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitBySentences breaks a large paragraph into sentence-based chunks.
func splitBySentences(text string, targetTokens, overlapTokens int) []string {
	var result []string
	var current strings.Builder
	currentTokens := 0

	for _, sent := range splitSentences(text) {
		sentTokens := EstimateTokens(sent)

		if currentTokens+sentTokens > targetTokens && currentTokens > 0 {
			result = append(result, current.String())
			overlap := getOverlapText(current.String(), overlapTokens)
			current.Reset()
			currentTokens = 0
			if overlap != "" {
				current.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
		currentTokens += sentTokens
	}

	if currentTokens > 0 {
		result = append(result, current.String())
	}
	return result
}

// splitSentences ends a sentence at '.', '!' or '?' followed by whitespace,
// and at the ideographic full stop.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		end := r == '\u3002'
		if r == '.' || r == '!' || r == '?' {
			next, _ := utf8.DecodeRuneInString(text[i+utf8.RuneLen(r):])
			end = next == ' ' || next == '\n'
		}
		if end {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// getOverlapText returns the last targetTokens worth of words.
func getOverlapText(text string, targetTokens int) string {
	words := strings.Fields(text)
	targetWords := int(float64(targetTokens) / 1.33)
	if targetWords <= 0 || len(words) <= targetWords {
		return ""
	}
	return strings.Join(words[len(words)-targetWords:], " ")
}

func copyBreadcrumb(bc []string) []string {
	if len(bc) == 0 {
		return nil
	}
	out := make([]string, len(bc))
	copy(out, bc)
	return out
}
