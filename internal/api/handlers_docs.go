package api

import (
	"net/http"
	"strings"

	"github.com/dgallion1/pdfnav/internal/chunker"
	"github.com/dgallion1/pdfnav/internal/doctree"
	"github.com/dgallion1/pdfnav/internal/engine"
	"github.com/dgallion1/pdfnav/internal/export"
	"github.com/dgallion1/pdfnav/internal/navigator"
)

func (s *Server) handleTOC(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readDocument(w, r)
	if !ok {
		return
	}
	tree, err := engine.Parse(data)
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{
		"title":    tree.Title,
		"sections": navigator.Index(tree),
	})
}

// handleRead renders a section, or the whole document without ?section.
// format selects markdown (JSON envelope), html or docx.
func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	id, err := sectionParam(r)
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	switch format {
	case "", "markdown", "md", "html", "docx":
	default:
		jsonError(w, "format must be markdown, html or docx", http.StatusBadRequest)
		return
	}

	data, ok := s.readDocument(w, r)
	if !ok {
		return
	}

	content, err := engine.ReadSection(data, id)
	if err != nil {
		s.engineError(w, r, err)
		return
	}

	switch format {
	case "html":
		page, err := export.HTMLPage(content.Text, export.PageOptions{Title: content.Title})
		if err != nil {
			s.engineError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	case "docx":
		s.writeDOCX(w, r, data, id, content.Title)
	default:
		writeJSON(w, content)
	}
}

func (s *Server) writeDOCX(w http.ResponseWriter, r *http.Request, data []byte, id *doctree.SectionID, title string) {
	tree, err := engine.Parse(data)
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	blocks, err := navigator.Blocks(tree, id)
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	out, err := export.DOCX(title, blocks, func(imageID string) ([]byte, error) {
		img, err := engine.GetImage(data, imageID)
		return img.Bytes, err
	})
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	w.Header().Set("Content-Disposition", `attachment; filename="section.docx"`)
	w.Write(out)
}

func (s *Server) handlePeek(w http.ResponseWriter, r *http.Request) {
	id, err := sectionParam(r)
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	pos := navigator.Beginning
	if v := r.URL.Query().Get("position"); v != "" {
		if pos, err = navigator.ParsePeekPosition(v); err != nil {
			s.engineError(w, r, err)
			return
		}
	}
	limit, err := intParam(r, "limit", s.cfg.DefaultPeekLimit)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, ok := s.readDocument(w, r)
	if !ok {
		return
	}
	win, err := engine.PeekSectionWindow(data, id, pos, limit, s.rand)
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{
		"section":  id,
		"position": pos,
		"text":     win.Text,
		"start":    win.Start,
		"total":    win.Total,
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readDocument(w, r)
	if !ok {
		return
	}
	meta, err := engine.Info(data)
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	writeJSON(w, meta)
}

func (s *Server) handleChunks(w http.ResponseWriter, r *http.Request) {
	cfg := chunker.DefaultConfig()
	var err error
	if cfg.ChunkSize, err = intParam(r, "size", s.cfg.DefaultChunkSize); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if cfg.ChunkOverlap, err = intParam(r, "overlap", s.cfg.DefaultChunkOverlap); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if cfg.MinChunk, err = intParam(r, "min", 1); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if cfg.ChunkSize == 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		jsonError(w, "size must be positive and greater than overlap", http.StatusBadRequest)
		return
	}

	data, ok := s.readDocument(w, r)
	if !ok {
		return
	}
	tree, err := engine.Parse(data)
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	chunks := chunker.ChunkTree(tree, cfg)
	writeJSON(w, map[string]any{
		"title":  tree.Title,
		"count":  len(chunks),
		"chunks": chunks,
	})
}
