package api

import (
	"net/http"
	"strconv"

	"github.com/dgallion1/pdfnav/internal/doctree"
	"github.com/dgallion1/pdfnav/internal/engine"
)

func (s *Server) handleImages(w http.ResponseWriter, r *http.Request) {
	id, err := sectionParam(r)
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	data, ok := s.readDocument(w, r)
	if !ok {
		return
	}
	refs, err := engine.ListSectionImages(data, id)
	if err != nil {
		s.engineError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"section": id, "images": refs})
}

// handleImage returns raw image bytes for ?id=, or a random image in scope
// for ?random=true with an optional section.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	imageID := q.Get("id")
	random := q.Get("random") == "true"
	if imageID == "" && !random {
		jsonError(w, "id or random=true is required", http.StatusBadRequest)
		return
	}
	id, err := sectionParam(r)
	if err != nil {
		s.engineError(w, r, err)
		return
	}

	data, ok := s.readDocument(w, r)
	if !ok {
		return
	}

	var ref doctree.ImageRef
	var img doctree.ImageData
	if imageID != "" {
		ref, img, err = engine.ResolveImage(data, imageID)
	} else {
		ref, img, err = engine.PickImage(data, id, s.rand)
	}
	if err != nil {
		s.engineError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", img.Format.MIMEType())
	w.Header().Set("X-Image-Id", ref.ID)
	w.Header().Set("X-Image-Format", string(img.Format))
	if img.Width > 0 && img.Height > 0 {
		w.Header().Set("X-Image-Width", strconv.Itoa(img.Width))
		w.Header().Set("X-Image-Height", strconv.Itoa(img.Height))
	}
	w.Write(img.Bytes)
}
