// Package engine exposes the document operations used by every front end.
// Each call parses the supplied bytes afresh and keeps no state, so calls may
// run concurrently, including over the same buffer.
package engine

import (
	"fmt"

	"github.com/dgallion1/pdfnav/internal/doctree"
	"github.com/dgallion1/pdfnav/internal/images"
	"github.com/dgallion1/pdfnav/internal/navigator"
	"github.com/dgallion1/pdfnav/internal/parser"
)

// SectionContent is the rendered text of a section or of the whole document.
type SectionContent struct {
	ID     *doctree.SectionID `json:"id,omitempty"` // nil for the whole document
	Title  string             `json:"title"`
	Text   string             `json:"text"`
	Images []doctree.ImageRef `json:"images"` // Images referenced in scope
}

// Parse builds the section tree.
func Parse(data []byte) (*doctree.Tree, error) {
	doc, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	return doc.Tree, nil
}

// TOC returns the flattened section index.
func TOC(data []byte) ([]doctree.IndexEntry, error) {
	tree, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return navigator.Index(tree), nil
}

// ReadSection renders one section, or the whole document when id is nil.
func ReadSection(data []byte, id *doctree.SectionID) (SectionContent, error) {
	tree, err := Parse(data)
	if err != nil {
		return SectionContent{}, err
	}
	text, err := navigator.Read(tree, id)
	if err != nil {
		return SectionContent{}, err
	}
	refs, err := scopedImages(data, tree, id)
	if err != nil {
		return SectionContent{}, err
	}

	title := tree.Title
	if id != nil {
		idx, _ := tree.Lookup(*id)
		title = tree.Sections[idx].Title
	}
	return SectionContent{ID: id, Title: title, Text: text, Images: refs}, nil
}

// PeekSection returns at most limit characters of the rendered target.
func PeekSection(data []byte, id *doctree.SectionID, pos navigator.PeekPosition, limit int, rnd navigator.Rand) (string, error) {
	w, err := PeekSectionWindow(data, id, pos, limit, rnd)
	if err != nil {
		return "", err
	}
	return w.Text, nil
}

// PeekSectionWindow is PeekSection with the window offsets.
func PeekSectionWindow(data []byte, id *doctree.SectionID, pos navigator.PeekPosition, limit int, rnd navigator.Rand) (navigator.Window, error) {
	tree, err := Parse(data)
	if err != nil {
		return navigator.Window{}, err
	}
	text, err := navigator.Read(tree, id)
	if err != nil {
		return navigator.Window{}, err
	}
	return navigator.Peek(text, pos, limit, rnd), nil
}

// ListSectionImages lists the images in scope: the section and its
// descendants, or the whole document when id is nil.
func ListSectionImages(data []byte, id *doctree.SectionID) ([]doctree.ImageRef, error) {
	tree, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return scopedImages(data, tree, id)
}

func scopedImages(data []byte, tree *doctree.Tree, id *doctree.SectionID) ([]doctree.ImageRef, error) {
	ids, err := navigator.ImageIDs(tree, id)
	if err != nil {
		return nil, err
	}
	refs := []doctree.ImageRef{}
	if len(ids) == 0 {
		return refs, nil
	}
	all, err := images.List(data)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]doctree.ImageRef, len(all))
	for _, r := range all {
		byID[r.ID] = r
	}
	for _, imageID := range ids {
		if r, ok := byID[imageID]; ok {
			refs = append(refs, r)
		}
	}
	return refs, nil
}

// GetImage returns the bytes of one image. Unknown ids are ErrImageNotFound.
func GetImage(data []byte, imageID string) (doctree.ImageData, error) {
	return images.Extract(data, imageID)
}

// ResolveImage is GetImage that also returns the ref, so a bare XObject name
// reports the page and canonical id it resolved to.
func ResolveImage(data []byte, imageID string) (doctree.ImageRef, doctree.ImageData, error) {
	ref, err := images.Lookup(data, imageID)
	if err != nil {
		return doctree.ImageRef{}, doctree.ImageData{}, err
	}
	img, err := images.Extract(data, ref.ID)
	if err != nil {
		return doctree.ImageRef{}, doctree.ImageData{}, err
	}
	return ref, img, nil
}

// PickImage extracts a random image from the scope. An empty scope is
// ErrImageNotFound.
func PickImage(data []byte, id *doctree.SectionID, rnd navigator.Rand) (doctree.ImageRef, doctree.ImageData, error) {
	refs, err := ListSectionImages(data, id)
	if err != nil {
		return doctree.ImageRef{}, doctree.ImageData{}, err
	}
	if len(refs) == 0 {
		scope := "document"
		if id != nil {
			scope = id.String()
		}
		return doctree.ImageRef{}, doctree.ImageData{}, fmt.Errorf("%w: no images in %s", doctree.ErrImageNotFound, scope)
	}
	if rnd == nil {
		rnd = navigator.DefaultRand()
	}
	ref := refs[rnd.IntN(len(refs))]
	img, err := images.Extract(data, ref.ID)
	if err != nil {
		return doctree.ImageRef{}, doctree.ImageData{}, err
	}
	return ref, img, nil
}

// Info reads the document metadata without building the tree.
func Info(data []byte) (doctree.Metadata, error) {
	reader, err := parser.Open(data)
	if err != nil {
		return doctree.Metadata{}, err
	}
	return parser.ReadMetadata(reader)
}
