package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/pdfnav/internal/doctree"
	"github.com/dgallion1/pdfnav/internal/render"
)

// Run sizes in half-points.
var headingSizes = [...]string{"", "36", "32", "28", "26", "24", "22"}

const titleSize = "44"

// ImageSource resolves an image id to encoded bytes for embedding.
type ImageSource func(id string) ([]byte, error)

// DOCX writes title and blocks as a Word document. Images are embedded when
// images is non-nil and the bytes are JPEG, PNG or GIF; otherwise a
// placeholder line names the image.
func DOCX(title string, blocks []doctree.ContentBlock, images ImageSource) ([]byte, error) {
	doc := docx.New().WithDefaultTheme()

	if title != "" {
		doc.AddParagraph().Justification("center").AddText(title).Bold().Size(titleSize)
	}

	for _, b := range blocks {
		switch b.Kind {
		case doctree.KindParagraph:
			text := render.CleanupText(b.Text)
			if text == "" {
				continue
			}
			for _, para := range strings.Split(text, "\n\n") {
				doc.AddParagraph().AddText(para)
			}
		case doctree.KindSubHeading:
			doc.AddParagraph().AddText(b.Title).Bold().Size(headingSizes[doctree.ClampLevel(b.Level)])
		case doctree.KindTable:
			addTable(doc, b.Headers, b.Rows)
		case doctree.KindImage:
			addImage(doc, b, images)
		}
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	return buf.Bytes(), nil
}

func addTable(doc *docx.Docx, headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}
	tbl := doc.AddTable(len(rows)+1, len(headers), 0, nil)
	for j, h := range headers {
		tbl.TableRows[0].TableCells[j].AddParagraph().AddText(h).Bold()
	}
	for i, row := range rows {
		for j := range headers {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			tbl.TableRows[i+1].TableCells[j].AddParagraph().AddText(cell)
		}
	}
}

func addImage(doc *docx.Docx, b doctree.ContentBlock, images ImageSource) {
	para := doc.AddParagraph()
	if images != nil {
		if pic, err := images(b.ImageID); err == nil {
			if _, err := para.AddInlineDrawing(pic); err == nil {
				return
			}
		}
	}
	label := "[image " + b.ImageID + "]"
	if b.AltText != nil && *b.AltText != "" {
		label = "[image " + b.ImageID + ": " + *b.AltText + "]"
	}
	para.AddText(label).Italic()
}
