package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dgallion1/pdfnav/internal/doctree"
	"github.com/dgallion1/pdfnav/internal/engine"
	"github.com/dgallion1/pdfnav/internal/navigator"
)

// DocumentInput names the PDF a tool operates on.
type DocumentInput struct {
	Path string `json:"path" jsonschema:"absolute path of the PDF file"`
}

// SectionInput selects a section, or the whole document when SectionID is empty.
type SectionInput struct {
	Path      string `json:"path" jsonschema:"absolute path of the PDF file"`
	SectionID string `json:"sectionId,omitempty" jsonschema:"section id such as s-1-0 from pdf_toc; omit for the whole document"`
}

// PeekInput is the input schema for pdf_peek.
type PeekInput struct {
	Path      string `json:"path" jsonschema:"absolute path of the PDF file"`
	SectionID string `json:"sectionId,omitempty" jsonschema:"section id such as s-1-0 from pdf_toc; omit for the whole document"`
	Position  string `json:"position,omitempty" jsonschema:"beginning, middle, ending or random (default beginning)"`
	Limit     *int   `json:"limit,omitempty" jsonschema:"maximum number of characters to return (default 500)"`
}

// ImageInput is the input schema for pdf_image.
type ImageInput struct {
	Path      string `json:"path" jsonschema:"absolute path of the PDF file"`
	ImageID   string `json:"imageId,omitempty" jsonschema:"image id such as p3-Im1 from pdf_images"`
	Random    bool   `json:"random,omitempty" jsonschema:"pick a random image instead of imageId"`
	SectionID string `json:"sectionId,omitempty" jsonschema:"limit a random pick to this section and its subsections"`
}

// TOCEntry is one row of the table of contents.
type TOCEntry struct {
	ID         string   `json:"id"`
	Level      int      `json:"level"`
	Title      string   `json:"title"`
	Path       []string `json:"path"`
	PageStart  int      `json:"pageStart"`
	PageEnd    int      `json:"pageEnd"`
	ImageCount int      `json:"imageCount"`
	Tokens     int      `json:"tokens"`
}

// TOCOutput is the output schema for pdf_toc.
type TOCOutput struct {
	Title    string     `json:"title"`
	Sections []TOCEntry `json:"sections"`
	Count    int        `json:"count"`
}

// ImageOutput describes one embedded image.
type ImageOutput struct {
	ID     string `json:"id"`
	Format string `json:"format"`
	Page   int    `json:"page,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Bytes  int64  `json:"bytes,omitempty"`
}

// ReadOutput is the output schema for pdf_read.
type ReadOutput struct {
	SectionID string        `json:"sectionId,omitempty"`
	Title     string        `json:"title"`
	Text      string        `json:"text"`
	Images    []ImageOutput `json:"images"`
}

// PeekOutput is the output schema for pdf_peek.
type PeekOutput struct {
	SectionID string `json:"sectionId,omitempty"`
	Position  string `json:"position"`
	Text      string `json:"text"`
	Start     int    `json:"start"`
	Total     int    `json:"total"`
}

// ImagesOutput is the output schema for pdf_images.
type ImagesOutput struct {
	SectionID string        `json:"sectionId,omitempty"`
	Images    []ImageOutput `json:"images"`
	Count     int           `json:"count"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "pdf_toc",
		Description: "List the sections of a PDF with ids, heading paths, page ranges and image counts",
	}, logged(s.log, "pdf_toc", s.handleTOC))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "pdf_read",
		Description: "Read a section of a PDF as Markdown, or the whole document when sectionId is omitted",
	}, logged(s.log, "pdf_read", s.handleRead))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "pdf_peek",
		Description: "Read a bounded window of a section's text from its beginning, middle, ending or a random offset",
	}, logged(s.log, "pdf_peek", s.handlePeek))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "pdf_images",
		Description: "List the images in a section and its subsections, or in the whole document",
	}, logged(s.log, "pdf_images", s.handleImages))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "pdf_image",
		Description: "Return one embedded image by id, or a random image when random is true",
	}, logged(s.log, "pdf_image", s.handleImage))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "pdf_info",
		Description: "Return PDF metadata: title, author, subject, keywords, creator, producer and page count",
	}, logged(s.log, "pdf_info", s.handleInfo))
}

func (s *Server) handleTOC(_ context.Context, _ *mcp.CallToolRequest, input DocumentInput) (*mcp.CallToolResult, TOCOutput, error) {
	data, err := s.readPDF(input.Path)
	if err != nil {
		return nil, TOCOutput{}, err
	}
	tree, err := engine.Parse(data)
	if err != nil {
		return nil, TOCOutput{}, err
	}

	index := navigator.Index(tree)
	out := TOCOutput{
		Title:    tree.Title,
		Sections: make([]TOCEntry, len(index)),
		Count:    len(index),
	}
	for i, e := range index {
		out.Sections[i] = TOCEntry{
			ID:         e.ID.String(),
			Level:      e.Level,
			Title:      e.Title,
			Path:       e.Path,
			PageStart:  e.Pages.Start,
			PageEnd:    e.Pages.End,
			ImageCount: e.ImageCount,
			Tokens:     e.Tokens,
		}
	}
	return nil, out, nil
}

func (s *Server) handleRead(_ context.Context, _ *mcp.CallToolRequest, input SectionInput) (*mcp.CallToolResult, ReadOutput, error) {
	id, err := parseSection(input.SectionID)
	if err != nil {
		return nil, ReadOutput{}, err
	}
	data, err := s.readPDF(input.Path)
	if err != nil {
		return nil, ReadOutput{}, err
	}
	content, err := engine.ReadSection(data, id)
	if err != nil {
		return nil, ReadOutput{}, err
	}

	// The Markdown goes out as plain text; the envelope rides in the
	// structured content.
	res := &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: content.Text}}}
	return res, ReadOutput{
		SectionID: input.SectionID,
		Title:     content.Title,
		Text:      content.Text,
		Images:    imageOutputs(content.Images),
	}, nil
}

func (s *Server) handlePeek(_ context.Context, _ *mcp.CallToolRequest, input PeekInput) (*mcp.CallToolResult, PeekOutput, error) {
	id, err := parseSection(input.SectionID)
	if err != nil {
		return nil, PeekOutput{}, err
	}
	pos := navigator.Beginning
	if input.Position != "" {
		if pos, err = navigator.ParsePeekPosition(input.Position); err != nil {
			return nil, PeekOutput{}, err
		}
	}
	limit := s.cfg.DefaultPeekLimit
	if input.Limit != nil {
		limit = *input.Limit
	}

	data, err := s.readPDF(input.Path)
	if err != nil {
		return nil, PeekOutput{}, err
	}
	win, err := engine.PeekSectionWindow(data, id, pos, limit, s.rand)
	if err != nil {
		return nil, PeekOutput{}, err
	}
	return nil, PeekOutput{
		SectionID: input.SectionID,
		Position:  pos.String(),
		Text:      win.Text,
		Start:     win.Start,
		Total:     win.Total,
	}, nil
}

func (s *Server) handleImages(_ context.Context, _ *mcp.CallToolRequest, input SectionInput) (*mcp.CallToolResult, ImagesOutput, error) {
	id, err := parseSection(input.SectionID)
	if err != nil {
		return nil, ImagesOutput{}, err
	}
	data, err := s.readPDF(input.Path)
	if err != nil {
		return nil, ImagesOutput{}, err
	}
	refs, err := engine.ListSectionImages(data, id)
	if err != nil {
		return nil, ImagesOutput{}, err
	}
	return nil, ImagesOutput{
		SectionID: input.SectionID,
		Images:    imageOutputs(refs),
		Count:     len(refs),
	}, nil
}

func (s *Server) handleImage(_ context.Context, _ *mcp.CallToolRequest, input ImageInput) (*mcp.CallToolResult, ImageOutput, error) {
	if input.ImageID == "" && !input.Random {
		return nil, ImageOutput{}, fmt.Errorf("imageId is required unless random is true")
	}
	id, err := parseSection(input.SectionID)
	if err != nil {
		return nil, ImageOutput{}, err
	}
	data, err := s.readPDF(input.Path)
	if err != nil {
		return nil, ImageOutput{}, err
	}

	var ref doctree.ImageRef
	var img doctree.ImageData
	if input.ImageID != "" {
		ref, img, err = engine.ResolveImage(data, input.ImageID)
	} else {
		ref, img, err = engine.PickImage(data, id, s.rand)
	}
	if err != nil {
		return nil, ImageOutput{}, err
	}

	res := &mcp.CallToolResult{Content: []mcp.Content{&mcp.ImageContent{
		Data:     img.Bytes,
		MIMEType: img.Format.MIMEType(),
	}}}
	return res, ImageOutput{
		ID:     ref.ID,
		Format: string(img.Format),
		Page:   ref.Page,
		Width:  img.Width,
		Height: img.Height,
		Bytes:  int64(len(img.Bytes)),
	}, nil
}

func (s *Server) handleInfo(_ context.Context, _ *mcp.CallToolRequest, input DocumentInput) (*mcp.CallToolResult, doctree.Metadata, error) {
	data, err := s.readPDF(input.Path)
	if err != nil {
		return nil, doctree.Metadata{}, err
	}
	meta, err := engine.Info(data)
	if err != nil {
		return nil, doctree.Metadata{}, err
	}
	return nil, meta, nil
}

func parseSection(s string) (*doctree.SectionID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := doctree.ParseSectionID(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func imageOutputs(refs []doctree.ImageRef) []ImageOutput {
	out := make([]ImageOutput, len(refs))
	for i, r := range refs {
		out[i] = ImageOutput{
			ID:     r.ID,
			Format: string(r.Format),
			Page:   r.Page,
			Width:  r.Width,
			Height: r.Height,
			Bytes:  r.Length,
		}
	}
	return out
}
