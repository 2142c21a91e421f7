package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/pdfnav/internal/doctree"
)

// minPageBytes is the smallest footprint a page can have in the file: its
// reference in a Kids array plus a dictionary. Larger page counts cannot be
// backed by the buffer.
const minPageBytes = 8

// Open wraps the bytes in a PDF reader. The buffer is read in place, so no
// temp file is needed. Library panics on malformed input become ErrParse, as
// does a page count the buffer cannot hold.
func Open(data []byte) (reader *pdflib.Reader, err error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", doctree.ErrParse)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, fmt.Errorf("%w: missing %%PDF header", doctree.ErrParse)
	}

	err = guard("open", func() error {
		var openErr error
		reader, openErr = pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
		return openErr
	})
	if err != nil {
		if bytes.Contains(data, []byte("/Encrypt")) {
			return nil, doctree.ErrEncrypted
		}
		return nil, err
	}

	var pages int
	if err := guard("page count", func() error {
		pages = reader.NumPage()
		return nil
	}); err != nil {
		return nil, err
	}
	if pages < 0 || pages > len(data)/minPageBytes {
		return nil, fmt.Errorf("%w: page count %d", doctree.ErrParse, pages)
	}
	return reader, nil
}

// guard runs fn and converts both returned errors and panics into ErrParse.
func guard(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", doctree.ErrParse, op, r)
		}
	}()
	if err := fn(); err != nil {
		return fmt.Errorf("%w: %s: %v", doctree.ErrParse, op, err)
	}
	return nil
}

// ReadMetadata extracts the Info dictionary fields and the page count.
func ReadMetadata(reader *pdflib.Reader) (doctree.Metadata, error) {
	var meta doctree.Metadata
	err := guard("read metadata", func() error {
		meta.PageCount = reader.NumPage()
		info := reader.Trailer().Key("Info")
		if info.IsNull() {
			return nil
		}
		meta.Title = infoString(info, "Title")
		meta.Author = infoString(info, "Author")
		meta.Subject = infoString(info, "Subject")
		meta.Keywords = infoString(info, "Keywords")
		meta.Creator = infoString(info, "Creator")
		meta.Producer = infoString(info, "Producer")
		return nil
	})
	return meta, err
}

func infoString(info pdflib.Value, key string) *string {
	v := info.Key(key)
	if v.Kind() != pdflib.String {
		return nil
	}
	s := strings.TrimSpace(v.Text())
	if s == "" {
		return nil
	}
	return &s
}

// glyph is one positioned character as reported by the content stream.
type glyph struct {
	Font string
	Size float64
	X, Y float64
	W    float64
	S    string
}

// pageGlyphs returns the text drawn on page num (1-based).
func pageGlyphs(reader *pdflib.Reader, num int) ([]glyph, error) {
	var out []glyph
	err := guard(fmt.Sprintf("page %d content", num), func() error {
		page := reader.Page(num)
		if page.V.IsNull() {
			return nil
		}
		for _, t := range page.Content().Text {
			// TJ arrays end with a synthetic newline glyph.
			if t.S == "" || t.S == "\n" || t.FontSize <= 0 {
				continue
			}
			out = append(out, glyph{Font: t.Font, Size: t.FontSize, X: t.X, Y: t.Y, W: t.W, S: t.S})
		}
		return nil
	})
	return out, err
}

// XObject describes an image resource on a page.
type XObject struct {
	Page       int
	Name       string
	Filter     string // First filter in the chain, "" when unfiltered
	Width      int
	Height     int
	Components int // Color components per pixel, 0 when not a plain device space
	BPC        int // Bits per component
	Length     int64
	stream     pdflib.Value
}

// ID is the document-scoped image identifier, p{page}-{name}.
func (x XObject) ID() string {
	return fmt.Sprintf("p%d-%s", x.Page, x.Name)
}

// Decoded returns the stream with its filters applied. Filters the library
// cannot decode, such as DCTDecode, produce ErrParse.
func (x XObject) Decoded() ([]byte, error) {
	var out []byte
	err := guard(fmt.Sprintf("decode image %s", x.ID()), func() error {
		rc := x.stream.Reader()
		defer rc.Close()
		var err error
		out, err = io.ReadAll(rc)
		return err
	})
	return out, err
}

// PageImages lists the image XObjects in the resources of page num, sorted by
// resource name.
func PageImages(reader *pdflib.Reader, num int) ([]XObject, error) {
	var out []XObject
	err := guard(fmt.Sprintf("page %d resources", num), func() error {
		page := reader.Page(num)
		if page.V.IsNull() {
			return nil
		}
		xobjects := page.Resources().Key("XObject")
		if xobjects.Kind() != pdflib.Dict {
			return nil
		}
		for _, name := range xobjects.Keys() {
			v := xobjects.Key(name)
			if v.Key("Subtype").Name() != "Image" {
				continue
			}
			out = append(out, XObject{
				Page:   num,
				Name:   name,
				Filter: firstFilter(v.Key("Filter")),
				Width:  int(v.Key("Width").Int64()),
				Height: int(v.Key("Height").Int64()),

				Components: colorComponents(v.Key("ColorSpace")),
				BPC:        int(v.Key("BitsPerComponent").Int64()),
				Length:     v.Key("Length").Int64(),
				stream:     v,
			})
		}
		return nil
	})
	return out, err
}

func firstFilter(f pdflib.Value) string {
	switch f.Kind() {
	case pdflib.Name:
		return f.Name()
	case pdflib.Array:
		if f.Len() > 0 {
			return f.Index(0).Name()
		}
	}
	return ""
}

func colorComponents(cs pdflib.Value) int {
	switch cs.Kind() {
	case pdflib.Name:
		switch cs.Name() {
		case "DeviceGray", "CalGray":
			return 1
		case "DeviceRGB", "CalRGB":
			return 3
		case "DeviceCMYK":
			return 4
		}
	case pdflib.Array:
		if cs.Index(0).Name() == "ICCBased" {
			return int(cs.Index(1).Key("N").Int64())
		}
	}
	return 0
}
