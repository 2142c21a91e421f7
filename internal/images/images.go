// Package images lists and extracts the raster images embedded in a PDF.
//
// Image ids have the form p{page}-{name}, where name is the XObject resource
// name on that page. A bare resource name is also accepted and resolves to
// the first page that carries it.
package images

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"

	"github.com/fumiama/imgsz"
	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/pdfnav/internal/doctree"
	"github.com/dgallion1/pdfnav/internal/parser"
)

// ParseImageID splits an id into its page and resource name. page is 0 for
// a bare name.
func ParseImageID(id string) (page int, name string, err error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0, "", fmt.Errorf("%w: empty id", doctree.ErrImageNotFound)
	}
	if rest, ok := strings.CutPrefix(id, "p"); ok {
		if num, name, ok := strings.Cut(rest, "-"); ok && name != "" {
			if n, err := strconv.Atoi(num); err == nil && n > 0 && isDigits(num) {
				return n, name, nil
			}
		}
	}
	return 0, id, nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}

// List returns one ref per image XObject per page, in page order.
func List(data []byte) ([]doctree.ImageRef, error) {
	reader, err := parser.Open(data)
	if err != nil {
		return nil, err
	}
	refs := []doctree.ImageRef{}
	for p := 1; p <= reader.NumPage(); p++ {
		xobjects, err := parser.PageImages(reader, p)
		if err != nil {
			return nil, err
		}
		for _, x := range xobjects {
			refs = append(refs, refFor(x))
		}
	}
	return refs, nil
}

func refFor(x parser.XObject) doctree.ImageRef {
	return doctree.ImageRef{
		ID:     x.ID(),
		Format: listedFormat(x),
		Width:  x.Width,
		Height: x.Height,
		Page:   x.Page,
		Length: x.Length,
	}
}

// listedFormat is the format Extract will return for x. Raw sample streams
// are served as PNG.
func listedFormat(x parser.XObject) doctree.ImageFormat {
	if f := FilterFormat(x.Filter); f != doctree.FormatUnknown {
		return f
	}
	if x.Filter == "JBIG2Decode" {
		return doctree.FormatUnknown
	}
	if raw, err := x.Decoded(); err == nil {
		if f := Sniff(raw); f != doctree.FormatUnknown {
			return f
		}
	}
	return doctree.FormatPNG
}

// Resolve finds the XObject named by id. Unknown pages, unknown names and
// non-image XObjects are ErrImageNotFound.
func Resolve(reader *pdflib.Reader, id string) (parser.XObject, error) {
	page, name, err := ParseImageID(id)
	if err != nil {
		return parser.XObject{}, err
	}
	pages := []int{page}
	if page == 0 {
		pages = pages[:0]
		for p := 1; p <= reader.NumPage(); p++ {
			pages = append(pages, p)
		}
	} else if page > reader.NumPage() {
		return parser.XObject{}, fmt.Errorf("%w: %s", doctree.ErrImageNotFound, id)
	}

	for _, p := range pages {
		xobjects, err := parser.PageImages(reader, p)
		if err != nil {
			return parser.XObject{}, err
		}
		for _, x := range xobjects {
			if x.Name == name {
				return x, nil
			}
		}
	}
	return parser.XObject{}, fmt.Errorf("%w: %s", doctree.ErrImageNotFound, id)
}

// Lookup returns the ref for id without extracting bytes.
func Lookup(data []byte, id string) (doctree.ImageRef, error) {
	reader, err := parser.Open(data)
	if err != nil {
		return doctree.ImageRef{}, err
	}
	x, err := Resolve(reader, id)
	if err != nil {
		return doctree.ImageRef{}, err
	}
	return refFor(x), nil
}

// maxImageSide bounds /Width and /Height for images whose samples are
// decoded rather than passed through.
const maxImageSide = 1 << 16

// passthrough reports whether the stream is already an encoded image file.
func passthrough(filter string) bool {
	return filter == "DCTDecode" || filter == "JPXDecode"
}

func validDimensions(x parser.XObject) bool {
	return x.Width > 0 && x.Height > 0 && x.Width <= maxImageSide && x.Height <= maxImageSide
}

// Extract returns the bytes of the image named by id. pdfcpu serves the
// image when it can; otherwise the stream is decoded directly and raw
// samples are wrapped as PNG.
func Extract(data []byte, id string) (doctree.ImageData, error) {
	reader, err := parser.Open(data)
	if err != nil {
		return doctree.ImageData{}, err
	}
	x, err := Resolve(reader, id)
	if err != nil {
		return doctree.ImageData{}, err
	}
	if !passthrough(x.Filter) && !validDimensions(x) {
		return doctree.ImageData{}, fmt.Errorf("%w: image %s has dimensions %dx%d", doctree.ErrParse, x.ID(), x.Width, x.Height)
	}

	out, fileType, err := extractWithPdfcpu(data, x.Page, x.Name)
	if err != nil {
		out, err = decodeStream(x)
		fileType = ""
		if err != nil {
			return doctree.ImageData{}, fmt.Errorf("extract image %s: %w", id, err)
		}
	}

	img := doctree.ImageData{Bytes: out, Format: DetectFormat(x.Filter, out)}
	if img.Format == doctree.FormatUnknown {
		img.Format = fileTypeFormat(fileType)
	}
	if size, _, err := imgsz.DecodeSize(bytes.NewReader(out)); err == nil {
		img.Width, img.Height = size.Width, size.Height
	}
	return img, nil
}

// decodeStream applies the stream filters and, for 8-bit gray or RGB
// samples, encodes the result as PNG. Anything else is returned decoded.
func decodeStream(x parser.XObject) ([]byte, error) {
	raw, err := x.Decoded()
	if err != nil {
		return nil, err
	}
	if Sniff(raw) != doctree.FormatUnknown || x.BPC != 8 || !validDimensions(x) {
		return raw, nil
	}

	var img image.Image
	switch x.Components {
	case 1:
		if len(raw) < x.Width*x.Height {
			return raw, nil
		}
		g := image.NewGray(image.Rect(0, 0, x.Width, x.Height))
		copy(g.Pix, raw)
		img = g
	case 3:
		if len(raw) < 3*x.Width*x.Height {
			return raw, nil
		}
		rgba := image.NewNRGBA(image.Rect(0, 0, x.Width, x.Height))
		for i := 0; i < x.Width*x.Height; i++ {
			rgba.Set(i%x.Width, i/x.Width, color.NRGBA{R: raw[3*i], G: raw[3*i+1], B: raw[3*i+2], A: 0xFF})
		}
		img = rgba
	default:
		return raw, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
