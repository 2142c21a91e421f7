// Package pdftest writes small, well-formed PDF files for tests. Offsets in
// the cross-reference table are computed while writing, so the output opens in
// strict readers.
package pdftest

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"sort"
	"strings"
)

// GlyphWidth is the advance of every character in the test font, in 1/1000
// text space units. A 12pt glyph is therefore 6pt wide.
const GlyphWidth = 500

// Text is one run drawn with a single Tj at (X, Y).
type Text struct {
	X, Y float64
	Size float64
	S    string
}

// Image is an image XObject attached to a page's resources.
type Image struct {
	Name   string // Resource name, e.g. "Im0"
	Width  int
	Height int
	Filter string // Stream filter; "FlateDecode" compresses Data while writing
	Data   []byte
}

// Page is one page of the document.
type Page struct {
	Texts  []Text
	Images []Image
}

// Doc describes the document to write.
type Doc struct {
	Info      map[string]string // Info dictionary entries, e.g. "Title"
	Pages     []Page
	Encrypted bool // Adds an /Encrypt entry with an unsupported filter
	// PageCount overrides /Count in the page tree when non-zero.
	PageCount int
}

// Heading returns a Text at the left margin.
func Heading(y, size float64, s string) Text {
	return Text{X: 72, Y: y, Size: size, S: s}
}

// Body returns a 12pt Text at the left margin.
func Body(y float64, s string) Text {
	return Text{X: 72, Y: y, Size: 12, S: s}
}

// Row returns one Text per cell, with columns starting every colWidth points.
func Row(y, colWidth float64, cells ...string) []Text {
	out := make([]Text, 0, len(cells))
	for i, c := range cells {
		out = append(out, Text{X: 72 + float64(i)*colWidth, Y: y, Size: 12, S: c})
	}
	return out
}

type writer struct {
	buf     bytes.Buffer
	offsets []int
}

func (w *writer) object(body string) int {
	w.offsets = append(w.offsets, w.buf.Len())
	n := len(w.offsets)
	fmt.Fprintf(&w.buf, "%d 0 obj\n%s\nendobj\n", n, body)
	return n
}

func (w *writer) stream(dict string, data []byte) int {
	w.offsets = append(w.offsets, w.buf.Len())
	n := len(w.offsets)
	fmt.Fprintf(&w.buf, "%d 0 obj\n<< %s /Length %d >>\nstream\n", n, dict, len(data))
	w.buf.Write(data)
	w.buf.WriteString("\nendstream\nendobj\n")
	return n
}

// reserve allocates an object number whose body is written later by fill.
func (w *writer) reserve() int {
	w.offsets = append(w.offsets, -1)
	return len(w.offsets)
}

func (w *writer) fill(n int, body string) {
	w.offsets[n-1] = w.buf.Len()
	fmt.Fprintf(&w.buf, "%d 0 obj\n%s\nendobj\n", n, body)
}

// Build renders d as PDF bytes.
func Build(d Doc) []byte {
	w := &writer{}
	w.buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	catalog := w.reserve()
	pages := w.reserve()

	widths := make([]string, 0, 95)
	for c := 32; c <= 126; c++ {
		widths = append(widths, fmt.Sprint(GlyphWidth))
	}
	font := w.object(fmt.Sprintf(
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [%s] >>",
		strings.Join(widths, " ")))

	var kids []string
	for _, p := range d.Pages {
		var content strings.Builder
		for _, t := range p.Texts {
			fmt.Fprintf(&content, "BT /F1 %s Tf %s %s Td (%s) Tj ET\n",
				num(t.Size), num(t.X), num(t.Y), escape(t.S))
		}
		for i, img := range p.Images {
			fmt.Fprintf(&content, "q %d 0 0 %d 72 %d cm /%s Do Q\n", img.Width, img.Height, 100+i*10, img.Name)
		}
		contents := w.stream("", []byte(content.String()))

		var xobjects []string
		for _, img := range p.Images {
			ref := w.imageObject(img)
			xobjects = append(xobjects, fmt.Sprintf("/%s %d 0 R", img.Name, ref))
		}
		resources := fmt.Sprintf("<< /Font << /F1 %d 0 R >>", font)
		if len(xobjects) > 0 {
			resources += " /XObject << " + strings.Join(xobjects, " ") + " >>"
		}
		resources += " >>"

		page := w.object(fmt.Sprintf(
			"<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Resources %s /Contents %d 0 R >>",
			pages, resources, contents))
		kids = append(kids, fmt.Sprintf("%d 0 R", page))
	}

	count := len(kids)
	if d.PageCount != 0 {
		count = d.PageCount
	}
	w.fill(pages, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), count))
	w.fill(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pages))

	info := 0
	if len(d.Info) > 0 {
		keys := make([]string, 0, len(d.Info))
		for k := range d.Info {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var entries []string
		for _, k := range keys {
			entries = append(entries, fmt.Sprintf("/%s (%s)", k, escape(d.Info[k])))
		}
		info = w.object("<< " + strings.Join(entries, " ") + " >>")
	}

	encrypt := 0
	if d.Encrypted {
		encrypt = w.object("<< /Filter /Unsupported /V 1 /R 2 >>")
	}

	xref := w.buf.Len()
	fmt.Fprintf(&w.buf, "xref\n0 %d\n0000000000 65535 f \n", len(w.offsets)+1)
	for _, off := range w.offsets {
		fmt.Fprintf(&w.buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&w.buf, "trailer\n<< /Size %d /Root %d 0 R", len(w.offsets)+1, catalog)
	if info > 0 {
		fmt.Fprintf(&w.buf, " /Info %d 0 R", info)
	}
	if encrypt > 0 {
		fmt.Fprintf(&w.buf, " /Encrypt %d 0 R /ID [(0123456789abcdef) (0123456789abcdef)]", encrypt)
	}
	fmt.Fprintf(&w.buf, " >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return w.buf.Bytes()
}

func (w *writer) imageObject(img Image) int {
	data := img.Data
	dict := fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceGray /BitsPerComponent 8",
		img.Width, img.Height)
	switch img.Filter {
	case "":
	case "FlateDecode":
		var z bytes.Buffer
		zw := zlib.NewWriter(&z)
		zw.Write(data)
		zw.Close()
		data = z.Bytes()
		dict += " /Filter /FlateDecode"
	default:
		dict += " /Filter /" + img.Filter
	}
	return w.stream(dict, data)
}

// GrayPixels returns w*h bytes of a simple gradient.
func GrayPixels(w, h int) []byte {
	out := make([]byte, w*h)
	for i := range out {
		out[i] = byte(i * 7)
	}
	return out
}

func num(f float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
