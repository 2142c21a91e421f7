package export

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/pdfnav/internal/doctree"
	"github.com/dgallion1/pdfnav/internal/render"
)

func sampleBlocks() []doctree.ContentBlock {
	return []doctree.ContentBlock{
		doctree.Paragraph("Quarterly ﬁgures are below."),
		doctree.SubHeading(2, "Revenue"),
		doctree.Table([]string{"Region", "Total"}, [][]string{{"North", "12"}, {"South"}}),
		doctree.Image("p1-Im0", nil),
	}
}

func TestHTML_TablesAndImages(t *testing.T) {
	out, err := HTML(render.RenderSectionContent(sampleBlocks()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"<p>Quarterly figures are below.</p>", "<h2>Revenue</h2>", "<table>", "<th>Region</th>", "<td>North</td>", `src="image:p1-Im0"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestHTMLPage(t *testing.T) {
	md := render.RenderSectionContent(sampleBlocks())
	page, err := HTMLPage(md, PageOptions{
		Title:    "Report & Summary",
		ImageURL: func(id string) string { return "/images/" + id + ".png" },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(page)
	if !strings.HasPrefix(out, "<!DOCTYPE html>") {
		t.Errorf("expected doctype, got %q", out[:min(40, len(out))])
	}
	for _, want := range []string{
		`<meta charset="utf-8"/>`,
		"<title>Report &amp; Summary</title>",
		"<article>",
		`src="/images/p1-Im0.png"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in page:\n%s", want, out)
		}
	}
	if strings.Contains(out, "image:p1-Im0") {
		t.Error("expected image reference to be rewritten")
	}
}

func TestDOCX_RoundTrip(t *testing.T) {
	out, err := DOCX("Annual Report", sampleBlocks(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc, err := docx.Parse(bytes.NewReader(out), int64(len(out)))
	if err != nil {
		t.Fatalf("parse docx: %v", err)
	}

	var paras []string
	var tables []*docx.Table
	for _, item := range doc.Document.Body.Items {
		switch v := item.(type) {
		case *docx.Paragraph:
			paras = append(paras, v.String())
		case *docx.Table:
			tables = append(tables, v)
		}
	}
	joined := strings.Join(paras, "\n")
	for _, want := range []string{"Annual Report", "Quarterly figures are below.", "Revenue", "[image p1-Im0]"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected paragraph %q, got %q", want, paras)
		}
	}
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}
	if rows := len(tables[0].TableRows); rows != 3 {
		t.Errorf("expected header plus 2 rows, got %d", rows)
	}
	if cells := len(tables[0].TableRows[2].TableCells); cells != 2 {
		t.Errorf("expected short row to be padded to 2 cells, got %d", cells)
	}
}

func TestDOCX_EmbedsImages(t *testing.T) {
	var pic bytes.Buffer
	if err := png.Encode(&pic, image.NewGray(image.Rect(0, 0, 8, 4))); err != nil {
		t.Fatal(err)
	}
	calls := 0
	out, err := DOCX("", []doctree.ContentBlock{doctree.Image("p1-Im0", nil)}, func(id string) ([]byte, error) {
		calls++
		if id != "p1-Im0" {
			t.Errorf("unexpected id %q", id)
		}
		return pic.Bytes(), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected one image lookup, got %d", calls)
	}
	if !bytes.Contains(out, []byte("word/media/")) {
		t.Error("expected embedded media part in the package")
	}
}
