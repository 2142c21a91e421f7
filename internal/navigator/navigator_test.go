package navigator

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/dgallion1/pdfnav/internal/doctree"
	"github.com/dgallion1/pdfnav/internal/parser"
)

// sampleTree has a preamble, two chapters and one nested section.
func sampleTree() *doctree.Tree {
	blocks := []doctree.ContentBlock{
		doctree.Paragraph("Cover note.").OnPage(1),
		doctree.SubHeading(1, "Chapter One").OnPage(1),
		doctree.Paragraph("Opening words.").OnPage(1),
		doctree.Image("p1-Im0", nil).OnPage(1),
		doctree.SubHeading(2, "Details").OnPage(2),
		doctree.Paragraph("Fine print.").OnPage(2),
		doctree.Image("p2-Im0", nil).OnPage(2),
		doctree.Image("p1-Im0", nil).OnPage(2),
		doctree.SubHeading(1, "Chapter Two").OnPage(3),
		doctree.Paragraph("Closing words.").OnPage(3),
	}
	return parser.BuildTree(blocks, doctree.Metadata{PageCount: 3})
}

func mustID(t *testing.T, s string) *doctree.SectionID {
	t.Helper()
	id, err := doctree.ParseSectionID(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return &id
}

func TestRead_SectionOwnContentWithSubheadings(t *testing.T) {
	got, err := Read(sampleTree(), mustID(t, "s-1-0"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Opening words.\n\n![](image:p1-Im0)\n\n## Details"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if strings.Contains(got, "Fine print.") {
		t.Error("descendant content must not be included")
	}
}

func TestRead_WholeDocument(t *testing.T) {
	got, err := Read(sampleTree(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	order := []string{"Cover note.", "# Chapter One", "Opening words.", "## Details", "Fine print.", "# Chapter Two", "Closing words."}
	last := -1
	for _, s := range order {
		i := strings.Index(got, s)
		if i < 0 {
			t.Fatalf("expected %q in output:\n%s", s, got)
		}
		if i <= last {
			t.Errorf("expected %q after previous marker", s)
		}
		last = i
	}
}

func TestRead_SectionNotFound(t *testing.T) {
	_, err := Read(sampleTree(), mustID(t, "s-4-9"))
	if !errors.Is(err, doctree.ErrSectionNotFound) {
		t.Fatalf("expected ErrSectionNotFound, got %v", err)
	}
}

func TestImageIDs(t *testing.T) {
	tree := sampleTree()
	tests := []struct {
		name string
		id   *doctree.SectionID
		want []string
	}{
		{"document", nil, []string{"p1-Im0", "p2-Im0"}},
		{"chapter includes descendants", mustID(t, "s-1-0"), []string{"p1-Im0", "p2-Im0"}},
		{"leaf", mustID(t, "s-2-0"), []string{"p2-Im0", "p1-Im0"}},
		{"no images", mustID(t, "s-1-1"), []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ImageIDs(tree, tt.id)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	if _, err := ImageIDs(tree, mustID(t, "s-3-0")); !errors.Is(err, doctree.ErrSectionNotFound) {
		t.Errorf("expected ErrSectionNotFound, got %v", err)
	}
}

func TestIndex(t *testing.T) {
	entries := Index(sampleTree())
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	d := entries[1]
	if d.ID.String() != "s-2-0" || d.Title != "Details" {
		t.Errorf("unexpected entry %+v", d)
	}
	if !reflect.DeepEqual(d.Path, []string{"Chapter One", "Details"}) {
		t.Errorf("unexpected path %v", d.Path)
	}
	if d.Pages != (doctree.PageRange{Start: 2, End: 2}) || d.ImageCount != 2 {
		t.Errorf("unexpected pages/images %+v %d", d.Pages, d.ImageCount)
	}
	if entries[0].ImageCount != 3 {
		t.Errorf("expected chapter to count nested images, got %d", entries[0].ImageCount)
	}
	for _, e := range entries {
		if e.Tokens <= 0 {
			t.Errorf("%s: expected positive token estimate", e.ID)
		}
	}
}
