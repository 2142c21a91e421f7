package render

import (
	"strings"
	"testing"
)

func TestCleanupText_Ligatures(t *testing.T) {
	cases := map[string]string{
		"\ufb01nd":       "find",
		"o\ufb00er":      "offer",
		"\ufb02ow":       "flow",
		"o\ufb03ce":      "office",
		"ba\ufb04e":      "baffle",
		"plain ascii ok": "plain ascii ok",
	}
	for in, want := range cases {
		if got := CleanupText(in); got != want {
			t.Errorf("CleanupText(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestCleanupText_HyphenRepair(t *testing.T) {
	got := CleanupText("infor-\nmation")
	if !strings.Contains(got, "information") {
		t.Errorf("expected %q to contain %q", got, "information")
	}
	if strings.Contains(got, "infor-\nmation") {
		t.Errorf("expected hyphen break to be repaired, got %q", got)
	}

	if got := CleanupText("data-  \n   driven"); got != "datadriven" {
		t.Errorf("expected spaces around the break to be absorbed, got %q", got)
	}

	// Uppercase continuation, non-letter boundaries and paragraph breaks are
	// left alone.
	for _, in := range []string{"Foo-\nBar", "2020-\n2021", "well -\nknown", "end-\n\nnext"} {
		if got := CleanupText(in); got != in {
			t.Errorf("CleanupText(%q): expected unchanged, got %q", in, got)
		}
	}
}

func TestCleanupText_Whitespace(t *testing.T) {
	if got := CleanupText("a   b      c  d"); got != "a  b  c  d" {
		t.Errorf("expected runs collapsed to two spaces, got %q", got)
	}
	if got := CleanupText("  \n padded \n  "); got != "padded" {
		t.Errorf("expected trimmed text, got %q", got)
	}
}

func TestCleanupText_BulletsAndReplacementChar(t *testing.T) {
	got := CleanupText("\u25cf one\n\u25cb two\n\u25a0 three\ufffd")
	want := "\u2022 one\n\u2022 two\n\u2022 three"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestCleanupText_NFC(t *testing.T) {
	decomposed := "Cafe\u0301"
	if got := CleanupText(decomposed); got != "Caf\u00e9" {
		t.Errorf("expected composed form, got %q", got)
	}
}

func TestCleanupText_CJKLineMerge(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"han wrap", "日本語の\n文章です", "日本語の文章です"},
		{"hangul wrap", "한국어\n문장", "한국어문장"},
		{"consecutive wraps", "中\n文\n字\n符", "中文字符"},
		{"sentence end kept", "終わり。\n次の文", "終わり。\n次の文"},
		{"paragraph kept", "第一段\n\n第二段", "第一段\n\n第二段"},
		{"latin untouched", "hello\nworld", "hello\nworld"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := CleanupText(c.in); got != c.want {
				t.Errorf("expected %q, got %q", c.want, got)
			}
		})
	}
}

func TestCleanupText_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"\ufb01nd the o\ufb03ce",
		"infor-\nmation and multi-\n  line",
		"a  \ufffd  b",
		"x-\n\ufffdy",
		"e\ufffd\u0301",
		"中\n文\n字",
		"\u25cf item   one\n\n\n\u25a0 item two",
		"  mixed 日本\n語 text-\nwrap   here  ",
	}
	for _, in := range inputs {
		once := CleanupText(in)
		twice := CleanupText(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
