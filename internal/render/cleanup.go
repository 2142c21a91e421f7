package render

import (
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

const paraSentinel = "\x00CJKPARA\x00"

// maxCleanupRounds bounds the fixpoint loop in CleanupText. In practice the
// second round is already a no-op.
const maxCleanupRounds = 8

var ligatures = strings.NewReplacer(
	"\ufb00", "ff",
	"\ufb01", "fi",
	"\ufb02", "fl",
	"\ufb03", "ffi",
	"\ufb04", "ffl",
)

var bullets = strings.NewReplacer(
	"\u25cf", "\u2022",
	"\u25cb", "\u2022",
	"\u25a0", "\u2022",
)

var (
	hyphenBreak = sync.OnceValue(func() *regexp.Regexp {
		return regexp.MustCompile(`([a-zA-Z])-[ \t]*\n[ \t]*([a-z])`)
	})
	spaceRun = sync.OnceValue(func() *regexp.Regexp {
		return regexp.MustCompile(`[ ]{3,}`)
	})
	paraBreak = sync.OnceValue(func() *regexp.Regexp {
		return regexp.MustCompile(`\n{2,}`)
	})
	cjkBreak = sync.OnceValue(func() *regexp.Regexp {
		const cjk = `[\p{Hangul}\p{Han}\p{Hiragana}\p{Katakana}]`
		return regexp.MustCompile(`(` + cjk + `)([^.。!?！？\n]?)\n(` + cjk + `)`)
	})
)

// CleanupText normalizes extracted PDF text. The passes run in a fixed order
// and the sequence repeats until the text is stable, so the result is
// idempotent.
func CleanupText(text string) string {
	out := cleanupOnce(text)
	for i := 1; i < maxCleanupRounds; i++ {
		next := cleanupOnce(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}

func cleanupOnce(text string) string {
	text = norm.NFC.String(text)
	text = ligatures.Replace(text)
	text = hyphenBreak().ReplaceAllString(text, "$1$2")
	text = spaceRun().ReplaceAllString(text, "  ")
	text = bullets.Replace(text)
	text = strings.ReplaceAll(text, "\ufffd", "")
	text = mergeCJKLines(text)
	return strings.TrimSpace(text)
}

// mergeCJKLines drops single line breaks between CJK characters that do not
// end a sentence. Paragraph breaks survive.
func mergeCJKLines(text string) string {
	if !strings.Contains(text, "\n") {
		return text
	}
	text = paraBreak().ReplaceAllString(text, paraSentinel)
	re := cjkBreak()
	for {
		next := re.ReplaceAllString(text, "$1$2$3")
		if next == text {
			break
		}
		text = next
	}
	return strings.ReplaceAll(text, paraSentinel, "\n\n")
}
