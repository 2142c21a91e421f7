package cli

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/pdfnav/internal/pdftest"
)

func writeSample(t *testing.T) string {
	t.Helper()
	data := pdftest.Build(pdftest.Doc{
		Info: map[string]string{"Title": "Field Guide", "Author": "Survey Team"},
		Pages: []pdftest.Page{
			{
				Texts: []pdftest.Text{
					pdftest.Heading(720, 22, "Birds"),
					pdftest.Body(690, "Birds are warm-blooded vertebrates with feathers and beaks."),
					pdftest.Heading(650, 16, "Owls"),
					pdftest.Body(620, "Owls hunt mostly at night and have excellent hearing."),
				},
				Images: []pdftest.Image{{Name: "Im0", Width: 4, Height: 4, Data: pdftest.GrayPixels(4, 4)}},
			},
			{
				Texts: []pdftest.Text{
					pdftest.Heading(720, 22, "Insects"),
					pdftest.Body(690, "Insects have six legs and three body segments."),
				},
			},
		},
	})
	path := filepath.Join(t.TempDir(), "guide.pdf")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// resetFlags restores every flag to its default so package-level commands
// can run repeatedly in one process.
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"toc", "read", "peek", "images", "image", "info", "mcp", "serve", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestVersionCmd(t *testing.T) {
	original := version
	version = "test-1.0.0"
	defer func() { version = original }()

	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pdfnav version test-1.0.0")
}

func TestTOCCmd(t *testing.T) {
	path := writeSample(t)

	out, _, err := run(t, "toc", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Field Guide")
	assert.Contains(t, out, "s-1-0    Birds  (p. 1)  [1 image(s)]")
	assert.Contains(t, out, "  s-2-0    Owls")
	assert.Contains(t, out, "s-1-1    Insects  (p. 2)")

	out, _, err = run(t, "toc", "--json", path)
	require.NoError(t, err)
	var parsed struct {
		Title    string `json:"title"`
		Sections []struct {
			ID string `json:"id"`
		} `json:"sections"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	require.Len(t, parsed.Sections, 3)
	assert.Equal(t, "s-2-0", parsed.Sections[1].ID)
}

func TestTOCCmd_RequiresFile(t *testing.T) {
	_, _, err := run(t, "toc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestReadCmd(t *testing.T) {
	path := writeSample(t)

	out, _, err := run(t, "read", "--section", "s-1-1", path)
	require.NoError(t, err)
	assert.Equal(t, "Insects have six legs and three body segments.\n", out)

	out, _, err = run(t, "read", "-f", "html", path)
	require.NoError(t, err)
	assert.Contains(t, out, "<title>Field Guide</title>")

	docx := filepath.Join(t.TempDir(), "out.docx")
	_, stderr, err := run(t, "read", "-f", "docx", "-o", docx, path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Wrote")
	body, err := os.ReadFile(docx)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("PK")))

	_, _, err = run(t, "read", "-f", "docx", path)
	assert.ErrorContains(t, err, "requires --output")

	_, _, err = run(t, "read", "--section", "s-7-0", path)
	assert.ErrorContains(t, err, "section not found")
}

func TestPeekCmd(t *testing.T) {
	path := writeSample(t)

	out, stderr, err := run(t, "peek", "-s", "s-1-1", "-p", "ending", "-n", "7", path)
	require.NoError(t, err)
	assert.Equal(t, "gments.\n", out)
	assert.Contains(t, stderr, "[characters 39-46 of 46]")

	_, _, err = run(t, "peek", "-p", "sideways", path)
	assert.ErrorContains(t, err, "invalid peek position")
}

func TestImagesCmd(t *testing.T) {
	path := writeSample(t)

	out, _, err := run(t, "images", path)
	require.NoError(t, err)
	assert.Contains(t, out, "p1-Im0")
	assert.Contains(t, out, "4x4")
	assert.Contains(t, out, "Total: 1 images")

	out, _, err = run(t, "images", "-s", "s-1-1", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No images found")
}

func TestImageCmd(t *testing.T) {
	path := writeSample(t)

	out, _, err := run(t, "image", path, "p1-Im0")
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace([]byte(out))))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	assert.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "owl.png")
	_, _, err = run(t, "image", "--random", "-o", dest, path)
	require.NoError(t, err)
	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, raw, written)

	_, stderr, err := run(t, "image", "-o", filepath.Join(t.TempDir(), "bare.png"), path, "Im0")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Wrote p1-Im0")

	_, _, err = run(t, "image", path)
	assert.ErrorContains(t, err, "--random")

	_, _, err = run(t, "image", path, "p4-Im2")
	assert.ErrorContains(t, err, "image not found")
}

func TestInfoCmd(t *testing.T) {
	path := writeSample(t)

	out, _, err := run(t, "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Title:    Field Guide")
	assert.Contains(t, out, "Author:   Survey Team")
	assert.Contains(t, out, "Pages:    2")
	assert.NotContains(t, out, "Subject:")

	_, _, err = run(t, "info", filepath.Join(t.TempDir(), "missing.pdf"))
	assert.ErrorContains(t, err, "reading")
}

func TestSectionFlag(t *testing.T) {
	id, err := sectionFlag("")
	require.NoError(t, err)
	assert.Nil(t, id)

	id, err = sectionFlag("s-2-3")
	require.NoError(t, err)
	assert.Equal(t, "s-2-3", id.String())

	_, err = sectionFlag("2-3")
	assert.Error(t, err)
}
