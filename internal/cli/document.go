package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/pdfnav/internal/engine"
	"github.com/dgallion1/pdfnav/internal/export"
	"github.com/dgallion1/pdfnav/internal/navigator"
)

var tocCmd = &cobra.Command{
	Use:   "toc [file]",
	Short: "List the sections of a PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  runTOC,
}

var readCmd = &cobra.Command{
	Use:   "read [file]",
	Short: "Print a section, or the whole document",
	Long: `Render a section as Markdown. Without --section the whole document is
rendered. --format html writes a standalone HTML page and --format docx a Word
document; docx output needs --output.`,
	Args: cobra.ExactArgs(1),
	RunE: runRead,
}

var peekCmd = &cobra.Command{
	Use:   "peek [file]",
	Short: "Print a bounded window of a section's text",
	Args:  cobra.ExactArgs(1),
	RunE:  runPeek,
}

var infoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Show document metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var (
	jsonOutput   bool
	sectionID    string
	readFormat   string
	outputPath   string
	peekPosition string
	peekLimit    int
)

func init() {
	tocCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of an outline")

	readCmd.Flags().StringVarP(&sectionID, "section", "s", "", "Section id, e.g. s-1-0 (default whole document)")
	readCmd.Flags().StringVarP(&readFormat, "format", "f", "markdown", "Output format: markdown, html or docx")
	readCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write to this file instead of stdout")

	peekCmd.Flags().StringVarP(&sectionID, "section", "s", "", "Section id, e.g. s-1-0 (default whole document)")
	peekCmd.Flags().StringVarP(&peekPosition, "position", "p", "beginning", "beginning, middle, ending or random")
	peekCmd.Flags().IntVarP(&peekLimit, "limit", "n", 500, "Maximum number of characters")

	infoCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")

	rootCmd.AddCommand(tocCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(peekCmd)
	rootCmd.AddCommand(infoCmd)
}

func runTOC(cmd *cobra.Command, args []string) error {
	data, err := readPDF(args[0])
	if err != nil {
		return err
	}
	tree, err := engine.Parse(data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}
	index := navigator.Index(tree)

	if jsonOutput {
		return writeJSON(cmd, map[string]any{"title": tree.Title, "sections": index})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s\n\n", tree.Title)
	if len(index) == 0 {
		fmt.Fprintln(w, "No sections found")
		return nil
	}
	for _, e := range index {
		indent := strings.Repeat("  ", e.Level-1)
		fmt.Fprintf(w, "%s%-8s %s", indent, e.ID, e.Title)
		if e.Pages.Start > 0 {
			if e.Pages.End > e.Pages.Start {
				fmt.Fprintf(w, "  (pp. %d-%d)", e.Pages.Start, e.Pages.End)
			} else {
				fmt.Fprintf(w, "  (p. %d)", e.Pages.Start)
			}
		}
		if e.ImageCount > 0 {
			fmt.Fprintf(w, "  [%d image(s)]", e.ImageCount)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func runRead(cmd *cobra.Command, args []string) error {
	id, err := sectionFlag(sectionID)
	if err != nil {
		return err
	}
	data, err := readPDF(args[0])
	if err != nil {
		return err
	}
	content, err := engine.ReadSection(data, id)
	if err != nil {
		return err
	}

	var out []byte
	switch strings.ToLower(readFormat) {
	case "markdown", "md":
		out = []byte(content.Text + "\n")
	case "html":
		out, err = export.HTMLPage(content.Text, export.PageOptions{Title: content.Title})
		if err != nil {
			return err
		}
	case "docx":
		if outputPath == "" {
			return fmt.Errorf("docx output requires --output")
		}
		tree, err := engine.Parse(data)
		if err != nil {
			return err
		}
		blocks, err := navigator.Blocks(tree, id)
		if err != nil {
			return err
		}
		out, err = export.DOCX(content.Title, blocks, func(imageID string) ([]byte, error) {
			img, err := engine.GetImage(data, imageID)
			return img.Bytes, err
		})
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q (expected markdown, html or docx)", readFormat)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, out, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", outputPath, err)
		}
		cmd.PrintErrf("Wrote %d bytes to %s\n", len(out), outputPath)
		return nil
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func runPeek(cmd *cobra.Command, args []string) error {
	id, err := sectionFlag(sectionID)
	if err != nil {
		return err
	}
	pos, err := navigator.ParsePeekPosition(peekPosition)
	if err != nil {
		return err
	}
	data, err := readPDF(args[0])
	if err != nil {
		return err
	}
	win, err := engine.PeekSectionWindow(data, id, pos, peekLimit, nil)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), win.Text)
	cmd.PrintErrf("[characters %d-%d of %d]\n", win.Start, win.Start+len([]rune(win.Text)), win.Total)
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	data, err := readPDF(args[0])
	if err != nil {
		return err
	}
	meta, err := engine.Info(data)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd, meta)
	}

	w := cmd.OutOrStdout()
	field := func(label string, v *string) {
		if v != nil {
			fmt.Fprintf(w, "%-9s %s\n", label+":", *v)
		}
	}
	field("Title", meta.Title)
	field("Author", meta.Author)
	field("Subject", meta.Subject)
	field("Keywords", meta.Keywords)
	field("Creator", meta.Creator)
	field("Producer", meta.Producer)
	fmt.Fprintf(w, "%-9s %d\n", "Pages:", meta.PageCount)
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
