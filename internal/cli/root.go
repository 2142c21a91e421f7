// Package cli implements the pdfnav command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/pdfnav/internal/config"
	"github.com/dgallion1/pdfnav/internal/doctree"
)

// version is set at build time with -ldflags "-X".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "pdfnav",
	Short: "Navigate PDF documents by section",
	Long: `pdfnav reads a PDF, builds a section tree from its headings and lets you
list, read, peek into and pull images out of individual sections.

Section ids look like s-2-0 (level 2, first heading of that level). Run
"pdfnav toc file.pdf" to list them.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("pdfnav version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig reads configuration the same way the servers do.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// readPDF loads the file named on the command line.
func readPDF(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// sectionFlag parses the --section flag value. Empty means the whole document.
func sectionFlag(v string) (*doctree.SectionID, error) {
	if v == "" {
		return nil, nil
	}
	id, err := doctree.ParseSectionID(v)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// stderrLogger logs JSON to the command's error stream, keeping stdout free
// for output and for the stdio transport.
func stderrLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, nil))
}
