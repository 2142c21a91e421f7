package cli

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/pdfnav/internal/doctree"
	"github.com/dgallion1/pdfnav/internal/engine"
)

var imagesCmd = &cobra.Command{
	Use:   "images [file]",
	Short: "List the images in a section or the whole document",
	Args:  cobra.ExactArgs(1),
	RunE:  runImages,
}

var imageCmd = &cobra.Command{
	Use:   "image [file] [image-id]",
	Short: "Extract one image",
	Long: `Extract an image by id (see "pdfnav images"), or a random one with --random.
With --output the raw bytes are written to a file; otherwise the image is
printed as base64.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runImage,
}

var (
	imagesSection string
	imageSection  string
	imageRandom   bool
	imageOutput   string
)

func init() {
	imagesCmd.Flags().StringVarP(&imagesSection, "section", "s", "", "Section id (default whole document)")
	imagesCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")

	imageCmd.Flags().BoolVarP(&imageRandom, "random", "r", false, "Pick a random image")
	imageCmd.Flags().StringVarP(&imageSection, "section", "s", "", "Limit --random to this section")
	imageCmd.Flags().StringVarP(&imageOutput, "output", "o", "", "Write raw bytes to this file")

	rootCmd.AddCommand(imagesCmd)
	rootCmd.AddCommand(imageCmd)
}

func runImages(cmd *cobra.Command, args []string) error {
	id, err := sectionFlag(imagesSection)
	if err != nil {
		return err
	}
	data, err := readPDF(args[0])
	if err != nil {
		return err
	}
	refs, err := engine.ListSectionImages(data, id)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd, refs)
	}

	w := cmd.OutOrStdout()
	if len(refs) == 0 {
		fmt.Fprintln(w, "No images found")
		return nil
	}
	for _, r := range refs {
		fmt.Fprintf(w, "%-12s page %-4d %-8s", r.ID, r.Page, r.Format)
		if r.Width > 0 && r.Height > 0 {
			fmt.Fprintf(w, " %dx%d", r.Width, r.Height)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "\nTotal: %d images\n", len(refs))
	return nil
}

func runImage(cmd *cobra.Command, args []string) error {
	if len(args) < 2 && !imageRandom {
		return fmt.Errorf("an image id or --random is required")
	}
	id, err := sectionFlag(imageSection)
	if err != nil {
		return err
	}
	data, err := readPDF(args[0])
	if err != nil {
		return err
	}

	var ref doctree.ImageRef
	var img doctree.ImageData
	if len(args) == 2 {
		ref, img, err = engine.ResolveImage(data, args[1])
	} else {
		ref, img, err = engine.PickImage(data, id, nil)
	}
	if err != nil {
		return err
	}

	if imageOutput != "" {
		if err := os.WriteFile(imageOutput, img.Bytes, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", imageOutput, err)
		}
		cmd.PrintErrf("Wrote %s (%s, %d bytes) to %s\n", ref.ID, img.Format, len(img.Bytes), imageOutput)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(img.Bytes))
	return nil
}
