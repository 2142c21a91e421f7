package images

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	disableConfigDir sync.Once

	errNotServed = errors.New("image not served by pdfcpu")
)

// extractWithPdfcpu asks pdfcpu for the images of one page and keeps the one
// with the given resource name. pdfcpu passes JPEG and JPEG 2000 streams
// through and re-encodes raw samples as PNG.
func extractWithPdfcpu(data []byte, page int, name string) (out []byte, fileType string, err error) {
	disableConfigDir.Do(api.DisableConfigDir)

	defer func() {
		if r := recover(); r != nil {
			out, fileType, err = nil, "", fmt.Errorf("pdfcpu: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	found := false
	digest := func(img model.Image, _ bool, _ int) error {
		if found || img.Name != name {
			return nil
		}
		b, err := io.ReadAll(img)
		if err != nil {
			return err
		}
		out, fileType, found = b, img.FileType, true
		return nil
	}
	if err := api.ExtractImages(bytes.NewReader(data), []string{strconv.Itoa(page)}, digest, conf); err != nil {
		return nil, "", fmt.Errorf("pdfcpu: %w", err)
	}
	if !found || len(out) == 0 {
		return nil, "", errNotServed
	}
	return out, fileType, nil
}
