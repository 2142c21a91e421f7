package images

import (
	"bytes"

	"github.com/dgallion1/pdfnav/internal/doctree"
)

var magics = []struct {
	prefix []byte
	format doctree.ImageFormat
}{
	{[]byte{0xFF, 0xD8, 0xFF}, doctree.FormatJPEG},
	{[]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, doctree.FormatPNG},
	{[]byte{0x00, 0x00, 0x00, 0x0C, 'j', 'P', 0x20, 0x20}, doctree.FormatJPEG2000},
	{[]byte("GIF87a"), doctree.FormatGIF},
	{[]byte("GIF89a"), doctree.FormatGIF},
	{[]byte{'I', 'I', '*', 0x00}, doctree.FormatTIFF},
	{[]byte{'M', 'M', 0x00, '*'}, doctree.FormatTIFF},
	{[]byte("BM"), doctree.FormatBMP},
}

// Sniff identifies an encoded image by its leading bytes. Inputs shorter than
// eight bytes are reported as unknown.
func Sniff(head []byte) doctree.ImageFormat {
	if len(head) < 8 {
		return doctree.FormatUnknown
	}
	if len(head) >= 12 && bytes.Equal(head[:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WEBP")) {
		return doctree.FormatWebP
	}
	for _, m := range magics {
		if bytes.HasPrefix(head, m.prefix) {
			return m.format
		}
	}
	return doctree.FormatUnknown
}

// FilterFormat maps a PDF stream filter to the encoding it implies. Filters
// that only compress raw samples map to unknown.
func FilterFormat(filter string) doctree.ImageFormat {
	switch filter {
	case "DCTDecode", "DCT":
		return doctree.FormatJPEG
	case "JPXDecode":
		return doctree.FormatJPEG2000
	case "CCITTFaxDecode", "CCF":
		return doctree.FormatTIFF
	}
	return doctree.FormatUnknown
}

// DetectFormat prefers the magic bytes and falls back to the filter.
func DetectFormat(filter string, head []byte) doctree.ImageFormat {
	if f := Sniff(head); f != doctree.FormatUnknown {
		return f
	}
	return FilterFormat(filter)
}

// fileTypeFormat maps pdfcpu's file type names.
func fileTypeFormat(fileType string) doctree.ImageFormat {
	switch fileType {
	case "jpg", "jpeg":
		return doctree.FormatJPEG
	case "png":
		return doctree.FormatPNG
	case "jpx", "jp2":
		return doctree.FormatJPEG2000
	case "tif", "tiff":
		return doctree.FormatTIFF
	case "gif":
		return doctree.FormatGIF
	case "webp":
		return doctree.FormatWebP
	}
	return doctree.FormatUnknown
}
