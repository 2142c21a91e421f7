package doctree

// BlockKind tags the ContentBlock variant.
type BlockKind int

const (
	KindParagraph BlockKind = iota
	KindSubHeading
	KindTable
	KindImage
)

func (k BlockKind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindSubHeading:
		return "subheading"
	case KindTable:
		return "table"
	case KindImage:
		return "image"
	}
	return "unknown"
}

// ContentBlock is one unit of section content. Only the fields of the variant
// named by Kind are meaningful; use the constructors below.
type ContentBlock struct {
	Kind BlockKind

	Text string // Paragraph

	Level int    // SubHeading
	Title string // SubHeading

	Headers []string   // Table
	Rows    [][]string // Table

	ImageID string  // Image
	AltText *string // Image, nil when the source has none

	Page int // Source page, 0 if unknown
}

func Paragraph(text string) ContentBlock {
	return ContentBlock{Kind: KindParagraph, Text: text}
}

func SubHeading(level int, title string) ContentBlock {
	return ContentBlock{Kind: KindSubHeading, Level: ClampLevel(level), Title: title}
}

func Table(headers []string, rows [][]string) ContentBlock {
	return ContentBlock{Kind: KindTable, Headers: headers, Rows: rows}
}

func Image(id string, alt *string) ContentBlock {
	return ContentBlock{Kind: KindImage, ImageID: id, AltText: alt}
}

// OnPage returns a copy of b tagged with its source page.
func (b ContentBlock) OnPage(page int) ContentBlock {
	b.Page = page
	return b
}

// ImageFormat names the encoding of an embedded image.
type ImageFormat string

const (
	FormatJPEG     ImageFormat = "jpeg"
	FormatPNG      ImageFormat = "png"
	FormatJPEG2000 ImageFormat = "jpeg2000"
	FormatGIF      ImageFormat = "gif"
	FormatTIFF     ImageFormat = "tiff"
	FormatBMP      ImageFormat = "bmp"
	FormatWebP     ImageFormat = "webp"
	FormatUnknown  ImageFormat = "unknown"
)

// MIMEType returns the media type for f, or application/octet-stream.
func (f ImageFormat) MIMEType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case FormatJPEG2000:
		return "image/jp2"
	case FormatGIF:
		return "image/gif"
	case FormatTIFF:
		return "image/tiff"
	case FormatBMP:
		return "image/bmp"
	case FormatWebP:
		return "image/webp"
	}
	return "application/octet-stream"
}

// ImageRef describes an embedded image without its bytes.
type ImageRef struct {
	ID     string      `json:"id"`
	Format ImageFormat `json:"format"`
	Width  int         `json:"width,omitempty"`
	Height int         `json:"height,omitempty"`
	Page   int         `json:"page"`
	Length int64       `json:"length,omitempty"` // Encoded stream size hint in bytes
}

// ImageData is the raw asset. Width and Height are read from the encoded
// bytes and are zero when the format does not expose them cheaply.
type ImageData struct {
	Bytes  []byte
	Format ImageFormat
	Width  int
	Height int
}
