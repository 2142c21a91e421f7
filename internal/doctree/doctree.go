package doctree

// Tree is the root of a parsed document. Sections live in a flat arena in
// document order; parent and child links are arena indices.
type Tree struct {
	Title    string         `json:"title"`
	Metadata Metadata       `json:"metadata"`
	Blocks   []ContentBlock `json:"-"` // Content before the first heading
	Sections []Section      `json:"sections"`
	Roots    []int          `json:"roots"` // Top-level section indices
}

// Section is one addressable node of the document outline.
type Section struct {
	ID         SectionID      `json:"id"`
	Level      int            `json:"level"`
	Title      string         `json:"title"`
	Parent     int            `json:"parent"` // -1 for top-level sections
	Children   []int          `json:"children,omitempty"`
	Blocks     []ContentBlock `json:"-"`
	Pages      PageRange      `json:"pages"`
	ImageCount int            `json:"image_count"`
	Preview    string         `json:"preview,omitempty"`
}

// PageRange is an inclusive 1-based page span. Zero values mean unknown.
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Extend widens r to include page p.
func (r PageRange) Extend(p int) PageRange {
	if p <= 0 {
		return r
	}
	if r.Start == 0 || p < r.Start {
		r.Start = p
	}
	if p > r.End {
		r.End = p
	}
	return r
}

// Merge widens r to include o.
func (r PageRange) Merge(o PageRange) PageRange {
	return r.Extend(o.Start).Extend(o.End)
}

// Metadata holds document-level descriptive fields. Absent fields are nil.
type Metadata struct {
	Title     *string `json:"title,omitempty"`
	Author    *string `json:"author,omitempty"`
	Subject   *string `json:"subject,omitempty"`
	Keywords  *string `json:"keywords,omitempty"`
	Creator   *string `json:"creator,omitempty"`
	Producer  *string `json:"producer,omitempty"`
	PageCount int     `json:"page_count"`
}

// IndexEntry is one row of the flattened table of contents.
type IndexEntry struct {
	ID         SectionID `json:"id"`
	Level      int       `json:"level"`
	Title      string    `json:"title"`
	Path       []string  `json:"path"` // Heading hierarchy, e.g. ["Results", "Revenue"]
	Pages      PageRange `json:"pages"`
	ImageCount int       `json:"image_count"`
	Tokens     int       `json:"tokens"`
}

// Lookup returns the arena index of the section with the given id.
func (t *Tree) Lookup(id SectionID) (int, bool) {
	for i := range t.Sections {
		if t.Sections[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// Descendants returns the arena indices below section i in document order.
func (t *Tree) Descendants(i int) []int {
	var out []int
	var walk func(int)
	walk = func(n int) {
		for _, c := range t.Sections[n].Children {
			out = append(out, c)
			walk(c)
		}
	}
	walk(i)
	return out
}

// Breadcrumb returns the titles from the top-level ancestor down to section i.
func (t *Tree) Breadcrumb(i int) []string {
	var path []string
	for n := i; n >= 0; n = t.Sections[n].Parent {
		path = append(path, t.Sections[n].Title)
	}
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}
