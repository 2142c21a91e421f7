// Package export converts rendered section content to HTML and DOCX.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTML converts Markdown produced by the renderer to an HTML fragment. Pipe
// tables become <table> elements.
func HTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

// PageOptions configures HTMLPage.
type PageOptions struct {
	Title string
	// ImageURL rewrites image:{id} references. Nil leaves them unchanged.
	ImageURL func(id string) string
}

// HTMLPage wraps the converted Markdown in a standalone HTML document.
func HTMLPage(md string, opts PageOptions) ([]byte, error) {
	fragment, err := HTML(md)
	if err != nil {
		return nil, err
	}

	body := element(atom.Body)
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil, fmt.Errorf("parse html fragment: %w", err)
	}

	article := element(atom.Article)
	for _, n := range nodes {
		if opts.ImageURL != nil {
			rewriteImages(n, opts.ImageURL)
		}
		article.AppendChild(n)
	}
	body.AppendChild(article)

	head := element(atom.Head)
	meta := element(atom.Meta)
	meta.Attr = []html.Attribute{{Key: "charset", Val: "utf-8"}}
	head.AppendChild(meta)
	if opts.Title != "" {
		title := element(atom.Title)
		title.AppendChild(&html.Node{Type: html.TextNode, Data: opts.Title})
		head.AppendChild(title)
	}

	root := element(atom.Html)
	root.AppendChild(head)
	root.AppendChild(body)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(root)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func rewriteImages(n *html.Node, url func(string) string) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Img {
		for i, a := range n.Attr {
			if a.Key != "src" {
				continue
			}
			if id, ok := strings.CutPrefix(a.Val, "image:"); ok {
				n.Attr[i].Val = url(id)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteImages(c, url)
	}
}
