package documents

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

// Format is a supported document type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
	FormatText Format = "text"
)

// FormatFromPath maps a file extension to a Format.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FormatPDF, true
	case ".html", ".htm":
		return FormatHTML, true
	case ".txt", ".md", ".text":
		return FormatText, true
	default:
		return "", false
	}
}

// formatFromContentType maps an HTTP Content-Type to a Format, defaulting to text.
func formatFromContentType(contentType string) Format {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return FormatText
	}
	switch mediaType {
	case "application/pdf":
		return FormatPDF
	case "text/html", "application/xhtml+xml":
		return FormatHTML
	default:
		return FormatText
	}
}

// Extract returns the plain text of data in the given format.
func Extract(format Format, data []byte) (string, error) {
	switch format {
	case FormatPDF:
		return extractPDF(data)
	case FormatHTML:
		return extractHTML(data)
	case FormatText:
		return normalizeWhitespace(string(data)), nil
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
}

func extractPDF(data []byte) (text string, err error) {
	// The PDF reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	rs, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err = io.Copy(&buf, rs); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return normalizeWhitespace(buf.String()), nil
}

// blockElements start a new line of extracted text.
var blockElements = map[string]struct{}{
	"address": {}, "article": {}, "aside": {}, "blockquote": {}, "br": {},
	"dd": {}, "div": {}, "dl": {}, "dt": {}, "figcaption": {}, "figure": {},
	"form": {}, "h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {},
	"h6": {}, "header": {}, "hr": {}, "li": {}, "main": {}, "ol": {}, "p": {},
	"pre": {}, "section": {}, "table": {}, "td": {}, "th": {}, "tr": {}, "ul": {},
}

func extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, iframe, nav, footer, template").Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	var w blockWriter
	for _, node := range root.Nodes {
		w.walk(node)
	}
	w.flush()

	return strings.Join(w.lines, "\n"), nil
}

// blockWriter collects the text of an HTML tree, one line per block element.
type blockWriter struct {
	lines   []string
	current strings.Builder
}

func (w *blockWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.current.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	}

	_, block := blockElements[n.Data]
	block = block && n.Type == html.ElementNode
	if block {
		w.flush()
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		w.walk(child)
	}
	if block {
		w.flush()
	}
}

func (w *blockWriter) flush() {
	if text := normalizeWhitespace(w.current.String()); text != "" {
		w.lines = append(w.lines, text)
	}
	w.current.Reset()
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
