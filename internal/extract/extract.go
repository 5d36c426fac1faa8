// Package extract converts uploaded vacancy documents into plain text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

// Recognized content types.
const (
	TypePDF  = "application/pdf"
	TypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypeHTML = "text/html"
)

// ErrUnsupportedFormat is returned for content types this package cannot
// extract. It is a reportable condition, not a fault: callers surface an
// "unsupported format" notice and carry on.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Text extracts plain text from data according to its declared content type.
// PDF pages and DOCX paragraphs are concatenated in document order, joined by
// newlines. Parameters on the content type (charset etc.) are ignored.
func Text(data []byte, contentType string) (string, error) {
	mediaType := contentType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}

	switch strings.ToLower(mediaType) {
	case TypePDF:
		return pdfText(data)
	case TypeDOCX:
		return docxText(data)
	case TypeHTML:
		return htmlText(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, contentType)
	}
}

// ContentTypeForPath maps a file extension to a recognized content type, or
// "" when the extension is not recognized.
func ContentTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return TypePDF
	case ".docx":
		return TypeDOCX
	case ".html", ".htm":
		return TypeHTML
	default:
		return ""
	}
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("reading pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extracting pdf page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n"), nil
}

func docxText(data []byte) (string, error) {
	res, err := docconv.Convert(bytes.NewReader(data), TypeDOCX, true)
	if err != nil {
		return "", fmt.Errorf("reading docx: %w", err)
	}
	return res.Body, nil
}

// htmlText strips markup and returns the visible text, one block per line.
func htmlText(data []byte) (string, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}

	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				lines = append(lines, text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return strings.Join(lines, "\n"), nil
}
