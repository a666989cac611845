package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// Narrative is one text to convert
type Narrative struct {
	Subject string
	Source  string
	Text    string
}

// block elements end a run of text
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "blockquote": true,
}

// Loader reads narratives from files or URLs
type Loader struct {
	fetcher *Fetcher
}

// NewLoader creates a loader; fetcher may be nil to refuse URLs
func NewLoader(fetcher *Fetcher) *Loader {
	return &Loader{fetcher: fetcher}
}

// Load reads a narrative. HTML documents are reduced to their visible text.
func (l *Loader) Load(ctx context.Context, source string) (*Narrative, error) {
	if isURL(source) {
		if l.fetcher == nil {
			return nil, fmt.Errorf("fetch %s: URL narratives are not enabled", source)
		}
		res, err := l.fetcher.Fetch(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", source, err)
		}
		text := res.Body
		if strings.Contains(res.ContentType, "html") || looksLikeHTML(text) {
			if text, err = VisibleText(text); err != nil {
				return nil, err
			}
		}
		return &Narrative{Subject: res.Subject, Source: res.FinalURL, Text: text}, nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("read narrative: %w", err)
	}
	text := string(data)
	switch strings.ToLower(filepath.Ext(source)) {
	case ".html", ".htm":
		if text, err = VisibleText(text); err != nil {
			return nil, err
		}
	}
	return &Narrative{Subject: subjectOf(source), Source: source, Text: text}, nil
}

// VisibleText extracts the rendered text of an HTML document. Block
// elements become line breaks; scripts and styles are skipped.
func VisibleText(doc string) (string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head", "nav", "footer":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			buf.WriteString("\n\n")
		}
	}
	walk(root)

	return strings.Join(paragraphsOf(buf.String()), "\n\n"), nil
}

// paragraphsOf splits text on blank lines and collapses whitespace
func paragraphsOf(text string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if p = strings.Join(strings.Fields(p), " "); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func looksLikeHTML(text string) bool {
	head := strings.ToLower(strings.TrimSpace(text))
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.HasPrefix(head, "<!doctype html") || strings.Contains(head, "<html")
}
