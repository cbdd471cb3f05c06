package source

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// HTMLOptions configures how an HTML snapshot is sanitized and queried.
type HTMLOptions struct {
	// RemoveSelectors are removed before any text is read (navigation bars,
	// sort controls, cookie banners).
	RemoveSelectors []string

	// MinBlockLength is the text length from which a nested match counts as
	// a review block when telling list wrappers apart from single reviews.
	MinBlockLength int
}

// HTMLSnapshot is a TextSource over a parsed, sanitized HTML document.
type HTMLSnapshot struct {
	doc      *goquery.Document
	opts     HTMLOptions
	fullText string
	stats    *Stats
}

// blockTags start a new line when rendering text.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hr": true, "li": true, "main": true, "ol": true, "p": true,
	"section": true, "table": true, "td": true, "th": true, "tr": true,
	"ul": true, "cite": true,
}

// strippedTags never contain visible review text.
var strippedTags = []string{"script", "style", "noscript", "svg", "iframe", "template", "head"}

var inlineSpaceRe = regexp.MustCompile(`\s+`)

// FromHTML parses and sanitizes an HTML document.
func FromHTML(r io.Reader, opts HTMLOptions) (*HTMLSnapshot, error) {
	counter := &countingReader{r: r}
	doc, err := goquery.NewDocumentFromReader(counter)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	s := &HTMLSnapshot{
		doc:   doc,
		opts:  opts,
		stats: NewStats(),
	}
	s.stats.InputBytes = counter.n

	s.sanitize()
	s.fullText = renderText(doc.Selection)
	s.stats.TextBytes = len(s.fullText)
	return s, nil
}

// FromHTMLString is FromHTML over a string.
func FromHTMLString(content string, opts HTMLOptions) (*HTMLSnapshot, error) {
	return FromHTML(strings.NewReader(content), opts)
}

// Stats returns what sanitization removed.
func (s *HTMLSnapshot) Stats() *Stats {
	return s.stats
}

// FullText returns the sanitized page text, one line per block.
func (s *HTMLSnapshot) FullText() string {
	return s.fullText
}

// FindContainers returns the review blocks matching the selectors. A match
// that wraps two or more substantial matches is a list and is skipped in
// favour of its items; a match inside an already returned block is skipped.
func (s *HTMLSnapshot) FindContainers(selectors []string) []Container {
	joined := joinSelectors(selectors)
	if joined == "" {
		return nil
	}

	selected := make(map[*html.Node]bool)
	var out []Container

	s.doc.Find(joined).Each(func(_ int, m *goquery.Selection) {
		if hasMarkedAncestor(m.Nodes[0], selected) {
			return
		}
		if s.isList(m, joined) {
			return
		}
		selected[m.Nodes[0]] = true
		out = append(out, &htmlContainer{sel: m})
	})

	return out
}

// isList counts the outermost substantial matches nested in m.
func (s *HTMLSnapshot) isList(m *goquery.Selection, joined string) bool {
	minLen := s.opts.MinBlockLength
	if minLen <= 0 {
		minLen = 30
	}

	long := make(map[*html.Node]bool)
	m.Find(joined).Each(func(_ int, d *goquery.Selection) {
		if len(strings.TrimSpace(d.Text())) >= minLen {
			long[d.Nodes[0]] = true
		}
	})

	outermost := 0
	root := m.Nodes[0]
	for n := range long {
		nested := false
		for p := n.Parent; p != nil && p != root; p = p.Parent {
			if long[p] {
				nested = true
				break
			}
		}
		if !nested {
			outermost++
		}
		if outermost >= 2 {
			return true
		}
	}
	return false
}

// sanitize removes invisible and non-content elements, in the same order as
// the HTML cleaner: selectors first, then tags, then hidden elements.
func (s *HTMLSnapshot) sanitize() {
	for _, sel := range s.opts.RemoveSelectors {
		s.remove(s.doc.Find(sel))
	}
	for _, tag := range strippedTags {
		s.remove(s.doc.Find(tag))
	}

	s.remove(s.doc.Find("[hidden]"))
	s.remove(s.doc.Find("[aria-hidden='true']"))
	s.remove(s.doc.Find("[style]").FilterFunction(func(_ int, el *goquery.Selection) bool {
		style, _ := el.Attr("style")
		style = strings.ReplaceAll(strings.ToLower(style), " ", "")
		return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
	}))
}

func (s *HTMLSnapshot) remove(sel *goquery.Selection) {
	sel.Each(func(_ int, el *goquery.Selection) {
		s.stats.RecordRemoval(goquery.NodeName(el))
		el.Remove()
	})
}

type htmlContainer struct {
	sel *goquery.Selection
}

func (c *htmlContainer) Text() string {
	return renderText(c.sel)
}

func (c *htmlContainer) Find(selectors []string) []Container {
	joined := joinSelectors(selectors)
	if joined == "" {
		return nil
	}
	var out []Container
	c.sel.Find(joined).Each(func(_ int, el *goquery.Selection) {
		out = append(out, &htmlContainer{sel: el})
	})
	return out
}

func (c *htmlContainer) Without(selectors []string, drop func(Container) bool) Container {
	clone := c.sel.Clone()
	joined := joinSelectors(selectors)
	if joined == "" {
		return &htmlContainer{sel: clone}
	}
	clone.Find(joined).FilterFunction(func(_ int, el *goquery.Selection) bool {
		return drop == nil || drop(&htmlContainer{sel: el})
	}).Remove()
	return &htmlContainer{sel: clone}
}

// renderText flattens a selection into text with a line break around every
// block element and <br>.
func renderText(sel *goquery.Selection) string {
	var sb strings.Builder
	for _, n := range sel.Nodes {
		writeNode(&sb, n)
	}
	return strings.Join(Lines(sb.String()), "\n")
}

func writeNode(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(inlineSpaceRe.ReplaceAllString(n.Data, " "))
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if n.Data == "br" {
			sb.WriteByte('\n')
			return
		}
	}

	block := n.Type == html.ElementNode && blockTags[n.Data]
	if block {
		sb.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNode(sb, c)
	}
	if block {
		sb.WriteByte('\n')
	}
}

func hasMarkedAncestor(n *html.Node, marked map[*html.Node]bool) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if marked[p] {
			return true
		}
	}
	return false
}

func joinSelectors(selectors []string) string {
	parts := make([]string, 0, len(selectors))
	for _, s := range selectors {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}
