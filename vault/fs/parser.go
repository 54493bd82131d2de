package fs

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

var (
	inlineTagPattern = regexp.MustCompile(`#([A-Za-z0-9][A-Za-z0-9_/-]*)`)
	wikilinkPattern  = regexp.MustCompile(`\[\[([^\]|#]+)(?:#[^\]|]*)?(?:\|([^\]]+))?\]\]`)
)

var markdown = goldmark.New()

// splitFrontmatter separates a leading YAML frontmatter block from the body.
// The closing fence must be "---" alone on its line. Returns (nil, raw) when
// no frontmatter is present; a malformed block is treated as absent rather
// than failing the note.
func splitFrontmatter(raw string) (map[string]any, string) {
	if !strings.HasPrefix(raw, "---\n") && !strings.HasPrefix(raw, "---\r\n") {
		return nil, raw
	}
	rest := raw[strings.Index(raw, "\n")+1:]
	lines := strings.Split(rest, "\n")
	end := -1
	for i, line := range lines {
		if strings.TrimRight(line, "\r") == "---" {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, raw
	}
	block := strings.Join(lines[:end], "\n")
	body := strings.Join(lines[end+1:], "\n")

	frontmatter := map[string]any{}
	if err := yaml.Unmarshal([]byte(block), &frontmatter); err != nil {
		return nil, raw
	}
	return frontmatter, body
}

// extractInlineTags collects #tags from the markdown body. Only text nodes
// are visited, so fenced code and link destinations never contribute tags.
func extractInlineTags(body string) []string {
	source := []byte(body)
	doc := markdown.Parser().Parse(text.NewReader(source))

	seen := map[string]bool{}
	var tags []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		textNode, ok := n.(*ast.Text)
		if !ok {
			return ast.WalkContinue, nil
		}
		segment := textNode.Segment.Value(source)
		for _, match := range inlineTagPattern.FindAllSubmatch(segment, -1) {
			tag := strings.ToLower(string(match[1]))
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
		return ast.WalkContinue, nil
	})
	return tags
}

type rawLink struct {
	target  string
	display string
}

// extractLinks collects [[wikilinks]] and local markdown links from the body.
// External URL destinations are ignored, and wikilinks inside code blocks or
// code spans do not count.
func extractLinks(body string) []rawLink {
	source := []byte(body)
	doc := markdown.Parser().Parse(text.NewReader(source))

	var links []rawLink
	for _, match := range wikilinkPattern.FindAllSubmatch(maskCodeRegions(source, doc), -1) {
		link := rawLink{target: strings.TrimSpace(string(match[1]))}
		if len(match) > 2 {
			link.display = strings.TrimSpace(string(match[2]))
		}
		if link.target != "" {
			links = append(links, link)
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		linkNode, ok := n.(*ast.Link)
		if !ok {
			return ast.WalkContinue, nil
		}
		destination := string(linkNode.Destination)
		if destination == "" || strings.Contains(destination, "://") {
			return ast.WalkContinue, nil
		}
		links = append(links, rawLink{
			target:  destination,
			display: string(linkNode.Text(source)),
		})
		return ast.WalkContinue, nil
	})
	return links
}

// maskCodeRegions blanks the bytes covered by fenced and indented code blocks
// and by inline code spans, so a pattern scan over the result never matches
// code content.
func maskCodeRegions(source []byte, doc ast.Node) []byte {
	masked := make([]byte, len(source))
	copy(masked, source)
	blank := func(segment text.Segment) {
		for i := segment.Start; i < segment.Stop && i < len(masked); i++ {
			if masked[i] != '\n' {
				masked[i] = ' '
			}
		}
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindFencedCodeBlock, ast.KindCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				blank(lines.At(i))
			}
			return ast.WalkSkipChildren, nil
		case ast.KindCodeSpan:
			for child := n.FirstChild(); child != nil; child = child.NextSibling() {
				if textNode, ok := child.(*ast.Text); ok {
					blank(textNode.Segment)
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return masked
}

// stringList normalizes a frontmatter value that may be a scalar or a list
// into a slice of strings. Non-string entries are stringified; nil entries
// are dropped.
func stringList(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		var out []string
		for _, entry := range v {
			out = append(out, stringList(entry)...)
		}
		return out
	default:
		return []string{fmt.Sprintf("%v", v)}
	}
}
