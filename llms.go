package docdex

import (
	"net/url"
	"regexp"
	"strings"
)

// DocLink is a document link extracted from an llms.txt link list.
type DocLink struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// llms.txt is markdown: an H1 project name, a blockquote summary, and
// H2 sections containing link lists. Only the links matter here.
// Matches [title](url) with an optional ": description" suffix.
var linkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)(?:\s*:\s*(.+?))?(?:\n|$)`)

// ParseLinks extracts document links from llms.txt content, resolving
// relative URLs against baseURL.
func ParseLinks(content, baseURL string) []DocLink {
	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	var links []DocLink
	for _, m := range linkRe.FindAllStringSubmatch(content, -1) {
		link := DocLink{
			Title: strings.TrimSpace(m[1]),
			URL:   strings.TrimSpace(m[2]),
		}
		if m[3] != "" {
			link.Description = strings.TrimSpace(m[3])
		}
		if base != nil {
			if ref, err := url.Parse(link.URL); err == nil {
				link.URL = base.ResolveReference(ref).String()
			}
		}
		links = append(links, link)
	}
	return links
}

// IsLLMSTxtURL reports whether a URL points to an llms.txt link list.
func IsLLMSTxtURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(u.Path, "llms.txt")
}

// IsSitemapURL reports whether a URL points to an XML sitemap link list.
func IsSitemapURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(u.Path, "sitemap.xml")
}

// ExtractMarkdownTitle returns the first H1 heading of markdown
// content, or an empty string if there is none.
func ExtractMarkdownTitle(markdown string) string {
	m := markdownTitleRe.FindStringSubmatch(markdown)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

var markdownTitleRe = regexp.MustCompile(`(?m)^#\s+(.+?)$`)
