package docdex

import (
	"net/url"
	"path"
	"strings"
)

// Source is a named documentation entry point whose link list is
// periodically re-crawled. The name, once assigned, stays stable across
// refreshes so filtering search results by source remains meaningful.
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Validate returns an error if the source contains invalid fields.
func (s *Source) Validate() error {
	if s.Name == "" {
		return Errorf(EINVALID, "source name required")
	}
	if s.URL == "" {
		return Errorf(EINVALID, "source URL required")
	}
	return nil
}

// ParseSource parses a source string in the form "name:url" or a bare
// URL. For a bare URL the name is derived from the host with dots and
// hyphens replaced by underscores, e.g. "https://gofastmcp.com/llms.txt"
// becomes "gofastmcp_com".
func ParseSource(s string) Source {
	s = strings.TrimSpace(s)

	if i := strings.Index(s, "://"); i >= 0 {
		prefix := s[:i]
		if j := strings.LastIndex(prefix, ":"); j >= 0 {
			return Source{Name: prefix[:j], URL: s[j+1:]}
		}
		name := "unknown"
		if u, err := url.Parse(s); err == nil && u.Host != "" {
			name = sanitizeName(u.Host)
		}
		return Source{Name: name, URL: s}
	}

	// No protocol: treat as a local path or opaque URL and name it
	// after the final path element.
	base := path.Base(s)
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return Source{Name: sanitizeName(base), URL: s}
}

func sanitizeName(s string) string {
	s = strings.ReplaceAll(s, ".", "_")
	return strings.ReplaceAll(s, "-", "_")
}
