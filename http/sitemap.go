package http

import (
	"context"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// maxSitemapDepth bounds recursion through nested sitemap indexes.
const maxSitemapDepth = 3

// ParseSitemap extracts locations from sitemap XML. index reports
// whether the document is a <sitemapindex>, in which case the returned
// locations are nested sitemaps rather than pages.
func ParseSitemap(xml string) (urls []string, index bool, err error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		return nil, false, fmt.Errorf("parsing sitemap XML: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, false, fmt.Errorf("empty sitemap XML")
	}

	tag := "url"
	if root.Tag == "sitemapindex" {
		tag = "sitemap"
		index = true
	}

	for _, el := range root.SelectElements(tag) {
		loc := el.SelectElement("loc")
		if loc == nil {
			continue
		}
		u := strings.TrimSpace(loc.Text())
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls, index, nil
}

// sitemapURLs resolves sitemap XML to page URLs, following nested
// sitemap indexes up to maxSitemapDepth levels.
func (f *Fetcher) sitemapURLs(ctx context.Context, xml string, depth int) ([]string, error) {
	urls, index, err := ParseSitemap(xml)
	if err != nil {
		return nil, err
	}
	if !index {
		return urls, nil
	}
	if depth >= maxSitemapDepth {
		return nil, fmt.Errorf("sitemap index nesting exceeds %d levels", maxSitemapDepth)
	}

	var pages []string
	for _, nested := range urls {
		body, err := f.get(ctx, nested)
		if err != nil {
			return nil, fmt.Errorf("fetching nested sitemap %s: %w", nested, err)
		}
		nestedPages, err := f.sitemapURLs(ctx, body, depth+1)
		if err != nil {
			return nil, err
		}
		pages = append(pages, nestedPages...)
	}
	return pages, nil
}
