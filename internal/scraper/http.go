package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/feature"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/internalerr"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/store"
)

const defaultUserAgent = "changelog-monitor/1.0"

// ChangelogScraper fetches a product's changelog page over HTTP and
// parses it. HTML pages are flattened to text first; markdown and plain
// text bodies are parsed directly. When Raw is set, the fetched body is
// persisted so a later re-parse never needs the network.
type ChangelogScraper struct {
	Client    *http.Client
	UserAgent string
	Raw       store.Store // optional raw-content sink
}

// NewChangelogScraper builds a scraper with a sensible default client.
func NewChangelogScraper(raw store.Store) *ChangelogScraper {
	return &ChangelogScraper{
		Client: &http.Client{Timeout: 30 * time.Second},
		Raw:    raw,
	}
}

// Scrape downloads and parses one product's changelog. Zero parsed
// features is an error: an empty scrape must never be taken as "the
// product removed everything".
func (s *ChangelogScraper) Scrape(ctx context.Context, product store.ProductMeta) ([]feature.Feature, error) {
	if product.URL == "" {
		return nil, fmt.Errorf("product %s has no changelog URL: %w", product.Name, internalerr.ErrInvalidInput)
	}

	body, contentType, err := s.fetch(ctx, product.URL)
	if err != nil {
		return nil, err
	}

	content := body
	if strings.Contains(contentType, "text/html") || looksLikeHTML(body) {
		content = flattenHTML(body)
	}

	if s.Raw != nil {
		if err := s.Raw.SaveRawChangelog(ctx, product.Name, body); err != nil {
			return nil, fmt.Errorf("save raw changelog for %s: %w", product.Name, err)
		}
	}

	features := ParseChangelog(content)
	if len(features) == 0 {
		return nil, fmt.Errorf("scrape %s: %w", product.Name, internalerr.ErrEmptyScrape)
	}
	return features, nil
}

func (s *ChangelogScraper) fetch(ctx context.Context, url string) (body, contentType string, err error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", err
	}
	ua := s.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	resp, err := client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("GET %s: HTTP %d", url, resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}
	return string(raw), resp.Header.Get("Content-Type"), nil
}

func looksLikeHTML(body string) bool {
	head := strings.ToLower(strings.TrimSpace(body))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

// flattenHTML extracts the visible text of an HTML document, one line
// per block element, so the markdown grammar can run over the result.
// Heading levels are re-marked so version and feature headings survive.
func flattenHTML(body string) string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return body
	}
	var b strings.Builder
	walkHTML(doc, &b)
	return b.String()
}

func walkHTML(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "nav", "header", "footer":
			return
		case "h2":
			b.WriteString("\n## ")
		case "h3":
			b.WriteString("\n### ")
		case "h4":
			b.WriteString("\n#### ")
		case "li":
			b.WriteString("\n- ")
		case "p", "div", "section", "article", "br", "hr":
			b.WriteString("\n")
		}
	}
	if n.Type == html.TextNode {
		text := strings.TrimSpace(n.Data)
		if text != "" {
			b.WriteString(text)
			b.WriteString(" ")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkHTML(c, b)
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "h2", "h3", "h4", "li", "p":
			b.WriteString("\n")
		}
	}
}
