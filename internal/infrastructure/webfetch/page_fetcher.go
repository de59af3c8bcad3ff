package webfetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"TranscriptEnricher/internal/ports"
)

const excerptLimit = 600

// PageFetcher captures the title, description, and a short text excerpt of
// an HTML page. The snapshot grounds URL analyses; it is best effort and
// every failure degrades to reference-only analysis upstream.
type PageFetcher struct {
	client *http.Client
}

var _ ports.PageFetcher = (*PageFetcher)(nil)

// NewPageFetcher wires an HTTP client; a nil client gets a default timeout.
func NewPageFetcher(client *http.Client) *PageFetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &PageFetcher{client: client}
}

// Snapshot fetches the page and reduces it to a few lines of text.
func (f *PageFetcher) Snapshot(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "TranscriptEnricher/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned %s", resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "text/html") {
		return "", fmt.Errorf("unsupported content type %s", ct)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	var lines []string
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		lines = append(lines, "Title: "+title)
	}
	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		if desc = strings.TrimSpace(desc); desc != "" {
			lines = append(lines, "Description: "+desc)
		}
	}
	if excerpt := collectExcerpt(doc); excerpt != "" {
		lines = append(lines, "Excerpt: "+excerpt)
	}

	if len(lines) == 0 {
		return "", fmt.Errorf("page has no extractable text")
	}
	return strings.Join(lines, "\n"), nil
}

func collectExcerpt(doc *goquery.Document) string {
	var b strings.Builder
	doc.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := strings.Join(strings.Fields(p.Text()), " ")
		if text == "" {
			return true
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(text)
		return b.Len() < excerptLimit
	})

	excerpt := b.String()
	if len(excerpt) > excerptLimit {
		excerpt = excerpt[:excerptLimit] + "…"
	}
	return excerpt
}
