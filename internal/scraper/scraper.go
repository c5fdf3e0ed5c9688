// Package scraper finds and downloads subtitle tracks from episode pages.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const maxSubtitleBytes = 4 << 20

// Scraper fetches an episode's web page and pulls the subtitle track out
// of it.
type Scraper struct {
	client *http.Client
}

// New creates a scraper with a sensible request timeout.
func New() *Scraper {
	return &Scraper{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// FindSubtitleURL fetches pageURL and returns the first subtitle track it
// finds: a <track kind="subtitles"> source, or failing that any link or
// source pointing at a .srt or .vtt file. The returned URL is resolved
// against the page URL.
func (s *Scraper) FindSubtitleURL(ctx context.Context, pageURL string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid page URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	track := findTrack(doc)
	if track == "" {
		return "", fmt.Errorf("no subtitle track found on page")
	}
	resolved, err := base.Parse(track)
	if err != nil {
		return "", fmt.Errorf("invalid subtitle URL %q: %w", track, err)
	}
	return resolved.String(), nil
}

// Download fetches the subtitle file at subtitleURL.
func (s *Scraper) Download(ctx context.Context, subtitleURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, subtitleURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download subtitle: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("subtitle URL returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSubtitleBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read subtitle body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("subtitle file is empty")
	}
	return data, nil
}

// findTrack walks the document, preferring <track> subtitle sources over
// bare links to subtitle files.
func findTrack(doc *html.Node) string {
	var trackSrc, linkHref string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "track":
				kind, src := attr(n, "kind"), attr(n, "src")
				if src != "" && (kind == "" || kind == "subtitles" || kind == "captions") {
					if trackSrc == "" {
						trackSrc = src
					}
				}
			case "a", "source":
				href := attr(n, "href")
				if href == "" {
					href = attr(n, "src")
				}
				if linkHref == "" && isSubtitlePath(href) {
					linkHref = href
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if trackSrc != "" {
		return trackSrc
	}
	return linkHref
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isSubtitlePath(href string) bool {
	if href == "" {
		return false
	}
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	p := strings.ToLower(u.Path)
	return strings.HasSuffix(p, ".srt") || strings.HasSuffix(p, ".vtt")
}
