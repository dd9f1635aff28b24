// Package fetcher downloads web pages and extracts their visible text.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

var (
	// ErrEmptyURL is returned when no URL is provided.
	ErrEmptyURL = errors.New("url cannot be empty")

	// ErrBadStatus is returned when the remote server responds with a
	// non-2xx status code.
	ErrBadStatus = errors.New("unexpected response status")

	// ErrNoContent is returned when a page yields no extractable text.
	ErrNoContent = errors.New("no extractable text content")
)

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes = 10 * 1024 * 1024

// Document is one fetched page with its extracted text.
type Document struct {
	URL   string
	Title string
	Text  string
}

// Config holds fetcher configuration.
type Config struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
}

// Fetcher retrieves pages over HTTP and extracts text from the HTML.
type Fetcher struct {
	client       *http.Client
	maxBodyBytes int64
	userAgent    string
}

// New creates a Fetcher from config.
func New(cfg Config) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "answerd/1.0"
	}
	return &Fetcher{
		client:       &http.Client{Timeout: cfg.Timeout},
		maxBodyBytes: cfg.MaxBodyBytes,
		userAgent:    cfg.UserAgent,
	}
}

// Fetch downloads the page at url and returns its extracted text.
// Non-2xx responses and unparseable pages are reported as errors.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]Document, error) {
	if strings.TrimSpace(url) == "" {
		return nil, ErrEmptyURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrBadStatus, url, resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, f.maxBodyBytes)
	title, text, err := extractText(body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoContent, url)
	}

	return []Document{{URL: url, Title: title, Text: text}}, nil
}

// skipElements are HTML elements whose text is never user-visible content.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
}

// blockElements force line breaks around their text so that words from
// adjacent blocks do not run together.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "header": true, "footer": true,
	"blockquote": true, "pre": true, "td": true, "th": true, "ul": true,
	"ol": true, "table": true, "nav": true, "aside": true, "main": true,
}

// extractText walks the HTML tree collecting visible text and the page title.
func extractText(r io.Reader) (title, text string, err error) {
	root, err := html.Parse(r)
	if err != nil {
		return "", "", err
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if skipElements[n.Data] {
				return
			}
			if n.Data == "title" && title == "" {
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			}
			if blockElements[n.Data] {
				sb.WriteByte('\n')
			}
		case html.TextNode:
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			sb.WriteByte('\n')
		}
	}
	walk(root)

	return title, collapseBlankLines(sb.String()), nil
}

// collapseBlankLines trims every line and squeezes runs of blank lines so
// the extracted text stays compact.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
