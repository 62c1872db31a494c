// ABOUTME: Best-effort article extraction for reading-list entries
// ABOUTME: Fetches the page, reads its metadata, and runs readability on sanitized HTML

package extract

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"
	"github.com/harper/readlist/internal/content"
	"github.com/harper/readlist/internal/fetch"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// Result is the partial entry an extraction produced. Empty fields mean
// the page did not provide them.
type Result struct {
	Title       string
	Excerpt     string
	Content     string // Markdown
	ImageURL    string
	SiteName    string
	Author      string
	PublishDate string
}

// Empty reports whether the extraction produced nothing.
func (r Result) Empty() bool {
	return r == Result{}
}

// Extractor turns a URL into a partial entry. Failures yield an empty Result.
type Extractor interface {
	Extract(ctx context.Context, rawURL string) Result
}

// ReadabilityExtractor implements Extractor with go-readability.
type ReadabilityExtractor struct {
	fetcher   *fetch.Fetcher
	sanitizer *bluemonday.Policy
	logger    *zap.Logger
}

// New creates an extractor. A nil fetcher uses the default timeout.
func New(fetcher *fetch.Fetcher, logger *zap.Logger) *ReadabilityExtractor {
	if fetcher == nil {
		fetcher = fetch.New(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Scripts and styles confuse readability scoring.
	p := bluemonday.UGCPolicy()
	p.AllowElements("article", "section", "header", "footer", "nav", "aside", "main", "figure", "figcaption")
	p.AllowAttrs("id", "class", "lang", "dir").Globally()

	return &ReadabilityExtractor{fetcher: fetcher, sanitizer: p, logger: logger}
}

// Extract fetches rawURL and returns what could be extracted.
func (e *ReadabilityExtractor) Extract(ctx context.Context, rawURL string) Result {
	result, err := e.ExtractE(ctx, rawURL)
	if err != nil {
		e.logger.Warn("content extraction failed", zap.String("url", rawURL), zap.Error(err))
		return Result{}
	}
	return result
}

// ExtractE is Extract with the failure reported instead of swallowed.
func (e *ReadabilityExtractor) ExtractE(ctx context.Context, rawURL string) (Result, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return Result{}, fmt.Errorf("parse URL: %w", err)
	}

	page, err := e.fetcher.Fetch(ctx, rawURL, nil, nil)
	if err != nil {
		return Result{}, fmt.Errorf("fetch page: %w", err)
	}
	if ct := strings.ToLower(page.ContentType); ct != "" && !strings.Contains(ct, "html") {
		return Result{}, fmt.Errorf("unsupported content type %q", page.ContentType)
	}
	if page.FinalURL != "" {
		if final, err := url.Parse(page.FinalURL); err == nil {
			pageURL = final
		}
	}

	meta := parseMeta(page.Body, pageURL)

	sanitized := e.sanitizer.Sanitize(string(page.Body))
	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(sanitized), pageURL)
	if err != nil {
		return Result{}, fmt.Errorf("parse content: %w", err)
	}

	var buf bytes.Buffer
	if err := article.RenderHTML(&buf); err != nil {
		return Result{}, fmt.Errorf("render content: %w", err)
	}

	r := Result{
		Title:       meta.title,
		Content:     content.ToMarkdown(buf.String()),
		ImageURL:    meta.image,
		SiteName:    meta.siteName,
		Author:      meta.author,
		PublishDate: meta.published,
		Excerpt:     meta.description,
	}
	if r.Excerpt == "" && r.Content != "" {
		r.Excerpt = content.Excerpt(content.PlainText(r.Content), content.DefaultExcerptLength)
	}
	if r.SiteName == "" {
		r.SiteName = strings.TrimPrefix(strings.ToLower(pageURL.Hostname()), "www.")
	}
	return r, nil
}

var _ Extractor = (*ReadabilityExtractor)(nil)
