// ABOUTME: Finds the RSS/Atom feed behind a page URL for the feed reading list
// ABOUTME: Tries the URL as a feed, then <link rel="alternate"> headers, then common feed paths

package readinglist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/harper/readlist/internal/fetch"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
)

var commonFeedPaths = []string{
	"/feed.xml",
	"/feed",
	"/rss.xml",
	"/rss",
	"/atom.xml",
	"/atom",
	"/index.xml",
	"/feed/rss",
	"/feed/atom",
	"/feeds/posts/default",
}

// Errors returned by DiscoverFeed.
var (
	ErrNoFeedFound = errors.New("no RSS/Atom feed found at URL")
	ErrInvalidURL  = errors.New("invalid URL")
)

// DiscoveredFeed is a feed found by DiscoverFeed.
type DiscoveredFeed struct {
	URL   string
	Title string
}

// DiscoverFeed resolves pageURL to a feed usable by FeedSource. A URL that
// already parses as a feed is returned unchanged.
func DiscoverFeed(ctx context.Context, fetcher *fetch.Fetcher, pageURL string) (*DiscoveredFeed, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("%w: missing scheme or host", ErrInvalidURL)
	}
	if fetcher == nil {
		fetcher = fetch.New(0)
	}

	feed, body, err := tryFeed(ctx, fetcher, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	if feed != nil {
		return feed, nil
	}

	for _, candidate := range feedLinks(body, parsedURL) {
		verified, _, err := tryFeed(ctx, fetcher, candidate.URL)
		if err != nil || verified == nil {
			continue
		}
		if verified.Title == "" {
			verified.Title = candidate.Title
		}
		return verified, nil
	}

	probeBase := &url.URL{Scheme: parsedURL.Scheme, Host: parsedURL.Host}
	for _, path := range commonFeedPaths {
		feed, _, err := tryFeed(ctx, fetcher, probeBase.String()+path)
		if err == nil && feed != nil {
			return feed, nil
		}
	}

	return nil, ErrNoFeedFound
}

// tryFeed fetches feedURL and parses it as a feed. A body that is not a
// feed yields a nil feed and the body, for link extraction.
func tryFeed(ctx context.Context, fetcher *fetch.Fetcher, feedURL string) (*DiscoveredFeed, []byte, error) {
	result, err := fetcher.Fetch(ctx, feedURL, nil, nil)
	if err != nil {
		return nil, nil, err
	}

	parsed, parseErr := gofeed.NewParser().Parse(bytes.NewReader(result.Body))
	if parseErr != nil {
		return nil, result.Body, nil //nolint:nilerr // not a feed
	}
	return &DiscoveredFeed{URL: feedURL, Title: parsed.Title}, result.Body, nil
}

// feedLinks returns the <link rel="alternate"> feed URLs in an HTML page.
func feedLinks(body []byte, base *url.URL) []DiscoveredFeed {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var feeds []DiscoveredFeed
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "link" {
			var rel, linkType, href, title string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "rel":
					rel = attr.Val
				case "type":
					linkType = attr.Val
				case "href":
					href = attr.Val
				case "title":
					title = attr.Val
				}
			}
			if rel == "alternate" && isFeedContentType(linkType) && href != "" {
				if ref, err := url.Parse(href); err == nil {
					feeds = append(feeds, DiscoveredFeed{URL: base.ResolveReference(ref).String(), Title: title})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return feeds
}

func isFeedContentType(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.Contains(contentType, "rss") ||
		strings.Contains(contentType, "atom") ||
		strings.Contains(contentType, "xml")
}
