// ABOUTME: Reads OpenGraph and standard meta tags from raw page HTML
// ABOUTME: Runs before sanitizing, which strips the document head

package extract

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type pageMeta struct {
	title       string
	description string
	image       string
	siteName    string
	author      string
	published   string
}

// parseMeta collects page metadata. OpenGraph values win over plain ones.
func parseMeta(body []byte, base *url.URL) pageMeta {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return pageMeta{}
	}

	values := make(map[string]string)
	var docTitle string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Title:
				if docTitle == "" && n.FirstChild != nil {
					docTitle = strings.TrimSpace(n.FirstChild.Data)
				}
			case atom.Meta:
				key := strings.ToLower(attr(n, "property"))
				if key == "" {
					key = strings.ToLower(attr(n, "name"))
				}
				if v := strings.TrimSpace(attr(n, "content")); key != "" && v != "" {
					if _, seen := values[key]; !seen {
						values[key] = v
					}
				}
			case atom.Body:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	m := pageMeta{
		title:       first(values["og:title"], values["twitter:title"], docTitle),
		description: first(values["og:description"], values["description"], values["twitter:description"]),
		siteName:    values["og:site_name"],
		author:      first(values["author"], values["article:author"]),
		published:   first(values["article:published_time"], values["date"]),
	}
	if img := first(values["og:image"], values["twitter:image"]); img != "" {
		m.image = resolve(base, img)
	}
	return m
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func resolve(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil || base == nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
