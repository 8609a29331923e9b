package reference

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

const (
	defaultWeblioBaseURL = "https://www.weblio.jp"
	defaultUserAgent     = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	articleClass         = "kiji"
)

// ErrNoArticle is returned when the page carries no dictionary article.
var ErrNoArticle = errors.New("no dictionary article found")

// StatusError reports a non-200 response from the dictionary site.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dictionary page returned status %d", e.StatusCode)
}

// WeblioFetcher extracts the first dictionary article from a Weblio entry page.
type WeblioFetcher struct {
	BaseURL   string
	Client    *http.Client
	UserAgent string
}

// FetchReferenceText downloads the entry page for term and returns the text of
// the first element carrying the article class, with each text node trimmed
// and joined without separators.
func (f *WeblioFetcher) FetchReferenceText(ctx context.Context, term string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	endpoint := f.baseURL() + "/content/" + url.PathEscape(term)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent())
	req.Header.Set("Accept", "text/html")

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("detect encoding: %w", err)
	}

	doc, err := html.Parse(body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	article := findByClass(doc, articleClass)
	if article == nil {
		return "", ErrNoArticle
	}
	return nodeText(article), nil
}

func (f *WeblioFetcher) baseURL() string {
	if f != nil && strings.TrimSpace(f.BaseURL) != "" {
		return strings.TrimRight(strings.TrimSpace(f.BaseURL), "/")
	}
	return defaultWeblioBaseURL
}

func (f *WeblioFetcher) userAgent() string {
	if f != nil && strings.TrimSpace(f.UserAgent) != "" {
		return f.UserAgent
	}
	return defaultUserAgent
}

// findByClass returns the first element in document order whose class list
// contains class.
func findByClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode && hasClass(n, class) {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findByClass(child, class); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Namespace != "" || attr.Key != "class" {
			continue
		}
		for _, field := range strings.Fields(attr.Val) {
			if field == class {
				return true
			}
		}
	}
	return false
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			b.WriteString(strings.TrimSpace(node.Data))
			return
		case html.ElementNode:
			if node.DataAtom == atom.Script || node.DataAtom == atom.Style {
				return
			}
		case html.CommentNode:
			return
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}
