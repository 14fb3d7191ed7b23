package blogsearch

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// postDateLayouts covers the formats different blog hosts emit: the search
// API's compact form, the dotted on-page form, and full timestamps.
var postDateLayouts = []string{
	"20060102",
	"2006.01.02",
	"2006.01.02.",
	"2006-01-02",
	time.RFC3339,
}

// relativeDaysRe matches "N days ago" style dates some hosts render instead
// of an absolute date.
var relativeDaysRe = regexp.MustCompile(`^(\d+)\s*(?:일 전|days? ago)$`)

// ParsePostDate parses a blog post date in any known layout.
func ParsePostDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range postDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if m := relativeDaysRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return time.Now().UTC().AddDate(0, 0, -n).Truncate(24 * time.Hour), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized post date %q", s)
}

// stripTags flattens an HTML fragment to its text content. Search results
// embed <b> highlighting around matched keywords.
func stripTags(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimSpace(sb.String())
}
