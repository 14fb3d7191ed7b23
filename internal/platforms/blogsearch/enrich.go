package blogsearch

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"social-pulse/internal/platforms"
)

var digitsRe = regexp.MustCompile(`\d[\d,]*`)

// EnrichPost fetches the post page and fills sympathy count and comment
// detail. A permanently unreachable post keeps its search-result fields and
// zero engagement rather than failing the whole page.
func (c *Client) EnrichPost(ctx context.Context, p *Post, maxComments int) error {
	if p.enriched {
		return nil
	}

	body, err := c.fetchPostPage(ctx, p.Link)
	if err != nil {
		if platforms.IsPermanent(err) {
			p.enriched = true
			return nil
		}
		return err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		p.enriched = true
		return nil
	}

	p.Sympathy = firstCount(doc,
		".u_cnt._count",
		".btn_sympathy .u_cnt",
		"em.u_cnt",
	)
	p.Comments = firstCount(doc,
		".btn_comment .u_cnt",
		"#commentCount",
		".cmt_num",
	)

	doc.Find(".u_cbox_comment, .comment_item, li.CommentItem").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if maxComments > 0 && len(p.CommentList) >= maxComments {
			return false
		}
		text := strings.TrimSpace(s.Find(".u_cbox_contents, .comment_text, .text").First().Text())
		if text == "" {
			return true
		}
		author := strings.TrimSpace(s.Find(".u_cbox_name, .comment_author, .writer").First().Text())
		cmt := Comment{Author: author, Text: text}
		if raw := strings.TrimSpace(s.Find(".u_cbox_date, .comment_date, .date").First().Text()); raw != "" {
			if t, err := ParsePostDate(raw); err == nil {
				cmt.Date = t
			}
		}
		p.CommentList = append(p.CommentList, cmt)
		return true
	})

	if n := len(p.CommentList); n > p.Comments {
		p.Comments = n
	}
	p.enriched = true
	return nil
}

// firstCount returns the first selector that yields a parseable number.
func firstCount(doc *goquery.Document, selectors ...string) int {
	for _, sel := range selectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text == "" {
			continue
		}
		m := digitsRe.FindString(text)
		if m == "" {
			continue
		}
		if v, err := strconv.Atoi(strings.ReplaceAll(m, ",", "")); err == nil {
			return v
		}
	}
	return 0
}
