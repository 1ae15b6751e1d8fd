package feed

import (
	"bytes"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
)

const (
	// maxSummaryLen 摘要最大字符数，超出部分截断。
	maxSummaryLen = 500
	// minTitleLen 过短的标题多为占位或无效条目，直接跳过。
	minTitleLen = 10
)

// Parser 把原始订阅源字节解析为文章列表。
// 接口化便于测试中替换，不触碰网络代码。
type Parser interface {
	Parse(payload []byte, sourceName string) ([]Article, error)
}

// RSSParser 基于 gofeed 的 RSS/Atom 解析实现。
type RSSParser struct {
	parser *gofeed.Parser
}

// NewRSSParser 创建 RSS/Atom 解析器。
func NewRSSParser() *RSSParser {
	return &RSSParser{parser: gofeed.NewParser()}
}

// Parse 解析订阅源内容。格式错误返回 KindParse 分类的错误。
func (p *RSSParser) Parse(payload []byte, sourceName string) ([]Article, error) {
	f, err := p.parser.Parse(bytes.NewReader(payload))
	if err != nil {
		return nil, NewError(KindParse, err)
	}

	articles := make([]Article, 0, len(f.Items))
	for _, item := range f.Items {
		title := CleanTitle(item.Title)
		if utf8.RuneCountInString(title) < minTitleLen {
			continue
		}
		if item.Link == "" {
			continue
		}

		summary := item.Description
		if summary == "" {
			summary = item.Content
		}
		summary = truncate(stripHTML(summary), maxSummaryLen)

		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}

		articles = append(articles, Article{
			Source:    sourceName,
			Title:     title,
			Link:      item.Link,
			Summary:   summary,
			Published: published,
		})
	}
	return articles, nil
}

var (
	noisyPrefixRe = regexp.MustCompile(`(?i)^(Breaking|Update|News|Exclusive|Just In|Watch|Read)[:\s\-\[\]\|]+`)
	noisySuffixRe = regexp.MustCompile(`(?i)\s*[\-\|]\s*(Read More|Subscribe|Full Article).*$`)
)

// CleanTitle 清理标题：剥离 HTML、去掉常见的噪声前后缀、合并空白。
func CleanTitle(title string) string {
	title = stripHTML(title)
	title = noisyPrefixRe.ReplaceAllString(title, "")
	title = noisySuffixRe.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}

// stripHTML 剥离 HTML 标签并解码实体，只保留纯文本。
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	tok := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch tok.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(tok.Text())
			b.WriteByte(' ')
		}
	}
}

// truncate 截断字符串到指定字符数（按 UTF-8 字符计算）。
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen]) + "..."
}
