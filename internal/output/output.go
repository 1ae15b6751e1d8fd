// Package output 把收集结果渲染成 console、markdown 或 json 格式。
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iabetor/ainews/internal/feed"
	"github.com/iabetor/ainews/internal/logger"
)

// Format 输出格式。
type Format string

const (
	FormatConsole  Format = "console"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat 校验格式名称，未知值报错。
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatConsole, FormatJSON, FormatMarkdown:
		return Format(s), nil
	case "":
		return FormatConsole, nil
	default:
		return "", fmt.Errorf("不支持的输出格式: %q（可选 console/json/markdown）", s)
	}
}

// jsonArticle JSON 输出中的单篇文章。
type jsonArticle struct {
	Source       string  `json:"source"`
	Title        string  `json:"title"`
	Link         string  `json:"link"`
	Summary      string  `json:"summary,omitempty"`
	LocalSummary string  `json:"local_summary,omitempty"`
	Score        float64 `json:"score"`
	Published    string  `json:"published,omitempty"`
}

// jsonDocument JSON 输出的顶层结构。
type jsonDocument struct {
	Date  string        `json:"date"`
	Count int           `json:"count"`
	News  []jsonArticle `json:"news"`
}

// Render 按指定格式渲染文章列表。
func Render(articles []feed.Article, format Format, now time.Time) (string, error) {
	today := now.Format("2006年01月02日")

	if len(articles) == 0 && format != FormatJSON {
		return fmt.Sprintf("%s - 没有获取到新的 AI 新闻。", today), nil
	}

	switch format {
	case FormatJSON:
		return renderJSON(articles, today)
	case FormatMarkdown:
		return renderMarkdown(articles, today), nil
	default:
		return renderConsole(articles, today), nil
	}
}

func renderJSON(articles []feed.Article, today string) (string, error) {
	doc := jsonDocument{Date: today, Count: len(articles), News: make([]jsonArticle, 0, len(articles))}
	for _, a := range articles {
		ja := jsonArticle{
			Source:       a.Source,
			Title:        a.Title,
			Link:         a.Link,
			Summary:      a.Summary,
			LocalSummary: a.LocalSummary,
			Score:        a.RawScore,
		}
		if !a.Published.IsZero() {
			ja.Published = a.Published.Format(time.RFC3339)
		}
		doc.News = append(doc.News, ja)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化 JSON 输出失败: %w", err)
	}
	return string(data), nil
}

func renderMarkdown(articles []feed.Article, today string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s AI 新闻汇总\n\n", today)
	fmt.Fprintf(&b, "共 %d 条 AI 新闻\n\n", len(articles))

	for i, a := range articles {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, a.Title)
		if a.LocalSummary != "" {
			fmt.Fprintf(&b, "> **中文摘要:** %s\n\n", a.LocalSummary)
		}
		fmt.Fprintf(&b, "- **来源:** %s\n", a.Source)
		fmt.Fprintf(&b, "- **原文链接:** [%s](%s)\n", a.Link, a.Link)
		if !a.Published.IsZero() {
			fmt.Fprintf(&b, "- **发布时间:** %s\n", a.Published.Format("2006-01-02 15:04"))
		}
		b.WriteString("\n---\n\n")
	}
	return b.String()
}

func renderConsole(articles []feed.Article, today string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s AI 新闻\n", today)
	b.WriteString(strings.Repeat("-", 30) + "\n\n")
	fmt.Fprintf(&b, "共获取 %d 条 AI 新闻。\n\n", len(articles))

	for i, a := range articles {
		fmt.Fprintf(&b, "%d. %s\n", i+1, a.Title)
		if a.LocalSummary != "" {
			fmt.Fprintf(&b, "   中文摘要: %s\n", a.LocalSummary)
		}
		fmt.Fprintf(&b, "   原文: %s - %s\n\n", a.Source, a.Link)
	}
	return b.String()
}

// WriteFile 把渲染结果写入文件，必要时创建父目录。
func WriteFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	logger.Infof("[output] 已保存到 %s", path)
	return nil
}
