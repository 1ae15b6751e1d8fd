package feed

import (
	"strings"
	"testing"
	"time"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Test Feed</title>
<item>
  <title>OpenAI releases new machine learning model</title>
  <link>https://example.com/1</link>
  <description>&lt;p&gt;A &lt;b&gt;major&lt;/b&gt; release with new capabilities.&lt;/p&gt;</description>
  <pubDate>Thu, 19 Feb 2026 08:00:00 +0000</pubDate>
</item>
<item>
  <title>short</title>
  <link>https://example.com/2</link>
</item>
<item>
  <title>An article that has no link at all here</title>
</item>
</channel></rss>`

const sampleAtom = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Feed</title>
  <entry>
    <title>Deep learning advances in computer vision</title>
    <link href="https://example.com/atom/1"/>
    <summary>Progress on vision transformers.</summary>
    <updated>2026-02-19T09:00:00Z</updated>
  </entry>
</feed>`

func TestParseRSS(t *testing.T) {
	p := NewRSSParser()
	articles, err := p.Parse([]byte(sampleRSS), "TestSource")
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	// 短标题和无链接的条目应被跳过
	if len(articles) != 1 {
		t.Fatalf("期望 1 条，实际 %d 条: %+v", len(articles), articles)
	}

	a := articles[0]
	if a.Source != "TestSource" {
		t.Errorf("Source = %q", a.Source)
	}
	if a.Title != "OpenAI releases new machine learning model" {
		t.Errorf("Title = %q", a.Title)
	}
	if strings.Contains(a.Summary, "<") {
		t.Errorf("摘要应剥离 HTML: %q", a.Summary)
	}
	if !strings.Contains(a.Summary, "major release") {
		t.Errorf("摘要文本丢失: %q", a.Summary)
	}
	want := time.Date(2026, 2, 19, 8, 0, 0, 0, time.UTC)
	if !a.Published.Equal(want) {
		t.Errorf("Published = %v, 期望 %v", a.Published, want)
	}
}

func TestParseAtom(t *testing.T) {
	p := NewRSSParser()
	articles, err := p.Parse([]byte(sampleAtom), "AtomSource")
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("期望 1 条，实际 %d 条", len(articles))
	}
	if articles[0].Link != "https://example.com/atom/1" {
		t.Errorf("Link = %q", articles[0].Link)
	}
	// Atom 没有 pubDate，应回退到 updated
	if articles[0].Published.IsZero() {
		t.Error("Published 应取 updated 时间")
	}
}

func TestParseMalformed(t *testing.T) {
	p := NewRSSParser()
	_, err := p.Parse([]byte("this is not xml at all"), "Bad")
	if err == nil {
		t.Fatal("格式错误应返回错误")
	}
	if kind, ok := KindOf(err); !ok || kind != KindParse {
		t.Errorf("应为解析类错误，实际: %v", err)
	}
}

func TestCleanTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Breaking: AI model beats benchmark", "AI model beats benchmark"},
		{"UPDATE - New research published", "New research published"},
		{"Great results - Read More at our site", "Great results"},
		{"<b>Bold</b> claims about AGI", "Bold claims about AGI"},
		{"  spaced   out    title  ", "spaced out title"},
		{"Plain title stays as is", "Plain title stays as is"},
	}
	for _, c := range cases {
		if got := CleanTitle(c.in); got != c.want {
			t.Errorf("CleanTitle(%q) = %q, 期望 %q", c.in, got, c.want)
		}
	}
}

func TestStripHTMLEntities(t *testing.T) {
	got := stripHTML("AT&amp;T invests in &lt;AI&gt;")
	if !strings.Contains(got, "AT&T") {
		t.Errorf("实体应被解码: %q", got)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("深度学习", 200)
	got := truncate(long, maxSummaryLen)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("超长文本应带省略号: %q", got[len(got)-10:])
	}
	// 按字符而非字节截断
	if n := len([]rune(got)); n != maxSummaryLen+3 {
		t.Errorf("截断后 %d 字符，期望 %d", n, maxSummaryLen+3)
	}

	if got := truncate("short text", maxSummaryLen); got != "short text" {
		t.Errorf("短文本不应截断: %q", got)
	}
}
