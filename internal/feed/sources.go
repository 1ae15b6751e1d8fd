package feed

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// builtinSources 内置的 AI 新闻源列表。
// 用户配置中的同名条目覆盖内置地址。
var builtinSources = []Source{
	{Name: "Google AI Blog", URL: "https://blog.research.google/feeds/posts/default/-/artificial%20intelligence"},
	{Name: "MIT Technology Review (AI)", URL: "https://www.technologyreview.com/c/artificial-intelligence/feed/"},
	{Name: "VentureBeat AI", URL: "https://feeds.feedburner.com/venturebeat/SZYF"},
	{Name: "Ars Technica (AI)", URL: "https://arstechnica.com/tag/ai/feed/"},
	{Name: "IEEE Spectrum AI", URL: "https://spectrum.ieee.org/topic/artificial-intelligence/feed/"},
	{Name: "AI Trends", URL: "https://aitrends.com/feed/"},
	{Name: "Unite.AI", URL: "https://www.unite.ai/feed/"},
	{Name: "The AI Journal", URL: "https://aijourn.com/feed/"},
	{Name: "AI Business", URL: "https://aibusiness.com/feed/"},
	{Name: "Analytics Insight", URL: "https://www.analyticsinsight.net/category/latest-news/artificial-intelligence/feed/"},
	{Name: "KDnuggets", URL: "https://www.kdnuggets.com/feed"},
	{Name: "Towards Data Science", URL: "https://towardsdatascience.com/feed"},
	{Name: "Analytics Vidhya", URL: "https://medium.com/feed/analytics-vidhya"},
	{Name: "OpenAI Blog", URL: "https://openai.com/blog/rss/"},
	{Name: "DeepMind Blog", URL: "https://deepmind.com/blog/feed/basic/"},
}

// BuiltinSources 返回内置源列表的副本。
func BuiltinSources() []Source {
	out := make([]Source, len(builtinSources))
	copy(out, builtinSources)
	return out
}

// MergeSources 将用户提供的 name→url 映射合并进基础列表。
// 同名覆盖原地址并保持原位置；新增源按名称排序后追加，保证顺序确定。
func MergeSources(base []Source, extra map[string]string) []Source {
	out := make([]Source, len(base))
	copy(out, base)

	seen := make(map[string]int, len(out))
	for i, s := range out {
		seen[s.Name] = i
	}

	added := make([]string, 0, len(extra))
	for name, url := range extra {
		if i, ok := seen[name]; ok {
			out[i].URL = url
			continue
		}
		added = append(added, name)
	}
	sort.Strings(added)
	for _, name := range added {
		out = append(out, Source{Name: name, URL: extra[name]})
	}
	return out
}

// LoadSourcesFile 读取 JSON 格式的附加源文件（name→url 映射）。
func LoadSourcesFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取源文件 %s 失败: %w", path, err)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("解析源文件 %s 失败: %w", path, err)
	}
	return m, nil
}
