// Package news fetches headlines, category news and topic searches from NewsAPI.
package news

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"specter/internal/config"
	"specter/internal/httpclient"
	"specter/internal/logger"
	"specter/pkg/spectertypes"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CacheTTL is how long fetched articles are reused.
const CacheTTL = 5 * time.Minute

const (
	cacheSize         = 32
	headlineCount     = 8
	categoryCount     = 6
	searchCount       = 6
	searchWindow      = 7 * 24 * time.Hour
	categoryDescLimit = 100
	searchDescLimit   = 120
)

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("NEWS_API_KEY is not set")

// categoryKeywords is checked in order; the first category with a matching keyword wins.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"technology", []string{"technology", "tech"}},
	{"business", []string{"business"}},
	{"sports", []string{"sports"}},
	{"health", []string{"health"}},
	{"science", []string{"science"}},
	{"entertainment", []string{"entertainment", "celebrity", "movies"}},
}

var topicStopWords = map[string]bool{
	"news": true, "about": true, "tell": true, "me": true, "latest": true, "current": true,
	"get": true, "fetch": true, "find": true, "the": true, "on": true, "any": true, "show": true,
	"what's": true, "whats": true, "in": true,
}

var titleCaser = cases.Title(language.English)

type article struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

type articlesResponse struct {
	Status   string    `json:"status"`
	Message  string    `json:"message"`
	Articles []article `json:"articles"`
}

// Module is the news capability.
type Module struct {
	country string
	client  *httpclient.Client
	cache   *expirable.LRU[string, []article]
	now     func() time.Time
	log     *log.Logger
}

// New creates the news module. It fails when no API key is configured.
func New(cfg config.NewsConfig, timeout time.Duration) (*Module, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	country := cfg.Country
	if country == "" {
		country = "us"
	}
	return &Module{
		country: country,
		client:  httpclient.New(cfg.BaseURL, timeout, map[string]string{"X-Api-Key": cfg.APIKey}),
		cache:   expirable.NewLRU[string, []article](cacheSize, nil, CacheTTL),
		now:     time.Now,
		log:     logger.NewStyledLogger("News"),
	}, nil
}

// Slot returns the news slot.
func (m *Module) Slot() spectertypes.Slot {
	return spectertypes.SlotNews
}

// Handle picks headlines, a category or a topic search from the command.
func (m *Module) Handle(ctx context.Context, command string) (string, error) {
	query := strings.ToLower(command)

	if strings.Contains(query, "headlines") || strings.Contains(query, "top news") {
		return m.Headlines(ctx), nil
	}
	if category := MatchCategory(query); category != "" {
		return m.Category(ctx, category), nil
	}
	if topic := ExtractTopic(query); topic != "" {
		return m.Search(ctx, topic), nil
	}
	return m.Headlines(ctx), nil
}

// Invoke serves get_news with optional category or topic parameters.
func (m *Module) Invoke(ctx context.Context, fn spectertypes.Function, params map[string]string) (string, error) {
	if fn != spectertypes.FuncGetNews {
		return "", fmt.Errorf("%w: %s", spectertypes.ErrUnsupportedFunction, fn)
	}
	if category := strings.ToLower(strings.TrimSpace(params["category"])); category != "" {
		return m.Category(ctx, category), nil
	}
	if topic := strings.TrimSpace(params["topic"]); topic != "" {
		return m.Search(ctx, topic), nil
	}
	return m.Handle(ctx, params["command"])
}

// MatchCategory returns the NewsAPI category named in query, or "".
func MatchCategory(query string) string {
	for _, entry := range categoryKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(query, keyword) {
				return entry.category
			}
		}
	}
	return ""
}

// ExtractTopic drops filler words from query. An empty result means "no topic".
func ExtractTopic(query string) string {
	var kept []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		word = strings.Trim(word, "?!.,")
		if word == "" || topicStopWords[word] {
			continue
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}

// Headlines returns the top headlines for the configured country.
func (m *Module) Headlines(ctx context.Context) string {
	query := url.Values{"country": {m.country}, "pageSize": {strconv.Itoa(headlineCount)}}
	articles, err := m.fetch(ctx, "headlines", "/top-headlines", query)
	if err != nil {
		m.log.Error("Headlines request failed", "error", err)
		return "Sorry, I couldn't fetch the news right now. Please check your internet connection."
	}
	if len(articles) == 0 {
		return "No headlines available at the moment."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📰 Top Headlines (%d articles):", len(articles))
	for i, a := range articles {
		fmt.Fprintf(&b, "\n\n%d. %s\n   📍 %s | 🕒 %s", i+1, orDefault(a.Title, "No title"),
			orDefault(a.Source.Name, "Unknown source"), m.relativeTime(a.PublishedAt))
	}
	return b.String()
}

// Category returns top headlines within a NewsAPI category.
func (m *Module) Category(ctx context.Context, category string) string {
	query := url.Values{
		"category": {category},
		"country":  {m.country},
		"pageSize": {strconv.Itoa(categoryCount)},
	}
	articles, err := m.fetch(ctx, "category:"+category, "/top-headlines", query)
	if err != nil {
		m.log.Error("Category request failed", "category", category, "error", err)
		return fmt.Sprintf("Error fetching %s news.", category)
	}
	if len(articles) == 0 {
		return fmt.Sprintf("No %s news available.", category)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📰 %s News:", titleCaser.String(category))
	for i, a := range articles {
		fmt.Fprintf(&b, "\n\n%d. %s\n   📍 %s", i+1, orDefault(a.Title, "No title"),
			orDefault(a.Source.Name, "Unknown source"))
		if a.Description != "" {
			fmt.Fprintf(&b, "\n   📝 %s", truncate(a.Description, categoryDescLimit))
		}
	}
	return b.String()
}

// Search returns the most relevant English articles about topic from the last week.
func (m *Module) Search(ctx context.Context, topic string) string {
	query := url.Values{
		"q":        {topic},
		"sortBy":   {"relevancy"},
		"pageSize": {strconv.Itoa(searchCount)},
		"language": {"en"},
		"from":     {m.now().Add(-searchWindow).Format("2006-01-02")},
	}
	articles, err := m.fetch(ctx, "search:"+strings.ToLower(topic), "/everything", query)
	if err != nil {
		m.log.Error("News search failed", "topic", topic, "error", err)
		return fmt.Sprintf("Error searching for news about '%s'", topic)
	}
	if len(articles) == 0 {
		return fmt.Sprintf("No recent news found about '%s'", topic)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📰 News about '%s' (%d articles):", topic, len(articles))
	for i, a := range articles {
		fmt.Fprintf(&b, "\n\n%d. %s\n   📍 %s | 🕒 %s", i+1, orDefault(a.Title, "No title"),
			orDefault(a.Source.Name, "Unknown source"), m.relativeTime(a.PublishedAt))
		if a.Description != "" {
			fmt.Fprintf(&b, "\n   📝 %s", truncate(a.Description, searchDescLimit))
		}
		if a.URL != "" {
			fmt.Fprintf(&b, "\n   🔗 %s", a.URL)
		}
	}
	return b.String()
}

// fetch returns cached articles for key or requests them.
func (m *Module) fetch(ctx context.Context, key, path string, query url.Values) ([]article, error) {
	if cached, ok := m.cache.Get(key); ok {
		m.log.Debug("News cache hit", "key", key)
		return cached, nil
	}

	var resp articlesResponse
	if err := m.client.GetJSON(ctx, path, query, &resp); err != nil {
		return nil, err
	}
	if resp.Status == "error" {
		return nil, fmt.Errorf("news API error: %s", resp.Message)
	}

	m.cache.Add(key, resp.Articles)
	return resp.Articles, nil
}

func (m *Module) relativeTime(published string) string {
	if published == "" {
		return "Unknown time"
	}
	at, err := time.Parse(time.RFC3339, published)
	if err != nil {
		return "Unknown time"
	}
	now := m.now()
	if now.Sub(at) < time.Minute {
		return "Just now"
	}
	return humanize.RelTime(at, now, "ago", "from now")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
