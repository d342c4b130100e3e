package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrNotConfigured means the lookup needs an API key that was not supplied.
	ErrNotConfigured = errors.New("lookup not configured")
	// ErrNotFound means the upstream service had no answer for the query.
	ErrNotFound = errors.New("no results found")
)

// LookupConfig holds keys and endpoints for the knowledge lookups. Base URLs
// default to the public services and exist so tests can point at httptest.
type LookupConfig struct {
	WeatherAPIKey string
	NewsAPIKey    string

	WeatherBaseURL   string
	NewsBaseURL      string
	WikipediaBaseURL string
}

// LookupClient fetches weather, news, and encyclopedia summaries.
type LookupClient struct {
	cfg    LookupConfig
	client *http.Client
}

func NewLookupClient(cfg LookupConfig) *LookupClient {
	if cfg.WeatherBaseURL == "" {
		cfg.WeatherBaseURL = "https://api.openweathermap.org"
	}
	if cfg.NewsBaseURL == "" {
		cfg.NewsBaseURL = "https://newsapi.org"
	}
	if cfg.WikipediaBaseURL == "" {
		cfg.WikipediaBaseURL = "https://en.wikipedia.org"
	}
	return &LookupClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Weather returns a spoken weather report for the location.
func (c *LookupClient) Weather(ctx context.Context, location string) (string, error) {
	if strings.TrimSpace(c.cfg.WeatherAPIKey) == "" {
		return "", fmt.Errorf("%w: weather needs an OpenWeatherMap API key", ErrNotConfigured)
	}

	q := url.Values{}
	q.Set("q", location)
	q.Set("appid", c.cfg.WeatherAPIKey)
	q.Set("units", "metric")
	endpoint := c.cfg.WeatherBaseURL + "/data/2.5/weather?" + q.Encode()

	var payload struct {
		Cod  any `json:"cod"`
		Main struct {
			Temp     float64 `json:"temp"`
			Pressure float64 `json:"pressure"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	}
	status, err := c.getJSON(ctx, endpoint, &payload)
	if err != nil {
		return "", fmt.Errorf("weather lookup: %w", err)
	}
	if status == http.StatusNotFound || len(payload.Weather) == 0 {
		return "", fmt.Errorf("%w: weather for %s", ErrNotFound, location)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("weather lookup: unexpected status %d", status)
	}

	return fmt.Sprintf(
		"The weather in %s is currently %s. The temperature is %.1f degrees Celsius with %.0f%% humidity and atmospheric pressure of %.0f hectopascals.",
		location, payload.Weather[0].Description, payload.Main.Temp, payload.Main.Humidity, payload.Main.Pressure,
	), nil
}

// News returns up to five top headlines. The source is picked by category
// keywords in the spoken command: tech, business, or sports.
func (c *LookupClient) News(ctx context.Context, command string) (string, []string, error) {
	if strings.TrimSpace(c.cfg.NewsAPIKey) == "" {
		return "", nil, fmt.Errorf("%w: news needs a NewsAPI key", ErrNotConfigured)
	}

	source := newsSource(command)
	q := url.Values{}
	q.Set("sources", source)
	q.Set("apiKey", c.cfg.NewsAPIKey)
	endpoint := c.cfg.NewsBaseURL + "/v2/top-headlines?" + q.Encode()

	var payload struct {
		Status       string `json:"status"`
		TotalResults int    `json:"totalResults"`
		Articles     []struct {
			Title string `json:"title"`
		} `json:"articles"`
	}
	status, err := c.getJSON(ctx, endpoint, &payload)
	if err != nil {
		return "", nil, fmt.Errorf("news lookup: %w", err)
	}
	if status != http.StatusOK || payload.Status != "ok" || payload.TotalResults == 0 {
		return "", nil, fmt.Errorf("%w: headlines from %s", ErrNotFound, source)
	}

	headlines := make([]string, 0, 5)
	for _, a := range payload.Articles {
		if len(headlines) == 5 {
			break
		}
		if strings.TrimSpace(a.Title) == "" {
			continue
		}
		headlines = append(headlines, a.Title)
	}
	return strings.ReplaceAll(source, "-", " "), headlines, nil
}

// WikipediaSummary returns a short encyclopedia extract for the topic.
func (c *LookupClient) WikipediaSummary(ctx context.Context, topic string) (string, error) {
	endpoint := c.cfg.WikipediaBaseURL + "/api/rest_v1/page/summary/" + url.PathEscape(topic)

	var payload struct {
		Extract string `json:"extract"`
	}
	status, err := c.getJSON(ctx, endpoint, &payload)
	if err != nil {
		return "", fmt.Errorf("wikipedia lookup: %w", err)
	}
	if status == http.StatusNotFound || strings.TrimSpace(payload.Extract) == "" {
		return "", fmt.Errorf("%w: wikipedia page for %s", ErrNotFound, topic)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("wikipedia lookup: unexpected status %d", status)
	}
	return payload.Extract, nil
}

func (c *LookupClient) getJSON(ctx context.Context, endpoint string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return res.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil && res.StatusCode == http.StatusOK {
			return res.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return res.StatusCode, nil
}

func newsSource(command string) string {
	command = strings.ToLower(command)
	switch {
	case strings.Contains(command, "tech"):
		return "techcrunch"
	case strings.Contains(command, "business"):
		return "business-insider"
	case strings.Contains(command, "sport"):
		return "espn"
	default:
		return "bbc-news"
	}
}
