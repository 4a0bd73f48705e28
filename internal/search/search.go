package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/nemirov/pulse-bot/internal/ai"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://lite.duckduckgo.com/lite"
	maxResults     = 5
)

// Result is one extracted search hit.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Response carries the ranked hits plus an AI-generated summary of them.
type Response struct {
	Summary string   `json:"summary"`
	Results []Result `json:"results"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	completer  ai.Completer
	logger     *zap.Logger
}

func NewClient(completer ai.Completer, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		completer:  completer,
		logger:     logger,
	}
}

// Search fetches the results page for query, extracts up to five result
// rows, and asks the completer for a natural-language summary. Rows that
// fail to extract are skipped; a page with no extractable rows still
// yields a response.
func (c *Client) Search(ctx context.Context, query string) (*Response, error) {
	results, err := c.fetchResults(ctx, query)
	if err != nil {
		return nil, err
	}

	summary, err := c.summarize(ctx, query, results)
	if err != nil {
		return nil, err
	}

	return &Response{
		Summary: summary,
		Results: results,
	}, nil
}

func (c *Client) fetchResults(ctx context.Context, query string) ([]Result, error) {
	searchURL := c.baseURL + "?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error building search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching search page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error parsing search page: %w", err)
	}

	results := make([]Result, 0, maxResults)
	doc.Find("tr.result-link").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		link := row.Find("a").First()
		href, ok := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		if !ok || title == "" {
			// Malformed row, keep going with the rest
			return true
		}

		snippet := strings.TrimSpace(row.NextAllFiltered("tr.result-snippet").First().Text())

		results = append(results, Result{
			Title:   title,
			Link:    href,
			Snippet: snippet,
		})
		return len(results) < maxResults
	})

	return results, nil
}

func (c *Client) summarize(ctx context.Context, query string, results []Result) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Summarize these search results about '%s':\n", query)
	for _, r := range results {
		fmt.Fprintf(&sb, "- %s: %s\n", r.Title, r.Snippet)
	}

	summary, err := c.completer.Complete(ctx, sb.String())
	if err != nil {
		c.logger.Error("Failed to summarize search results",
			zap.Error(err),
			zap.String("query", query))
		return "", fmt.Errorf("error summarizing search results: %w", err)
	}

	return summary, nil
}
