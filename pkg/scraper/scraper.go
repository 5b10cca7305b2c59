// Package scraper builds the raw corpus from web sources: it fetches
// pages with rate limiting, extracts readable text and feeds the document
// store. Purely an ingestion-side I/O wrapper.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/ouagalab/fasotour/pkg/corpus"
)

type ScraperConfig struct {
	RateLimit  float64 // requests per second
	Timeout    time.Duration
	UserAgent  string
	OnProgress func(url string)
}

type Scraper struct {
	config  ScraperConfig
	client  *http.Client
	limiter *rate.Limiter
}

func NewWithConfig(config ScraperConfig) *Scraper {
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "fasotour-bot/1.0"
	}

	return &Scraper{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// FetchInto fetches each URL and adds the extracted text to the store.
// Individual page failures are logged and skipped; returns the number of
// documents admitted.
func (s *Scraper) FetchInto(ctx context.Context, store *corpus.Store, urls []string, category string) (int, error) {
	added := 0
	for _, pageURL := range urls {
		if err := s.limiter.Wait(ctx); err != nil {
			return added, err
		}

		title, text, err := s.FetchPage(ctx, pageURL)
		if err != nil {
			slog.Warn("failed to fetch page", "url", pageURL, "error", err)
			continue
		}

		if store.Add(text, title, pageURL, category, "web") {
			added++
		}
		if s.config.OnProgress != nil {
			s.config.OnProgress(pageURL)
		}
	}
	return added, nil
}

// FetchPage downloads one page and returns its title and visible text.
func (s *Scraper) FetchPage(ctx context.Context, pageURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("User-Agent", s.config.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("status code %d for %s", resp.StatusCode, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}

	doc.Find("script, style, nav, footer").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = pageURL
	}

	var text strings.Builder
	doc.Find("body").Each(func(_ int, sel *goquery.Selection) {
		text.WriteString(sel.Text())
		text.WriteString(" ")
	})

	return title, text.String(), nil
}
