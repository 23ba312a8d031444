package fetcher

import (
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
)

// CollyFetcher fetches pages over plain HTTP. It cannot execute scripts, so
// it only suits sites whose listing markup arrives fully server-rendered.
type CollyFetcher struct {
	collector *colly.Collector
}

// NewCollyFetcher creates a rate-limited HTTP fetcher.
func NewCollyFetcher() *CollyFetcher {
	c := colly.NewCollector(
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"),
		colly.AllowURLRevisit(),
	)

	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       2 * time.Second,
	})

	return &CollyFetcher{collector: c}
}

// Close is a no-op; colly holds no persistent session.
func (cf *CollyFetcher) Close() error {
	return nil
}

// Fetch implements the Fetcher interface.
func (cf *CollyFetcher) Fetch(url string) (string, error) {
	var body string
	var fetchErr error

	c := cf.collector.Clone()
	c.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = err
	})

	if err := c.Visit(url); err != nil {
		return "", &FetchError{URL: url, Err: fmt.Errorf("visit failed: %w", err)}
	}
	c.Wait()

	if fetchErr != nil {
		return "", &FetchError{URL: url, Err: fetchErr}
	}
	if body == "" {
		return "", &FetchError{URL: url, Err: fmt.Errorf("empty response body")}
	}
	return body, nil
}
