package scraper

import (
	"fmt"
	"log"
	"net/url"

	"frames-scraper/config"
	"frames-scraper/fetcher"
	"frames-scraper/models"
	"frames-scraper/parser"
)

// Runner walks a site's listing pages, feeding each rendered page to the
// extractor and folding the records into one session. Fully sequential: one
// page is fetched, extracted and accumulated before the next starts.
type Runner struct {
	site      *config.Site
	fetch     fetcher.Fetcher
	extractor *parser.Extractor
}

// NewRunner wires a fetcher and an extractor for one site.
func NewRunner(site *config.Site, f fetcher.Fetcher) (*Runner, error) {
	ex, err := parser.NewExtractor(site)
	if err != nil {
		return nil, fmt.Errorf("failed to build extractor: %w", err)
	}
	return &Runner{site: site, fetch: f, extractor: ex}, nil
}

// Run scrapes the site according to its pagination strategy and returns the
// accumulated session.
//
// A fetch or extract failure on a single page is recovered here by skipping
// that page, so a transient failure does not discard records already
// collected. Under next_link pagination a failed page ends the walk instead,
// because the forward link is only known from the failed page's markup.
func (r *Runner) Run() (*models.Session, error) {
	session := models.NewSession(r.site.Name, r.site.URL, r.site.FieldNames())
	maxPages := r.site.Pagination.MaxPages

	pageURL := r.site.URL
	for pageNum := 1; pageNum <= maxPages; pageNum++ {
		if r.site.Pagination.Mode == config.PaginationPageParam && pageNum > 1 {
			u, err := pageParamURL(r.site.URL, r.site.Pagination.Param, pageNum)
			if err != nil {
				return nil, fmt.Errorf("failed to build page %d URL: %w", pageNum, err)
			}
			pageURL = u
		}
		if pageURL == "" {
			// next_link mode ran out of pages.
			break
		}

		log.Printf("Scraping page %d/%d: %s\n", pageNum, maxPages, pageURL)

		page, err := r.scrapePage(pageURL, pageNum)
		if err != nil {
			session.PagesFailed++
			log.Printf("Warning: skipping page %d: %v\n", pageNum, err)
			if r.site.Pagination.Mode == config.PaginationNextLink {
				log.Printf("No forward link available after failed page, stopping\n")
				break
			}
			continue
		}

		session.Append(page)
		log.Printf("Page %d: %d products (total %d)\n", pageNum, len(page.Records), session.Len())

		if r.site.Pagination.Mode == config.PaginationNextLink {
			pageURL = page.NextURL
		}
	}

	if session.PagesScraped == 0 {
		return nil, fmt.Errorf("no pages could be scraped for %s", r.site.Name)
	}

	log.Printf("Scraping completed for %s: %d pages, %d products\n",
		r.site.Name, session.PagesScraped, session.Len())
	return session, nil
}

// scrapePage performs one fetch/extract cycle.
func (r *Runner) scrapePage(pageURL string, pageNum int) (*models.PageResult, error) {
	html, err := r.fetch.Fetch(pageURL)
	if err != nil {
		return nil, err
	}

	page, err := r.extractor.Parse(html, pageURL)
	if err != nil {
		return nil, err
	}
	page.PageNumber = pageNum
	return page, nil
}

// pageParamURL sets the page-number query parameter on the seed URL.
func pageParamURL(seed, param string, page int) (string, error) {
	u, err := url.Parse(seed)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(param, fmt.Sprintf("%d", page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
