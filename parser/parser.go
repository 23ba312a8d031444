package parser

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"frames-scraper/config"
	"frames-scraper/models"

	"github.com/PuerkitoBio/goquery"
)

// ExtractError reports markup that yields zero matches for the configured
// container selector. It usually means the site changed its page schema.
type ExtractError struct {
	Site     string
	Selector string
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract %s: no elements match container selector %q", e.Site, e.Selector)
}

// Extractor turns rendered markup into product records, driven by the
// per-site selector configuration.
type Extractor struct {
	site     *config.Site
	patterns map[string]*regexp.Regexp
}

// NewExtractor compiles the field patterns of a site config. An invalid
// pattern is a configuration bug, reported up front rather than per page.
func NewExtractor(site *config.Site) (*Extractor, error) {
	patterns := make(map[string]*regexp.Regexp)
	for _, f := range site.Fields {
		if f.Pattern == "" {
			continue
		}
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			return nil, fmt.Errorf("field %q: invalid pattern: %w", f.Name, err)
		}
		patterns[f.Name] = re
	}
	return &Extractor{site: site, patterns: patterns}, nil
}

// Parse extracts all product records from one rendered page. Record order
// equals document order of the container elements. A product missing a field
// gets that field as an empty value; the product itself is never dropped.
func (e *Extractor) Parse(htmlContent, pageURL string) (*models.PageResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	containers := doc.Find(e.site.ContainerSelector)
	if containers.Length() == 0 {
		return nil, &ExtractError{Site: e.site.Name, Selector: e.site.ContainerSelector}
	}

	result := &models.PageResult{}
	containers.Each(func(i int, s *goquery.Selection) {
		result.Records = append(result.Records, e.extractRecord(s))
	})

	if e.site.Pagination.Mode == config.PaginationNextLink {
		result.NextURL = e.extractNextURL(doc, pageURL)
	}

	return result, nil
}

// extractRecord reads every configured field out of one container element.
func (e *Extractor) extractRecord(s *goquery.Selection) models.Record {
	rec := make(models.Record, len(e.site.Fields))
	for _, f := range e.site.Fields {
		rec[f.Name] = e.extractField(s, f)
	}
	return rec
}

func (e *Extractor) extractField(s *goquery.Selection, f config.Field) string {
	el := s.Find(f.Selector).First()
	if el.Length() == 0 {
		return ""
	}

	var raw string
	if f.Attr != "" {
		raw = el.AttrOr(f.Attr, "")
	} else {
		raw = el.Text()
	}
	raw = cleanText(raw)

	if re, ok := e.patterns[f.Name]; ok {
		raw = re.FindString(raw)
	}
	if f.Strip != "" {
		for _, ch := range strings.Split(f.Strip, "") {
			raw = strings.ReplaceAll(raw, ch, "")
		}
	}
	return strings.TrimSpace(raw)
}

// extractNextURL resolves the next-page anchor's href against the current
// page URL. Returns "" when the page has no next link (last page).
func (e *Extractor) extractNextURL(doc *goquery.Document, pageURL string) string {
	href := doc.Find(e.site.Pagination.NextSelector).First().AttrOr("href", "")
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "javascript:") {
		return ""
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// cleanText collapses runs of whitespace, including the non-breaking
// spaces product tiles are full of.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}
