package models

import "time"

// Record is one scraped product: a flat mapping from field name to string
// value. The field set is fixed per site by the site config.
type Record map[string]string

// Clone returns a copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// PageResult holds the records extracted from a single rendered page, in
// document order, plus the resolved "next page" link when the site exposes
// one (empty otherwise).
type PageResult struct {
	Records    []Record
	NextURL    string
	PageNumber int
}

// Session accumulates records across pages for one scrape run.
// Fields is the schema: it fixes the CSV column order and the JSON key
// order, and every record in the session carries exactly these keys.
type Session struct {
	Site         string
	URL          string
	Fields       []string
	Records      []Record
	PagesScraped int
	PagesFailed  int
	StartedAt    time.Time
}

// NewSession creates an empty session for one run.
func NewSession(site, url string, fields []string) *Session {
	return &Session{
		Site:      site,
		URL:       url,
		Fields:    append([]string(nil), fields...),
		StartedAt: time.Now(),
	}
}

// Append adds a page's records to the session in page order. Each record is
// normalized to the session schema: a field the extractor did not produce is
// stored as an empty string, never dropped, so CSV rows stay uniform.
func (s *Session) Append(page *PageResult) {
	for _, rec := range page.Records {
		normalized := make(Record, len(s.Fields))
		for _, f := range s.Fields {
			normalized[f] = rec[f]
		}
		s.Records = append(s.Records, normalized)
	}
	s.PagesScraped++
}

// Len returns the number of accumulated records.
func (s *Session) Len() int {
	return len(s.Records)
}
