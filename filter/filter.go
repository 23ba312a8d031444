package filter

import (
	"strconv"

	"frames-scraper/config"
	"frames-scraper/models"
)

// Filter applies the optional per-site criteria to scraped records. A site
// with zero-valued filters keeps every record untouched; the scrape itself
// never drops products, only this explicit post-processing step does.
type Filter struct {
	cfg *config.Filters
}

// NewFilter creates a Filter from a site's criteria.
func NewFilter(cfg *config.Filters) *Filter {
	return &Filter{cfg: cfg}
}

// Enabled reports whether any criterion is configured.
func (f *Filter) Enabled() bool {
	return len(f.cfg.RequireFields) > 0 || f.cfg.MinPrice > 0 || f.cfg.MaxPrice > 0
}

// Apply returns the records matching all criteria, preserving order.
func (f *Filter) Apply(records []models.Record) []models.Record {
	if !f.Enabled() {
		return records
	}

	var kept []models.Record
	for _, rec := range records {
		if f.matches(rec) {
			kept = append(kept, rec)
		}
	}
	return kept
}

func (f *Filter) matches(rec models.Record) bool {
	for _, field := range f.cfg.RequireFields {
		if rec[field] == "" {
			return false
		}
	}

	if f.cfg.MinPrice > 0 || f.cfg.MaxPrice > 0 {
		// A record whose price could not be extracted is not filtered out
		// by price; an empty value is a data gap, not a price of zero.
		raw := rec[f.cfg.PriceField]
		if raw != "" {
			price, err := strconv.ParseFloat(raw, 64)
			if err == nil {
				if f.cfg.MinPrice > 0 && price < f.cfg.MinPrice {
					return false
				}
				if f.cfg.MaxPrice > 0 && price > f.cfg.MaxPrice {
					return false
				}
			}
		}
	}

	return true
}
