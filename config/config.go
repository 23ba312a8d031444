package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Pagination strategies.
const (
	PaginationNone      = "none"       // single fetch/extract cycle, no loop
	PaginationPageParam = "page_param" // advance by incrementing a query parameter
	PaginationNextLink  = "next_link"  // follow the next link found in the page
)

// Fetcher kinds.
const (
	FetcherRod   = "rod"   // headless browser, for JS-rendered pages
	FetcherColly = "colly" // plain HTTP, for static pages
)

// Field maps one output column to the selector that produces it, relative to
// the container element.
type Field struct {
	Name     string `yaml:"name"`
	Selector string `yaml:"selector"`
	// Attr reads an attribute instead of the element text ("href", "src", ...).
	Attr string `yaml:"attr,omitempty"`
	// Pattern is an optional regexp; the first match replaces the raw value.
	// Used to pull "249.00" out of "Retail: $249.00".
	Pattern string `yaml:"pattern,omitempty"`
	// Strip lists characters removed from the value after matching, e.g. ","
	// to drop thousands separators.
	Strip string `yaml:"strip,omitempty"`
}

// Pagination describes how a site splits its listing across pages.
type Pagination struct {
	Mode string `yaml:"mode"`
	// Param is the page-number query parameter for page_param mode ("p").
	Param string `yaml:"param,omitempty"`
	// NextSelector locates the next-page anchor for next_link mode.
	NextSelector string `yaml:"next_selector,omitempty"`
	// MaxPages is the safety bound on pages per run.
	MaxPages int `yaml:"max_pages,omitempty"`
}

// Filters holds optional post-extraction criteria. All zero values mean
// "keep everything".
type Filters struct {
	RequireFields []string `yaml:"require_fields,omitempty"`
	PriceField    string   `yaml:"price_field,omitempty"`
	MinPrice      float64  `yaml:"min_price,omitempty"`
	MaxPrice      float64  `yaml:"max_price,omitempty"`
}

// Site is the full scraping recipe for one target site.
type Site struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Fetcher string `yaml:"fetcher,omitempty"`
	// WaitSelector is the element whose presence signals that the dynamic
	// content finished rendering.
	WaitSelector   string `yaml:"wait_selector,omitempty"`
	WaitTimeoutSec int    `yaml:"wait_timeout_sec,omitempty"`
	// ContainerSelector matches the repeated element holding one product.
	ContainerSelector string     `yaml:"container_selector"`
	Fields            []Field    `yaml:"fields"`
	Pagination        Pagination `yaml:"pagination,omitempty"`
	Filters           Filters    `yaml:"filters,omitempty"`
}

// Config is the root configuration document.
type Config struct {
	OutputDir string `yaml:"output_dir,omitempty"`
	Sites     []Site `yaml:"sites"`
}

// WaitTimeout returns the render-wait bound as a duration.
func (s *Site) WaitTimeout() time.Duration {
	return time.Duration(s.WaitTimeoutSec) * time.Second
}

// FieldNames returns the schema (column order) for the site.
func (s *Site) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// LoadConfig loads configuration from a YAML file and validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if len(cfg.Sites) == 0 {
		return nil, fmt.Errorf("config defines no sites")
	}
	for i := range cfg.Sites {
		applySiteDefaults(&cfg.Sites[i])
		if err := validateSite(&cfg.Sites[i]); err != nil {
			return nil, fmt.Errorf("site %q: %w", cfg.Sites[i].Name, err)
		}
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}

	return &cfg, nil
}

func applySiteDefaults(s *Site) {
	if s.Fetcher == "" {
		s.Fetcher = FetcherRod
	}
	if s.WaitTimeoutSec == 0 {
		s.WaitTimeoutSec = 15
	}
	if s.Pagination.Mode == "" {
		s.Pagination.Mode = PaginationNone
	}
	if s.Pagination.Mode == PaginationNone {
		s.Pagination.MaxPages = 1
	} else if s.Pagination.MaxPages == 0 {
		s.Pagination.MaxPages = 5
	}
}

func validateSite(s *Site) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.URL == "" {
		return fmt.Errorf("url is required")
	}
	if s.ContainerSelector == "" {
		return fmt.Errorf("container_selector is required")
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("at least one field is required")
	}
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" || f.Selector == "" {
			return fmt.Errorf("every field needs a name and a selector")
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate field %q", f.Name)
		}
		seen[f.Name] = true
	}
	switch s.Fetcher {
	case FetcherRod, FetcherColly:
	default:
		return fmt.Errorf("unknown fetcher %q", s.Fetcher)
	}
	switch s.Pagination.Mode {
	case PaginationNone:
	case PaginationPageParam:
		if s.Pagination.Param == "" {
			return fmt.Errorf("page_param pagination needs a param name")
		}
	case PaginationNextLink:
		if s.Pagination.NextSelector == "" {
			return fmt.Errorf("next_link pagination needs a next_selector")
		}
	default:
		return fmt.Errorf("unknown pagination mode %q", s.Pagination.Mode)
	}
	return nil
}

// GetDefaultConfig returns the built-in configuration: the FramesDirect
// eyeglasses and sunglasses catalogs. Eyeglasses paginate via the "p" query
// parameter; sunglasses are scraped as a single page.
func GetDefaultConfig() *Config {
	framesFields := []Field{
		{Name: "brand", Selector: "div.catalog-container div.catalog-name"},
		{Name: "product_name", Selector: "div.product_name"},
		{Name: "retail_price", Selector: "div.prod-price-wrap div.prod-catalog-retail-price", Pattern: `[\d,.]+`, Strip: ","},
		{Name: "discounted_price", Selector: "div.prod-price-wrap div.prod-aslowas", Pattern: `[\d,.]+`, Strip: ","},
		{Name: "discount", Selector: "div.frame-discount"},
	}

	cfg := &Config{
		OutputDir: "output",
		Sites: []Site{
			{
				Name:              "framesdirect-eyeglasses",
				URL:               "https://www.framesdirect.com/eyeglasses/",
				Fetcher:           FetcherRod,
				WaitSelector:      "#product-list-container",
				ContainerSelector: "div.prod-holder",
				Fields:            framesFields,
				Pagination: Pagination{
					Mode:     PaginationPageParam,
					Param:    "p",
					MaxPages: 3,
				},
			},
			{
				Name:              "framesdirect-sunglasses",
				URL:               "https://www.framesdirect.com/sunglasses/",
				Fetcher:           FetcherRod,
				WaitSelector:      "#product-list-container",
				ContainerSelector: "div.prod-holder",
				Fields:            framesFields,
			},
		},
	}
	for i := range cfg.Sites {
		applySiteDefaults(&cfg.Sites[i])
	}
	return cfg
}
