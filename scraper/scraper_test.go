package scraper

import (
	"fmt"
	"testing"

	"frames-scraper/config"
	"frames-scraper/fetcher"
)

// fakeFetcher serves canned markup per URL, so pagination behavior can be
// tested without a browser.
type fakeFetcher struct {
	pages  map[string]string
	calls  []string
	closed bool
}

func (f *fakeFetcher) Fetch(url string) (string, error) {
	f.calls = append(f.calls, url)
	html, ok := f.pages[url]
	if !ok {
		return "", &fetcher.FetchError{URL: url, Err: fmt.Errorf("no such page")}
	}
	return html, nil
}

func (f *fakeFetcher) Close() error {
	f.closed = true
	return nil
}

func paramSite(maxPages int) *config.Site {
	return &config.Site{
		Name:              "param-site",
		URL:               "https://shop.example.com/eyeglasses/",
		ContainerSelector: "div.prod-holder",
		Fields: []config.Field{
			{Name: "product_name", Selector: "div.product_name"},
		},
		Pagination: config.Pagination{
			Mode:     config.PaginationPageParam,
			Param:    "p",
			MaxPages: maxPages,
		},
	}
}

func listingPage(names ...string) string {
	html := "<html><body>"
	for _, n := range names {
		html += fmt.Sprintf(`<div class="prod-holder"><div class="product_name">%s</div></div>`, n)
	}
	return html + "</body></html>"
}

func TestRun_PageParamPagination(t *testing.T) {
	ff := &fakeFetcher{pages: map[string]string{
		"https://shop.example.com/eyeglasses/":     listingPage("one-a", "one-b"),
		"https://shop.example.com/eyeglasses/?p=2": listingPage("two-a"),
		"https://shop.example.com/eyeglasses/?p=3": listingPage("three-a", "three-b"),
	}}

	runner, err := NewRunner(paramSite(3), ff)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	session, err := runner.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{"one-a", "one-b", "two-a", "three-a", "three-b"}
	if session.Len() != len(want) {
		t.Fatalf("session has %d records, want %d", session.Len(), len(want))
	}
	for i, name := range want {
		if got := session.Records[i]["product_name"]; got != name {
			t.Errorf("record %d = %q, want %q", i, got, name)
		}
	}
	if session.PagesScraped != 3 {
		t.Errorf("PagesScraped = %d, want 3", session.PagesScraped)
	}
}

func TestRun_SkipsFailedMiddlePage(t *testing.T) {
	tests := []struct {
		name     string
		page2    string
		hasPage2 bool
	}{
		{"page 2 returns unparseable markup", "<html><body>oops, redesign</body></html>", true},
		{"page 2 fails to fetch", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := map[string]string{
				"https://shop.example.com/eyeglasses/":     listingPage("one-a"),
				"https://shop.example.com/eyeglasses/?p=3": listingPage("three-a"),
			}
			if tt.hasPage2 {
				pages["https://shop.example.com/eyeglasses/?p=2"] = tt.page2
			}
			ff := &fakeFetcher{pages: pages}

			runner, err := NewRunner(paramSite(3), ff)
			if err != nil {
				t.Fatalf("NewRunner() error = %v", err)
			}
			session, err := runner.Run()
			if err != nil {
				t.Fatalf("Run() error = %v, want recovered run", err)
			}

			want := []string{"one-a", "three-a"}
			if session.Len() != len(want) {
				t.Fatalf("session has %d records, want %d", session.Len(), len(want))
			}
			for i, name := range want {
				if got := session.Records[i]["product_name"]; got != name {
					t.Errorf("record %d = %q, want %q", i, got, name)
				}
			}
			if session.PagesScraped != 2 || session.PagesFailed != 1 {
				t.Errorf("PagesScraped = %d, PagesFailed = %d, want 2 and 1",
					session.PagesScraped, session.PagesFailed)
			}
		})
	}
}

func TestRun_SinglePageMode(t *testing.T) {
	site := paramSite(1)
	site.Pagination = config.Pagination{Mode: config.PaginationNone, MaxPages: 1}

	ff := &fakeFetcher{pages: map[string]string{
		"https://shop.example.com/eyeglasses/": listingPage("only-a", "only-b"),
	}}

	runner, err := NewRunner(site, ff)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	session, err := runner.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(ff.calls) != 1 {
		t.Errorf("fetcher called %d times, want exactly 1", len(ff.calls))
	}
	if session.Len() != 2 {
		t.Errorf("session has %d records, want 2", session.Len())
	}
}

func TestRun_NextLinkPagination(t *testing.T) {
	site := &config.Site{
		Name:              "link-site",
		URL:               "https://shop.example.com/list",
		ContainerSelector: "div.prod-holder",
		Fields: []config.Field{
			{Name: "product_name", Selector: "div.product_name"},
		},
		Pagination: config.Pagination{
			Mode:         config.PaginationNextLink,
			NextSelector: "a.next",
			MaxPages:     10,
		},
	}

	withNext := func(listing, next string) string {
		html := listing
		if next != "" {
			html = listing[:len(listing)-len("</body></html>")] +
				fmt.Sprintf(`<a class="next" href="%s">next</a></body></html>`, next)
		}
		return html
	}

	ff := &fakeFetcher{pages: map[string]string{
		"https://shop.example.com/list":        withNext(listingPage("one"), "/list?page=2"),
		"https://shop.example.com/list?page=2": withNext(listingPage("two"), "/list?page=3"),
		"https://shop.example.com/list?page=3": withNext(listingPage("three"), ""),
	}}

	runner, err := NewRunner(site, ff)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	session, err := runner.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{"one", "two", "three"}
	if session.Len() != len(want) {
		t.Fatalf("session has %d records, want %d", session.Len(), len(want))
	}
	for i, name := range want {
		if got := session.Records[i]["product_name"]; got != name {
			t.Errorf("record %d = %q, want %q", i, got, name)
		}
	}
	if len(ff.calls) != 3 {
		t.Errorf("fetcher called %d times, want 3", len(ff.calls))
	}
}

func TestRun_NextLinkStopsOnFailedPage(t *testing.T) {
	site := &config.Site{
		Name:              "link-site",
		URL:               "https://shop.example.com/list",
		ContainerSelector: "div.prod-holder",
		Fields: []config.Field{
			{Name: "product_name", Selector: "div.product_name"},
		},
		Pagination: config.Pagination{
			Mode:         config.PaginationNextLink,
			NextSelector: "a.next",
			MaxPages:     10,
		},
	}

	// Page 1 links to page 2, which cannot be fetched. Without that page's
	// markup there is no forward link, so the run ends with page 1 only.
	page1 := `<html><body><div class="prod-holder"><div class="product_name">one</div></div>` +
		`<a class="next" href="/list?page=2">next</a></body></html>`
	ff := &fakeFetcher{pages: map[string]string{
		"https://shop.example.com/list": page1,
	}}

	runner, err := NewRunner(site, ff)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	session, err := runner.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if session.Len() != 1 || session.PagesFailed != 1 {
		t.Errorf("got %d records and %d failed pages, want 1 and 1",
			session.Len(), session.PagesFailed)
	}
}

func TestRun_AllPagesFail(t *testing.T) {
	ff := &fakeFetcher{pages: map[string]string{}}

	runner, err := NewRunner(paramSite(2), ff)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	if _, err := runner.Run(); err == nil {
		t.Fatal("Run() expected an error when every page fails")
	}
}

func TestRun_MaxPagesBound(t *testing.T) {
	// More pages exist than the bound allows; the driver must stop at the
	// bound.
	pages := map[string]string{
		"https://shop.example.com/eyeglasses/": listingPage("p1"),
	}
	for i := 2; i <= 10; i++ {
		pages[fmt.Sprintf("https://shop.example.com/eyeglasses/?p=%d", i)] = listingPage(fmt.Sprintf("p%d", i))
	}
	ff := &fakeFetcher{pages: pages}

	runner, err := NewRunner(paramSite(4), ff)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	session, err := runner.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if session.Len() != 4 {
		t.Errorf("session has %d records, want 4", session.Len())
	}
	if len(ff.calls) != 4 {
		t.Errorf("fetcher called %d times, want 4", len(ff.calls))
	}
}
