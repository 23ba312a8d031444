package fetcher

import "fmt"

// Fetcher renders a URL to markup. Implementations own whatever session
// state they need (a browser, an HTTP collector) and release it in Close.
type Fetcher interface {
	// Fetch navigates to the URL, waits for the content to finish
	// rendering, and returns the resulting page markup.
	Fetch(url string) (string, error)

	Close() error
}

// FetchError reports a navigation or render-wait failure. It is fatal to
// the current page only; the pagination driver decides whether to skip the
// page or stop the run.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
