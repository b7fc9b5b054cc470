package dom

import (
	"fmt"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// QuerySelector returns the first descendant of root matching selector, or nil
func QuerySelector(root *html.Node, selector string) (*html.Node, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return cascadia.Query(root, sel), nil
}

// QuerySelectorAll returns every descendant of root matching selector
func QuerySelectorAll(root *html.Node, selector string) ([]*html.Node, error) {
	sel, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return cascadia.QueryAll(root, sel), nil
}
