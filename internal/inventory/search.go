package inventory

import (
	"strings"

	"golang.org/x/text/cases"
)

// Search keeps the products whose name contains term, ignoring case. An empty
// term returns products as given. Input order is preserved.
func Search(products []Product, term string) []Product {
	if term == "" {
		return products
	}
	// A Caser holds state, so each call gets its own.
	fold := cases.Fold()
	needle := fold.String(term)
	matches := make([]Product, 0)
	for _, p := range products {
		if strings.Contains(fold.String(p.Name), needle) {
			matches = append(matches, p)
		}
	}
	return matches
}
