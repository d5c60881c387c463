package catalog

import (
	"context"
	"fmt"
)

// DataProduct is the materialized payload of one precomputed analytics
// artifact, keyed by whatever structure its fetcher produces.
type DataProduct map[string]interface{}

// Fetcher loads a product's payload from the retrieval backend.
type Fetcher func(ctx context.Context) (DataProduct, error)

// Product describes one entry of the registry.
type Product struct {
	ID    string
	Label string
	Route string   // dashboard route visualizing this product, "" if none
	Tags  []string // topics the planner matches against
	Fetch Fetcher
}

// Catalog is the process-wide product registry. It is built once at
// startup and never mutated afterwards, so concurrent reads need no
// synchronization. Declaration order is significant: it is the stable
// tie-break order for planning and the scan order for navigation.
type Catalog struct {
	products []Product
	index    map[string]int
}

func New(products []Product) (*Catalog, error) {
	index := make(map[string]int, len(products))
	for i, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("catalog: product at position %d has empty id", i)
		}
		if _, dup := index[p.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate product id %q", p.ID)
		}
		if p.Fetch == nil {
			return nil, fmt.Errorf("catalog: product %q has no fetcher", p.ID)
		}
		index[p.ID] = i
	}
	return &Catalog{products: products, index: index}, nil
}

// Get returns the product registered under id.
func (c *Catalog) Get(id string) (Product, bool) {
	i, ok := c.index[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// Has reports whether id is a registered product.
func (c *Catalog) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

// Products returns all products in declaration order.
func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Priority returns the declaration position of id, or len(catalog) for
// unknown ids so they sort last.
func (c *Catalog) Priority(id string) int {
	if i, ok := c.index[id]; ok {
		return i
	}
	return len(c.products)
}

func (c *Catalog) Len() int {
	return len(c.products)
}
