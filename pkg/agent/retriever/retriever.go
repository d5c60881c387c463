package retriever

import (
	"context"
	"fmt"
	"log"
	"sync"

	"crm-analytics-be/pkg/agent/catalog"
	"crm-analytics-be/pkg/agent/planner"
)

// Failure records one product that could not be fetched.
type Failure struct {
	ProductID string
	Reason    string
}

// Result joins the per-product outcomes of one retrieval pass.
type Result struct {
	Products map[string]catalog.DataProduct
	Failures []Failure
}

// Failed reports whether every planned product failed retrieval.
func (r *Result) Failed() bool {
	return len(r.Products) == 0 && len(r.Failures) > 0
}

// FatalError means retrieval could not be attempted at all (catalog or
// backend wholly unavailable). Unlike per-product failures this aborts
// the request.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("retrieval unavailable: %v", e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Retriever fetches the planned products from the catalog. Products are
// independent reads, so they are fetched concurrently and joined before
// the answer stage; one product's failure never aborts the others.
type Retriever struct {
	catalog *catalog.Catalog
	logger  *log.Logger
}

func New(cat *catalog.Catalog, logger *log.Logger) *Retriever {
	return &Retriever{catalog: cat, logger: logger}
}

// Retrieve fetches every plan item and returns both the successfully
// retrieved products and the failed ids with reasons. Failures are
// appended in plan order so the result is reproducible.
func (r *Retriever) Retrieve(ctx context.Context, items []planner.PlanItem) (*Result, error) {
	result := &Result{Products: make(map[string]catalog.DataProduct, len(items))}
	if len(items) == 0 {
		// Nothing to fetch. Chat mode lands here with an empty plan and
		// must not depend on warehouse availability.
		return result, nil
	}

	if r.catalog == nil || r.catalog.Len() == 0 {
		return nil, &FatalError{Err: fmt.Errorf("product catalog is empty")}
	}
	if err := ctx.Err(); err != nil {
		return nil, &FatalError{Err: err}
	}

	type outcome struct {
		productID string
		payload   catalog.DataProduct
		err       error
	}

	outcomes := make([]outcome, len(items))
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		go func(i int, productID string) {
			defer wg.Done()

			product, ok := r.catalog.Get(productID)
			if !ok {
				// Plan items are validated against the catalog upstream,
				// so this only happens with a hand-built plan.
				outcomes[i] = outcome{productID: productID, err: fmt.Errorf("unknown product")}
				return
			}

			payload, err := product.Fetch(ctx)
			outcomes[i] = outcome{productID: productID, payload: payload, err: err}
		}(i, item.ProductID)
	}
	wg.Wait()

	for _, o := range outcomes {
		if o.err != nil {
			r.logger.Printf("[RETRIEVER] Product %s failed: %v", o.productID, o.err)
			result.Failures = append(result.Failures, Failure{
				ProductID: o.productID,
				Reason:    o.err.Error(),
			})
			continue
		}
		result.Products[o.productID] = o.payload
	}

	return result, nil
}
