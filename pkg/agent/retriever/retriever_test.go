package retriever

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"crm-analytics-be/pkg/agent/catalog"
	"crm-analytics-be/pkg/agent/planner"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func buildCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]catalog.Product{
		{
			ID:    "top10",
			Label: "Top 10 services",
			Fetch: func(ctx context.Context) (catalog.DataProduct, error) {
				return catalog.DataProduct{"items": []string{"Consulting", "Support"}}, nil
			},
		},
		{
			ID:    "revenue_trend",
			Label: "Revenue trend",
			Fetch: func(ctx context.Context) (catalog.DataProduct, error) {
				return catalog.DataProduct{"series": []float64{1, 2, 3}}, nil
			},
		},
		{
			ID:    "broken",
			Label: "Broken product",
			Fetch: func(ctx context.Context) (catalog.DataProduct, error) {
				return nil, errors.New("warehouse timeout")
			},
		},
	})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return cat
}

func TestRetrieveJoinsOutcomes(t *testing.T) {
	r := New(buildCatalog(t), testLogger())

	plan := []planner.PlanItem{
		{ProductID: "top10"},
		{ProductID: "broken"},
		{ProductID: "revenue_trend"},
	}

	result, err := r.Retrieve(context.Background(), plan)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	if len(result.Products) != 2 {
		t.Errorf("got %d products, want 2", len(result.Products))
	}
	if _, ok := result.Products["top10"]; !ok {
		t.Error("top10 missing from products")
	}
	if _, ok := result.Products["revenue_trend"]; !ok {
		t.Error("revenue_trend missing from products")
	}

	if len(result.Failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(result.Failures))
	}
	if result.Failures[0].ProductID != "broken" || result.Failures[0].Reason != "warehouse timeout" {
		t.Errorf("unexpected failure record: %+v", result.Failures[0])
	}

	if result.Failed() {
		t.Error("Failed() = true with partial success")
	}
}

func TestRetrieveAllFailed(t *testing.T) {
	r := New(buildCatalog(t), testLogger())

	result, err := r.Retrieve(context.Background(), []planner.PlanItem{{ProductID: "broken"}})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if !result.Failed() {
		t.Error("Failed() = false, want true when every product failed")
	}
}

func TestRetrieveEmptyPlan(t *testing.T) {
	r := New(buildCatalog(t), testLogger())

	result, err := r.Retrieve(context.Background(), nil)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(result.Products) != 0 || len(result.Failures) != 0 {
		t.Errorf("empty plan produced %+v", result)
	}
	if result.Failed() {
		t.Error("Failed() = true for empty plan")
	}
}

func TestRetrieveEmptyPlanIgnoresEmptyCatalog(t *testing.T) {
	empty, err := catalog.New(nil)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	r := New(empty, testLogger())

	result, err := r.Retrieve(context.Background(), nil)
	if err != nil {
		t.Fatalf("Retrieve() error = %v, want nil when nothing is planned", err)
	}
	if len(result.Products) != 0 || len(result.Failures) != 0 {
		t.Errorf("empty plan produced %+v", result)
	}
}

func TestRetrieveFatalConditions(t *testing.T) {
	t.Run("empty catalog", func(t *testing.T) {
		empty, _ := catalog.New(nil)
		r := New(empty, testLogger())

		_, err := r.Retrieve(context.Background(), []planner.PlanItem{{ProductID: "top10"}})
		var fatal *FatalError
		if !errors.As(err, &fatal) {
			t.Errorf("error = %v, want *FatalError", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		r := New(buildCatalog(t), testLogger())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := r.Retrieve(ctx, []planner.PlanItem{{ProductID: "top10"}})
		var fatal *FatalError
		if !errors.As(err, &fatal) {
			t.Errorf("error = %v, want *FatalError", err)
		}
	})
}
