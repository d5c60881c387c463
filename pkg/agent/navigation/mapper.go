package navigation

import (
	"crm-analytics-be/pkg/agent/catalog"
	"crm-analytics-be/pkg/agent/planner"
)

// Target is the single suggested dashboard destination for an answer.
type Target struct {
	Route string
	Label string
}

// Mapper derives at most one navigation target from the plan. The UI
// model assumes single-destination navigation per answer.
type Mapper struct {
	catalog *catalog.Catalog
}

func New(cat *catalog.Catalog) *Mapper {
	return &Mapper{catalog: cat}
}

// Map returns the route of the first plan item (in the planner's
// priority order) that has a registered dashboard route, or nil if none
// qualifies.
func (m *Mapper) Map(items []planner.PlanItem) *Target {
	for _, item := range items {
		product, ok := m.catalog.Get(item.ProductID)
		if !ok || product.Route == "" {
			continue
		}
		return &Target{Route: product.Route, Label: product.Label}
	}
	return nil
}
