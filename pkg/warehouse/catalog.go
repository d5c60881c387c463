package warehouse

import (
	"crm-analytics-be/pkg/agent/catalog"
)

// BuildCatalog binds every data product to its warehouse query and
// dashboard route. Declaration order is the planner's tie-break order,
// so the most commonly asked-for products come first.
func BuildCatalog(repo *Repository) (*catalog.Catalog, error) {
	return catalog.New([]catalog.Product{
		{
			ID:    "top10",
			Label: "Top Service Categories",
			Route: "/dashboard/analytics/top10",
			Tags:  []string{"top", "categories", "services", "ranking", "best"},
			Fetch: repo.TopServiceCategories,
		},
		{
			ID:    "revenue_trend",
			Label: "Revenue Trend",
			Route: "/dashboard/analytics/revenue",
			Tags:  []string{"revenue", "trend", "growth", "monthly", "income"},
			Fetch: repo.RevenueTrend,
		},
		{
			ID:    "customer_growth",
			Label: "Customer Growth",
			Route: "/dashboard/analytics/customers",
			Tags:  []string{"customers", "growth", "acquisition", "signups"},
			Fetch: repo.CustomerGrowth,
		},
		{
			ID:    "deal_pipeline",
			Label: "Deal Pipeline",
			Route: "/dashboard/analytics/pipeline",
			Tags:  []string{"deals", "pipeline", "sales", "stages", "conversion"},
			Fetch: repo.DealPipeline,
		},
		{
			// No dedicated dashboard page yet, so no route: the agent
			// can cite it but never navigates to it.
			ID:    "churn_risk",
			Label: "Churn Risk",
			Route: "",
			Tags:  []string{"churn", "retention", "risk", "at-risk"},
			Fetch: repo.ChurnRisk,
		},
	})
}
