package warehouse

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"crm-analytics-be/pkg/agent/catalog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// cacheTTL bounds how stale a cached product payload may be. Caching
// lives here, inside the retrieval collaborator; the agent pipeline
// always fetches fresh per request.
const cacheTTL = 5 * time.Minute

// Repository runs the precomputed analytics queries behind each data
// product. Redis is optional; when present, payloads are served
// read-through with a short TTL.
type Repository struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewRepository(db *gorm.DB, rdb *redis.Client) *Repository {
	return &Repository{db: db, rdb: rdb}
}

// TopServiceCategories ranks the ten highest-revenue service categories.
func (r *Repository) TopServiceCategories(ctx context.Context) (catalog.DataProduct, error) {
	return r.cached(ctx, "top10", func() (catalog.DataProduct, error) {
		var rows []struct {
			Category string  `json:"category"`
			Revenue  float64 `json:"revenue"`
			Count    int64   `json:"count"`
		}
		err := r.db.WithContext(ctx).
			Model(&serviceRecordModel{}).
			Select("category, SUM(revenue) AS revenue, COUNT(*) AS count").
			Group("category").
			Order("revenue DESC").
			Limit(10).
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("top service categories query: %w", err)
		}
		return catalog.DataProduct{"categories": rows}, nil
	})
}

// RevenueTrend aggregates service revenue per month over the last year.
func (r *Repository) RevenueTrend(ctx context.Context) (catalog.DataProduct, error) {
	return r.cached(ctx, "revenue_trend", func() (catalog.DataProduct, error) {
		var rows []struct {
			Month   time.Time `json:"month"`
			Revenue float64   `json:"revenue"`
		}
		err := r.db.WithContext(ctx).
			Model(&serviceRecordModel{}).
			Select("DATE_TRUNC('month', created_at) AS month, SUM(revenue) AS revenue").
			Where("created_at >= ?", time.Now().AddDate(-1, 0, 0)).
			Group("month").
			Order("month ASC").
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("revenue trend query: %w", err)
		}
		return catalog.DataProduct{"points": rows}, nil
	})
}

// CustomerGrowth counts new customers per month over the last year.
func (r *Repository) CustomerGrowth(ctx context.Context) (catalog.DataProduct, error) {
	return r.cached(ctx, "customer_growth", func() (catalog.DataProduct, error) {
		var rows []struct {
			Month     time.Time `json:"month"`
			Customers int64     `json:"customers"`
		}
		err := r.db.WithContext(ctx).
			Model(&customerModel{}).
			Select("DATE_TRUNC('month', created_at) AS month, COUNT(*) AS customers").
			Where("created_at >= ?", time.Now().AddDate(-1, 0, 0)).
			Group("month").
			Order("month ASC").
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("customer growth query: %w", err)
		}
		return catalog.DataProduct{"points": rows}, nil
	})
}

// DealPipeline sums open deal value per stage.
func (r *Repository) DealPipeline(ctx context.Context) (catalog.DataProduct, error) {
	return r.cached(ctx, "deal_pipeline", func() (catalog.DataProduct, error) {
		var rows []struct {
			Stage string  `json:"stage"`
			Value float64 `json:"value"`
			Count int64   `json:"count"`
		}
		err := r.db.WithContext(ctx).
			Model(&dealModel{}).
			Select("stage, SUM(value) AS value, COUNT(*) AS count").
			Where("stage NOT IN ?", []string{"closed_won", "closed_lost"}).
			Group("stage").
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("deal pipeline query: %w", err)
		}
		return catalog.DataProduct{"stages": rows}, nil
	})
}

// ChurnRisk lists the customers most likely to churn.
func (r *Repository) ChurnRisk(ctx context.Context) (catalog.DataProduct, error) {
	return r.cached(ctx, "churn_risk", func() (catalog.DataProduct, error) {
		var rows []struct {
			Name       string  `json:"name"`
			Segment    string  `json:"segment"`
			ChurnScore float64 `json:"churn_score"`
		}
		err := r.db.WithContext(ctx).
			Model(&customerModel{}).
			Select("name, segment, churn_score").
			Where("churn_score >= ?", 0.7).
			Order("churn_score DESC").
			Limit(20).
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("churn risk query: %w", err)
		}
		return catalog.DataProduct{"customers": rows}, nil
	})
}

// cached serves the payload from redis when fresh, falling back to the
// query on miss or when redis is absent. Cache failures are never
// fatal; the query result wins.
func (r *Repository) cached(ctx context.Context, key string, load func() (catalog.DataProduct, error)) (catalog.DataProduct, error) {
	cacheKey := "warehouse:product:" + key

	if r.rdb != nil {
		if raw, err := r.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var payload catalog.DataProduct
			if err := json.Unmarshal(raw, &payload); err == nil {
				return payload, nil
			}
		}
	}

	payload, err := load()
	if err != nil {
		return nil, err
	}

	if r.rdb != nil {
		if raw, err := json.Marshal(payload); err == nil {
			r.rdb.Set(ctx, cacheKey, raw, cacheTTL)
		}
	}

	return payload, nil
}

// Table bindings. The warehouse reads the CRM tables that the dashboard
// writes; only the columns the queries touch are declared.

type serviceRecordModel struct{}

func (serviceRecordModel) TableName() string { return "service_records" }

type customerModel struct{}

func (customerModel) TableName() string { return "customers" }

type dealModel struct{}

func (dealModel) TableName() string { return "deals" }
