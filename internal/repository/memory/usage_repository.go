package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// UsageRepository tracks per-user daily chat counts in process memory.
// Counts survive for a day and vanish on restart, which is acceptable
// for a soft limit.
type UsageRepository struct {
	cache *cache.Cache
}

func NewUsageRepository() *UsageRepository {
	c := cache.New(24*time.Hour, 1*time.Hour)
	return &UsageRepository{cache: c}
}

func (r *UsageRepository) key(userId uuid.UUID) string {
	return fmt.Sprintf("usage:%s:%s", userId, time.Now().Format("2006-01-02"))
}

// Increment bumps today's counter for the user and returns the new value.
func (r *UsageRepository) Increment(userId uuid.UUID) int {
	k := r.key(userId)
	if err := r.cache.Add(k, 1, cache.DefaultExpiration); err == nil {
		return 1
	}
	n, err := r.cache.IncrementInt(k, 1)
	if err != nil {
		r.cache.Set(k, 1, cache.DefaultExpiration)
		return 1
	}
	return n
}

// Count returns today's counter without changing it.
func (r *UsageRepository) Count(userId uuid.UUID) int {
	if v, found := r.cache.Get(r.key(userId)); found {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return 0
}
