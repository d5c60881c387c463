package memory

import (
	"testing"

	"github.com/google/uuid"
)

func TestIncrementAndCount(t *testing.T) {
	repo := NewUsageRepository()
	user := uuid.New()

	if got := repo.Count(user); got != 0 {
		t.Errorf("Count() = %d before any increment, want 0", got)
	}

	for i := 1; i <= 3; i++ {
		if got := repo.Increment(user); got != i {
			t.Errorf("Increment() #%d = %d, want %d", i, got, i)
		}
	}

	if got := repo.Count(user); got != 3 {
		t.Errorf("Count() = %d, want 3", got)
	}
}

func TestCountersAreIsolatedPerUser(t *testing.T) {
	repo := NewUsageRepository()
	a, b := uuid.New(), uuid.New()

	repo.Increment(a)
	repo.Increment(a)

	if got := repo.Count(b); got != 0 {
		t.Errorf("Count(other user) = %d, want 0", got)
	}
	if got := repo.Count(a); got != 2 {
		t.Errorf("Count(a) = %d, want 2", got)
	}
}
