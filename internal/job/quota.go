package job

import (
	"sync"

	"jobsieve/internal/util"
)

// CompanyQuota counts how many records each company has contributed to the
// accepted set within a single run. The orchestrator owns it for the run's
// lifetime and passes it by reference to the company cap stage only.
// TryAcquire is an atomic check-and-increment, so the cap invariant holds even
// if the filter phase is ever parallelized.
type CompanyQuota struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewCompanyQuota() *CompanyQuota {
	return &CompanyQuota{counts: make(map[string]int)}
}

// TryAcquire accepts one more record for the company unless the limit is
// already reached. It returns whether the slot was granted.
func (q *CompanyQuota) TryAcquire(company string, limit int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := util.Normalize(company)
	if q.counts[key] >= limit {
		return false
	}
	q.counts[key]++
	return true
}

// Count returns the number of accepted records for the company so far.
func (q *CompanyQuota) Count(company string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.counts[util.Normalize(company)]
}
