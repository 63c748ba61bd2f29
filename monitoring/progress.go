package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar tracks how many requests of a replay have been served.
// Total is zero when the replay has no known end.
type ProgressBar struct {
	sync.Mutex
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Finished  uint64    `json:"finished"`
	Failed    uint64    `json:"failed"`
}

// IncrementFinished counts served requests.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// IncrementFailed counts requests that were served as errors, such as
// addresses outside of the pages of a process.
func (b *ProgressBar) IncrementFailed(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Failed += amount
	b.Finished += amount
}
