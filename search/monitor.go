package search

import (
	"time"

	"github.com/poiesic/corpus/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track stage timings and intermediate
// result sets during a hybrid query. The legs run concurrently, so
// AfterDenseSearch and AfterSparseSearch may be invoked at the same
// time and implementations must be safe for that.
type SearchMonitor interface {
	Start(query string)
	AfterDenseSearch(matches []*core.Match, elapsed time.Duration)
	AfterSparseSearch(hits []core.SparseHit, elapsed time.Duration)
	AfterFusion(candidates []*core.Candidate)
	Finish(results []*core.Candidate, elapsed time.Duration)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                      {}
func (n *noopMonitor) AfterDenseSearch(_ []*core.Match, _ time.Duration)   {}
func (n *noopMonitor) AfterSparseSearch(_ []core.SparseHit, _ time.Duration) {}
func (n *noopMonitor) AfterFusion(_ []*core.Candidate)                     {}
func (n *noopMonitor) Finish(_ []*core.Candidate, _ time.Duration)         {}
