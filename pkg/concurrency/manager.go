// Package concurrency sizes the worker pools the pipeline stages run under.
// Limits are keyed by operation kind so disk-bound and CPU-bound work get
// different ceilings.
package concurrency

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Operation string

const (
	OpHash      Operation = "hash"
	OpExif      Operation = "exif"
	OpDuplicate Operation = "duplicate"
	OpFileIO    Operation = "file_io"
	OpMoveCopy  Operation = "move_copy"
	OpOther     Operation = "other"
)

// Manager holds the process-wide concurrency configuration. The core count is
// cached once; adaptive overrides are applied per operation.
type Manager struct {
	cores int

	mu        sync.Mutex
	overrides map[Operation]int
	logged    map[Operation]struct{}
}

func NewManager() *Manager {
	return &Manager{
		cores:     runtime.NumCPU(),
		overrides: make(map[Operation]int),
		logged:    make(map[Operation]struct{}),
	}
}

// Cores returns the cached CPU core count.
func (m *Manager) Cores() int {
	return m.cores
}

// Limit returns the worker ceiling for the given operation. The first lookup
// per operation is logged.
func (m *Manager) Limit(op Operation) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	limit, ok := m.overrides[op]
	if !ok {
		limit = m.defaultLimit(op)
	}

	if _, seen := m.logged[op]; !seen {
		m.logged[op] = struct{}{}
		zap.S().Debugw("concurrency limit resolved", "operation", string(op), "limit", limit, "cores", m.cores)
	}

	return limit
}

func (m *Manager) defaultLimit(op Operation) int {
	switch op {
	case OpHash:
		return m.cores * 4
	case OpExif:
		return clamp(m.cores*8, 1, 32)
	case OpDuplicate:
		return m.cores * 2
	case OpFileIO, OpMoveCopy:
		return clamp(m.cores*2, 4, 128)
	default:
		return m.cores * 2
	}
}

// Adapt rescales an operation's limit from a recent-performance metric list.
// Average throughput above threshold triples the limit; below half of the
// threshold it is cut in two.
func (m *Manager) Adapt(op Operation, metrics []float64, threshold float64) {
	if len(metrics) == 0 {
		return
	}

	sum := 0.0
	for _, v := range metrics {
		sum += v
	}
	avg := sum / float64(len(metrics))

	m.mu.Lock()
	defer m.mu.Unlock()

	base, ok := m.overrides[op]
	if !ok {
		base = m.defaultLimit(op)
	}

	switch {
	case avg > threshold:
		m.overrides[op] = clamp(base*3, 1, 256)
	case avg < threshold/2:
		m.overrides[op] = clamp(base/2, 1, 256)
	default:
		return
	}

	zap.S().Debugw("concurrency limit adapted", "operation", string(op), "limit", m.overrides[op], "avg_metric", avg)
}

// Do runs fn for every index 0..n-1 under the operation's worker limit and
// returns the first error, if any.
func (m *Manager) Do(ctx context.Context, op Operation, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.Limit(op))
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			return fn(gctx, i)
		})
	}
	return g.Wait()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
