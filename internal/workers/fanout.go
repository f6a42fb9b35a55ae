package workers

import (
	"sync"

	"go.uber.org/zap"

	"github.com/atlas-desktop/macrosignal/internal/engine"
	"github.com/atlas-desktop/macrosignal/pkg/types"
)

// Fleet drives a set of independent Engine Facades (one per instrument)
// in parallel, one worker-pool task per facade per step. Facades share no
// mutable state (spec.md §5's parallelism boundary), so the pool's normal
// panic-recovery and timeout machinery is sufficient isolation between
// instruments: one facade's failure cannot corrupt another's state.
type Fleet struct {
	pool    *Pool
	batch   *BatchProcessor
	facades map[string]*engine.Facade
}

// NewFleet wraps facades (keyed by pair name) in a worker pool sized to the
// fleet, one worker per instrument so every facade can run concurrently.
func NewFleet(facades map[string]*engine.Facade, logger *zap.Logger) *Fleet {
	cfg := DefaultPoolConfig("engine-fleet")
	if n := len(facades); n > 0 {
		cfg.NumWorkers = n
	} else {
		cfg.NumWorkers = 1
	}

	pool := NewPool(logger, cfg)
	pool.Start()

	return &Fleet{
		pool:    pool,
		batch:   NewBatchProcessor(pool, cfg.NumWorkers),
		facades: facades,
	}
}

// StepAll steps every facade once with its corresponding observation from
// obsByPair (a pair absent from obsByPair steps with an empty Observation,
// which defaults every indicator per spec.md §3), returning each facade's
// StepResult keyed by pair name.
func (f *Fleet) StepAll(obsByPair map[string]types.Observation) (map[string]types.StepResult, error) {
	results := make(map[string]types.StepResult, len(f.facades))
	var mu sync.Mutex

	items := make([]interface{}, 0, len(f.facades))
	for pair := range f.facades {
		items = append(items, pair)
	}

	err := f.batch.ProcessBatch(items, func(item interface{}) error {
		pair := item.(string)
		facade := f.facades[pair]
		res := facade.Step(obsByPair[pair])

		mu.Lock()
		results[pair] = res
		mu.Unlock()
		return nil
	})

	return results, err
}

// Stop gracefully shuts down the fleet's worker pool.
func (f *Fleet) Stop() error {
	return f.pool.Stop()
}
