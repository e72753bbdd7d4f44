package shader

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-gl/common"
)

// VariantRequest names one variant to be produced ahead of first use.
type VariantRequest struct {
	Name    string
	Dialect Dialect
	Options VariantOptions
}

// Prewarm processes every requested variant on a worker pool so that later GetVariant calls are
// cache hits. All requests are attempted; failures are joined into the returned error.
//
// Parameters:
//   - reg: the registry to fill
//   - requests: the variants to produce
//   - workers: the maximum number of concurrent workers; values <= 0 use runtime.NumCPU
//
// Returns:
//   - error: the joined errors of every failed request, or nil
func Prewarm(reg Registry, requests []VariantRequest, workers int) error {
	if len(requests) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	pool := worker.NewDynamicWorkerPool(workers, len(requests), 1*time.Second)
	defer pool.Stop()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i, req := range requests {
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID:      i,
			Payload: req,
			Do: func() (any, error) {
				defer wg.Done()
				v, err := reg.GetVariant(req.Name, req.Dialect, req.Options)
				if err != nil {
					mu.Lock()
					errs = append(errs, fmt.Errorf("prewarm %s (%s): %w", req.Name, req.Dialect, err))
					mu.Unlock()
					return nil, err
				}
				return v, nil
			},
		})
	}
	wg.Wait()

	common.Logger().Debug("shader prewarm finished", "requests", len(requests), "failed", len(errs))
	return errors.Join(errs...)
}
