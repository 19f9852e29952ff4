package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/careops-labs/careboard/pkg/core"
)

// RefreshDashboard executes every widget concurrently and returns one
// result per widget id. Widgets are independent: one widget's failure
// never affects another's result, and the refresh always returns a
// complete map.
func (d *Dispatcher) RefreshDashboard(ctx context.Context, widgets []core.WidgetDefinition, filters core.GlobalFilterSet) map[string]core.ExecutionResult {
	results := make(map[string]core.ExecutionResult, len(widgets))
	if len(widgets) == 0 {
		return results
	}

	start := time.Now()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, widget := range widgets {
		wg.Add(1)
		go func(w core.WidgetDefinition) {
			defer wg.Done()
			res := d.safeExecute(ctx, w, filters)
			mu.Lock()
			results[w.ID] = res
			mu.Unlock()
		}(widget)
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	d.logger.Info("dashboard refresh complete",
		"widgets", len(widgets),
		"failed", failed,
		"elapsed", time.Since(start))

	return results
}
