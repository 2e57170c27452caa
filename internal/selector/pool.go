package selector

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/carmandale/spy-fly/internal/ranking"
	"github.com/carmandale/spy-fly/internal/spread"
)

// scored is the outcome for one candidate. Rejected entries carry a reason.
type scored struct {
	rec    ranking.Recommendation
	ok     bool
	reason string
}

type scoreFunc func(c spread.Candidate) scored

// scoreAll runs fn over candidates on a fixed number of workers. Results are
// written by index so output order matches input order.
func scoreAll(ctx context.Context, candidates []spread.Candidate, workers int, fn scoreFunc, logger *zap.Logger) []scored {
	results := make([]scored, len(candidates))
	if len(candidates) == 0 {
		return results
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	jobs := make(chan int, len(candidates))

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			n := worker(ctx, jobs, candidates, results, fn)
			logger.Debug("scoring worker finished", zap.Int("worker", workerID), zap.Int("scored", n))
		}(i)
	}

	// Send jobs
	for i := range candidates {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

func worker(ctx context.Context, jobs <-chan int, candidates []spread.Candidate, results []scored, fn scoreFunc) int {
	n := 0
	for i := range jobs {
		select {
		case <-ctx.Done():
			results[i] = scored{reason: "cancelled"}
			continue
		default:
		}
		results[i] = fn(candidates[i])
		n++
	}
	return n
}
