package trajectory

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/conformalab/samplequal/pkg/errors"
	"github.com/conformalab/samplequal/pkg/interfaces"
	"github.com/conformalab/samplequal/pkg/models"
)

// ParallelLoad loads every path pair through the loader using a bounded
// worker pool. Results preserve input order: result i always corresponds
// to pairs[i]. The first failure cancels the remaining loads and is
// returned with the offending path attached; there is no partial result.
func ParallelLoad(ctx context.Context, pairs []interfaces.PathPair, loader interfaces.TrajectoryLoader, workers int, logger *logrus.Logger) ([]*models.Trajectory, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if loader == nil {
		return nil, errors.NewInternalError("trajectory loader is required")
	}
	if len(pairs) == 0 {
		return nil, errors.NewConfigurationError(errors.CodeEmptyTrajectoryList,
			"no trajectory paths to load")
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(pairs) {
		workers = len(pairs)
	}

	loadCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*models.Trajectory, len(pairs))
	semaphore := make(chan struct{}, workers)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		loaded   int32
	)

	start := time.Now()
	for i, pair := range pairs {
		wg.Add(1)
		go func(idx int, p interfaces.PathPair) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-loadCtx.Done():
				return
			}
			if loadCtx.Err() != nil {
				return
			}

			trj, err := loader.Load(loadCtx, p.Trajectory, p.Topology)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					if _, ok := err.(*errors.AppError); ok {
						firstErr = err
					} else {
						firstErr = errors.NewPathError(err, p.Trajectory)
					}
				}
				mu.Unlock()
				cancel()
				return
			}
			results[idx] = trj
			atomic.AddInt32(&loaded, 1)
		}(i, pair)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeLoader, errors.CodeLoadCancelled,
			fmt.Sprintf("trajectory load cancelled after %d of %d", atomic.LoadInt32(&loaded), len(pairs)))
	}

	logger.WithFields(logrus.Fields{
		"trajectories": len(pairs),
		"workers":      workers,
		"duration":     time.Since(start),
	}).Info("Loaded trajectories")

	return results, nil
}
