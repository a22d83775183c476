package index

import (
	"context"
	"time"
)

// ReconcileResult holds the outcome of one drift-repair pass.
type ReconcileResult struct {
	Added    int // paths on disk but missing from the index
	Removed  int // paths in the index but gone from disk
	Duration time.Duration
}

// Reconcile compares the filesystem with the current snapshot and repairs
// drift in both directions. Watcher events normally keep the index in sync;
// this catches anything missed while events were dropped or the process was
// busy.
func (fi *FileIndex) Reconcile(ctx context.Context) ReconcileResult {
	start := time.Now()
	var result ReconcileResult

	onDisk, err := fi.walkFiles(ctx)
	if err != nil {
		fi.logger.Warn("reconcile walk failed", "error", err)
		return ReconcileResult{Duration: time.Since(start)}
	}

	diskSet := make(map[string]struct{}, len(onDisk))
	for _, path := range onDisk {
		diskSet[path] = struct{}{}
		if fi.OnCreate(path) {
			result.Added++
		}
	}

	for _, path := range fi.Snapshot() {
		if _, exists := diskSet[path]; !exists {
			fi.OnDelete(path)
			result.Removed++
		}
	}

	result.Duration = time.Since(start)
	return result
}

// RunPeriodicReconcile reconciles at the given interval until ctx is done.
func (fi *FileIndex) RunPeriodicReconcile(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fi.logger.Info("periodic reconcile started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			fi.logger.Info("periodic reconcile stopped")
			return
		case <-ticker.C:
			result := fi.Reconcile(ctx)
			if result.Added > 0 || result.Removed > 0 {
				fi.logger.Info("reconcile repaired drift",
					"added", result.Added,
					"removed", result.Removed,
					"duration", result.Duration,
				)
			} else {
				fi.logger.Debug("reconcile found index in sync", "duration", result.Duration)
			}
		}
	}
}
