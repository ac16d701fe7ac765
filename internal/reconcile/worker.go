package reconcile

import (
	"context"
	"time"

	"kirana-oms/internal/logger"
	"kirana-oms/internal/metrics"

	"go.uber.org/zap"
)

// Result summarizes one reconciliation pass.
type Result struct {
	Examined int
	Applied  int
	Errors   int
}

// Job is one reconciliation sweep that can be run repeatedly.
type Job interface {
	Name() string
	Run(ctx context.Context) (Result, error)
}

// Clock abstracts time for the worker loop so tests drive ticks directly.
type Clock interface {
	Now() time.Time
	Tick(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Tick(d time.Duration) <-chan time.Time {
	return time.NewTicker(d).C
}

func NewClock() Clock { return realClock{} }

// Worker runs one job on a fixed interval until the context is cancelled.
type Worker struct {
	job      Job
	interval time.Duration
	clock    Clock
}

func NewWorker(job Job, interval time.Duration, clock Clock) *Worker {
	if clock == nil {
		clock = realClock{}
	}
	return &Worker{job: job, interval: interval, clock: clock}
}

func (w *Worker) Run(ctx context.Context) {
	log := logger.L().With(zap.String("job", w.job.Name()))
	log.Info("reconciliation worker started", zap.Duration("interval", w.interval))

	w.runOnce(ctx)

	ticks := w.clock.Tick(w.interval)
	for {
		select {
		case <-ctx.Done():
			log.Info("reconciliation worker stopped")
			return
		case <-ticks:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	_, err := w.job.Run(ctx)

	result := "ok"
	if err != nil {
		result = "error"
		logger.L().Error("reconciliation run failed",
			zap.String("job", w.job.Name()),
			zap.Error(err),
		)
	}
	metrics.ReconcileRunsTotal.WithLabelValues(w.job.Name(), result).Inc()
}
