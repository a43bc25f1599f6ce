package CronJobs

import (
	"fmt"
	"time"

	"github.com/gurunathasmb/Major-project/Models"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
)

// Enqueuer accepts cephalograms for asynchronous analysis.
type Enqueuer interface {
	Enqueue(cephalogramID uint) bool
}

// AnalysisRetry requeues failed analyses, pending uploads that never got
// picked up and processing runs that outlived their lease, for example
// because the server restarted mid-run.
type AnalysisRetry struct {
	Queue       Enqueuer
	MaxAttempts int
	// Pending cephalograms younger than this are assumed to be queued already.
	PendingGrace time.Duration
	// Processing cephalograms untouched for longer than this lost their run.
	Lease time.Duration
}

func NewAnalysisRetry(queue Enqueuer, maxAttempts int, lease time.Duration) *AnalysisRetry {
	return &AnalysisRetry{
		Queue:        queue,
		MaxAttempts:  maxAttempts,
		PendingGrace: time.Minute,
		Lease:        lease,
	}
}

// StartRetryCron runs Requeue every interval minutes.
func (ar *AnalysisRetry) StartRetryCron(intervalMinutes int) (*gocron.Scheduler, error) {
	if intervalMinutes < 1 {
		intervalMinutes = 1
	}
	scheduler := gocron.NewScheduler(time.Local)

	_, err := scheduler.Every(intervalMinutes).Minutes().Do(func() {
		n, err := ar.Requeue()
		if err != nil {
			log.Error().Err(err).Msg("analysis retry failed")
			return
		}
		if n > 0 {
			log.Info().Int("requeued", n).Msg("analysis retry")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule analysis retry: %w", err)
	}

	scheduler.StartAsync()
	log.Info().Int("interval_minutes", intervalMinutes).Msg("analysis retry cron job started")
	return scheduler, nil
}

// Requeue enqueues every retryable cephalogram and returns how many were
// accepted.
func (ar *AnalysisRetry) Requeue() (int, error) {
	now := time.Now()
	cephs, err := Models.ListRetryable(ar.MaxAttempts, now.Add(-ar.PendingGrace), now.Add(-ar.Lease))
	if err != nil {
		return 0, fmt.Errorf("failed to query retryable cephalograms: %w", err)
	}

	queued := 0
	for _, ceph := range cephs {
		if !ar.Queue.Enqueue(ceph.ID) {
			log.Warn().Str("cephalogram", ceph.Code).Msg("analysis queue rejected retry")
			continue
		}
		queued++
	}
	return queued, nil
}
