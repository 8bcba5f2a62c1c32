package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/N1seb/Render/internal/pkg/metrics"
	"github.com/N1seb/Render/internal/ports/jobs"
	"github.com/N1seb/Render/internal/ports/service"
)

type Config struct {
	// RetryDelays паузы между повторами упавшего запуска
	RetryDelays []time.Duration `envconfig:"RETRY_DELAYS" default:"1m,10m,30m"`
}

// Scheduler управляет запуском периодических джоб
type Scheduler struct {
	jobs           []jobs.Job
	retries        []time.Duration
	alerterService service.IAlerterService
	metrics        *metrics.Metrics
	log            *slog.Logger
}

// NewScheduler создаёт новый планировщик джоб
func NewScheduler(cfg Config, alerterService service.IAlerterService, m *metrics.Metrics, log *slog.Logger) *Scheduler {
	return &Scheduler{
		jobs:           make([]jobs.Job, 0),
		retries:        cfg.RetryDelays,
		alerterService: alerterService,
		metrics:        m,
		log:            log.With("component", "scheduler"),
	}
}

// Register регистрирует джобу в планировщике
func (s *Scheduler) Register(job jobs.Job) {
	s.jobs = append(s.jobs, job)
	s.log.Debug("job registered", "job_name", job.Name(), "total_jobs", len(s.jobs))
}

// Run запускает все джобы и ждёт их остановки по ctx
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.jobs) == 0 {
		s.log.Warn("no jobs registered, scheduler not started")
		return nil
	}

	s.log.Info("starting job scheduler", "jobs_count", len(s.jobs))

	var wg sync.WaitGroup
	for _, job := range s.jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runJob(ctx, job)
		}()
	}
	wg.Wait()

	s.log.Info("job scheduler stopped")
	return nil
}

// runJob запускает отдельную джобу в цикле
func (s *Scheduler) runJob(ctx context.Context, job jobs.Job) {
	jobName := job.Name()
	for {
		now := time.Now()
		timer := time.NewTimer(job.NextRun(now).Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("job stopped by context", "job_name", jobName)
			return
		case <-timer.C:
			attemptErrors := s.executeJobWithRetry(ctx, job)
			if len(attemptErrors) == 0 {
				s.log.Debug("job executed successfully", "job_name", jobName)
				continue
			}
			if ctx.Err() != nil {
				return
			}
			s.log.Error("job failed after all retries",
				"job_name", jobName,
				"attempts", len(attemptErrors),
				"last_error", attemptErrors[len(attemptErrors)-1].error,
			)
			s.sendAlert(ctx, jobName, attemptErrors)
		}
	}
}

// jobAttemptError представляет ошибку конкретной попытки выполнения джобы
type jobAttemptError struct {
	attempt int
	error   error
}

// executeJobWithRetry выполняет джобу с retry при ошибках.
// Пустой список значит успех, иначе ошибки всех попыток
func (s *Scheduler) executeJobWithRetry(ctx context.Context, job jobs.Job) []jobAttemptError {
	var attemptErrors []jobAttemptError

	for attempt := 1; ; attempt++ {
		err := s.runOnce(ctx, job)
		if err == nil {
			return nil
		}
		attemptErrors = append(attemptErrors, jobAttemptError{attempt: attempt, error: err})

		if attempt > len(s.retries) {
			return attemptErrors
		}

		s.log.Warn("job execution failed, will retry",
			"job_name", job.Name(),
			"attempt", attempt,
			"retries_remaining", len(s.retries)-attempt+1,
			"error", err,
		)

		timer := time.NewTimer(s.retries[attempt-1])
		select {
		case <-ctx.Done():
			timer.Stop()
			return attemptErrors
		case <-timer.C:
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job jobs.Job) error {
	started := time.Now()
	err := job.Run(ctx)
	s.metrics.ObserveJob(job.Name(), time.Since(started), err)
	return err
}

// sendAlert алертит на финальную ошибку после ретраев
func (s *Scheduler) sendAlert(ctx context.Context, jobName string, attemptErrors []jobAttemptError) {
	if s.alerterService == nil {
		return
	}

	var errorLines []string
	for _, attemptErr := range attemptErrors {
		errorLines = append(errorLines, fmt.Sprintf("Попытка %d: %s", attemptErr.attempt, attemptErr.error.Error()))
	}

	var message strings.Builder
	message.WriteString("⚠️ Финальная ошибка планировщика, ретраи исчерпаны\n\n")
	message.WriteString(fmt.Sprintf("Джоба: %s\n\n", jobName))
	message.WriteString("Ошибки попыток:\n")
	message.WriteString(strings.Join(errorLines, "\n"))

	if alertErr := s.alerterService.SendAlert(ctx, message.String()); alertErr != nil {
		s.log.Warn("failed to send job failure alert",
			"job_name", jobName,
			"error", alertErr,
		)
	}
}
