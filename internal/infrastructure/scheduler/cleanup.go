package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// Cleaner borra registros de idempotencia más antiguos que days días.
type Cleaner interface {
	CleanupOldEvents(ctx context.Context, days int) (int64, error)
}

// CleanupJob tarea periódica de limpieza de processed_events.
type CleanupJob struct {
	cleaner       Cleaner
	retentionDays int
	timeout       time.Duration
	log           zerolog.Logger
}

// NewCleanupJob construye la tarea. timeout acota cada ejecución.
func NewCleanupJob(c Cleaner, retentionDays int, timeout time.Duration, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{cleaner: c, retentionDays: retentionDays, timeout: timeout, log: log}
}

// Run ejecuta una limpieza. Todo error (incluido timeout o panic) se registra y se descarta:
// la siguiente ejecución programada es el reintento.
func (j *CleanupJob) Run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			j.log.Error().Interface("panic", r).Msg("limpieza de eventos abortada")
		}
	}()

	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	start := time.Now()
	deleted, err := j.cleaner.CleanupOldEvents(ctx, j.retentionDays)
	if err != nil {
		j.log.Error().Err(err).
			Int("retention_days", j.retentionDays).
			Int64("deleted", deleted).
			Dur("elapsed", time.Since(start)).
			Msg("falló la limpieza de eventos procesados")
		return
	}
	j.log.Info().
		Int("retention_days", j.retentionDays).
		Int64("deleted", deleted).
		Dur("elapsed", time.Since(start)).
		Msg("limpieza de eventos procesados completada")
}

// New crea un scheduler gocron con la limpieza registrada según cronExpr (5 campos).
// El modo singleton evita ejecuciones solapadas. ctx es el contexto base de cada ejecución;
// el llamador debe invocar Start y, al terminar, Shutdown.
func New(ctx context.Context, cronExpr string, job *CleanupJob) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("crear scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() { job.Run(ctx) }),
		gocron.WithName("processed-events-cleanup"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("registrar limpieza (%q): %w", cronExpr, err)
	}
	return s, nil
}
