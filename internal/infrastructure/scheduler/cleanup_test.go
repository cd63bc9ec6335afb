package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventory-service/internal/infrastructure/scheduler"
)

type cleanerFunc func(ctx context.Context, days int) (int64, error)

func (f cleanerFunc) CleanupOldEvents(ctx context.Context, days int) (int64, error) {
	return f(ctx, days)
}

func TestCleanupJob_PasaRetencion(t *testing.T) {
	var got int
	job := scheduler.NewCleanupJob(cleanerFunc(func(_ context.Context, days int) (int64, error) {
		got = days
		return 3, nil
	}), 30, time.Second, zerolog.Nop())

	job.Run(context.Background())
	assert.Equal(t, 30, got)
}

func TestCleanupJob_ErrorNoSePropaga(t *testing.T) {
	job := scheduler.NewCleanupJob(cleanerFunc(func(context.Context, int) (int64, error) {
		return 0, errors.New("conexión perdida")
	}), 30, time.Second, zerolog.Nop())

	assert.NotPanics(t, func() { job.Run(context.Background()) })
}

func TestCleanupJob_PanicSeRecupera(t *testing.T) {
	job := scheduler.NewCleanupJob(cleanerFunc(func(context.Context, int) (int64, error) {
		panic("nil pointer")
	}), 30, time.Second, zerolog.Nop())

	assert.NotPanics(t, func() { job.Run(context.Background()) })
}

func TestCleanupJob_TimeoutAcotaEjecucion(t *testing.T) {
	job := scheduler.NewCleanupJob(cleanerFunc(func(ctx context.Context, _ int) (int64, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}), 30, 20*time.Millisecond, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		job.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("la limpieza no respetó el timeout")
	}
}

func TestNew_CronInvalido(t *testing.T) {
	job := scheduler.NewCleanupJob(cleanerFunc(func(context.Context, int) (int64, error) { return 0, nil }), 30, time.Second, zerolog.Nop())
	_, err := scheduler.New(context.Background(), "no es cron", job)
	assert.Error(t, err)
}

func TestNew_RegistraTarea(t *testing.T) {
	job := scheduler.NewCleanupJob(cleanerFunc(func(context.Context, int) (int64, error) { return 0, nil }), 30, time.Second, zerolog.Nop())
	s, err := scheduler.New(context.Background(), "0 2 * * *", job)
	require.NoError(t, err)
	defer func() { _ = s.Shutdown() }()

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "processed-events-cleanup", jobs[0].Name())
}
