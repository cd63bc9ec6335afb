package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/inventory-service/internal/app"
	"github.com/jhoicas/inventory-service/internal/infrastructure/kafka"
	"github.com/jhoicas/inventory-service/internal/infrastructure/scheduler"
	"github.com/jhoicas/inventory-service/internal/interfaces/messaging"
	"github.com/jhoicas/inventory-service/pkg/telemetry"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Inicia el consumidor Kafka y la limpieza programada",
	RunE:  runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, l, err := setup()
	if err != nil {
		return err
	}
	log := l.Component("worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.App.Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn().Err(err).Msg("cerrar exportador de trazas")
		}
	}()

	c, err := app.New(ctx, cfg, l, app.Options{
		Registerer: prometheus.DefaultRegisterer,
		Publish:    true,
		Cache:      true,
	})
	if err != nil {
		return err
	}
	defer c.Close()

	newReader := func() messaging.Reader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Kafka.Brokers,
			Topic:       cfg.Kafka.Topic,
			GroupID:     cfg.Kafka.GroupID,
			StartOffset: cfg.Kafka.StartOffset,
		})
	}
	consumer := messaging.NewConsumer(
		newReader,
		c.Idempotency,
		c.Registry(l.Component("handlers")),
		c.Metrics,
		messaging.Config{
			Workers:        cfg.Kafka.Workers,
			ProcessTimeout: cfg.Kafka.ProcessTimeout,
			RetryBackoff:   cfg.Kafka.RetryBackoff,
		},
		l.Component("consumer"),
	)

	job := scheduler.NewCleanupJob(c.Idempotency, cfg.Idempotency.RetentionDays, cfg.Idempotency.CleanupTimeout, l.Component("scheduler"))
	sched, err := scheduler.New(ctx, cfg.Idempotency.CleanupCron, job)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("topic", cfg.Kafka.Topic).Str("group", cfg.Kafka.GroupID).Int("workers", cfg.Kafka.Workers).Msg("consumidor iniciado")
		return consumer.Run(ctx)
	})

	g.Go(func() error {
		log.Info().Str("cron", cfg.Idempotency.CleanupCron).Int("retention_days", cfg.Idempotency.RetentionDays).Msg("limpieza programada")
		sched.Start()
		<-ctx.Done()
		return sched.Shutdown()
	})

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			log.Info().Str("addr", cfg.Metrics.Addr).Msg("métricas escuchando")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("worker detenido")
	return nil
}
