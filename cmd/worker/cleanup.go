package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jhoicas/inventory-service/internal/app"
)

var cleanupDays int

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Elimina una vez los eventos procesados más antiguos que --days",
	RunE:  runCleanup,
}

func init() {
	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 0, "días de retención (0 = IDEMPOTENCY_RETENTION_DAYS)")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, l, err := setup()
	if err != nil {
		return err
	}
	days := cleanupDays
	if days == 0 {
		days = cfg.Idempotency.RetentionDays
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Idempotency.CleanupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Idempotency.CleanupTimeout)
		defer cancel()
	}

	c, err := app.New(ctx, cfg, l, app.Options{})
	if err != nil {
		return err
	}
	defer c.Close()

	deleted, err := c.Idempotency.CleanupOldEvents(ctx, days)
	if err != nil {
		return err
	}
	l.Info().Int("retention_days", days).Int64("deleted", deleted).Msg("limpieza manual completada")
	return nil
}
