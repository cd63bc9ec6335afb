package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jhoicas/inventory-service/pkg/config"
	"github.com/jhoicas/inventory-service/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consumidor de eventos de inventario",
	Long: `Procesa eventos de dominio desde Kafka con garantía de idempotencia,
registra los movimientos en el ledger de inventario y limpia periódicamente
los registros de eventos procesados.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		if err := cmd.Help(); err != nil {
			log.Error().Err(err).Msg("mostrar ayuda")
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd, cleanupCmd)
}

// setup carga la configuración y el logger comunes a todos los subcomandos.
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	l := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	return cfg, l, nil
}
