package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/stock-control-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-control-api/internal/infrastructure/postgres/migrations"
	"github.com/jhoicas/stock-control-api/pkg/config"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Aplica, revierte o muestra las migraciones del esquema",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE: func(cmd *cobra.Command, args []string) error {
		action := "up"
		if len(args) == 1 {
			action = args[0]
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		defer pool.Close()

		switch action {
		case "down":
			err = migrations.Down(ctx, pool)
		case "status":
			err = migrations.Status(ctx, pool)
		default:
			err = migrations.Up(ctx, pool)
		}
		if err != nil {
			return err
		}
		log.Info().Str("action", action).Msg("migraciones")
		return nil
	},
}
