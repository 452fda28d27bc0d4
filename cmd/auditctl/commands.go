package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/docarchive/backend/internal/auth"
	"github.com/docarchive/backend/internal/config"
	"github.com/docarchive/backend/internal/db"
	"github.com/docarchive/backend/internal/models"
	"github.com/docarchive/backend/internal/repositories"
	"github.com/docarchive/backend/internal/services"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCmd(cfg *config.Config, log *zap.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "auditctl",
		Short:         "Operate the document archive audit log",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		newMigrateCmd(cfg, log),
		newPurgeCmd(cfg, log),
		newLogsCmd(cfg, log),
		newTokenCmd(cfg),
	)
	return root
}

func newMigrateCmd(cfg *config.Config, log *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := db.NewPostgresPool(cmd.Context(), cfg.PostgresDSN, log)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()

			return db.RunMigrations(cmd.Context(), pool, db.MigrationsFS(cfg.MigrationsDir), log)
		},
	}
}

func newPurgeCmd(cfg *config.Config, log *zap.Logger) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete audit logs older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days <= 0 {
				return fmt.Errorf("--days must be positive, got %d", days)
			}

			svc, closeFn, err := openAuditService(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer closeFn()

			deleted := svc.PurgeOldLogs(cmd.Context(), days)
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d audit log(s) older than %d day(s)\n", deleted, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", cfg.LogRetentionDays, "retention window in days")
	return cmd
}

func newLogsCmd(cfg *config.Config, log *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "logs",
		Short: "Print the unified audit feed as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := openAuditService(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer closeFn()

			entries, err := svc.ListUnifiedLogs(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		},
	}
}

func newTokenCmd(cfg *config.Config) *cobra.Command {
	var (
		actorID string
		model   string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a signed actor token for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := uuid.Parse(actorID)
			if err != nil {
				return fmt.Errorf("invalid --actor-id: %w", err)
			}

			token, err := auth.GenerateJWT(cfg.JWTSecret, id, models.ActorModel(model), cfg.JWTExpiration)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&actorID, "actor-id", "", "officer or admin id")
	cmd.Flags().StringVar(&model, "model", string(models.ActorAdmin), "actor model (Officer or Admin)")
	_ = cmd.MarkFlagRequired("actor-id")
	return cmd
}

// openAuditService wires the audit service for one-shot commands. Events are
// not published from the CLI.
func openAuditService(ctx context.Context, cfg *config.Config, log *zap.Logger) (*services.AuditService, func(), error) {
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	svc := newAuditService(pool, log)
	return svc, pool.Close, nil
}

func newAuditService(pool *pgxpool.Pool, log *zap.Logger) *services.AuditService {
	return services.NewAuditService(
		repositories.NewAuditRepo(pool),
		repositories.NewOfficerRepo(pool),
		repositories.NewAdminRepo(pool),
		repositories.NewFileRepo(pool),
		nil,
		log,
	)
}
