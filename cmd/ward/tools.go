package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"openward/internal/config"
	"openward/internal/database"
	"openward/internal/logging"
	"openward/shared/reminders"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate reminders once and print the board as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			overdue, _ := cmd.Flags().GetBool("overdue")
			return runEvaluate(cmd.Context(), configPath(cmd), overdue, cmd.OutOrStdout())
		},
	}
	cmd.Flags().Bool("overdue", false, "Only print overdue reminders")
	return cmd
}

func backupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Write one database backup to the configured backup path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(cmd.Context(), configPath(cmd), cmd.OutOrStdout())
		},
	}
}

// openForTool loads config and the database with logs on stderr so stdout
// stays machine readable.
func openForTool(path string) (*config.Config, *database.DB, zerolog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, zerolog.Logger{}, fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Pretty, os.Stderr)
	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		return nil, nil, logger, fmt.Errorf("open db: %w", err)
	}
	return cfg, db, logger, nil
}

func runEvaluate(ctx context.Context, path string, overdueOnly bool, out io.Writer) error {
	cfg, db, logger, err := openForTool(path)
	if err != nil {
		return err
	}
	defer db.Close()

	scheduler, err := reminders.NewScheduler(cfg.SchedulerConfig(), db, logging.NewReminderLogger(&logger))
	if err != nil {
		return err
	}
	board, ok := scheduler.RunNow(ctx)
	if !ok {
		return fmt.Errorf("reminder evaluation failed")
	}

	if overdueOnly {
		var list []reminders.Reminder
		for _, r := range board.Reminders {
			if r.IsOverdue {
				list = append(list, r)
			}
		}
		board = reminders.NewBoard(board.EvaluatedAt, board.Trigger, list)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(board)
}

func runBackup(ctx context.Context, path string, out io.Writer) error {
	cfg, db, logger, err := openForTool(path)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := database.NewBackupService(db, cfg.Backup, &logger)
	dest, err := svc.PerformBackup(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, dest)
	return err
}
