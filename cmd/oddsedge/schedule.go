package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/oddsedge/internal/health"
	"github.com/yourusername/oddsedge/internal/metrics"
	"github.com/yourusername/oddsedge/internal/scheduler"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run on the configured cron schedule",
	Long: `Keeps running and triggers a run on every tick of scheduler.cron (UTC).
Serves /health, /ready and the metrics endpoint while running.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := bootstrap(ctx); err != nil {
			return err
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		sched := scheduler.NewScheduler(a.pipeline, appLog, cfg.Scheduler.RunTimeout)
		if err := sched.Schedule(cfg.Scheduler.Cron); err != nil {
			return err
		}

		if cfg.Metrics.Enabled {
			srv := health.NewServer(health.Config{
				ServiceName:    cfg.App.Name,
				Version:        Version,
				Commit:         GitCommit,
				Port:           cfg.Metrics.Port,
				MetricsPath:    cfg.Metrics.Path,
				MetricsHandler: metrics.Handler(),
				Logger:         appLog,
				DB:             a.db,
				Runs:           sched,
			})
			if err := srv.Start(ctx); err != nil {
				return err
			}
			srv.SetReady(true)
		}

		if err := sched.Start(); err != nil {
			return err
		}
		if cfg.Scheduler.RunOnStart {
			go sched.RunNow(ctx)
		}

		appLog.WithField("next_run", sched.NextRun()).Info("Waiting for the next scheduled run")
		<-ctx.Done()

		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return sched.Stop(stopCtx)
	},
}
