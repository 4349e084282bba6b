package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"GemSentinel/internal/notifier"
	"GemSentinel/internal/scheduler"
)

func newBotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the scheduled Telegram bot",
		Long:  "Sends the monthly signal and the weekly ranking digest on cron, and answers chat commands",
		RunE:  runBot,
	}
	cmd.Flags().Bool("run-on-start", os.Getenv("RUN_ON_START") == "true", "Send the monthly signal immediately (env RUN_ON_START)")
	return cmd
}

func runBot(cmd *cobra.Command, _ []string) error {
	log.Info().Msg(appName + " bot starting...")
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	if err := a.cfg.ValidateBot(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	a.openRecorder()
	defer a.Close()

	tn := notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy)
	tn.Metrics = a.metrics

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(ctx, a.service, a.watchlist, tn, a.recorder, a.request)
	sched.Searcher = a.yahoo
	sched.Names = a.cfg.DisplayName
	sched.UseWatchlist = a.cfg.Watchlist.UseForSignal
	if err := sched.RegisterAll(a.cfg.Schedule.MonthlyCron, a.cfg.Schedule.WeeklyCron); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Info().Msg("telegram polling started")

	if run, _ := cmd.Flags().GetBool("run-on-start"); run {
		log.Info().Msg("run-on-start enabled, executing monthly task now")
		go sched.RunMonthlyNow()
	}

	log.Info().Msg(appName + " is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping...")
	return nil
}
