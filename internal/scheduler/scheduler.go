package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"GemSentinel/internal/analysis"
	"GemSentinel/internal/calculator"
	"GemSentinel/internal/collector"
	"GemSentinel/internal/notifier"
	"GemSentinel/internal/recorder"
	"GemSentinel/internal/watchlist"
)

// Analyzer runs one analysis; *analysis.Service implements it.
type Analyzer interface {
	Run(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

// Sender delivers notifications; *notifier.TelegramNotifier implements it.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages the cron tasks and answers chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Analyzer  Analyzer
	Searcher  collector.Searcher
	Watchlist *watchlist.Manager
	Notifier  Sender
	Recorder  recorder.Recorder
	Names     notifier.Namer

	// Request is the configured analysis; UseWatchlist swaps its risky set
	// for the watchlist when the watchlist is ready.
	Request      analysis.Request
	UseWatchlist bool

	Ctx context.Context
	Now func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, an Analyzer, wl *watchlist.Manager, tn Sender, rec recorder.Recorder, req analysis.Request) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Analyzer:  an,
		Watchlist: wl,
		Notifier:  tn,
		Recorder:  rec,
		Request:   req,
		Ctx:       ctx,
		Now:       time.Now,
	}
}

// RegisterAll registers the monthly signal and weekly ranking tasks.
func (s *Scheduler) RegisterAll(monthlyCron, weeklyCron string) error {
	if _, err := s.Cron.AddFunc(monthlyCron, s.monthlyTask); err != nil {
		return fmt.Errorf("register monthly task: %w", err)
	}
	if _, err := s.Cron.AddFunc(weeklyCron, s.weeklyTask); err != nil {
		return fmt.Errorf("register weekly task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("tasks", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunMonthlyNow executes the monthly task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunMonthlyNow() {
	s.monthlyTask()
}

func (s *Scheduler) monthlyTask() {
	log.Info().Msg("running monthly signal task")
	res, err := s.analyze(s.Ctx, s.lastMonthEnd(), "cron")
	if err != nil {
		log.Error().Err(err).Msg("monthly analysis")
		s.trySend(notifier.FormatError("Monthly signal", err))
		return
	}
	s.trySend(notifier.FormatSignalReport(res, s.Names))
}

func (s *Scheduler) weeklyTask() {
	log.Info().Msg("running weekly ranking task")
	res, err := s.analyze(s.Ctx, time.Time{}, "cron")
	if err != nil {
		log.Error().Err(err).Msg("weekly analysis")
		s.trySend(notifier.FormatError("Weekly ranking", err))
		return
	}
	s.trySend(notifier.FormatRankDigest(res))
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	cmd := strings.ToLower(fields[0])
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i] // "/signal@MyBot" in group chats
	}
	arg := strings.Join(fields[1:], " ")

	switch cmd {
	case "/signal":
		res, err := s.analyze(ctx, s.lastMonthEnd(), "chat")
		if err != nil {
			return notifier.FormatError("Signal", err)
		}
		return notifier.FormatSignalReport(res, s.Names)
	case "/rank":
		res, err := s.analyze(ctx, time.Time{}, "chat")
		if err != nil {
			return notifier.FormatError("Ranking", err)
		}
		return notifier.FormatRankDigest(res)
	case "/list":
		return notifier.FormatWatchlist(s.Watchlist.List(), s.Watchlist.Ready())
	case "/add":
		if arg == "" {
			return "Usage: /add SYMBOL"
		}
		added, err := s.Watchlist.Add(arg)
		if err != nil {
			return notifier.FormatError("Add", err)
		}
		if !added {
			return fmt.Sprintf("ℹ️ %s is already on the watchlist.", strings.ToUpper(arg))
		}
		return "✅ Added.\n\n" + notifier.FormatWatchlist(s.Watchlist.List(), s.Watchlist.Ready())
	case "/remove":
		if arg == "" {
			return "Usage: /remove SYMBOL"
		}
		removed, err := s.Watchlist.Remove(arg)
		if err != nil {
			return notifier.FormatError("Remove", err)
		}
		if !removed {
			return fmt.Sprintf("ℹ️ %s is not on the watchlist.", strings.ToUpper(arg))
		}
		return "🗑 Removed.\n\n" + notifier.FormatWatchlist(s.Watchlist.List(), s.Watchlist.Ready())
	case "/search":
		if arg == "" {
			return "Usage: /search TEXT"
		}
		if s.Searcher == nil {
			return "Search is not available with the configured data source."
		}
		quotes, err := s.Searcher.Search(ctx, arg, 10)
		if err != nil {
			return notifier.FormatError("Search", err)
		}
		return notifier.FormatSearchResults(arg, quotes)
	default:
		return notifier.FormatHelp()
	}
}

// BuildRequest returns the configured request bounded by asOf, using the
// watchlist when enabled and ready.
func (s *Scheduler) BuildRequest(asOf time.Time) analysis.Request {
	req := s.Request
	req.AsOf = asOf
	if s.UseWatchlist && s.Watchlist != nil && s.Watchlist.Ready() {
		req = req.WithRisky(s.Watchlist.List())
	}
	return req
}

func (s *Scheduler) analyze(ctx context.Context, asOf time.Time, source string) (*analysis.Result, error) {
	res, err := s.Analyzer.Run(ctx, s.BuildRequest(asOf))
	if err != nil {
		return nil, err
	}
	if _, err := s.Recorder.RecordRun(ctx, analysis.Snapshot(res, source)); err != nil {
		log.Error().Err(err).Msg("record run")
	}
	return res, nil
}

// lastMonthEnd is the most recent completed month-end.
func (s *Scheduler) lastMonthEnd() time.Time {
	now := s.Now().UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return calculator.MonthEnd(first.AddDate(0, 0, -1))
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
