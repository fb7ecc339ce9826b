package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"quiz-desk/internal/config"
	"quiz-desk/internal/opentdb"
	"quiz-desk/internal/quiz"
	"quiz-desk/internal/quiz/sqlite"
)

// App owns everything a running quiz-desk process needs. It is built once by
// New and handed to the presentation layer.
type App struct {
	Config config.Config
	Logger *slog.Logger
	Store  *sqlite.Store

	Quiz     *quiz.QuizService
	Admin    *quiz.AdminService
	Auth     *quiz.AuthService
	Importer *opentdb.Client

	timer     config.TimerSettings
	logCloser io.Closer
}

type Option func(*options)

type options struct {
	logWriter io.Writer
	importer  *opentdb.Client
	service   []quiz.ServiceOption
}

// WithLogWriter sends logs to w instead of the configured log file.
func WithLogWriter(w io.Writer) Option {
	return func(o *options) { o.logWriter = w }
}

func WithImporter(c *opentdb.Client) Option {
	return func(o *options) { o.importer = c }
}

// WithServiceOptions forwards options such as a fixed clock or random source
// to every service.
func WithServiceOptions(opts ...quiz.ServiceOption) Option {
	return func(o *options) { o.service = append(o.service, opts...) }
}

func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	w := o.logWriter
	if w == nil {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		a.logCloser = f
	}
	a.Logger = NewLogger(w, level)

	store, err := sqlite.Open(ctx, cfg.DatabasePath)
	if err != nil {
		a.closeLog()
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.Store = store

	serviceOpts := append([]quiz.ServiceOption{quiz.WithLogger(a.Logger)}, o.service...)
	a.Quiz = quiz.NewQuizService(store, store, serviceOpts...)
	a.Admin = quiz.NewAdminService(store, store, store, serviceOpts...)
	a.Auth = quiz.NewAuthService(store, serviceOpts...)
	a.Importer = o.importer
	if a.Importer == nil {
		a.Importer = opentdb.NewClient(nil)
	}

	if err := a.bootstrap(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	timer, err := config.LoadTimerSettings(cfg.SettingsPath)
	if err != nil {
		a.Logger.Warn("timer settings unusable, using defaults", "path", cfg.SettingsPath, "error", err)
	}
	a.timer = timer
	a.Quiz.SetDefaultTimeBudget(timer.TotalTime())

	a.Logger.Info("quiz-desk started", "database", cfg.DatabasePath, "settings", cfg.SettingsPath)
	return a, nil
}

func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// bootstrap ensures the configured admin account exists and seeds an empty
// question bank.
func (a *App) bootstrap(ctx context.Context) error {
	_, err := a.Store.GetUserByUsername(ctx, a.Config.AdminUsername)
	switch {
	case errors.Is(err, quiz.ErrUserNotFound):
		if _, err := a.Admin.CreateUser(ctx, a.Config.AdminUsername, a.Config.AdminPassword, quiz.RoleAdmin); err != nil {
			return fmt.Errorf("create admin account: %w", err)
		}
		a.Logger.Warn("created bootstrap admin account; change its password with the passwd command",
			"username", a.Config.AdminUsername)
	case err != nil:
		return fmt.Errorf("look up admin account: %w", err)
	}

	if !a.Config.SeedSamples {
		return nil
	}
	count, err := a.Store.CountQuestions(ctx, quiz.QuestionFilter{})
	if err != nil {
		return fmt.Errorf("count questions: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, in := range sampleQuestions() {
		if _, err := a.Admin.CreateQuestion(ctx, in); err != nil {
			return fmt.Errorf("seed questions: %w", err)
		}
	}
	a.Logger.Info("seeded sample questions", "count", len(sampleQuestions()))
	return nil
}

func (a *App) TimerSettings() config.TimerSettings {
	return a.timer
}

// SaveTimerSettings persists s and makes its total time the default budget
// for new sessions.
func (a *App) SaveTimerSettings(s config.TimerSettings) error {
	if err := config.SaveTimerSettings(a.Config.SettingsPath, s); err != nil {
		return err
	}
	a.timer = s
	a.Quiz.SetDefaultTimeBudget(s.TotalTime())
	a.Logger.Info("timer settings saved",
		"total_time_seconds", s.TotalTimeSeconds,
		"show_timer", s.ShowTimer,
		"auto_submit", s.AutoSubmit,
	)
	return nil
}

func (a *App) Close() error {
	var err error
	if a.Store != nil {
		err = a.Store.Close()
		a.Store = nil
	}
	a.closeLog()
	return err
}

func (a *App) closeLog() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
		a.logCloser = nil
	}
}
