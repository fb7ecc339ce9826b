package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"
)

const (
	MaxQuestionsPerQuiz = 50
	DefaultTimeBudget   = 300 * time.Second
)

// QuizService draws question sets, runs sessions and records their results.
type QuizService struct {
	questions QuestionRepository
	results   ResultRepository

	rng           *rand.Rand
	now           func() time.Time
	logger        *slog.Logger
	defaultBudget time.Duration
}

type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	rng    *rand.Rand
	now    func() time.Time
	logger *slog.Logger
	budget time.Duration
}

func WithRand(rng *rand.Rand) ServiceOption {
	return func(o *serviceOptions) { o.rng = rng }
}

func WithClock(now func() time.Time) ServiceOption {
	return func(o *serviceOptions) { o.now = now }
}

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) { o.logger = logger }
}

func WithDefaultBudget(budget time.Duration) ServiceOption {
	return func(o *serviceOptions) { o.budget = budget }
}

func buildOptions(opts []ServiceOption) serviceOptions {
	o := serviceOptions{
		now:    time.Now,
		budget: DefaultTimeBudget,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(o.now().UnixNano()))
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.budget <= 0 {
		o.budget = DefaultTimeBudget
	}
	return o
}

func NewQuizService(questions QuestionRepository, results ResultRepository, opts ...ServiceOption) *QuizService {
	o := buildOptions(opts)
	return &QuizService{
		questions:     questions,
		results:       results,
		rng:           o.rng,
		now:           o.now,
		logger:        o.logger,
		defaultBudget: o.budget,
	}
}

// SetDefaultTimeBudget changes the budget used when Criteria.TimeBudget is zero.
func (s *QuizService) SetDefaultTimeBudget(budget time.Duration) {
	if budget > 0 {
		s.defaultBudget = budget
	}
}

func (s *QuizService) DefaultTimeBudget() time.Duration {
	return s.defaultBudget
}

func ValidateCriteria(criteria Criteria) error {
	if criteria.Count < 1 || criteria.Count > MaxQuestionsPerQuiz {
		return invalid("count", "must be between 1 and %d", MaxQuestionsPerQuiz)
	}
	if criteria.TimeBudget < 0 {
		return invalid("time_budget", "must be positive")
	}
	if criteria.Difficulty != "" {
		if _, err := ParseDifficulty(string(criteria.Difficulty)); err != nil {
			return err
		}
	}
	return nil
}

// StartSession draws criteria.Count distinct questions uniformly at random
// from the matching pool and starts a session over them. A pool smaller than
// the requested count fails with ErrInsufficientQuestions.
func (s *QuizService) StartSession(ctx context.Context, userID int64, criteria Criteria) (*Session, error) {
	if err := ValidateCriteria(criteria); err != nil {
		return nil, err
	}
	budget := criteria.TimeBudget
	if budget == 0 {
		budget = s.defaultBudget
	}

	pool, err := s.questions.ListQuestions(ctx, QuestionFilter{
		Category:   strings.TrimSpace(criteria.Category),
		Difficulty: criteria.Difficulty,
	})
	if err != nil {
		return nil, fmt.Errorf("load question pool: %w", err)
	}
	if len(pool) < criteria.Count {
		return nil, fmt.Errorf("%w: requested %d, available %d", ErrInsufficientQuestions, criteria.Count, len(pool))
	}

	session, err := NewSession(userID, WithSessionClock(s.now))
	if err != nil {
		return nil, err
	}
	if err := session.Start(sample(s.rng, pool, criteria.Count), budget); err != nil {
		return nil, err
	}

	s.logger.Info("quiz session started",
		"session_id", session.ID,
		"user_id", userID,
		"questions", criteria.Count,
		"category", criteria.Category,
		"difficulty", string(criteria.Difficulty),
		"budget", budget,
	)
	return session, nil
}

// sample returns k elements of pool chosen without replacement. It runs a
// partial Fisher-Yates over a copy so pool keeps its order.
func sample(rng *rand.Rand, pool []Question, k int) []Question {
	shuffled := append([]Question(nil), pool...)
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(shuffled)-i)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:k]
}

// RecordResult persists the result of a completed or timed-out session. It
// writes at most once per session; later calls return the stored result.
func (s *QuizService) RecordResult(ctx context.Context, session *Session) (QuizResult, error) {
	if session == nil {
		return QuizResult{}, ErrSessionNotTerminal
	}
	if result, ok := session.Recorded(); ok {
		return result, nil
	}

	var outcome Outcome
	switch session.Status() {
	case StatusCompleted:
		outcome = OutcomeCompleted
	case StatusTimedOut:
		outcome = OutcomeTimedOut
	case StatusAbandoned:
		return QuizResult{}, ErrNothingToRecord
	default:
		return QuizResult{}, ErrSessionNotTerminal
	}

	score, err := session.Score()
	if err != nil {
		return QuizResult{}, err
	}

	result, err := s.results.CreateResult(ctx, QuizResult{
		UserID:         session.UserID,
		Score:          score.Correct,
		TotalQuestions: score.Total,
		TimeTaken:      score.TimeTaken,
		CompletedAt:    s.now().UTC(),
		QuestionIDs:    session.questionIDs(),
		Outcome:        outcome,
	})
	if err != nil {
		s.logger.Error("record quiz result failed", "session_id", session.ID, "error", err)
		return QuizResult{}, fmt.Errorf("record result: %w", err)
	}
	session.recorded = &result

	s.logger.Info("quiz result recorded",
		"session_id", session.ID,
		"result_id", result.ID,
		"user_id", result.UserID,
		"score", result.Score,
		"total", result.TotalQuestions,
		"outcome", string(result.Outcome),
	)
	return result, nil
}

func (s *QuizService) Categories(ctx context.Context) ([]string, error) {
	return s.questions.ListCategories(ctx)
}

func (s *QuizService) AvailableCount(ctx context.Context, category string, difficulty Difficulty) (int, error) {
	return s.questions.CountQuestions(ctx, QuestionFilter{
		Category:   strings.TrimSpace(category),
		Difficulty: difficulty,
	})
}

// History returns the user's results, newest first.
func (s *QuizService) History(ctx context.Context, userID int64, limit int) ([]QuizResult, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.results.ListResults(ctx, userID, limit)
}

// LatestResult returns ErrResultNotFound when the user has no results yet.
func (s *QuizService) LatestResult(ctx context.Context, userID int64) (QuizResult, error) {
	result, err := s.results.LatestResult(ctx, userID)
	if err != nil && !errors.Is(err, ErrResultNotFound) {
		return QuizResult{}, fmt.Errorf("latest result: %w", err)
	}
	return result, err
}

func (s *QuizService) ResultStatistics(ctx context.Context) (ResultStats, error) {
	return s.results.ResultStatistics(ctx)
}
