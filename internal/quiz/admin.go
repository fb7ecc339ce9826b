package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"time"

	"quiz-desk/internal/opentdb"
)

const (
	DefaultPerPage = 10
	maxPerPage     = 100
	copyPrefix     = "[Copy] "
)

// AdminService manages the question bank and user accounts.
type AdminService struct {
	questions QuestionRepository
	users     UserRepository
	results   ResultRepository

	rng    *rand.Rand
	now    func() time.Time
	logger *slog.Logger
}

func NewAdminService(questions QuestionRepository, users UserRepository, results ResultRepository, opts ...ServiceOption) *AdminService {
	o := buildOptions(opts)
	return &AdminService{
		questions: questions,
		users:     users,
		results:   results,
		rng:       o.rng,
		now:       o.now,
		logger:    o.logger,
	}
}

func (s *AdminService) CreateQuestion(ctx context.Context, in QuestionInput) (Question, error) {
	question, err := in.build()
	if err != nil {
		return Question{}, err
	}
	now := s.now().UTC()
	question.CreatedAt = now
	question.UpdatedAt = now

	created, err := s.questions.CreateQuestion(ctx, question)
	if err != nil {
		s.logger.Error("create question failed", "error", err)
		return Question{}, fmt.Errorf("create question: %w", err)
	}
	s.logger.Info("question created", "question_id", created.ID, "category", created.Category)
	return created, nil
}

// UpdateQuestion replaces every editable field of an existing question. The
// creation time is kept.
func (s *AdminService) UpdateQuestion(ctx context.Context, id int64, in QuestionInput) (Question, error) {
	question, err := in.build()
	if err != nil {
		return Question{}, err
	}
	existing, err := s.questions.GetQuestion(ctx, id)
	if err != nil {
		return Question{}, err
	}

	question.ID = existing.ID
	question.CreatedAt = existing.CreatedAt
	question.UpdatedAt = s.now().UTC()
	if err := s.questions.UpdateQuestion(ctx, question); err != nil {
		if !errors.Is(err, ErrQuestionNotFound) {
			s.logger.Error("update question failed", "question_id", id, "error", err)
		}
		return Question{}, fmt.Errorf("update question %d: %w", id, err)
	}
	s.logger.Info("question updated", "question_id", id)
	return question, nil
}

func (s *AdminService) DeleteQuestion(ctx context.Context, id int64) error {
	if err := s.questions.DeleteQuestion(ctx, id); err != nil {
		if !errors.Is(err, ErrQuestionNotFound) {
			s.logger.Error("delete question failed", "question_id", id, "error", err)
		}
		return fmt.Errorf("delete question %d: %w", id, err)
	}
	s.logger.Info("question deleted", "question_id", id)
	return nil
}

func (s *AdminService) GetQuestion(ctx context.Context, id int64) (Question, error) {
	return s.questions.GetQuestion(ctx, id)
}

type QuestionPage struct {
	Questions  []Question
	Page       int
	PerPage    int
	TotalPages int
	TotalCount int
}

// ListQuestions returns one page of the bank, newest first. Pages start at 1.
func (s *AdminService) ListQuestions(ctx context.Context, page, perPage int) (QuestionPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	total, err := s.questions.CountQuestions(ctx, QuestionFilter{})
	if err != nil {
		return QuestionPage{}, fmt.Errorf("count questions: %w", err)
	}
	questions, err := s.questions.ListQuestions(ctx, QuestionFilter{
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	})
	if err != nil {
		return QuestionPage{}, fmt.Errorf("list questions: %w", err)
	}

	return QuestionPage{
		Questions:  questions,
		Page:       page,
		PerPage:    perPage,
		TotalPages: (total + perPage - 1) / perPage,
		TotalCount: total,
	}, nil
}

// SearchQuestions is read-only. Text is sanitized before it reaches the store.
func (s *AdminService) SearchQuestions(ctx context.Context, filter QuestionFilter) ([]Question, error) {
	filter.Text = sanitizeSearch(filter.Text)
	filter.Category = SanitizeInput(filter.Category)
	if filter.Difficulty != "" {
		difficulty, err := ParseDifficulty(string(filter.Difficulty))
		if err != nil {
			return nil, err
		}
		filter.Difficulty = difficulty
	}
	return s.questions.ListQuestions(ctx, filter)
}

type BulkDeleteResult struct {
	Deleted int
	Failed  []int64
}

func (s *AdminService) DeleteQuestions(ctx context.Context, ids []int64) (BulkDeleteResult, error) {
	var result BulkDeleteResult
	for _, id := range ids {
		err := s.questions.DeleteQuestion(ctx, id)
		switch {
		case err == nil:
			result.Deleted++
		case errors.Is(err, ErrQuestionNotFound):
			result.Failed = append(result.Failed, id)
		default:
			s.logger.Error("bulk delete failed", "question_id", id, "error", err)
			return result, fmt.Errorf("delete question %d: %w", id, err)
		}
	}
	s.logger.Info("questions deleted", "deleted", result.Deleted, "failed", len(result.Failed))
	return result, nil
}

func (s *AdminService) DuplicateQuestion(ctx context.Context, id int64) (Question, error) {
	original, err := s.questions.GetQuestion(ctx, id)
	if err != nil {
		return Question{}, err
	}
	in := InputFromQuestion(original)
	in.Prompt = copyPrefix + in.Prompt
	return s.CreateQuestion(ctx, in)
}

func (s *AdminService) Categories(ctx context.Context) ([]string, error) {
	return s.questions.ListCategories(ctx)
}

type QuestionStats struct {
	Total        int
	ByCategory   map[string]int
	ByDifficulty map[Difficulty]int
}

// SortedCategories returns the category names in ByCategory alphabetically.
func (qs QuestionStats) SortedCategories() []string {
	names := make([]string, 0, len(qs.ByCategory))
	for name := range qs.ByCategory {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Statistics is recomputed from the store on every call.
func (s *AdminService) Statistics(ctx context.Context) (QuestionStats, error) {
	questions, err := s.questions.ListQuestions(ctx, QuestionFilter{})
	if err != nil {
		return QuestionStats{}, fmt.Errorf("load questions: %w", err)
	}

	stats := QuestionStats{
		Total:        len(questions),
		ByCategory:   make(map[string]int),
		ByDifficulty: make(map[Difficulty]int, len(Difficulties)),
	}
	for _, d := range Difficulties {
		stats.ByDifficulty[d] = 0
	}
	for _, q := range questions {
		stats.ByCategory[q.Category]++
		stats.ByDifficulty[q.Difficulty]++
	}
	return stats, nil
}

type Dashboard struct {
	Questions QuestionStats
	Results   ResultStats
}

func (s *AdminService) Dashboard(ctx context.Context) (Dashboard, error) {
	questions, err := s.Statistics(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	results, err := s.results.ResultStatistics(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("result statistics: %w", err)
	}
	return Dashboard{Questions: questions, Results: results}, nil
}

// AuthenticateAdmin succeeds only for active admin accounts. A valid
// non-admin login returns ErrForbidden.
func (s *AdminService) AuthenticateAdmin(ctx context.Context, username, password string) (User, error) {
	if err := ValidateCredentials(username, password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	user, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return User{}, err
	}
	if !user.IsAdmin() {
		s.logger.Warn("non-admin attempted admin login", "username", user.Username)
		return User{}, ErrForbidden
	}
	return user, nil
}

func (s *AdminService) CreateUser(ctx context.Context, username, password string, role Role) (User, error) {
	if err := ValidateCredentials(username, password); err != nil {
		return User{}, err
	}
	if role == "" {
		role = RoleUser
	}
	if _, err := ParseRole(string(role)); err != nil {
		return User{}, err
	}
	user, err := s.users.CreateUser(ctx, NewUser{Username: username, Password: password, Role: role})
	if err != nil {
		return User{}, err
	}
	s.logger.Info("user created", "user_id", user.ID, "username", user.Username, "role", string(user.Role))
	return user, nil
}

func (s *AdminService) FindUser(ctx context.Context, username string) (User, error) {
	return s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
}

func (s *AdminService) ChangePassword(ctx context.Context, userID int64, password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, password); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	s.logger.Info("password changed", "user_id", userID)
	return nil
}

// SetUserActive enables or disables the named account. Disabled accounts
// can no longer log in.
func (s *AdminService) SetUserActive(ctx context.Context, username string, active bool) (User, error) {
	user, err := s.FindUser(ctx, username)
	if err != nil {
		return User{}, err
	}
	if err := s.users.SetUserActive(ctx, user.ID, active); err != nil {
		return User{}, fmt.Errorf("set user active: %w", err)
	}
	user.Active = active
	s.logger.Info("user activation changed", "user_id", user.ID, "username", user.Username, "active", active)
	return user, nil
}

type ImportSummary struct {
	Imported int
	Skipped  int
}

// ImportQuestions validates and stores externally sourced questions. Invalid
// entries are skipped; a store failure aborts the import.
func (s *AdminService) ImportQuestions(ctx context.Context, raw []opentdb.RawQuestion) (ImportSummary, error) {
	var summary ImportSummary
	for _, item := range raw {
		_, err := s.CreateQuestion(ctx, InputFromRaw(s.rng, item))
		switch {
		case err == nil:
			summary.Imported++
		case errors.Is(err, ErrValidation):
			summary.Skipped++
		default:
			return summary, err
		}
	}
	s.logger.Info("questions imported", "imported", summary.Imported, "skipped", summary.Skipped)
	return summary, nil
}
