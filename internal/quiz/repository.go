package quiz

import (
	"context"
)

// QuestionFilter narrows a question listing. Zero values mean "no filter".
// Category matches case-insensitively; Text is a substring over the prompt
// and every option text.
type QuestionFilter struct {
	Category   string
	Difficulty Difficulty
	Text       string
	Limit      int
	Offset     int
}

type QuestionRepository interface {
	CreateQuestion(ctx context.Context, q Question) (Question, error)
	GetQuestion(ctx context.Context, id int64) (Question, error)
	UpdateQuestion(ctx context.Context, q Question) error
	DeleteQuestion(ctx context.Context, id int64) error
	// ListQuestions returns matches newest first.
	ListQuestions(ctx context.Context, filter QuestionFilter) ([]Question, error)
	CountQuestions(ctx context.Context, filter QuestionFilter) (int, error)
	ListCategories(ctx context.Context) ([]string, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user NewUser) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	// Authenticate returns ErrInvalidCredentials for unknown, inactive or
	// mismatched accounts and records last_login only on success.
	Authenticate(ctx context.Context, username, password string) (User, error)
	UpdatePassword(ctx context.Context, userID int64, password string) error
	SetUserActive(ctx context.Context, userID int64, active bool) error
}

type ResultRepository interface {
	CreateResult(ctx context.Context, result QuizResult) (QuizResult, error)
	ListResults(ctx context.Context, userID int64, limit int) ([]QuizResult, error)
	LatestResult(ctx context.Context, userID int64) (QuizResult, error)
	ResultStatistics(ctx context.Context) (ResultStats, error)
}
