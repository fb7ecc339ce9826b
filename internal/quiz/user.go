package quiz

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func ParseRole(value string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser, "":
		return RoleUser, nil
	default:
		return "", invalid("role", "must be admin or user")
	}
}

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	LastLogin    *time.Time
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NewUser carries a plaintext password; repositories hash it before storing.
type NewUser struct {
	Username string
	Password string
	Role     Role
}

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 4
	maxPasswordLen = 100
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	n := utf8.RuneCountInString(username)
	if n < minUsernameLen || n > maxUsernameLen {
		return invalid("username", "must be %d-%d characters", minUsernameLen, maxUsernameLen)
	}
	if !usernamePattern.MatchString(username) {
		return invalid("username", "may contain only letters, digits, '_' and '-'")
	}
	return nil
}

func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLen || n > maxPasswordLen {
		return invalid("password", "must be %d-%d characters", minPasswordLen, maxPasswordLen)
	}
	return nil
}

func ValidateCredentials(username, password string) error {
	if err := ValidateUsername(username); err != nil {
		return err
	}
	return ValidatePassword(password)
}

type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeTimedOut  Outcome = "timed_out"
)

type QuizResult struct {
	ID             int64
	UserID         int64
	Score          int
	TotalQuestions int
	TimeTaken      time.Duration
	CompletedAt    time.Time
	QuestionIDs    []int64
	Outcome        Outcome
}

var hundred = decimal.NewFromInt(100)

// Percentage is rounded to two decimals. A result with no questions is 0.
func (r QuizResult) Percentage() decimal.Decimal {
	return percentage(r.Score, r.TotalQuestions)
}

func (r QuizResult) Grade() string {
	return GradeFor(r.Percentage())
}

func percentage(score, total int) decimal.Decimal {
	if total <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(score)).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
}

// GradeFor maps a percentage onto the letter scale A >= 90, B >= 80,
// C >= 70, D >= 60, F otherwise.
func GradeFor(pct decimal.Decimal) string {
	switch {
	case pct.GreaterThanOrEqual(decimal.NewFromInt(90)):
		return "A"
	case pct.GreaterThanOrEqual(decimal.NewFromInt(80)):
		return "B"
	case pct.GreaterThanOrEqual(decimal.NewFromInt(70)):
		return "C"
	case pct.GreaterThanOrEqual(decimal.NewFromInt(60)):
		return "D"
	default:
		return "F"
	}
}

// ResultStats aggregates every stored result. Percentages are rounded to two
// decimals.
type ResultStats struct {
	TotalQuizzes int
	AverageScore decimal.Decimal
	BestScore    decimal.Decimal
}
