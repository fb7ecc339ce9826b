package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"quiz-desk/internal/quiz"
)

// report prints err as an inline message. Anything that is not a known
// domain error is logged and shown as a generic failure.
func (r *runner) report(err error) {
	var verr *quiz.ValidationError
	switch {
	case errors.As(err, &verr):
		fmt.Fprintf(r.out, "Invalid %s: %s\n", verr.Field, verr.Message)
	case errors.Is(err, quiz.ErrQuestionNotFound),
		errors.Is(err, quiz.ErrUserNotFound),
		errors.Is(err, quiz.ErrResultNotFound):
		fmt.Fprintln(r.out, "Not found.")
	case errors.Is(err, quiz.ErrInvalidCredentials):
		fmt.Fprintln(r.out, "Invalid username or password.")
	case errors.Is(err, quiz.ErrUsernameTaken):
		fmt.Fprintln(r.out, "Username already taken.")
	case errors.Is(err, quiz.ErrForbidden):
		fmt.Fprintln(r.out, "Forbidden: admin role required.")
	case errors.Is(err, quiz.ErrInsufficientQuestions):
		fmt.Fprintf(r.out, "Cannot start quiz: %v.\n", err)
	case errors.Is(err, quiz.ErrSessionNotActive),
		errors.Is(err, quiz.ErrInvalidIndex),
		errors.Is(err, quiz.ErrInvalidOption),
		errors.Is(err, quiz.ErrTimeExpired):
		fmt.Fprintf(r.out, "%v.\n", err)
	default:
		r.app.Logger.Error("operation failed", "user", r.user.Username, "error", err)
		fmt.Fprintln(r.out, "Operation failed.")
	}
}

func printResultLine(out io.Writer, result quiz.QuizResult) {
	outcome := ""
	if result.Outcome == quiz.OutcomeTimedOut {
		outcome = " (timed out)"
	}
	fmt.Fprintf(out, "  %s  %d/%d  %s%%  grade %s  %s%s\n",
		result.CompletedAt.Local().Format("2006-01-02 15:04"),
		result.Score,
		result.TotalQuestions,
		result.Percentage().StringFixed(2),
		result.Grade(),
		formatDuration(result.TimeTaken),
		outcome,
	)
}

func printQuestionSummary(out io.Writer, q quiz.Question) {
	prompt := q.Prompt
	if runes := []rune(prompt); len(runes) > 60 {
		prompt = string(runes[:57]) + "..."
	}
	fmt.Fprintf(out, "  #%-5d [%s/%s] %s\n", q.ID, q.Category, q.Difficulty, prompt)
}

func printQuestionDetail(out io.Writer, q quiz.Question) {
	fmt.Fprintf(out, "Question #%d\n", q.ID)
	fmt.Fprintf(out, "  Prompt:     %s\n", q.Prompt)
	for _, option := range q.Options {
		marker := " "
		if option.Label == q.Answer {
			marker = "*"
		}
		fmt.Fprintf(out, "  %s %s. %s\n", marker, option.Label, option.Text)
	}
	fmt.Fprintf(out, "  Answer:     %s\n", q.Answer)
	fmt.Fprintf(out, "  Category:   %s\n", q.Category)
	fmt.Fprintf(out, "  Difficulty: %s\n", q.Difficulty)
	if len(q.Tags) > 0 {
		fmt.Fprintf(out, "  Tags:       %s\n", strings.Join(q.Tags, ", "))
	}
	fmt.Fprintf(out, "  Created:    %s\n", q.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(out, "  Updated:    %s\n", q.UpdatedAt.Local().Format(time.DateTime))
}
