package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"quiz-desk/internal/quiz"
)

const resultColumns = `id, user_id, score, total_questions, time_taken_ms, completed_at_unix, questions_attempted, outcome`

func (s *Store) CreateResult(ctx context.Context, r quiz.QuizResult) (quiz.QuizResult, error) {
	if r.QuestionIDs == nil {
		r.QuestionIDs = []int64{}
	}
	attempted, err := json.Marshal(r.QuestionIDs)
	if err != nil {
		return quiz.QuizResult{}, fmt.Errorf("encode attempted questions: %w", err)
	}
	if r.CompletedAt.IsZero() {
		r.CompletedAt = s.now().UTC()
	}
	if r.Outcome == "" {
		r.Outcome = quiz.OutcomeCompleted
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO quiz_results (user_id, score, total_questions, time_taken_ms, completed_at_unix, questions_attempted, outcome)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.UserID,
		r.Score,
		r.TotalQuestions,
		r.TimeTaken.Milliseconds(),
		r.CompletedAt.UnixNano(),
		string(attempted),
		string(r.Outcome),
	)
	if err != nil {
		return quiz.QuizResult{}, fmt.Errorf("insert quiz result: %w", err)
	}
	if r.ID, err = res.LastInsertId(); err != nil {
		return quiz.QuizResult{}, fmt.Errorf("insert quiz result: %w", err)
	}
	return r, nil
}

// ListResults returns the user's most recent results first. A non-positive
// limit returns all of them.
func (s *Store) ListResults(ctx context.Context, userID int64, limit int) ([]quiz.QuizResult, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+resultColumns+` FROM quiz_results
		 WHERE user_id = ?
		 ORDER BY completed_at_unix DESC, id DESC
		 LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list quiz results: %w", err)
	}
	defer rows.Close()

	results := make([]quiz.QuizResult, 0)
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quiz result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list quiz results: %w", err)
	}
	return results, nil
}

func (s *Store) LatestResult(ctx context.Context, userID int64) (quiz.QuizResult, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+resultColumns+` FROM quiz_results
		 WHERE user_id = ?
		 ORDER BY completed_at_unix DESC, id DESC
		 LIMIT 1`,
		userID,
	)
	r, err := scanResult(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quiz.QuizResult{}, quiz.ErrResultNotFound
		}
		return quiz.QuizResult{}, fmt.Errorf("latest quiz result: %w", err)
	}
	return r, nil
}

// ResultStatistics aggregates percentages across all users. Results with no
// questions count towards the total but not the averages.
func (s *Store) ResultStatistics(ctx context.Context) (quiz.ResultStats, error) {
	var (
		total   int
		average float64
		best    float64
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT
			COUNT(*),
			COALESCE(AVG(CASE WHEN total_questions > 0 THEN score * 100.0 / total_questions END), 0),
			COALESCE(MAX(CASE WHEN total_questions > 0 THEN score * 100.0 / total_questions END), 0)
		 FROM quiz_results`,
	).Scan(&total, &average, &best)
	if err != nil {
		return quiz.ResultStats{}, fmt.Errorf("result statistics: %w", err)
	}
	return quiz.ResultStats{
		TotalQuizzes: total,
		AverageScore: decimal.NewFromFloat(average).Round(2),
		BestScore:    decimal.NewFromFloat(best).Round(2),
	}, nil
}

func scanResult(row rowScanner) (quiz.QuizResult, error) {
	var (
		r               quiz.QuizResult
		timeTakenMillis int64
		completedAtUnix int64
		attempted       string
		outcome         string
	)
	if err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.Score,
		&r.TotalQuestions,
		&timeTakenMillis,
		&completedAtUnix,
		&attempted,
		&outcome,
	); err != nil {
		return quiz.QuizResult{}, err
	}
	if err := json.Unmarshal([]byte(attempted), &r.QuestionIDs); err != nil {
		return quiz.QuizResult{}, fmt.Errorf("decode attempted questions for result %d: %w", r.ID, err)
	}
	r.TimeTaken = time.Duration(timeTakenMillis) * time.Millisecond
	r.CompletedAt = unixOrZero(completedAtUnix)
	r.Outcome = quiz.Outcome(outcome)
	return r, nil
}
