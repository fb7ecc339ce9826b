package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"quiz-desk/internal/quiz"
)

const questionColumns = `id, prompt, options_json, answer, category, difficulty, tags, created_at_unix, updated_at_unix`

func (s *Store) CreateQuestion(ctx context.Context, q quiz.Question) (quiz.Question, error) {
	optionsJSON, err := json.Marshal(q.Options)
	if err != nil {
		return quiz.Question{}, fmt.Errorf("encode options: %w", err)
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = s.now().UTC()
	}
	if q.UpdatedAt.IsZero() {
		q.UpdatedAt = q.CreatedAt
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO questions (prompt, options_json, answer, category, difficulty, tags, created_at_unix, updated_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		q.Prompt,
		string(optionsJSON),
		q.Answer,
		q.Category,
		string(q.Difficulty),
		strings.Join(q.Tags, ","),
		q.CreatedAt.UnixNano(),
		q.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return quiz.Question{}, fmt.Errorf("insert question: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return quiz.Question{}, fmt.Errorf("insert question: %w", err)
	}
	q.ID = id
	return q, nil
}

func (s *Store) GetQuestion(ctx context.Context, id int64) (quiz.Question, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = ?`, id)
	q, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quiz.Question{}, quiz.ErrQuestionNotFound
		}
		return quiz.Question{}, fmt.Errorf("get question %d: %w", id, err)
	}
	return q, nil
}

// UpdateQuestion overwrites every column except id and created_at_unix.
func (s *Store) UpdateQuestion(ctx context.Context, q quiz.Question) error {
	optionsJSON, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	if q.UpdatedAt.IsZero() {
		q.UpdatedAt = s.now().UTC()
	}

	res, err := s.db.ExecContext(
		ctx,
		`UPDATE questions
		 SET prompt = ?, options_json = ?, answer = ?, category = ?, difficulty = ?, tags = ?, updated_at_unix = ?
		 WHERE id = ?`,
		q.Prompt,
		string(optionsJSON),
		q.Answer,
		q.Category,
		string(q.Difficulty),
		strings.Join(q.Tags, ","),
		q.UpdatedAt.UnixNano(),
		q.ID,
	)
	if err != nil {
		return fmt.Errorf("update question %d: %w", q.ID, err)
	}
	return requireAffected(res, quiz.ErrQuestionNotFound)
}

func (s *Store) DeleteQuestion(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete question %d: %w", id, err)
	}
	return requireAffected(res, quiz.ErrQuestionNotFound)
}

func (s *Store) ListQuestions(ctx context.Context, filter quiz.QuestionFilter) ([]quiz.Question, error) {
	where, args := questionWhere(filter)
	query := `SELECT ` + questionColumns + ` FROM questions` + where + ` ORDER BY created_at_unix DESC, id DESC`
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, max(filter.Offset, 0))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	questions := make([]quiz.Question, 0)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

func (s *Store) CountQuestions(ctx context.Context, filter quiz.QuestionFilter) (int, error) {
	where, args := questionWhere(filter)
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return count, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT category FROM questions ORDER BY category COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]string, 0)
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// questionWhere builds the WHERE clause shared by list and count. Text
// matches the prompt or any option text; LIKE is case-insensitive for ASCII.
func questionWhere(filter quiz.QuestionFilter) (string, []any) {
	var clauses []string
	var args []any

	if category := strings.TrimSpace(filter.Category); category != "" {
		clauses = append(clauses, `category = ? COLLATE NOCASE`)
		args = append(args, category)
	}
	if filter.Difficulty != "" {
		clauses = append(clauses, `difficulty = ?`)
		args = append(args, string(filter.Difficulty))
	}
	if text := strings.TrimSpace(filter.Text); text != "" {
		pattern := "%" + escapeLike(text) + "%"
		clauses = append(clauses, `(prompt LIKE ? ESCAPE '\'
			OR EXISTS (
				SELECT 1 FROM json_each(questions.options_json)
				WHERE json_extract(json_each.value, '$.text') LIKE ? ESCAPE '\'
			))`)
		args = append(args, pattern, pattern)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(text string) string {
	return likeEscaper.Replace(text)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (quiz.Question, error) {
	var (
		q             quiz.Question
		optionsJSON   string
		difficulty    string
		tags          string
		createdAtUnix int64
		updatedAtUnix int64
	)
	if err := row.Scan(
		&q.ID,
		&q.Prompt,
		&optionsJSON,
		&q.Answer,
		&q.Category,
		&difficulty,
		&tags,
		&createdAtUnix,
		&updatedAtUnix,
	); err != nil {
		return quiz.Question{}, err
	}
	if err := json.Unmarshal([]byte(optionsJSON), &q.Options); err != nil {
		return quiz.Question{}, fmt.Errorf("decode options for question %d: %w", q.ID, err)
	}
	q.Difficulty = quiz.Difficulty(difficulty)
	q.Tags = quiz.NormalizeTags([]string{tags})
	q.CreatedAt = unixOrZero(createdAtUnix)
	q.UpdatedAt = unixOrZero(updatedAtUnix)
	return q, nil
}

func requireAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
