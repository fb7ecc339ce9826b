package quiz

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type fakeQuestionRepo struct {
	questions map[int64]Question
	nextID    int64

	createCalls int
	updateCalls int
	deleteCalls int
	listCalls   int
	lastFilter  QuestionFilter

	listErr error
}

func newFakeQuestionRepo(questions ...Question) *fakeQuestionRepo {
	repo := &fakeQuestionRepo{questions: make(map[int64]Question)}
	for _, q := range questions {
		if q.ID == 0 {
			q.ID = repo.nextID + 1
		}
		if q.ID > repo.nextID {
			repo.nextID = q.ID
		}
		repo.questions[q.ID] = q
	}
	return repo
}

func (f *fakeQuestionRepo) CreateQuestion(_ context.Context, q Question) (Question, error) {
	f.createCalls++
	f.nextID++
	q.ID = f.nextID
	f.questions[q.ID] = q
	return q, nil
}

func (f *fakeQuestionRepo) GetQuestion(_ context.Context, id int64) (Question, error) {
	q, ok := f.questions[id]
	if !ok {
		return Question{}, ErrQuestionNotFound
	}
	return q, nil
}

func (f *fakeQuestionRepo) UpdateQuestion(_ context.Context, q Question) error {
	f.updateCalls++
	if _, ok := f.questions[q.ID]; !ok {
		return ErrQuestionNotFound
	}
	f.questions[q.ID] = q
	return nil
}

func (f *fakeQuestionRepo) DeleteQuestion(_ context.Context, id int64) error {
	f.deleteCalls++
	if _, ok := f.questions[id]; !ok {
		return ErrQuestionNotFound
	}
	delete(f.questions, id)
	return nil
}

func (f *fakeQuestionRepo) matching(filter QuestionFilter) []Question {
	out := make([]Question, 0, len(f.questions))
	for _, q := range f.questions {
		if filter.Category != "" && !strings.EqualFold(q.Category, filter.Category) {
			continue
		}
		if filter.Difficulty != "" && q.Difficulty != filter.Difficulty {
			continue
		}
		if filter.Text != "" && !containsText(q, filter.Text) {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func containsText(q Question, text string) bool {
	text = strings.ToLower(text)
	if strings.Contains(strings.ToLower(q.Prompt), text) {
		return true
	}
	for _, option := range q.Options {
		if strings.Contains(strings.ToLower(option.Text), text) {
			return true
		}
	}
	return false
}

func (f *fakeQuestionRepo) ListQuestions(_ context.Context, filter QuestionFilter) ([]Question, error) {
	f.listCalls++
	f.lastFilter = filter
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := f.matching(filter)
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []Question{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeQuestionRepo) CountQuestions(_ context.Context, filter QuestionFilter) (int, error) {
	return len(f.matching(filter)), nil
}

func (f *fakeQuestionRepo) ListCategories(_ context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	for _, q := range f.questions {
		seen[q.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

type fakeResultRepo struct {
	results     []QuizResult
	createCalls int
	createErr   error
}

func (f *fakeResultRepo) CreateResult(_ context.Context, result QuizResult) (QuizResult, error) {
	f.createCalls++
	if f.createErr != nil {
		return QuizResult{}, f.createErr
	}
	result.ID = int64(len(f.results) + 1)
	f.results = append(f.results, result)
	return result, nil
}

func (f *fakeResultRepo) ListResults(_ context.Context, userID int64, limit int) ([]QuizResult, error) {
	var out []QuizResult
	for i := len(f.results) - 1; i >= 0; i-- {
		if f.results[i].UserID == userID {
			out = append(out, f.results[i])
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeResultRepo) LatestResult(ctx context.Context, userID int64) (QuizResult, error) {
	results, _ := f.ListResults(ctx, userID, 1)
	if len(results) == 0 {
		return QuizResult{}, ErrResultNotFound
	}
	return results[0], nil
}

func (f *fakeResultRepo) ResultStatistics(_ context.Context) (ResultStats, error) {
	stats := ResultStats{TotalQuizzes: len(f.results), AverageScore: decimal.Zero, BestScore: decimal.Zero}
	if len(f.results) == 0 {
		return stats, nil
	}
	sum := decimal.Zero
	for _, r := range f.results {
		pct := r.Percentage()
		sum = sum.Add(pct)
		if pct.GreaterThan(stats.BestScore) {
			stats.BestScore = pct
		}
	}
	stats.AverageScore = sum.Div(decimal.NewFromInt(int64(len(f.results)))).Round(2)
	return stats, nil
}

type fakeUserRepo struct {
	users       map[string]User
	passwords   map[string]string
	authCalls   int
	updateCalls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]User), passwords: make(map[string]string)}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, in NewUser) (User, error) {
	key := strings.ToLower(in.Username)
	if _, ok := f.users[key]; ok {
		return User{}, ErrUsernameTaken
	}
	user := User{
		ID:        int64(len(f.users) + 1),
		Username:  in.Username,
		Role:      in.Role,
		Active:    true,
		CreatedAt: time.Unix(1_700_000_000, 0).UTC(),
	}
	f.users[key] = user
	f.passwords[key] = in.Password
	return user, nil
}

func (f *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (User, error) {
	user, ok := f.users[strings.ToLower(username)]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) Authenticate(_ context.Context, username, password string) (User, error) {
	f.authCalls++
	key := strings.ToLower(username)
	user, ok := f.users[key]
	if !ok || !user.Active || f.passwords[key] != password {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, userID int64, password string) error {
	f.updateCalls++
	for key, user := range f.users {
		if user.ID == userID {
			f.passwords[key] = password
			return nil
		}
	}
	return ErrUserNotFound
}

func (f *fakeUserRepo) SetUserActive(_ context.Context, userID int64, active bool) error {
	for key, user := range f.users {
		if user.ID == userID {
			user.Active = active
			f.users[key] = user
			return nil
		}
	}
	return ErrUserNotFound
}

// fakeClock advances only when told to.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func sampleQuestion(id int64, category string, difficulty Difficulty, answer string) Question {
	return Question{
		ID:     id,
		Prompt: "Question " + category,
		Options: []Option{
			{Label: "A", Text: "Alpha"},
			{Label: "B", Text: "Beta"},
			{Label: "C", Text: "Gamma"},
		},
		Answer:     answer,
		Category:   category,
		Difficulty: difficulty,
	}
}
