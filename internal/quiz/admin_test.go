package quiz

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-desk/internal/opentdb"
)

func newTestAdminService(questions *fakeQuestionRepo, users *fakeUserRepo, clock *fakeClock) *AdminService {
	return NewAdminService(questions, users, &fakeResultRepo{},
		WithRand(rand.New(rand.NewSource(7))),
		WithClock(clock.Now),
	)
}

func validInput() QuestionInput {
	return QuestionInput{
		Prompt:     "What is the capital of France?",
		Options:    []string{"Berlin", "Paris", "Rome"},
		Answer:     "b",
		Category:   "Geography",
		Difficulty: "easy",
		Tags:       []string{"europe, capitals"},
	}
}

func TestCreateQuestionNormalizesInput(t *testing.T) {
	repo := newFakeQuestionRepo()
	clock := newFakeClock()
	service := newTestAdminService(repo, newFakeUserRepo(), clock)

	created, err := service.CreateQuestion(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "B", created.Answer)
	assert.Equal(t, DifficultyEasy, created.Difficulty)
	assert.Equal(t, []string{"europe", "capitals"}, created.Tags)
	assert.Equal(t, []Option{{"A", "Berlin"}, {"B", "Paris"}, {"C", "Rome"}}, created.Options)
	assert.Equal(t, clock.Now(), created.CreatedAt)
	assert.Equal(t, clock.Now(), created.UpdatedAt)
}

func TestCreateQuestionDefaults(t *testing.T) {
	service := newTestAdminService(newFakeQuestionRepo(), newFakeUserRepo(), newFakeClock())

	in := validInput()
	in.Category = "  "
	in.Difficulty = ""
	created, err := service.CreateQuestion(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, DefaultCategory, created.Category)
	assert.Equal(t, DifficultyMedium, created.Difficulty)
}

func TestCreateQuestionValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*QuestionInput)
		field  string
	}{
		{name: "empty prompt", mutate: func(in *QuestionInput) { in.Prompt = "  " }, field: "prompt"},
		{name: "markup-only prompt", mutate: func(in *QuestionInput) { in.Prompt = "<b></b>" }, field: "prompt"},
		{name: "long prompt", mutate: func(in *QuestionInput) { in.Prompt = strings.Repeat("x", 501) }, field: "prompt"},
		{name: "one option", mutate: func(in *QuestionInput) { in.Options = []string{"Only"} }, field: "options"},
		{name: "blank option", mutate: func(in *QuestionInput) { in.Options = []string{"Yes", " "} }, field: "options"},
		{name: "long option", mutate: func(in *QuestionInput) { in.Options[0] = strings.Repeat("x", 201) }, field: "options"},
		{name: "answer not present", mutate: func(in *QuestionInput) { in.Answer = "D" }, field: "answer"},
		{name: "answer blank", mutate: func(in *QuestionInput) { in.Answer = "" }, field: "answer"},
		{name: "bad difficulty", mutate: func(in *QuestionInput) { in.Difficulty = "Extreme" }, field: "difficulty"},
		{name: "long category", mutate: func(in *QuestionInput) { in.Category = strings.Repeat("c", 51) }, field: "category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeQuestionRepo()
			service := newTestAdminService(repo, newFakeUserRepo(), newFakeClock())

			in := validInput()
			tt.mutate(&in)
			_, err := service.CreateQuestion(context.Background(), in)
			require.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, 0, repo.createCalls)
		})
	}
}

func TestCreateQuestionStripsMarkup(t *testing.T) {
	service := newTestAdminService(newFakeQuestionRepo(), newFakeUserRepo(), newFakeClock())

	in := validInput()
	in.Prompt = "<script>alert(1)</script><b>Capital</b>   of\n France?"
	created, err := service.CreateQuestion(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Capital of France?", created.Prompt)
}

func TestUpdateQuestionKeepsCreatedAt(t *testing.T) {
	repo := newFakeQuestionRepo()
	clock := newFakeClock()
	service := newTestAdminService(repo, newFakeUserRepo(), clock)
	ctx := context.Background()

	created, err := service.CreateQuestion(ctx, validInput())
	require.NoError(t, err)

	clock.Advance(time.Hour)
	in := validInput()
	in.Prompt = "Which city is the capital of France?"
	updated, err := service.UpdateQuestion(ctx, created.ID, in)
	require.NoError(t, err)

	stored, err := repo.GetQuestion(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, stored)
	assert.Equal(t, created.CreatedAt, stored.CreatedAt)
	assert.True(t, stored.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, "Which city is the capital of France?", stored.Prompt)
}

func TestUpdateQuestionMissingAndInvalid(t *testing.T) {
	repo := newFakeQuestionRepo()
	service := newTestAdminService(repo, newFakeUserRepo(), newFakeClock())

	_, err := service.UpdateQuestion(context.Background(), 99, validInput())
	require.ErrorIs(t, err, ErrQuestionNotFound)

	bad := validInput()
	bad.Options = nil
	_, err = service.UpdateQuestion(context.Background(), 99, bad)
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 0, repo.updateCalls)
}

func TestDeleteQuestion(t *testing.T) {
	repo := bank()
	service := newTestAdminService(repo, newFakeUserRepo(), newFakeClock())

	require.NoError(t, service.DeleteQuestion(context.Background(), 1))
	require.ErrorIs(t, service.DeleteQuestion(context.Background(), 1), ErrQuestionNotFound)
	_, err := service.GetQuestion(context.Background(), 1)
	require.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestDeleteQuestionsReportsFailures(t *testing.T) {
	service := newTestAdminService(bank(), newFakeUserRepo(), newFakeClock())

	result, err := service.DeleteQuestions(context.Background(), []int64{1, 42, 2})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Deleted)
	assert.Equal(t, []int64{42}, result.Failed)
}

func TestDuplicateQuestion(t *testing.T) {
	repo := bank()
	service := newTestAdminService(repo, newFakeUserRepo(), newFakeClock())

	dup, err := service.DuplicateQuestion(context.Background(), 2)
	require.NoError(t, err)
	assert.NotEqual(t, int64(2), dup.ID)
	assert.True(t, strings.HasPrefix(dup.Prompt, "[Copy] "))
	assert.Equal(t, "B", dup.Answer)
	assert.Equal(t, DifficultyHard, dup.Difficulty)

	_, err = service.DuplicateQuestion(context.Background(), 404)
	require.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestListQuestionsPaginates(t *testing.T) {
	service := newTestAdminService(bank(), newFakeUserRepo(), newFakeClock())

	page, err := service.ListQuestions(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Questions, 2)
	assert.Equal(t, int64(3), page.Questions[0].ID)

	page, err = service.ListQuestions(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPerPage, page.PerPage)
}

func TestSearchQuestionsSanitizesText(t *testing.T) {
	repo := bank()
	service := newTestAdminService(repo, newFakeUserRepo(), newFakeClock())

	found, err := service.SearchQuestions(context.Background(), QuestionFilter{Text: "<i>gam</i>" + strings.Repeat(" ", 3)})
	require.NoError(t, err)
	assert.Len(t, found, 5)
	assert.Equal(t, "gam", repo.lastFilter.Text)

	_, err = service.SearchQuestions(context.Background(), QuestionFilter{Text: strings.Repeat("q", 300)})
	require.NoError(t, err)
	assert.Len(t, repo.lastFilter.Text, 100)

	_, err = service.SearchQuestions(context.Background(), QuestionFilter{Difficulty: "nope"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestStatisticsIncludesEveryDifficulty(t *testing.T) {
	service := newTestAdminService(newFakeQuestionRepo(sampleQuestion(1, "Art", DifficultyHard, "A")), newFakeUserRepo(), newFakeClock())

	stats, err := service.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, map[string]int{"Art": 1}, stats.ByCategory)
	assert.Equal(t, map[Difficulty]int{DifficultyEasy: 0, DifficultyMedium: 0, DifficultyHard: 1}, stats.ByDifficulty)

	dashboard, err := service.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, dashboard.Results.TotalQuizzes)
}

func TestAuthenticateAdmin(t *testing.T) {
	users := newFakeUserRepo()
	service := newTestAdminService(newFakeQuestionRepo(), users, newFakeClock())
	ctx := context.Background()

	_, err := service.CreateUser(ctx, "root", "secret", RoleAdmin)
	require.NoError(t, err)
	_, err = service.CreateUser(ctx, "alice", "secret", RoleUser)
	require.NoError(t, err)

	admin, err := service.AuthenticateAdmin(ctx, "root", "secret")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	_, err = service.AuthenticateAdmin(ctx, "alice", "secret")
	require.ErrorIs(t, err, ErrForbidden)

	_, err = service.AuthenticateAdmin(ctx, "root", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	calls := users.authCalls
	_, err = service.AuthenticateAdmin(ctx, "r", "secret")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, calls, users.authCalls, "malformed credentials never reach the store")
}

func TestSetUserActive(t *testing.T) {
	users := newFakeUserRepo()
	service := newTestAdminService(newFakeQuestionRepo(), users, newFakeClock())
	ctx := context.Background()

	_, err := service.CreateUser(ctx, "root", "secret", RoleAdmin)
	require.NoError(t, err)

	disabled, err := service.SetUserActive(ctx, " ROOT ", false)
	require.NoError(t, err)
	assert.False(t, disabled.Active)
	_, err = service.AuthenticateAdmin(ctx, "root", "secret")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	enabled, err := service.SetUserActive(ctx, "root", true)
	require.NoError(t, err)
	assert.True(t, enabled.Active)
	_, err = service.AuthenticateAdmin(ctx, "root", "secret")
	require.NoError(t, err)

	_, err = service.SetUserActive(ctx, "ghost", false)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreateUserValidation(t *testing.T) {
	service := newTestAdminService(newFakeQuestionRepo(), newFakeUserRepo(), newFakeClock())
	ctx := context.Background()

	_, err := service.CreateUser(ctx, "bad name", "secret", RoleUser)
	require.ErrorIs(t, err, ErrValidation)
	_, err = service.CreateUser(ctx, "bob", "abc", RoleUser)
	require.ErrorIs(t, err, ErrValidation)
	_, err = service.CreateUser(ctx, "bob", "secret", "owner")
	require.ErrorIs(t, err, ErrValidation)

	user, err := service.CreateUser(ctx, "bob", "secret", "")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, user.Role)
	_, err = service.CreateUser(ctx, "BOB", "secret", RoleUser)
	require.ErrorIs(t, err, ErrUsernameTaken)

	require.NoError(t, service.ChangePassword(ctx, user.ID, "better"))
	require.ErrorIs(t, service.ChangePassword(ctx, user.ID, "x"), ErrValidation)
}

func TestImportQuestions(t *testing.T) {
	repo := newFakeQuestionRepo()
	service := newTestAdminService(repo, newFakeUserRepo(), newFakeClock())

	raw := []opentdb.RawQuestion{
		{
			Type:             "multiple",
			Difficulty:       "hard",
			Category:         "Science &amp; Nature",
			Question:         "2 &amp; 2 = ?",
			CorrectAnswer:    "4",
			IncorrectAnswers: []string{"1", "2", "3"},
		},
		{
			Type:          "boolean",
			Question:      "Missing incorrect answers",
			CorrectAnswer: "True",
		},
	}

	summary, err := service.ImportQuestions(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, ImportSummary{Imported: 1, Skipped: 1}, summary)

	stored, err := repo.GetQuestion(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "2 & 2 = ?", stored.Prompt)
	assert.Equal(t, "Science & Nature", stored.Category)
	assert.Equal(t, DifficultyHard, stored.Difficulty)
	assert.Equal(t, []string{"opentdb", "multiple"}, stored.Tags)
	correct, ok := stored.CorrectOption()
	require.True(t, ok)
	assert.Equal(t, "4", correct.Text)
}
